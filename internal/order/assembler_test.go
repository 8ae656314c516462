package order

import (
	"context"
	"errors"
	"testing"

	"antiromantic-be/internal/coupon"
	"antiromantic-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productMap map[uuid.UUID]*product.Product

func (m productMap) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type failingReader struct{ err error }

func (f failingReader) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return nil, f.err
}

func newProduct(price string, sizes ...product.SizeStock) *product.Product {
	p := &product.Product{
		ID:     uuid.New(),
		Name:   "Linen Shirt",
		SKU:    "LS-01",
		Color:  "ecru",
		Image:  "/img/ls.jpg",
		Price:  decimal.RequireFromString(price),
		Sizes:  sizes,
		Status: product.StatusActive,
	}
	p.TotalStock = p.SumSizes()
	return p
}

var shipTo = &Address{FirstName: "Ana", Address: "Jl. Melati 1", City: "Jakarta"}

func TestAssembler_Assemble(t *testing.T) {
	ctx := context.Background()

	t.Run("PricesCartAndSnapshotsItems", func(t *testing.T) {
		p1 := newProduct("100", product.SizeStock{Size: product.SizeM, Stock: 5})
		a := NewAssembler(productMap{p1.ID: p1})

		draft, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: p1.ID, Size: "M", Quantity: 2}},
			ShippingAddress: shipTo,
			CustomerID:      "user-1",
			PaymentMethod:   PaymentCOD,
		})
		require.NoError(t, err)

		assert.True(t, decimal.NewFromInt(200).Equal(draft.Totals.Subtotal))
		assert.True(t, decimal.NewFromInt(200).Equal(draft.Totals.Total))
		assert.True(t, draft.Totals.Balanced())
		require.Len(t, draft.Items, 1)
		item := draft.Items[0]
		assert.Equal(t, "Linen Shirt", item.Name)
		assert.Equal(t, "LS-01", item.SKU)
		assert.Equal(t, product.SizeM, item.Size)
		assert.True(t, decimal.NewFromInt(200).Equal(item.LineTotal))
		assert.Equal(t, *shipTo, draft.BillingAddress)
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		p1 := newProduct("100", product.SizeStock{Size: product.SizeM, Stock: 1})
		a := NewAssembler(productMap{p1.ID: p1})

		_, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: p1.ID, Size: "M", Quantity: 2}},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.ErrorIs(t, err, product.ErrInsufficientStock)
	})

	t.Run("CumulativeDemandAcrossLines", func(t *testing.T) {
		p1 := newProduct("100", product.SizeStock{Size: product.SizeM, Stock: 3})
		a := NewAssembler(productMap{p1.ID: p1})

		_, err := a.Assemble(ctx, AssembleInput{
			Items: []CartItem{
				{ProductID: p1.ID, Size: "M", Quantity: 2},
				{ProductID: p1.ID, Size: "m", Quantity: 2},
			},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("SizeNotCarried", func(t *testing.T) {
		p1 := newProduct("100", product.SizeStock{Size: product.SizeM, Stock: 3})
		a := NewAssembler(productMap{p1.ID: p1})

		_, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: p1.ID, Size: "XL", Quantity: 1}},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("ProductNotFound", func(t *testing.T) {
		a := NewAssembler(productMap{})

		_, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: uuid.New(), Size: "M", Quantity: 1}},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("DraftProductIsNotFound", func(t *testing.T) {
		p1 := newProduct("100", product.SizeStock{Size: product.SizeM, Stock: 3})
		p1.Status = product.StatusDraft
		a := NewAssembler(productMap{p1.ID: p1})

		_, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: p1.ID, Size: "M", Quantity: 1}},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		a := NewAssembler(productMap{})
		_, err := a.Assemble(ctx, AssembleInput{ShippingAddress: shipTo})
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("MissingShippingAddress", func(t *testing.T) {
		a := NewAssembler(productMap{})
		_, err := a.Assemble(ctx, AssembleInput{Items: []CartItem{{ProductID: uuid.New(), Size: "M", Quantity: 1}}})
		assert.ErrorIs(t, err, ErrMissingShippingAddress)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		a := NewAssembler(productMap{})
		_, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: uuid.New(), Size: "M", Quantity: 0}},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("ReaderError", func(t *testing.T) {
		boom := errors.New("db down")
		a := NewAssembler(failingReader{err: boom})
		_, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: uuid.New(), Size: "M", Quantity: 1}},
			ShippingAddress: shipTo,
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("ExplicitBillingAddress", func(t *testing.T) {
		p1 := newProduct("100", product.SizeStock{Size: product.SizeM, Stock: 5})
		a := NewAssembler(productMap{p1.ID: p1})
		billTo := &Address{FirstName: "Budi", Address: "Jl. Mawar 2", City: "Bogor"}

		draft, err := a.Assemble(ctx, AssembleInput{
			Items:           []CartItem{{ProductID: p1.ID, Size: "M", Quantity: 1}},
			ShippingAddress: shipTo,
			BillingAddress:  billTo,
		})
		require.NoError(t, err)
		assert.Equal(t, *billTo, draft.BillingAddress)
	})
}

func TestDraft_ApplyCoupon(t *testing.T) {
	d := &Draft{Totals: Totals{
		Subtotal: decimal.NewFromInt(200),
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
	}}

	t.Run("Percentage", func(t *testing.T) {
		d.ApplyCoupon(&coupon.Coupon{Code: "SAVE10", DiscountType: coupon.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)})
		assert.True(t, decimal.NewFromInt(20).Equal(d.Totals.Discount))
		assert.True(t, decimal.NewFromInt(180).Equal(d.Totals.Total))
		assert.Equal(t, "SAVE10", d.Coupon.Code)
		assert.True(t, d.Totals.Balanced())
	})

	t.Run("AmountNeverGoesNegative", func(t *testing.T) {
		d.ApplyCoupon(&coupon.Coupon{Code: "BIG", DiscountType: coupon.DiscountAmount, DiscountValue: decimal.NewFromInt(500)})
		assert.True(t, decimal.NewFromInt(200).Equal(d.Totals.Discount))
		assert.True(t, d.Totals.Total.IsZero())
		assert.True(t, d.Totals.Balanced())
	})
}

func TestDraft_Demand(t *testing.T) {
	a, b := uuid.MustParse("00000000-0000-0000-0000-000000000001"), uuid.MustParse("00000000-0000-0000-0000-000000000002")
	d := &Draft{Items: []Item{
		{ProductID: b, Size: product.SizeS, Quantity: 1},
		{ProductID: a, Size: product.SizeL, Quantity: 1},
		{ProductID: a, Size: product.SizeM, Quantity: 2},
		{ProductID: a, Size: product.SizeL, Quantity: 3},
	}}

	assert.Equal(t, []StockDemand{
		{ProductID: a, Size: product.SizeM, Quantity: 2},
		{ProductID: a, Size: product.SizeL, Quantity: 4},
		{ProductID: b, Size: product.SizeS, Quantity: 1},
	}, d.Demand())
}
