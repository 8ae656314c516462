package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"antiromantic-be/internal/coupon"
	"antiromantic-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductReader resolves live product data.
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
}

type AssembleInput struct {
	Items           []CartItem
	ShippingAddress *Address
	BillingAddress  *Address
	CustomerID      string
	PaymentMethod   PaymentMethod
}

// StockDemand is the total quantity a draft needs from one product size.
type StockDemand struct {
	ProductID uuid.UUID
	Size      product.Size
	Quantity  int
}

// Draft is a priced, not yet persisted order.
type Draft struct {
	CustomerID      string
	Items           []Item
	ShippingAddress Address
	BillingAddress  Address
	Totals          Totals
	Coupon          *AppliedCoupon
	PaymentMethod   PaymentMethod
}

// ApplyCoupon prices c against the draft subtotal and rebalances the totals.
func (d *Draft) ApplyCoupon(c *coupon.Coupon) {
	discount := c.DiscountFor(d.Totals.Subtotal)

	d.Coupon = &AppliedCoupon{
		ID:             c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: discount,
	}
	d.Totals.Discount = discount
	d.rebalance()
}

func (d *Draft) rebalance() {
	t := &d.Totals
	t.Total = t.Subtotal.Sub(t.Discount).Add(t.Tax).Add(t.Shipping)
}

// Demand aggregates quantities per product size, ordered by product id then
// size so concurrent checkouts lock rows in the same order.
func (d *Draft) Demand() []StockDemand {
	type key struct {
		id   uuid.UUID
		size product.Size
	}

	index := map[key]int{}
	var out []StockDemand
	for _, item := range d.Items {
		k := key{item.ProductID, item.Size}
		if i, ok := index[k]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[k] = len(out)
		out = append(out, StockDemand{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
	}

	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].ProductID[:], out[j].ProductID[:]); c != 0 {
			return c < 0
		}
		return out[i].Size.Rank() < out[j].Size.Rank()
	})

	return out
}

// NewOrder materializes the draft with its identity.
func (d *Draft) NewOrder(id uuid.UUID, number string, now time.Time) *Order {
	return &Order{
		ID:              id,
		OrderNumber:     number,
		CustomerID:      d.CustomerID,
		Items:           d.Items,
		ShippingAddress: d.ShippingAddress,
		BillingAddress:  d.BillingAddress,
		Totals:          d.Totals,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   d.PaymentMethod,
		Coupon:          d.Coupon,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type Assembler struct {
	products ProductReader
}

func NewAssembler(products ProductReader) *Assembler {
	return &Assembler{products: products}
}

// Assemble resolves every cart line against live product data, checks the
// cumulative demand per size against stock and prices the draft. Tax and
// shipping are zero.
func (a *Assembler) Assemble(ctx context.Context, in AssembleInput) (*Draft, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if in.ShippingAddress.Missing() {
		return nil, ErrMissingShippingAddress
	}

	billing := *in.ShippingAddress
	if !in.BillingAddress.Missing() {
		billing = *in.BillingAddress
	}

	draft := &Draft{
		CustomerID:      in.CustomerID,
		ShippingAddress: *in.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   in.PaymentMethod,
		Totals: Totals{
			Subtotal: decimal.Zero,
			Discount: decimal.Zero,
			Tax:      decimal.Zero,
			Shipping: decimal.Zero,
		},
	}

	products := map[uuid.UUID]*product.Product{}
	reserved := map[string]int{}

	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		p, ok := products[line.ProductID]
		if !ok {
			var err error
			p, err = a.products.GetByID(ctx, line.ProductID)
			if errors.Is(err, product.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
			}
			if err != nil {
				return nil, err
			}
			if !p.Purchasable() {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
			}
			products[line.ProductID] = p
		}

		size, _ := product.ParseSize(line.Size)
		stock, carried := p.StockFor(size)
		key := p.ID.String() + "/" + string(size)
		if !carried || stock < reserved[key]+line.Quantity {
			return nil, fmt.Errorf("%w: %s size %s", ErrInsufficientStock, p.Name, line.Size)
		}
		reserved[key] += line.Quantity

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		draft.Items = append(draft.Items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			SKU:       p.SKU,
			Color:     p.Color,
			Size:      size,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
			LineTotal: lineTotal,
		})
		draft.Totals.Subtotal = draft.Totals.Subtotal.Add(lineTotal)
	}

	draft.rebalance()
	return draft, nil
}
