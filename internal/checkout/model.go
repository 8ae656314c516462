package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"antiromantic-be/internal/apperr"
	"antiromantic-be/internal/order"
	"antiromantic-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarningCouponUsageNotRecorded flags an order whose coupon consumption
// could not be stored and needs reconciling.
const WarningCouponUsageNotRecorded = "coupon_usage_not_recorded"

var ErrUnauthenticated = apperr.Auth("authentication required")

// Request is the checkout payload. Of the client coupon block only the code
// is read; the discount is always recomputed.
type Request struct {
	Items           []order.CartItem `json:"items"`
	ShippingAddress *order.Address   `json:"shippingAddress"`
	BillingAddress  *order.Address   `json:"billingAddress"`
	Coupon          *CouponRef       `json:"coupon"`
	PaymentMethod   string           `json:"paymentMethod"`
}

// fingerprint identifies the request body an idempotency key is bound to.
func (r Request) fingerprint() string {
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type CouponRef struct {
	Code string `json:"code"`
}

func (r Request) couponCode() string {
	if r.Coupon == nil {
		return ""
	}
	return r.Coupon.Code
}

type Result struct {
	OrderNumber string          `json:"orderNumber"`
	OrderID     uuid.UUID       `json:"orderId"`
	Total       decimal.Decimal `json:"total"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// OrderPlaced is the payload of the order.created event.
type OrderPlaced struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	CustomerID  string          `json:"customerId"`
	Lines       []PlacedLine    `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	CouponCode  string          `json:"couponCode,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	PlacedAt    time.Time       `json:"placedAt"`
}

type PlacedLine struct {
	ProductID uuid.UUID    `json:"productId"`
	Size      product.Size `json:"size"`
	Quantity  int          `json:"quantity"`
}

func newOrderPlaced(o *order.Order, warnings []string) OrderPlaced {
	ev := OrderPlaced{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Subtotal:    o.Subtotal,
		Discount:    o.Discount,
		Total:       o.Total,
		Warnings:    warnings,
		PlacedAt:    o.CreatedAt,
	}
	for _, item := range o.Items {
		ev.Lines = append(ev.Lines, PlacedLine{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
	}
	if o.Coupon != nil {
		ev.CouponCode = o.Coupon.Code
	}
	return ev
}
