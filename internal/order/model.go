package order

import (
	"strings"
	"time"

	"antiromantic-be/internal/coupon"
	"antiromantic-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

var Statuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusRefunded,
}

// RevenueStatuses are the statuses whose totals count as revenue.
var RevenueStatuses = []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusRefunded},
	StatusConfirmed:  {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusCancelled, StatusRefunded},
}

func ParseStatus(s string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == candidate {
			return st, true
		}
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) countsAsRevenue() bool {
	for _, st := range RevenueStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

// PaymentCOD is cash on delivery, the only supported method.
const PaymentCOD PaymentMethod = "cod"

// ParsePaymentMethod defaults an empty method to cash on delivery.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PaymentCOD):
		return PaymentCOD, nil
	default:
		return "", ErrUnsupportedPaymentMethod
	}
}

type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	Apartment  string `json:"apartment,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Missing reports whether the address lacks what a courier needs.
func (a *Address) Missing() bool {
	return a == nil ||
		strings.TrimSpace(a.Address) == "" ||
		strings.TrimSpace(a.City) == ""
}

// Item is a line snapshot frozen at purchase time.
type Item struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	SKU       string          `json:"sku,omitempty"`
	Color     string          `json:"color,omitempty"`
	Size      product.Size    `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"total"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Balanced reports whether total == subtotal - discount + tax + shipping.
func (t Totals) Balanced() bool {
	return t.Total.Equal(t.Subtotal.Sub(t.Discount).Add(t.Tax).Add(t.Shipping))
}

type AppliedCoupon struct {
	ID             uuid.UUID           `json:"id"`
	Code           string              `json:"code"`
	DiscountType   coupon.DiscountType `json:"discountType"`
	DiscountValue  decimal.Decimal     `json:"discountValue"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
}

type Order struct {
	ID              uuid.UUID `json:"id"`
	OrderNumber     string    `json:"orderNumber"`
	CustomerID      string    `json:"customerId"`
	Items           []Item    `json:"items"`
	ShippingAddress Address   `json:"shippingAddress"`
	BillingAddress  Address   `json:"billingAddress"`

	Totals

	Status        Status         `json:"status"`
	PaymentStatus PaymentStatus  `json:"paymentStatus"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Coupon        *AppliedCoupon `json:"coupon,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	ConfirmedAt   *time.Time     `json:"confirmedAt,omitempty"`
	ShippedAt     *time.Time     `json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time     `json:"deliveredAt,omitempty"`
	CancelledAt   *time.Time     `json:"cancelledAt,omitempty"`
}

type Filter struct {
	CustomerID string
	Status     Status
	Search     string
	Limit      int
	Offset     int
}

type Stats struct {
	ByStatus map[Status]int  `json:"byStatus"`
	Total    int             `json:"total"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type AdminListResult struct {
	Orders     []Summary  `json:"orders"`
	Pagination Pagination `json:"pagination"`
	Stats      *Stats     `json:"stats"`
}

type ListResult struct {
	Orders     []Summary  `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
