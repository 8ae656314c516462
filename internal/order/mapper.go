package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary is the list view of an order.
type Summary struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerID    string          `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	City          string          `json:"city"`
	ItemCount     int             `json:"itemCount"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	CouponCode    string          `json:"couponCode,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func ToSummary(o *Order) Summary {
	s := Summary{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		CustomerName:  joinName(o.ShippingAddress.FirstName, o.ShippingAddress.LastName),
		City:          o.ShippingAddress.City,
		Total:         o.Total,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
	}

	for _, item := range o.Items {
		s.ItemCount += item.Quantity
	}
	if o.Coupon != nil {
		s.CouponCode = o.Coupon.Code
	}

	return s
}

func ToSummaries(orders []Order) []Summary {
	out := make([]Summary, 0, len(orders))
	for i := range orders {
		out = append(out, ToSummary(&orders[i]))
	}
	return out
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
