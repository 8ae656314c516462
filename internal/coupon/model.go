package coupon

import (
	"strings"
	"time"

	"antiromantic-be/internal/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Active        bool            `json:"status"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	UsageLimit    *int            `json:"usageLimit,omitempty"`
	PerUserLimit  *int            `json:"perUserLimit,omitempty"`
	UsedCount     int             `json:"usedCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NormalizeCode is the stored form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckUsable reports why the coupon cannot be applied at now, if at all.
// The validity window is [StartDate, EndDate).
func (c *Coupon) CheckUsable(now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if now.Before(c.StartDate) || !now.Before(c.EndDate) {
		return ErrOutOfWindow
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrLimitExceeded
	}
	return nil
}

// DiscountFor computes the discount on subtotal, rounded half-up to cents and
// never more than the subtotal.
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	case DiscountAmount:
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}

	return decimal.Min(discount, subtotal)
}

// Quote is the outcome of a successful validation.
type Quote struct {
	Coupon   *Coupon
	Discount decimal.Decimal
}

type CreateInput struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Active        *bool           `json:"status"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	UsageLimit    *int            `json:"usageLimit"`
	PerUserLimit  *int            `json:"perUserLimit"`
}

func (in CreateInput) Validate() error {
	if NormalizeCode(in.Code) == "" {
		return ErrCodeRequired
	}

	switch in.DiscountType {
	case DiscountPercentage:
		if !in.DiscountValue.IsPositive() || in.DiscountValue.GreaterThan(hundred) {
			return apperr.Validation("percentage discount must be greater than 0 and at most 100")
		}
	case DiscountAmount:
		if !in.DiscountValue.IsPositive() {
			return apperr.Validation("amount discount must be greater than 0")
		}
	default:
		return apperr.Validation("discount type must be percentage or amount")
	}

	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return apperr.Validation("start and end date are required")
	}
	if !in.EndDate.After(in.StartDate) {
		return apperr.Validation("end date must be after start date")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return apperr.Validation("usage limit must be at least 1")
	}
	if in.PerUserLimit != nil && *in.PerUserLimit < 1 {
		return apperr.Validation("per user limit must be at least 1")
	}

	return nil
}

// UsageInput identifies one consumption of a coupon. UserID and OrderID are
// optional.
type UsageInput struct {
	CouponID uuid.UUID
	UserID   string
	OrderID  uuid.NullUUID
}
