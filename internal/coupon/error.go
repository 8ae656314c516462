package coupon

import "antiromantic-be/internal/apperr"

var (
	ErrNotFound      = apperr.NotFound("coupon not found")
	ErrInactive      = apperr.Validation("coupon is not active")
	ErrOutOfWindow   = apperr.Validation("coupon is not valid at this time")
	ErrLimitExceeded = apperr.Conflict("coupon usage limit exceeded")
	ErrDuplicateCode = apperr.Conflict("coupon code already exists")
	ErrCodeRequired  = apperr.Validation("coupon code is required")
	ErrInvalidTotal  = apperr.Validation("order total must not be negative")
)
