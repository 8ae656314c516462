package product

import "antiromantic-be/internal/apperr"

var (
	ErrNotFound          = apperr.NotFound("product not found")
	ErrInsufficientStock = apperr.Conflict("insufficient stock")
	ErrInvalidSize       = apperr.Validation("invalid size")
	ErrInvalidQuantity   = apperr.Validation("quantity must be greater than zero")
)
