package order

import (
	"antiromantic-be/internal/apperr"
	"antiromantic-be/internal/product"
)

var (
	ErrEmptyCart                = apperr.Validation("cart is empty")
	ErrMissingShippingAddress   = apperr.Validation("shipping address is required")
	ErrInvalidQuantity          = apperr.Validation("quantity must be greater than zero")
	ErrUnsupportedPaymentMethod = apperr.Validation("payment method is not supported")
	ErrProductNotFound          = apperr.NotFound("product not found")
	ErrInsufficientStock        = product.ErrInsufficientStock
	ErrNotFound                 = apperr.NotFound("order not found")
	ErrInvalidStatus            = apperr.Validation("invalid order status")
	ErrInvalidTransition        = apperr.Validation("order status transition is not allowed")
	ErrStatusChanged            = apperr.Conflict("order status was changed concurrently")
	ErrDuplicateOrderNumber     = apperr.Conflict("order number already exists")
)
