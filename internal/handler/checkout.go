package handler

import (
	"context"
	"errors"
	"net/http"

	"antiromantic-be/internal/apperr"
	"antiromantic-be/internal/checkout"
	"antiromantic-be/internal/idempotency"
	"antiromantic-be/internal/utils"
)

const idempotencyHeader = "Idempotency-Key"

type CheckoutService interface {
	Checkout(ctx context.Context, customerID, idempotencyKey string, req checkout.Request) (*checkout.Result, error)
}

type CheckoutHandler struct {
	svc CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	customerID, _ := utils.GetUserIDFromContext(r.Context())

	var req checkout.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Checkout(r.Context(), customerID, r.Header.Get(idempotencyHeader), req)
	if err != nil {
		writeErrorStatus(w, r, err, checkoutStatus(err))
		return
	}

	writeData(w, http.StatusCreated, res)
}

// checkoutStatus reports missing products, stock shortfalls and coupon
// problems as client errors. A duplicate in-flight request stays 409.
func checkoutStatus(err error) int {
	if errors.Is(err, idempotency.ErrInProgress) {
		return http.StatusConflict
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindConflict:
		return http.StatusBadRequest
	default:
		return statusFor(err)
	}
}
