package handler

import (
	"net/http"
	"time"

	"antiromantic-be/internal/coupon"
	"antiromantic-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	svc coupon.Service
	now func() time.Time
}

func NewCouponHandler(svc coupon.Service) *CouponHandler {
	return &CouponHandler{svc: svc, now: time.Now}
}

type validateCouponRequest struct {
	CouponCode string          `json:"couponCode"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

type couponView struct {
	Code          string              `json:"code"`
	DiscountType  coupon.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal     `json:"discountValue"`
	Description   string              `json:"description"`
}

type discountView struct {
	Amount decimal.Decimal `json:"amount"`
}

type validateCouponResponse struct {
	Coupon   couponView   `json:"coupon"`
	Discount discountView `json:"discount"`
}

// Validate handles POST /api/coupons/validate. Failures use the
// {success:false, message} envelope.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, statusFor(err), false, err.Error())
		return
	}

	quote, err := h.svc.Validate(r.Context(), req.CouponCode, req.OrderTotal, h.now())
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			writeErrorStatus(w, r, err, code)
			return
		}
		writeMessage(w, code, false, err.Error())
		return
	}

	writeData(w, http.StatusOK, validateCouponResponse{
		Coupon: couponView{
			Code:          quote.Coupon.Code,
			DiscountType:  quote.Coupon.DiscountType,
			DiscountValue: quote.Coupon.DiscountValue,
			Description:   quote.Coupon.Description,
		},
		Discount: discountView{Amount: quote.Discount},
	})
}

type recordUsageRequest struct {
	CouponID uuid.UUID     `json:"couponId"`
	UserID   string        `json:"userId"`
	OrderID  uuid.NullUUID `json:"orderId"`
}

// RecordUsage handles POST /api/coupons/usage. Calls are not idempotent;
// every call consumes one use.
func (h *CouponHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var req recordUsageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, statusFor(err), false, err.Error())
		return
	}
	if req.CouponID == uuid.Nil {
		writeMessage(w, http.StatusBadRequest, false, "couponId is required")
		return
	}

	userID := req.UserID
	if userID == "" {
		userID, _ = utils.GetUserIDFromContext(r.Context())
	}

	err := h.svc.RecordUsage(r.Context(), coupon.UsageInput{
		CouponID: req.CouponID,
		UserID:   userID,
		OrderID:  req.OrderID,
	})
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			writeErrorStatus(w, r, err, code)
			return
		}
		writeMessage(w, code, false, err.Error())
		return
	}

	writeMessage(w, http.StatusOK, true, "coupon usage recorded")
}

// Create handles POST /api/admin/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in coupon.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, c)
}

// List handles GET /api/admin/coupons.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if coupons == nil {
		coupons = []coupon.Coupon{}
	}

	writeData(w, http.StatusOK, coupons)
}

func writeMessage(w http.ResponseWriter, code int, success bool, message string) {
	utils.WriteJSON(w, code, envelope{Success: success, Message: message})
}
