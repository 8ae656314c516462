package handler

import (
	"net/http"

	"antiromantic-be/internal/order"
	"antiromantic-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List handles GET /api/orders for the caller's own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	customerID, _ := utils.GetUserIDFromContext(r.Context())
	q := r.URL.Query()

	res, err := h.svc.ListForCustomer(r.Context(), customerID,
		utils.ParsePositiveInt(q.Get("page"), 1),
		utils.ParsePositiveInt(q.Get("limit"), 0),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, res)
}

// Get handles GET /api/orders/{orderNumber}. Admins may read any order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, _ := utils.GetUserIDFromContext(r.Context())

	o, err := h.svc.GetByOrderNumber(r.Context(), chi.URLParam(r, "orderNumber"), customerID, utils.IsAdmin(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, o)
}

// AdminList handles GET /api/admin/orders.
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := h.svc.ListForAdmin(r.Context(), order.AdminQuery{
		Page:   utils.ParsePositiveInt(q.Get("page"), 1),
		Limit:  utils.ParsePositiveInt(q.Get("limit"), 0),
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, res)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/admin/orders/{orderNumber}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	next, ok := order.ParseStatus(req.Status)
	if !ok {
		writeError(w, r, order.ErrInvalidStatus)
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "orderNumber"), next)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, o)
}
