package handler

import (
	"net/http"

	"antiromantic-be/internal/apperr"
	"antiromantic-be/internal/product"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProductHandler struct {
	svc product.Service
}

func NewProductHandler(svc product.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type restockRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Restock handles POST /api/admin/products/{id}/restock.
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, apperr.Validation("invalid product id"))
		return
	}

	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.svc.Restock(r.Context(), id, req.Size, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, p)
}
