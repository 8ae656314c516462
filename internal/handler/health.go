package handler

import (
	"context"
	"net/http"
	"time"

	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/metrics"
	"antiromantic-be/internal/utils"

	"go.uber.org/zap"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// ServeHTTP reports 503 when the database is unreachable.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromCtx(ctx).Warn("health check failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type MetricsHandler struct {
	checkout *metrics.Checkout
}

func NewMetricsHandler(checkout *metrics.Checkout) *MetricsHandler {
	return &MetricsHandler{checkout: checkout}
}

// ServeHTTP handles GET /api/admin/metrics.
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{"checkout": h.checkout.Snapshot()})
}
