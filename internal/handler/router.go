package handler

import (
	"net/http"
	"time"

	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/middleware"
	"antiromantic-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Checkout *CheckoutHandler
	Coupons  *CouponHandler
	Orders   *OrderHandler
	Products *ProductHandler
	Health   *HealthHandler
	Metrics  *MetricsHandler
}

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	RequestTimeout time.Duration
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", logger.RequestIDHeader, idempotencyHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware)
		}

		r.Post("/coupons/validate", h.Coupons.Validate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/checkout", h.Checkout.Checkout)
			r.Post("/coupons/usage", h.Coupons.RecordUsage)
			r.Get("/orders", h.Orders.List)
			r.Get("/orders/{orderNumber}", h.Orders.Get)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(utils.RoleAdmin))

			r.Get("/orders", h.Orders.AdminList)
			r.Patch("/orders/{orderNumber}/status", h.Orders.UpdateStatus)
			r.Get("/coupons", h.Coupons.List)
			r.Post("/coupons", h.Coupons.Create)
			r.Post("/products/{id}/restock", h.Products.Restock)
			r.Method(http.MethodGet, "/metrics", h.Metrics)
		})
	})

	return r
}
