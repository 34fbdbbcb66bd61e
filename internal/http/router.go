package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20

type RouterConfig struct {
	RequestTimeout time.Duration
	Metrics        HTTPRecorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Log            *zap.Logger
}

func NewRouter(checkoutHandler *CheckoutHandler, cfg RouterConfig) chi.Router {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(maxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1/checkout/sessions", func(r chi.Router) {
		r.Use(CustomerMiddleware)
		checkoutHandler.Routes(r)
	})
	return r
}
