package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/handler"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/middleware"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

// RouterConfig holds dependencies for the router. Metrics, Gatherer,
// IdempotencyStore and RateLimiter are optional.
type RouterConfig struct {
	ReviewHandler    *handler.ReviewHandler
	EventsHandler    *handler.EventsHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	Gatherer         prometheus.Gatherer
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/init", cfg.ReviewHandler.Init)
		r.Get("/history", cfg.ReviewHandler.History)
		r.Get("/file-changes", cfg.EventsHandler.Stream)
		r.Get("/transaction/{id}", cfg.ReviewHandler.GetTransaction)

		// Mutating requests
		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Limit)
			}
			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
				r.Use(idempotencyMiddleware.Wrap)
			}

			r.Post("/transaction/{id}/account", cfg.ReviewHandler.SaveAccount)
			r.Post("/transaction/{id}/commit", cfg.ReviewHandler.Commit)
			r.Delete("/transaction/{id}", cfg.ReviewHandler.Dismiss)
		})
	})

	return r
}
