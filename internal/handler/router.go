package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/messaging-sync/internal/middleware"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

// RouterConfig configures the local API router.
type RouterConfig struct {
	JWTSecret         string
	UserID            string
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter mounts the local sync API.
func NewRouter(cfg RouterConfig, health *HealthHandler, session *SessionHandler, stream *StreamHandler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, cfg.UserID))
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/state", session.State)
		r.Get("/stream", stream.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(middleware.ScopeWrite))

			r.Put("/route", session.SetRoute)
			r.Post("/gesture", session.Gesture)

			r.Post("/conversations/refresh", session.Refresh)
			r.Post("/conversations/{type}/{id}/open", session.Open)

			r.Post("/messages", session.Send)
			r.Put("/messages/{id}", session.Edit)
			r.Delete("/messages/{id}", session.Delete)

			r.Put("/reply", session.SetReply)
			r.Delete("/reply", session.CancelReply)
		})
	})

	return r
}
