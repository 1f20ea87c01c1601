// Package api provides HTTP API server components.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/awareness-network/semindex/config"
	"github.com/awareness-network/semindex/pkg/api/handlers"
	"github.com/awareness-network/semindex/pkg/api/middleware"
	"github.com/awareness-network/semindex/pkg/logger"

	_ "github.com/awareness-network/semindex/docs/swagger" // Import generated docs
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Index serves the semantic index and genesis dataset.
	Index *handlers.IndexHandler

	// Agent serves the agent registry.
	Agent *handlers.AgentHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// WebSocket streams registry events.
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder

	// RateLimiter throttles agent registration. Nil disables it.
	RateLimiter *middleware.RateLimiter

	// Auth guards registration and activity reports. Nil leaves them open.
	Auth *middleware.Authenticator
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.Timeout(cfg.Server.HTTP.RequestTimeout))

	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if handlers.Index != nil {
			ih := handlers.Index
			r.Route("/index", func(r chi.Router) {
				r.Get("/topic", ih.FindByTopic)
				r.Get("/domain/{domain}", ih.FindByDomain)
				r.Get("/task/{taskType}", ih.FindByTask)
				r.Post("/search", ih.Search)
				r.Get("/leaderboard", ih.Leaderboard)
				r.Get("/stats", ih.Stats)
				r.Get("/domains", ih.Domains)
				r.Get("/task-types", ih.TaskTypes)
				r.Get("/genesis", ih.Genesis)
				r.Get("/genesis/search", ih.SearchGenesis)
				r.Get("/genesis/categories/{category}", ih.GenesisByCategory)
				r.Get("/memories/{id}", ih.GetMemory)
				r.Post("/validate", ih.Validate)
			})
		}

		if handlers.Agent != nil {
			ah := handlers.Agent
			r.Route("/agents", func(r chi.Router) {
				r.Get("/", ah.List)
				r.Get("/{id}", ah.Get)

				r.Group(func(r chi.Router) {
					if handlers.Auth != nil {
						r.Use(middleware.Auth(handlers.Auth))
					}
					r.With(rateLimit(handlers.RateLimiter)...).Post("/", ah.Register)
					r.Post("/{id}/activity", ah.RecordActivity)
				})
			})
		}

		if handlers.WebSocket != nil {
			r.Handle("/ws/agents", handlers.WebSocket)
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func rateLimit(rl *middleware.RateLimiter) []func(http.Handler) http.Handler {
	if rl == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{middleware.RateLimit(rl)}
}
