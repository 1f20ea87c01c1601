// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/awareness-network/semindex/pkg/api/response"
	"github.com/awareness-network/semindex/pkg/version"
)

var errDatasetEmpty = errors.New("memory dataset is not loaded")

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatasetSizer reports how many memories are loaded.
type DatasetSizer interface {
	Len() int
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status        string            `json:"status"`
	Ready         bool              `json:"ready"`
	Build         version.BuildInfo `json:"build"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Memories      int               `json:"memories"`
	Agents        int               `json:"agents"`
	Registry      string            `json:"registry"`
	Subscribers   int               `json:"subscribers"`
	Error         string            `json:"error,omitempty"`
}

// AgentCounter counts registered agents.
type AgentCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	dataset     DatasetSizer
	registry    Pinger
	agents      AgentCounter
	subscribers func() int
	started     time.Time
	pingTimeout time.Duration
}

// HealthOption configures a HealthHandler.
type HealthOption func(*HealthHandler)

// WithAgentCounter adds the agent count to /status.
func WithAgentCounter(c AgentCounter) HealthOption {
	return func(h *HealthHandler) {
		h.agents = c
	}
}

// WithSubscriberCount adds the websocket subscriber count to /status.
func WithSubscriberCount(fn func() int) HealthOption {
	return func(h *HealthHandler) {
		h.subscribers = fn
	}
}

// NewHealthHandler creates a new health handler. The service is ready once a
// non-empty dataset is loaded and the registry backend answers Ping.
func NewHealthHandler(dataset DatasetSizer, registry Pinger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		dataset:     dataset,
		registry:    registry,
		started:     time.Now(),
		pingTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles the /health endpoint (liveness check).
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness check).
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 503 {object} map[string]bool
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.check(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
			"ready": false,
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed status).
// @Summary Detailed service status
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := StatusResponse{
		Status:        "ok",
		Ready:         true,
		Build:         version.Get(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Registry:      "ok",
	}
	if h.dataset != nil {
		status.Memories = h.dataset.Len()
	}
	if h.subscribers != nil {
		status.Subscribers = h.subscribers()
	}

	if err := h.check(ctx); err != nil {
		status.Status = "degraded"
		status.Ready = false
		status.Error = err.Error()
		if h.registry != nil && h.ping(ctx) != nil {
			status.Registry = "unavailable"
		}
	}
	if h.agents != nil && status.Registry == "ok" {
		if n, err := h.agents.Count(ctx); err == nil {
			status.Agents = n
		}
	}

	response.JSON(w, http.StatusOK, status)
}

func (h *HealthHandler) check(ctx context.Context) error {
	if h.dataset == nil || h.dataset.Len() == 0 {
		return errDatasetEmpty
	}
	if h.registry != nil {
		if err := h.ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (h *HealthHandler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()
	return h.registry.Ping(ctx)
}
