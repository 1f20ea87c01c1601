package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/awareness-network/semindex/pkg/api/middleware"
	"github.com/awareness-network/semindex/pkg/api/models"
	"github.com/awareness-network/semindex/pkg/api/response"
	"github.com/awareness-network/semindex/pkg/logger"
	"github.com/awareness-network/semindex/pkg/registry"
)

var agentListLimits = limitBounds{def: 50, min: 1, max: 100}

// AgentHandler serves the agent registry endpoints.
type AgentHandler struct {
	registry  *registry.Registry
	logger    logger.Logger
	validator *validator.Validate
}

// NewAgentHandler creates an agent handler.
func NewAgentHandler(reg *registry.Registry, log logger.Logger) *AgentHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AgentHandler{
		registry:  reg,
		logger:    log,
		validator: newValidator(),
	}
}

// Register handles POST /api/v1/agents
// @Summary Register an agent
// @Tags agents
// @Accept json
// @Produce json
// @Param agent body models.RegisterAgentRequest true "Agent registration"
// @Success 201 {object} storage.AgentState
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/agents [post]
func (h *AgentHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.DebugContext(ctx, "Failed to decode registration", "error", err)
		badRequest(w, ctx, "Invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeValidationError(w, err, getRequestID(ctx))
		return
	}

	agent, err := h.registry.Register(ctx, req.ToParams())
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to register agent", "error", err)
		response.HandleError(w, err, getRequestID(ctx))
		return
	}

	attrs := append([]any{"agent_id", agent.ID, "model_type", agent.ModelType}, callerAttrs(ctx)...)
	h.logger.InfoContext(ctx, "Agent registered", attrs...)
	w.Header().Set("Location", "/api/v1/agents/"+agent.ID)
	response.JSON(w, http.StatusCreated, agent)
}

// List handles GET /api/v1/agents
// @Summary List agents by reputation
// @Tags agents
// @Produce json
// @Param modelType query string false "Filter by model type"
// @Param capability query string false "Filter by capability"
// @Param limit query int false "Maximum number of results (1-100)" default(50)
// @Success 200 {object} models.AgentListResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/agents [get]
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r, agentListLimits)
	if err != nil {
		validationFailed(w, ctx, err.Error())
		return
	}

	agents, err := h.registry.List(ctx, registry.ListParams{
		ModelType:  r.URL.Query().Get("modelType"),
		Capability: r.URL.Query().Get("capability"),
		Limit:      limit,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list agents", "error", err)
		response.HandleError(w, err, getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, models.NewAgentListResponse(agents))
}

// Get handles GET /api/v1/agents/{id}
// @Summary Get an agent
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} storage.AgentState
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/agents/{id} [get]
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	agent, err := h.registry.Get(ctx, id)
	if err != nil {
		if errors.Is(err, registry.ErrAgentNotFound) {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Agent not found", getRequestID(ctx))
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get agent", "agent_id", id, "error", err)
		response.HandleError(w, err, getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, agent)
}

// RecordActivity handles POST /api/v1/agents/{id}/activity
// @Summary Record agent activity
// @Description publish adds 10 reputation, consume adds 1; unknown agents are ignored
// @Tags agents
// @Accept json
// @Param id path string true "Agent ID"
// @Param activity body models.ActivityRequest true "Activity"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/agents/{id}/activity [post]
func (h *AgentHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req models.ActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, ctx, "Invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeValidationError(w, err, getRequestID(ctx))
		return
	}

	if err := h.registry.UpdateActivity(ctx, id, registry.Action(req.Action)); err != nil {
		h.logger.ErrorContext(ctx, "Failed to record activity", "agent_id", id, "error", err)
		response.HandleError(w, err, getRequestID(ctx))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// callerAttrs names the API key that authorized a write, when auth is on.
func callerAttrs(ctx context.Context) []any {
	if idx, ok := middleware.APIKeyIndex(ctx); ok {
		return []any{"api_key", idx}
	}
	return nil
}
