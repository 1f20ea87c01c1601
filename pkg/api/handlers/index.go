package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/awareness-network/semindex/pkg/api/models"
	"github.com/awareness-network/semindex/pkg/api/response"
	"github.com/awareness-network/semindex/pkg/asset"
	"github.com/awareness-network/semindex/pkg/genesis"
	"github.com/awareness-network/semindex/pkg/index"
	"github.com/awareness-network/semindex/pkg/logger"
)

var (
	topicLimits       = limitBounds{def: index.DefaultTopicLimit, min: 1, max: 50}
	leaderboardLimits = limitBounds{def: index.DefaultLeaderboardLimit, min: 1, max: 100}
	genesisLimits     = limitBounds{def: index.DefaultGenesisLimit, min: 1, max: 100}
)

// IndexHandler serves the semantic index endpoints.
type IndexHandler struct {
	service     *index.Service
	logger      logger.Logger
	validator   *validator.Validate
	strictEnums bool
}

// NewIndexHandler creates an index handler. With strictEnums, unknown domain,
// task type and category values are rejected instead of matching nothing.
func NewIndexHandler(svc *index.Service, log logger.Logger, strictEnums bool) *IndexHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &IndexHandler{
		service:     svc,
		logger:      log,
		validator:   newValidator(),
		strictEnums: strictEnums,
	}
}

// FindByTopic handles GET /api/v1/index/topic
// @Summary Find memories by topic
// @Description Rank memories by keyword relevance to a topic; results scoring 0.1 or less are dropped
// @Tags index
// @Produce json
// @Param topic query string true "Topic text"
// @Param limit query int false "Maximum number of results (1-50)" default(10)
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/topic [get]
func (h *IndexHandler) FindByTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topic := r.URL.Query().Get("topic")
	if strings.TrimSpace(topic) == "" {
		badRequest(w, ctx, "topic is required")
		return
	}
	limit, err := parseLimit(r, topicLimits)
	if err != nil {
		validationFailed(w, ctx, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, models.NewSearchResponse(h.service.FindByTopic(topic, limit)))
}

// FindByDomain handles GET /api/v1/index/domain/{domain}
// @Summary Find memories by domain
// @Tags index
// @Produce json
// @Param domain path string true "Domain"
// @Param limit query int false "Maximum number of results (1-50)" default(10)
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/domain/{domain} [get]
func (h *IndexHandler) FindByDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	domain := chi.URLParam(r, "domain")
	if h.strictEnums && !asset.IsDomain(domain) {
		validationFailed(w, ctx, "unknown domain: "+domain)
		return
	}
	limit, err := parseLimit(r, topicLimits)
	if err != nil {
		validationFailed(w, ctx, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, models.NewSearchResponse(h.service.FindByDomain(asset.Domain(domain), limit)))
}

// FindByTask handles GET /api/v1/index/task/{taskType}
// @Summary Find memories by task type
// @Tags index
// @Produce json
// @Param taskType path string true "Task type"
// @Param limit query int false "Maximum number of results (1-50)" default(10)
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/task/{taskType} [get]
func (h *IndexHandler) FindByTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskType := chi.URLParam(r, "taskType")
	if h.strictEnums && !asset.IsTaskType(taskType) {
		validationFailed(w, ctx, "unknown task type: "+taskType)
		return
	}
	limit, err := parseLimit(r, topicLimits)
	if err != nil {
		validationFailed(w, ctx, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, models.NewSearchResponse(h.service.FindByTask(asset.TaskType(taskType), limit)))
}

// Search handles POST /api/v1/index/search
// @Summary Search memories
// @Description Filter by domain, task type, model origin and visibility, then rank by query
// @Tags index
// @Accept json
// @Produce json
// @Param request body models.SearchRequest true "Search parameters"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/search [post]
func (h *IndexHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.DebugContext(ctx, "Failed to decode search request", "error", err)
		badRequest(w, ctx, "Invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeValidationError(w, err, getRequestID(ctx))
		return
	}
	if h.strictEnums {
		if req.Domain != "" && !asset.IsDomain(req.Domain) {
			validationFailed(w, ctx, "unknown domain: "+req.Domain)
			return
		}
		if req.TaskType != "" && !asset.IsTaskType(req.TaskType) {
			validationFailed(w, ctx, "unknown task type: "+req.TaskType)
			return
		}
	}

	results := h.service.Search(index.SearchParams{
		Query:       req.Query,
		Domain:      asset.Domain(req.Domain),
		TaskType:    asset.TaskType(req.TaskType),
		ModelOrigin: req.ModelOrigin,
		IsPublic:    req.IsPublic,
		Limit:       req.Limit,
	})
	response.JSON(w, http.StatusOK, models.NewSearchResponse(results))
}

// Leaderboard handles GET /api/v1/index/leaderboard
// @Summary Most used memories
// @Tags index
// @Produce json
// @Param limit query int false "Maximum number of results (1-100)" default(10)
// @Success 200 {object} models.MemoryListResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/leaderboard [get]
func (h *IndexHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, leaderboardLimits)
	if err != nil {
		validationFailed(w, r.Context(), err.Error())
		return
	}
	response.JSON(w, http.StatusOK, models.NewMemoryListResponse(h.service.Leaderboard(limit)))
}

// Stats handles GET /api/v1/index/stats
// @Summary Network statistics
// @Tags index
// @Produce json
// @Success 200 {object} index.Stats
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/index/stats [get]
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to compute stats", "error", err)
		response.HandleError(w, err, getRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

// Domains handles GET /api/v1/index/domains
// @Summary List domains
// @Tags index
// @Produce json
// @Success 200 {object} models.DomainsResponse
// @Router /api/v1/index/domains [get]
func (h *IndexHandler) Domains(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, models.DomainsResponse{Domains: h.service.Domains()})
}

// TaskTypes handles GET /api/v1/index/task-types
// @Summary List task types
// @Tags index
// @Produce json
// @Success 200 {object} models.TaskTypesResponse
// @Router /api/v1/index/task-types [get]
func (h *IndexHandler) TaskTypes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, models.TaskTypesResponse{TaskTypes: h.service.TaskTypes()})
}

// Genesis handles GET /api/v1/index/genesis
// @Summary List genesis memories
// @Tags genesis
// @Produce json
// @Param limit query int false "Maximum number of results (1-100)" default(100)
// @Success 200 {object} models.MemoryListResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/genesis [get]
func (h *IndexHandler) Genesis(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, genesisLimits)
	if err != nil {
		validationFailed(w, r.Context(), err.Error())
		return
	}
	response.JSON(w, http.StatusOK, models.NewMemoryListResponse(h.service.Genesis(limit)))
}

// SearchGenesis handles GET /api/v1/index/genesis/search
// @Summary Substring search over genesis memories
// @Tags genesis
// @Produce json
// @Param keyword query string true "Keyword"
// @Success 200 {object} models.MemoryListResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/genesis/search [get]
func (h *IndexHandler) SearchGenesis(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		badRequest(w, r.Context(), "keyword is required")
		return
	}
	response.JSON(w, http.StatusOK, models.NewMemoryListResponse(h.service.SearchGenesis(keyword)))
}

// GenesisByCategory handles GET /api/v1/index/genesis/categories/{category}
// @Summary Genesis memories in a category
// @Tags genesis
// @Produce json
// @Param category path string true "Category"
// @Success 200 {object} models.MemoryListResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/genesis/categories/{category} [get]
func (h *IndexHandler) GenesisByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if h.strictEnums && !genesis.IsCategory(category) {
		validationFailed(w, r.Context(), "unknown category: "+category)
		return
	}
	response.JSON(w, http.StatusOK, models.NewMemoryListResponse(h.service.GenesisByCategory(genesis.Category(category))))
}

// GetMemory handles GET /api/v1/index/memories/{id}
// @Summary Get a memory by id
// @Tags index
// @Produce json
// @Param id path string true "Memory ID"
// @Success 200 {object} asset.MemoryAsset
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/index/memories/{id} [get]
func (h *IndexHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := h.service.Get(id)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, a)
}

// Validate handles POST /api/v1/index/validate
// @Summary Validate a memory asset
// @Description Always returns 200 with every violation found
// @Tags index
// @Accept json
// @Produce json
// @Param asset body asset.MemoryAsset true "Memory asset"
// @Success 200 {object} asset.ValidationResult
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/index/validate [post]
func (h *IndexHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeLenient(w, r).Decode(&body); err != nil {
		badRequest(w, r.Context(), "Invalid request body")
		return
	}
	result, err := asset.ValidateJSON(body)
	if err != nil {
		badRequest(w, r.Context(), "Invalid request body")
		return
	}
	response.JSON(w, http.StatusOK, result)
}
