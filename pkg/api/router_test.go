package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awareness-network/semindex/config"
	"github.com/awareness-network/semindex/pkg/api/handlers"
	"github.com/awareness-network/semindex/pkg/api/middleware"
	"github.com/awareness-network/semindex/pkg/genesis"
	"github.com/awareness-network/semindex/pkg/index"
	"github.com/awareness-network/semindex/pkg/logger"
	"github.com/awareness-network/semindex/pkg/registry"
	"github.com/awareness-network/semindex/pkg/storage/memory"
)

type recordedRequest struct {
	method, path, status string
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	active   int
}

func (f *fakeRecorder) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method, path, status})
}

func (f *fakeRecorder) IncActiveConnections() {
	f.mu.Lock()
	f.active++
	f.mu.Unlock()
}

func (f *fakeRecorder) DecActiveConnections() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.HTTP.RequestTimeout = 5 * time.Second
	return cfg
}

// createTestHandlers wires every handler against the embedded dataset and an
// in-memory registry.
func createTestHandlers(t *testing.T, limiter *middleware.RateLimiter) (*Handlers, *fakeRecorder) {
	t.Helper()

	log := logger.NewNop()
	dataset := genesis.Default()
	reg := registry.New(memory.NewMemoryStorage())
	svc := index.New(dataset, reg)
	ws := handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{})
	t.Cleanup(ws.Close)

	rec := &fakeRecorder{}
	return &Handlers{
		Index:       handlers.NewIndexHandler(svc, log, true),
		Agent:       handlers.NewAgentHandler(reg, log),
		Health:      handlers.NewHealthHandler(dataset, reg, handlers.WithAgentCounter(reg)),
		WebSocket:   ws,
		Metrics:     rec,
		RateLimiter: limiter,
	}, rec
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(testConfig(), logger.NewNop(), &Handlers{})
	require.NotNil(t, router)

	// With no handlers only swagger is mounted.
	w := serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Routes(t *testing.T) {
	h, _ := createTestHandlers(t, nil)
	router := NewRouter(testConfig(), logger.NewNop(), h)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"topic", http.MethodGet, "/api/v1/index/topic?topic=sql", "", http.StatusOK},
		{"domain", http.MethodGet, "/api/v1/index/domain/legal_analysis", "", http.StatusOK},
		{"task", http.MethodGet, "/api/v1/index/task/code_generation", "", http.StatusOK},
		{"search", http.MethodPost, "/api/v1/index/search", `{"query":"solidity reentrancy"}`, http.StatusOK},
		{"leaderboard", http.MethodGet, "/api/v1/index/leaderboard", "", http.StatusOK},
		{"stats", http.MethodGet, "/api/v1/index/stats", "", http.StatusOK},
		{"domains", http.MethodGet, "/api/v1/index/domains", "", http.StatusOK},
		{"task types", http.MethodGet, "/api/v1/index/task-types", "", http.StatusOK},
		{"genesis", http.MethodGet, "/api/v1/index/genesis?limit=5", "", http.StatusOK},
		{"genesis search", http.MethodGet, "/api/v1/index/genesis/search?keyword=sql", "", http.StatusOK},
		{"genesis category", http.MethodGet, "/api/v1/index/genesis/categories/planning", "", http.StatusOK},
		{"memory", http.MethodGet, "/api/v1/index/memories/genesis-050", "", http.StatusOK},
		{"memory missing", http.MethodGet, "/api/v1/index/memories/nope", "", http.StatusNotFound},
		{"validate", http.MethodPost, "/api/v1/index/validate", `{}`, http.StatusOK},
		{"agents list", http.MethodGet, "/api/v1/agents", "", http.StatusOK},
		{"agent missing", http.MethodGet, "/api/v1/agents/agent-missing", "", http.StatusNotFound},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", http.StatusOK},
		{"status", http.MethodGet, "/status", "", http.StatusOK},
		{"unknown", http.MethodGet, "/api/v1/memories", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/v1/index/stats", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, "body: %s", w.Body.String())
		})
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	h, _ := createTestHandlers(t, nil)
	router := NewRouter(testConfig(), logger.NewNop(), h)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = serve(router, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RecordsMetrics(t *testing.T) {
	h, rec := createTestHandlers(t, nil)
	router := NewRouter(testConfig(), logger.NewNop(), h)

	serve(router, http.MethodGet, "/api/v1/index/domain/legal_analysis", "")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.requests, 1)
	assert.Equal(t, http.MethodGet, rec.requests[0].method)
	assert.Equal(t, "200", rec.requests[0].status)
	assert.Equal(t, 0, rec.active)
}

func TestRouter_RateLimitsRegistrationOnly(t *testing.T) {
	h, _ := createTestHandlers(t, middleware.NewRateLimiter(0.001, 2))
	router := NewRouter(testConfig(), logger.NewNop(), h)

	body := `{"name":"a","description":"d","modelType":"gpt-4","capabilities":["sql"],"tbaAddress":"0x1"}`
	for i := 0; i < 2; i++ {
		w := serve(router, http.MethodPost, "/api/v1/agents", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := serve(router, http.MethodPost, "/api/v1/agents", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Reads on the same route group are not throttled.
	for i := 0; i < 5; i++ {
		w = serve(router, http.MethodGet, "/api/v1/agents", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRouter_AuthGuardsWrites(t *testing.T) {
	const key = "agent-writer-key-0001"
	h, _ := createTestHandlers(t, nil)
	auth, err := middleware.NewAuthenticator([]string{key})
	require.NoError(t, err)
	h.Auth = auth
	router := NewRouter(testConfig(), logger.NewNop(), h)

	send := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	register := `{"name":"a","description":"d","modelType":"gpt-4","capabilities":["sql"],"tbaAddress":"0x1"}`
	activity := `{"action":"publish"}`

	for _, token := range []string{"", "not-the-key-0000000"} {
		w := send(http.MethodPost, "/api/v1/agents", register, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
		w = send(http.MethodPost, "/api/v1/agents/agent-x/activity", activity, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	}
	w := send(http.MethodGet, "/api/v1/agents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`, "rejected registration reached the registry")

	w = send(http.MethodPost, "/api/v1/agents", register, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = send(http.MethodPost, "/api/v1/agents/"+created.ID+"/activity", activity, key)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// Reads stay public.
	w = send(http.MethodGet, "/api/v1/agents/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reputation_score":10`)
}

func TestRouter_CORS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORS.Enabled = true
	cfg.Server.CORS.AllowedOrigins = []string{"https://explorer.example"}

	h, _ := createTestHandlers(t, nil)
	router := NewRouter(cfg, logger.NewNop(), h)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/index/stats", nil)
	req.Header.Set("Origin", "https://explorer.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://explorer.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Swagger(t *testing.T) {
	router := NewRouter(testConfig(), logger.NewNop(), &Handlers{})

	w := serve(router, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/index/search")
}
