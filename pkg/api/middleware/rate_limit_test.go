package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/awareness-network/semindex/pkg/api/response"
)

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1:1234"); w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201", i, w.Code)
		}
	}

	w := send("10.0.0.1:5678")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	var errResp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	if errResp.Error.Code != response.ErrCodeRateLimited {
		t.Errorf("error code = %v, want %v", errResp.Error.Code, response.ErrCodeRateLimited)
	}

	// A different client has its own bucket.
	if w := send("10.0.0.2:1234"); w.Code != http.StatusCreated {
		t.Errorf("other client status = %d, want 201", w.Code)
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("stale")
	now = now.Add(time.Hour)
	rl.getLimiter("fresh")

	rl.mu.Lock()
	rl.evictIdle(now)
	_, staleKept := rl.limiters["stale"]
	_, freshKept := rl.limiters["fresh"]
	rl.mu.Unlock()

	if staleKept {
		t.Error("expected idle client to be evicted")
	}
	if !freshKept {
		t.Error("expected recent client to be kept")
	}
}

func TestRateLimiter_FullTableOfActiveClients(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	rl.maxClients = 3
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c"} {
		rl.getLimiter(id)
		now = now.Add(time.Second)
	}
	// Touch "a" so "b" becomes the least recently seen.
	rl.getLimiter("a")
	now = now.Add(time.Second)

	rl.getLimiter("d")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.limiters) != 3 {
		t.Fatalf("tracked %d clients, want 3", len(rl.limiters))
	}
	for id, want := range map[string]bool{"a": true, "b": false, "c": true, "d": true} {
		if _, ok := rl.limiters[id]; ok != want {
			t.Errorf("client %s tracked = %v, want %v", id, ok, want)
		}
	}
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.7:40000"
	if got := clientID(req); got != "192.168.1.7" {
		t.Errorf("clientID = %q", got)
	}
	req.RemoteAddr = "pipe"
	if got := clientID(req); got != "pipe" {
		t.Errorf("clientID = %q", got)
	}
}
