package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awareness-network/semindex/pkg/api/response"
)

func TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		delay    time.Duration
		status   int
		timedOut bool
	}{
		{name: "completes in time", timeout: 200 * time.Millisecond, delay: 5 * time.Millisecond, status: http.StatusCreated},
		{name: "exceeds deadline", timeout: 30 * time.Millisecond, delay: 300 * time.Millisecond, status: http.StatusGatewayTimeout, timedOut: true},
		{name: "disabled", timeout: 0, delay: 5 * time.Millisecond, status: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Timeout(tt.timeout)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(tt.delay):
				case <-r.Context().Done():
				}
				w.Header().Set("X-Handler", "yes")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte("ok"))
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/index/search", nil)
			req.Header.Set(RequestIDHeader, "test-123")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if !tt.timedOut {
				assert.Equal(t, "ok", rec.Body.String())
				assert.Equal(t, "yes", rec.Header().Get("X-Handler"))
				return
			}
			var env response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, response.ErrCodeGatewayTimeout, env.Error.Code)
			assert.Equal(t, "test-123", env.Error.RequestID)
			assert.Empty(t, rec.Header().Get("X-Handler"))
		})
	}
}

func TestTimeout_LateWritesFail(t *testing.T) {
	lateErr := make(chan error, 1)
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(20 * time.Millisecond)
		_, err := w.Write([]byte("late"))
		lateErr <- err
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	select {
	case err := <-lateErr:
		assert.True(t, errors.Is(err, http.ErrHandlerTimeout))
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
}

func TestTimeout_WebsocketPassthrough(t *testing.T) {
	var hasDeadline bool
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusSwitchingProtocols)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws/agents", nil)
	req.Header.Set("Upgrade", "WebSocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, hasDeadline)
	assert.Equal(t, http.StatusSwitchingProtocols, rec.Code)
}

func TestTimeout_PanicPropagates(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	assert.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
