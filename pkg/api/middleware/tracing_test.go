package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useSpanRecorder installs a recording provider for the duration of the test.
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
	return recorder
}

// tracedRouter mounts a memory lookup behind RequestID and Tracing.
func tracedRouter(status int) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(Tracing(DefaultTracingOptions()))
	r.Get("/api/v1/index/memories/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})
	r.Get("/swagger/*", func(w http.ResponseWriter, _ *http.Request) {})
	return r
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_NamesSpanByRoute(t *testing.T) {
	recorder := useSpanRecorder(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/index/memories/genesis-026", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "GET /api/v1/index/memories/{id}", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, otelcodes.Unset, span.Status().Code)

	route, ok := attr(span, "http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/index/memories/{id}", route.AsString())

	path, _ := attr(span, "url.path")
	assert.Equal(t, "/api/v1/index/memories/genesis-026", path.AsString())

	id, _ := attr(span, "http.request_id")
	assert.Equal(t, "req-1", id.AsString())
}

func TestTracing_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   otelcodes.Code
	}{
		{http.StatusOK, otelcodes.Unset},
		{http.StatusNotFound, otelcodes.Unset},
		{http.StatusBadRequest, otelcodes.Unset},
		{http.StatusInternalServerError, otelcodes.Error},
		{http.StatusServiceUnavailable, otelcodes.Error},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			recorder := useSpanRecorder(t)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/index/memories/x", nil)
			tracedRouter(tt.status).ServeHTTP(httptest.NewRecorder(), req)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.want, spans[0].Status().Code)
			code, _ := attr(spans[0], "http.response.status_code")
			assert.Equal(t, int64(tt.status), code.AsInt64())
		})
	}
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	recorder := useSpanRecorder(t)

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		SpanID:     trace.SpanID{2, 2, 2, 2, 2, 2, 2, 2},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	carrier := propagation.HeaderCarrier{}
	otel.GetTextMapPropagator().Inject(trace.ContextWithSpanContext(context.Background(), parent), carrier)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/index/memories/genesis-001", nil)
	for k, v := range carrier {
		req.Header[k] = v
	}
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, parent.TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, parent.SpanID(), spans[0].Parent().SpanID())
}

func TestTracing_RootSpanWithoutHeaders(t *testing.T) {
	recorder := useSpanRecorder(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/index/memories/genesis-001", nil)
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Parent().IsValid())
}

func TestTracing_SkipsHealthAndDocs(t *testing.T) {
	recorder := useSpanRecorder(t)

	for _, path := range []string{"/health", "/swagger/index.html"} {
		tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Empty(t, recorder.Ended())
}

func TestTracing_OutsideChi(t *testing.T) {
	recorder := useSpanRecorder(t)

	handler := Tracing(TracingOptions{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/index/search", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/v1/index/search", spans[0].Name())
	_, ok := attr(spans[0], "http.route")
	assert.False(t, ok)
}
