package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// MetricsRecorder defines the interface for recording HTTP metrics.
type MetricsRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	IncActiveConnections()
	DecActiveConnections()
}

// contextMetricsRecorder is implemented by recorders that attach trace
// exemplars from the request context.
type contextMetricsRecorder interface {
	RecordHTTPRequestWithContext(ctx context.Context, method, path, status string, duration time.Duration)
}

// Metrics records one observation per request, labelled by the matched
// route. Scrapes of /metrics are not recorded. A panicking handler is
// recorded as 500 before the panic continues up the chain.
func Metrics(recorder MetricsRecorder) func(http.Handler) http.Handler {
	record := func(r *http.Request, path, status string, d time.Duration) {
		recorder.RecordHTTPRequest(r.Method, path, status, d)
	}
	if cr, ok := recorder.(contextMetricsRecorder); ok {
		record = func(r *http.Request, path, status string, d time.Duration) {
			cr.RecordHTTPRequestWithContext(r.Context(), r.Method, path, status, d)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/metrics") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncActiveConnections()
			defer recorder.DecActiveConnections()

			sw := &statusWriter{ResponseWriter: w}
			defer func() {
				status := sw.Status()
				p := recover()
				if p != nil {
					status = http.StatusInternalServerError
				}
				record(r, metricsPath(r), strconv.Itoa(status), time.Since(start))
				if p != nil {
					panic(p)
				}
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// metricsPath prefers the matched route so path parameters do not inflate
// label cardinality.
func metricsPath(r *http.Request) string {
	if pattern := routePattern(r); pattern != "" {
		return pattern
	}
	return normalizePath(r.URL.Path)
}

// normalizePath normalizes URL paths to reduce cardinality.
// Replaces UUIDs, agent ids, memory ids and numeric ids with placeholders.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isIdentifier(part) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isIdentifier(part string) bool {
	if part == "" {
		return false
	}
	// UUIDs (8-4-4-4-12 format), optionally with an agent- prefix
	trimmed := strings.TrimPrefix(part, "agent-")
	if len(trimmed) == 36 && strings.Count(trimmed, "-") == 4 {
		return true
	}
	if rest, ok := strings.CutPrefix(part, "genesis-"); ok && rest != "" {
		part = rest
	}
	_, err := strconv.Atoi(part)
	return err == nil
}
