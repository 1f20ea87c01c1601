package middleware

import (
	"net/http"
	"time"

	"github.com/awareness-network/semindex/pkg/logger"
)

// Logger logs one record per request: error level for 5xx, warn for 4xx
// and info otherwise.
func Logger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.Status()
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", routePattern(r),
				"status", status,
				"size", sw.size,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}
			if id := GetRequestID(r.Context()); id != "" {
				fields = append(fields, "request_id", id)
			}

			ctx := r.Context()
			switch {
			case status >= http.StatusInternalServerError:
				log.ErrorContext(ctx, "http request", fields...)
			case status >= http.StatusBadRequest:
				log.WarnContext(ctx, "http request", fields...)
			default:
				log.InfoContext(ctx, "http request", fields...)
			}
		})
	}
}
