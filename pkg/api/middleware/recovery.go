package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/awareness-network/semindex/pkg/api/response"
	"github.com/awareness-network/semindex/pkg/logger"
)

// Recovery turns handler panics into a 500 envelope. The panic value is
// logged with its stack and never sent to the client. http.ErrAbortHandler
// is re-raised so the server aborts the connection.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(p)
				}

				log.ErrorContext(r.Context(), "handler panicked",
					"panic", p,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if sw.committed() {
					// Too late for an envelope.
					return
				}
				response.Error(sw, http.StatusInternalServerError,
					response.ErrCodeInternalServer, "Internal server error", requestIDFor(r))
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
