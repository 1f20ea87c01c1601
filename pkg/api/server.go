// Package api wires the semindex HTTP surface: router, middleware and the
// listening server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/awareness-network/semindex/config"
	"github.com/awareness-network/semindex/pkg/logger"
)

// HTTPServer serves the router built from Handlers.
type HTTPServer struct {
	srv *http.Server
	log logger.Logger

	mu sync.Mutex
	ln net.Listener
}

// NewHTTPServer builds the server. Nothing listens until Start.
func NewHTTPServer(cfg *config.Config, log logger.Logger, h *Handlers) *HTTPServer {
	if log == nil {
		log = logger.NewNop()
	}
	hc := cfg.Server.HTTP
	return &HTTPServer{
		log: log.With("component", "http"),
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           NewRouter(cfg, log, h),
			ReadTimeout:       hc.ReadTimeout,
			ReadHeaderTimeout: hc.ReadTimeout,
			WriteTimeout:      hc.WriteTimeout,
			IdleTimeout:       hc.IdleTimeout,
			MaxHeaderBytes:    hc.MaxHeaderBytes,
		},
	}
}

// Start listens on the configured address and serves until Shutdown. It
// returns nil after a graceful shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info("HTTP server listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("HTTP server failed", "error", err)
		return fmt.Errorf("serve HTTP: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start is listening, or the
// configured address before that.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.srv.Addr
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.srv.Handler
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
