// Package metrics exposes semindex's Prometheus metrics. A disabled Manager
// accepts every call and records nothing.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every semindex metric.
const Namespace = "semindex"

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	IndexDurationBuckets []float64
	IndexResultBuckets   []float64
	HTTPDurationBuckets  []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		Port:                 9091,
		Path:                 "/metrics",
		IndexDurationBuckets: prometheus.ExponentialBucketsRange(0.00001, 0.05, 8),
		IndexResultBuckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		HTTPDurationBuckets:  []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// Manager owns the metrics registry.
type Manager struct {
	registry *prometheus.Registry

	index *indexMetrics
	agent *agentMetrics
	http  *httpMetrics
}

// NewManager builds a Manager. A disabled config yields the no-op manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return NoOpManager()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	own := prometheus.WrapRegistererWithPrefix(Namespace+"_", reg)

	return &Manager{
		registry: reg,
		index:    newIndexMetrics(own, cfg),
		agent:    newAgentMetrics(own),
		http:     newHTTPMetrics(own, cfg),
	}
}

// NoOpManager returns a manager that records nothing.
func NoOpManager() *Manager {
	return &Manager{}
}

// Enabled reports whether metrics are collected.
func (m *Manager) Enabled() bool {
	return m.registry != nil
}

// Registerer exposes the registry so other packages can add collectors.
// It returns nil when metrics are disabled.
func (m *Manager) Registerer() prometheus.Registerer {
	if m.registry == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text or OpenMetrics format.
func (m *Manager) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartServer serves Handler on port at path until ctx is done.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.Enabled() {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
