package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

type indexMetrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	results  *prometheus.HistogramVec
	memories prometheus.Gauge
}

func newIndexMetrics(reg prometheus.Registerer, cfg Config) *indexMetrics {
	f := promauto.With(reg)
	return &indexMetrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "index_operations_total",
			Help: "Index operations served, by operation.",
		}, []string{"operation"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "index_operation_duration_seconds",
			Help:    "Index operation latency.",
			Buckets: cfg.IndexDurationBuckets,
		}, []string{"operation"}),
		results: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "index_operation_results",
			Help:    "Results returned per index operation.",
			Buckets: cfg.IndexResultBuckets,
		}, []string{"operation"}),
		memories: f.NewGauge(prometheus.GaugeOpts{
			Name: "index_dataset_memories",
			Help: "Memory assets loaded into the index.",
		}),
	}
}

type agentMetrics struct {
	registered  prometheus.Counter
	activity    *prometheus.CounterVec
	subscribers prometheus.Gauge
}

func newAgentMetrics(reg prometheus.Registerer) *agentMetrics {
	f := promauto.With(reg)
	return &agentMetrics{
		registered: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_agents_registered_total",
			Help: "Agents registered since start.",
		}),
		activity: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_agent_activity_total",
			Help: "Agent activities applied, by action.",
		}, []string{"action"}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "registry_event_subscribers",
			Help: "Websocket subscribers to registry events.",
		}),
	}
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	active   prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer, cfg Config) *httpMetrics {
	f := promauto.With(reg)
	return &httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"method", "path", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: cfg.HTTPDurationBuckets,
		}, []string{"method", "path"}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "HTTP requests in progress.",
		}),
	}
}

// ObserveIndexOperation records one index operation.
func (m *Manager) ObserveIndexOperation(operation string, duration time.Duration, results int) {
	if m.index == nil {
		return
	}
	m.index.ops.WithLabelValues(operation).Inc()
	m.index.duration.WithLabelValues(operation).Observe(duration.Seconds())
	m.index.results.WithLabelValues(operation).Observe(float64(results))
}

// SetDatasetSize sets the number of loaded memory assets.
func (m *Manager) SetDatasetSize(n int) {
	if m.index != nil {
		m.index.memories.Set(float64(n))
	}
}

// RecordAgentRegistered counts one agent registration.
func (m *Manager) RecordAgentRegistered() {
	if m.agent != nil {
		m.agent.registered.Inc()
	}
}

// RecordAgentActivity counts one applied activity.
func (m *Manager) RecordAgentActivity(action string) {
	if m.agent != nil {
		m.agent.activity.WithLabelValues(action).Inc()
	}
}

// SetEventSubscribers sets the number of connected event subscribers.
func (m *Manager) SetEventSubscribers(n int) {
	if m.agent != nil {
		m.agent.subscribers.Set(float64(n))
	}
}

// RecordHTTPRequest records a finished request.
func (m *Manager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RecordHTTPRequestWithContext(context.Background(), method, path, status, duration)
}

// RecordHTTPRequestWithContext records a finished request. When ctx carries
// a span its ids become the exemplar of the latency observation.
func (m *Manager) RecordHTTPRequestWithContext(ctx context.Context, method, path, status string, duration time.Duration) {
	if m.http == nil {
		return
	}
	m.http.requests.WithLabelValues(method, path, status).Inc()

	obs := m.http.duration.WithLabelValues(method, path)
	if ex, ok := exemplar(ctx); ok {
		if eo, ok := obs.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(duration.Seconds(), ex)
			return
		}
	}
	obs.Observe(duration.Seconds())
}

// IncActiveConnections marks a request as started.
func (m *Manager) IncActiveConnections() {
	if m.http != nil {
		m.http.active.Inc()
	}
}

// DecActiveConnections marks a request as finished.
func (m *Manager) DecActiveConnections() {
	if m.http != nil {
		m.http.active.Dec()
	}
}

func exemplar(ctx context.Context) (prometheus.Labels, bool) {
	if ctx == nil {
		return nil, false
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil, false
	}
	return prometheus.Labels{
		"trace_id": sc.TraceID().String(),
		"span_id":  sc.SpanID().String(),
	}, true
}
