package interceptors

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const (
	callUnary  = "unary"
	callStream = "stream"
)

// Metrics holds the Prometheus collectors for gRPC calls. Calls are labelled
// by service and method rather than by full method name.
type Metrics struct {
	handled  *prometheus.CounterVec
	handling *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
	messages *prometheus.CounterVec
}

// NewMetrics registers the gRPC collectors with registerer. Collectors that
// are already registered are reused so an in-process restart keeps counting.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		handled: reuse(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semindex_grpc_handled_total",
			Help: "gRPC calls completed, by status code.",
		}, []string{"type", "service", "method", "code"})),
		handling: reuse(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "semindex_grpc_handling_seconds",
			Help:    "Time spent handling gRPC calls.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"type", "service", "method"})),
		inflight: reuse(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "semindex_grpc_in_flight",
			Help: "gRPC calls currently being handled.",
		}, []string{"type", "service"})),
		messages: reuse(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semindex_grpc_stream_msgs_total",
			Help: "Messages exchanged on gRPC streams.",
		}, []string{"service", "method", "direction"})),
	}
}

// observe wraps one call. The returned func records the outcome.
func (m *Metrics) observe(kind, fullMethod string) func(err error) {
	service, method := splitMethod(fullMethod)
	gauge := m.inflight.WithLabelValues(kind, service)
	gauge.Inc()
	start := time.Now()
	return func(err error) {
		gauge.Dec()
		m.handling.WithLabelValues(kind, service, method).Observe(time.Since(start).Seconds())
		m.handled.WithLabelValues(kind, service, method, status.Code(err).String()).Inc()
	}
}

// MetricsUnaryInterceptor records unary call counts, latency and concurrency.
func MetricsUnaryInterceptor(metrics *Metrics) grpc.UnaryServerInterceptor {
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		done := metrics.observe(callUnary, info.FullMethod)
		resp, err := handler(ctx, req)
		done(err)
		return resp, err
	}
}

// MetricsStreamInterceptor records stream outcomes and per-direction message counts.
func MetricsStreamInterceptor(metrics *Metrics) grpc.StreamServerInterceptor {
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		service, method := splitMethod(info.FullMethod)
		done := metrics.observe(callStream, info.FullMethod)
		err := handler(srv, &countingStream{
			ServerStream: ss,
			recv:         metrics.messages.WithLabelValues(service, method, "recv"),
			sent:         metrics.messages.WithLabelValues(service, method, "sent"),
		})
		done(err)
		return err
	}
}

type countingStream struct {
	grpc.ServerStream
	recv prometheus.Counter
	sent prometheus.Counter
}

func (s *countingStream) RecvMsg(m interface{}) error {
	err := s.ServerStream.RecvMsg(m)
	if err == nil {
		s.recv.Inc()
	}
	return err
}

func (s *countingStream) SendMsg(m interface{}) error {
	err := s.ServerStream.SendMsg(m)
	if err == nil {
		s.sent.Inc()
	}
	return err
}

func reuse[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	var are prometheus.AlreadyRegisteredError
	if err := registerer.Register(c); errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	return c
}
