// Package tracing configures the process-wide OpenTelemetry tracer provider
// and offers span helpers for index and registry operations.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/awareness-network/semindex/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer used for application spans.
const InstrumentationName = "github.com/awareness-network/semindex"

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(ctx context.Context) error

// Logger is the subset of logger.Logger used here.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

type settings struct {
	service  string
	version  string
	log      Logger
	exporter sdktrace.SpanExporter
}

// Option customizes Init.
type Option func(*settings)

// WithService sets the service.name and service.version resource attributes.
func WithService(name, version string) Option {
	return func(s *settings) {
		s.service, s.version = name, version
	}
}

// WithLogger reports the provider setup and dropped exports.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithExporter replaces the OTLP exporter built from the config.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(s *settings) {
		s.exporter = exp
	}
}

var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

// Init installs the global tracer provider and propagator. With tracing
// disabled it installs a no-op provider but still propagates inbound trace
// context, so downstream services keep their parents.
func Init(ctx context.Context, cfg config.TracingConfig, opts ...Option) (ShutdownFunc, error) {
	s := settings{service: "semindex", log: nopLogger{}}
	for _, opt := range opts {
		opt(&s)
	}
	otel.SetTextMapPropagator(propagator)

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	endpoint := hostPort(cfg.Endpoint)
	exp := s.exporter
	if exp == nil {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithTimeout(cfg.Timeout),
			otlptracegrpc.WithInsecure(),
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		var err error
		if exp, err = otlptracegrpc.New(ctx, opts...); err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
	}
	guarded := &lossyExporter{next: exp, endpoint: endpoint, log: s.log}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(s.service),
		semconv.ServiceVersion(s.version),
	))
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, fmt.Errorf("create tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(guarded),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	s.log.Info("tracing enabled",
		"endpoint", endpoint,
		"sampler", cfg.Sampler,
		"sample_rate", cfg.SampleRate,
	)

	return func(ctx context.Context) error {
		flushErr := tp.ForceFlush(ctx)
		if dropped := guarded.dropped.Load(); dropped > 0 {
			s.log.Warn("spans dropped by tracing exporter", "span_count", dropped)
		}
		return errors.Join(flushErr, tp.Shutdown(ctx))
	}, nil
}

func checkConfig(cfg config.TracingConfig) error {
	var errs []error
	switch exp := strings.ToLower(strings.TrimSpace(cfg.Exporter)); exp {
	case "otlpgrpc":
	case "":
		errs = append(errs, errors.New("tracing exporter cannot be empty"))
	default:
		errs = append(errs, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter))
	}
	if hostPort(cfg.Endpoint) == "" {
		errs = append(errs, errors.New("tracing endpoint cannot be empty"))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, errors.New("tracing timeout must be positive"))
	}
	return errors.Join(errs...)
}

// lossyExporter logs and swallows export failures so an unreachable
// collector never surfaces as a request error. Shutdown still reports.
type lossyExporter struct {
	next     sdktrace.SpanExporter
	endpoint string
	log      Logger
	dropped  atomic.Int64
}

func (e *lossyExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if err := e.next.ExportSpans(ctx, spans); err != nil {
		e.dropped.Add(int64(len(spans)))
		e.log.Warn("tracing export failed", "error", err, "endpoint", e.endpoint, "span_count", len(spans))
	}
	return nil
}

func (e *lossyExporter) Shutdown(ctx context.Context) error {
	return e.next.Shutdown(ctx)
}

func sampler(cfg config.TracingConfig) sdktrace.Sampler {
	switch strings.ToLower(strings.TrimSpace(cfg.Sampler)) {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}
}

// hostPort accepts either host:port or a URL and returns host:port, which
// is what the gRPC exporter dials.
func hostPort(endpoint string) string {
	raw := strings.TrimSpace(endpoint)
	if !strings.Contains(raw, "://") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

// Start opens a span on the application tracer. End it with End.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
