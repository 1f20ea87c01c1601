package interceptors

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type testServerStream struct {
	ctx      context.Context
	recvMsgs []interface{}
	sendErr  error
}

func (t *testServerStream) Context() context.Context { return t.ctx }
func (t *testServerStream) SetHeader(md metadata.MD) error {
	return nil
}
func (t *testServerStream) SendHeader(md metadata.MD) error {
	return nil
}
func (t *testServerStream) SetTrailer(md metadata.MD) {}
func (t *testServerStream) SendMsg(m interface{}) error {
	return t.sendErr
}
func (t *testServerStream) RecvMsg(m interface{}) error {
	if len(t.recvMsgs) == 0 {
		return io.EOF
	}
	next := t.recvMsgs[0]
	t.recvMsgs = t.recvMsgs[1:]
	val := reflect.ValueOf(m)
	if val.Kind() == reflect.Ptr && val.Elem().CanSet() {
		val.Elem().Set(reflect.ValueOf(next))
	}
	return nil
}

type logRecord struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *recordingLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.add("info", msg, args)
}
func (l *recordingLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.add("warn", msg, args)
}
func (l *recordingLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.add("error", msg, args)
}

func (l *recordingLogger) last() logRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return logRecord{}
	}
	return l.records[len(l.records)-1]
}

func argValue(args []any, key string) any {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1]
		}
	}
	return nil
}

type echoReq struct {
	Service string
}

func TestRecoveryUnaryInterceptor_Panic(t *testing.T) {
	log := &recordingLogger{}
	interceptor := RecoveryUnaryInterceptor(log)
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/m"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", status.Code(err))
	}
	rec := log.last()
	if rec.level != "error" || argValue(rec.args, "panic") != "boom" {
		t.Fatalf("expected panic to be logged, got %+v", rec)
	}
}

func TestRecoveryStreamInterceptor_Panic(t *testing.T) {
	interceptor := RecoveryStreamInterceptor(nil)
	stream := &testServerStream{ctx: context.Background()}
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/svc/stream"}, func(srv interface{}, ss grpc.ServerStream) error {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", status.Code(err))
	}
}

func TestRequestIDUnaryInterceptor(t *testing.T) {
	tests := []struct {
		name     string
		incoming []string
		want     string
	}{
		{name: "propagates caller id", incoming: []string{"req-7"}, want: "req-7"},
		{name: "generates when absent"},
		{name: "replaces id with spaces", incoming: []string{"has space"}},
		{name: "replaces oversized id", incoming: []string{strings.Repeat("x", maxRequestIDLen+1)}},
		{name: "skips unusable first value", incoming: []string{"", "req-8"}, want: "req-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := metadata.MD{}
			for _, v := range tt.incoming {
				md.Append(RequestIDKey, v)
			}
			ctx := metadata.NewIncomingContext(context.Background(), md)

			var got string
			_, err := RequestIDUnaryInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/m"}, func(ctx context.Context, req interface{}) (interface{}, error) {
				got = RequestIDFromContext(ctx)
				return nil, nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != "" {
				if got != tt.want {
					t.Fatalf("request id = %q, want %q", got, tt.want)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("request id = %q, want a generated UUID", got)
			}
		})
	}
}

func TestRequestIDStreamInterceptor_WrapsContext(t *testing.T) {
	interceptor := RequestIDStreamInterceptor()
	stream := &testServerStream{ctx: context.Background()}
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/svc/stream"}, func(srv interface{}, ss grpc.ServerStream) error {
		if RequestIDFromContext(ss.Context()) == "" {
			return errors.New("request id missing on stream context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoggingUnaryInterceptor_Levels(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantCode  string
	}{
		{name: "ok", err: nil, wantLevel: "info", wantCode: "OK"},
		{name: "client error", err: status.Error(codes.NotFound, "unknown service"), wantLevel: "warn", wantCode: "NotFound"},
		{name: "server error", err: status.Error(codes.Unavailable, "store down"), wantLevel: "error", wantCode: "Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			interceptor := LoggingUnaryInterceptor(log)
			ctx := withRequestID(context.Background(), "req-1")
			_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, tt.err
			})
			if err != tt.err {
				t.Fatalf("interceptor changed the error: %v", err)
			}

			rec := log.last()
			if rec.level != tt.wantLevel {
				t.Errorf("level = %q, want %q", rec.level, tt.wantLevel)
			}
			if got := argValue(rec.args, "code"); got != tt.wantCode {
				t.Errorf("code = %v, want %s", got, tt.wantCode)
			}
			if got := argValue(rec.args, "request_id"); got != "req-1" {
				t.Errorf("request_id = %v, want req-1", got)
			}
		})
	}
}

func TestLoggingStreamInterceptor_UnknownRequestID(t *testing.T) {
	log := &recordingLogger{}
	interceptor := LoggingStreamInterceptor(log)
	stream := &testServerStream{ctx: context.Background()}
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}, func(srv interface{}, ss grpc.ServerStream) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := argValue(log.last().args, "request_id"); got != "unknown" {
		t.Fatalf("request_id = %v, want unknown", got)
	}
}

func TestMetricsUnaryInterceptor_Records(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	interceptor := MetricsUnaryInterceptor(metrics)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		if got := testutil.ToFloat64(metrics.inflight.WithLabelValues(callUnary, "grpc.health.v1.Health")); got != 1 {
			t.Errorf("in flight during call = %v, want 1", got)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})

	for code, want := range map[string]float64{"OK": 1, "NotFound": 1, "Internal": 0} {
		got := testutil.ToFloat64(metrics.handled.WithLabelValues(callUnary, "grpc.health.v1.Health", "Check", code))
		if got != want {
			t.Errorf("handled{code=%s} = %v, want %v", code, got, want)
		}
	}
	if got := testutil.ToFloat64(metrics.inflight.WithLabelValues(callUnary, "grpc.health.v1.Health")); got != 0 {
		t.Errorf("in flight after calls = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(metrics.handling); n != 1 {
		t.Errorf("latency series = %d, want 1", n)
	}
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewMetrics(registry)
	second := NewMetrics(registry)

	first.handled.WithLabelValues(callUnary, "svc", "m", "OK").Inc()
	if got := testutil.ToFloat64(second.handled.WithLabelValues(callUnary, "svc", "m", "OK")); got != 1 {
		t.Fatalf("expected shared counter, got %v", got)
	}
}

func TestMetricsStreamInterceptor_CountsMessages(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	interceptor := MetricsStreamInterceptor(metrics)

	stream := &testServerStream{
		ctx:      context.Background(),
		recvMsgs: []interface{}{echoReq{Service: "a"}, echoReq{Service: "b"}},
	}
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}, func(srv interface{}, ss grpc.ServerStream) error {
		var req echoReq
		_ = ss.RecvMsg(&req)
		_ = ss.RecvMsg(&req)
		_ = ss.RecvMsg(&req) // io.EOF is not counted
		return ss.SendMsg(&req)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recv := testutil.ToFloat64(metrics.messages.WithLabelValues("grpc.health.v1.Health", "Watch", "recv")); recv != 2 {
		t.Errorf("recv = %v, want 2", recv)
	}
	if sent := testutil.ToFloat64(metrics.messages.WithLabelValues("grpc.health.v1.Health", "Watch", "sent")); sent != 1 {
		t.Errorf("sent = %v, want 1", sent)
	}
	if got := testutil.ToFloat64(metrics.handled.WithLabelValues(callStream, "grpc.health.v1.Health", "Watch", "OK")); got != 1 {
		t.Errorf("handled = %v, want 1", got)
	}
}

func TestSplitMethod(t *testing.T) {
	tests := []struct {
		in          string
		wantService string
		wantMethod  string
	}{
		{"/grpc.health.v1.Health/Check", "grpc.health.v1.Health", "Check"},
		{"", "unknown", "unknown"},
		{"/lonely", "lonely", "unknown"},
	}
	for _, tt := range tests {
		service, method := splitMethod(tt.in)
		if service != tt.wantService || method != tt.wantMethod {
			t.Errorf("splitMethod(%q) = %q, %q", tt.in, service, method)
		}
	}
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prevProvider := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevProp)
	})
	return recorder
}

func incomingWithParent(traceID trace.TraceID, spanID trace.SpanID) context.Context {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	parentCtx := trace.ContextWithSpanContext(context.Background(), parent)
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(parentCtx, carrier)
	return metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string(carrier)))
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestTracingUnaryInterceptor(t *testing.T) {
	traceID := trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	tests := []struct {
		name       string
		err        error
		wantStatus otelcodes.Code
		wantCode   string
	}{
		{"ok", nil, otelcodes.Unset, "0"},
		{"caller error", status.Error(codes.NotFound, "no such service"), otelcodes.Unset, "5"},
		{"server fault", status.Error(codes.Unavailable, "registry down"), otelcodes.Error, "14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := recordSpans(t)
			ctx := incomingWithParent(traceID, trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8})
			ctx = withRequestID(ctx, "req-1")

			interceptor := TracingUnaryInterceptor()
			_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, func(ctx context.Context, req interface{}) (interface{}, error) {
				if !trace.SpanContextFromContext(ctx).IsValid() {
					t.Error("span missing from handler context")
				}
				return nil, tt.err
			})
			if err != tt.err {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			span := spans[0]
			if span.Name() != "/grpc.health.v1.Health/Check" {
				t.Errorf("span name = %q", span.Name())
			}
			if span.SpanContext().TraceID() != traceID {
				t.Errorf("span did not continue the inbound trace")
			}
			if span.Status().Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", span.Status().Code, tt.wantStatus)
			}
			if got := spanAttr(span, "rpc.grpc.status_code"); got != tt.wantCode {
				t.Errorf("rpc.grpc.status_code = %s, want %s", got, tt.wantCode)
			}
			if got := spanAttr(span, "rpc.service"); got != "grpc.health.v1.Health" {
				t.Errorf("rpc.service = %q", got)
			}
			if got := spanAttr(span, "rpc.request_id"); got != "req-1" {
				t.Errorf("rpc.request_id = %q", got)
			}
		})
	}
}

func TestTracingStreamInterceptor(t *testing.T) {
	recorder := recordSpans(t)
	stream := &testServerStream{
		ctx: incomingWithParent(
			trace.TraceID{9, 8, 7, 6, 5, 4, 3, 2, 1, 10, 11, 12, 13, 14, 15, 16},
			trace.SpanID{8, 7, 6, 5, 4, 3, 2, 1},
		),
	}

	interceptor := TracingStreamInterceptor()
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}, func(srv interface{}, ss grpc.ServerStream) error {
		if !trace.SpanContextFromContext(ss.Context()).IsValid() {
			return errors.New("span not set")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "/grpc.health.v1.Health/Watch" {
		t.Fatalf("expected one Watch span, got %d", len(spans))
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", spans[0].SpanKind())
	}
}

func TestChain(t *testing.T) {
	assert.Empty(t, new(Chain).ServerOptions())

	tests := []struct {
		name    string
		traced  bool
		metrics *Metrics
		pairs   int
	}{
		{name: "minimal", pairs: 3},
		{name: "traced", traced: true, pairs: 4},
		{name: "full", traced: true, metrics: NewMetrics(prometheus.NewRegistry()), pairs: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Standard(nil, tt.traced, tt.metrics)
			assert.Equal(t, tt.pairs, c.Len())
			assert.Len(t, c.ServerOptions(), 2)
		})
	}
}
