// Package interceptors holds the server interceptors of the semindex gRPC
// health endpoint. Every concern comes as a unary and a stream variant.
package interceptors

import (
	"context"

	"google.golang.org/grpc"
)

// Logger is the subset of logger.Logger the interceptors write to.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) InfoContext(context.Context, string, ...any)  {}
func (nopLogger) WarnContext(context.Context, string, ...any)  {}
func (nopLogger) ErrorContext(context.Context, string, ...any) {}

func orNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id attached by the request id
// interceptor, or "" outside of an intercepted call.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Chain collects interceptor pairs. Pairs run in the order they were added,
// the first one outermost.
type Chain struct {
	unary  []grpc.UnaryServerInterceptor
	stream []grpc.StreamServerInterceptor
}

// Use appends a pair.
func (c *Chain) Use(u grpc.UnaryServerInterceptor, s grpc.StreamServerInterceptor) *Chain {
	c.unary = append(c.unary, u)
	c.stream = append(c.stream, s)
	return c
}

// ServerOptions returns the chain as grpc server options. An empty chain
// yields none.
func (c *Chain) ServerOptions() []grpc.ServerOption {
	if len(c.unary) == 0 {
		return nil
	}
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(c.unary...),
		grpc.ChainStreamInterceptor(c.stream...),
	}
}

// Len returns the number of pairs.
func (c *Chain) Len() int {
	return len(c.unary)
}

// Standard builds recovery, request id, tracing, logging and metrics in
// that order. Tracing is skipped unless traced is set and metrics unless m
// is non-nil.
func Standard(log Logger, traced bool, m *Metrics) *Chain {
	c := new(Chain).
		Use(RecoveryUnaryInterceptor(log), RecoveryStreamInterceptor(log)).
		Use(RequestIDUnaryInterceptor(), RequestIDStreamInterceptor())
	if traced {
		c.Use(TracingUnaryInterceptor(), TracingStreamInterceptor())
	}
	c.Use(LoggingUnaryInterceptor(log), LoggingStreamInterceptor(log))
	if m != nil {
		c.Use(MetricsUnaryInterceptor(m), MetricsStreamInterceptor(m))
	}
	return c
}
