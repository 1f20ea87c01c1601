package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnaryInterceptor logs one record per unary call.
func LoggingUnaryInterceptor(log Logger) grpc.UnaryServerInterceptor {
	log = orNop(log)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logOutcome(ctx, log, callUnary, info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// LoggingStreamInterceptor logs one record when a stream ends.
func LoggingStreamInterceptor(log Logger) grpc.StreamServerInterceptor {
	log = orNop(log)
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logOutcome(ss.Context(), log, callStream, info.FullMethod, time.Since(start), err)
		return err
	}
}

// logOutcome picks the level from the status code: server faults are
// errors, other failures warnings, and OK or Canceled info.
func logOutcome(ctx context.Context, log Logger, kind, method string, took time.Duration, err error) {
	id := RequestIDFromContext(ctx)
	if id == "" {
		id = "unknown"
	}
	code := status.Code(err)
	fields := []any{
		"type", kind,
		"method", method,
		"code", code.String(),
		"duration_ms", took.Milliseconds(),
		"request_id", id,
	}
	if err != nil && code != codes.Canceled {
		fields = append(fields, "error", err)
	}

	switch {
	case serverFault(code):
		log.ErrorContext(ctx, "grpc call", fields...)
	case code == codes.OK, code == codes.Canceled:
		log.InfoContext(ctx, "grpc call", fields...)
	default:
		log.WarnContext(ctx, "grpc call", fields...)
	}
}

// serverFault reports codes that point at this server rather than the caller.
func serverFault(code codes.Code) bool {
	switch code {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		return true
	}
	return false
}
