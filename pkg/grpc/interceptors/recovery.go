package interceptors

import (
	"context"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errInternal = status.Error(codes.Internal, "internal server error")

// RecoveryUnaryInterceptor turns handler panics into codes.Internal.
func RecoveryUnaryInterceptor(log Logger) grpc.UnaryServerInterceptor {
	log = orNop(log)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (_ interface{}, err error) {
		defer recoverCall(ctx, log, info.FullMethod, &err)
		return handler(ctx, req)
	}
}

// RecoveryStreamInterceptor turns stream handler panics into codes.Internal.
func RecoveryStreamInterceptor(log Logger) grpc.StreamServerInterceptor {
	log = orNop(log)
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer recoverCall(ss.Context(), log, info.FullMethod, &err)
		return handler(srv, ss)
	}
}

// recoverCall must be deferred directly. The panic value stays in the log.
func recoverCall(ctx context.Context, log Logger, method string, err *error) {
	p := recover()
	if p == nil {
		return
	}
	log.ErrorContext(ctx, "grpc handler panicked",
		"method", method,
		"panic", p,
		"stack", string(debug.Stack()),
	)
	*err = errInternal
}
