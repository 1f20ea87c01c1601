package grpc

import (
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported next to the overall "" service.
const ServiceName = "semindex.v1.Index"

// HealthServer publishes one status for both the overall and the semindex
// service through the standard grpc.health.v1 service.
type HealthServer struct {
	srv    *health.Server
	status atomic.Int32
}

// NewHealthServer returns a health server in the UNKNOWN state.
func NewHealthServer() *HealthServer {
	return &HealthServer{srv: health.NewServer()}
}

func (h *HealthServer) register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Set publishes status for both services.
func (h *HealthServer) Set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.status.Store(int32(status))
	for _, svc := range []string{"", ServiceName} {
		h.srv.SetServingStatus(svc, status)
	}
}

// Status returns the last published status.
func (h *HealthServer) Status() healthpb.HealthCheckResponse_ServingStatus {
	return healthpb.HealthCheckResponse_ServingStatus(h.status.Load())
}

// Shutdown reports NOT_SERVING to every watcher and freezes the status.
func (h *HealthServer) Shutdown() {
	h.status.Store(int32(healthpb.HealthCheckResponse_NOT_SERVING))
	h.srv.Shutdown()
}
