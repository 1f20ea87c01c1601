package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/awareness-network/semindex/pkg/grpc/interceptors"
)

var (
	// ErrAlreadyRunning is returned by Start on a running server.
	ErrAlreadyRunning = errors.New("grpc server already running")

	// ErrForcedStop is returned by Stop when draining outlived its context.
	ErrForcedStop = errors.New("grpc graceful stop timed out, connections closed")
)

// ReadinessFunc reports whether the process can serve traffic. A nil error
// is SERVING, anything else NOT_SERVING.
type ReadinessFunc func(ctx context.Context) error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for serve errors, health transitions and
// per-call records.
func WithLogger(l interceptors.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records per-call Prometheus metrics.
func WithMetrics(m *interceptors.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithReadiness drives the health status from fn. Without it the server is
// SERVING for as long as it runs.
func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) { s.ready = fn }
}

// Server is the gRPC health endpoint.
type Server struct {
	cfg     *Config
	log     interceptors.Logger
	metrics *interceptors.Metrics
	ready   ReadinessFunc

	mu          sync.RWMutex
	srv         *grpc.Server
	ln          net.Listener
	health      *HealthServer
	stopPolling context.CancelFunc
	pollDone    chan struct{}
}

// New validates cfg and returns a stopped server.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("grpc config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grpc config: %w", err)
	}

	s := &Server{cfg: cfg, log: silent{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ErrAlreadyRunning
	}

	opts, err := s.serverOptions()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address, err)
	}

	srv := grpc.NewServer(opts...)
	health := NewHealthServer()
	health.register(srv)
	if s.cfg.EnableReflection {
		reflection.Register(srv)
	}
	health.Set(s.readiness(context.Background()))

	s.srv, s.ln, s.health = srv, ln, health
	if s.ready != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopPolling, s.pollDone = cancel, make(chan struct{})
		go s.watchReadiness(ctx, health, s.pollDone)
	}

	go func() {
		if err := srv.Serve(ln); err != nil {
			s.log.ErrorContext(context.Background(), "grpc serve failed",
				"address", ln.Addr().String(), "error", err)
		}
	}()
	return nil
}

func (s *Server) interval() time.Duration {
	if s.cfg.PollInterval > 0 {
		return s.cfg.PollInterval
	}
	return DefaultPollInterval
}

// readiness evaluates the ready check once, bounded by one poll interval.
func (s *Server) readiness(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	if s.ready == nil {
		return healthpb.HealthCheckResponse_SERVING
	}
	ctx, cancel := context.WithTimeout(ctx, s.interval())
	defer cancel()
	if err := s.ready(ctx); err != nil {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (s *Server) watchReadiness(ctx context.Context, health *HealthServer, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		prev, next := health.Status(), s.readiness(ctx)
		if ctx.Err() != nil || next == prev {
			continue
		}
		health.Set(next)
		s.log.WarnContext(ctx, "grpc health status changed", "from", prev.String(), "to", next.String())
	}
}

// Stop marks the server NOT_SERVING and drains it. When ctx ends first the
// remaining connections are closed and ErrForcedStop is returned. Stopping
// a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}

	if s.stopPolling != nil {
		s.stopPolling()
		<-s.pollDone
		s.stopPolling, s.pollDone = nil, nil
	}
	s.health.Shutdown()

	srv := s.srv
	s.srv = nil
	drained := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		srv.Stop()
		return ErrForcedStop
	}
}

// Address returns the bound address while running, or the configured one.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.cfg.Address
}

// Health returns the health server of the last Start, or nil before it.
func (s *Server) Health() *HealthServer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.srv != nil
}

func (s *Server) serverOptions() ([]grpc.ServerOption, error) {
	var opts []grpc.ServerOption
	if tc := s.cfg.TLS; tc != nil && tc.Enabled {
		creds, err := tc.credentials()
		if err != nil {
			return nil, fmt.Errorf("grpc tls: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	if n := s.cfg.MaxConnections; n > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(n)))
	}
	if ka := s.cfg.Keepalive; ka != nil {
		opts = append(opts,
			grpc.KeepaliveParams(ka.serverParameters()),
			grpc.KeepaliveEnforcementPolicy(ka.enforcementPolicy()))
	}
	chain := interceptors.Standard(s.log, s.cfg.EnableTracing, s.metrics)
	return append(opts, chain.ServerOptions()...), nil
}

type silent struct{}

func (silent) InfoContext(context.Context, string, ...any)  {}
func (silent) WarnContext(context.Context, string, ...any)  {}
func (silent) ErrorContext(context.Context, string, ...any) {}
