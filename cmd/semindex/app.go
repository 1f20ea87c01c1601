package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awareness-network/semindex/config"
	"github.com/awareness-network/semindex/pkg/api"
	"github.com/awareness-network/semindex/pkg/api/events"
	"github.com/awareness-network/semindex/pkg/api/handlers"
	"github.com/awareness-network/semindex/pkg/api/middleware"
	"github.com/awareness-network/semindex/pkg/genesis"
	grpcpkg "github.com/awareness-network/semindex/pkg/grpc"
	"github.com/awareness-network/semindex/pkg/grpc/interceptors"
	"github.com/awareness-network/semindex/pkg/index"
	"github.com/awareness-network/semindex/pkg/logger"
	"github.com/awareness-network/semindex/pkg/metrics"
	"github.com/awareness-network/semindex/pkg/registry"
	"github.com/awareness-network/semindex/pkg/storage"
	"github.com/awareness-network/semindex/pkg/storage/badger"
	"github.com/awareness-network/semindex/pkg/storage/memory"
	"github.com/awareness-network/semindex/pkg/storage/redis"
	"github.com/awareness-network/semindex/pkg/telemetry/tracing"
	"github.com/awareness-network/semindex/pkg/version"
)

// app holds every long-lived component of the process.
type app struct {
	cfg *config.Config
	log logger.Logger

	dataset     *genesis.Dataset
	store       storage.AgentStore
	registry    *registry.Registry
	index       *index.Service
	broadcaster *events.Broadcaster
	metrics     *metrics.Manager
	websocket   *handlers.WebSocketHandler

	http *api.HTTPServer
	grpc *grpcpkg.Server

	shutdownTracing tracing.ShutdownFunc
}

// newApp builds the component graph. Nothing listens until run.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing,
		tracing.WithService(cfg.App.Name, version.Version),
		tracing.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracing = shutdownTracing

	a.dataset, err = loadDataset(cfg.Index.DatasetPath)
	if err != nil {
		a.closeQuietly()
		return nil, err
	}
	log.Info("genesis dataset loaded", "memories", a.dataset.Len(), "path", cfg.Index.DatasetPath)

	a.store, err = openStore(ctx, cfg.Registry)
	if err != nil {
		a.closeQuietly()
		return nil, err
	}
	log.Info("registry store opened", "backend", cfg.Registry.Backend)

	mcfg := metrics.DefaultConfig()
	mcfg.Enabled = cfg.Metrics.Enabled
	mcfg.Port = cfg.Metrics.Port
	mcfg.Path = cfg.Metrics.Path
	a.metrics = metrics.NewManager(mcfg)
	a.metrics.SetDatasetSize(a.dataset.Len())

	a.broadcaster = events.NewBroadcaster()
	a.registry = registry.New(a.store,
		registry.WithNotifier(a.broadcaster),
		registry.WithMetrics(a.metrics),
		registry.WithLogger(log.With("component", "registry")),
	)
	a.index = index.New(a.dataset, a.registry,
		index.WithObserver(a.metrics),
		index.WithTagFilterMatches(cfg.Index.TagFilterMatches),
	)

	a.websocket = handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
		AllowedOrigins:       cfg.Server.CORS.AllowedOrigins,
		MaxConnections:       cfg.WebSocket.MaxConnections,
		PingInterval:         cfg.WebSocket.PingInterval,
		PongTimeout:          cfg.WebSocket.PongTimeout,
		OnConnectionsChanged: a.metrics.SetEventSubscribers,
	})

	h := &api.Handlers{
		Index: handlers.NewIndexHandler(a.index, log, cfg.Index.StrictEnums),
		Agent: handlers.NewAgentHandler(a.registry, log),
		Health: handlers.NewHealthHandler(a.dataset, a.registry,
			handlers.WithAgentCounter(a.registry),
			handlers.WithSubscriberCount(a.websocket.Count),
		),
		WebSocket: a.websocket,
	}
	if a.metrics.Enabled() {
		h.Metrics = a.metrics
	}
	if cfg.Server.RateLimit.Enabled {
		h.RateLimiter = middleware.NewRateLimiter(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst)
	}
	if cfg.Server.Auth.Enabled {
		h.Auth, err = middleware.NewAuthenticator(cfg.Server.Auth.APIKeys)
		if err != nil {
			a.closeQuietly()
			return nil, fmt.Errorf("configure api keys: %w", err)
		}
	} else {
		log.Warn("agent registration and activity endpoints accept anonymous requests; set server.auth to require api keys")
	}
	a.http = api.NewHTTPServer(cfg, log, h)

	if cfg.Server.GRPC.Enabled {
		gcfg := cfg.Server.GRPC.ToGRPCConfig(cfg.Server.Host)
		gcfg.EnableTracing = cfg.Tracing.Enabled
		opts := []grpcpkg.Option{
			grpcpkg.WithLogger(log),
			grpcpkg.WithReadiness(a.ready),
		}
		if a.metrics.Enabled() {
			opts = append(opts, grpcpkg.WithMetrics(interceptors.NewMetrics(a.metrics.Registerer())))
		}
		a.grpc, err = grpcpkg.New(gcfg, opts...)
		if err != nil {
			a.closeQuietly()
			return nil, fmt.Errorf("create gRPC server: %w", err)
		}
	}

	return a, nil
}

// ready mirrors GET /ready for the gRPC health service.
func (a *app) ready(ctx context.Context) error {
	if a.dataset.Len() == 0 {
		return errors.New("genesis dataset is empty")
	}
	return a.registry.Ping(ctx)
}

// run serves until ctx is done or a server fails, then shuts everything down.
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.websocket.Forward(ctx, a.broadcaster)

	if a.metrics.Enabled() {
		go func() {
			a.log.Info("starting metrics server", "port", a.cfg.Metrics.Port, "path", a.cfg.Metrics.Path)
			if err := a.metrics.StartServer(ctx, a.cfg.Metrics.Port, a.cfg.Metrics.Path); err != nil {
				a.log.Error("metrics server error", "error", err)
			}
		}()
	}

	if a.grpc != nil {
		if err := a.grpc.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start gRPC server: %w", err)
		}
		a.log.Info("gRPC health server listening", "address", a.grpc.Address())
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.http.Start(); err != nil {
			serverErr <- err
		}
	}()

	a.log.Info("semindex is running",
		"http_port", a.cfg.Server.Port,
		"grpc_enabled", a.cfg.Server.GRPC.Enabled,
		"metrics_port", a.cfg.Metrics.Port,
		"registry", a.cfg.Registry.Backend,
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-serverErr:
		a.log.Error("HTTP server error", "error", runErr)
	}

	cancel()
	a.shutdown()
	return runErr
}

// shutdown stops listeners first, then releases the store and tracing.
func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if err := a.http.Shutdown(ctx); err != nil {
		a.log.Error("error shutting down HTTP server", "error", err)
	}
	if a.grpc != nil {
		if err := a.grpc.Stop(ctx); err != nil {
			a.log.Error("error stopping gRPC server", "error", err)
		}
	}
	a.websocket.Close()
	a.broadcaster.Close()

	if err := a.store.Close(); err != nil {
		a.log.Error("error closing registry store", "error", err)
	}
	if err := a.shutdownTracing(ctx); err != nil {
		a.log.Error("error flushing traces", "error", err)
	}
}

func (a *app) shutdownTimeout() time.Duration {
	if d := a.cfg.Server.HTTP.ShutdownTimeout; d > 0 {
		return d
	}
	return 10 * time.Second
}

// closeQuietly releases whatever newApp opened before failing.
func (a *app) closeQuietly() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.shutdownTracing != nil {
		_ = a.shutdownTracing(context.Background())
	}
}

func loadDataset(path string) (*genesis.Dataset, error) {
	if path == "" {
		return genesis.Default(), nil
	}
	ds, err := genesis.LoadFile(path, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("load genesis dataset: %w", err)
	}
	return ds, nil
}

func openStore(ctx context.Context, cfg config.RegistryConfig) (storage.AgentStore, error) {
	switch cfg.Backend {
	case "badger":
		store, err := badger.NewBadgerStorage(&badger.Config{
			Path:              cfg.Badger.Path,
			SyncWrites:        cfg.Badger.SyncWrites,
			ValueLogFileSize:  cfg.Badger.ValueLogFileSize,
			NumVersionsToKeep: cfg.Badger.NumVersionsToKeep,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return store, nil
	case "redis":
		store, err := redis.NewRedisStorage(ctx, &redis.Config{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	case "memory", "":
		return memory.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}
