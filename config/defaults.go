package config

import "time"

// Default ports.
const (
	DefaultHTTPPort    = 8080
	DefaultGRPCPort    = 9090
	DefaultMetricsPort = 9091
)

// DefaultConfig returns the configuration used when no file, environment
// variable or flag says otherwise. It runs the embedded genesis dataset with
// an in-memory registry and validates as is.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "semindex",
			Version:     "dev",
			Environment: "development",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: DefaultHTTPPort,
			GRPC: GRPCConfig{
				Port:           DefaultGRPCPort,
				MaxConnections: 1000,
				Keepalive: GRPCKeepaliveConfig{
					MaxIdle:     5 * time.Minute,
					MaxAge:      time.Hour,
					MaxAgeGrace: time.Minute,
					Time:        time.Minute,
					Timeout:     20 * time.Second,
					MinTime:     30 * time.Second,
				},
			},
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     2 * time.Minute,
				RequestTimeout:  15 * time.Second,
				ShutdownTimeout: 10 * time.Second,
				MaxHeaderBytes:  1 << 20,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
				MaxAge:         3600,
			},
			// One registration per second per client, bursts of five.
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 1,
				Burst:             5,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Index: IndexConfig{
			StrictEnums: true,
		},
		Registry: RegistryConfig{
			Backend: "memory",
			Badger: BadgerConfig{
				Path:              "./data/badger",
				SyncWrites:        true,
				ValueLogFileSize:  64 << 20,
				NumVersionsToKeep: 1,
			},
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "semindex:",
			},
		},
		WebSocket: WebSocketConfig{
			MaxConnections: 1000,
			PingInterval:   30 * time.Second,
			PongTimeout:    time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    DefaultMetricsPort,
		},
		Tracing: TracingConfig{
			Exporter:   "otlpgrpc",
			Endpoint:   "localhost:4317",
			Timeout:    5 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
	}
}
