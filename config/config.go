// Package config loads, validates and watches the semindex configuration.
// Values come from built-in defaults, an optional YAML or JSON file,
// SEMINDEX_ environment variables and command line overrides, in that order.
package config

import (
	"fmt"
	"time"
)

// Config is the root of the configuration tree.
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Log       LogConfig       `mapstructure:"log" validate:"required"`
	Index     IndexConfig     `mapstructure:"index"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// AppConfig identifies the running instance.
type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`

	// Environment is development, staging or production.
	Environment string `mapstructure:"environment" validate:"env"`

	// Debug forces the debug log level.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig covers the listeners.
type ServerConfig struct {
	// Host is the bind address shared by the HTTP and gRPC listeners.
	Host string `mapstructure:"host" validate:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	GRPC      GRPCConfig      `mapstructure:"grpc"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// GRPCConfig configures the gRPC health endpoint.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`

	// MaxConnections caps concurrent streams per connection; 0 keeps the
	// library default.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// EnableReflection exposes the reflection service to grpcurl.
	EnableReflection bool `mapstructure:"enable_reflection"`

	TLS       GRPCTLSConfig       `mapstructure:"tls"`
	Keepalive GRPCKeepaliveConfig `mapstructure:"keepalive"`
}

// GRPCTLSConfig enables TLS, and mutual TLS when ClientAuth is set.
type GRPCTLSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CertFile   string `mapstructure:"cert_file" validate:"required_if=Enabled true"`
	KeyFile    string `mapstructure:"key_file" validate:"required_if=Enabled true"`
	CAFile     string `mapstructure:"ca_file"`
	ClientAuth bool   `mapstructure:"client_auth"`
}

// GRPCKeepaliveConfig mirrors keepalive.ServerParameters and
// keepalive.EnforcementPolicy.
type GRPCKeepaliveConfig struct {
	MaxIdle     time.Duration `mapstructure:"max_idle" validate:"gte=0"`
	MaxAge      time.Duration `mapstructure:"max_age" validate:"gte=0"`
	MaxAgeGrace time.Duration `mapstructure:"max_age_grace" validate:"gte=0"`

	// Time is the ping interval and Timeout the wait for the ack.
	Time    time.Duration `mapstructure:"time" validate:"gte=0"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// MinTime is the shortest client ping interval tolerated.
	MinTime             time.Duration `mapstructure:"min_time" validate:"gte=0"`
	PermitWithoutStream bool          `mapstructure:"permit_without_stream"`
}

// HTTPConfig bounds HTTP connections and handlers.
type HTTPConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// RequestTimeout bounds handler execution; 0 disables it.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// ShutdownTimeout bounds the graceful drain on exit.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	MaxHeaderBytes int `mapstructure:"max_header_bytes" validate:"min=0"`
}

// CORSConfig is passed to the CORS middleware as is.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// RateLimitConfig is the per-client token bucket on agent registration.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"min=0"`
}

// AuthConfig guards agent registration and activity reports with bearer
// API keys. Reads stay public.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// APIKeys are the accepted bearer tokens. SEMINDEX_SERVER_AUTH_API_KEYS
	// takes a comma separated list.
	APIKeys []string `mapstructure:"api_keys" validate:"dive,min=16"`
}

// LogConfig selects level, encoding and destination of the logs.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is stdout, stderr or a file path.
	Output    string `mapstructure:"output"`
	AddSource bool   `mapstructure:"add_source"`
}

// IndexConfig controls the semantic index.
type IndexConfig struct {
	// DatasetPath is a genesis YAML file; empty loads the embedded dataset.
	DatasetPath string `mapstructure:"dataset_path" validate:"file_exists"`

	// StrictEnums answers 400 for unknown domains, task types and categories
	// instead of returning no results.
	StrictEnums bool `mapstructure:"strict_enums"`

	// TagFilterMatches reports query-less tag searches as "filter" matches
	// rather than "semantic".
	TagFilterMatches bool `mapstructure:"tag_filter_matches"`
}

// RegistryConfig selects where agents are persisted.
type RegistryConfig struct {
	Backend string       `mapstructure:"backend" validate:"oneof=memory badger redis"`
	Badger  BadgerConfig `mapstructure:"badger"`
	Redis   RedisConfig  `mapstructure:"redis"`
}

// BadgerConfig is used when Backend is "badger".
type BadgerConfig struct {
	Path              string `mapstructure:"path"`
	SyncWrites        bool   `mapstructure:"sync_writes"`
	ValueLogFileSize  int64  `mapstructure:"value_log_file_size" validate:"min=0"`
	NumVersionsToKeep int    `mapstructure:"num_versions_to_keep" validate:"min=0"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`

	// KeyPrefix namespaces every key written.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// WebSocketConfig tunes the registry event feed.
type WebSocketConfig struct {
	// MaxConnections caps subscribers; 0 uses the handler default.
	MaxConnections int           `mapstructure:"max_connections" validate:"min=0"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`

	// PongTimeout drops subscribers that stop answering pings.
	PongTimeout time.Duration `mapstructure:"pong_timeout"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Exporter must be otlpgrpc.
	Exporter string        `mapstructure:"exporter" validate:"oneof=otlpgrpc"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// Sampler is always_on, always_off or ratio. Ratio sampling honours the
	// parent's decision and samples roots at SampleRate.
	Sampler    string  `mapstructure:"sampler" validate:"oneof=always_on always_off ratio"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`

	// Headers are attached to every export request.
	Headers map[string]string `mapstructure:"headers"`
}

// Validate checks cfg against its struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String summarises cfg without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s, Registry: %s}",
		c.App.Name, c.Server.Port, c.App.Environment, c.Registry.Backend)
}
