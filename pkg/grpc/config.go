// Package grpc serves the standard gRPC health service for semindex.
//
// Orchestrators query it to learn whether the index has a dataset loaded and
// the agent registry store answers.
package grpc

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
)

// DefaultPollInterval is the readiness polling period.
const DefaultPollInterval = 5 * time.Second

// Config holds the health server settings.
type Config struct {
	// Address is the listen address, for example ":9090".
	Address string

	TLS *TLSConfig

	// MaxConnections caps concurrent streams per connection. Zero leaves the gRPC default.
	MaxConnections int

	Keepalive *KeepaliveConfig

	// EnableReflection registers the reflection service for grpcurl and friends.
	EnableReflection bool

	// EnableTracing wraps every call in a server span.
	EnableTracing bool

	// PollInterval is how often readiness is re-evaluated. Zero uses DefaultPollInterval.
	PollInterval time.Duration
}

// TLSConfig enables TLS, and mutual TLS when ClientAuth is set.
type TLSConfig struct {
	Enabled    bool
	CertFile   string
	KeyFile    string
	CAFile     string
	ClientAuth bool
}

// KeepaliveConfig maps onto keepalive.ServerParameters and keepalive.EnforcementPolicy.
type KeepaliveConfig struct {
	MaxIdle             time.Duration
	MaxAge              time.Duration
	MaxAgeGrace         time.Duration
	Time                time.Duration
	Timeout             time.Duration
	MinTime             time.Duration
	PermitWithoutStream bool
}

// DefaultConfig returns the health server defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:        ":9090",
		MaxConnections: 1000,
		PollInterval:   DefaultPollInterval,
		Keepalive: &KeepaliveConfig{
			MaxIdle:     5 * time.Minute,
			MaxAge:      time.Hour,
			MaxAgeGrace: time.Minute,
			Time:        time.Minute,
			Timeout:     20 * time.Second,
			MinTime:     30 * time.Second,
		},
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("address cannot be empty"))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, errors.New("max connections cannot be negative"))
	}
	if c.PollInterval < 0 {
		errs = append(errs, errors.New("poll interval cannot be negative"))
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tls: %w", err))
		}
	}
	if c.Keepalive != nil {
		if err := c.Keepalive.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("keepalive: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the files needed by the enabled mode are named.
func (t *TLSConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	var errs []error
	if t.CertFile == "" {
		errs = append(errs, errors.New("cert file is required"))
	}
	if t.KeyFile == "" {
		errs = append(errs, errors.New("key file is required"))
	}
	if t.ClientAuth && t.CAFile == "" {
		errs = append(errs, errors.New("CA file is required for client auth"))
	}
	return errors.Join(errs...)
}

// credentials loads the certificates. With ClientAuth it requires and
// verifies client certificates against CAFile.
func (t *TLSConfig) credentials() (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server certificate: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if t.ClientAuth {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", t.CAFile)
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = pool
	}
	return credentials.NewTLS(cfg), nil
}

// Validate rejects negative durations and a ping timeout that is not
// shorter than the ping interval.
func (k *KeepaliveConfig) Validate() error {
	for _, f := range []struct {
		name string
		d    time.Duration
	}{
		{"max idle", k.MaxIdle},
		{"max age", k.MaxAge},
		{"max age grace", k.MaxAgeGrace},
		{"time", k.Time},
		{"timeout", k.Timeout},
		{"min time", k.MinTime},
	} {
		if f.d < 0 {
			return fmt.Errorf("%s cannot be negative", f.name)
		}
	}
	if k.Time > 0 && k.Timeout >= k.Time {
		return errors.New("timeout must be less than ping interval")
	}
	return nil
}

func (k *KeepaliveConfig) serverParameters() keepalive.ServerParameters {
	return keepalive.ServerParameters{
		MaxConnectionIdle:     k.MaxIdle,
		MaxConnectionAge:      k.MaxAge,
		MaxConnectionAgeGrace: k.MaxAgeGrace,
		Time:                  k.Time,
		Timeout:               k.Timeout,
	}
}

func (k *KeepaliveConfig) enforcementPolicy() keepalive.EnforcementPolicy {
	return keepalive.EnforcementPolicy{
		MinTime:             k.MinTime,
		PermitWithoutStream: k.PermitWithoutStream,
	}
}
