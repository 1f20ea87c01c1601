package config

import (
	"net"
	"strconv"

	grpcpkg "github.com/awareness-network/semindex/pkg/grpc"
)

// ToGRPCConfig converts the file settings into a health server config bound
// to the same host as the HTTP API. EnableTracing is left false; callers set
// it from Config.Tracing.
func (g *GRPCConfig) ToGRPCConfig(host string) *grpcpkg.Config {
	cfg := &grpcpkg.Config{
		Address:          net.JoinHostPort(host, strconv.Itoa(g.Port)),
		MaxConnections:   g.MaxConnections,
		EnableReflection: g.EnableReflection,
		PollInterval:     grpcpkg.DefaultPollInterval,
		Keepalive: &grpcpkg.KeepaliveConfig{
			MaxIdle:             g.Keepalive.MaxIdle,
			MaxAge:              g.Keepalive.MaxAge,
			MaxAgeGrace:         g.Keepalive.MaxAgeGrace,
			Time:                g.Keepalive.Time,
			Timeout:             g.Keepalive.Timeout,
			MinTime:             g.Keepalive.MinTime,
			PermitWithoutStream: g.Keepalive.PermitWithoutStream,
		},
	}
	if g.TLS.Enabled {
		tls := grpcpkg.TLSConfig(g.TLS)
		cfg.TLS = &tls
	}
	return cfg
}
