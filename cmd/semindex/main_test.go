package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/awareness-network/semindex/config"
	"github.com/awareness-network/semindex/pkg/index"
	"github.com/awareness-network/semindex/pkg/logger"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Metrics.Enabled = false
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

// startApp runs the app until the returned stop function is called.
func startApp(t *testing.T, cfg *config.Config) (stop func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	a, err := newApp(ctx, cfg, logger.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	var once sync.Once
	var runErr error
	stop = func() error {
		once.Do(func() {
			cancel()
			select {
			case runErr = <-done:
			case <-time.After(5 * time.Second):
				runErr = errors.New("app did not stop")
			}
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func TestApp_ServesIndexAndRegistry(t *testing.T) {
	cfg := testConfig(t)
	startApp(t, cfg)
	base := fmt.Sprintf("http://127.0.0.1:%d/api/v1", cfg.Server.Port)

	body := `{"name":"auditor","description":"audits contracts","modelType":"gpt-4","capabilities":["audit"],"tbaAddress":"0xabc"}`
	resp, err := http.Post(base+"/agents", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/index/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats index.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, index.Stats{
		TotalMemories:   100,
		PublicMemories:  100,
		TotalAgents:     1,
		TotalDomains:    9,
		TotalTaskTypes:  9,
		SupportedModels: 1,
	}, stats)
}

func TestApp_GRPCHealth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.GRPC.Enabled = true
	cfg.Server.GRPC.Port = freePort(t)
	startApp(t, cfg)

	conn, err := grpc.NewClient(fmt.Sprintf("127.0.0.1:%d", cfg.Server.GRPC.Port),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestApp_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	stop := startApp(t, cfg)

	require.NoError(t, stop())

	_, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	assert.Error(t, err)
}

func TestNewApp_BadgerBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Registry.Backend = "badger"
	cfg.Registry.Badger.Path = filepath.Join(t.TempDir(), "badger")

	a, err := newApp(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.shutdown()

	require.NoError(t, a.ready(context.Background()))
}

func TestLoadDataset(t *testing.T) {
	ds, err := loadDataset("")
	require.NoError(t, err)
	assert.Equal(t, 100, ds.Len())

	_, err = loadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seeds: [:"), 0o644))
	_, err = loadDataset(path)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(context.Background(), config.RegistryConfig{Backend: "memory"})
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())

	_, err = openStore(context.Background(), config.RegistryConfig{Backend: "etcd"})
	assert.ErrorContains(t, err, "unknown registry backend")
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.watch)
	assert.Empty(t, opts.overrides())

	opts, err = parseFlags([]string{"-port", "9000", "-log-level", "debug", "-registry", "badger", "-debug"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"server.port":      9000,
		"log.level":        "debug",
		"registry.backend": "badger",
		"app.debug":        true,
	}, opts.overrides())

	_, err = parseFlags([]string{"-port", "many"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-help"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}
