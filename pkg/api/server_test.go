package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awareness-network/semindex/pkg/logger"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "::1"
	cfg.Server.Port = 8088
	cfg.Server.HTTP.MaxHeaderBytes = 4096
	h, _ := createTestHandlers(t, nil)

	s := NewHTTPServer(cfg, nil, h)

	assert.Equal(t, "[::1]:8088", s.Addr())
	assert.Equal(t, 4096, s.srv.MaxHeaderBytes)
	assert.Equal(t, cfg.Server.HTTP.ReadTimeout, s.srv.ReadHeaderTimeout)
	assert.NotNil(t, s.Handler())
}

func TestHTTPServer_ServesUntilShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	h, _ := createTestHandlers(t, nil)
	s := NewHTTPServer(cfg, logger.NewNop(), h)

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	var status int
	require.Eventually(t, func() bool {
		addr := s.Addr()
		if addr == "127.0.0.1:0" {
			return false
		}
		resp, err := http.Get("http://" + addr + "/api/v1/index/stats")
		if err != nil {
			return false
		}
		resp.Body.Close()
		status = resp.StatusCode
		return true
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusOK, status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestHTTPServer_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = l.Addr().(*net.TCPAddr).Port

	err = NewHTTPServer(cfg, logger.NewNop(), &Handlers{}).Start()
	assert.ErrorContains(t, err, "listen on")
}
