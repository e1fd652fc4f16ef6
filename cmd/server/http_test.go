package main

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/pkg/lifecycle"
)

func serverConfig(port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            port,
		ReadTimeout:     "5s",
		WriteTimeout:    "5s",
		ShutdownTimeout: "2s",
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestHTTPServerServesUntilShutdown(t *testing.T) {
	port := freePort(t)
	logger := slog.New(slog.DiscardHandler)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	lc := lifecycle.New()
	srv := newHTTPServer(serverConfig(port), handler, logger)
	require.NoError(t, srv.Start(lc))

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, lc.Shutdown(time.Second))

	_, err = http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/")
	assert.Error(t, err)
}

func TestHTTPServerReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := newHTTPServer(serverConfig(port), http.NotFoundHandler(), slog.New(slog.DiscardHandler))

	err = srv.Start(lifecycle.New())
	assert.ErrorContains(t, err, "listen")
}
