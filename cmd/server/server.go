package main

import (
	"log/slog"
	"time"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/internal/infrastructure"
)

// Server owns the NeuroScan process: shared infrastructure, the API module
// and the HTTP listener.
type Server struct {
	infra  *infrastructure.Infrastructure
	http   *httpServer
	logger *slog.Logger
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	logger := infra.Logger.With("system", "server")
	logger.Info(
		"routes mounted",
		"base_path", cfg.API.BasePath,
		"worker", cfg.Dispatch.Command,
		"max_concurrent", cfg.Dispatch.MaxConcurrent,
		"storage", cfg.Storage.Provider,
	)

	return &Server{
		infra:  infra,
		http:   newHTTPServer(&cfg.Server, router, infra.Logger),
		logger: logger,
	}, nil
}

// Start registers every startup hook and begins accepting connections.
// /readyz stays 503 until the database, storage and worker workspace hooks
// have all succeeded.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	started := time.Now()
	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.logger.Error("startup hooks failed, scans will not be accepted", "error", err)
			return
		}
		s.logger.Info("accepting scans", "ready_after", time.Since(started))
	}()

	return nil
}

// Shutdown drains in-flight requests and releases the pool and storage.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info("draining", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
