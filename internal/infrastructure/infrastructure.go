// Package infrastructure assembles the systems every NeuroScan domain depends
// on: the lifecycle coordinator, the logger, the PostgreSQL pool, report
// storage and the worker workspace.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/pkg/database"
	"github.com/JaimeStill/neuroscan/pkg/lifecycle"
	"github.com/JaimeStill/neuroscan/pkg/storage"
)

// ErrWorkerUnavailable is returned when the classification worker cannot be
// run from this host.
var ErrWorkerUnavailable = errors.New("classification worker unavailable")

type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System

	worker *dispatch.Config
}

// New builds the systems from cfg without starting them.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	})).With("service", "neuroscan")

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		worker:    &cfg.Dispatch,
	}, nil
}

// Start registers the database, storage and workspace startup hooks. The
// service becomes ready only when all three succeed.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	logger := i.Logger.With("system", "workspace")
	i.Lifecycle.OnStartup("workspace", func(context.Context) error {
		if err := PrepareWorkspace(i.worker); err != nil {
			logger.Error("worker workspace not usable", "error", err)
			return err
		}
		logger.Info(
			"worker workspace ready",
			"command", i.worker.Command,
			"upload_dir", i.worker.UploadDir,
			"reports_dir", i.worker.ReportsDir,
		)
		return nil
	})
	return nil
}

// PrepareWorkspace creates the upload and report directories and checks
// that the worker command resolves on PATH.
func PrepareWorkspace(cfg *dispatch.Config) error {
	for _, dir := range []string{cfg.UploadDir, cfg.ReportsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if _, err := exec.LookPath(cfg.Command); err != nil {
		return fmt.Errorf("%w: %w", ErrWorkerUnavailable, err)
	}
	return nil
}
