package infrastructure_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/internal/infrastructure"
	"github.com/JaimeStill/neuroscan/pkg/database"
	"github.com/JaimeStill/neuroscan/pkg/storage"
)

func testConfig(provider string) *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "neuroscan",
			User:            "neuroscan",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: "5m",
			ConnTimeout:     "1s",
		},
		Storage:  storage.Config{Provider: provider},
		LogLevel: "warn",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(testConfig(storage.ProviderNone))
	require.NoError(t, err)

	assert.NotNil(t, infra.Lifecycle)
	assert.NotNil(t, infra.Database.Connection())
	assert.False(t, infra.Storage.Enabled())

	ctx := context.Background()
	assert.False(t, infra.Logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, infra.Logger.Enabled(ctx, slog.LevelWarn))
}

func TestNewUnknownStorageProvider(t *testing.T) {
	_, err := infrastructure.New(testConfig("ftp"))
	assert.ErrorContains(t, err, "storage init failed")
}

func TestPrepareWorkspace(t *testing.T) {
	root := t.TempDir()
	cfg := &dispatch.Config{
		Command:    "sh",
		UploadDir:  filepath.Join(root, "uploads"),
		ReportsDir: filepath.Join(root, "reports", "pdf"),
	}

	require.NoError(t, infrastructure.PrepareWorkspace(cfg))

	for _, dir := range []string{cfg.UploadDir, cfg.ReportsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPrepareWorkspaceMissingWorker(t *testing.T) {
	cfg := &dispatch.Config{
		Command:   "neuroscan-no-such-worker",
		UploadDir: filepath.Join(t.TempDir(), "uploads"),
	}

	err := infrastructure.PrepareWorkspace(cfg)
	assert.ErrorIs(t, err, infrastructure.ErrWorkerUnavailable)
}
