package api

import (
	"fmt"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/internal/infrastructure"
	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/pagination"
)

// Runtime extends Infrastructure with the API's credential services,
// the worker dispatcher, and API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Codec         *auth.Codec
	Hasher        *auth.Hasher
	Dispatcher    *dispatch.Dispatcher
	Pagination    pagination.Config
	VerifySubject bool
	MaxUploadSize int64
	UploadDir     string
	ReportsDir    string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	codec, err := auth.NewCodec([]byte(cfg.Auth.Secret))
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Codec:         codec,
		Hasher:        hasher,
		Dispatcher:    dispatch.New(&cfg.Dispatch, logger),
		Pagination:    cfg.API.Pagination,
		VerifySubject: cfg.Auth.VerifySubject,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		UploadDir:     cfg.Dispatch.UploadDir,
		ReportsDir:    cfg.Dispatch.ReportsDir,
	}, nil
}
