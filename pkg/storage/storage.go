// Package storage provides blob storage operations backed by Azure Blob
// Storage or an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/neuroscan/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Enabled reports whether a real provider backs the system.
	Enabled() bool
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates the storage system selected by cfg.Provider. Clients are
// created but no connection is made until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderAzure:
		a, err := newAzure(cfg, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	case ProviderS3:
		s, err := newS3(context.Background(), cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderNone, "":
		return disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

type disabled struct{}

func (disabled) Start(*lifecycle.Coordinator) error { return nil }

func (disabled) Enabled() bool { return false }

func (disabled) Upload(_ context.Context, key string, _ io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return ErrDisabled
}

func (disabled) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return nil, ErrDisabled
}

func (disabled) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return ErrDisabled
}

func (disabled) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	return false, nil
}

// validateKey accepts slash-separated relative keys whose segments are
// non-empty and not "." or "..".
func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.ContainsRune(key, '\\') {
		return ErrInvalidKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
