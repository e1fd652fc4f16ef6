package config

import (
	"fmt"

	"github.com/JaimeStill/neuroscan/pkg/envvar"
	"github.com/JaimeStill/neuroscan/pkg/formatting"
	"github.com/JaimeStill/neuroscan/pkg/middleware"
	"github.com/JaimeStill/neuroscan/pkg/module"
	"github.com/JaimeStill/neuroscan/pkg/openapi"
	"github.com/JaimeStill/neuroscan/pkg/pagination"
)

const (
	EnvAPIBasePath      = "NEUROSCAN_API_BASE_PATH"
	EnvAPIMaxUploadSize = "NEUROSCAN_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "NEUROSCAN_CORS_ENABLED",
	Origins:          "NEUROSCAN_CORS_ORIGINS",
	AllowedMethods:   "NEUROSCAN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "NEUROSCAN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "NEUROSCAN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "NEUROSCAN_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "NEUROSCAN_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "NEUROSCAN_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "NEUROSCAN_OPENAPI_TITLE",
	Description: "NEUROSCAN_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, upload, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	envvar.String(EnvAPIBasePath, &c.BasePath)
	envvar.String(EnvAPIMaxUploadSize, &c.MaxUploadSize)
}

func (c *APIConfig) validate() error {
	if err := module.ValidatePrefix(c.BasePath); err != nil {
		return fmt.Errorf("invalid base_path: %w", err)
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
