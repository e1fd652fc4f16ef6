// Package config loads NeuroScan configuration from an optional config.toml,
// an optional per-environment overlay, and NEUROSCAN_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/database"
	"github.com/JaimeStill/neuroscan/pkg/envvar"
	"github.com/JaimeStill/neuroscan/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvNeuroscanEnv             = "NEUROSCAN_ENV"
	EnvNeuroscanShutdownTimeout = "NEUROSCAN_SHUTDOWN_TIMEOUT"
	EnvNeuroscanVersion         = "NEUROSCAN_VERSION"
	EnvNeuroscanLogLevel        = "NEUROSCAN_LOG_LEVEL"
)

// DatabaseEnv maps database settings to their NEUROSCAN_DB_* variables.
var DatabaseEnv = &database.Env{
	Host:            "NEUROSCAN_DB_HOST",
	Port:            "NEUROSCAN_DB_PORT",
	Name:            "NEUROSCAN_DB_NAME",
	User:            "NEUROSCAN_DB_USER",
	Password:        "NEUROSCAN_DB_PASSWORD",
	SSLMode:         "NEUROSCAN_DB_SSL_MODE",
	MaxOpenConns:    "NEUROSCAN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "NEUROSCAN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "NEUROSCAN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "NEUROSCAN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "NEUROSCAN_STORAGE_PROVIDER",
	ContainerName:    "NEUROSCAN_STORAGE_CONTAINER_NAME",
	ConnectionString: "NEUROSCAN_STORAGE_CONNECTION_STRING",
	Region:           "NEUROSCAN_STORAGE_REGION",
	Endpoint:         "NEUROSCAN_STORAGE_ENDPOINT",
	AccessKey:        "NEUROSCAN_STORAGE_ACCESS_KEY",
	SecretKey:        "NEUROSCAN_STORAGE_SECRET_KEY",
	UsePathStyle:     "NEUROSCAN_STORAGE_USE_PATH_STYLE",
}

var authEnv = &auth.Env{
	Secret:        "NEUROSCAN_AUTH_SECRET",
	BcryptCost:    "NEUROSCAN_AUTH_BCRYPT_COST",
	VerifySubject: "NEUROSCAN_AUTH_VERIFY_SUBJECT",
}

var dispatchEnv = &dispatch.Env{
	Command:       "NEUROSCAN_DISPATCH_COMMAND",
	Args:          "NEUROSCAN_DISPATCH_ARGS",
	Timeout:       "NEUROSCAN_DISPATCH_TIMEOUT",
	MaxConcurrent: "NEUROSCAN_DISPATCH_MAX_CONCURRENT",
	UploadDir:     "NEUROSCAN_DISPATCH_UPLOAD_DIR",
	ReportsDir:    "NEUROSCAN_DISPATCH_REPORTS_DIR",
}

// Config is the root configuration for the NeuroScan service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Dispatch        dispatch.Config `toml:"dispatch"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
	LogLevel        string          `toml:"log_level"`
}

// Env returns the NEUROSCAN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvNeuroscanEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Dispatch.Merge(&overlay.Dispatch)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(DatabaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Dispatch.Finalize(dispatchEnv); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	envvar.String(EnvNeuroscanShutdownTimeout, &c.ShutdownTimeout)
	envvar.String(EnvNeuroscanVersion, &c.Version)
	envvar.String(EnvNeuroscanLogLevel, &c.LogLevel)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvNeuroscanEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
