package dispatch

import (
	"fmt"
	"time"

	"github.com/JaimeStill/neuroscan/pkg/envvar"
)

// Config holds worker invocation settings.
type Config struct {
	Command       string   `toml:"command"`
	Args          []string `toml:"args"`
	Timeout       string   `toml:"timeout"`
	MaxConcurrent int      `toml:"max_concurrent"`
	UploadDir     string   `toml:"upload_dir"`
	ReportsDir    string   `toml:"reports_dir"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Command       string
	Args          string
	Timeout       string
	MaxConcurrent string
	UploadDir     string
	ReportsDir    string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Command != "" {
		c.Command = overlay.Command
	}
	if overlay.Args != nil {
		c.Args = overlay.Args
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.UploadDir != "" {
		c.UploadDir = overlay.UploadDir
	}
	if overlay.ReportsDir != "" {
		c.ReportsDir = overlay.ReportsDir
	}
}

func (c *Config) loadDefaults() {
	if c.Command == "" {
		c.Command = "python3"
	}
	if c.Args == nil {
		c.Args = []string{"ml/predict.py"}
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "reports"
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.String(env.Command, &c.Command)
	envvar.Fields(env.Args, &c.Args)
	envvar.String(env.Timeout, &c.Timeout)
	envvar.Int(env.MaxConcurrent, &c.MaxConcurrent)
	envvar.String(env.UploadDir, &c.UploadDir)
	envvar.String(env.ReportsDir, &c.ReportsDir)
}

func (c *Config) validate() error {
	if c.Command == "" {
		return fmt.Errorf("command required")
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max_concurrent must not be negative")
	}
	return nil
}
