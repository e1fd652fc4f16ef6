package storage

import (
	"fmt"

	"github.com/JaimeStill/neuroscan/pkg/envvar"
)

// Supported storage providers.
const (
	ProviderNone  = "none"
	ProviderAzure = "azure"
	ProviderS3    = "s3"
)

// Config holds blob storage connection parameters. ContainerName names the
// Azure container or the S3 bucket.
type Config struct {
	Provider         string `toml:"provider"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	Region           string `toml:"region"`
	Endpoint         string `toml:"endpoint"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	UsePathStyle     bool   `toml:"use_path_style"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	ContainerName    string
	ConnectionString string
	Region           string
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UsePathStyle     string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKey != "" {
		c.AccessKey = overlay.AccessKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.UsePathStyle {
		c.UsePathStyle = true
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderNone
	}
	if c.ContainerName == "" {
		c.ContainerName = "reports"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.String(env.Provider, &c.Provider)
	envvar.String(env.ContainerName, &c.ContainerName)
	envvar.String(env.ConnectionString, &c.ConnectionString)
	envvar.String(env.Region, &c.Region)
	envvar.String(env.Endpoint, &c.Endpoint)
	envvar.String(env.AccessKey, &c.AccessKey)
	envvar.String(env.SecretKey, &c.SecretKey)
	envvar.Bool(env.UsePathStyle, &c.UsePathStyle)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderNone:
		return nil
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required")
		}
	case ProviderS3:
		if c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("access_key and secret_key required")
		}
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}

	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	return nil
}
