package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/neuroscan/pkg/envvar"
)

// Config holds session token and password hashing settings.
type Config struct {
	Secret        string `toml:"secret"`
	BcryptCost    int    `toml:"bcrypt_cost"`
	VerifySubject bool   `toml:"verify_subject"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Secret        string
	BcryptCost    string
	VerifySubject string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. VerifySubject can only be
// enabled by an overlay, never disabled.
func (c *Config) Merge(overlay *Config) {
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.BcryptCost != 0 {
		c.BcryptCost = overlay.BcryptCost
	}
	if overlay.VerifySubject {
		c.VerifySubject = true
	}
}

func (c *Config) loadDefaults() {
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.String(env.Secret, &c.Secret)
	envvar.Int(env.BcryptCost, &c.BcryptCost)
	envvar.Bool(env.VerifySubject, &c.VerifySubject)
}

func (c *Config) validate() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: %d", ErrInvalidCost, c.BcryptCost)
	}
	return nil
}
