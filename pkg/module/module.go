// Package module mounts self-contained HTTP routers under single-segment
// path prefixes.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/neuroscan/pkg/middleware"
)

// Module serves an inner router beneath a prefix such as "/api". The inner
// router sees paths with the prefix removed.
type Module struct {
	prefix string
	router http.Handler
	chain  middleware.Chain
}

// New creates a Module for prefix. The prefix must pass ValidatePrefix.
func New(prefix string, router http.Handler) (*Module, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{prefix: prefix, router: router}, nil
}

// ValidatePrefix reports whether prefix is a single path segment with a
// leading slash.
func ValidatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case len(prefix) == 1 || strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware around the inner router.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.chain.Use(mw)
}

// Handler returns the inner router wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.chain.Then(m.router)
}

// ServeHTTP strips the prefix and dispatches to Handler.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	inner := r.Clone(r.Context())
	inner.URL.Path = path
	inner.URL.RawPath = ""

	m.Handler().ServeHTTP(w, inner)
}
