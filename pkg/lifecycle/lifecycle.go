// Package lifecycle coordinates subsystem startup, readiness and shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Hook is a named startup or shutdown step.
type Hook func(ctx context.Context) error

// Coordinator runs startup hooks concurrently as they are registered and
// runs shutdown hooks concurrently when Shutdown is called.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup errgroup.Group
	ready   atomic.Bool

	mu       sync.Mutex
	shutdown []namedHook
	stopped  bool
}

type namedHook struct {
	name string
	fn   Hook
}

// New creates a Coordinator whose context lives until Shutdown.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context returns the coordinator's context. It is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup starts fn immediately in its own goroutine. A failing hook
// keeps the coordinator from becoming ready.
func (c *Coordinator) OnStartup(name string, fn Hook) {
	c.startup.Go(func() error {
		if err := fn(c.ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

// OnShutdown registers fn to run during Shutdown.
func (c *Coordinator) OnShutdown(name string, fn Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = append(c.shutdown, namedHook{name: name, fn: fn})
}

// Ready reports whether every startup hook has completed successfully.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until all startup hooks have returned. The
// coordinator becomes ready only when none of them failed.
func (c *Coordinator) WaitForStartup() error {
	if err := c.startup.Wait(); err != nil {
		return err
	}
	c.ready.Store(true)
	return nil
}

// Shutdown cancels the coordinator context, then runs every shutdown hook
// concurrently with a context bounded by timeout. Hook errors are joined.
// Calls after the first are no-ops.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	hooks := c.shutdown
	c.mu.Unlock()

	c.ready.Store(false)
	c.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	errs := make([]error, len(hooks))
	var wg sync.WaitGroup
	for i, h := range hooks {
		wg.Go(func() {
			if err := h.fn(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", h.name, err)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return errors.Join(errs...)
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
