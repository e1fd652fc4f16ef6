// Package dispatch runs the external classification worker against an
// uploaded artifact and validates what it reports.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// waitDelay bounds how long the dispatcher keeps draining output after the
// worker has exited or been killed.
const waitDelay = 500 * time.Millisecond

// Dispatcher launches one worker process per dispatch. Dispatches share no
// mutable state beyond the optional admission semaphore.
type Dispatcher struct {
	command string
	args    []string
	timeout time.Duration
	slots   *semaphore.Weighted
	logger  *slog.Logger
}

// New creates a Dispatcher from cfg. A positive MaxConcurrent bounds the
// number of simultaneously running workers.
func New(cfg *Config, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		command: cfg.Command,
		args:    slices.Clone(cfg.Args),
		timeout: cfg.TimeoutDuration(),
		logger:  logger.With("system", "dispatch"),
	}
	if cfg.MaxConcurrent > 0 {
		d.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return d
}

// Dispatch runs the worker with the absolute artifact path as its final
// argument and returns the validated result. Every failure is an *Error.
func (d *Dispatcher) Dispatch(ctx context.Context, owner uuid.UUID, artifact string) (*Result, error) {
	path, err := resolveArtifact(artifact)
	if err != nil {
		return nil, &Error{Kind: KindLaunchFailed, Message: "artifact unavailable", Err: err}
	}

	if d.slots != nil {
		if err := d.slots.Acquire(ctx, 1); err != nil {
			return nil, &Error{Kind: KindTimedOut, Message: "no worker slot available", Err: err}
		}
		defer d.slots.Release(1)
	}

	logger := d.logger.With("owner", owner, "artifact", path)

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	out, err := d.run(runCtx, path)
	if err != nil {
		logger.Error("worker launch failed", "error", err)
		return nil, err
	}

	logger = logger.With("exit_code", out.exitCode, "duration", time.Since(start))

	if runErr := runCtx.Err(); runErr != nil && !out.exited {
		logger.Warn("worker terminated", "error", runErr, "stderr", out.stderr)
		msg := fmt.Sprintf("worker did not finish within %s", d.timeout)
		if errors.Is(runErr, context.Canceled) {
			msg = "dispatch canceled before the worker finished"
		}
		return nil, &Error{
			Kind:     KindTimedOut,
			Message:  msg,
			ExitCode: out.exitCode,
			Stderr:   out.stderr,
			Err:      runErr,
		}
	}

	result, err := parseResult(out.stdout)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			de.ExitCode = out.exitCode
			de.Stderr = out.stderr
		}
		logger.Warn("worker output rejected", "kind", KindOf(err), "error", err, "stderr", out.stderr)
		return nil, err
	}

	if out.exitCode != 0 {
		logger.Warn("worker exited non-zero with valid output", "stderr", out.stderr)
	} else if out.stderr != "" {
		logger.Debug("worker diagnostics", "stderr", out.stderr)
	}

	logger.Info(
		"dispatch complete",
		"classification", result.Classification,
		"confidence", result.ConfidenceScore,
	)
	return result, nil
}

type output struct {
	stdout   []byte
	stderr   string
	exitCode int
	exited   bool
}

// run starts the worker with stdout and stderr captured into independent
// buffers and returns once the process has terminated. Streams still held
// open by descendants are closed waitDelay after exit or after the kill.
func (d *Dispatcher) run(ctx context.Context, path string) (*output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, d.command, append(slices.Clone(d.args), path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: KindLaunchFailed, Message: "start worker", Err: err}
	}

	waitErr := cmd.Wait()

	out := &output{
		stdout:   stdout.Bytes(),
		stderr:   stderr.String(),
		exitCode: exitCode(cmd, waitErr),
		exited:   cmd.ProcessState != nil && cmd.ProcessState.Exited(),
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(waitErr, exec.ErrWaitDelay):
		d.logger.Warn("worker left its output streams open", "path", path)
	case waitErr != nil && !errors.As(waitErr, &exitErr) && out.exited:
		d.logger.Warn("worker wait failed", "error", waitErr)
	}

	return out, nil
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func resolveArtifact(artifact string) (string, error) {
	if artifact == "" {
		return "", errors.New("empty artifact path")
	}

	path, err := filepath.Abs(artifact)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	return path, nil
}
