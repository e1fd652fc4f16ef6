package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies a failed dispatch.
type Kind string

const (
	KindNoOutput        Kind = "no_output"
	KindMalformedOutput Kind = "malformed_output"
	KindInvalidResult   Kind = "invalid_result"
	KindLaunchFailed    Kind = "launch_failed"
	KindTimedOut        Kind = "timed_out"
)

// Error is returned for every failed dispatch. Stderr holds the worker's
// diagnostic output when the process ran.
type Error struct {
	Kind     Kind
	Message  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a dispatch error, or "" if err is not one.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
