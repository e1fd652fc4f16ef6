package database

import "errors"

var (
	// ErrNotReady wraps a failed startup ping. The service reports not ready
	// until the process is restarted against a reachable database.
	ErrNotReady = errors.New("postgres unreachable")
	// ErrClose wraps a failure releasing the pool at shutdown.
	ErrClose = errors.New("close postgres pool")
)
