package scans

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/pagination"
)

// Dispatcher runs the classification worker for an uploaded artifact.
type Dispatcher interface {
	Dispatch(ctx context.Context, owner uuid.UUID, artifact string) (*dispatch.Result, error)
}

// System defines the public contract for scan domain operations.
type System interface {
	Handler(guard func(http.Handler) http.Handler, maxUploadSize int64, uploadDir string) *Handler

	// Predict dispatches the worker against artifact, publishes its report
	// when storage is enabled, and records the result for identity.
	Predict(ctx context.Context, identity auth.Identity, artifact string) (*Scan, error)

	// Record persists a validated result. Returns ErrUnknownOwner when owner
	// does not exist and a wrapped ErrStore for any other failure.
	Record(ctx context.Context, owner uuid.UUID, result *dispatch.Result) (*Scan, error)

	// History returns every scan owned by owner, newest first.
	History(ctx context.Context, owner uuid.UUID) ([]Scan, error)

	List(
		ctx context.Context,
		owner uuid.UUID,
		page pagination.PageRequest,
	) (*pagination.PageResult[Scan], error)

	// OpenReport returns the named report if owner has a scan referencing it.
	OpenReport(ctx context.Context, owner uuid.UUID, name string) (io.ReadCloser, error)
}
