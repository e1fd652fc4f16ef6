package users

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for user domain operations.
type System interface {
	Handler(issuer TokenIssuer) *Handler

	Register(ctx context.Context, cred Credentials) (*User, error)
	Authenticate(ctx context.Context, cred Credentials) (*User, error)
	Find(ctx context.Context, id uuid.UUID) (*User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
