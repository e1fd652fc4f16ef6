package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/query"
	"github.com/JaimeStill/neuroscan/pkg/repository"
)

type repo struct {
	db        *sql.DB
	hasher    *auth.Hasher
	logger    *slog.Logger
	dummyHash func() string
}

// New creates a user repository implementing the System interface.
func New(db *sql.DB, hasher *auth.Hasher, logger *slog.Logger) System {
	return &repo{
		db:     db,
		hasher: hasher,
		logger: logger.With("system", "users"),
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash("neuroscan-unknown-account")
			return h
		}),
	}
}

func (r *repo) Handler(issuer TokenIssuer) *Handler {
	return NewHandler(r, issuer, r.logger)
}

func (r *repo) Register(ctx context.Context, cred Credentials) (*User, error) {
	cred = cred.Normalize()
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	hash, err := r.hasher.Hash(cred.Password)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO users(email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at`

	u, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (User, error) {
		return repository.QueryOne(ctx, tx, q, []any{cred.Email, hash}, scanUser)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user registered", "id", u.ID)
	return &u, nil
}

// Authenticate returns the account matching cred. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials after a full bcrypt comparison.
func (r *repo) Authenticate(ctx context.Context, cred Credentials) (*User, error) {
	cred = cred.Normalize()
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(projection).
		WhereEquals("Email", cred.Email).
		BuildSingleOrNull()

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.hasher.Verify(cred.Password, r.dummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !r.hasher.Verify(cred.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &u, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*User, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

// Exists reports whether an account with id is registered.
func (r *repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}
