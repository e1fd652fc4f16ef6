package users_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/neuroscan/internal/users"
	"github.com/JaimeStill/neuroscan/pkg/auth"
)

var userColumns = []string{"id", "email", "password_hash", "created_at"}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHasher(t *testing.T) *auth.Hasher {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newSystem(t *testing.T) (users.System, sqlmock.Sqlmock, *auth.Hasher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher := newHasher(t)
	return users.New(db, hasher, discard()), mock, hasher
}

func TestRegister(t *testing.T) {
	sys, mock, _ := newSystem(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("ada@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "ada@example.com", "$2a$04$stored", now))
	mock.ExpectCommit()

	u, err := sys.Register(context.Background(), users.Credentials{
		Email:    "  Ada@Example.COM ",
		Password: "correct horse",
	})

	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	sys, mock, hasher := newSystem(t)

	var stored string
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("ada@example.com", hashArg{capture: &stored}).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(uuid.New().String(), "ada@example.com", "x", time.Now()))
	mock.ExpectCommit()

	_, err := sys.Register(context.Background(), users.Credentials{Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", stored)
	assert.True(t, hasher.Verify("s3cret", stored))
}

type hashArg struct {
	capture *string
}

func (a hashArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*a.capture = s
	}
	return ok
}

func TestRegisterDuplicate(t *testing.T) {
	sys, mock, _ := newSystem(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := sys.Register(context.Background(), users.Credentials{Email: "ada@example.com", Password: "pw"})

	assert.ErrorIs(t, err, users.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		cred users.Credentials
		want error
	}{
		{"missing email", users.Credentials{Password: "pw"}, users.ErrInvalidInput},
		{"blank email", users.Credentials{Email: "   ", Password: "pw"}, users.ErrInvalidInput},
		{"missing password", users.Credentials{Email: "ada@example.com"}, users.ErrInvalidInput},
		{"not an address", users.Credentials{Email: "ada", Password: "pw"}, users.ErrInvalidInput},
		{"display name form", users.Credentials{Email: "Ada <ada@example.com>", Password: "pw"}, users.ErrInvalidInput},
		{"password too long", users.Credentials{Email: "ada@example.com", Password: strings.Repeat("p", 73)}, auth.ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, mock, _ := newSystem(t)

			_, err := sys.Register(context.Background(), tt.cred)

			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

var selectByEmail = regexp.QuoteMeta(
	"SELECT u.id, u.email, u.password_hash, u.created_at FROM public.users u WHERE u.email = $1 LIMIT 1",
)

func TestAuthenticate(t *testing.T) {
	sys, mock, hasher := newSystem(t)
	id := uuid.New()

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	mock.ExpectQuery(selectByEmail).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "ada@example.com", hash, time.Now()))

	u, err := sys.Authenticate(context.Background(), users.Credentials{Email: "ADA@example.com", Password: "correct horse"})

	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		sys, mock, hasher := newSystem(t)
		hash, err := hasher.Hash("correct horse")
		require.NoError(t, err)

		mock.ExpectQuery(selectByEmail).
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(uuid.New().String(), "ada@example.com", hash, time.Now()))

		_, err = sys.Authenticate(context.Background(), users.Credentials{Email: "ada@example.com", Password: "battery staple"})
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		sys, mock, _ := newSystem(t)

		mock.ExpectQuery(selectByEmail).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := sys.Authenticate(context.Background(), users.Credentials{Email: "nobody@example.com", Password: "pw"})
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)
	})
}

func TestAuthenticateStoreFailure(t *testing.T) {
	sys, mock, _ := newSystem(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(selectByEmail).WillReturnError(boom)

	_, err := sys.Authenticate(context.Background(), users.Credentials{Email: "ada@example.com", Password: "pw"})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestFind(t *testing.T) {
	sys, mock, _ := newSystem(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM public.users u WHERE u.id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := sys.Find(context.Background(), id)
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestExists(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want bool
	}{
		{"present", sqlmock.NewRows([]string{"exists"}).AddRow(true), true},
		{"absent", sqlmock.NewRows([]string{"exists"}).AddRow(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, mock, _ := newSystem(t)
			id := uuid.New()

			mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
				WithArgs(id).
				WillReturnRows(tt.rows)

			got, err := sys.Exists(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExistsError(t *testing.T) {
	sys, mock, _ := newSystem(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnError(sql.ErrConnDone)

	_, err := sys.Exists(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
