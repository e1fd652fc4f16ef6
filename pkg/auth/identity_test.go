package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/neuroscan/pkg/auth"
)

func TestIdentityContext(t *testing.T) {
	_, ok := auth.IdentityFrom(context.Background())
	assert.False(t, ok)

	want := auth.Identity{ID: uuid.New(), Email: "user@example.com"}
	ctx := auth.WithIdentity(context.Background(), want)

	got, ok := auth.IdentityFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
