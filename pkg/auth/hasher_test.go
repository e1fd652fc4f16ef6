package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/neuroscan/pkg/auth"
)

func newHasher(t *testing.T) *auth.Hasher {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewHasherCostRange(t *testing.T) {
	_, err := auth.NewHasher(bcrypt.MinCost - 1)
	assert.ErrorIs(t, err, auth.ErrInvalidCost)

	_, err = auth.NewHasher(bcrypt.MaxCost + 1)
	assert.ErrorIs(t, err, auth.ErrInvalidCost)

	h, err := auth.NewHasher(bcrypt.DefaultCost)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, h.Cost())
}

func TestHashVerify(t *testing.T) {
	h := newHasher(t)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHashIsSalted(t *testing.T) {
	h := newHasher(t)

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same password", a))
	assert.True(t, h.Verify("same password", b))
}

func TestHashUsesConfiguredCost(t *testing.T) {
	h := newHasher(t)

	hash, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestHashRejectsLongPassword(t *testing.T) {
	h := newHasher(t)

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newHasher(t)

	assert.False(t, h.Verify("pw", ""))
	assert.False(t, h.Verify("pw", "not-a-bcrypt-hash"))
}
