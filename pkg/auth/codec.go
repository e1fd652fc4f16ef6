// Package auth provides session token signing and verification, password
// hashing, and request identity propagation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenLifetime is the fixed validity window of an issued session token.
const TokenLifetime = 24 * time.Hour

// Claims is the JWT payload of a session token. Subject holds the identity ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Token is a signed session token and its validity window.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Codec issues and verifies HS256 session tokens with a shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a Codec signing with secret. Returns ErrMissingSecret when
// secret is empty.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	c := &Codec{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for the identity, valid from now for TokenLifetime.
func (c *Codec) Issue(id uuid.UUID, email string) (Token, error) {
	iat := c.now().UTC().Truncate(time.Second)
	exp := iat.Add(TokenLifetime)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		Value:     signed,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}

// Verify checks the signature, algorithm, and validity window of token and
// returns the identity it carries. Expired tokens yield ErrExpiredToken; every
// other failure yields ErrMalformedToken.
func (c *Codec) Verify(token string) (Identity, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if claims.IssuedAt == nil {
		return Identity{}, fmt.Errorf("%w: missing iat", ErrMalformedToken)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid subject", ErrMalformedToken)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing email", ErrMalformedToken)
	}

	return Identity{ID: id, Email: claims.Email}, nil
}
