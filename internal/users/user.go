// Package users implements account registration and credential checks for
// NeuroScan. Accounts are immutable once created.
package users

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials is the request body for registration and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize returns the credentials with the email trimmed and lower-cased.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

// Validate requires a well-formed email address and a non-empty password.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return ErrInvalidInput
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return ErrInvalidInput
	}
	return nil
}

// RegisterResponse is returned by a successful registration.
type RegisterResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}
