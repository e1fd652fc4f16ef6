package auth

import "errors"

var (
	// ErrMissingSecret indicates the token signing secret was not configured.
	ErrMissingSecret = errors.New("signing secret required")
	// ErrMalformedToken indicates a token that cannot be decoded, carries a bad
	// signature or algorithm, or lacks required claims.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken indicates a correctly signed token past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrPasswordTooLong indicates a password exceeding bcrypt's 72 byte input limit.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrInvalidCost indicates a bcrypt cost outside the supported range.
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)
