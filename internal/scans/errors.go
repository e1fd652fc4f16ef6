package scans

import (
	"errors"
	"net/http"
)

// Domain errors for scan operations.
var (
	ErrNotFound        = errors.New("scan not found")
	ErrStore           = errors.New("scan store failure")
	ErrUnknownOwner    = errors.New("scan owner does not exist")
	ErrMissingArtifact = errors.New("mri image file required")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps scan domain errors to appropriate HTTP status codes.
// Dispatch failures and store failures both surface as 500.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrMissingArtifact) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrUnknownOwner) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
