package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/handlers"
)

// Rejection reasons reported by Authenticate.
const (
	ReasonMissingCredential = "missing_credential"
	ReasonInvalidToken      = "invalid_token"
	ReasonExpiredToken      = "expired_token"
	ReasonUnknownSubject    = "unknown_subject"
)

// TokenVerifier verifies a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// SubjectResolver reports whether an identity still exists.
type SubjectResolver interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Rejection is the response body written when a request fails authentication.
type Rejection struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Authenticate returns middleware that requires an "Authorization: Bearer"
// session token. Verified requests carry their auth.Identity in the request
// context. When resolver is non-nil, tokens whose subject no longer exists are
// rejected as well.
func Authenticate(verifier TokenVerifier, resolver SubjectResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				reject(w, logger, r, ReasonMissingCredential, "authentication required")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					reject(w, logger, r, ReasonExpiredToken, "session token expired")
					return
				}
				reject(w, logger, r, ReasonInvalidToken, "invalid session token")
				return
			}

			if resolver != nil {
				exists, err := resolver.Exists(r.Context(), identity.ID)
				if err != nil {
					handlers.RespondError(w, logger, http.StatusInternalServerError, err)
					return
				}
				if !exists {
					reject(w, logger, r, ReasonUnknownSubject, "unknown session subject")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(w http.ResponseWriter, logger *slog.Logger, r *http.Request, reason, message string) {
	logger.Info("request rejected", "reason", reason, "uri", r.URL.RequestURI())
	w.Header().Set("WWW-Authenticate", `Bearer realm="neuroscan"`)
	handlers.RespondJSON(w, http.StatusUnauthorized, Rejection{Error: message, Reason: reason})
}
