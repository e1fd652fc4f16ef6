package users

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/handlers"
	"github.com/JaimeStill/neuroscan/pkg/routes"
)

// TokenIssuer signs session tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(id uuid.UUID, email string) (auth.Token, error)
}

// Handler provides HTTP endpoints for registration and login.
type Handler struct {
	sys    System
	issuer TokenIssuer
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system, token issuer, and logger.
func NewHandler(sys System, issuer TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		issuer: issuer,
		logger: logger.With("handler", "users"),
	}
}

// Routes returns the route group definition for authentication endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/auth",
		Tags:    []string{"Auth"},
		Schemas: Spec.Schemas(),
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/register", Handler: h.Register, OpenAPI: Spec.Register},
			{Method: "POST", Pattern: "/login", Handler: h.Login, OpenAPI: Spec.Login},
		},
	}
}

// Register creates an account from an email and password.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cred Credentials
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	u, err := h.sys.Register(r.Context(), cred)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, RegisterResponse{
		Message: "user registered",
		ID:      u.ID,
	})
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cred Credentials
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	u, err := h.sys.Authenticate(r.Context(), cred)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	token, err := h.issuer.Issue(u.ID, u.Email)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, LoginResponse{
		Token:     token.Value,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
	})
}
