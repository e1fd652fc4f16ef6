package scans

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/formatting"
	"github.com/JaimeStill/neuroscan/pkg/handlers"
	"github.com/JaimeStill/neuroscan/pkg/pagination"
	"github.com/JaimeStill/neuroscan/pkg/routes"
)

// artifactField is the multipart field carrying the MRI image.
const artifactField = "mri"

var safeExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,8}$`)

// Handler provides HTTP endpoints for scan operations. Every route requires
// an authenticated identity.
type Handler struct {
	sys           System
	guard         func(http.Handler) http.Handler
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	uploadDir     string
}

// NewHandler creates a Handler. guard must attach an auth.Identity to the
// request context.
func NewHandler(
	sys System,
	guard func(http.Handler) http.Handler,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
	uploadDir string,
) *Handler {
	return &Handler{
		sys:           sys,
		guard:         guard,
		logger:        logger.With("handler", "scans"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
		uploadDir:     uploadDir,
	}
}

// Routes returns the route group definition for scan endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:     "/scans",
		Tags:       []string{"Scans"},
		Schemas:    Spec.Schemas(),
		Middleware: []func(http.Handler) http.Handler{h.guard},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "GET", Pattern: "/history", Handler: h.History, OpenAPI: Spec.History},
			{Method: "POST", Pattern: "/predict", Handler: h.Predict, OpenAPI: Spec.Predict},
			{Method: "GET", Pattern: "/reports/{name}", Handler: h.Report, OpenAPI: Spec.Report},
		},
	}
}

// History returns every scan owned by the caller, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	scans, err := h.sys.History(r.Context(), identity.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, scans)
}

// List returns a page of the caller's scans, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), identity.ID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Predict stores the uploaded MRI image in a temporary file, classifies it,
// and returns the recorded scan. The temporary file is removed on every path.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err := fmt.Errorf("%w of %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 0))
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingArtifact)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(artifactField)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingArtifact)
		return
	}
	defer file.Close()

	path, err := h.saveArtifact(file, header)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("upload cleanup failed", "path", path, "error", err)
		}
	}()

	scan, err := h.sys.Predict(r.Context(), identity, path)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, scan)
}

// Report streams a report PDF referenced by one of the caller's scans.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")

	rc, err := h.sys.OpenReport(r.Context(), identity.ID, name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", reportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("report stream failed", "owner", identity.ID, "report", name, "error", err)
	}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnknownOwner)
	}
	return identity, ok
}

func (h *Handler) saveArtifact(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(header.Filename)
	if !safeExt.MatchString(ext) {
		ext = ""
	}

	tmp, err := os.CreateTemp(h.uploadDir, "mri-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return tmp.Name(), nil
}
