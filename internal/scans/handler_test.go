package scans_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/internal/scans"
	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/pagination"
	"github.com/JaimeStill/neuroscan/pkg/routes"
)

type stubSystem struct {
	predict    func(auth.Identity, string) (*scans.Scan, error)
	history    []scans.Scan
	report     string
	reportErr  error
	logger     *slog.Logger
	seenPath   string
	seenExists bool
}

func (s *stubSystem) Handler(guard func(http.Handler) http.Handler, maxUploadSize int64, uploadDir string) *scans.Handler {
	logger := s.logger
	if logger == nil {
		logger = discard()
	}
	return scans.NewHandler(s, guard, logger, pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}, maxUploadSize, uploadDir)
}

func (s *stubSystem) Predict(_ context.Context, identity auth.Identity, artifact string) (*scans.Scan, error) {
	s.seenPath = artifact
	_, err := os.Stat(artifact)
	s.seenExists = err == nil
	return s.predict(identity, artifact)
}

func (s *stubSystem) Record(context.Context, uuid.UUID, *dispatch.Result) (*scans.Scan, error) {
	return nil, scans.ErrStore
}

func (s *stubSystem) History(context.Context, uuid.UUID) ([]scans.Scan, error) {
	return s.history, nil
}

func (s *stubSystem) List(_ context.Context, _ uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[scans.Scan], error) {
	result := pagination.NewPageResult(s.history, len(s.history), page.Page, page.PageSize)
	return &result, nil
}

func (s *stubSystem) OpenReport(_ context.Context, _ uuid.UUID, name string) (io.ReadCloser, error) {
	if name != s.report {
		return nil, scans.ErrNotFound
	}
	var body io.Reader = strings.NewReader("%PDF-1.4")
	if s.reportErr != nil {
		body = io.MultiReader(body, iotest.ErrReader(s.reportErr))
	}
	return io.NopCloser(body), nil
}

// withIdentity stands in for the session guard.
func withIdentity(id auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }

func newMux(sys scans.System, guard func(http.Handler) http.Handler, maxUpload int64, uploadDir string) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(guard, maxUpload, uploadDir).Routes())
	return mux
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPredictHandler(t *testing.T) {
	identity := auth.Identity{ID: uuid.New(), Email: "ada@example.com"}
	uploadDir := filepath.Join(t.TempDir(), "uploads")

	sys := &stubSystem{
		predict: func(id auth.Identity, _ string) (*scans.Scan, error) {
			return &scans.Scan{ID: uuid.New(), UserID: id.ID, Classification: "no_tumor", ConfidenceScore: 0.97, ReportFile: "r.pdf"}, nil
		},
	}
	mux := newMux(sys, withIdentity(identity), 1<<20, uploadDir)

	body, ct := multipartBody(t, "mri", "brain.JPG", []byte("image bytes"))
	req := httptest.NewRequest("POST", "/scans/predict", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var scan scans.Scan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&scan))
	assert.Equal(t, identity.ID, scan.UserID)
	assert.Equal(t, "no_tumor", scan.Classification)

	assert.True(t, sys.seenExists, "artifact should exist while the worker runs")
	assert.Equal(t, uploadDir, filepath.Dir(sys.seenPath))
	assert.Equal(t, ".JPG", filepath.Ext(sys.seenPath))

	_, err := os.Stat(sys.seenPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "artifact should be removed after the request")
}

func TestPredictHandlerFailures(t *testing.T) {
	identity := auth.Identity{ID: uuid.New()}

	tests := []struct {
		name       string
		field      string
		data       []byte
		err        error
		wantStatus int
	}{
		{"missing file", "", nil, nil, http.StatusBadRequest},
		{"wrong field", "image", []byte("x"), nil, http.StatusBadRequest},
		{"too large", "mri", bytes.Repeat([]byte("x"), 8192), nil, http.StatusRequestEntityTooLarge},
		{"dispatch failure", "mri", []byte("x"), &dispatch.Error{Kind: dispatch.KindNoOutput, Message: "worker produced no output"}, http.StatusInternalServerError},
		{"store failure", "mri", []byte("x"), scans.ErrStore, http.StatusInternalServerError},
		{"orphaned owner", "mri", []byte("x"), scans.ErrUnknownOwner, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploadDir := t.TempDir()
			sys := &stubSystem{
				predict: func(auth.Identity, string) (*scans.Scan, error) {
					return nil, tt.err
				},
			}
			mux := newMux(sys, withIdentity(identity), 1024, uploadDir)

			body, ct := multipartBody(t, tt.field, "scan.png", tt.data)
			req := httptest.NewRequest("POST", "/scans/predict", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			entries, err := os.ReadDir(uploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "upload dir should be empty after the request")
		})
	}
}

func TestPredictHandlerReportsUploadLimit(t *testing.T) {
	mux := newMux(&stubSystem{}, withIdentity(auth.Identity{ID: uuid.New()}), 1024, t.TempDir())

	body, ct := multipartBody(t, "mri", "scan.png", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest("POST", "/scans/predict", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "file exceeds maximum upload size of 1 KB")
}

func TestHandlerRequiresIdentity(t *testing.T) {
	mux := newMux(&stubSystem{}, passthrough, 1024, t.TempDir())

	for _, path := range []string{"/scans", "/scans/history", "/scans/reports/r.pdf"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestHistoryHandler(t *testing.T) {
	identity := auth.Identity{ID: uuid.New()}

	t.Run("empty history is an empty array", func(t *testing.T) {
		mux := newMux(&stubSystem{history: []scans.Scan{}}, withIdentity(identity), 1024, t.TempDir())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/history", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("paged listing", func(t *testing.T) {
		sys := &stubSystem{history: []scans.Scan{{ID: uuid.New()}, {ID: uuid.New()}}}
		mux := newMux(sys, withIdentity(identity), 1024, t.TempDir())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans?page=1&page_size=5", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var page pagination.PageResult[scans.Scan]
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 5, page.PageSize)
	})
}

func TestReportHandler(t *testing.T) {
	identity := auth.Identity{ID: uuid.New()}
	mux := newMux(&stubSystem{report: "report_1.pdf"}, withIdentity(identity), 1024, t.TempDir())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/reports/report_1.pdf", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report_1.pdf")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/reports/other.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportHandlerLogsStreamFailure(t *testing.T) {
	var logs bytes.Buffer
	sys := &stubSystem{
		report:    "report_1.pdf",
		reportErr: errors.New("blob connection reset"),
		logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	}
	mux := newMux(sys, withIdentity(auth.Identity{ID: uuid.New()}), 1024, t.TempDir())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/reports/report_1.pdf", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Contains(t, logs.String(), "report stream failed")
	assert.Contains(t, logs.String(), "blob connection reset")
}
