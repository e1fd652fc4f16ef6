package handlers_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/neuroscan/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		data     any
		wantCode int
		wantBody string
	}{
		{"struct", http.StatusOK, struct {
			Classification string  `json:"classification"`
			Confidence     float64 `json:"confidence_score"`
		}{"glioma", 0.91}, http.StatusOK, `{"classification":"glioma","confidence_score":0.91}`},
		{"created", http.StatusCreated, map[string]string{"message": "user registered"}, http.StatusCreated, `{"message":"user registered"}`},
		{"empty slice", http.StatusOK, []string{}, http.StatusOK, `[]`},
		{"unencodable", http.StatusOK, map[string]any{"bad": make(chan int)}, http.StatusInternalServerError, `{"error":"response encoding failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		err       error
		wantLevel string
	}{
		{"client", http.StatusBadRequest, errors.New("missing mri file"), "level=WARN"},
		{"server", http.StatusInternalServerError, errors.New("worker produced no output"), "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			rec := httptest.NewRecorder()

			handlers.RespondError(rec, logger, tt.status, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"error":"`+tt.err.Error()+`"}`, rec.Body.String())
			assert.Contains(t, logs.String(), tt.wantLevel)
		})
	}
}
