package scans

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const reportContentType = "application/pdf"

// publishReport uploads the worker's report to blob storage under the
// owner's prefix. Problems are logged and reported as not published.
func (r *repo) publishReport(ctx context.Context, owner uuid.UUID, name string) (string, bool) {
	if !r.storage.Enabled() || r.reportsDir == "" {
		return "", false
	}

	logger := r.logger.With("owner", owner, "report", name)

	if !validReportName(name) {
		logger.Warn("report name rejected")
		return "", false
	}

	f, err := os.Open(filepath.Join(r.reportsDir, name))
	if err != nil {
		logger.Warn("report unavailable", "error", err)
		return "", false
	}
	defer f.Close()

	pages, err := api.PageCount(f, nil)
	if err != nil {
		logger.Warn("report is not a readable PDF", "error", err)
		return "", false
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		logger.Warn("report rewind failed", "error", err)
		return "", false
	}

	key := reportKey(owner, name)
	if err := r.storage.Upload(ctx, key, f, reportContentType); err != nil {
		logger.Warn("report upload failed", "key", key, "error", err)
		return "", false
	}

	logger.Info("report published", "key", key, "pages", pages)
	return key, true
}

func reportKey(owner uuid.UUID, name string) string {
	return fmt.Sprintf("reports/%s/%s", owner, name)
}

func validReportName(name string) bool {
	return name != "" &&
		name != "." &&
		name != ".." &&
		filepath.Base(name) == name &&
		filepath.IsLocal(name)
}
