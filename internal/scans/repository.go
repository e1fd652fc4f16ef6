package scans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/JaimeStill/neuroscan/internal/dispatch"
	"github.com/JaimeStill/neuroscan/pkg/auth"
	"github.com/JaimeStill/neuroscan/pkg/pagination"
	"github.com/JaimeStill/neuroscan/pkg/query"
	"github.com/JaimeStill/neuroscan/pkg/repository"
	"github.com/JaimeStill/neuroscan/pkg/storage"
)

type repo struct {
	db         *sql.DB
	dispatcher Dispatcher
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
	reportsDir string
}

// New creates a scan repository implementing the System interface.
// reportsDir is where the worker writes its report files.
func New(
	db *sql.DB,
	dispatcher Dispatcher,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
	reportsDir string,
) System {
	return &repo{
		db:         db,
		dispatcher: dispatcher,
		storage:    store,
		logger:     logger.With("system", "scans"),
		pagination: pagination,
		reportsDir: reportsDir,
	}
}

func (r *repo) Handler(guard func(http.Handler) http.Handler, maxUploadSize int64, uploadDir string) *Handler {
	return NewHandler(r, guard, r.logger, r.pagination, maxUploadSize, uploadDir)
}

func (r *repo) Predict(ctx context.Context, identity auth.Identity, artifact string) (*Scan, error) {
	result, err := r.dispatcher.Dispatch(ctx, identity.ID, artifact)
	if err != nil {
		return nil, err
	}

	key, published := r.publishReport(ctx, identity.ID, result.ReportFile)

	scan, err := r.Record(ctx, identity.ID, result)
	if err != nil {
		if published {
			if delErr := r.storage.Delete(ctx, key); delErr != nil {
				r.logger.Warn("compensating report delete failed", "key", key, "error", delErr)
			}
		}
		return nil, err
	}

	return scan, nil
}

func (r *repo) Record(ctx context.Context, owner uuid.UUID, result *dispatch.Result) (*Scan, error) {
	q := `
		INSERT INTO scans(user_id, classification, confidence_score, report_file, severity, probabilities)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, classification, confidence_score, report_file, severity, probabilities, created_at`

	args := []any{
		owner,
		result.Classification,
		result.ConfidenceScore,
		result.ReportFile,
		result.Severity,
		Probabilities(result.Probabilities),
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Scan, error) {
		return repository.QueryOne(ctx, tx, q, args, scanScan)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, ErrUnknownOwner
		}
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	r.logger.Info(
		"scan recorded",
		"id", s.ID,
		"owner", owner,
		"classification", s.Classification,
	)
	return &s, nil
}

func (r *repo) History(ctx context.Context, owner uuid.UUID) ([]Scan, error) {
	q, args := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("UserID", owner).
		Build()

	scans, err := repository.QueryMany(ctx, r.db, q, args, scanScan)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return scans, nil
}

func (r *repo) List(
	ctx context.Context,
	owner uuid.UUID,
	page pagination.PageRequest,
) (*pagination.PageResult[Scan], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("UserID", owner).
		WhereContains("Classification", page.Search).
		OrderByFields(sortFields(page.Sort))

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%w: count scans: %w", ErrStore, err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	scans, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanScan)
	if err != nil {
		return nil, fmt.Errorf("%w: query scans: %w", ErrStore, err)
	}

	result := pagination.NewPageResult(scans, total, page.Page, page.PageSize)
	return &result, nil
}

// OpenReport prefers the published copy in blob storage and falls back to
// the worker's reports directory.
func (r *repo) OpenReport(ctx context.Context, owner uuid.UUID, name string) (io.ReadCloser, error) {
	if !validReportName(name) {
		return nil, ErrNotFound
	}

	var owned bool
	err := r.db.QueryRowContext(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM scans WHERE user_id = $1 AND report_file = $2)",
		owner, name,
	).Scan(&owned)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !owned {
		return nil, ErrNotFound
	}

	if r.storage.Enabled() {
		rc, err := r.storage.Download(ctx, reportKey(owner, name))
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	if r.reportsDir == "" {
		return nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(r.reportsDir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
