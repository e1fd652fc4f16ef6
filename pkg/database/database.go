// Package database opens the PostgreSQL pool that backs accounts and scan
// records and ties its readiness to the lifecycle coordinator.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/neuroscan/pkg/lifecycle"
)

// System exposes the pool to repositories and registers its hooks.
type System interface {
	Connection() *sql.DB
	Start(lc *lifecycle.Coordinator) error
}

type pool struct {
	db          *sql.DB
	target      string
	pingTimeout time.Duration
	logger      *slog.Logger
}

// New configures a pgx-backed pool from cfg. No connection is made until the
// startup hook pings the server.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return newPool(db, fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name), cfg.ConnTimeoutDuration(), logger), nil
}

func newPool(db *sql.DB, target string, pingTimeout time.Duration, logger *slog.Logger) *pool {
	return &pool{
		db:          db,
		target:      target,
		pingTimeout: pingTimeout,
		logger:      logger.With("system", "database", "target", target),
	}
}

func (p *pool) Connection() *sql.DB {
	return p.db
}

// Start pings on startup and closes the pool on shutdown. A failed ping keeps
// the coordinator from reporting ready, so /readyz answers 503.
func (p *pool) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("database", p.ping)
	lc.OnShutdown("database", p.close)
	return nil
}

func (p *pool) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.pingTimeout)
	defer cancel()

	start := time.Now()
	if err := p.db.PingContext(ctx); err != nil {
		p.logger.Error("postgres ping failed", "timeout", p.pingTimeout, "error", err)
		return fmt.Errorf("%w at %s: %w", ErrNotReady, p.target, err)
	}

	p.logger.Info("postgres reachable", "latency", time.Since(start))
	return nil
}

func (p *pool) close(context.Context) error {
	stats := p.db.Stats()
	p.logger.Info(
		"releasing postgres pool",
		"open", stats.OpenConnections,
		"in_use", stats.InUse,
	)

	if err := p.db.Close(); err != nil {
		p.logger.Error("postgres pool close failed", "error", err)
		return fmt.Errorf("%w: %w", ErrClose, err)
	}
	return nil
}
