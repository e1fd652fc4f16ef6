package database

import (
	"database/sql"
	"log/slog"
	"time"
)

func NewFromDB(db *sql.DB, pingTimeout time.Duration, logger *slog.Logger) System {
	return newPool(db, "sqlmock", pingTimeout, logger)
}
