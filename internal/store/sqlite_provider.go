package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shaibs3/mediavault/internal/db"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const defaultSQLiteBusyTimeoutMS = 5000

type SQLiteProvider struct {
	*sqlProvider
}

// NewSQLiteProvider opens (creating if needed) the database file named by the "path" detail
func NewSQLiteProvider(config DbProviderConfig, logger *zap.Logger, meter metric.Meter) (*SQLiteProvider, error) {
	liteLogger := logger.Named("sqlite")

	path, ok := config.stringDetail("path")
	if !ok {
		return nil, fmt.Errorf("path is required for SQLite provider")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite registers the "sqlite" driver name
	dbConn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	dbConn.SetMaxOpenConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", defaultSQLiteBusyTimeoutMS),
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := dbConn.Exec(pragma); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := dbConn.Exec(db.SQLiteSchema); err != nil {
		liteLogger.Error("failed to create initial tables", zap.Error(err))
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}

	liteLogger.Info("SQLite provider initialized", zap.String("path", path))
	return &SQLiteProvider{
		sqlProvider: &sqlProvider{
			db:       dbConn,
			queries:  db.NewQueries(dbConn, db.DialectSQLite),
			backend:  DbTypeSQLite,
			logger:   liteLogger,
			metrics:  newStoreMetrics(meter),
			classify: classifySQLite,
			run:      runDirect,
			now:      time.Now,
		},
	}, nil
}

func runDirect(_ context.Context, _ string, fn func() error) error {
	return fn()
}

func classifySQLite(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrConstraintViolation, liteErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", ErrNotFound, liteErr.Error())
		}
	}
	return classifyCommon(err)
}
