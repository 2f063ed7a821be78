// Package storage persists the query audit log in SQLite or Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrUnknownDialect = errors.New("unknown database driver")
)

// Dialect names a supported database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Options configures a database handle.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// JournalMode applies to SQLite only.
	JournalMode string
}

// Open connects, verifies the connection and applies migrations.
func Open(ctx context.Context, opts Options) (*sql.DB, Dialect, error) {
	dialect, driverName, err := resolveDriver(opts.Driver)
	if err != nil {
		return nil, "", err
	}
	if opts.DSN == "" {
		return nil, "", fmt.Errorf("empty %s dsn", dialect)
	}

	db, err := sql.Open(driverName, opts.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	maxOpen := opts.MaxOpenConns
	if dialect == DialectSQLite && maxOpen <= 0 {
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	if dialect == DialectSQLite && opts.JournalMode != "" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode="+strings.ToUpper(opts.JournalMode)); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("set journal mode: %w", err)
		}
	}

	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, dialect, nil
}

func resolveDriver(driver string) (Dialect, string, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return DialectSQLite, "sqlite3", nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, "postgres", nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownDialect, driver)
}

var migrations = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS query_log (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL,
			intent TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			field TEXT NOT NULL DEFAULT '',
			match_condition TEXT NOT NULL DEFAULT '',
			value TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			result_count INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			catalog_version TEXT NOT NULL DEFAULT '',
			cached BOOLEAN NOT NULL DEFAULT 0,
			occurred_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_log_occurred_at ON query_log (occurred_at)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS query_log (
			id UUID PRIMARY KEY,
			request_id TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL,
			intent TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			field TEXT NOT NULL DEFAULT '',
			match_condition TEXT NOT NULL DEFAULT '',
			value TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			result_count INTEGER NOT NULL DEFAULT 0,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			catalog_version TEXT NOT NULL DEFAULT '',
			cached BOOLEAN NOT NULL DEFAULT FALSE,
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_log_occurred_at ON query_log (occurred_at)`,
	},
}

// Migrate creates the audit schema if it does not exist.
func Migrate(ctx context.Context, db DB, dialect Dialect) error {
	stmts, ok := migrations[dialect]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", dialect, err)
		}
	}
	return nil
}
