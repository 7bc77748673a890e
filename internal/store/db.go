// Package store provides the SQL side of the pipeline: the catalogue pager,
// the destination sinks and the embedded destination migrations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/law-makers/dutyscrape/internal/retry"
)

// Supported database/sql driver names
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// KeyColumn is the primary key of every destination table
const KeyColumn = "hsn_code"

// Options configures a store connection
type Options struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Retry           retry.Config
}

// DB wraps a sqlx handle together with the driver it was opened with
type DB struct {
	*sqlx.DB
	driver string
}

// ValidDriver reports whether name is a supported driver
func ValidDriver(name string) bool {
	switch name {
	case DriverPgx, DriverPostgres, DriverSQLite:
		return true
	}
	return false
}

// Open connects to the store and verifies connectivity with bounded retries
func Open(ctx context.Context, opts Options) (*DB, error) {
	if !ValidDriver(opts.Driver) {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	sqlDB, err := sql.Open(opts.Driver, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	err = retry.WithRetry(ctx, opts.Retry, "database ping", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("driver", opts.Driver).Msg("Database connection ready")

	return &DB{DB: sqlx.NewDb(sqlDB, opts.Driver), driver: opts.Driver}, nil
}

// Wrap adopts an already opened *sql.DB
func Wrap(sqlDB *sql.DB, driver string) *DB {
	return &DB{DB: sqlx.NewDb(sqlDB, driver), driver: driver}
}

// Driver returns the driver name the handle was opened with
func (db *DB) Driver() string {
	return db.driver
}

// quote renders a table or column name as a quoted SQL identifier.
// Both Postgres and SQLite accept double-quoted identifiers.
func quote(name string) string {
	return pq.QuoteIdentifier(name)
}
