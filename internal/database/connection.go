package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const defaultBusyTimeout = 5 * time.Second

// DB is an open handle together with the dialect that speaks to it.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
}

type options struct {
	busyTimeout time.Duration
}

// Option configures Open.
type Option func(*options)

// WithBusyTimeout sets how long SQLite waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// Open connects to the database named by dsn using the given driver.
// For SQLite the dsn is a file path, created if missing; for PostgreSQL it is
// a connection URL. The pool is capped at one connection so session state
// such as PRAGMA foreign_keys holds for every statement.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*DB, error) {
	o := options{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openSQL(driver, dsn)
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if driver == DriverSQLite {
		if err := configureSQLite(ctx, sqlDB, o); err != nil {
			sqlDB.Close()

			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
	}

	return &DB{SQL: sqlDB, Dialect: dialect}, nil
}

func openSQL(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty data source name", ErrInvalidDatabaseURL)
	}

	if driver == DriverPostgres {
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
		}

		return stdlib.OpenDB(*cfg), nil
	}

	sqlDB, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return sqlDB, nil
}

// Close releases the handle. It is safe on a nil DB and on repeated calls.
func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}

	err := db.SQL.Close()
	db.SQL = nil

	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	return nil
}
