package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aqasim81/stepmigrate/internal/parser"
)

const sqliteUserObjectsSQL = `SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
ORDER BY name`

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DriverSQLite }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) LedgerDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT UNIQUE NOT NULL,
    dir_prefix TEXT NOT NULL,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`
}

// DropUserObjects runs on one pinned connection because PRAGMA foreign_keys
// is per connection and a no-op inside a transaction.
func (d sqliteDialect) DropUserObjects(ctx context.Context, db *sql.DB) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for reset: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}

	defer func() {
		if _, fkErr := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = fmt.Errorf("re-enabling foreign keys: %w", fkErr)
		}
	}()

	objects, err := scanObjects(ctx, conn, sqliteUserObjectsSQL)
	if err != nil {
		return err
	}

	return dropObjects(ctx, conn, d, objects, "")
}

func (sqliteDialect) ConfigureTx(context.Context, Execer, TxSettings) error { return nil }

// Classify uses the extended result code. SQLite has no dedicated code for
// "already exists", so only under the generic SQLITE_ERROR code is the message consulted.
func (sqliteDialect) Classify(err error) ErrorKind {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return KindOther
	}

	msg := sqliteErr.Error()

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return KindUniqueViolation
	case sqlite3.SQLITE_CONSTRAINT:
		// connections without extended result codes report the primary code only
		if strings.Contains(msg, "UNIQUE constraint failed") {
			return KindUniqueViolation
		}
	case sqlite3.SQLITE_ERROR:
		if strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name") {
			return KindObjectExists
		}
	}

	return KindOther
}

func (sqliteDialect) IsInsert(stmt string) bool {
	switch parser.MainKeyword(stmt) {
	case "INSERT", "REPLACE":
		return true
	default:
		return false
	}
}

func configureSQLite(ctx context.Context, db *sql.DB, o options) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = " + strconv.FormatInt(o.busyTimeout.Milliseconds(), 10),
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}

	return nil
}
