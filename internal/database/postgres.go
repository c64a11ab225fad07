package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aqasim81/stepmigrate/internal/parser"
)

// SQLSTATE codes the classifier recognizes.
const (
	pgDuplicateTable    = "42P07"
	pgDuplicateObject   = "42710"
	pgDuplicateSchema   = "42P06"
	pgDuplicateColumn   = "42701"
	pgDuplicateFunction = "42723"
	pgDuplicateAlias    = "42712"
	pgUniqueViolation   = "23505"
)

const postgresUserObjectsSQL = `SELECT table_name,
       CASE table_type WHEN 'VIEW' THEN 'view' ELSE 'table' END
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type IN ('BASE TABLE', 'VIEW')
ORDER BY table_name`

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (postgresDialect) LedgerDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    id BIGSERIAL PRIMARY KEY,
    filename TEXT UNIQUE NOT NULL,
    dir_prefix TEXT NOT NULL,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`
}

func (d postgresDialect) DropUserObjects(ctx context.Context, db *sql.DB) error {
	objects, err := scanObjects(ctx, db, postgresUserObjectsSQL)
	if err != nil {
		return err
	}

	return dropObjects(ctx, db, d, objects, " CASCADE")
}

// ConfigureTx uses SET LOCAL so the limits die with the transaction.
func (postgresDialect) ConfigureTx(ctx context.Context, tx Execer, s TxSettings) error {
	if s.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.LockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("setting lock_timeout: %w", err)
		}
	}

	if s.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", s.StatementTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("setting statement_timeout: %w", err)
		}
	}

	return nil
}

func (postgresDialect) Classify(err error) ErrorKind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return KindOther
	}

	switch pgErr.Code {
	case pgDuplicateTable, pgDuplicateObject, pgDuplicateSchema,
		pgDuplicateColumn, pgDuplicateFunction, pgDuplicateAlias:
		return KindObjectExists
	case pgUniqueViolation:
		return KindUniqueViolation
	default:
		return KindOther
	}
}

func (postgresDialect) IsInsert(stmt string) bool {
	insert, err := parser.IsInsert(stmt)
	if err != nil {
		return parser.MainKeyword(stmt) == "INSERT"
	}

	return insert
}
