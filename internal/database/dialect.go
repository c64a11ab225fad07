package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrorKind is the engine-independent category of a statement failure.
type ErrorKind int

const (
	// KindOther covers every failure that has no dedicated category.
	KindOther ErrorKind = iota
	// KindObjectExists means the statement tried to create an object that is already there.
	KindObjectExists
	// KindUniqueViolation means a row clashed with a unique or primary key.
	KindUniqueViolation
)

func (k ErrorKind) String() string {
	switch k {
	case KindObjectExists:
		return "object_exists"
	case KindUniqueViolation:
		return "unique_violation"
	default:
		return "other"
	}
}

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Object is a user-created schema object that a reset removes.
type Object struct {
	Name string
	View bool
}

// TxSettings holds per-transaction limits. Zero values mean "leave unchanged".
type TxSettings struct {
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// Dialect captures everything that differs between the supported databases.
type Dialect interface {
	// Name returns the driver name the dialect was registered under.
	Name() string

	// Placeholder returns the bind parameter marker for the n-th argument (1-based).
	Placeholder(n int) string

	// QuoteIdent quotes an identifier for use in generated SQL.
	QuoteIdent(name string) string

	// LedgerDDL returns the CREATE TABLE IF NOT EXISTS statement for the ledger table.
	LedgerDDL(table string) string

	// DropUserObjects removes every user table and view, leaving internal ones intact.
	DropUserObjects(ctx context.Context, db *sql.DB) error

	// ConfigureTx applies per-transaction settings right after BEGIN.
	ConfigureTx(ctx context.Context, tx Execer, s TxSettings) error

	// Classify maps a driver error onto an ErrorKind.
	Classify(err error) ErrorKind

	// IsInsert reports whether stmt is a data-insertion statement.
	IsInsert(stmt string) bool
}

// DialectFor returns the dialect registered for driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// dropObjects issues one DROP per object, views first so no table drop trips over them.
func dropObjects(ctx context.Context, exec Execer, d Dialect, objects []Object, suffix string) error {
	for _, pass := range []bool{true, false} {
		for _, o := range objects {
			if o.View != pass {
				continue
			}

			kind := "TABLE"
			if o.View {
				kind = "VIEW"
			}

			stmt := fmt.Sprintf("DROP %s IF EXISTS %s%s", kind, d.QuoteIdent(o.Name), suffix)
			if _, err := exec.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("dropping %s %s: %w", kind, o.Name, err)
			}
		}
	}

	return nil
}

func scanObjects(ctx context.Context, q Querier, query string) ([]Object, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing user objects: %w", err)
	}
	defer rows.Close()

	var objects []Object

	for rows.Next() {
		var (
			name string
			typ  string
		)

		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("scanning user object: %w", err)
		}

		objects = append(objects, Object{Name: name, View: typ == "view" || typ == "VIEW"})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing user objects: %w", err)
	}

	return objects, nil
}
