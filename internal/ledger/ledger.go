// Package ledger persists which migration files have been applied.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/aqasim81/stepmigrate/internal/database"
)

// Record is one row of the migration_history table.
type Record struct {
	ID        int64
	Filename  string
	Directory string // step directory label the file was applied from
	AppliedAt time.Time
}

// Ledger manages the migration_history table.
type Ledger struct {
	db *database.DB
}

// New creates a Ledger backed by the given database.
func New(db *database.DB) *Ledger {
	return &Ledger{db: db}
}

// EnsureTable creates the migration_history table if it does not exist.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	if _, err := l.db.SQL.ExecContext(ctx, l.db.Dialect.LedgerDDL(TableName)); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// ListApplied returns every recorded migration, oldest first.
func (l *Ledger) ListApplied(ctx context.Context) ([]Record, error) {
	rows, err := l.db.SQL.QueryContext(ctx, listAppliedSQL)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			r  Record
			ts timestamp
		)

		if err := rows.Scan(&r.ID, &r.Filename, &r.Directory, &ts); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}

		r.AppliedAt = ts.Time
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning applied migrations: %w", err)
	}

	return records, nil
}

// Record inserts one row for filename. exec is normally the transaction that
// ran the file's statements; nil means the database handle itself.
// A filename that is already recorded fails with ErrDuplicateMigration.
func (l *Ledger) Record(ctx context.Context, exec database.Execer, filename, directory string) error {
	if exec == nil {
		exec = l.db.SQL
	}

	d := l.db.Dialect
	query := insertPrefix + d.Placeholder(1) + ", " + d.Placeholder(2) + ")"

	if _, err := exec.ExecContext(ctx, query, filename, directory); err != nil {
		if d.Classify(err) == database.KindUniqueViolation {
			return fmt.Errorf("recording %s from %s: %w: %w", filename, directory, ErrDuplicateMigration, err)
		}

		return fmt.Errorf("recording %s from %s: %w", filename, directory, err)
	}

	return nil
}

// Reset drops every user table and view, the ledger included, then recreates
// an empty ledger.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.db.Dialect.DropUserObjects(ctx, l.db.SQL); err != nil {
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	return l.EnsureTable(ctx)
}
