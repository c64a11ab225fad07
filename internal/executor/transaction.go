package executor

import (
	"context"
	"database/sql"
	"fmt"
)

// statementSavepoint wraps every statement so a tolerated failure can be undone
// without poisoning the surrounding transaction.
const statementSavepoint = "stepmigrate_stmt"

// ExecInTransaction runs fn inside a database transaction.
// On success the transaction is committed; on error it is rolled back.
func ExecInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // rollback on committed tx returns ErrTxDone

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ExecWithSavepoint executes stmt between SAVEPOINT and RELEASE. When stmt
// fails the savepoint is rolled back and the statement's error is returned;
// if the savepoint cannot be undone the error wraps ErrSavepointLost instead.
func ExecWithSavepoint(ctx context.Context, tx *sql.Tx, stmt string) error {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+statementSavepoint); err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}

	if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+statementSavepoint); err != nil {
			return fmt.Errorf("%w: %v: rolling back to savepoint: %w", ErrSavepointLost, execErr, err) //nolint:errorlint // execErr must not classify
		}

		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+statementSavepoint); err != nil {
			return fmt.Errorf("%w: %v: releasing savepoint: %w", ErrSavepointLost, execErr, err) //nolint:errorlint // execErr must not classify
		}

		return execErr
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+statementSavepoint); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}

	return nil
}
