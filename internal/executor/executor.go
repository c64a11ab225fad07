// Package executor applies one SQL migration file inside a single transaction,
// tolerating the failures that make re-running a file harmless.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aqasim81/stepmigrate/internal/database"
	"github.com/aqasim81/stepmigrate/internal/migration"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusTolerated = "tolerated"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressEvent is emitted by the executor while a file is processed.
type ProgressEvent struct {
	File      string // path of the SQL file
	Directory string // step directory label
	Status    string
	Statement string             // set for StatusTolerated
	Kind      database.ErrorKind // set for StatusTolerated
	Duration  time.Duration
	Error     error
}

// Tolerated describes a statement whose failure was accepted as benign.
type Tolerated struct {
	Statement string
	Kind      database.ErrorKind
	Err       error
}

// Outcome is the structured result of applying one file.
type Outcome struct {
	File       string
	Directory  string
	Statements int
	Tolerated  []Tolerated
	Duration   time.Duration
	Err        error
}

// Succeeded reports whether the file was committed and recorded.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// MigrationLedger abstracts ledger writes for testability.
type MigrationLedger interface {
	Record(ctx context.Context, exec database.Execer, filename, directory string) error
}

// Executor applies migration files against one database.
type Executor struct {
	db         *database.DB
	ledger     MigrationLedger
	settings   database.TxSettings
	onProgress func(ProgressEvent)
	readFile   func(string) ([]byte, error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithLockTimeout sets the per-transaction lock_timeout where the dialect supports it.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Executor) { e.settings.LockTimeout = d }
}

// WithStatementTimeout sets the per-transaction statement_timeout where the dialect supports it.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.settings.StatementTimeout = d }
}

// WithProgressCallback sets a function called as each file is processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// New creates an Executor with the given database, ledger, and options.
func New(db *database.DB, l MigrationLedger, opts ...Option) *Executor {
	e := &Executor{
		db:     db,
		ledger: l,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.readFile == nil {
		e.readFile = os.ReadFile
	}

	return e
}

// Apply runs every statement of the file at path in one transaction and
// records the file under directory. Statements failing with a tolerated
// error kind are skipped; any other failure rolls the whole file back and
// leaves the ledger untouched.
func (e *Executor) Apply(ctx context.Context, path, directory string) Outcome {
	out := Outcome{File: path, Directory: directory}

	e.fireProgress(ProgressEvent{File: path, Directory: directory, Status: StatusStarting})

	start := time.Now()
	err := e.apply(ctx, &out)
	out.Duration = time.Since(start)

	if err != nil {
		out.Err = fmt.Errorf("%w: %s: %w", ErrExecutionFailed, path, err)

		e.fireProgress(ProgressEvent{
			File:      path,
			Directory: directory,
			Status:    StatusFailed,
			Duration:  out.Duration,
			Error:     out.Err,
		})

		return out
	}

	e.fireProgress(ProgressEvent{
		File:      path,
		Directory: directory,
		Status:    StatusCompleted,
		Duration:  out.Duration,
	})

	return out
}

func (e *Executor) apply(ctx context.Context, out *Outcome) error {
	content, err := e.readFile(out.File)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	stmts := migration.SplitStatements(string(content))
	out.Statements = len(stmts)

	return ExecInTransaction(ctx, e.db.SQL, func(tx *sql.Tx) error {
		if err := e.db.Dialect.ConfigureTx(ctx, tx, e.settings); err != nil {
			return err
		}

		for i, stmt := range stmts {
			if err := e.execStatement(ctx, tx, stmt, out); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}

		return e.ledger.Record(ctx, tx, migration.FileName(out.File), out.Directory)
	})
}

// execStatement runs one statement and swallows the failure only when the
// policy table says so.
func (e *Executor) execStatement(ctx context.Context, tx *sql.Tx, stmt string, out *Outcome) error {
	execErr := ExecWithSavepoint(ctx, tx, stmt)
	if execErr == nil {
		return nil
	}

	if errors.Is(execErr, ErrSavepointLost) {
		return execErr
	}

	kind := e.db.Dialect.Classify(execErr)
	if Decide(kind, e.db.Dialect.IsInsert(stmt)) != Tolerate {
		return execErr
	}

	out.Tolerated = append(out.Tolerated, Tolerated{Statement: stmt, Kind: kind, Err: execErr})

	e.fireProgress(ProgressEvent{
		File:      out.File,
		Directory: out.Directory,
		Status:    StatusTolerated,
		Statement: stmt,
		Kind:      kind,
		Error:     execErr,
	})

	return nil
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}
