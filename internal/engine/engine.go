// Package engine drives a database through numbered migration steps.
//
// An Engine is a session: Init opens the database, wipes it and applies step
// 0; SetStep moves forward to a later step; Status and History report what the
// ledger holds. An Engine is not safe for concurrent use.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aqasim81/stepmigrate/internal/database"
	"github.com/aqasim81/stepmigrate/internal/executor"
	"github.com/aqasim81/stepmigrate/internal/ledger"
	"github.com/aqasim81/stepmigrate/internal/migration"
)

// bootstrapStep is the step applied by Init.
const bootstrapStep = 0

// noStep is the highest applied step of an empty ledger.
const noStep = -1

// Engine holds the open database and data directory between operations.
type Engine struct {
	driver           string
	logger           *slog.Logger
	onProgress       func(executor.ProgressEvent)
	lockTimeout      time.Duration
	statementTimeout time.Duration

	db      *database.DB
	ledger  *ledger.Ledger
	exec    *executor.Executor
	dataDir string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDriver selects the database driver (database.DriverSQLite by default).
func WithDriver(driver string) Option {
	return func(e *Engine) { e.driver = driver }
}

// WithLogger sets the logger for engine notices. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgressCallback sets a function receiving per-file executor events.
func WithProgressCallback(fn func(executor.ProgressEvent)) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// WithLockTimeout bounds lock waits: busy_timeout on SQLite, lock_timeout on PostgreSQL.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

// WithStatementTimeout bounds each migration transaction's statements on PostgreSQL.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Engine) { e.statementTimeout = d }
}

// New creates an Engine. No database is opened until Init.
func New(opts ...Option) *Engine {
	e := &Engine{
		driver: database.DriverSQLite,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Init opens dsn, replacing any database already open, resets it and applies
// every file of the step 0 directory under dataDir. A missing data directory
// or step 0 directory leaves an empty, initialized database.
// Failures of individual files are reported in the result, not as the error.
func (e *Engine) Init(ctx context.Context, dsn, dataDir string) (*RunResult, error) {
	if _, err := e.Close(); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, e.driver, dsn, e.openOptions()...)
	if err != nil {
		return nil, err
	}

	e.attach(db, dataDir)

	if err := e.ledger.Reset(ctx); err != nil {
		_, closeErr := e.Close()

		return nil, errors.Join(err, closeErr)
	}

	e.logger.Info("Database reset completed")

	result := &RunResult{}

	steps, err := e.steps()
	if err != nil && !errors.Is(err, migration.ErrBaseDirNotFound) {
		_, closeErr := e.Close()

		return nil, errors.Join(err, closeErr)
	}

	for _, step := range steps {
		if step.Number != bootstrapStep {
			continue
		}

		e.logger.Info("Initializing database to step 0", "directory", step.Name)

		if err := e.applyDirectory(ctx, step, nil, result); err != nil {
			return result, err
		}

		return result, nil
	}

	e.logger.Warn("No directory with prefix '0_' found. Database initialized but empty.")

	return result, nil
}

// Open attaches to dsn without resetting it, replacing any database already
// open, and makes sure the ledger table exists. It lets a new process pick up
// a database that an earlier Init prepared.
func (e *Engine) Open(ctx context.Context, dsn, dataDir string) error {
	if _, err := e.Close(); err != nil {
		return err
	}

	db, err := database.Open(ctx, e.driver, dsn, e.openOptions()...)
	if err != nil {
		return err
	}

	e.attach(db, dataDir)

	if err := e.ledger.EnsureTable(ctx); err != nil {
		_, closeErr := e.Close()

		return errors.Join(err, closeErr)
	}

	return nil
}

// Status counts, for every step directory, how many of its files the ledger
// holds under that directory's label.
func (e *Engine) Status(ctx context.Context) (*StatusReport, error) {
	if e.db == nil {
		return nil, ErrNotInitialized
	}

	steps, err := e.requireSteps()
	if err != nil {
		return nil, err
	}

	records, err := e.ledger.ListApplied(ctx)
	if err != nil {
		return nil, err
	}

	applied := appliedIndex(records)
	report := &StatusReport{TotalApplied: len(records)}

	e.logger.Info("Applied migrations", "count", len(records))

	for _, step := range steps {
		files, err := migration.ListSQLFiles(step.Path)
		if err != nil {
			return nil, err
		}

		ds := DirectoryStatus{Name: step.Name, Step: step.Number, Total: len(files)}

		for _, f := range files {
			if applied[migration.FileName(f)] == step.Name {
				ds.Applied++
			}
		}

		e.logger.Info("Directory status", "directory", ds.Name, "applied", ds.Applied, "total", ds.Total)
		report.Directories = append(report.Directories, ds)
	}

	return report, nil
}

// SetStep applies every pending file of the step directories numbered up to
// and including target, in ascending step order. Moving below the highest
// step already present in the ledger is refused; only Init goes backward.
// Failures of individual files are reported in the result, not as the error.
func (e *Engine) SetStep(ctx context.Context, target int) (*RunResult, error) {
	if e.db == nil {
		return nil, ErrNotInitialized
	}

	steps, err := e.requireSteps()
	if err != nil {
		return nil, err
	}

	if !hasStep(steps, target) {
		return nil, fmt.Errorf("%w: %d, available steps: %v", ErrUnknownStep, target, stepNumbers(steps))
	}

	records, err := e.ledger.ListApplied(ctx)
	if err != nil {
		return nil, err
	}

	if highest := highestAppliedStep(records); target < highest {
		return nil, fmt.Errorf("%w: step %d requested but migrations for step %d are already applied, run init to reset the database",
			ErrBackwardStep, target, highest)
	}

	applied := appliedIndex(records)
	result := &RunResult{}

	for _, step := range steps {
		if step.Number > target {
			break
		}

		e.logger.Info("Processing directory", "directory", step.Name)

		if err := e.applyDirectory(ctx, step, applied, result); err != nil {
			return result, err
		}

		if step.Number == target {
			break
		}
	}

	return result, nil
}

// History returns the ledger rows, oldest first.
func (e *Engine) History(ctx context.Context) ([]ledger.Record, error) {
	if e.db == nil {
		return nil, ErrNotInitialized
	}

	return e.ledger.ListApplied(ctx)
}

// Close releases the database. It reports whether one was open.
func (e *Engine) Close() (bool, error) {
	if e.db == nil {
		return false, nil
	}

	err := e.db.Close()
	e.db, e.ledger, e.exec = nil, nil, nil

	return true, err
}

func (e *Engine) openOptions() []database.Option {
	var opts []database.Option
	if e.lockTimeout > 0 {
		opts = append(opts, database.WithBusyTimeout(e.lockTimeout))
	}

	return opts
}

func (e *Engine) attach(db *database.DB, dataDir string) {
	e.db = db
	e.dataDir = dataDir
	e.ledger = ledger.New(db)
	e.exec = executor.New(db, e.ledger,
		executor.WithLockTimeout(e.lockTimeout),
		executor.WithStatementTimeout(e.statementTimeout),
		executor.WithProgressCallback(e.onProgress),
	)
}

func (e *Engine) steps() ([]migration.StepDirectory, error) {
	steps, err := migration.ListStepDirectories(e.dataDir)
	if errors.Is(err, migration.ErrBaseDirNotFound) {
		e.logger.Warn("Data directory not found", "data_dir", e.dataDir)
	}

	return steps, err
}

// requireSteps fails with ErrNoStepDirectories when nothing is there to migrate.
func (e *Engine) requireSteps() ([]migration.StepDirectory, error) {
	steps, err := e.steps()
	if err != nil && !errors.Is(err, migration.ErrBaseDirNotFound) {
		return nil, err
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("%w in '%s'", ErrNoStepDirectories, e.dataDir)
	}

	return steps, nil
}

// applyDirectory runs the directory's files in order. applied maps recorded
// filenames to their labels; a file recorded under this directory's label is
// skipped. A nil map applies every file.
func (e *Engine) applyDirectory(ctx context.Context, step migration.StepDirectory, applied map[string]string, result *RunResult) error {
	files, err := migration.ListSQLFiles(step.Path)
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := migration.FileName(path)
		if label, ok := applied[name]; ok && label == step.Name {
			e.logger.Debug("Skipping already applied file", "file", name, "directory", step.Name)
			result.Skipped = append(result.Skipped, SkippedFile{File: path, Directory: step.Name})

			continue
		}

		result.add(e.exec.Apply(ctx, path, step.Name))
	}

	return nil
}

func appliedIndex(records []ledger.Record) map[string]string {
	idx := make(map[string]string, len(records))
	for _, r := range records {
		idx[r.Filename] = r.Directory
	}

	return idx
}

// highestAppliedStep parses the step number out of every recorded label.
func highestAppliedStep(records []ledger.Record) int {
	highest := noStep

	for _, r := range records {
		if n, ok := migration.ParseStepNumber(r.Directory); ok && n > highest {
			highest = n
		}
	}

	return highest
}

func hasStep(steps []migration.StepDirectory, n int) bool {
	for _, s := range steps {
		if s.Number == n {
			return true
		}
	}

	return false
}

func stepNumbers(steps []migration.StepDirectory) []int {
	nums := make([]int, len(steps))
	for i, s := range steps {
		nums[i] = s.Number
	}

	return nums
}
