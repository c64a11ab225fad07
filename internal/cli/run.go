package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/stepmigrate/internal/config"
	"github.com/aqasim81/stepmigrate/internal/engine"
)

// errFilesFailed is returned when at least one migration file was rolled back.
var errFilesFailed = errors.New("one or more migration files failed")

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// openEngine attaches to the configured database without resetting it.
func openEngine(ctx context.Context) (*engine.Engine, error) {
	appLogger().Debug("Connecting", "driver", AppConfig.Driver, "database", config.RedactURL(AppConfig.Database))

	e := newEngine()
	if err := e.Open(ctx, AppConfig.Database, AppConfig.DataDir); err != nil {
		return nil, err
	}

	return e, nil
}

// closeEngine releases the engine, keeping the first error.
func closeEngine(e *engine.Engine, err *error) {
	if _, closeErr := e.Close(); closeErr != nil && *err == nil {
		*err = closeErr
	}
}

// printRunResult writes a one-line summary plus one line per failed file.
func printRunResult(out io.Writer, verb string, r *engine.RunResult) error {
	var total time.Duration
	for _, o := range r.Applied {
		total += o.Duration
	}

	fmt.Fprintf(out, "%s complete: %d applied, %d skipped, %d failed (%s).\n",
		verb, len(r.Applied), len(r.Skipped), len(r.Failed), total.Truncate(time.Millisecond))

	for _, o := range r.Failed {
		fmt.Fprintf(out, "  FAILED %s: %v\n", o.File, o.Err)
	}

	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %w", errFilesFailed, err)
	}

	return nil
}
