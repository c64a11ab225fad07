// Package logging builds the slog logger used by the CLI and renders
// executor progress events onto it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aqasim81/stepmigrate/internal/executor"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parsing log level %q: %w", s, err)
	}

	return l, nil
}

// New returns a logger writing to w at the given level, as JSON when format
// is FormatJSON and as logfmt-style text otherwise.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// ProgressLogger returns an executor progress callback that logs each event:
// completed at Info, tolerated at Warn, failed at Error, starting at Debug.
func ProgressLogger(logger *slog.Logger) func(executor.ProgressEvent) {
	return func(ev executor.ProgressEvent) {
		ctx := context.Background()

		attrs := []slog.Attr{
			slog.String("file", ev.File),
			slog.String("directory", ev.Directory),
		}

		switch ev.Status {
		case executor.StatusStarting:
			logger.LogAttrs(ctx, slog.LevelDebug, "Applying migration", attrs...)
		case executor.StatusCompleted:
			attrs = append(attrs, slog.Duration("duration", ev.Duration))
			logger.LogAttrs(ctx, slog.LevelInfo, "Migration applied", attrs...)
		case executor.StatusTolerated:
			attrs = append(attrs,
				slog.String("kind", ev.Kind.String()),
				slog.String("statement", ev.Statement),
				slog.Any("error", ev.Error),
			)
			logger.LogAttrs(ctx, slog.LevelWarn, "Statement failure tolerated", attrs...)
		case executor.StatusFailed:
			attrs = append(attrs, slog.Duration("duration", ev.Duration), slog.Any("error", ev.Error))
			logger.LogAttrs(ctx, slog.LevelError, "Migration failed, rolled back", attrs...)
		}
	}
}
