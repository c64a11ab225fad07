package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/stepmigrate/internal/database"
	"github.com/aqasim81/stepmigrate/internal/executor"
	"github.com/aqasim81/stepmigrate/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_json(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)
	logger.Debug("hidden")
	logger.Info("Database reset completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "Database reset completed", entry["msg"])
}

func TestNew_text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(&buf, slog.LevelWarn, logging.FormatText)
	logger.Info("hidden")
	logger.Warn("careful")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=careful")
}

func TestProgressLogger_levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := logging.ProgressLogger(logging.New(&buf, slog.LevelDebug, logging.FormatJSON))

	log(executor.ProgressEvent{File: "a.sql", Directory: "0_init", Status: executor.StatusStarting})
	log(executor.ProgressEvent{
		File:      "a.sql",
		Directory: "0_init",
		Status:    executor.StatusTolerated,
		Statement: "CREATE TABLE t (id INT)",
		Kind:      database.KindObjectExists,
		Error:     errors.New("table t already exists"),
	})
	log(executor.ProgressEvent{File: "a.sql", Directory: "0_init", Status: executor.StatusCompleted})
	log(executor.ProgressEvent{File: "b.sql", Directory: "0_init", Status: executor.StatusFailed, Error: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	wantLevels := []string{"DEBUG", "WARN", "INFO", "ERROR"}

	for i, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, wantLevels[i], entry["level"])
		assert.Equal(t, "0_init", entry["directory"])
	}

	var tolerated map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &tolerated))
	assert.Equal(t, "object_exists", tolerated["kind"])
	assert.Equal(t, "table t already exists", tolerated["error"])

	var failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &failed))
	assert.Equal(t, "b.sql", failed["file"])
	assert.Equal(t, "boom", failed["error"])
}
