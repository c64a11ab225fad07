package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/stepmigrate/internal/config"
	"github.com/aqasim81/stepmigrate/internal/engine"
)

// useTempProject points AppConfig at a fresh SQLite file and data directory.
func useTempProject(t *testing.T, files map[string]string) {
	t.Helper()

	oldCfg, oldLogger := AppConfig, AppLogger
	t.Cleanup(func() { AppConfig, AppLogger = oldCfg, oldLogger })

	root := t.TempDir()
	data := filepath.Join(root, "data")

	for rel, content := range files {
		path := filepath.Join(data, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.New()
	cfg.Database = filepath.Join(root, "database.db")
	cfg.DataDir = data

	AppConfig = cfg
	AppLogger = nil
}

func newOutputCmd(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.Flags().String("format", "", "")

	return cmd
}

func projectFiles() map[string]string {
	return map[string]string{
		"0_init/001_users.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
		"1_seed/001_seed.sql":  "INSERT INTO users (id, name) VALUES (1, 'ada');",
		"1_seed/002_more.sql":  "INSERT INTO users (id, name) VALUES (2, 'grace');",
	}
}

func TestCommands_initStepStatusHistory(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, projectFiles())

	buf := new(bytes.Buffer)
	require.NoError(t, runInit(newOutputCmd(buf), nil))
	assert.Contains(t, buf.String(), "Init complete: 1 applied, 0 skipped, 0 failed")

	buf.Reset()
	require.NoError(t, runStep(newOutputCmd(buf), []string{"1"}))
	assert.Contains(t, buf.String(), "Step 1 complete: 2 applied, 1 skipped, 0 failed")

	buf.Reset()
	cmd := newOutputCmd(buf)
	require.NoError(t, cmd.Flags().Set("format", "json"))
	require.NoError(t, runStatus(cmd, nil))

	var report struct {
		TotalApplied int `json:"total_applied"`
		Directories  map[string]struct {
			Applied int `json:"applied"`
			Total   int `json:"total"`
		} `json:"directories"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 3, report.TotalApplied)
	assert.Equal(t, 2, report.Directories["1_seed"].Applied)
	assert.Equal(t, 1, report.Directories["0_init"].Total)

	buf.Reset()
	require.NoError(t, runHistory(newOutputCmd(buf), nil))
	out := buf.String()
	assert.Contains(t, out, "FILENAME")
	assert.Contains(t, out, "001_users.sql")
	assert.Contains(t, out, "002_more.sql")
}

func TestRunStep_backward_returnsError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, projectFiles())

	buf := new(bytes.Buffer)
	require.NoError(t, runInit(newOutputCmd(buf), nil))
	require.NoError(t, runStep(newOutputCmd(buf), []string{"1"}))

	err := runStep(newOutputCmd(buf), []string{"0"})
	require.ErrorIs(t, err, engine.ErrBackwardStep)
}

func TestRunStep_invalidArgument(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, projectFiles())

	err := runStep(newOutputCmd(new(bytes.Buffer)), []string{"one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
}

func TestRunStep_unknownStep(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, projectFiles())

	err := runStep(newOutputCmd(new(bytes.Buffer)), []string{"9"})
	require.ErrorIs(t, err, engine.ErrUnknownStep)
}

func TestRunInit_failedFile_returnsError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, map[string]string{
		"0_init/001_bad.sql": "CREATE TABLE t (id INTEGER); INSERT INTO missing VALUES (1);",
	})

	buf := new(bytes.Buffer)
	err := runInit(newOutputCmd(buf), nil)

	require.ErrorIs(t, err, errFilesFailed)
	assert.Contains(t, buf.String(), "FAILED")
	assert.Contains(t, buf.String(), "001_bad.sql")
}

func TestRunStatus_noStepDirectories(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, nil)

	err := runStatus(newOutputCmd(new(bytes.Buffer)), nil)
	require.ErrorIs(t, err, engine.ErrNoStepDirectories)
}

func TestRunHistory_empty(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useTempProject(t, projectFiles())

	buf := new(bytes.Buffer)
	require.NoError(t, runHistory(newOutputCmd(buf), nil))
	assert.Contains(t, buf.String(), "No migrations applied.")
}

func TestWriteStatus_text(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	report := &engine.StatusReport{
		TotalApplied: 3,
		Directories: []engine.DirectoryStatus{
			{Name: "0_init", Step: 0, Applied: 2, Total: 2},
			{Name: "1_seed", Step: 1, Applied: 1, Total: 3},
		},
	}

	require.NoError(t, writeStatus(buf, report, "text"))

	out := buf.String()
	assert.Contains(t, out, "DIRECTORY")
	assert.Regexp(t, `1\s+1_seed\s+1\s+3`, out)
	assert.Contains(t, out, "Applied migrations: 3")
}

func TestWriteStatus_unknownFormat(t *testing.T) {
	t.Parallel()

	err := writeStatus(new(bytes.Buffer), &engine.StatusReport{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
