package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// stepPattern matches step directory names such as 0_init or 12_seed_users.
var stepPattern = regexp.MustCompile(`^(\d+)_`) //nolint:gochecknoglobals // compiled once

// ParseStepNumber extracts N from a "<N>_..." name. ok is false when the name
// does not follow the pattern or N does not fit in an int.
func ParseStepNumber(name string) (n int, ok bool) {
	m := stepPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return n, true
}

// ListStepDirectories returns the immediate subdirectories of base whose names
// start with "<digits>_", sorted by step number. Entries that do not match are
// ignored. A missing base yields an empty result and ErrBaseDirNotFound.
func ListStepDirectories(base string) ([]StepDirectory, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBaseDirNotFound, base)
		}

		return nil, fmt.Errorf("reading data directory %s: %w", base, err)
	}

	var steps []StepDirectory

	for _, entry := range entries {
		n, ok := ParseStepNumber(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(base, entry.Name())
		if !isDir(entry, path) {
			continue
		}

		steps = append(steps, StepDirectory{Number: n, Name: entry.Name(), Path: path})
	}

	return SortSteps(steps), nil
}

// ListSQLFiles returns every *.sql file directly inside dir, sorted by path
// using byte order. Hidden files are skipped.
func ListSQLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading step directory %s: %w", dir, err)
	}

	var files []string

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".sql" {
			continue
		}

		path := filepath.Join(dir, name)
		if isDir(entry, path) {
			continue
		}

		files = append(files, path)
	}

	sort.Strings(files)

	return files, nil
}

// isDir follows symlinks so a linked step directory still counts.
func isDir(entry fs.DirEntry, path string) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}

	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
