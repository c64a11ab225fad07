// Package migration discovers numbered step directories and the SQL files inside them.
package migration

import (
	"path/filepath"
	"strings"
)

// StepDirectory is a directory named "<N>_<label>" holding the SQL files for step N.
type StepDirectory struct {
	Number int    // parsed leading digit run
	Name   string // base name, recorded in the ledger as the directory label
	Path   string
}

// Statement separator. The split is deliberately naive: a ';' inside a
// string literal or comment also ends a statement.
const statementDelimiter = ";"

// SplitStatements cuts content on ';' and returns the trimmed, non-empty pieces in order.
func SplitStatements(content string) []string {
	parts := strings.Split(content, statementDelimiter)
	stmts := make([]string, 0, len(parts))

	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}

	return stmts
}

// FileName returns the base name of a migration file path, the ledger's identity key.
func FileName(path string) string {
	return filepath.Base(path)
}
