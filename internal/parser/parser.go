package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"
	"unicode"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the parsed AST and original SQL.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses a PostgreSQL SQL string and returns the AST.
// Returns an empty result (zero statements) for empty or whitespace-only input.
func Parse(sql string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{
		Stmts: tree.Stmts,
		SQL:   sql,
	}, nil
}

// IsInsert reports whether sql is a single PostgreSQL INSERT statement,
// including INSERT ... ON CONFLICT and WITH ... INSERT forms.
func IsInsert(sql string) (bool, error) {
	result, err := Parse(sql)
	if err != nil {
		return false, err
	}

	if len(result.Stmts) != 1 {
		return false, nil
	}

	_, ok := result.Stmts[0].Stmt.GetNode().(*pg_query.Node_InsertStmt)

	return ok, nil
}

// LeadingKeyword returns the first SQL keyword of stmt in upper case, skipping
// whitespace and comments. It returns "" when stmt holds no keyword.
func LeadingKeyword(stmt string) string {
	s := skipTrivia(stmt)

	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}

	return strings.ToUpper(s[:end])
}

// MainKeyword returns the keyword of the statement's main clause in upper
// case. It equals LeadingKeyword except for WITH statements, where it is the
// keyword following the last common table expression.
func MainKeyword(stmt string) string {
	s := skipTrivia(stmt)

	word, rest := nextWord(s)
	if word != "WITH" {
		return LeadingKeyword(stmt)
	}

	depth := 0
	sawAs, inBody, afterBody := false, false, false

	for s = skipTrivia(rest); s != ""; s = skipTrivia(s) {
		switch c := s[0]; {
		case c == '\'' || c == '"' || c == '`':
			s = skipQuoted(s)
		case c == '(':
			if depth == 0 && sawAs {
				inBody = true
			}

			depth++
			s = s[1:]
		case c == ')':
			depth--
			s = s[1:]

			if depth == 0 && inBody {
				inBody, sawAs, afterBody = false, false, true
			}
		case depth > 0:
			s = s[1:]
		case c == ',':
			afterBody = false
			s = s[1:]
		default:
			w, r := nextWord(s)
			if w == "" {
				s = s[1:]

				continue
			}

			if afterBody {
				return w
			}

			if w == "AS" {
				sawAs = true
			}

			s = r
		}
	}

	return ""
}

// nextWord splits a leading identifier or keyword, upper-cased, from s.
func nextWord(s string) (string, string) {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}

	return strings.ToUpper(s[:end]), s[end:]
}

// skipQuoted drops a quoted literal or identifier, including doubled quotes.
func skipQuoted(s string) string {
	q := s[0]

	for i := 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}

		if i+1 < len(s) && s[i+1] == q {
			i++

			continue
		}

		return s[i+1:]
	}

	return ""
}

// skipTrivia drops leading whitespace, "--" line comments and "/* */" block comments.
func skipTrivia(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)

		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}

			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s[2:], "*/")
			if end < 0 {
				return ""
			}

			s = s[end+4:]
		default:
			return s
		}
	}
}
