package executor

import "github.com/aqasim81/stepmigrate/internal/database"

// Policy is the applier's reaction to a failed statement.
type Policy int

const (
	// Abort rolls back the whole file.
	Abort Policy = iota
	// Tolerate logs the failure and moves on to the next statement.
	Tolerate
)

func (p Policy) String() string {
	if p == Tolerate {
		return "tolerate"
	}

	return "abort"
}

// tolerance maps each error kind to its policy. Kinds absent from the table abort.
var tolerance = map[database.ErrorKind]Policy{ //nolint:gochecknoglobals // fixed policy table
	database.KindObjectExists:    Tolerate,
	database.KindUniqueViolation: Tolerate,
}

// insertOnly marks kinds that are tolerated only on data-insertion statements,
// so re-seeding is idempotent while a clashing UPDATE still aborts.
var insertOnly = map[database.ErrorKind]bool{ //nolint:gochecknoglobals // fixed policy table
	database.KindUniqueViolation: true,
}

// Decide returns the policy for a statement that failed with kind.
func Decide(kind database.ErrorKind, isInsert bool) Policy {
	p, ok := tolerance[kind]
	if !ok {
		return Abort
	}

	if insertOnly[kind] && !isInsert {
		return Abort
	}

	return p
}
