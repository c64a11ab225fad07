package ledger

import "errors"

// ErrTableCreation indicates the migration_history table could not be created.
var ErrTableCreation = errors.New("creating migration_history table")

// ErrDuplicateMigration indicates a filename is already present in the ledger.
var ErrDuplicateMigration = errors.New("migration already recorded")

// ErrResetFailed indicates the database could not be wiped back to an empty ledger.
var ErrResetFailed = errors.New("resetting database")
