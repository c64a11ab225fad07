package executor

import "errors"

// ErrExecutionFailed indicates a migration file failed to apply and was rolled back.
var ErrExecutionFailed = errors.New("migration execution failed")

// ErrSavepointLost indicates a failed statement could not be undone, so the
// transaction state is unknown and the file must abort.
var ErrSavepointLost = errors.New("statement savepoint lost")
