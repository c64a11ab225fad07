package migration

import "errors"

// ErrBaseDirNotFound indicates the data directory holding the step directories does not exist.
var ErrBaseDirNotFound = errors.New("base directory not found")
