package engine

import "errors"

// ErrNotInitialized indicates an operation that needs an open database was called before Init.
var ErrNotInitialized = errors.New("database not initialized, call init first")

// ErrNoStepDirectories indicates the data directory holds no "<N>_<label>" subdirectories.
var ErrNoStepDirectories = errors.New("no numbered data directories found")

// ErrUnknownStep indicates the requested step number has no directory.
var ErrUnknownStep = errors.New("step not found")

// ErrBackwardStep indicates a request to move below the highest applied step.
var ErrBackwardStep = errors.New("cannot move to an earlier step")
