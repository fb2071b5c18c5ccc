package taskstore

import "errors"

// Error taxonomy for store operations. Callers branch with errors.Is.
var (
	// ErrInvalidInput marks malformed or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a referenced task identifier that does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrStorage marks the underlying persistence being unavailable or corrupt.
	ErrStorage = errors.New("storage fault")
)
