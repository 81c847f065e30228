package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means edit or delete matched zero rows for the given id.
	ErrNotFound = errors.New("no device matches the given id")

	// ErrUnauthorized means a non-admin session invoked a mutating
	// operation. It is returned before any file I/O is attempted.
	ErrUnauthorized = errors.New("operation requires the admin role")

	// ErrInvalid marks a rejected input value, such as an unknown status.
	ErrInvalid = errors.New("invalid value")
)

// ImportError wraps the underlying cause of a failed import: malformed
// structure, unsupported format, or an unreadable encoding. The stored
// table is untouched when an ImportError is returned.
type ImportError struct {
	Cause error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed: %v", e.Cause)
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

func importErrorf(format string, args ...any) error {
	return &ImportError{Cause: fmt.Errorf(format, args...)}
}
