package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("repository: conflict")
)

// ConflictError carries the field responsible for a uniqueness violation
// when it can be determined from the constraint name.
type ConflictError struct {
	Field string
}

// Error implements error.
func (e *ConflictError) Error() string {
	if e == nil || e.Field == "" {
		return "repository: conflict"
	}
	return fmt.Sprintf("repository: conflict on %s", e.Field)
}

// Is makes ConflictError match errors.Is(err, ErrConflict).
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
