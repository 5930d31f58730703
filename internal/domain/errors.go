package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input the core refuses to store.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to a page or block that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a failure reported by a persistence backend.
	ErrPersistence = errors.New("persistence failed")
)

// ValidationError names the rejected field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %v", e.Err)
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Err} }

// PersistenceError records which backend call failed for which block.
type PersistenceError struct {
	Op      string
	BlockID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.BlockID, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// NotFound wraps ErrNotFound with the kind and id that were missing.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
