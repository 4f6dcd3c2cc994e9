package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is reported (wrapped in a StoreError) when an update or delete
// targets a record ID that does not exist
var ErrNotFound = errors.New("record not found")

// ValidationError indicates a record failed the store's input invariants.
// No store call is made when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// StoreError wraps any failure reported by the underlying record store.
// The operation is considered not-applied; no retry is attempted.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
