package core

import (
	"errors"
	"strings"
)

var (
	// ErrMissingIdentifier is returned when an operation needs a record id
	// and none was given.
	ErrMissingIdentifier = errors.New("schedule id is required")

	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("schedule not found")

	// ErrCorruptCollection is returned when the stored blob is not a JSON
	// array of records.
	ErrCorruptCollection = errors.New("stored schedule collection is corrupt")
)

// ValidationError lists every rule an input violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid schedule: " + strings.Join(e.Problems, "; ")
}
