// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a todo with the requested id does not exist.
	ErrNotFound = errors.New("todo not found")
	// ErrDuplicateKey is returned by a store when an id is inserted twice.
	ErrDuplicateKey = errors.New("duplicate key")
)
