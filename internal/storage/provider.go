// Package storage holds todo records, keyed by id.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/starford/todod/internal/models"
)

// Provider is the interface for todo record storage.
// Find returns (nil, nil) when no record has the given id.
// UpdateFields and Remove are no-ops for an absent id.
type Provider interface {
	// All returns every record, in insertion order.
	All(ctx context.Context) ([]models.CreatedTodo, error)
	// Insert adds one record. It fails with apperr.ErrDuplicateKey if the id is taken.
	Insert(ctx context.Context, t models.CreatedTodo) error
	// Find returns the record with the given id, if any.
	Find(ctx context.Context, id uuid.UUID) (*models.CreatedTodo, error)
	// UpdateFields applies a sparse merge of fields onto the record with the given id.
	UpdateFields(ctx context.Context, id uuid.UUID, fields models.Fields) error
	// Remove deletes the record with the given id.
	Remove(ctx context.Context, id uuid.UUID) error
	// Clear removes all records.
	Clear(ctx context.Context) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases resources held by the store.
	Close() error
}

var (
	_ Provider = (*Memory)(nil)
	_ Provider = (*SQL)(nil)
)
