package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/todod/internal/apperr"
	"github.com/starford/todod/internal/models"
)

// Memory implements Provider with an insertion-ordered map guarded by a RWMutex.
// Records are copied on the way in and out.
type Memory struct {
	mu    sync.RWMutex
	todos *orderedmap.OrderedMap[uuid.UUID, models.CreatedTodo]
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{todos: orderedmap.New[uuid.UUID, models.CreatedTodo]()}
}

// All returns a snapshot of every record in insertion order.
func (m *Memory) All(_ context.Context) ([]models.CreatedTodo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.CreatedTodo, 0, m.todos.Len())
	for pair := m.todos.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Clone())
	}
	return out, nil
}

// Insert stores a copy of t without its derived URL.
func (m *Memory) Insert(_ context.Context, t models.CreatedTodo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.todos.Get(t.ID); ok {
		return apperr.ErrDuplicateKey
	}
	t = t.Clone()
	t.URL = ""
	m.todos.Set(t.ID, t)
	return nil
}

// Find returns a copy of the record with the given id.
func (m *Memory) Find(_ context.Context, id uuid.UUID) (*models.CreatedTodo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.todos.Get(id)
	if !ok {
		return nil, nil
	}
	c := t.Clone()
	return &c, nil
}

// UpdateFields merges fields onto the stored record in place.
func (m *Memory) UpdateFields(_ context.Context, id uuid.UUID, fields models.Fields) error {
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pair := m.todos.GetPair(id)
	if pair == nil {
		return nil
	}
	fields.ApplyTo(&pair.Value)
	return nil
}

// Remove deletes the record with the given id, if present.
func (m *Memory) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.todos.Delete(id)
	return nil
}

// Clear removes all records.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.todos = orderedmap.New[uuid.UUID, models.CreatedTodo]()
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
