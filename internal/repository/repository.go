// Package repository is the todo façade used by the HTTP and MCP layers.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/todod/internal/models"
	"github.com/starford/todod/internal/storage"
)

// Change event kinds passed to a Notifier.
const (
	EventCreated = "todo.created"
	EventUpdated = "todo.updated"
	EventDeleted = "todo.deleted"
	EventCleared = "todos.cleared"
)

// Notifier is called after every successful write. id is empty for EventCleared.
type Notifier func(kind, id string)

// Repository wraps a storage.Provider, deriving URLs and producing Results.
type Repository struct {
	store   storage.Provider
	baseURL string
	notify  Notifier
	newID   func() uuid.UUID
}

// Option configures a Repository.
type Option func(*Repository)

// WithNotifier registers a callback for change events.
func WithNotifier(n Notifier) Option {
	return func(r *Repository) {
		if n != nil {
			r.notify = n
		}
	}
}

// WithIDGenerator replaces uuid.New, mainly for tests.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(r *Repository) {
		r.newID = fn
	}
}

// New creates a Repository. baseURL is the prefix of every todo URL;
// a trailing slash is added if missing.
func New(store storage.Provider, baseURL string, opts ...Option) *Repository {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	r := &Repository{
		store:   store,
		baseURL: baseURL,
		notify:  func(string, string) {},
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// All returns every todo.
func (r *Repository) All(ctx context.Context) ([]models.CreatedTodo, error) {
	todos, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		todos[i] = r.materialize(todos[i])
	}
	return todos, nil
}

// Clear removes every todo.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.notify(EventCleared, "")
	return nil
}

// Insert creates a todo from the input with a fresh id and completed=false.
// A duplicate id means the generator is broken, so the error is wrapped as an invariant violation.
func (r *Repository) Insert(ctx context.Context, todo models.Todo) (models.CreatedTodo, error) {
	created := models.CreatedTodo{
		ID:        r.newID(),
		Title:     todo.Title,
		Completed: false,
		Order:     todo.Order,
	}
	created = r.materialize(created.Clone())
	if err := r.store.Insert(ctx, created); err != nil {
		return models.CreatedTodo{}, fmt.Errorf("repository: insert %s: invariant violated: %w", created.ID, err)
	}
	r.notify(EventCreated, created.ID.String())
	return created, nil
}

// Find looks up one todo and wraps the outcome.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (Result, error) {
	t, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.of(t), nil
}

// Patch applies changes to the todo with the given id; absent ids are ignored.
func (r *Repository) Patch(ctx context.Context, id uuid.UUID, changes models.TodoChanges) error {
	res, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	return res.Patch(ctx, changes)
}

// Delete removes the todo with the given id; absent ids are ignored.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	return res.Remove(ctx)
}

// URL returns the canonical URL of the todo with the given id.
func (r *Repository) URL(id uuid.UUID) string {
	return r.baseURL + id.String()
}

func (r *Repository) materialize(t models.CreatedTodo) models.CreatedTodo {
	t.URL = r.URL(t.ID)
	return t
}
