package repository

import (
	"context"

	"github.com/starford/todod/internal/apperr"
	"github.com/starford/todod/internal/models"
)

// Result is the outcome of a single-todo lookup: either Found or Missing.
// Callers invoke Respond, Patch or Remove without checking which one they hold.
type Result interface {
	// Respond returns the record, or apperr.ErrNotFound when missing.
	Respond() (models.CreatedTodo, error)
	// Patch applies the present fields of changes; a no-op when missing.
	Patch(ctx context.Context, changes models.TodoChanges) error
	// Remove deletes the record; a no-op when missing.
	Remove(ctx context.Context) error
	// Found reports whether a record was found.
	Found() bool
}

// of wraps the output of Provider.Find.
func (r *Repository) of(t *models.CreatedTodo) Result {
	if t == nil {
		return missing{}
	}
	return found{repo: r, todo: r.materialize(*t)}
}

type found struct {
	repo *Repository
	todo models.CreatedTodo
}

func (f found) Respond() (models.CreatedTodo, error) {
	return f.todo.Clone(), nil
}

func (f found) Patch(ctx context.Context, changes models.TodoChanges) error {
	fields := changes.Fields()
	if len(fields) == 0 {
		return nil
	}
	if err := f.repo.store.UpdateFields(ctx, f.todo.ID, fields); err != nil {
		return err
	}
	f.repo.notify(EventUpdated, f.todo.ID.String())
	return nil
}

func (f found) Remove(ctx context.Context) error {
	if err := f.repo.store.Remove(ctx, f.todo.ID); err != nil {
		return err
	}
	f.repo.notify(EventDeleted, f.todo.ID.String())
	return nil
}

func (found) Found() bool { return true }

type missing struct{}

func (missing) Respond() (models.CreatedTodo, error) {
	return models.CreatedTodo{}, apperr.ErrNotFound
}

func (missing) Patch(context.Context, models.TodoChanges) error { return nil }

func (missing) Remove(context.Context) error { return nil }

func (missing) Found() bool { return false }
