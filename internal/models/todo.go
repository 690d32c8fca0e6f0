// Package models defines the domain types for the todo backend.
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Column names accepted in a Fields patch.
const (
	FieldTitle     = "title"
	FieldCompleted = "completed"
	FieldOrder     = "order"
)

// Todo is the input for creating a todo. It has no identity yet.
type Todo struct {
	Title string `json:"title"`
	Order *int   `json:"order"`
}

// CreatedTodo is a stored todo record.
// URL is derived from ID on output and is never persisted.
type CreatedTodo struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Order     *int      `json:"order"`
	URL       string    `json:"url"`
}

// TodoChanges is a sparse patch: nil fields leave the stored value untouched.
type TodoChanges struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
	Order     *int    `json:"order"`
}

// Fields returns only the fields present in the patch, keyed by column name.
func (c TodoChanges) Fields() Fields {
	f := make(Fields, 3)
	if c.Title != nil {
		f[FieldTitle] = *c.Title
	}
	if c.Completed != nil {
		f[FieldCompleted] = *c.Completed
	}
	if c.Order != nil {
		f[FieldOrder] = *c.Order
	}
	return f
}

// Fields is a column-name to value mapping applied as a sparse merge.
type Fields map[string]any

// Validate rejects unknown keys and values whose type does not match the column:
// title is a string, completed a bool and order an int.
func (f Fields) Validate() error {
	for k, v := range f {
		var ok bool
		switch k {
		case FieldTitle:
			_, ok = v.(string)
		case FieldCompleted:
			_, ok = v.(bool)
		case FieldOrder:
			_, ok = v.(int)
		default:
			return fmt.Errorf("unknown field %q", k)
		}
		if !ok {
			return fmt.Errorf("field %q: unexpected value type %T", k, v)
		}
	}
	return nil
}

// ApplyTo merges f onto t. f must have passed Validate.
func (f Fields) ApplyTo(t *CreatedTodo) {
	if v, ok := f[FieldTitle].(string); ok {
		t.Title = v
	}
	if v, ok := f[FieldCompleted].(bool); ok {
		t.Completed = v
	}
	if v, ok := f[FieldOrder].(int); ok {
		t.Order = &v
	}
}

// Clone returns a deep copy of t so callers never alias stored state.
func (t CreatedTodo) Clone() CreatedTodo {
	if t.Order != nil {
		o := *t.Order
		t.Order = &o
	}
	return t
}
