package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/todod/internal/models"
)

// CreateTodoRequest is the request body for POST /.
type CreateTodoRequest struct {
	Title *string `json:"title" example:"buy milk" validate:"required"`
	Order *int    `json:"order" example:"1"`
}

// Validate checks that the title was supplied.
func (r CreateTodoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NotNil),
	)
}

// Todo converts the request into the domain input.
func (r CreateTodoRequest) Todo() models.Todo {
	return models.Todo{Title: *r.Title, Order: r.Order}
}

// PatchTodoRequest is the request body for PATCH /{id}. Every field is optional.
type PatchTodoRequest = models.TodoChanges

// TodoResponse is the JSON shape of a stored todo.
type TodoResponse = models.CreatedTodo
