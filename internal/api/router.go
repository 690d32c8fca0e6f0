package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/todod/internal/repository"
)

// NewRouter creates a chi router with the todo routes mounted at its root.
// metrics and sseHandler are optional.
func NewRouter(repo *repository.Repository, metrics *Metrics, sseHandler http.Handler) chi.Router {
	h := NewHandler(repo)

	r := chi.NewRouter()
	if metrics != nil {
		r.Use(metrics.Middleware)
	}

	r.Get("/", h.ListTodos)
	r.Post("/", h.CreateTodo)
	r.Delete("/", h.ClearTodos)
	r.Get("/{id}", h.GetTodo)
	r.Patch("/{id}", h.PatchTodo)
	r.Delete("/{id}", h.DeleteTodo)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
