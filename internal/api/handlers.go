// Package api implements the todo REST API using chi.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/todod/internal/apperr"
	"github.com/starford/todod/internal/repository"
)

const detailNotFound = "Todo not found"

// Handler holds API route handlers.
type Handler struct {
	repo *repository.Repository
}

// NewHandler creates a new Handler.
func NewHandler(repo *repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// todoID parses the {id} URL parameter, writing a 400 on failure.
func todoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid todo id"))
		return uuid.Nil, false
	}
	return id, true
}

func internalError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListTodos handles GET /.
//
//	@Summary	List all todos
//	@Produce	json
//	@Success	200	{array}	TodoResponse
//	@Router		/ [get]
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.repo.All(r.Context())
	if err != nil {
		internalError(w, "list todos failed", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// ClearTodos handles DELETE /.
//
//	@Summary	Delete every todo
//	@Success	204
//	@Router		/ [delete]
func (h *Handler) ClearTodos(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Clear(r.Context()); err != nil {
		internalError(w, "clear todos failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTodo handles POST /.
//
//	@Summary	Create a todo
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateTodoRequest	true	"Todo to create"
//	@Success	201		{object}	TodoResponse
//	@Failure	400		{object}	errResponse
//	@Router		/ [post]
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	created, err := h.repo.Insert(r.Context(), req.Todo())
	if err != nil {
		internalError(w, "create todo failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetTodo handles GET /{id}.
//
//	@Summary	Get a todo by id
//	@Produce	json
//	@Param		id	path		string	true	"Todo id"
//	@Success	200	{object}	TodoResponse
//	@Failure	404	{object}	errResponse
//	@Router		/{id} [get]
func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id)
}

// PatchTodo handles PATCH /{id}. Only the fields present in the body change.
//
//	@Summary	Partially update a todo
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Todo id"
//	@Param		body	body		PatchTodoRequest	true	"Fields to change"
//	@Success	200		{object}	TodoResponse
//	@Failure	404		{object}	errResponse
//	@Router		/{id} [patch]
func (h *Handler) PatchTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	var changes PatchTodoRequest
	if err := decodeJSON(w, r, &changes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.repo.Patch(r.Context(), id, changes); err != nil {
		internalError(w, "patch todo failed", err, slog.String("id", id.String()))
		return
	}
	h.respond(w, r, id)
}

// DeleteTodo handles DELETE /{id}. Deleting a missing todo succeeds.
//
//	@Summary	Delete a todo
//	@Param		id	path	string	true	"Todo id"
//	@Success	204
//	@Router		/{id} [delete]
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		internalError(w, "delete todo failed", err, slog.String("id", id.String()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	res, err := h.repo.Find(r.Context(), id)
	if err != nil {
		internalError(w, "find todo failed", err, slog.String("id", id.String()))
		return
	}
	todo, err := res.Respond()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody(detailNotFound))
			return
		}
		internalError(w, "respond todo failed", err, slog.String("id", id.String()))
		return
	}
	writeJSON(w, http.StatusOK, todo)
}
