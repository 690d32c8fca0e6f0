// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the todo repository as tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/todod/internal/apperr"
	"github.com/starford/todod/internal/models"
	"github.com/starford/todod/internal/repository"
)

const contractURI = "todo://semantics"

// Server wraps the MCP server with todo tools.
type Server struct {
	mcp  *server.MCPServer
	repo *repository.Repository
}

// New creates a new MCP server with all todo tools registered.
func New(repo *repository.Repository, version string) *Server {
	s := &Server{repo: repo}

	s.mcp = server.NewMCPServer(
		"todod",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_todos",
		mcp.WithDescription("List every todo in insertion order."),
	), s.listTodos)

	s.mcp.AddTool(mcp.NewTool("create_todo",
		mcp.WithDescription("Create a todo. It starts out not completed."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Todo title")),
		mcp.WithNumber("order", mcp.Description("Optional integer position")),
	), s.createTodo)

	s.mcp.AddTool(mcp.NewTool("get_todo",
		mcp.WithDescription("Fetch one todo by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Todo UUID")),
	), s.getTodo)

	s.mcp.AddTool(mcp.NewTool("patch_todo",
		mcp.WithDescription("Change some fields of a todo. Omitted fields are left untouched. "+
			"Read the todo://semantics resource for the exact rules."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Todo UUID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithBoolean("completed", mcp.Description("New completion state")),
		mcp.WithNumber("order", mcp.Description("New integer position")),
	), s.patchTodo)

	s.mcp.AddTool(mcp.NewTool("delete_todo",
		mcp.WithDescription("Delete a todo by id. Unknown ids are ignored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Todo UUID")),
	), s.deleteTodo)

	s.mcp.AddTool(mcp.NewTool("clear_todos",
		mcp.WithDescription("Delete every todo."),
	), s.clearTodos)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Todo Semantics",
			mcp.WithResourceDescription("Field rules and patch semantics for todos."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func requireID(req mcp.CallToolRequest) (uuid.UUID, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid todo id %q", raw)
	}
	return id, nil
}

// intArg reads an optional integer argument; JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (*int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return nil, fmt.Errorf("%s must be an integer", key)
		}
		i := int(n)
		return &i, nil
	case int:
		return &n, nil
	default:
		return nil, fmt.Errorf("%s must be an integer", key)
	}
}

func (s *Server) listTodos(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	todos, err := s.repo.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(todos)
}

func (s *Server) createTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order, err := intArg(req.GetArguments(), "order")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	created, err := s.repo.Insert(ctx, models.Todo{Title: title, Order: order})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(created)
}

func (s *Server) getTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.respond(ctx, id)
}

func (s *Server) patchTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()

	var changes models.TodoChanges
	if v, ok := args["title"].(string); ok {
		changes.Title = &v
	}
	if v, ok := args["completed"].(bool); ok {
		changes.Completed = &v
	}
	if changes.Order, err = intArg(args, "order"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.repo.Patch(ctx, id, changes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.respond(ctx, id)
}

func (s *Server) deleteTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) clearTodos(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.repo.Clear(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("cleared"), nil
}

func (s *Server) respond(ctx context.Context, id uuid.UUID) (*mcp.CallToolResult, error) {
	res, err := s.repo.Find(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	todo, err := res.Respond()
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("Todo not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(todo)
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     PatchContract,
		},
	}, nil
}
