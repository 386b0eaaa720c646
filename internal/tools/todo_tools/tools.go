package todo_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mydos/internal/handler"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/todo"
	"github.com/teemow/mydos/internal/tools/common"
)

// TodoService is implemented by handler.Handler.
type TodoService interface {
	ListTodos(ctx context.Context, raw bool) (interface{}, error)
	RefreshCache(ctx context.Context) error
	CreateTodo(ctx context.Context, name string) (todo.Task, error)
	UpdateTodos(ctx context.Context, u todo.Update) ([]string, error)
}

// Options configures tool registration.
type Options struct {
	ReadOnly bool
	Metrics  *instrumentation.Metrics
	Logger   *slog.Logger
}

// RegisterTodoTools registers the myDo tools with the MCP server
func RegisterTodoTools(s common.ToolAdder, svc TodoService, opts Options) error {
	if svc == nil {
		return fmt.Errorf("todo service is required")
	}

	add := func(tool mcp.Tool, h common.ToolHandler) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(tool.Name, opts.Metrics, opts.Logger, h)))
	}

	listTool := mcp.NewTool("todos_list",
		mcp.WithDescription("List open myDos that are due by the end of today, sorted by date. Answers from the cache when it holds any myDos."),
		mcp.WithBoolean("raw",
			mcp.Description("Return the unmodified task store response and bypass the cache (default: false)"),
		),
	)
	add(listTool, handleList(svc))

	refreshTool := mcp.NewTool("todos_refresh_cache",
		mcp.WithDescription("Fetch the open myDos from the task store and rebuild the cache"),
	)
	add(refreshTool, handleRefresh(svc))

	if opts.ReadOnly {
		return nil
	}

	createTool := mcp.NewTool("todos_create",
		mcp.WithDescription("Create a new myDo dated today"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The title of the myDo"),
		),
	)
	add(createTool, handleCreate(svc))

	updateTool := mcp.NewTool("todos_update",
		mcp.WithDescription("Mark myDos as done, or reschedule them when start_date is given"),
		mcp.WithString("todo_ids",
			mcp.Required(),
			mcp.Description("Comma-separated list of myDo IDs"),
		),
		mcp.WithString("start_date",
			mcp.Description("New start as YYYY-MM-DD or RFC3339. Omit to mark the myDos as done."),
		),
		mcp.WithString("end_date",
			mcp.Description("New end as YYYY-MM-DD or RFC3339. Defaults to 15 minutes after a timed start_date."),
		),
	)
	add(updateTool, handleUpdate(svc))

	return nil
}

func handleList(svc TodoService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		raw, _ := args["raw"].(bool)

		data, err := svc.ListTodos(ctx, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list todos: %v", err)), nil
		}
		return jsonResult(data)
	}
}

func handleRefresh(svc TodoService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := svc.RefreshCache(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to refresh cache: %v", err)), nil
		}
		return mcp.NewToolResultText(handler.RefreshedMessage), nil
	}
}

func handleCreate(svc TodoService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		name, _ := args["name"].(string)
		if strings.TrimSpace(name) == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		task, err := svc.CreateTodo(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create todo: %v", err)), nil
		}
		return jsonResult(task)
	}
}

func handleUpdate(svc TodoService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		ids, err := todo.ParseIDs(args["todo_ids"], "todo_ids")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		startDate, _ := args["start_date"].(string)
		endDate, _ := args["end_date"].(string)

		updated, err := svc.UpdateTodos(ctx, todo.Update{IDs: ids, StartDate: startDate, EndDate: endDate})
		if err != nil {
			var verr *handler.ValidationError
			if errors.As(err, &verr) {
				return mcp.NewToolResultError(verr.Message), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update todos: %v", err)), nil
		}
		return jsonResult(updated)
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return mcp.NewToolResultText(string(raw)), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
