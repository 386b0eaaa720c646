package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// TodayURI is the resource holding the open myDos due by the end of today.
const TodayURI = "mydos://todos/today"

// TodoLister is implemented by handler.Handler.
type TodoLister interface {
	ListTodos(ctx context.Context, raw bool) (interface{}, error)
}

// ResourceAdder is the part of the MCP server resources are registered with.
type ResourceAdder interface {
	AddResource(resource mcp.Resource, handler mcpserver.ResourceHandlerFunc)
}

// RegisterTodoResources registers the myDo resources
func RegisterTodoResources(s ResourceAdder, svc TodoLister) error {
	if svc == nil {
		return fmt.Errorf("todo service is required")
	}

	today := mcp.NewResource(
		TodayURI,
		"Today's myDos",
		mcp.WithResourceDescription("Open myDos due by the end of today, sorted by date"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(today, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleToday(ctx, request, svc)
	})

	return nil
}

func handleToday(ctx context.Context, request mcp.ReadResourceRequest, svc TodoLister) ([]mcp.ResourceContents, error) {
	todos, err := svc.ListTodos(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	jsonData, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal todos: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
