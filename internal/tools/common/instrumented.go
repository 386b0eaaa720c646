package common

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
)

// ToolAdder is the part of the MCP server tools are registered with.
type ToolAdder interface {
	AddTool(tool mcp.Tool, handler mcpserver.ToolHandlerFunc)
}

// ToolHandler matches the handler signature expected by the MCP server.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, invocation metrics
// and a log line. A result with IsError set counts as a failed invocation.
// metrics and logger may be nil.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", metrics, logger, handler))
func InstrumentedToolHandler(toolName string, metrics *instrumentation.Metrics, logger *slog.Logger, handler ToolHandler) ToolHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(logging.Tool(toolName))

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		start := time.Now()

		result, err := handler(ctx, request)
		duration := time.Since(start)

		spanErr := err
		if spanErr == nil && result != nil && result.IsError {
			spanErr = errors.New(ResultText(result))
		}
		status := instrumentation.StatusFromError(spanErr)

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		instrumentation.EndSpan(span, spanErr)

		if spanErr != nil {
			logger.Warn("tool invocation failed", logging.Status(status), logging.Duration(duration), logging.Err(spanErr))
		} else {
			logger.Debug("tool invocation", logging.Status(status), logging.Duration(duration))
		}

		return result, err
	}
}

// ResultText joins the text content of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			text += tc.Text
		}
	}
	return text
}
