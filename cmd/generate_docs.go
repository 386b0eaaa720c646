package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/mydos/internal/todo"
	"github.com/teemow/mydos/internal/tools/calendar_tools"
	"github.com/teemow/mydos/internal/tools/todo_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, so the documentation always matches the tool definitions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := generateDocs()
			if err != nil {
				return err
			}
			if outputFile == "" {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// docsService satisfies todo_tools.TodoService for tool introspection only.
type docsService struct{}

var errDocsOnly = errors.New("not available while generating docs")

func (docsService) ListTodos(context.Context, bool) (interface{}, error) {
	return nil, errDocsOnly
}

func (docsService) RefreshCache(context.Context) error {
	return errDocsOnly
}

func (docsService) CreateTodo(context.Context, string) (todo.Task, error) {
	return todo.Task{}, errDocsOnly
}

func (docsService) UpdateTodos(context.Context, todo.Update) ([]string, error) {
	return nil, errDocsOnly
}

// docsAuth satisfies calendar_tools.Authenticator for tool introspection only.
type docsAuth struct{}

func (docsAuth) AuthCodeURL(string) string {
	return ""
}

func (docsAuth) ExchangeAndSave(context.Context, string) (*oauth2.Token, error) {
	return nil, errDocsOnly
}

func docsCalendar(context.Context) (calendar_tools.Calendar, error) {
	return nil, errDocsOnly
}

func generateDocs() (string, error) {
	mcpSrv := newMCPServer()

	// Register with write tools enabled to document everything.
	if err := todo_tools.RegisterTodoTools(mcpSrv, docsService{}, todo_tools.Options{}); err != nil {
		return "", fmt.Errorf("failed to register todo tools: %w", err)
	}
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, docsAuth{}, docsCalendar, calendar_tools.Options{
		CalendarName: DefaultCalendarName,
	}); err != nil {
		return "", fmt.Errorf("failed to register calendar tools: %w", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	return generateToolsMarkdown(tools), nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists the tools available when running `mydos mcp`.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")
	sb.WriteString("Tools marked *write* are only registered with `--yolo`.\n\n")

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	for _, tool := range tools {
		sb.WriteString(generateToolMarkdown(tool))
		sb.WriteString("\n")
	}
	return sb.String()
}

var writeTools = map[string]bool{
	"todos_create":            true,
	"todos_update":            true,
	"calendar_create_mydo":    true,
	"calendar_complete_mydos": true,
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	if writeTools[tool.Name] {
		sb.WriteString(fmt.Sprintf("## %s *(write)*\n\n", tool.Name))
	} else {
		sb.WriteString(fmt.Sprintf("## %s\n\n", tool.Name))
	}

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
