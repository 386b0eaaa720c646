package cmd

import (
	"context"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/mydos/internal/config"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/resources"
	"github.com/teemow/mydos/internal/tools/calendar_tools"
	"github.com/teemow/mydos/internal/tools/todo_tools"
)

func newMCPCmd() *cobra.Command {
	var (
		yolo         bool
		calendarName string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start a Model Context Protocol (MCP) server on standard input/output that
exposes the myDo operations as tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode and only offers todos_list
  and todos_refresh_cache. Use --yolo to enable todos_create and todos_update.

Calendar:
  When GOOGLE_OAUTH_CREDENTIALS is set, the calendar tools are registered too.
  calendar_create_mydo and calendar_complete_mydos also require --yolo.

Logs are written to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadConfig(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// The stdio transport has no metrics endpoint to scrape.
			instrConfig := instrumentation.DefaultConfig()
			if instrConfig.MetricsExporter == instrumentation.ExporterPrometheus {
				instrConfig.Enabled = false
			}

			a, err := newApp(ctx, cfg, logger, instrConfig)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			mcpSrv := newMCPServer()
			if err := todo_tools.RegisterTodoTools(mcpSrv, a.handler, todo_tools.Options{
				ReadOnly: !yolo,
				Metrics:  a.provider.Metrics(),
				Logger:   logger,
			}); err != nil {
				return fmt.Errorf("failed to register todo tools: %w", err)
			}
			if err := resources.RegisterTodoResources(mcpSrv, a.handler); err != nil {
				return fmt.Errorf("failed to register todo resources: %w", err)
			}
			if err := registerCalendarTools(mcpSrv, cfg, logger, a.provider.Metrics(), calendarName, !yolo); err != nil {
				return err
			}

			if !yolo {
				logger.Info("starting MCP server in read-only mode (use --yolo to enable write operations)")
			}
			return runStdioServer(mcpSrv)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (create and update myDos). Default is read-only mode.")
	cmd.Flags().StringVar(&calendarName, "calendar", DefaultCalendarName, "Name of the calendar holding myDo events")
	return cmd
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("mydos", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
}

// registerCalendarTools adds the calendar tools when Google credentials are
// configured. A missing token is not an error; the auth tools handle it.
func registerCalendarTools(s *mcpserver.MCPServer, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, calendarName string, readOnly bool) error {
	if cfg.Google.CredentialsFile == "" {
		logger.Debug("calendar tools disabled, no OAuth credentials configured")
		return nil
	}

	env, err := newCalendarEnv(cfg, logger, metrics)
	if err != nil {
		return err
	}

	clientFunc := func(ctx context.Context) (calendar_tools.Calendar, error) {
		return env.client(ctx)
	}
	if err := calendar_tools.RegisterCalendarTools(s, env.auth, clientFunc, calendar_tools.Options{
		ReadOnly:     readOnly,
		CalendarName: calendarName,
		Location:     env.loc,
		Metrics:      metrics,
		Logger:       logger,
	}); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
