package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mydos application
var rootCmd = &cobra.Command{
	Use:   "mydos",
	Short: "Serves today's open myDos from Notion through a read-through cache",
	Long: `mydos lists, creates, completes and reschedules myDos stored in a Notion
database. Open myDos due by the end of today are cached in Supabase (or Valkey)
and the cache is invalidated on every change.

It can run as:
  - An AWS Lambda function behind API Gateway (lambda)
  - A local HTTP server with health and metrics endpoints (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mydos version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLambdaCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
