package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mydos/internal/config"
	"github.com/teemow/mydos/internal/instrumentation"
)

func TestReadLine(t *testing.T) {
	line, err := readLine(strings.NewReader("4/abc-code\n"))
	require.NoError(t, err)
	assert.Equal(t, "4/abc-code", line)

	line, err = readLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", line)

	_, err = readLine(strings.NewReader(""))
	assert.Error(t, err)
}

func TestGenerateDocs(t *testing.T) {
	markdown, err := generateDocs()
	require.NoError(t, err)

	for _, name := range []string{"todos_list", "todos_refresh_cache", "todos_create", "todos_update", "calendar_auth_url", "calendar_list_mydos"} {
		assert.Contains(t, markdown, "## "+name)
	}
	assert.Contains(t, markdown, "## todos_create *(write)*")
	assert.Contains(t, markdown, "## calendar_complete_mydos *(write)*")
	assert.Contains(t, markdown, "- `name` (string, required): ")
	assert.Contains(t, markdown, "- `raw` (boolean, optional): ")
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	assert.Equal(t, "mydos version "+version+"\n", out.String())
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()

	_, err := newApp(context.Background(), &cfg, slog.Default(), instrumentation.Config{Enabled: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvNotionAPIKey)
}

func TestNewApp_Supabase(t *testing.T) {
	cfg := config.Default()
	cfg.Notion.APIKey = "secret_key"
	cfg.Notion.DatabaseID = "db"
	cfg.Cache.Supabase.URL = "https://example.supabase.co"
	cfg.Cache.Supabase.Token = "token"

	a, err := newApp(context.Background(), &cfg, slog.Default(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.NotNil(t, a.handler)
	assert.Contains(t, a.checks, "supabase")
}

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "lambda", "mcp", "refresh", "calendar", "generate-docs", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestCalendarCommands(t *testing.T) {
	cmd := newCalendarCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"auth", "list", "events", "create", "update", "complete"}, names)

	update, _, err := cmd.Find([]string{"update"})
	require.NoError(t, err)
	for _, flag := range []string{"name", "description", "start", "end"} {
		assert.NotNil(t, update.Flags().Lookup(flag), flag)
	}
	assert.Error(t, update.Args(update, nil))
	assert.NoError(t, update.Args(update, []string{"evt1"}))
}
