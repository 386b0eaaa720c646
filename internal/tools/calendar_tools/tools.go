package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"

	"github.com/teemow/mydos/internal/calendar"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/todo"
	"github.com/teemow/mydos/internal/tools/batch"
	"github.com/teemow/mydos/internal/tools/common"
)

// Calendar is implemented by calendar.Client.
type Calendar interface {
	FindCalendar(ctx context.Context, name string) (*calendar.CalendarInfo, error)
	EnsureCalendar(ctx context.Context, name, timeZone string) (*calendar.CalendarInfo, error)
	ListMyDos(ctx context.Context, calendarID string, day time.Time, loc *time.Location) ([]calendar.MyDo, error)
	CreateMyDo(ctx context.Context, calendarID string, input calendar.MyDoInput, loc *time.Location) (*calendar.MyDo, error)
	CompleteMyDo(ctx context.Context, calendarID, eventID string, loc *time.Location) (*calendar.MyDo, error)
}

// Authenticator is implemented by google.Authenticator.
type Authenticator interface {
	AuthCodeURL(state string) string
	ExchangeAndSave(ctx context.Context, code string) (*oauth2.Token, error)
}

// ClientFunc returns a Calendar backed by the saved token. It is called on
// every invocation so a token saved through calendar_save_auth_code is picked
// up without a restart.
type ClientFunc func(ctx context.Context) (Calendar, error)

// Options configures tool registration.
type Options struct {
	ReadOnly     bool
	CalendarName string
	Location     *time.Location
	Now          func() time.Time
	Metrics      *instrumentation.Metrics
	Logger       *slog.Logger
}

type tools struct {
	auth   Authenticator
	client ClientFunc
	opts   Options
}

// RegisterCalendarTools registers the calendar tools with the MCP server
func RegisterCalendarTools(s common.ToolAdder, auth Authenticator, client ClientFunc, opts Options) error {
	if auth == nil || client == nil {
		return errors.New("calendar authenticator and client are required")
	}
	if opts.CalendarName == "" {
		return errors.New("calendar name is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t := &tools{auth: auth, client: client, opts: opts}

	add := func(tool mcp.Tool, h common.ToolHandler) {
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(tool.Name, opts.Metrics, opts.Logger, h)))
	}

	add(mcp.NewTool("calendar_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Calendar access for myDo events"),
	), t.handleAuthURL)

	add(mcp.NewTool("calendar_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authentication"),
		mcp.WithString("auth_code",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	), t.handleSaveAuthCode)

	add(mcp.NewTool("calendar_list_mydos",
		mcp.WithDescription(fmt.Sprintf("List the myDo events of a day from the %q calendar", opts.CalendarName)),
		mcp.WithString("date",
			mcp.Description("Day as YYYY-MM-DD (default: today)"),
		),
	), t.handleList)

	if opts.ReadOnly {
		return nil
	}

	add(mcp.NewTool("calendar_create_mydo",
		mcp.WithDescription(fmt.Sprintf("Create a myDo event in the %q calendar, creating the calendar when missing", opts.CalendarName)),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the myDo"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("start",
			mcp.Description("Start as YYYY-MM-DD for an all-day myDo or RFC3339 (default: today, all day)"),
		),
		mcp.WithString("end",
			mcp.Description("End as RFC3339, timed myDos only (default: 15 minutes after start)"),
		),
	), t.handleCreate)

	add(mcp.NewTool("calendar_complete_mydos",
		mcp.WithDescription("Mark myDo events as done"),
		mcp.WithString("event_ids",
			mcp.Required(),
			mcp.Description("Event ID or comma-separated list of event IDs"),
		),
	), t.handleComplete)

	return nil
}

func (t *tools) handleAuthURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := fmt.Sprintf(`To authorize Google Calendar access for myDos:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account and grant calendar access
3. Copy the authorization code

4. Call the calendar_save_auth_code tool with the code to complete authentication`, t.auth.AuthCodeURL("mydos"))

	return mcp.NewToolResultText(result), nil
}

func (t *tools) handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, _ := request.GetArguments()["auth_code"].(string)
	if strings.TrimSpace(code) == "" {
		return mcp.NewToolResultError("auth_code is required"), nil
	}

	if _, err := t.auth.ExchangeAndSave(ctx, strings.TrimSpace(code)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code: %v", err)), nil
	}
	return mcp.NewToolResultText("Authorization successful. Google Calendar token saved."), nil
}

func (t *tools) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := t.opts.Now().In(t.opts.Location)
	if s, _ := request.GetArguments()["date"].(string); s != "" {
		parsed, err := time.ParseInLocation(todo.DateLayout, s, t.opts.Location)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)), nil
		}
		day = parsed
	}

	client, err := t.client(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cal, err := client.FindCalendar(ctx, t.opts.CalendarName)
	if errors.Is(err, calendar.ErrCalendarNotFound) {
		return jsonResult([]calendar.MyDo{})
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find calendar: %v", err)), nil
	}

	mydos, err := client.ListMyDos(ctx, cal.ID, day, t.opts.Location)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list myDos: %v", err)), nil
	}
	if mydos == nil {
		mydos = []calendar.MyDo{}
	}
	return jsonResult(mydos)
}

func (t *tools) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, _ := args["name"].(string)
	description, _ := args["description"].(string)
	start, _ := args["start"].(string)
	end, _ := args["end"].(string)

	input, err := calendar.ParseMyDoInput(name, description, start, end, t.opts.Now(), t.opts.Location)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := t.client(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cal, err := client.EnsureCalendar(ctx, t.opts.CalendarName, t.opts.Location.String())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to prepare calendar: %v", err)), nil
	}

	created, err := client.CreateMyDo(ctx, cal.ID, input, t.opts.Location)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create myDo: %v", err)), nil
	}
	return jsonResult(created)
}

func (t *tools) handleComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := todo.ParseIDs(request.GetArguments()["event_ids"], "event_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := t.client(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cal, err := client.FindCalendar(ctx, t.opts.CalendarName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find calendar: %v", err)), nil
	}

	br := batch.Process(ctx, ids, func(ctx context.Context, id string) (interface{}, error) {
		return client.CompleteMyDo(ctx, cal.ID, id, t.opts.Location)
	})

	out, err := br.JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if br.Successful == 0 {
		return mcp.NewToolResultError(out), nil
	}
	return mcp.NewToolResultText(out), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
