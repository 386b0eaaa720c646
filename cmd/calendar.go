package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mydos/internal/calendar"
	"github.com/teemow/mydos/internal/config"
	"github.com/teemow/mydos/internal/google"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/todo"
)

// DefaultCalendarName is the calendar myDo events live in.
const DefaultCalendarName = "myDos"

func newCalendarCmd() *cobra.Command {
	var calendarName string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Manage myDo events in Google Calendar",
		Long: `Authorize access to Google Calendar and manage myDo events.

GOOGLE_OAUTH_CREDENTIALS must name a client-secrets JSON file of an OAuth
client of type "Desktop app". Run 'mydos calendar auth' once; the token is
stored in GOOGLE_TOKEN_FILE (default ~/.config/mydos/google-token.json) and
refreshed automatically.`,
	}
	cmd.PersistentFlags().StringVar(&calendarName, "calendar", DefaultCalendarName, "Name of the calendar holding myDo events")

	cmd.AddCommand(newCalendarAuthCmd())
	cmd.AddCommand(newCalendarListCmd())
	cmd.AddCommand(newCalendarEventsCmd(&calendarName))
	cmd.AddCommand(newCalendarCreateCmd(&calendarName))
	cmd.AddCommand(newCalendarUpdateCmd(&calendarName))
	cmd.AddCommand(newCalendarCompleteCmd(&calendarName))
	return cmd
}

// calendarEnv bundles what every calendar subcommand needs.
type calendarEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	loc     *time.Location
	auth    *google.Authenticator
	metrics *instrumentation.Metrics
}

func loadCalendarEnv(cmd *cobra.Command) (*calendarEnv, error) {
	cfg, logger, err := loadConfig(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return newCalendarEnv(cfg, logger, nil)
}

func newCalendarEnv(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*calendarEnv, error) {
	if err := cfg.ValidateCalendar(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	oauthConfig, err := google.LoadOAuthConfig(cfg.Google.CredentialsFile, google.DefaultOAuthScopes...)
	if err != nil {
		return nil, err
	}
	auth, err := google.NewAuthenticator(oauthConfig, google.NewFileTokenStore(cfg.TokenFile()), instrumentation.NewHTTPClient(cfg.Timeout()))
	if err != nil {
		return nil, err
	}
	return &calendarEnv{cfg: cfg, logger: logger, loc: loc, auth: auth, metrics: metrics}, nil
}

func (e *calendarEnv) client(ctx context.Context) (*calendar.Client, error) {
	httpClient, err := e.auth.HTTPClient(ctx)
	if errors.Is(err, google.ErrNoToken) {
		return nil, errors.New(google.AuthenticationErrorMessage(e.cfg.TokenFile()))
	}
	if err != nil {
		return nil, err
	}
	return calendar.NewClient(ctx, calendar.Config{HTTPClient: httpClient, Metrics: e.metrics, Logger: e.logger})
}

func newCalendarAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCalendarEnv(cmd)
			if err != nil {
				return err
			}

			if code == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser:\n%s\n\nEnter the authorization code: ", env.auth.AuthCodeURL("mydos"))
				code, err = readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
			}

			if _, err := env.auth.ExchangeAndSave(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", env.cfg.TokenFile())
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code, skips the interactive prompt")
	return cmd
}

func newCalendarListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the calendars on your calendar list",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCalendarEnv(cmd)
			if err != nil {
				return err
			}
			client, err := env.client(cmd.Context())
			if err != nil {
				return err
			}

			calendars, err := client.ListCalendars(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), calendars)
		},
	}
}

func newCalendarEventsCmd(calendarName *string) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the myDo events of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCalendarEnv(cmd)
			if err != nil {
				return err
			}

			when := time.Now().In(env.loc)
			if day != "" {
				when, err = time.ParseInLocation(todo.DateLayout, day, env.loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", day)
				}
			}

			client, err := env.client(cmd.Context())
			if err != nil {
				return err
			}
			cal, err := client.FindCalendar(cmd.Context(), *calendarName)
			if err != nil {
				return err
			}

			todos, err := client.ListMyDos(cmd.Context(), cal.ID, when, env.loc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), todos)
		},
	}

	cmd.Flags().StringVar(&day, "date", "", "Day to list as YYYY-MM-DD (default: today)")
	return cmd
}

func newCalendarCreateCmd(calendarName *string) *cobra.Command {
	var start, end, description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a myDo event",
		Long: `Create a myDo event in the myDos calendar, creating the calendar first when it
does not exist. --start accepts YYYY-MM-DD for an all-day myDo or an RFC3339
date-time; timed myDos without --end last 15 minutes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCalendarEnv(cmd)
			if err != nil {
				return err
			}

			input, err := calendar.ParseMyDoInput(args[0], description, start, end, time.Now(), env.loc)
			if err != nil {
				return err
			}

			client, err := env.client(cmd.Context())
			if err != nil {
				return err
			}
			cal, err := client.EnsureCalendar(cmd.Context(), *calendarName, env.loc.String())
			if err != nil {
				return err
			}

			created, err := client.CreateMyDo(cmd.Context(), cal.ID, input, env.loc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start as YYYY-MM-DD or RFC3339 (default: today, all day)")
	cmd.Flags().StringVar(&end, "end", "", "End as RFC3339 (timed myDos only)")
	cmd.Flags().StringVar(&description, "description", "", "Event description")
	return cmd
}

func newCalendarUpdateCmd(calendarName *string) *cobra.Command {
	var name, start, end, description string

	cmd := &cobra.Command{
		Use:   "update EVENT_ID",
		Short: "Rename, describe or reschedule a myDo event",
		Long: `Update a myDo event in the myDos calendar. Only the given flags are changed.
--start accepts YYYY-MM-DD to move the myDo to an all-day slot or an RFC3339
date-time; timed myDos without --end last 15 minutes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCalendarEnv(cmd)
			if err != nil {
				return err
			}

			input, err := calendar.ParseMyDoUpdate(name, description, start, end, env.loc)
			if err != nil {
				return err
			}

			client, err := env.client(cmd.Context())
			if err != nil {
				return err
			}
			cal, err := client.FindCalendar(cmd.Context(), *calendarName)
			if err != nil {
				return err
			}

			updated, err := client.UpdateMyDo(cmd.Context(), cal.ID, args[0], input, env.loc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updated)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New myDo name")
	cmd.Flags().StringVar(&start, "start", "", "New start as YYYY-MM-DD or RFC3339")
	cmd.Flags().StringVar(&end, "end", "", "New end as RFC3339 (timed myDos only)")
	cmd.Flags().StringVar(&description, "description", "", "New event description")
	return cmd
}

func newCalendarCompleteCmd(calendarName *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete EVENT_ID",
		Short: "Mark a myDo event as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCalendarEnv(cmd)
			if err != nil {
				return err
			}
			client, err := env.client(cmd.Context())
			if err != nil {
				return err
			}
			cal, err := client.FindCalendar(cmd.Context(), *calendarName)
			if err != nil {
				return err
			}

			done, err := client.CompleteMyDo(cmd.Context(), cal.ID, args[0], env.loc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), done)
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
