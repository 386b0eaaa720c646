package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/mydos/internal/google"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
)

var (
	// ErrCalendarNotFound is returned when no calendar has the requested name.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrNotMyDo is returned when an event exists but was not created by mydos.
	ErrNotMyDo = errors.New("event is not a myDo")
)

// Config configures a Client.
type Config struct {
	// HTTPClient must carry Google OAuth credentials.
	HTTPClient *http.Client

	// Endpoint overrides the Calendar API base URL.
	Endpoint string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient creates a Calendar client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("an authorized HTTP client is required")
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithUserAgent(google.ApplicationName),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		svc:     svc,
		metrics: cfg.Metrics,
		logger:  logging.WithService(logger, instrumentation.ServiceCalendar),
	}, nil
}

// ListCalendars lists the calendars on the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	calendars := []CalendarInfo{}
	err := c.observe(ctx, "list_calendars", func(ctx context.Context) error {
		return c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
			for _, entry := range page.Items {
				calendars = append(calendars, toCalendarInfo(entry))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendars: %w", err)
	}
	return calendars, nil
}

// FindCalendar returns the first calendar whose name matches, ignoring case.
func (c *Client) FindCalendar(ctx context.Context, name string) (*CalendarInfo, error) {
	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	for _, cal := range calendars {
		if strings.EqualFold(cal.Name, name) {
			return &cal, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCalendarNotFound, name)
}

// EnsureCalendar returns the named calendar, creating it in timeZone when missing.
func (c *Client) EnsureCalendar(ctx context.Context, name, timeZone string) (*CalendarInfo, error) {
	cal, err := c.FindCalendar(ctx, name)
	if err == nil {
		return cal, nil
	}
	if !errors.Is(err, ErrCalendarNotFound) {
		return nil, err
	}

	var created *calendar.Calendar
	err = c.observe(ctx, "insert_calendar", func(ctx context.Context) error {
		var err error
		created, err = c.svc.Calendars.Insert(&calendar.Calendar{
			Summary:  name,
			TimeZone: timeZone,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar %s: %w", name, err)
	}

	c.logger.Info("created calendar", "calendar", name, "time_zone", timeZone)
	return &CalendarInfo{
		ID:          created.Id,
		Name:        created.Summary,
		Description: created.Description,
		TimeZone:    created.TimeZone,
	}, nil
}

// ListMyDos lists the myDos that overlap the calendar day of day in loc.
func (c *Client) ListMyDos(ctx context.Context, calendarID string, day time.Time, loc *time.Location) ([]MyDo, error) {
	if loc == nil {
		loc = time.UTC
	}
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	todos := []MyDo{}
	err := c.observe(ctx, "list_events", func(ctx context.Context) error {
		return c.svc.Events.List(calendarID).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			TimeZone(loc.String()).
			PrivateExtendedProperty(MyDoPropertyKey+"="+MyDoPropertyValue).
			SingleEvents(true).
			OrderBy("startTime").
			Pages(ctx, func(page *calendar.Events) error {
				for _, event := range page.Items {
					if IsMyDo(event) {
						todos = append(todos, toMyDo(event, loc))
					}
				}
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return todos, nil
}

// CreateMyDo creates a myDo event.
func (c *Client) CreateMyDo(ctx context.Context, calendarID string, input MyDoInput, loc *time.Location) (*MyDo, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("myDo name is required")
	}
	if input.Start.IsZero() {
		return nil, fmt.Errorf("myDo start is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	event := &calendar.Event{
		Summary:     displayTitle(input.Name, false),
		Description: input.Description,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{MyDoPropertyKey: MyDoPropertyValue},
		},
	}
	event.Start, event.End = eventTimes(input, loc)

	var created *calendar.Event
	err := c.observe(ctx, "insert_event", func(ctx context.Context) error {
		var err error
		created, err = c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create myDo: %w", err)
	}

	m := toMyDo(created, loc)
	return &m, nil
}

// UpdateMyDo changes the name, description or time of a myDo.
func (c *Client) UpdateMyDo(ctx context.Context, calendarID, eventID string, input MyDoInput, loc *time.Location) (*MyDo, error) {
	if loc == nil {
		loc = time.UTC
	}
	return c.modify(ctx, calendarID, eventID, loc, func(event *calendar.Event) {
		if input.Name != "" {
			event.Summary = displayTitle(input.Name, isDone(event))
		}
		if input.Description != "" {
			event.Description = input.Description
		}
		if !input.Start.IsZero() {
			event.Start, event.End = eventTimes(input, loc)
		}
	})
}

// CompleteMyDo marks a myDo as done.
func (c *Client) CompleteMyDo(ctx context.Context, calendarID, eventID string, loc *time.Location) (*MyDo, error) {
	if loc == nil {
		loc = time.UTC
	}
	return c.modify(ctx, calendarID, eventID, loc, func(event *calendar.Event) {
		event.Summary = displayTitle(bareName(event.Summary), true)
		event.ExtendedProperties.Private[DonePropertyKey] = "true"
	})
}

// modify fetches a myDo, applies change and writes the event back.
func (c *Client) modify(ctx context.Context, calendarID, eventID string, loc *time.Location, change func(*calendar.Event)) (*MyDo, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event ID is required")
	}

	var event *calendar.Event
	err := c.observe(ctx, "get_event", func(ctx context.Context) error {
		var err error
		event, err = c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	if !IsMyDo(event) {
		return nil, fmt.Errorf("%w: %s", ErrNotMyDo, eventID)
	}

	change(event)

	var updated *calendar.Event
	err = c.observe(ctx, "update_event", func(ctx context.Context) error {
		var err error
		updated, err = c.svc.Events.Update(calendarID, eventID, event).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	m := toMyDo(updated, loc)
	return &m, nil
}

func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error) (err error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceCalendar, operation)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		c.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceCalendar, operation, instrumentation.StatusFromError(err), duration)
		instrumentation.EndSpan(span, err)
		if err != nil {
			c.logger.Debug("calendar request failed", logging.Operation(operation), logging.Duration(duration), logging.Err(err))
		}
	}()
	return fn(ctx)
}
