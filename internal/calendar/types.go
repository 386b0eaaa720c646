package calendar

import (
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const (
	// MyDoPropertyKey and MyDoPropertyValue tag events created by mydos.
	MyDoPropertyKey   = "mydos"
	MyDoPropertyValue = "task"

	// DonePropertyKey is set to "true" on completed myDos.
	DonePropertyKey = "done"

	// OpenPrefix and DonePrefix are prepended to titles for display only.
	OpenPrefix = "📌 "
	DonePrefix = "✅ "

	// DefaultDuration is used when a timed myDo has no end.
	DefaultDuration = 15 * time.Minute

	dateLayout = "2006-01-02"
)

// CalendarInfo describes a calendar the user can see.
type CalendarInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TimeZone    string `json:"timezone"`
	Primary     bool   `json:"primary,omitempty"`
}

// MyDoInput creates or updates a myDo. Zero fields are left unchanged on update.
type MyDoInput struct {
	Name        string
	Description string
	Start       time.Time
	End         time.Time

	// AllDay schedules the myDo on Start's date without a time.
	AllDay bool
}

// MyDo is a myDo event.
type MyDo struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day,omitempty"`
	Done   bool      `json:"done"`
	Link   string    `json:"link,omitempty"`
}

// IsMyDo reports whether the event was created by mydos.
func IsMyDo(event *calendar.Event) bool {
	if event == nil || event.ExtendedProperties == nil {
		return false
	}
	return event.ExtendedProperties.Private[MyDoPropertyKey] == MyDoPropertyValue
}

func isDone(event *calendar.Event) bool {
	return event.ExtendedProperties != nil && event.ExtendedProperties.Private[DonePropertyKey] == "true"
}

// displayTitle adds the status prefix to a bare name.
func displayTitle(name string, done bool) string {
	if done {
		return DonePrefix + name
	}
	return OpenPrefix + name
}

// bareName strips any status prefix from a title.
func bareName(title string) string {
	title = strings.TrimPrefix(title, OpenPrefix)
	return strings.TrimPrefix(title, DonePrefix)
}

// toMyDo converts a calendar event to a MyDo.
func toMyDo(event *calendar.Event, loc *time.Location) MyDo {
	if event == nil {
		return MyDo{}
	}
	m := MyDo{
		ID:   event.Id,
		Name: bareName(event.Summary),
		Done: isDone(event),
		Link: event.HtmlLink,
	}
	m.Start, m.AllDay = parseEventTime(event.Start, loc)
	m.End, _ = parseEventTime(event.End, loc)
	return m
}

func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t.In(loc), false
		}
	}
	if dt.Date != "" {
		if t, err := time.ParseInLocation(dateLayout, dt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toCalendarInfo converts a calendar list entry to CalendarInfo.
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:          entry.Id,
		Name:        entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
	}
}

// eventTimes builds the start and end of a myDo event in loc.
func eventTimes(input MyDoInput, loc *time.Location) (*calendar.EventDateTime, *calendar.EventDateTime) {
	if input.AllDay {
		day := input.Start.In(loc)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		return &calendar.EventDateTime{Date: start.Format(dateLayout)},
			&calendar.EventDateTime{Date: start.AddDate(0, 0, 1).Format(dateLayout)}
	}

	end := input.End
	if end.IsZero() || !end.After(input.Start) {
		end = input.Start.Add(DefaultDuration)
	}
	return &calendar.EventDateTime{DateTime: input.Start.In(loc).Format(time.RFC3339), TimeZone: loc.String()},
		&calendar.EventDateTime{DateTime: end.In(loc).Format(time.RFC3339), TimeZone: loc.String()}
}
