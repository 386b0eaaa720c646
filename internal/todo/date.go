package todo

import (
	"fmt"
	"time"
)

// DateLayout is the layout of an all-day task date.
const DateLayout = "2006-01-02"

// DefaultDuration is the length given to a timed task when no end is supplied.
const DefaultDuration = 15 * time.Minute

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// StartOfTomorrow returns midnight of the day after t in loc.
// AddDate is used instead of adding 24h so DST days stay correct.
func StartOfTomorrow(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1)
}

// Today formats t's calendar day in loc as a bare date.
func Today(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a task date. Bare dates are interpreted as midnight in loc
// and reported as all-day.
func ParseDate(s string, loc *time.Location) (t time.Time, allDay bool, err error) {
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty date")
	}
	if len(s) == len(DateLayout) {
		t, err = time.ParseInLocation(DateLayout, s, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date-time %q: %w", s, err)
	}
	return t, false, nil
}

// DueBy reports whether the task date falls before the start of the day
// after now in loc, i.e. the task is due by the end of today.
// Tasks without a parsable date are never due.
func DueBy(date string, now time.Time, loc *time.Location) bool {
	t, _, err := ParseDate(date, loc)
	if err != nil {
		return false
	}
	return t.Before(StartOfTomorrow(now, loc))
}

// IsMidnight reports whether t is exactly 00:00:00 in its own offset.
func IsMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
