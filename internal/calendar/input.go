package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/mydos/internal/todo"
)

// ParseMyDoInput builds a MyDoInput from user-supplied strings. start and end
// accept YYYY-MM-DD or RFC3339. An empty start means an all-day myDo on the
// day of now.
func ParseMyDoInput(name, description, start, end string, now time.Time, loc *time.Location) (MyDoInput, error) {
	input := MyDoInput{Name: strings.TrimSpace(name), Description: description}
	if input.Name == "" {
		return input, errors.New("myDo name is required")
	}

	if start == "" {
		if end != "" {
			return input, errors.New("end requires a timed start")
		}
		input.Start = todo.StartOfDay(now, loc)
		input.AllDay = true
		return input, nil
	}
	return input, parseSchedule(&input, start, end, loc)
}

// ParseMyDoUpdate builds the changes for UpdateMyDo. Empty fields are left
// untouched on the event; at least one field has to be set.
func ParseMyDoUpdate(name, description, start, end string, loc *time.Location) (MyDoInput, error) {
	input := MyDoInput{Name: strings.TrimSpace(name), Description: description}

	if start == "" {
		if end != "" {
			return input, errors.New("end requires a timed start")
		}
		if input.Name == "" && input.Description == "" {
			return input, errors.New("nothing to update")
		}
		return input, nil
	}
	return input, parseSchedule(&input, start, end, loc)
}

func parseSchedule(input *MyDoInput, start, end string, loc *time.Location) error {
	t, allDay, err := todo.ParseDate(start, loc)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	input.Start, input.AllDay = t, allDay

	if end == "" {
		return nil
	}
	if allDay {
		return errors.New("end requires a timed start")
	}
	e, _, err := todo.ParseDate(end, loc)
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}
	if !e.After(t) {
		return errors.New("end must be after start")
	}
	input.End = e
	return nil
}
