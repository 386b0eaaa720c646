package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Task is a single myDo as returned to callers and stored in the cache.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	URL         string `json:"url,omitempty"`
	IsCompleted bool   `json:"isCompleted"`
}

// Update describes a batch change applied to one or more tasks.
// With no StartDate every task is marked done; otherwise every task is
// rescheduled to the given range.
type Update struct {
	IDs       []string `json:"todo_ids"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

// IsReschedule reports whether the update moves tasks rather than completing them.
func (u Update) IsReschedule() bool {
	return u.StartDate != ""
}

// Validate checks that the update names at least one task.
func (u Update) Validate() error {
	if len(u.IDs) == 0 {
		return fmt.Errorf("todo id(s) is required to update")
	}
	for i, id := range u.IDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("todo_ids[%d] cannot be empty", i)
		}
	}
	return nil
}

// ErrNoIDs is matched by the error ParseIDs returns when the argument holds
// no ids.
var ErrNoIDs = errors.New("no ids given")

type missingIDsError struct{ param string }

func (e missingIDsError) Error() string        { return e.param + " is required" }
func (e missingIDsError) Is(target error) bool { return target == ErrNoIDs }

// ParseIDs reads an argument holding one or more ids: a JSON array, a slice,
// a JSON array encoded as a string, or a comma-separated string. Blank
// entries of a comma-separated string are skipped. An argument that yields
// no ids returns an error matching ErrNoIDs.
func ParseIDs(param interface{}, paramName string) ([]string, error) {
	var ids []string

	switch v := param.(type) {
	case nil:
		return nil, missingIDsError{paramName}
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
				return nonEmptyIDs(arr, paramName)
			}
		}
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	case []string:
		return nonEmptyIDs(v, paramName)
	case []interface{}:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			ids = append(ids, s)
		}
		return nonEmptyIDs(ids, paramName)
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(ids) == 0 {
		return nil, missingIDsError{paramName}
	}
	return ids, nil
}

func nonEmptyIDs(ids []string, paramName string) ([]string, error) {
	if len(ids) == 0 {
		return nil, missingIDsError{paramName}
	}
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		out = append(out, id)
	}
	return out, nil
}
