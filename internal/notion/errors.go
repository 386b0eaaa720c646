package notion

import "fmt"

// APIError is returned when Notion answers with a non-2xx status.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion: %s (status %d): %s", e.Code, e.Status, e.Message)
}
