package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
	"github.com/teemow/mydos/internal/todo"
)

const (
	// DefaultBaseURL is the Notion REST API root.
	DefaultBaseURL = "https://api.notion.com/v1"

	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	maxPageSize = 100
)

// Config configures a Client.
type Config struct {
	APIKey     string
	DatabaseID string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Location is the timezone that defines "today". Defaults to UTC.
	Location *time.Location

	HTTPClient *http.Client
	Now        func() time.Time
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// Client talks to a single Notion task database.
type Client struct {
	apiKey     string
	databaseID string
	baseURL    string
	loc        *time.Location
	http       *http.Client
	now        func() time.Time
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notion API key is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database ID is required")
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		loc:        cfg.Location,
		http:       cfg.HTTPClient,
		now:        cfg.Now,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.http == nil {
		c.http = instrumentation.NewHTTPClient(30 * time.Second)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = logging.WithService(c.logger, instrumentation.ServiceNotion)

	return c, nil
}

// FetchOpenTasks returns the tasks that are not done and due by the end of
// today, sorted by date. It never returns a nil slice on success.
func (c *Client) FetchOpenTasks(ctx context.Context) ([]todo.Task, error) {
	now := c.now()
	query := openTasksQuery(now, c.loc)

	tasks := make([]todo.Task, 0)
	for {
		var resp queryResponse
		body, err := c.do(ctx, "query", http.MethodPost, c.queryPath(), query)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode notion query response: %w", err)
		}

		for _, p := range resp.Results {
			t := toTask(p)
			if !todo.DueBy(t.Date, now, c.loc) {
				continue
			}
			tasks = append(tasks, t)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		query.StartCursor = resp.NextCursor
	}

	return tasks, nil
}

// FetchOpenTasksRaw runs the open task query and returns the first page of
// the response body untouched.
func (c *Client) FetchOpenTasksRaw(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, "query", http.MethodPost, c.queryPath(), openTasksQuery(c.now(), c.loc))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("notion returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

// CreateTask creates a task named name, dated today.
func (c *Client) CreateTask(ctx context.Context, name string) (todo.Task, error) {
	if strings.TrimSpace(name) == "" {
		return todo.Task{}, fmt.Errorf("todo name is required")
	}

	body, err := c.do(ctx, "create", http.MethodPost, "/pages", createTaskPayload(c.databaseID, name, c.now(), c.loc))
	if err != nil {
		return todo.Task{}, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return todo.Task{}, fmt.Errorf("failed to decode created page: %w", err)
	}

	t := toTask(p)
	if t.Name == "" {
		t.Name = name
	}
	return t, nil
}

// UpdateTasks applies u to every task id in order and returns the ids that
// were updated. The first failure stops the loop; ids updated before it are
// returned together with the error.
func (c *Client) UpdateTasks(ctx context.Context, u todo.Update) ([]string, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	payload, err := updatePayload(u, c.loc)
	if err != nil {
		return nil, err
	}

	updated := make([]string, 0, len(u.IDs))
	for _, id := range u.IDs {
		if _, err := c.do(ctx, "update", http.MethodPatch, "/pages/"+id, payload); err != nil {
			return updated, fmt.Errorf("failed to update todo %s: %w", id, err)
		}
		updated = append(updated, id)
	}
	return updated, nil
}

func (c *Client) queryPath() string {
	return "/databases/" + c.databaseID + "/query"
}

// do sends a JSON request and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, operation, method, path string, payload interface{}) (body []byte, err error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceNotion, operation)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		c.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceNotion, operation, instrumentation.StatusFromError(err), duration)
		instrumentation.EndSpan(span, err)
		if err != nil {
			c.logger.Debug("notion request failed", logging.Operation(operation), logging.Duration(duration), logging.Err(err))
		}
	}()

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read notion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		apiErr.Code = er.Code
		apiErr.Message = er.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
