package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
	"github.com/teemow/mydos/internal/todo"
)

// DefaultTable is the Supabase table holding the cache row.
const DefaultTable = "cache"

const defaultSupabaseTimeout = 30 * time.Second

// SupabaseConfig configures a SupabaseStore.
type SupabaseConfig struct {
	// URL is the project URL, e.g. https://<ref>.supabase.co
	URL   string
	Token string
	Table string

	// HTTPClient supplies the transport and timeout for PostgREST calls.
	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// SupabaseStore keeps the cache entry in a Supabase table with a text "key"
// column and a JSON "data" column.
type SupabaseStore struct {
	endpoint  string
	table     string
	token     string
	transport http.RoundTripper
	timeout   time.Duration
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

var _ Store = (*SupabaseStore)(nil)

// NewSupabaseStore creates a SupabaseStore from cfg.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("supabase token is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = instrumentation.NewHTTPClient(defaultSupabaseTimeout)
	}

	s := &SupabaseStore{
		endpoint:  strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		table:     table,
		token:     cfg.Token,
		transport: httpClient.Transport,
		timeout:   httpClient.Timeout,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
	if s.transport == nil {
		s.transport = http.DefaultTransport
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = logging.WithService(s.logger, instrumentation.ServiceSupabase)
	return s, nil
}

type cacheRow struct {
	Key  string          `json:"key,omitempty"`
	Data json.RawMessage `json:"data"`
}

// ReadCachedTasks implements Store.
func (s *SupabaseStore) ReadCachedTasks(ctx context.Context) ([]todo.Task, error) {
	return readCached(ctx, s)
}

// Lookup implements Store.
func (s *SupabaseStore) Lookup(ctx context.Context) ([]todo.Task, bool, error) {
	body, err := s.execute(ctx, "read", func(c *postgrest.Client) ([]byte, error) {
		data, _, err := c.From(s.table).Select("data", "", false).Eq("key", CacheKey).Execute()
		return data, err
	})
	if err != nil {
		return nil, false, err
	}

	var rows []cacheRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode supabase response: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	tasks, err := decodeTasks(rows[0].Data)
	if err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}

// Invalidate implements Store.
func (s *SupabaseStore) Invalidate(ctx context.Context) error {
	_, err := s.execute(ctx, "invalidate", func(c *postgrest.Client) ([]byte, error) {
		data, _, err := c.From(s.table).Delete("minimal", "").Eq("key", CacheKey).Execute()
		return data, err
	})
	return err
}

// Persist implements Store. The existing row is deleted before the new row
// is inserted.
func (s *SupabaseStore) Persist(ctx context.Context, tasks []todo.Task) error {
	if err := s.Invalidate(ctx); err != nil {
		return err
	}

	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	row := cacheRow{Key: CacheKey, Data: data}

	_, err = s.execute(ctx, "persist", func(c *postgrest.Client) ([]byte, error) {
		data, _, err := c.From(s.table).Insert(row, false, "", "minimal", "").Execute()
		return data, err
	})
	return err
}

// execute runs one PostgREST call on a fresh client bound to ctx.
func (s *SupabaseStore) execute(ctx context.Context, operation string, call func(*postgrest.Client) ([]byte, error)) (body []byte, err error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceSupabase, operation)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		s.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceSupabase, operation, instrumentation.StatusFromError(err), duration)
		instrumentation.EndSpan(span, err)
		if err != nil {
			s.logger.Debug("supabase request failed", logging.Operation(operation), logging.Duration(duration), logging.Err(err))
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rt := &boundTransport{ctx: ctx, next: s.transport}
	client := postgrest.NewClient(s.endpoint, "", map[string]string{
		"apikey":        s.token,
		"Authorization": "Bearer " + s.token,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to build supabase client: %w", client.ClientError)
	}
	client.Transport.Parent = rt

	body, err = call(client)
	if err != nil {
		if rt.status >= http.StatusBadRequest {
			return nil, newAPIError(rt.status, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("supabase request failed: %w", ctxErr)
		}
		return nil, fmt.Errorf("supabase request failed: %w", err)
	}
	return body, nil
}

// boundTransport attaches ctx to outgoing requests and records the last
// response status.
type boundTransport struct {
	ctx    context.Context
	next   http.RoundTripper
	status int
}

func (t *boundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	t.status = resp.StatusCode
	return resp, nil
}

// postgrestErrorPattern matches the "(code) message" errors of postgrest-go.
var postgrestErrorPattern = regexp.MustCompile(`^\(([^)]*)\) (.*)$`)

func newAPIError(status int, err error) *APIError {
	apiErr := &APIError{Status: status}
	if m := postgrestErrorPattern.FindStringSubmatch(err.Error()); m != nil && m[2] != "" {
		apiErr.Code = m[1]
		apiErr.Message = m[2]
		return apiErr
	}
	apiErr.Message = http.StatusText(status)
	return apiErr
}
