package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
	"github.com/teemow/mydos/internal/todo"
)

// ValkeyConfig configures a ValkeyStore.
type ValkeyConfig struct {
	// KeyPrefix is prepended to CacheKey, e.g. "mydos:".
	KeyPrefix string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// ValkeyStore keeps the cache entry as a JSON string under a single key.
type ValkeyStore struct {
	client  valkey.Client
	key     string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

var _ Store = (*ValkeyStore)(nil)

// DialValkey connects to a Valkey or Redis server. addr is either host:port
// or a redis:// or rediss:// URL; a non-empty password overrides one in the
// URL.
func DialValkey(addr, password string) (valkey.Client, error) {
	opt := valkey.ClientOption{InitAddress: []string{addr}}
	if strings.Contains(addr, "://") {
		parsed, err := valkey.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid valkey URL: %w", err)
		}
		opt = parsed
	}
	if password != "" {
		opt.Password = password
	}
	opt.DisableCache = true

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return client, nil
}

// Ping checks the connection, for readiness probes.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// NewValkeyStore creates a ValkeyStore on top of an existing client.
func NewValkeyStore(client valkey.Client, cfg ValkeyConfig) *ValkeyStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ValkeyStore{
		client:  client,
		key:     cfg.KeyPrefix + CacheKey,
		metrics: cfg.Metrics,
		logger:  logging.WithService(logger, instrumentation.ServiceValkey),
	}
}

// ReadCachedTasks implements Store.
func (s *ValkeyStore) ReadCachedTasks(ctx context.Context) ([]todo.Task, error) {
	return readCached(ctx, s)
}

// Lookup implements Store.
func (s *ValkeyStore) Lookup(ctx context.Context) (tasks []todo.Task, found bool, err error) {
	ctx, done := s.begin(ctx, "read")
	defer func() { done(err) }()

	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read valkey key %s: %w", s.key, err)
	}

	tasks, err = decodeTasks(data)
	if err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}

// Invalidate implements Store.
func (s *ValkeyStore) Invalidate(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "invalidate")
	defer func() { done(err) }()

	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete valkey key %s: %w", s.key, err)
	}
	return nil
}

// Persist implements Store. A single SET replaces the previous value.
func (s *ValkeyStore) Persist(ctx context.Context, tasks []todo.Task) (err error) {
	ctx, done := s.begin(ctx, "persist")
	defer func() { done(err) }()

	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.key).Value(valkey.BinaryString(data)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to write valkey key %s: %w", s.key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

// begin starts a span for a command and returns the function that records
// its outcome.
func (s *ValkeyStore) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceValkey, operation)
	start := time.Now()
	return ctx, func(err error) {
		duration := time.Since(start)
		s.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceValkey, operation, instrumentation.StatusFromError(err), duration)
		instrumentation.EndSpan(span, err)
		if err != nil {
			s.logger.Debug("valkey command failed", logging.Operation(operation), logging.Duration(duration), logging.Err(err))
		}
	}
}
