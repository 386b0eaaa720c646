package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/mydos/internal/cache"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
	"github.com/teemow/mydos/internal/todo"
)

// RefreshedMessage is the body of a successful cache refresh.
const RefreshedMessage = "refreshed"

// TaskStore is the task database the handler reads and writes.
type TaskStore interface {
	FetchOpenTasks(ctx context.Context) ([]todo.Task, error)
	FetchOpenTasksRaw(ctx context.Context) (json.RawMessage, error)
	CreateTask(ctx context.Context, name string) (todo.Task, error)
	UpdateTasks(ctx context.Context, u todo.Update) ([]string, error)
}

// Config configures a Handler.
type Config struct {
	Tasks TaskStore
	Cache cache.Store

	// Location is used to validate bare start dates. Defaults to UTC.
	Location *time.Location

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Handler serves task events.
type Handler struct {
	tasks   TaskStore
	cache   cache.Store
	loc     *time.Location
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// New creates a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Tasks == nil {
		return nil, fmt.Errorf("task store is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache store is required")
	}

	h := &Handler{
		tasks:   cfg.Tasks,
		cache:   cfg.Cache,
		loc:     cfg.Location,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// Handle resolves ev to an operation, runs it and builds the response.
// Errors become 400 responses carrying the error message; unsupported
// method and route combinations become 405.
func (h *Handler) Handle(ctx context.Context, ev Event) Response {
	start := time.Now()

	requestID := ev.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	route := ResolveRoute(ev.Resource)
	op := Resolve(ev.Method, route)

	ctx, span := instrumentation.StartHandlerSpan(ctx, route.String(), requestID)
	logger := logging.WithRequestID(h.logger, requestID)

	var (
		data interface{}
		err  error
	)
	switch op {
	case OpListTodos:
		data, err = h.ListTodos(ctx, ev.RawData())
		if tasks, ok := data.([]todo.Task); ok {
			span.SetAttributes(attribute.Int(instrumentation.SpanAttrTaskCount, len(tasks)))
		}
	case OpRefreshCache:
		err = h.RefreshCache(ctx)
		data = RefreshedMessage
	case OpCreateTodo:
		data, err = h.createFromBody(ctx, ev.Body)
	case OpUpdateTodos:
		data, err = h.updateFromBody(ctx, ev.Body)
	case OpNotAllowed:
	}

	var resp Response
	switch {
	case op == OpNotAllowed:
		resp = methodNotAllowedResponse()
	case err != nil:
		resp = errorResponse(err)
	default:
		resp, err = successResponse(data)
		if err != nil {
			err = fmt.Errorf("failed to encode response: %w", err)
			resp = errorResponse(err)
		}
	}

	instrumentation.EndSpan(span, err)
	duration := time.Since(start)
	h.metrics.RecordHTTPRequest(ctx, ev.Method, route.String(), resp.StatusCode, duration)

	attrs := []any{
		logging.Method(ev.Method),
		logging.Route(route.String()),
		logging.Operation(op.String()),
		slog.Int("status_code", resp.StatusCode),
		logging.Duration(duration),
	}
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		attrs = append(attrs, logging.TraceID(traceID))
	}
	var verr *ValidationError
	switch {
	case err == nil:
		logger.Info("request handled", attrs...)
	case errors.As(err, &verr):
		logger.Info("request rejected", append(attrs, logging.Err(err))...)
	default:
		logger.Error("request failed", append(attrs, logging.Err(err))...)
	}

	return resp
}

// ListTodos returns the open tasks, answering from the cache when it holds
// any. On a miss the tasks are fetched and persisted. With raw set the task
// store response is returned untouched and the cache is neither read nor
// written.
func (h *Handler) ListTodos(ctx context.Context, raw bool) (interface{}, error) {
	if raw {
		return h.tasks.FetchOpenTasksRaw(ctx)
	}

	cached, err := h.cache.ReadCachedTasks(ctx)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		h.metrics.RecordCacheLookup(ctx, true)
		return cached, nil
	}
	h.metrics.RecordCacheLookup(ctx, false)

	tasks, err := h.tasks.FetchOpenTasks(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.cache.Persist(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// RefreshCache fetches the open tasks, bypassing the cache, and persists
// them.
func (h *Handler) RefreshCache(ctx context.Context) error {
	tasks, err := h.tasks.FetchOpenTasks(ctx)
	if err != nil {
		return err
	}
	return h.cache.Persist(ctx, tasks)
}

// CreateTodo invalidates the cache and creates a task named name.
func (h *Handler) CreateTodo(ctx context.Context, name string) (todo.Task, error) {
	if strings.TrimSpace(name) == "" {
		return todo.Task{}, invalid("todo name is required")
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		return todo.Task{}, err
	}
	return h.tasks.CreateTask(ctx, name)
}

// UpdateTodos validates u, invalidates the cache and applies u to every
// task. It returns the ids that were updated.
func (h *Handler) UpdateTodos(ctx context.Context, u todo.Update) ([]string, error) {
	if err := u.Validate(); err != nil {
		return nil, invalid(err.Error())
	}
	if u.StartDate != "" {
		if _, _, err := todo.ParseDate(u.StartDate, h.loc); err != nil {
			return nil, invalid(fmt.Sprintf("invalid start_date: %v", err))
		}
	}
	if u.EndDate != "" {
		if _, _, err := todo.ParseDate(u.EndDate, h.loc); err != nil {
			return nil, invalid(fmt.Sprintf("invalid end_date: %v", err))
		}
	}

	if err := h.cache.Invalidate(ctx); err != nil {
		return nil, err
	}
	return h.tasks.UpdateTasks(ctx, u)
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createFromBody(ctx context.Context, body string) (interface{}, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalid("todo name is required")
	}
	var req createRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return nil, invalid(fmt.Sprintf("invalid request body: %v", err))
	}
	return h.CreateTodo(ctx, req.Name)
}

type updateRequest struct {
	TodoIDs   interface{} `json:"todo_ids"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
}

func (h *Handler) updateFromBody(ctx context.Context, body string) (interface{}, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalid("todo_id(s) is required")
	}
	var req updateRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return nil, invalid(fmt.Sprintf("invalid request body: %v", err))
	}
	// Missing ids fall through to Update.Validate for the update message.
	ids, err := todo.ParseIDs(req.TodoIDs, "todo_ids")
	if err != nil && !errors.Is(err, todo.ErrNoIDs) {
		return nil, invalid(err.Error())
	}
	return h.UpdateTodos(ctx, todo.Update{IDs: ids, StartDate: req.StartDate, EndDate: req.EndDate})
}
