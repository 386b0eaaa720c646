package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mydos/internal/todo"
)

// fakeTasks is an in-memory TaskStore that records its calls.
type fakeTasks struct {
	open      []todo.Task
	raw       json.RawMessage
	fetchErr  error
	createErr error
	updateErr error
	calls     []string
	created   []string
	updates   []todo.Update
}

func (f *fakeTasks) FetchOpenTasks(ctx context.Context) ([]todo.Task, error) {
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.open, nil
}

func (f *fakeTasks) FetchOpenTasksRaw(ctx context.Context) (json.RawMessage, error) {
	f.calls = append(f.calls, "fetch_raw")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.raw, nil
}

func (f *fakeTasks) CreateTask(ctx context.Context, name string) (todo.Task, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return todo.Task{}, f.createErr
	}
	f.created = append(f.created, name)
	return todo.Task{ID: "new-id", Name: name, Date: "2024-06-01", URL: "https://notion.so/new"}, nil
}

func (f *fakeTasks) UpdateTasks(ctx context.Context, u todo.Update) ([]string, error) {
	f.calls = append(f.calls, "update")
	f.updates = append(f.updates, u)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return u.IDs, nil
}

// fakeCache is an in-memory cache.Store that records its calls.
type fakeCache struct {
	tasks      []todo.Task
	present    bool
	readErr    error
	persistErr error
	calls      []string
}

func (f *fakeCache) ReadCachedTasks(ctx context.Context) ([]todo.Task, error) {
	tasks, _, err := f.Lookup(ctx)
	if tasks == nil && err == nil {
		tasks = []todo.Task{}
	}
	return tasks, err
}

func (f *fakeCache) Lookup(ctx context.Context) ([]todo.Task, bool, error) {
	f.calls = append(f.calls, "read")
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	return f.tasks, f.present, nil
}

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.calls = append(f.calls, "invalidate")
	f.tasks, f.present = nil, false
	return nil
}

func (f *fakeCache) Persist(ctx context.Context, tasks []todo.Task) error {
	f.calls = append(f.calls, "persist")
	if f.persistErr != nil {
		return f.persistErr
	}
	f.tasks, f.present = tasks, true
	return nil
}

func newTestHandler(t *testing.T, tasks *fakeTasks, c *fakeCache) *Handler {
	t.Helper()
	h, err := New(Config{Tasks: tasks, Cache: c})
	require.NoError(t, err)
	return h
}

func assertCORS(t *testing.T, resp Response) {
	t.Helper()
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "GET, POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	assert.Equal(t, "Content-Type", resp.Headers["Access-Control-Allow-Headers"])
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{Cache: &fakeCache{}})
	assert.Error(t, err)

	_, err = New(Config{Tasks: &fakeTasks{}})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		method   string
		resource string
		want     Operation
	}{
		{"GET", "/todos", OpListTodos},
		{"GET", RefreshCachePath, OpNotAllowed},
		{"POST", "/todos", OpCreateTodo},
		{"POST", RefreshCachePath, OpRefreshCache},
		{"POST", "/todos/refresh-cache/", OpRefreshCache},
		{"PATCH", "/todos", OpUpdateTodos},
		{"PATCH", RefreshCachePath, OpNotAllowed},
		{"DELETE", "/todos", OpNotAllowed},
		{"PUT", "/todos", OpNotAllowed},
		{"OPTIONS", "/todos", OpNotAllowed},
		{"get", "/todos", OpListTodos},
		{"GET", "/anything", OpListTodos},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.resource, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.method, ResolveRoute(tt.resource)))
		})
	}
}

func TestEvent_RawData(t *testing.T) {
	tests := []struct {
		params map[string]string
		want   bool
	}{
		{nil, false},
		{map[string]string{}, false},
		{map[string]string{"raw_data": ""}, false},
		{map[string]string{"raw_data": "false"}, false},
		{map[string]string{"raw_data": "0"}, false},
		{map[string]string{"raw_data": "true"}, true},
		{map[string]string{"raw_data": "1"}, true},
		{map[string]string{"raw_data": "yes"}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Event{QueryParameters: tt.params}.RawData(), "%v", tt.params)
	}
}

func TestHandle_GetTodos_CacheHit(t *testing.T) {
	cached := []todo.Task{{ID: "a", Name: "Cached", Date: "2024-06-01"}}
	tasks := &fakeTasks{}
	c := &fakeCache{tasks: cached, present: true}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "GET", Resource: "/todos"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assertCORS(t, resp)
	var got []todo.Task
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
	assert.Equal(t, cached, got)
	assert.Empty(t, tasks.calls, "task store must not be called on a cache hit")
}

func TestHandle_GetTodos_CacheMiss(t *testing.T) {
	open := []todo.Task{{ID: "a", Name: "Fresh", Date: "2024-06-01"}}
	tasks := &fakeTasks{open: open}
	c := &fakeCache{}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "GET", Resource: "/todos"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":"a","name":"Fresh","date":"2024-06-01","isCompleted":false}]`, resp.Body)
	assert.Equal(t, []string{"fetch"}, tasks.calls)
	assert.Equal(t, []string{"read", "persist"}, c.calls)
	assert.Equal(t, open, c.tasks)
}

func TestHandle_GetTodos_CachedEmptyListRefetches(t *testing.T) {
	tasks := &fakeTasks{open: []todo.Task{}}
	c := &fakeCache{tasks: []todo.Task{}, present: true}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "GET", Resource: "/todos"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", resp.Body)
	assert.Equal(t, []string{"fetch"}, tasks.calls)
	assert.Equal(t, []string{"read", "persist"}, c.calls)
}

func TestHandle_GetTodos_Raw(t *testing.T) {
	raw := json.RawMessage(`{"object":"list","results":[]}`)
	tasks := &fakeTasks{raw: raw}
	c := &fakeCache{tasks: []todo.Task{{ID: "cached"}}, present: true}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{
		Method:          "GET",
		Resource:        "/todos",
		QueryParameters: map[string]string{"raw_data": "true"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, string(raw), resp.Body)
	assert.Equal(t, []string{"fetch_raw"}, tasks.calls)
	assert.Empty(t, c.calls, "raw requests bypass the cache")
}

func TestHandle_GetTodos_FetchError(t *testing.T) {
	tasks := &fakeTasks{fetchErr: errors.New("notion: unauthorized (status 401): API token is invalid.")}
	c := &fakeCache{}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "GET", Resource: "/todos"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "notion: unauthorized (status 401): API token is invalid.", resp.Body)
	assert.NotContains(t, resp.Headers, "Access-Control-Allow-Origin")
	assert.Equal(t, []string{"read"}, c.calls)
}

func TestHandle_GetTodos_CacheReadError(t *testing.T) {
	tasks := &fakeTasks{}
	c := &fakeCache{readErr: errors.New("cache: status 500: boom")}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "GET", Resource: "/todos"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "cache: status 500: boom", resp.Body)
	assert.Empty(t, tasks.calls)
}

func TestHandle_RefreshCache(t *testing.T) {
	open := []todo.Task{{ID: "a"}}
	tasks := &fakeTasks{open: open}
	c := &fakeCache{tasks: []todo.Task{{ID: "stale"}}, present: true}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "POST", Resource: RefreshCachePath})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"refreshed"`, resp.Body)
	assertCORS(t, resp)
	assert.Equal(t, []string{"persist"}, c.calls, "refresh must not read the cache")
	assert.Equal(t, open, c.tasks)
}

func TestHandle_RefreshCache_IgnoresRawData(t *testing.T) {
	tasks := &fakeTasks{open: []todo.Task{}}
	c := &fakeCache{}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{
		Method:          "POST",
		Resource:        RefreshCachePath,
		QueryParameters: map[string]string{"raw_data": "true"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"fetch"}, tasks.calls)
	assert.True(t, c.present)
}

func TestHandle_CreateTodo(t *testing.T) {
	tasks := &fakeTasks{}
	c := &fakeCache{tasks: []todo.Task{{ID: "stale"}}, present: true}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "POST", Resource: "/todos", Body: `{"name":"Buy milk"}`})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assertCORS(t, resp)
	assert.JSONEq(t, `{"id":"new-id","name":"Buy milk","date":"2024-06-01","url":"https://notion.so/new","isCompleted":false}`, resp.Body)
	assert.Equal(t, []string{"invalidate"}, c.calls)
	assert.False(t, c.present)
	assert.Equal(t, []string{"Buy milk"}, tasks.created)
}

func TestHandle_CreateTodo_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing body", "", "todo name is required"},
		{"missing name", `{}`, "todo name is required"},
		{"blank name", `{"name":"   "}`, "todo name is required"},
		{"malformed json", `{"name":`, "invalid request body: unexpected end of JSON input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &fakeTasks{}
			c := &fakeCache{}
			h := newTestHandler(t, tasks, c)

			resp := h.Handle(context.Background(), Event{Method: "POST", Resource: "/todos", Body: tt.body})

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, resp.Body)
			assert.Empty(t, tasks.calls)
			assert.Empty(t, c.calls, "validation happens before any upstream call")
		})
	}
}

func TestHandle_UpdateTodos(t *testing.T) {
	tests := []struct {
		name string
		body string
		want todo.Update
	}{
		{
			name: "mark done",
			body: `{"todo_ids":["a","b"]}`,
			want: todo.Update{IDs: []string{"a", "b"}},
		},
		{
			name: "single id string",
			body: `{"todo_ids":"a"}`,
			want: todo.Update{IDs: []string{"a"}},
		},
		{
			name: "comma separated ids",
			body: `{"todo_ids":"a, b"}`,
			want: todo.Update{IDs: []string{"a", "b"}},
		},
		{
			name: "reschedule",
			body: `{"todo_ids":["a"],"start_date":"2024-06-01T12:34:56-07:00","end_date":"2024-06-01T13:00:00-07:00"}`,
			want: todo.Update{IDs: []string{"a"}, StartDate: "2024-06-01T12:34:56-07:00", EndDate: "2024-06-01T13:00:00-07:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &fakeTasks{}
			c := &fakeCache{tasks: []todo.Task{{ID: "stale"}}, present: true}
			h := newTestHandler(t, tasks, c)

			resp := h.Handle(context.Background(), Event{Method: "PATCH", Resource: "/todos", Body: tt.body})

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assertCORS(t, resp)
			require.Len(t, tasks.updates, 1)
			assert.Equal(t, tt.want, tasks.updates[0])
			assert.Equal(t, []string{"invalidate"}, c.calls)

			var ids []string
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &ids))
			assert.Equal(t, tt.want.IDs, ids)
		})
	}
}

func TestHandle_UpdateTodos_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing body", "", "todo_id(s) is required"},
		{"missing ids", `{"start_date":"2024-06-01T09:00:00Z"}`, "todo id(s) is required to update"},
		{"null ids", `{"todo_ids":null}`, "todo id(s) is required to update"},
		{"empty ids", `{"todo_ids":[]}`, "todo id(s) is required to update"},
		{"blank id string", `{"todo_ids":" , "}`, "todo id(s) is required to update"},
		{"blank id in list", `{"todo_ids":["a"," "]}`, "todo_ids[1] cannot be empty"},
		{"non-string id", `{"todo_ids":[1]}`, "todo_ids[0] must be a string"},
		{"bad start date", `{"todo_ids":["a"],"start_date":"tomorrow"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &fakeTasks{}
			c := &fakeCache{}
			h := newTestHandler(t, tasks, c)

			resp := h.Handle(context.Background(), Event{Method: "PATCH", Resource: "/todos", Body: tt.body})

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Body)
			} else {
				assert.Contains(t, resp.Body, "invalid start_date")
			}
			assert.Empty(t, tasks.calls)
			assert.Empty(t, c.calls)
		})
	}
}

func TestHandle_UpdateTodos_UpstreamError(t *testing.T) {
	tasks := &fakeTasks{updateErr: errors.New("failed to update todo b: notion: object_not_found (status 404): Could not find page")}
	c := &fakeCache{}
	h := newTestHandler(t, tasks, c)

	resp := h.Handle(context.Background(), Event{Method: "PATCH", Resource: "/todos", Body: `{"todo_ids":["a","b"]}`})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Body, "Could not find page")
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	tests := []struct {
		method   string
		resource string
	}{
		{"GET", RefreshCachePath},
		{"PATCH", RefreshCachePath},
		{"DELETE", "/todos"},
		{"PUT", "/todos"},
		{"OPTIONS", "/todos"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.resource, func(t *testing.T) {
			tasks := &fakeTasks{}
			c := &fakeCache{}
			h := newTestHandler(t, tasks, c)

			resp := h.Handle(context.Background(), Event{Method: tt.method, Resource: tt.resource, Body: `{"todo_ids":["a"]}`})

			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.JSONEq(t, `{"message":"Method Not Allowed"}`, resp.Body)
			assert.Empty(t, tasks.calls)
			assert.Empty(t, c.calls)
		})
	}
}
