package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/teemow/mydos/internal/todo"
)

// CacheKey is the key of the single cache entry.
const CacheKey = "todos"

// Backend names accepted by configuration.
const (
	BackendSupabase = "supabase"
	BackendValkey   = "valkey"
)

// Store reads and writes the cached task list.
type Store interface {
	// ReadCachedTasks returns the cached tasks, or an empty slice when
	// nothing is cached.
	ReadCachedTasks(ctx context.Context) ([]todo.Task, error)

	// Lookup returns the cached tasks and whether an entry exists at all,
	// so an empty cached list can be told apart from no entry.
	Lookup(ctx context.Context) ([]todo.Task, bool, error)

	// Invalidate removes the entry. Removing a missing entry is not an error.
	Invalidate(ctx context.Context) error

	// Persist replaces the entry with tasks.
	Persist(ctx context.Context, tasks []todo.Task) error
}

// readCached implements ReadCachedTasks on top of Lookup.
func readCached(ctx context.Context, s Store) ([]todo.Task, error) {
	tasks, _, err := s.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	return tasks, nil
}

func encodeTasks(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cached tasks: %w", err)
	}
	return b, nil
}

func decodeTasks(data []byte) ([]todo.Task, error) {
	tasks := []todo.Task{}
	if len(data) == 0 || string(data) == "null" {
		return tasks, nil
	}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode cached tasks: %w", err)
	}
	return tasks, nil
}
