package handler

import (
	"net/http"
	"strings"
)

// Route identifies the resource an event targets.
type Route int

const (
	// RouteTodos is the task collection, /todos.
	RouteTodos Route = iota
	// RouteRefreshCache is /todos/refresh-cache.
	RouteRefreshCache
)

// RefreshCachePath is the resource path of RouteRefreshCache.
const RefreshCachePath = "/todos/refresh-cache"

func (r Route) String() string {
	switch r {
	case RouteTodos:
		return "todos"
	case RouteRefreshCache:
		return "refresh-cache"
	default:
		return "unknown"
	}
}

// ResolveRoute maps a resource path to a Route. Anything that is not the
// refresh-cache path is treated as the task collection.
func ResolveRoute(resource string) Route {
	if strings.HasSuffix(strings.TrimRight(resource, "/"), "/refresh-cache") {
		return RouteRefreshCache
	}
	return RouteTodos
}

// Operation is the action an event resolves to.
type Operation int

const (
	OpNotAllowed Operation = iota
	OpListTodos
	OpRefreshCache
	OpCreateTodo
	OpUpdateTodos
)

func (o Operation) String() string {
	switch o {
	case OpListTodos:
		return "list_todos"
	case OpRefreshCache:
		return "refresh_cache"
	case OpCreateTodo:
		return "create_todo"
	case OpUpdateTodos:
		return "update_todos"
	default:
		return "not_allowed"
	}
}

// Resolve maps a method and route to an Operation.
func Resolve(method string, route Route) Operation {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		if route == RouteRefreshCache {
			return OpNotAllowed
		}
		return OpListTodos
	case http.MethodPost:
		if route == RouteRefreshCache {
			return OpRefreshCache
		}
		return OpCreateTodo
	case http.MethodPatch:
		if route == RouteRefreshCache {
			return OpNotAllowed
		}
		return OpUpdateTodos
	default:
		return OpNotAllowed
	}
}
