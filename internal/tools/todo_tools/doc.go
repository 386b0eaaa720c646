// Package todo_tools provides MCP tools for working with myDos.
//
// The tools call the same request handler that serves the HTTP and Lambda
// entry points, so cache invalidation and validation behave identically.
//
// # Available Tools
//
//   - todos_list: List open myDos due by the end of today
//   - todos_refresh_cache: Rebuild the cache from the task store
//   - todos_create: Create a myDo dated today
//   - todos_update: Complete or reschedule one or more myDos
//
// In read-only mode only todos_list and todos_refresh_cache are registered.
package todo_tools
