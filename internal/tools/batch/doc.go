// Package batch provides helpers for MCP tools that act on several ids at once.
//
// Tools accept ids as a single string, a comma-separated string, a JSON array
// encoded as a string, or a JSON array. Each id is processed independently and
// the per-id outcomes are reported together so one failure does not hide the
// others.
package batch
