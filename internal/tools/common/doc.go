// Package common provides shared helpers for MCP tool implementations.
package common
