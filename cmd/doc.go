// Package cmd implements the command-line interface for mydos.
//
// This package provides the following commands:
//   - lambda: Run the request handler under the AWS Lambda runtime
//   - serve: Run the request handler behind a local HTTP server
//   - mcp: Expose the myDo operations as MCP tools over stdio
//   - refresh: Rebuild the cache once
//   - calendar: Authorize Google Calendar and manage myDo events
//   - generate-docs: Generate markdown documentation for the MCP tools
//   - version: Display version information
package cmd
