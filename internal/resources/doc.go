// Package resources provides MCP resources for exposing myDo data.
// Resources are read-only data sources that MCP clients can fetch without
// calling a tool, such as the list of myDos due today.
package resources
