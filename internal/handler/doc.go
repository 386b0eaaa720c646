// Package handler implements the mydos request handler.
//
// A Handler receives a transport-neutral Event (method, resource, query
// parameters, body), resolves it to one of a closed set of operations and
// returns a Response with a status code, headers and a JSON body. Transports
// (the AWS Lambda adapter, the local HTTP server, the MCP tools) translate
// their own request shapes into Events.
//
// Reads go through the task cache: GET /todos answers from the cache when it
// holds tasks and otherwise fetches the open tasks and persists them.
// Mutations invalidate the cache before they reach the task store.
package handler
