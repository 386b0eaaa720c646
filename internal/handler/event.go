package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Event is a transport-neutral inbound request.
type Event struct {
	Method          string
	Resource        string
	QueryParameters map[string]string
	Body            string

	// RequestID is generated when empty.
	RequestID string
}

// RawData reports whether the raw_data query parameter is truthy. Any value
// other than "", "0" and "false" counts.
func (e Event) RawData() bool {
	v, ok := e.QueryParameters["raw_data"]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}

// Response is a transport-neutral outbound response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// MethodNotAllowedBody is the fixed body of a 405 response.
const MethodNotAllowedBody = `{"message":"Method Not Allowed"}`

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
		"Content-Type":                 "application/json",
	}
}

func successResponse(data interface{}) (Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: http.StatusOK,
		Headers:    corsHeaders(),
		Body:       string(body),
	}, nil
}

func methodNotAllowedResponse() Response {
	return Response{
		StatusCode: http.StatusMethodNotAllowed,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       MethodNotAllowedBody,
	}
}

func errorResponse(err error) Response {
	return Response{
		StatusCode: http.StatusBadRequest,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       err.Error(),
	}
}
