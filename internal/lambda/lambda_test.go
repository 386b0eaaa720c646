package lambda

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mydos/internal/handler"
)

type recordingHandler struct {
	got  handler.Event
	resp handler.Response
}

func (r *recordingHandler) Handle(ctx context.Context, ev handler.Event) handler.Response {
	r.got = ev
	return r.resp
}

func TestToEvent(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		HTTPMethod:            "GET",
		Resource:              "/todos",
		Path:                  "/prod/todos",
		QueryStringParameters: map[string]string{"raw_data": "true"},
		RequestContext:        events.APIGatewayProxyRequestContext{RequestID: "req-123"},
	}

	ev, err := ToEvent(req)
	require.NoError(t, err)
	assert.Equal(t, handler.Event{
		Method:          "GET",
		Resource:        "/todos",
		QueryParameters: map[string]string{"raw_data": "true"},
		RequestID:       "req-123",
	}, ev)
}

func TestToEvent_FallsBackToPath(t *testing.T) {
	ev, err := ToEvent(events.APIGatewayProxyRequest{HTTPMethod: "POST", Path: "/todos/refresh-cache"})
	require.NoError(t, err)
	assert.Equal(t, "/todos/refresh-cache", ev.Resource)
}

func TestToEvent_Base64Body(t *testing.T) {
	body := `{"name":"Buy milk"}`
	ev, err := ToEvent(events.APIGatewayProxyRequest{
		HTTPMethod:      "POST",
		Resource:        "/todos",
		Body:            base64.StdEncoding.EncodeToString([]byte(body)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, body, ev.Body)

	_, err = ToEvent(events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true})
	assert.Error(t, err)
}

func TestAdapter_Handle(t *testing.T) {
	rec := &recordingHandler{resp: handler.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Access-Control-Allow-Origin": "*"},
		Body:       `"refreshed"`,
	}}
	a := NewAdapter(rec)

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "POST", Resource: "/todos/refresh-cache"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"refreshed"`, resp.Body)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "POST", rec.got.Method)
}

func TestAdapter_Handle_BadBody(t *testing.T) {
	rec := &recordingHandler{}
	a := NewAdapter(rec)

	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "POST", Body: "%%%", IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, rec.got.Method)
}
