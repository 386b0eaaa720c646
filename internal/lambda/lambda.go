package lambda

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/teemow/mydos/internal/handler"
)

// EventHandler is the part of handler.Handler the adapter needs.
type EventHandler interface {
	Handle(ctx context.Context, ev handler.Event) handler.Response
}

// Adapter translates API Gateway proxy events into handler events.
type Adapter struct {
	h EventHandler
}

// NewAdapter creates an Adapter around h.
func NewAdapter(h EventHandler) *Adapter {
	return &Adapter{h: h}
}

// Handle is the Lambda function handler.
func (a *Adapter) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ev, err := ToEvent(req)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Body:       err.Error(),
		}, nil
	}

	resp := a.h.Handle(ctx, ev)
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// Start runs the adapter under the Lambda runtime. It does not return.
func (a *Adapter) Start() {
	awslambda.Start(a.Handle)
}

// ToEvent converts an API Gateway proxy request. The resource template is
// preferred over the concrete path.
func ToEvent(req events.APIGatewayProxyRequest) (handler.Event, error) {
	body := req.Body
	if req.IsBase64Encoded && body != "" {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return handler.Event{}, err
		}
		body = string(decoded)
	}

	resource := req.Resource
	if resource == "" {
		resource = req.Path
	}

	return handler.Event{
		Method:          req.HTTPMethod,
		Resource:        resource,
		QueryParameters: req.QueryStringParameters,
		Body:            body,
		RequestID:       req.RequestContext.RequestID,
	}, nil
}
