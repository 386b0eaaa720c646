package batch

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for a single id.
type Result struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BatchResult aggregates the results of a batch operation.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// Process calls fn for every id in order and collects the outcomes. It stops
// early when ctx is cancelled, marking the remaining ids as failed.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (interface{}, error)) BatchResult {
	br := BatchResult{Total: len(ids), Results: make([]Result, 0, len(ids))}

	for _, id := range ids {
		var res Result
		if err := ctx.Err(); err != nil {
			res = NewErrorResult(id, err)
		} else if v, err := fn(ctx, id); err != nil {
			res = NewErrorResult(id, err)
		} else {
			res = NewSuccessResult(id, v)
		}

		if res.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
		br.Results = append(br.Results, res)
	}
	return br
}

// JSON renders the batch result for a tool response.
func (br BatchResult) JSON() (string, error) {
	data, err := json.MarshalIndent(br, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch result: %w", err)
	}
	return string(data), nil
}

func NewSuccessResult(id string, v interface{}) Result {
	return Result{ID: id, Status: StatusSuccess, Result: v}
}

func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}
