// Package client provides the two execution backends for tools: a live client
// that calls the REST API and a replay client that answers from the API
// document's examples.
package client

import "context"

// Request is one tool invocation bound to an API operation.
type Request struct {
	OperationID string
	Method      string
	Path        string
	Body        map[string]any
}

// Response is the outcome of a call that reached the API (or its replay).
// Exactly one of Data or Error is meaningful: Error is set when the API
// answered with an error status.
type Response struct {
	Data   any
	Error  any
	Status int
}

// Failed reports whether the API answered with an error payload.
func (r *Response) Failed() bool {
	return r.Error != nil
}

// Client executes operations. Implementations are chosen once at startup.
type Client interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}
