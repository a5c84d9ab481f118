package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
)

// Capability answers one operation in replay mode.
type Capability func(ctx context.Context, params map[string]any) (any, error)

// ReplayClient answers calls from the API document without network access.
type ReplayClient struct {
	doc          *openapi.Document
	capabilities map[string]Capability
	logger       *common.Logger
}

// NewReplayClient builds one capability per operation in doc, keyed by the
// raw operation id.
func NewReplayClient(doc *openapi.Document, logger *common.Logger) *ReplayClient {
	c := &ReplayClient{
		doc:          doc,
		capabilities: make(map[string]Capability),
		logger:       logger,
	}

	for _, e := range openapi.ExtractOperations(doc) {
		id, path, method := e.Operation.OperationID, e.Path, e.Method
		if _, exists := c.capabilities[id]; exists {
			continue
		}
		c.capabilities[id] = func(_ context.Context, params map[string]any) (any, error) {
			return c.MockResponse(path, method, Fallback(id, params)), nil
		}
	}

	return c
}

// Capabilities returns the number of operations with a replay capability.
func (c *ReplayClient) Capabilities() int {
	return len(c.capabilities)
}

// Invoke answers req from its capability. Operations outside the document are
// answered by path and method.
func (c *ReplayClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	c.logger.Debug().Str("operation_id", req.OperationID).Str("method", req.Method).Str("path", req.Path).Msg("replay request")

	capability, ok := c.capabilities[req.OperationID]
	if !ok {
		return &Response{Data: c.MockResponse(req.Path, req.Method, nil), Status: http.StatusOK}, nil
	}

	data, err := capability(ctx, req.Body)
	if err != nil {
		return nil, err
	}
	return &Response{Data: data, Status: http.StatusOK}, nil
}

// MockResponse returns the JSON example of the operation's 200 response (201
// when no 200 is declared). Without an example it returns fallback, or a
// generic success envelope when fallback is nil.
func (c *ReplayClient) MockResponse(path, method string, fallback any) any {
	generic := map[string]any{
		"success": true,
		"message": fmt.Sprintf("Mock response for %s %s", strings.ToUpper(method), path),
	}

	op, ok := c.doc.Operation(path, method)
	if !ok {
		if fallback != nil {
			return fallback
		}
		return generic
	}

	status := "200"
	if !op.HasResponse(status) {
		status = "201"
	}
	if example, ok := op.ResponseExample(status); ok {
		if value, err := decodeJSON(example); err == nil {
			return value
		}
		c.logger.Warn().Str("path", path).Str("method", method).Msg("replay example is not valid JSON")
	}

	if fallback != nil {
		return fallback
	}
	generic["result"] = map[string]any{}
	return generic
}
