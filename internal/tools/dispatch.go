package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/purelymail-mcp/internal/client"
	"github.com/bobmcallan/purelymail-mcp/internal/common"
)

// Executor runs one tool call with the caller's arguments.
type Executor func(ctx context.Context, input map[string]any) (any, error)

// Dispatcher creates executors bound to a single client, live or replay.
type Dispatcher struct {
	client client.Client
	logger *common.Logger
}

// NewDispatcher creates a dispatcher over c.
func NewDispatcher(c client.Client, logger *common.Logger) *Dispatcher {
	return &Dispatcher{client: c, logger: logger}
}

// MakeExecutor returns the executor for one operation. The input is sent as
// the request body; an empty input is sent as an empty object.
func (d *Dispatcher) MakeExecutor(path, method, operationID string) Executor {
	method = strings.ToUpper(method)

	return func(ctx context.Context, input map[string]any) (result any, err error) {
		logger := d.logger.WithCorrelationId(uuid.New().String())
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				logger.Error().Str("operation_id", operationID).Str("panic", fmt.Sprint(r)).Msg("tool execution panicked")
				result = nil
				err = &DispatchError{
					Kind:        KindExecutionError,
					OperationID: operationID,
					Err:         fmt.Errorf("panic: %v", r),
				}
			}
		}()

		body := input
		if len(body) == 0 {
			body = map[string]any{}
		}

		logger.Debug().Str("operation_id", operationID).Str("method", method).Str("path", path).Int("args", len(body)).Msg("executing tool")

		resp, err := d.client.Invoke(ctx, client.Request{
			OperationID: operationID,
			Method:      method,
			Path:        path,
			Body:        body,
		})
		duration := time.Since(start)
		if err != nil {
			logger.Warn().Str("operation_id", operationID).Int64("duration_ms", duration.Milliseconds()).Err(err).Msg("tool execution failed")
			return nil, &DispatchError{Kind: KindExecutionError, OperationID: operationID, Err: err}
		}
		if resp == nil {
			return nil, &DispatchError{Kind: KindExecutionError, OperationID: operationID, Err: errors.New("no response")}
		}

		if resp.Failed() {
			payload := encodePayload(resp.Error)
			logger.Warn().Str("operation_id", operationID).Int("status", resp.Status).Int64("duration_ms", duration.Milliseconds()).Msg("api returned error")
			return nil, &DispatchError{
				Kind:        KindAPIError,
				OperationID: operationID,
				Status:      resp.Status,
				Payload:     payload,
			}
		}

		logger.Debug().Str("operation_id", operationID).Int("status", resp.Status).Int64("duration_ms", duration.Milliseconds()).Msg("tool executed")
		return resp.Data, nil
	}
}

func encodePayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
