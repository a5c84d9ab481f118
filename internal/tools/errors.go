package tools

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned by Registry.Invoke for names it does not hold.
var ErrUnknownTool = errors.New("unknown tool")

// ErrorKind classifies a failed tool execution.
type ErrorKind string

const (
	// KindUnknownOperation: a per-resource tool received an action it does not serve.
	KindUnknownOperation ErrorKind = "unknown_operation"
	// KindAPIError: the API answered with an error payload.
	KindAPIError ErrorKind = "api_error"
	// KindExecutionError: the call failed before an answer was received.
	KindExecutionError ErrorKind = "execution_error"
)

// DispatchError describes a failed tool execution.
type DispatchError struct {
	Kind        ErrorKind
	OperationID string
	Status      int
	Payload     string
	Err         error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindUnknownOperation:
		if e.OperationID == "" {
			return "unknown operation: no action given"
		}
		return fmt.Sprintf("unknown operation: %s", e.OperationID)
	case KindAPIError:
		return fmt.Sprintf("failed to execute %s: API error %d: %s", e.OperationID, e.Status, e.Payload)
	default:
		if e.Err == nil {
			return fmt.Sprintf("failed to execute %s", e.OperationID)
		}
		return fmt.Sprintf("failed to execute %s: %v", e.OperationID, e.Err)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a DispatchError in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
