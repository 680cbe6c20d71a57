package inference

import (
	"fmt"
	"strings"
)

// FailureClass tags the reason a single endpoint call failed.
type FailureClass string

const (
	ClassConnectionRefused FailureClass = "connection_refused"
	ClassTimeout           FailureClass = "timeout"
	ClassServerError       FailureClass = "server_error"
	ClassUnknown           FailureClass = "unknown"
)

// CallError describes one failed endpoint call.
type CallError struct {
	Class  FailureClass
	Status int
	Err    error
	Body   string
}

func (e *CallError) Error() string {
	switch e.Class {
	case ClassServerError:
		detail := strings.TrimSpace(e.Body)
		if detail == "" {
			return fmt.Sprintf("inference call: http %d", e.Status)
		}
		return fmt.Sprintf("inference call: http %d: %s", e.Status, detail)
	default:
		return fmt.Sprintf("inference call: %s: %v", e.Class, e.Err)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that every retry attempt was spent. It carries the
// last per-call failure so callers can distinguish exhaustion from a valid
// empty completion.
type ExhaustedError struct {
	Attempts int
	Last     *CallError
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("inference call: failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}
