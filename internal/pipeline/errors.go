package pipeline

import (
	"errors"
	"fmt"
)

// StageErrorKind classifies why a stage failed.
type StageErrorKind string

const (
	// MissingField marks an input contract violation, detected before any
	// network call is made.
	MissingField StageErrorKind = "missing_field"
	// UpstreamFailure wraps an inference failure that survived retries.
	UpstreamFailure StageErrorKind = "upstream_failure"
)

// StageError is the typed failure of one generator stage.
type StageError struct {
	Stage string
	Kind  StageErrorKind
	Field string
	Err   error
}

func (e *StageError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("%s stage: missing required field %q", e.Stage, e.Field)
	default:
		return fmt.Sprintf("%s stage: upstream failure: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func missingField(stage, field string) *StageError {
	return &StageError{Stage: stage, Kind: MissingField, Field: field}
}

func upstreamFailure(stage string, err error) *StageError {
	return &StageError{Stage: stage, Kind: UpstreamFailure, Err: err}
}

// PipelineError wraps the first fatal stage failure. When it is returned no
// partial artifact has been persisted.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s stage: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// AsStageError extracts the originating StageError from a pipeline failure.
func AsStageError(err error) (*StageError, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr, true
	}
	return nil, false
}
