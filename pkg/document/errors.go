package document

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a task failed.
type FailureKind string

const (
	// KindFetch covers network failures and non-success responses.
	KindFetch FailureKind = "fetch"

	// KindRender covers renderer start failures, non-zero exits and malformed output.
	KindRender FailureKind = "render"

	// KindWrite covers storage failures while checking or writing the destination.
	KindWrite FailureKind = "write"
)

// Sentinel errors matched by TaskError.Is.
var (
	ErrFetch  = errors.New("fetch error")
	ErrRender = errors.New("render error")
	ErrWrite  = errors.New("write error")
)

// TaskError is the terminal error of a failed task. It is scoped to one task
// and never aborts the rest of the batch.
type TaskError struct {
	Kind        FailureKind
	Destination string
	Source      string
	Err         error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s -> %s: %v", e.Kind, e.Source, e.Destination, e.Err)
	}
	return fmt.Sprintf("%s %s -> %s", e.Kind, e.Source, e.Destination)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrFetch) and friends match on the failure kind.
func (e *TaskError) Is(target error) bool {
	switch target {
	case ErrFetch:
		return e.Kind == KindFetch
	case ErrRender:
		return e.Kind == KindRender
	case ErrWrite:
		return e.Kind == KindWrite
	default:
		return false
	}
}
