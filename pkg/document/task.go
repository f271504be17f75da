// Package document defines the unit of work carried through a batch:
// a source locator, a destination, a conversion flag and the result slots
// the pools fill in while the task moves through its state machine.
package document

import (
	"fmt"
)

// Outcome is the terminal result of a task.
type Outcome string

const (
	// OutcomePending means the task has not been processed yet.
	OutcomePending Outcome = "pending"

	// OutcomeSkipped means the destination already existed and nothing was fetched.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeWritten means the task was fetched (and converted if requested)
	// and the final bytes were written to the destination.
	OutcomeWritten Outcome = "written"

	// OutcomeFailed means the task stopped with a TaskError in Err.
	OutcomeFailed Outcome = "failed"
)

// IsTerminal reports whether o is one of the terminal outcomes.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeSkipped || o == OutcomeWritten || o == OutcomeFailed
}

// Stage tracks where a task is in the pipeline.
type Stage string

const (
	StagePending    Stage = "pending"
	StageFetching   Stage = "fetching"
	StageConverting Stage = "converting"
	StageDone       Stage = "done"
)

// Task is one resource-to-destination unit of work.
//
// The caller owns a Task for its whole lifetime. During a batch call the
// engine mutates it from exactly one goroutine at a time; callers must not
// read the result fields until the batch call has returned.
type Task struct {
	// Destination is the path (or object key) the final bytes are written to.
	// Destinations must be unique within a batch.
	Destination string

	// Source is the locator handed to the fetcher, usually an absolute URL.
	Source string

	// Convert routes the fetched bytes through the renderer before writing.
	Convert bool

	// RawBytes holds the fetched payload. Nil until a fetch succeeds.
	RawBytes []byte

	// FinalBytes holds what is written to Destination: the rendered document
	// when Convert is set, RawBytes otherwise.
	FinalBytes []byte

	// Outcome is OutcomePending until the task reaches a terminal state.
	Outcome Outcome

	// Stage is the last pipeline stage the task entered.
	Stage Stage

	// Err is set to a *TaskError when Outcome is OutcomeFailed.
	Err error
}

// NewTask creates a pending task.
func NewTask(destination, source string, convert bool) *Task {
	return &Task{
		Destination: destination,
		Source:      source,
		Convert:     convert,
		Outcome:     OutcomePending,
		Stage:       StagePending,
	}
}

// Validate checks the fields a batch needs before scheduling. The outcome is
// not checked; a batch resets finished tasks before running them again.
func (t *Task) Validate() error {
	if t.Destination == "" {
		return fmt.Errorf("destination is required (source %q)", t.Source)
	}
	if t.Source == "" {
		return fmt.Errorf("source is required (destination %q)", t.Destination)
	}
	return nil
}

// Reset returns the task to the pending state and drops any results,
// so the same slice can be handed to another batch call.
func (t *Task) Reset() {
	t.RawBytes = nil
	t.FinalBytes = nil
	t.Outcome = OutcomePending
	t.Stage = StagePending
	t.Err = nil
}

// Enter records that the task moved to stage s.
func (t *Task) Enter(s Stage) {
	t.Stage = s
}

// Skip marks the task as skipped. It returns false if the task was already terminal.
func (t *Task) Skip() bool {
	return t.finish(OutcomeSkipped, nil)
}

// Written marks the task as successfully written.
func (t *Task) Written() bool {
	return t.finish(OutcomeWritten, nil)
}

// Fail marks the task as failed with the given kind and cause.
func (t *Task) Fail(kind FailureKind, err error) bool {
	return t.finish(OutcomeFailed, &TaskError{
		Kind:        kind,
		Destination: t.Destination,
		Source:      t.Source,
		Err:         err,
	})
}

func (t *Task) finish(o Outcome, err error) bool {
	if t.Outcome.IsTerminal() {
		return false
	}
	t.Outcome = o
	t.Stage = StageDone
	if err != nil {
		t.Err = err
	}
	return true
}
