package document

import (
	"errors"
	"strings"
	"testing"
)

func TestNewTask(t *testing.T) {
	task := NewTask("/tmp/a.pdf", "https://example.com/a", true)

	if task.Outcome != OutcomePending {
		t.Errorf("Outcome = %s, want pending", task.Outcome)
	}
	if task.Stage != StagePending {
		t.Errorf("Stage = %s, want pending", task.Stage)
	}
	if !task.Convert {
		t.Error("Convert should be true")
	}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name        string
		task        *Task
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid",
			task: NewTask("out.html", "https://example.com", false),
		},
		{
			name:        "missing destination",
			task:        NewTask("", "https://example.com", false),
			expectError: true,
			errorMsg:    `destination is required (source "https://example.com")`,
		},
		{
			name:        "missing source",
			task:        NewTask("out.html", "", false),
			expectError: true,
			errorMsg:    `source is required (destination "out.html")`,
		},
		{
			name:        "zero value outcome is pending",
			task:        &Task{Destination: "out.html", Source: "https://example.com"},
			expectError: false,
		},
		{
			name: "finished task is still valid",
			task: func() *Task {
				task := NewTask("out.html", "https://example.com", false)
				task.Skip()
				return task
			}(),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestTask_TransitionsOnce(t *testing.T) {
	task := NewTask("out.html", "https://example.com", false)

	if !task.Written() {
		t.Fatal("first transition should succeed")
	}
	if task.Fail(KindWrite, errors.New("late")) {
		t.Error("second transition should be rejected")
	}
	if task.Outcome != OutcomeWritten {
		t.Errorf("Outcome = %s, want written", task.Outcome)
	}
	if task.Err != nil {
		t.Errorf("Err = %v, want nil", task.Err)
	}
	if task.Stage != StageDone {
		t.Errorf("Stage = %s, want done", task.Stage)
	}
}

func TestTask_Fail(t *testing.T) {
	cause := errors.New("connection refused")
	task := NewTask("out.pdf", "https://example.com/doc", true)
	task.Enter(StageFetching)

	task.Fail(KindFetch, cause)

	if task.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %s, want failed", task.Outcome)
	}
	if !errors.Is(task.Err, ErrFetch) {
		t.Error("errors.Is(err, ErrFetch) should be true")
	}
	if errors.Is(task.Err, ErrRender) {
		t.Error("errors.Is(err, ErrRender) should be false")
	}
	if !errors.Is(task.Err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}

	var taskErr *TaskError
	if !errors.As(task.Err, &taskErr) {
		t.Fatal("errors.As should find *TaskError")
	}
	if taskErr.Kind != KindFetch {
		t.Errorf("Kind = %s, want fetch", taskErr.Kind)
	}
	if !strings.Contains(taskErr.Error(), "connection refused") {
		t.Errorf("Error() = %q, should contain cause", taskErr.Error())
	}
}

func TestTask_Reset(t *testing.T) {
	task := NewTask("out.html", "https://example.com", false)
	task.RawBytes = []byte("x")
	task.FinalBytes = task.RawBytes
	task.Fail(KindWrite, errors.New("disk full"))

	task.Reset()

	if task.Outcome != OutcomePending || task.Stage != StagePending {
		t.Errorf("after Reset: outcome=%s stage=%s", task.Outcome, task.Stage)
	}
	if task.RawBytes != nil || task.FinalBytes != nil || task.Err != nil {
		t.Error("Reset should clear result slots")
	}
	if err := task.Validate(); err != nil {
		t.Errorf("Validate after Reset: %v", err)
	}
}

func TestOutcome_IsTerminal(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{OutcomePending, false},
		{OutcomeSkipped, true},
		{OutcomeWritten, true},
		{OutcomeFailed, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.outcome.IsTerminal(); got != tt.want {
			t.Errorf("%q.IsTerminal() = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}
