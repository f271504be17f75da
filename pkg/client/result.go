package client

import (
	"errors"
	"time"

	"github.com/Sternrassler/docfetch/pkg/document"
)

// BatchResult summarizes one GetDocuments call. Per-task details stay on
// the tasks themselves.
type BatchResult struct {
	BatchID  string
	Total    int
	Skipped  int
	Written  int
	Failed   int
	Duration time.Duration

	// Failures lists the failed tasks in submission order.
	Failures []*document.Task
}

// Err joins the errors of all failed tasks, or returns nil when none failed.
func (r *BatchResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, t := range r.Failures {
		errs = append(errs, t.Err)
	}
	return errors.Join(errs...)
}

func (r *BatchResult) record(t *document.Task) {
	switch t.Outcome {
	case document.OutcomeSkipped:
		r.Skipped++
	case document.OutcomeWritten:
		r.Written++
	case document.OutcomeFailed:
		r.Failed++
		r.Failures = append(r.Failures, t)
	}
	tasksTotal.WithLabelValues(string(t.Outcome)).Inc()
}
