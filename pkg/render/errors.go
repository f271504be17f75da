package render

import (
	"errors"
	"fmt"
)

// ErrInvalidOutput is returned when the renderer exits cleanly but does not
// produce a PDF.
var ErrInvalidOutput = errors.New("renderer output is not a PDF")

// Failure reasons carried by RenderError.
const (
	ReasonStart   = "start"
	ReasonExit    = "exit"
	ReasonOutput  = "output"
	ReasonContext = "context"
)

// RenderError describes a failed conversion.
type RenderError struct {
	Reason   string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render failed (%s)", e.Reason)
	if e.Reason == ReasonExit {
		msg = fmt.Sprintf("render failed (exit code %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RenderError) Unwrap() error {
	return e.Err
}
