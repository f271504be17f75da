package render

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultBinary is the wkhtmltopdf executable looked up on PATH.
const DefaultBinary = "wkhtmltopdf"

// maxStderr bounds how much renderer diagnostics end up in an error.
const maxStderr = 1024

// Wkhtmltopdf renders by running the wkhtmltopdf program, HTML on stdin and
// PDF on stdout.
type Wkhtmltopdf struct {
	// Binary is the executable to run (default: DefaultBinary).
	Binary string

	logger zerolog.Logger
}

// NewWkhtmltopdf creates a renderer running binary. An empty binary means
// DefaultBinary.
func NewWkhtmltopdf(binary string) *Wkhtmltopdf {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Wkhtmltopdf{
		Binary: binary,
		logger: logging.NewLogger("render"),
	}
}

// SetLogger replaces the renderer's logger.
func (w *Wkhtmltopdf) SetLogger(logger zerolog.Logger) {
	w.logger = logger
}

// Render runs one wkhtmltopdf process for html.
func (w *Wkhtmltopdf) Render(ctx context.Context, html []byte, s Settings) ([]byte, error) {
	if err := s.Validate(); err != nil {
		rendersTotal.WithLabelValues("invalid_settings").Inc()
		return nil, &RenderError{Reason: ReasonStart, Err: err}
	}

	binary := w.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	args := append(s.Arguments(), "--quiet", "-", "-")
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(html)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	renderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			rendersTotal.WithLabelValues("context").Inc()
			return nil, &RenderError{Reason: ReasonContext, Err: ctx.Err()}
		case errors.As(err, &exitErr):
			rendersTotal.WithLabelValues("exit_error").Inc()
			w.logger.Debug().
				Int("exit_code", exitErr.ExitCode()).
				Int("html_bytes", len(html)).
				Msg("wkhtmltopdf exited with error")
			return nil, &RenderError{
				Reason:   ReasonExit,
				ExitCode: exitErr.ExitCode(),
				Stderr:   trimStderr(stderr.String()),
				Err:      err,
			}
		default:
			rendersTotal.WithLabelValues("start_error").Inc()
			return nil, &RenderError{Reason: ReasonStart, Err: err}
		}
	}

	out := stdout.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		rendersTotal.WithLabelValues("invalid_output").Inc()
		return nil, &RenderError{
			Reason: ReasonOutput,
			Stderr: trimStderr(stderr.String()),
			Err:    ErrInvalidOutput,
		}
	}

	rendersTotal.WithLabelValues("success").Inc()
	return out, nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
