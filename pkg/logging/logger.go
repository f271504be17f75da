// Package logging configures the zerolog logger shared by docfetch
// packages and the command line tool, and derives the batch and worker
// scoped child loggers used while a batch runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as accepted on the command line.
type LogLevel string

const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
	LevelDisabled LogLevel = "disabled"
)

// levels maps every accepted spelling to its zerolog level.
var levels = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
	"off":      zerolog.Disabled,
	"none":     zerolog.Disabled,
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written. Unknown names fall back to info.
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to os.Stderr so stdout stays free for batch summaries.
	Output io.Writer
}

// DefaultConfig returns JSON output at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// ParseLevel normalizes a level name, rejecting unknown ones.
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if _, ok := levels[name]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return LogLevel(name), nil
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(zerologLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

func zerologLevel(level LogLevel) zerolog.Level {
	if l, ok := levels[strings.ToLower(string(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// NewLogger creates a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForBatch tags logger with a batch identifier.
func ForBatch(logger zerolog.Logger, batchID string) zerolog.Logger {
	return logger.With().Str("batch_id", batchID).Logger()
}

// ForWorker tags logger with the pool name and worker index.
func ForWorker(logger zerolog.Logger, pool string, workerID int) zerolog.Logger {
	return logger.With().Str("pool", pool).Int("worker_id", workerID).Logger()
}

// Log Level Guidelines:
//
// Debug: per-task progress (fetched, rendered, written, skipped), worker
// start/stop, rate limit waits and cache hits.
//
// Info: batch start and summary, fetches that succeeded after a retry,
// CLI startup and the metrics listener.
//
// Warn: per-task failures, retry exhaustion and cache errors. None of
// these stop a batch.
//
// Error: configuration errors that abort a batch, and Redis or storage
// backends that cannot be opened.
//
// Context Fields:
//   - batch_id: batch identifier (uuid)
//   - source: source locator of the task
//   - destination: destination path or object key
//   - pool, worker_id: which worker handled the task
//   - status, error_class: HTTP status and fetch error classification
