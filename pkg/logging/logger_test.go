package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Level = %s, want info", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Pretty should default to false")
	}
	if cfg.Output == nil {
		t.Error("Output should default to stderr")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "INFO", want: LevelInfo},
		{input: " warn ", want: LevelWarn},
		{input: "Warning", want: "warning"},
		{input: "error", want: LevelError},
		{input: "off", want: "off"},
		{input: "verbose", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestZerologLevel(t *testing.T) {
	tests := map[LogLevel]zerolog.Level{
		LevelDebug:    zerolog.DebugLevel,
		LevelWarn:     zerolog.WarnLevel,
		"WARNING":     zerolog.WarnLevel,
		LevelDisabled: zerolog.Disabled,
		"none":        zerolog.Disabled,
		"bogus":       zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := zerologLevel(in); got != want {
			t.Errorf("zerologLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelWarn, Output: buf})

	logger.Info().Msg("batch started")
	logger.Warn().Msg("fetch failed")

	out := buf.String()
	if strings.Contains(out, "batch started") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "fetch failed") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestSetup_DisabledWritesNothing(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelDisabled, Output: buf})
	logger.Error().Msg("should not appear")

	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestSetup_PrettyOutput(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})

	logger.Info().Str("destination", "a.pdf").Msg("Document written")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("pretty output should not be JSON, got %q", out)
	}
	if !strings.Contains(out, "Document written") || !strings.Contains(out, "a.pdf") {
		t.Errorf("message and field missing from console output: %q", out)
	}
}

func TestScopedLoggers(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelDebug, Output: buf})

	logger := ForWorker(ForBatch(NewLogger("docfetch-client"), "b-1"), "network", 3)
	logger.Debug().Str("source", "https://example.com/a").Msg("Fetched")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not one JSON line: %v (%q)", err, buf.String())
	}

	want := map[string]any{
		"component": "docfetch-client",
		"batch_id":  "b-1",
		"pool":      "network",
		"worker_id": float64(3),
		"source":    "https://example.com/a",
		"message":   "Fetched",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %v", k, line[k], v)
		}
	}
}
