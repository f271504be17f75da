package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/docfetch/pkg/ratelimit"
	"github.com/Sternrassler/docfetch/pkg/render"
)

const sampleBatch = `
settings:
  max_requests_per_second: 5
  max_threads_io: 20
  render_zoom: "1.5"
  rate_policy: token_bucket
  rate_burst: 3
  output_dir: /tmp/out
  user_agent: "filings-bot/1.0 (ops@example.com)"
  timeout: 10s
  max_retries: 5
  render:
    page_size: A4
    orientation: Landscape
    javascript_delay: 1s
    margin_top: 1in
    grayscale: true
documents:
  - source: https://example.com/a.htm
    destination: a.pdf
    convert: true
  - source: https://example.com/b.htm
    destination: /abs/b.htm
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(f.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(f.Documents))
	}
	if !f.Documents[0].Convert || f.Documents[1].Convert {
		t.Errorf("convert flags = %v/%v", f.Documents[0].Convert, f.Documents[1].Convert)
	}
	if f.Settings.MaxRequestsPerSecond != 5 {
		t.Errorf("MaxRequestsPerSecond = %d, want 5", f.Settings.MaxRequestsPerSecond)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"empty documents", "settings:\n  max_threads_io: 1\n", "documents list is empty"},
		{"unknown key", "documents:\n  - source: x\n    destination: y\n    colour: red\n", "colour"},
		{"malformed", "documents: [", "decode yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Expected error but got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestTasks(t *testing.T) {
	f, err := Parse([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tasks := f.Tasks()
	if got, want := tasks[0].Destination, filepath.Join("/tmp/out", "a.pdf"); got != want {
		t.Errorf("relative destination = %q, want %q", got, want)
	}
	if got := tasks[1].Destination; got != "/abs/b.htm" {
		t.Errorf("absolute destination = %q, want unchanged", got)
	}

	f.Settings.StorageURL = "mem://"
	if got := f.Tasks()[0].Destination; got != "a.pdf" {
		t.Errorf("bucket destination = %q, want object key a.pdf", got)
	}
}

func TestClientConfig(t *testing.T) {
	f, err := Parse([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := f.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}

	if cfg.MaxRequestsPerSecond != 5 {
		t.Errorf("MaxRequestsPerSecond = %d, want 5", cfg.MaxRequestsPerSecond)
	}
	if cfg.MaxThreadsIO != 20 {
		t.Errorf("MaxThreadsIO = %d, want 20", cfg.MaxThreadsIO)
	}
	if cfg.MaxThreadsCPU != runtime.NumCPU() {
		t.Errorf("MaxThreadsCPU = %d, want default %d", cfg.MaxThreadsCPU, runtime.NumCPU())
	}
	if cfg.RatePolicy != ratelimit.PolicyTokenBucket || cfg.RateBurst != 3 {
		t.Errorf("rate = %s/%d, want token_bucket/3", cfg.RatePolicy, cfg.RateBurst)
	}
	if cfg.RenderZoom != "1.5" {
		t.Errorf("RenderZoom = %q, want 1.5", cfg.RenderZoom)
	}

	s := cfg.RenderSettings
	if s == nil {
		t.Fatal("RenderSettings is nil")
	}
	if s.PageSize != render.PageA4 || s.Orientation != render.Landscape {
		t.Errorf("page = %s/%s, want A4/Landscape", s.PageSize, s.Orientation)
	}
	if s.JavascriptDelay != time.Second {
		t.Errorf("JavascriptDelay = %v, want 1s", s.JavascriptDelay)
	}
	if s.MarginTop != "1in" || s.MarginBottom != "0.5in" {
		t.Errorf("margins = %s/%s, want 1in/0.5in", s.MarginTop, s.MarginBottom)
	}
	if !s.Grayscale {
		t.Error("Grayscale = false, want true")
	}
	if s.DPI != 96 {
		t.Errorf("DPI = %d, want default 96", s.DPI)
	}
}

func TestRenderSettings_InvalidDelay(t *testing.T) {
	f := &File{Settings: Settings{Render: Render{JavascriptDelay: "soon"}}}
	if _, err := f.RenderSettings(); err == nil {
		t.Error("Expected error for invalid javascript_delay")
	}
}

func TestFetchConfig(t *testing.T) {
	f, err := Parse([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := f.FetchConfig()
	if err != nil {
		t.Fatalf("FetchConfig() error = %v", err)
	}
	if cfg.UserAgent != "filings-bot/1.0 (ops@example.com)" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}

	f.Settings.Timeout = "forever"
	if _, err := f.FetchConfig(); err == nil {
		t.Error("Expected error for invalid timeout")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DOCFETCH_MAX_REQUESTS_PER_SECOND", "42")
	t.Setenv("DOCFETCH_OUTPUT_DIR", "/srv/docs")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	f, err := Parse([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := f.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if f.Settings.MaxRequestsPerSecond != 42 {
		t.Errorf("MaxRequestsPerSecond = %d, want 42", f.Settings.MaxRequestsPerSecond)
	}
	if f.Settings.OutputDir != "/srv/docs" {
		t.Errorf("OutputDir = %q", f.Settings.OutputDir)
	}
	if f.Settings.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q", f.Settings.RedisURL)
	}
	if f.Settings.MaxThreadsIO != 20 {
		t.Errorf("MaxThreadsIO = %d, want file value 20", f.Settings.MaxThreadsIO)
	}
}

func TestApplyEnv_InvalidInteger(t *testing.T) {
	t.Setenv("DOCFETCH_MAX_THREADS_IO", "many")

	f := &File{}
	if err := f.ApplyEnv(); err == nil {
		t.Error("Expected error for non-integer override")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(sampleBatch), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Documents) != 2 {
		t.Errorf("documents = %d, want 2", len(f.Documents))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}
