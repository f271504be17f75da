// Package config loads batch files for the docfetch command: the list of
// documents to materialize plus the settings of the run. Batch files are
// YAML; a few settings can be overridden from the environment.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Sternrassler/docfetch/pkg/client"
	"github.com/Sternrassler/docfetch/pkg/document"
	"github.com/Sternrassler/docfetch/pkg/fetch"
	"github.com/Sternrassler/docfetch/pkg/ratelimit"
	"github.com/Sternrassler/docfetch/pkg/render"
	"gopkg.in/yaml.v3"
)

// Document is one entry of the documents list.
type Document struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Convert     bool   `yaml:"convert"`
}

// Render holds renderer options. Zero values keep the renderer defaults.
type Render struct {
	Binary               string `yaml:"binary"`
	PageSize             string `yaml:"page_size"`
	Orientation          string `yaml:"orientation"`
	DPI                  int    `yaml:"dpi"`
	ImageDPI             int    `yaml:"image_dpi"`
	ImageQuality         int    `yaml:"image_quality"`
	JavascriptDelay      string `yaml:"javascript_delay"`
	MarginTop            string `yaml:"margin_top"`
	MarginRight          string `yaml:"margin_right"`
	MarginBottom         string `yaml:"margin_bottom"`
	MarginLeft           string `yaml:"margin_left"`
	DisableExternalLinks bool   `yaml:"disable_external_links"`
	DisableJavascript    bool   `yaml:"disable_javascript"`
	EnableForms          bool   `yaml:"enable_forms"`
	Grayscale            bool   `yaml:"grayscale"`
	LowQuality           bool   `yaml:"low_quality"`
	NoBackground         bool   `yaml:"no_background"`
	NoImages             bool   `yaml:"no_images"`
	NoPDFCompression     bool   `yaml:"no_pdf_compression"`
}

// Settings holds the run settings. Zero values fall back to the library
// defaults.
type Settings struct {
	MaxRequestsPerSecond int    `yaml:"max_requests_per_second"`
	MaxThreadsCPU        int    `yaml:"max_threads_cpu"`
	MaxThreadsIO         int    `yaml:"max_threads_io"`
	RenderZoom           string `yaml:"render_zoom"`
	RatePolicy           string `yaml:"rate_policy"`
	RateBurst            int    `yaml:"rate_burst"`
	LoadExisting         bool   `yaml:"load_existing"`

	// OutputDir prefixes relative disk destinations.
	OutputDir string `yaml:"output_dir"`

	// StorageURL selects a blob bucket (mem://, file:///dir, s3://name,
	// gs://name). Empty means local disk.
	StorageURL string `yaml:"storage_url"`

	// RedisURL enables the fetch response cache (redis://host:port/db).
	RedisURL string `yaml:"redis_url"`

	UserAgent  string `yaml:"user_agent"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`

	Render Render `yaml:"render"`
}

// File is a parsed batch file.
type File struct {
	Settings  Settings   `yaml:"settings"`
	Documents []Document `yaml:"documents"`
}

// Load reads and parses the batch file at path and applies environment
// overrides.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := f.ApplyEnv(); err != nil {
		return nil, err
	}
	return f, nil
}

// Parse decodes a batch file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.Documents) == 0 {
		return nil, fmt.Errorf("documents list is empty")
	}
	return &f, nil
}

// ApplyEnv overrides settings from DOCFETCH_* variables and REDIS_URL.
func (f *File) ApplyEnv() error {
	s := &f.Settings

	s.OutputDir = getEnv("DOCFETCH_OUTPUT_DIR", s.OutputDir)
	s.StorageURL = getEnv("DOCFETCH_STORAGE_URL", s.StorageURL)
	s.RedisURL = getEnv("REDIS_URL", s.RedisURL)
	s.RenderZoom = getEnv("DOCFETCH_RENDER_ZOOM", s.RenderZoom)
	s.Render.Binary = getEnv("DOCFETCH_WKHTMLTOPDF", s.Render.Binary)

	for key, dst := range map[string]*int{
		"DOCFETCH_MAX_REQUESTS_PER_SECOND": &s.MaxRequestsPerSecond,
		"DOCFETCH_MAX_THREADS_CPU":         &s.MaxThreadsCPU,
		"DOCFETCH_MAX_THREADS_IO":          &s.MaxThreadsIO,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
		}
		*dst = n
	}
	return nil
}

// Tasks builds one pending task per document. Relative disk destinations
// are joined with OutputDir; bucket destinations are used as object keys.
func (f *File) Tasks() []*document.Task {
	tasks := make([]*document.Task, 0, len(f.Documents))
	for _, d := range f.Documents {
		dest := d.Destination
		if f.Settings.StorageURL == "" && f.Settings.OutputDir != "" && !filepath.IsAbs(dest) {
			dest = filepath.Join(f.Settings.OutputDir, dest)
		}
		tasks = append(tasks, document.NewTask(dest, d.Source, d.Convert))
	}
	return tasks
}

// ClientConfig maps the settings onto a client configuration. Fetcher,
// Renderer and Store are left for the caller to wire.
func (f *File) ClientConfig() (client.Config, error) {
	s := f.Settings
	cfg := client.DefaultConfig()

	if s.MaxRequestsPerSecond != 0 {
		cfg.MaxRequestsPerSecond = s.MaxRequestsPerSecond
	}
	if s.MaxThreadsCPU != 0 {
		cfg.MaxThreadsCPU = s.MaxThreadsCPU
	}
	if s.MaxThreadsIO != 0 {
		cfg.MaxThreadsIO = s.MaxThreadsIO
	}
	if s.RatePolicy != "" {
		cfg.RatePolicy = ratelimit.Policy(s.RatePolicy)
	}
	cfg.RateBurst = s.RateBurst
	cfg.RenderZoom = s.RenderZoom
	cfg.LoadExisting = s.LoadExisting

	settings, err := f.RenderSettings()
	if err != nil {
		return client.Config{}, err
	}
	cfg.RenderSettings = &settings

	return cfg, nil
}

// RenderSettings returns renderer settings with the file's overrides applied
// on top of render.DefaultSettings.
func (f *File) RenderSettings() (render.Settings, error) {
	r := f.Settings.Render
	s := render.DefaultSettings()

	if r.PageSize != "" {
		s.PageSize = render.PageSize(r.PageSize)
	}
	if r.Orientation != "" {
		s.Orientation = render.Orientation(r.Orientation)
	}
	if r.DPI != 0 {
		s.DPI = r.DPI
	}
	if r.ImageDPI != 0 {
		s.ImageDPI = r.ImageDPI
	}
	if r.ImageQuality != 0 {
		s.ImageQuality = r.ImageQuality
	}
	if r.JavascriptDelay != "" {
		d, err := time.ParseDuration(r.JavascriptDelay)
		if err != nil {
			return render.Settings{}, fmt.Errorf("render.javascript_delay: %w", err)
		}
		s.JavascriptDelay = d
	}
	override(&s.MarginTop, r.MarginTop)
	override(&s.MarginRight, r.MarginRight)
	override(&s.MarginBottom, r.MarginBottom)
	override(&s.MarginLeft, r.MarginLeft)

	s.DisableExternalLinks = r.DisableExternalLinks
	s.DisableJavascript = r.DisableJavascript
	s.EnableForms = r.EnableForms
	s.Grayscale = r.Grayscale
	s.LowQuality = r.LowQuality
	s.NoBackground = r.NoBackground
	s.NoImages = r.NoImages
	s.NoPDFCompression = r.NoPDFCompression

	return s, nil
}

// FetchConfig returns the HTTP fetcher configuration.
func (f *File) FetchConfig() (fetch.Config, error) {
	s := f.Settings
	cfg := fetch.DefaultConfig()

	if s.UserAgent != "" {
		cfg.UserAgent = s.UserAgent
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fetch.Config{}, fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if s.MaxRetries != 0 {
		cfg.Retry.MaxAttempts = s.MaxRetries
	}
	return cfg, nil
}

// override sets dst to v unless v is empty.
func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
