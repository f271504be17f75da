package render

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.DPI != 96 {
		t.Errorf("DPI = %d, want 96", s.DPI)
	}
	if s.ImageDPI != 600 {
		t.Errorf("ImageDPI = %d, want 600", s.ImageDPI)
	}
	if s.ImageQuality != 94 {
		t.Errorf("ImageQuality = %d, want 94", s.ImageQuality)
	}
	if s.JavascriptDelay != 200*time.Millisecond {
		t.Errorf("JavascriptDelay = %v, want 200ms", s.JavascriptDelay)
	}
	if s.MarginTop != "0.5in" || s.MarginBottom != "0.5in" || s.MarginLeft != "0.5in" || s.MarginRight != "0.5in" {
		t.Errorf("margins = %s/%s/%s/%s, want 0.5in", s.MarginTop, s.MarginRight, s.MarginBottom, s.MarginLeft)
	}
	if s.Orientation != Portrait {
		t.Errorf("Orientation = %s, want Portrait", s.Orientation)
	}
	if s.PageSize != PageLetter {
		t.Errorf("PageSize = %s, want Letter", s.PageSize)
	}

	wantZoom := 1.0
	if runtime.GOOS == "darwin" {
		wantZoom = 3.5
	}
	if s.Zoom != wantZoom {
		t.Errorf("Zoom = %v, want %v", s.Zoom, wantZoom)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
}

func TestSettings_Arguments(t *testing.T) {
	s := DefaultSettings()
	s.Zoom = 1.0

	want := "--dpi 96 --image-dpi 600 --image-quality 94 --javascript-delay 200 " +
		"--margin-bottom 0.5in --margin-left 0.5in --margin-right 0.5in --margin-top 0.5in " +
		"--orientation Portrait --page-size Letter --zoom 1.00"

	if got := strings.Join(s.Arguments(), " "); got != want {
		t.Errorf("Arguments() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestSettings_ArgumentsFlags(t *testing.T) {
	s := DefaultSettings()
	s.DisableExternalLinks = true
	s.DisableJavascript = true
	s.EnableForms = true
	s.Grayscale = true
	s.LowQuality = true
	s.NoBackground = true
	s.NoImages = true
	s.NoPDFCompression = true
	s.Orientation = Landscape
	s.PageSize = PageA4
	s.Zoom = 3.5

	args := strings.Join(s.Arguments(), " ")
	for _, flag := range []string{
		"--disable-external-links",
		"--disable-javascript",
		"--enable-forms",
		"--grayscale",
		"--low-quality",
		"--no-background",
		"--no-images",
		"--no-pdf-compression",
		"--orientation Landscape",
		"--page-size A4",
		"--zoom 3.50",
	} {
		if !strings.Contains(args, flag) {
			t.Errorf("Arguments() missing %q: %s", flag, args)
		}
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Settings)
		errorMsg string
	}{
		{"zero dpi", func(s *Settings) { s.DPI = 0 }, "dpi must be > 0 (got 0)"},
		{"zero image dpi", func(s *Settings) { s.ImageDPI = 0 }, "image_dpi must be > 0 (got 0)"},
		{"quality too high", func(s *Settings) { s.ImageQuality = 101 }, "image_quality must be within 0..100 (got 101)"},
		{"negative delay", func(s *Settings) { s.JavascriptDelay = -time.Second }, "javascript_delay must be >= 0 (got -1s)"},
		{"zero zoom", func(s *Settings) { s.Zoom = 0 }, "zoom must be > 0 (got 0.00)"},
		{"bad orientation", func(s *Settings) { s.Orientation = "Sideways" }, `unknown orientation "Sideways"`},
		{"bad page size", func(s *Settings) { s.PageSize = "A11" }, `unknown page size "A11"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)

			err := s.Validate()
			if err == nil {
				t.Fatal("Expected error but got nil")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestParseZoom(t *testing.T) {
	tests := []struct {
		input       string
		want        float64
		expectError bool
	}{
		{input: "1.0", want: 1.0},
		{input: " 3.5 ", want: 3.5},
		{input: "2", want: 2},
		{input: "", want: DefaultZoom()},
		{input: "abc", expectError: true},
		{input: "0", expectError: true},
		{input: "-1.5", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseZoom(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ParseZoom(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseZoom(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseZoom(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
