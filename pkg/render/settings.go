package render

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Orientation of the rendered page.
type Orientation string

const (
	Portrait  Orientation = "Portrait"
	Landscape Orientation = "Landscape"
)

// PageSize names a paper format understood by wkhtmltopdf.
type PageSize string

const (
	PageA0        PageSize = "A0"
	PageA1        PageSize = "A1"
	PageA2        PageSize = "A2"
	PageA3        PageSize = "A3"
	PageA4        PageSize = "A4"
	PageA5        PageSize = "A5"
	PageA6        PageSize = "A6"
	PageA7        PageSize = "A7"
	PageA8        PageSize = "A8"
	PageA9        PageSize = "A9"
	PageB0        PageSize = "B0"
	PageB1        PageSize = "B1"
	PageB2        PageSize = "B2"
	PageB3        PageSize = "B3"
	PageB4        PageSize = "B4"
	PageB5        PageSize = "B5"
	PageB6        PageSize = "B6"
	PageB7        PageSize = "B7"
	PageB8        PageSize = "B8"
	PageB9        PageSize = "B9"
	PageB10       PageSize = "B10"
	PageC5E       PageSize = "C5E"
	PageComm10E   PageSize = "Comm10E"
	PageDLE       PageSize = "DLE"
	PageExecutive PageSize = "Executive"
	PageFolio     PageSize = "Folio"
	PageLedger    PageSize = "Ledger"
	PageLegal     PageSize = "Legal"
	PageLetter    PageSize = "Letter"
	PageTabloid   PageSize = "Tabloid"
)

var pageSizes = map[PageSize]bool{
	PageA0: true, PageA1: true, PageA2: true, PageA3: true, PageA4: true,
	PageA5: true, PageA6: true, PageA7: true, PageA8: true, PageA9: true,
	PageB0: true, PageB1: true, PageB2: true, PageB3: true, PageB4: true,
	PageB5: true, PageB6: true, PageB7: true, PageB8: true, PageB9: true,
	PageB10: true, PageC5E: true, PageComm10E: true, PageDLE: true,
	PageExecutive: true, PageFolio: true, PageLedger: true, PageLegal: true,
	PageLetter: true, PageTabloid: true,
}

// Settings controls a single conversion.
type Settings struct {
	DisableExternalLinks bool
	DisableJavascript    bool
	EnableForms          bool
	Grayscale            bool
	LowQuality           bool
	NoBackground         bool
	NoImages             bool
	NoPDFCompression     bool

	DPI             int
	ImageDPI        int
	ImageQuality    int
	JavascriptDelay time.Duration
	MarginBottom    string
	MarginLeft      string
	MarginRight     string
	MarginTop       string
	Orientation     Orientation
	PageSize        PageSize
	Zoom            float64
}

// DefaultZoom is the zoom used when none is configured: 3.5 on macOS, 1.0
// elsewhere.
func DefaultZoom() float64 {
	if runtime.GOOS == "darwin" {
		return 3.5
	}
	return 1.0
}

// DefaultSettings returns the settings used when a caller provides none.
func DefaultSettings() Settings {
	return Settings{
		DPI:             96,
		ImageDPI:        600,
		ImageQuality:    94,
		JavascriptDelay: 200 * time.Millisecond,
		MarginBottom:    "0.5in",
		MarginLeft:      "0.5in",
		MarginRight:     "0.5in",
		MarginTop:       "0.5in",
		Orientation:     Portrait,
		PageSize:        PageLetter,
		Zoom:            DefaultZoom(),
	}
}

// Validate checks the settings for values wkhtmltopdf would reject.
func (s Settings) Validate() error {
	if s.DPI <= 0 {
		return fmt.Errorf("dpi must be > 0 (got %d)", s.DPI)
	}
	if s.ImageDPI <= 0 {
		return fmt.Errorf("image_dpi must be > 0 (got %d)", s.ImageDPI)
	}
	if s.ImageQuality < 0 || s.ImageQuality > 100 {
		return fmt.Errorf("image_quality must be within 0..100 (got %d)", s.ImageQuality)
	}
	if s.JavascriptDelay < 0 {
		return fmt.Errorf("javascript_delay must be >= 0 (got %s)", s.JavascriptDelay)
	}
	if s.Zoom <= 0 {
		return fmt.Errorf("zoom must be > 0 (got %.2f)", s.Zoom)
	}
	if s.Orientation != Portrait && s.Orientation != Landscape {
		return fmt.Errorf("unknown orientation %q", s.Orientation)
	}
	if !pageSizes[s.PageSize] {
		return fmt.Errorf("unknown page size %q", s.PageSize)
	}
	return nil
}

// Arguments returns the wkhtmltopdf command line flags for s, excluding the
// input and output operands.
func (s Settings) Arguments() []string {
	var args []string
	if s.DisableExternalLinks {
		args = append(args, "--disable-external-links")
	}
	if s.DisableJavascript {
		args = append(args, "--disable-javascript")
	}
	if s.EnableForms {
		args = append(args, "--enable-forms")
	}
	args = append(args, "--dpi", strconv.Itoa(s.DPI))
	if s.Grayscale {
		args = append(args, "--grayscale")
	}
	args = append(args,
		"--image-dpi", strconv.Itoa(s.ImageDPI),
		"--image-quality", strconv.Itoa(s.ImageQuality),
	)
	if s.LowQuality {
		args = append(args, "--low-quality")
	}
	args = append(args,
		"--javascript-delay", strconv.FormatInt(s.JavascriptDelay.Milliseconds(), 10),
		"--margin-bottom", s.MarginBottom,
		"--margin-left", s.MarginLeft,
		"--margin-right", s.MarginRight,
		"--margin-top", s.MarginTop,
	)
	if s.NoBackground {
		args = append(args, "--no-background")
	}
	if s.NoImages {
		args = append(args, "--no-images")
	}
	if s.NoPDFCompression {
		args = append(args, "--no-pdf-compression")
	}
	args = append(args,
		"--orientation", string(s.Orientation),
		"--page-size", string(s.PageSize),
		"--zoom", fmt.Sprintf("%.2f", s.Zoom),
	)
	return args
}

// ParseZoom parses a zoom option such as "1.0" or "3.5". An empty string
// yields DefaultZoom.
func ParseZoom(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultZoom(), nil
	}
	zoom, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid render zoom %q: %w", v, err)
	}
	if zoom <= 0 {
		return 0, fmt.Errorf("render zoom must be > 0 (got %q)", v)
	}
	return zoom, nil
}
