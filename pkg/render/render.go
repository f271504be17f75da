// Package render converts fetched HTML into PDF documents.
//
// Conversion is CPU-bound and delegated to an external program; each call
// runs one process and blocks until it exits.
package render

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for conversions.
var (
	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docfetch_render_duration_seconds",
		Help:    "Duration of a single HTML to PDF conversion in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_renders_total",
		Help: "Total conversions by result",
	}, []string{"result"})
)

// Renderer converts HTML bytes to PDF bytes.
// Implementations must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, html []byte, s Settings) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, html []byte, s Settings) ([]byte, error)

// Render calls f(ctx, html, s).
func (f RendererFunc) Render(ctx context.Context, html []byte, s Settings) ([]byte, error) {
	return f(ctx, html, s)
}
