package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/docfetch/pkg/render"
)

// ErrRendererUnavailable is what FailingRenderer returns.
var ErrRendererUnavailable = errors.New("renderer unavailable")

// FakeRenderer wraps HTML into a fake PDF and records concurrency.
type FakeRenderer struct {
	// Delay simulates conversion work.
	Delay time.Duration

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	mu       sync.Mutex
	settings []render.Settings
}

// Render returns "%PDF-fake\n" followed by the input.
func (f *FakeRenderer) Render(ctx context.Context, html []byte, s render.Settings) ([]byte, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	f.mu.Lock()
	f.settings = append(f.settings, s)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return FakePDF(html), nil
}

// Calls returns the number of Render calls.
func (f *FakeRenderer) Calls() int {
	return int(f.calls.Load())
}

// MaxInFlight returns the highest number of concurrent Render calls seen.
func (f *FakeRenderer) MaxInFlight() int {
	return int(f.maxInFlight.Load())
}

// Settings returns the settings of every call so far.
func (f *FakeRenderer) Settings() []render.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]render.Settings(nil), f.settings...)
}

// FakePDF is the output FakeRenderer produces for html.
func FakePDF(html []byte) []byte {
	return append([]byte("%PDF-fake\n"), html...)
}

// FailingRenderer always fails, like a renderer binary that is not installed.
type FailingRenderer struct {
	calls atomic.Int64
}

// Render always returns a *render.RenderError wrapping ErrRendererUnavailable.
func (f *FailingRenderer) Render(ctx context.Context, html []byte, s render.Settings) ([]byte, error) {
	f.calls.Add(1)
	return nil, &render.RenderError{Reason: "start", Err: ErrRendererUnavailable}
}

// Calls returns the number of Render calls.
func (f *FailingRenderer) Calls() int {
	return int(f.calls.Load())
}
