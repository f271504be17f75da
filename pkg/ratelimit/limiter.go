// Package ratelimit bounds how fast network operations may start.
// Every fetch passes through an Admitter before it is issued; the admitter
// is the only state shared by all network workers of a batch.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request admission.
var (
	admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_rate_limit_admissions_total",
		Help: "Total number of requests admitted by the rate limiter by policy",
	}, []string{"policy"})

	admissionWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docfetch_rate_limit_wait_seconds",
		Help:    "Time spent waiting for admission by policy",
		Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"policy"})
)

// Policy selects the admission algorithm.
type Policy string

const (
	// PolicyFixedWindow admits up to N requests per window measured from
	// construction. Bursts of up to 2N can straddle a window boundary.
	PolicyFixedWindow Policy = "fixed_window"

	// PolicyTokenBucket paces requests continuously at N per second with a
	// configurable burst.
	PolicyTokenBucket Policy = "token_bucket"
)

// Admitter gates the start of network operations.
//
// Admit blocks until the caller may proceed. It only returns an error when
// ctx ends while waiting; with a context that never ends it never fails.
type Admitter interface {
	Admit(ctx context.Context) error
}

// Config holds limiter configuration.
type Config struct {
	// Policy is the admission algorithm (default: fixed_window).
	Policy Policy

	// MaxPerSecond is the maximum number of admissions per second.
	MaxPerSecond int

	// Burst is the token bucket size (token_bucket only, default 1). It may
	// not exceed MaxPerSecond, which keeps any one second at or below
	// 2*MaxPerSecond admissions as with the fixed window.
	Burst int

	// Period overrides the one second window (fixed_window only). Tests use
	// short periods; production code leaves it zero.
	Period time.Duration
}

// New builds the admitter described by cfg.
func New(cfg Config, logger zerolog.Logger) (Admitter, error) {
	if cfg.MaxPerSecond <= 0 {
		return nil, fmt.Errorf("max requests per second must be > 0 (got %d)", cfg.MaxPerSecond)
	}

	switch cfg.Policy {
	case "", PolicyFixedWindow:
		period := cfg.Period
		if period <= 0 {
			period = time.Second
		}
		return NewFixedWindowPeriod(cfg.MaxPerSecond, period, logger), nil
	case PolicyTokenBucket:
		if cfg.Burst < 0 {
			return nil, fmt.Errorf("burst must be >= 0 (got %d)", cfg.Burst)
		}
		if cfg.Burst > cfg.MaxPerSecond {
			return nil, fmt.Errorf("burst must be <= max requests per second (got %d > %d)", cfg.Burst, cfg.MaxPerSecond)
		}
		return NewTokenBucket(cfg.MaxPerSecond, cfg.Burst), nil
	default:
		return nil, fmt.Errorf("unknown rate limit policy %q", cfg.Policy)
	}
}

// observeAdmission records the metrics for one admission.
func observeAdmission(policy Policy, waited time.Duration) {
	admissionsTotal.WithLabelValues(string(policy)).Inc()
	admissionWaitSeconds.WithLabelValues(string(policy)).Observe(waited.Seconds())
}
