package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_fetch_retries_total",
		Help: "Total number of fetch retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docfetch_fetch_retry_backoff_seconds",
		Help:    "Backoff duration for fetch retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_fetch_retry_exhausted_total",
		Help: "Total number of fetches that exhausted their retry attempts by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass scales base for an error class: rate limit
// responses back off five times longer, network errors twice as long.
func RetryConfigForErrorClass(base RetryConfig, class ErrorClass) RetryConfig {
	cfg := base
	switch class {
	case ErrorClassRateLimit:
		cfg.InitialBackoff *= 5
		cfg.MaxBackoff *= 2
	case ErrorClassNetwork:
		cfg.InitialBackoff *= 2
	}
	if cfg.InitialBackoff > cfg.MaxBackoff {
		cfg.InitialBackoff = cfg.MaxBackoff
	}
	return cfg
}

// errorClassOf extracts the class of a *FetchError, or network for anything else.
func errorClassOf(err error) ErrorClass {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Class
	}
	return ErrorClassNetwork
}

// retryWithBackoff executes fn with exponential backoff and ±20% jitter.
// The error class of each failure decides whether and how long to wait.
func retryWithBackoff(ctx context.Context, base RetryConfig, logger zerolog.Logger, fn func(attempt int) error) error {
	maxAttempts := base.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	var class ErrorClass

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(class)).
					Int("attempt", attempt).
					Msg("Fetch succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class = errorClassOf(err)

		if !shouldRetry(class) || ctx.Err() != nil {
			return lastErr
		}

		if attempt >= maxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(class)).Inc()

		cfg := RetryConfigForErrorClass(base, class)
		backoff := cfg.InitialBackoff
		for i := 1; i < attempt; i++ {
			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		}
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(jitter.Seconds())

		logger.Debug().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying fetch after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	logger.Warn().
		Str("error_class", string(class)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}
