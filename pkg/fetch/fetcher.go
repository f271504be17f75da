// Package fetch provides the network collaborator of a batch: a blocking
// "source in, bytes out" operation with its own timeout, retry and caching
// policy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/docfetch/pkg/cache"
	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for fetch operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_fetch_requests_total",
		Help: "Total fetches by HTTP status (or network_error, cache)",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docfetch_fetch_duration_seconds",
		Help:    "Fetch duration in seconds including retries",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_fetch_errors_total",
		Help: "Total fetch errors by class",
	}, []string{"class"})
)

// Fetcher retrieves the bytes behind a source locator.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, source string) ([]byte, error)

// Fetch calls f(ctx, source).
func (f FetcherFunc) Fetch(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// Config holds the HTTP fetcher configuration.
type Config struct {
	// User-Agent header sent with every request
	UserAgent string

	// Timeout per HTTP request (0 disables the timeout)
	Timeout time.Duration

	// MaxIdleConnsPerHost sizes the keep-alive pool; batches hit few hosts
	// with many workers.
	MaxIdleConnsPerHost int

	// MaxBodyBytes caps a response body (0 = unlimited)
	MaxBodyBytes int64

	// Retry policy for server, rate limit and network errors
	Retry RetryConfig

	// Cache is an optional Redis-backed response cache
	Cache *cache.Manager

	// Logger overrides the package logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:           "docfetch/0.1",
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 100,
		Retry:               DefaultRetryConfig(),
	}
}

// HTTPFetcher fetches sources over HTTP(S).
type HTTPFetcher struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates an HTTP fetcher.
func New(cfg Config) (*HTTPFetcher, error) {
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.MaxBodyBytes < 0 {
		return nil, fmt.Errorf("max_body_bytes must be >= 0 (got %d)", cfg.MaxBodyBytes)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BackoffMultiplier < 1 {
		cfg.Retry.BackoffMultiplier = 1
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 100
	}

	logger := logging.NewLogger("fetch")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxIdleConns:        cfg.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true, // store exactly what the server sent
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		cache:  cfg.Cache,
		config: cfg,
		logger: logger,
	}, nil
}

// Fetch performs a GET for source and returns the body of a 2xx response.
// Everything else is returned as a *FetchError, possibly wrapped by the
// retry layer.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	key := cache.KeyFor(source)
	var cached *cache.Entry
	if f.cache != nil {
		entry, err := f.cache.Get(ctx, key)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			f.logger.Warn().Err(err).Str("source", source).Msg("Cache get error")
		}
		if entry != nil {
			if !entry.HasValidators() {
				f.logger.Debug().Str("source", source).Msg("Serving fresh cache entry")
				requestsTotal.WithLabelValues("cache").Inc()
				return entry.Data, nil
			}
			cached = entry
		}
	}

	var (
		body        []byte
		resp        *http.Response
		notModified bool
	)

	err := retryWithBackoff(ctx, f.config.Retry, f.logger, func(attempt int) error {
		var attemptErr error
		body, resp, notModified, attemptErr = f.do(ctx, source, cached)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	if notModified {
		f.logger.Debug().Str("source", source).Msg("304 Not Modified - using cache")
		cache.Revalidations.Inc()
		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := f.cache.UpdateTTL(ctx, key, cached, newExpires); err != nil {
					f.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}
		return cached.Data, nil
	}

	if f.cache != nil && resp.StatusCode == http.StatusOK {
		setErr := f.cache.Set(ctx, key, cache.NewEntry(resp, body))
		switch {
		case errors.Is(setErr, cache.ErrEntryTooLarge):
			f.logger.Debug().Err(setErr).Str("source", source).Msg("Response not cached")
		case setErr != nil:
			f.logger.Warn().Err(setErr).Str("source", source).Msg("Failed to cache response")
		}
	}

	return body, nil
}

// do performs a single attempt.
func (f *HTTPFetcher) do(ctx context.Context, source string, cached *cache.Entry) ([]byte, *http.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassInvalid)).Inc()
		return nil, nil, false, &FetchError{Source: source, Class: ErrorClassInvalid, Err: err}
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	cache.AddConditionalHeaders(req, cached)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Debug().Err(err).Str("source", source).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues("network_error").Inc()
		return nil, nil, false, &FetchError{Source: source, Class: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return nil, resp, true, nil
	}

	if class := classifyStatus(resp.StatusCode); class != "" {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		errorsTotal.WithLabelValues(string(class)).Inc()
		f.logger.Debug().
			Str("source", source).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Fetch returned non-success status")
		return nil, nil, false, &FetchError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		class := ErrorClassNetwork
		if errors.Is(err, ErrBodyTooLarge) {
			class = ErrorClassClient
		}
		errorsTotal.WithLabelValues(string(class)).Inc()
		return nil, nil, false, &FetchError{Source: source, Class: class, Err: err}
	}

	return body, resp, false, nil
}

func (f *HTTPFetcher) readBody(r io.Reader) ([]byte, error) {
	if f.config.MaxBodyBytes <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, f.config.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.config.MaxBodyBytes)
	}
	return body, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *HTTPFetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}
