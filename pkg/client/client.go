// Package client runs batches of document tasks: skip what already exists,
// fetch the rest under a global request rate, render where asked and write
// the results.
package client

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"time"

	"github.com/Sternrassler/docfetch/pkg/document"
	"github.com/Sternrassler/docfetch/pkg/fetch"
	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/Sternrassler/docfetch/pkg/pool"
	"github.com/Sternrassler/docfetch/pkg/ratelimit"
	"github.com/Sternrassler/docfetch/pkg/render"
	"github.com/Sternrassler/docfetch/pkg/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for batches.
var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_tasks_total",
		Help: "Total tasks finished by outcome",
	}, []string{"outcome"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docfetch_batch_duration_seconds",
		Help:    "Duration of a GetDocuments call in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// Config holds the client configuration.
type Config struct {
	// MaxRequestsPerSecond bounds how many fetches may start per second
	// across all network workers.
	MaxRequestsPerSecond int

	// MaxThreadsCPU is the number of conversion workers.
	MaxThreadsCPU int

	// MaxThreadsIO is the number of network workers.
	MaxThreadsIO int

	// Fetcher retrieves sources (default: an HTTPFetcher with fetch.DefaultConfig).
	Fetcher fetch.Fetcher

	// RenderZoom is the renderer zoom factor as a decimal string
	// (default: 1.0, 3.5 on macOS). It overrides RenderSettings.Zoom.
	RenderZoom string

	// Renderer converts HTML to PDF (default: wkhtmltopdf on PATH).
	Renderer render.Renderer

	// RenderSettings are the base conversion settings (default: render.DefaultSettings).
	RenderSettings *render.Settings

	// Store checks and writes destinations (default: local disk).
	Store storage.Store

	// Rate limiting
	RatePolicy ratelimit.Policy // fixed_window (default) or token_bucket
	RateBurst  int              // token_bucket only, at most MaxRequestsPerSecond

	// LoadExisting reads skipped destinations back into FinalBytes.
	LoadExisting bool

	// Logger overrides the package logger. The default Fetcher, Renderer
	// and Store built by New log through it as well.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxRequestsPerSecond: 10,
		MaxThreadsCPU:        runtime.NumCPU(),
		MaxThreadsIO:         100,
		RatePolicy:           ratelimit.PolicyFixedWindow,
	}
}

// Client runs batches. A Client is safe for concurrent use; every
// GetDocuments call gets its own limiter and pools.
type Client struct {
	config   Config
	settings render.Settings
	fetcher  fetch.Fetcher
	renderer render.Renderer
	store    storage.Store
	logger   zerolog.Logger
}

// New validates cfg and creates a client. Invalid settings are reported as
// a *ConfigError.
func New(cfg Config) (*Client, error) {
	if cfg.MaxRequestsPerSecond <= 0 {
		return nil, configErr("max_requests_per_second", "must be > 0 (got %d)", cfg.MaxRequestsPerSecond)
	}
	if cfg.MaxThreadsCPU <= 0 {
		return nil, configErr("max_threads_cpu", "must be > 0 (got %d)", cfg.MaxThreadsCPU)
	}
	if cfg.MaxThreadsIO <= 0 {
		return nil, configErr("max_threads_io", "must be > 0 (got %d)", cfg.MaxThreadsIO)
	}

	logger := logging.NewLogger("docfetch-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	if cfg.RatePolicy == ratelimit.PolicyTokenBucket && cfg.RateBurst > cfg.MaxRequestsPerSecond {
		return nil, configErr("rate_burst", "must be <= max_requests_per_second (got %d > %d)",
			cfg.RateBurst, cfg.MaxRequestsPerSecond)
	}
	if _, err := ratelimit.New(limiterConfig(cfg), logger); err != nil {
		return nil, &ConfigError{Field: "rate_policy", Reason: "invalid rate limit", Err: err}
	}

	settings := render.DefaultSettings()
	if cfg.RenderSettings != nil {
		settings = *cfg.RenderSettings
	}
	if cfg.RenderZoom != "" {
		zoom, err := render.ParseZoom(cfg.RenderZoom)
		if err != nil {
			return nil, &ConfigError{Field: "render_zoom", Reason: "invalid zoom", Err: err}
		}
		settings.Zoom = zoom
	}
	if err := settings.Validate(); err != nil {
		return nil, &ConfigError{Field: "render_settings", Reason: "invalid renderer settings", Err: err}
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fcfg := fetch.DefaultConfig()
		fcfg.Logger = &logger
		f, err := fetch.New(fcfg)
		if err != nil {
			return nil, &ConfigError{Field: "fetch_client", Reason: "default fetcher", Err: err}
		}
		fetcher = f
	}

	renderer := cfg.Renderer
	if renderer == nil {
		w := render.NewWkhtmltopdf("")
		w.SetLogger(logger)
		renderer = w
	}

	store := cfg.Store
	if store == nil {
		d := storage.NewDisk()
		d.SetLogger(logger)
		store = d
	}

	return &Client{
		config:   cfg,
		settings: settings,
		fetcher:  fetcher,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}, nil
}

// Settings returns the effective renderer settings.
func (c *Client) Settings() render.Settings {
	return c.settings
}

func limiterConfig(cfg Config) ratelimit.Config {
	return ratelimit.Config{
		Policy:       cfg.RatePolicy,
		MaxPerSecond: cfg.MaxRequestsPerSecond,
		Burst:        cfg.RateBurst,
	}
}

// GetDocuments processes every task of one batch and blocks until each has
// a terminal outcome.
//
// Tasks are reset to pending first, so the same slice can be passed again;
// tasks whose destination already exists are skipped without fetching. The
// rest are fetched by the network pool under the rate limit; tasks with
// Convert set are then rendered by the conversion pool. Per-task failures
// are recorded on the task and in the result, never returned as error. The
// error return is reserved for a *ConfigError found before any work starts.
func (c *Client) GetDocuments(ctx context.Context, tasks []*document.Task) (*BatchResult, error) {
	start := time.Now()

	if err := validateBatch(tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		t.Reset()
	}

	limiter, err := ratelimit.New(limiterConfig(c.config), c.logger)
	if err != nil {
		return nil, &ConfigError{Field: "rate_policy", Reason: "invalid rate limit", Err: err}
	}

	result := &BatchResult{
		BatchID: uuid.NewString(),
		Total:   len(tasks),
	}
	logger := logging.ForBatch(c.logger, result.BatchID)

	logger.Info().
		Int("tasks", len(tasks)).
		Int("max_requests_per_second", c.config.MaxRequestsPerSecond).
		Int("max_threads_io", c.config.MaxThreadsIO).
		Int("max_threads_cpu", c.config.MaxThreadsCPU).
		Msg("Starting batch")

	pending := c.skipExisting(ctx, tasks, logger)

	// Plain writes first so they are not queued behind renders.
	sort.SliceStable(pending, func(i, j int) bool {
		return !pending[i].Convert && pending[j].Convert
	})

	converts := 0
	for _, t := range pending {
		if t.Convert {
			converts++
		}
	}

	conversions := pool.NewConversionPool(pool.ConversionConfig{
		Workers:  c.config.MaxThreadsCPU,
		Renderer: c.renderer,
		Settings: c.settings,
		Store:    c.store,
		Logger:   logger,
	})
	conversions.Start(ctx, converts)

	network := pool.NewNetworkPool(pool.NetworkConfig{
		Workers:     c.config.MaxThreadsIO,
		Admitter:    limiter,
		Fetcher:     c.fetcher,
		Store:       c.store,
		Conversions: conversions.Queue(),
		Logger:      logger,
	})
	network.Start(ctx, len(pending))

	for _, t := range pending {
		network.Submit(t)
	}
	network.Close()
	network.Wait()
	conversions.Close()
	conversions.Wait()

	for _, t := range tasks {
		result.record(t)
	}
	result.Duration = time.Since(start)
	batchDuration.Observe(result.Duration.Seconds())

	logger.Info().
		Int("total", result.Total).
		Int("skipped", result.Skipped).
		Int("written", result.Written).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Batch complete")

	return result, nil
}

// skipExisting settles tasks whose destination exists and returns the rest.
func (c *Client) skipExisting(ctx context.Context, tasks []*document.Task, logger zerolog.Logger) []*document.Task {
	pending := make([]*document.Task, 0, len(tasks))

	for _, t := range tasks {
		exists, err := c.store.Exists(ctx, t.Destination)
		if err != nil {
			t.Fail(document.KindWrite, err)
			logger.Warn().Err(err).Str("destination", t.Destination).Msg("Existence check failed")
			continue
		}
		if !exists {
			pending = append(pending, t)
			continue
		}

		t.Skip()
		logger.Debug().Str("destination", t.Destination).Msg("Destination exists - skipping")

		if c.config.LoadExisting {
			data, err := c.store.Read(ctx, t.Destination)
			if err != nil {
				// Skip is already final; the missing bytes are only logged.
				logger.Warn().Err(err).Str("destination", t.Destination).Msg("Failed to load existing document")
				continue
			}
			t.RawBytes = data
			t.FinalBytes = data
		}
	}

	return pending
}

func validateBatch(tasks []*document.Task) error {
	seen := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if t == nil {
			return configErr("tasks", "task %d is nil", i)
		}
		if err := t.Validate(); err != nil {
			return &ConfigError{Field: "tasks", Reason: "invalid task", Err: err}
		}
		if j, dup := seen[t.Destination]; dup {
			return configErr("tasks", "tasks %d and %d share destination %q", j, i, t.Destination)
		}
		seen[t.Destination] = i
	}
	return nil
}

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
