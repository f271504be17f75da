// Command docfetch materializes the documents listed in a YAML batch file.
//
//	docfetch -batch batch.yaml [-metrics-addr :9090] [-log-level debug]
//
// Documents whose destination already exists are skipped, so an
// interrupted run can simply be started again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/docfetch/internal/config"
	"github.com/Sternrassler/docfetch/pkg/cache"
	"github.com/Sternrassler/docfetch/pkg/client"
	"github.com/Sternrassler/docfetch/pkg/fetch"
	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/Sternrassler/docfetch/pkg/metrics"
	"github.com/Sternrassler/docfetch/pkg/render"
	"github.com/Sternrassler/docfetch/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitTasksFailed  = 1
	ExitInvalidArgs  = 2
	ExitConfigError  = 3
	ExitStorageError = 4
	ExitCacheError   = 5
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("docfetch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	batchPath := fs.String("batch", "", "Path to the YAML batch file (required)")
	metricsAddr := fs.String("metrics-addr", getEnv("METRICS_ADDR", ""), "Serve Prometheus metrics on this address")
	logLevel := fs.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error, disabled)")
	logPretty := fs.Bool("log-pretty", getEnvBool("LOG_PRETTY", false), "Human-readable console logs")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: docfetch -batch <file> [options]

Fetch, optionally render to PDF, and store every document of a batch file.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if *batchPath == "" {
		fmt.Fprintln(stderr, "Error: -batch is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	logger := logging.Setup(logging.Config{
		Level:  level,
		Pretty: *logPretty,
		Output: stderr,
	}).With().Str("component", "docfetch").Logger()

	file, err := config.Load(*batchPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load batch file")
		return ExitConfigError
	}

	if *metricsAddr != "" {
		srv := startMetricsServer(*metricsAddr, logger)
		defer srv.Close()
	}

	fetchCfg, err := file.FetchConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid fetch settings")
		return ExitConfigError
	}

	if file.Settings.RedisURL != "" {
		rdb, err := connectRedis(ctx, file.Settings.RedisURL)
		if err != nil {
			logger.Error().Err(err).Str("redis_url", file.Settings.RedisURL).Msg("Failed to connect to Redis")
			return ExitCacheError
		}
		defer rdb.Close()
		fetchCfg.Cache = cache.NewManager(rdb)
		logger.Info().Str("redis_url", file.Settings.RedisURL).Msg("Response cache enabled")
	}

	fetcher, err := fetch.New(fetchCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid fetch settings")
		return ExitConfigError
	}

	clientCfg, err := file.ClientConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid batch settings")
		return ExitConfigError
	}
	clientCfg.Fetcher = fetcher
	clientCfg.Renderer = render.NewWkhtmltopdf(file.Settings.Render.Binary)
	clientCfg.Logger = &logger

	if file.Settings.StorageURL != "" {
		store, bkt, err := storage.OpenBucket(ctx, file.Settings.StorageURL)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open storage bucket")
			return ExitStorageError
		}
		defer bkt.Close()
		clientCfg.Store = store
	}

	c, err := client.New(clientCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid batch settings")
		return ExitConfigError
	}

	result, err := c.GetDocuments(ctx, file.Tasks())
	if err != nil {
		logger.Error().Err(err).Msg("Batch rejected")
		return ExitConfigError
	}

	printSummary(stdout, result)

	if result.Failed > 0 {
		return ExitTasksFailed
	}
	return ExitSuccess
}

func printSummary(w io.Writer, r *client.BatchResult) {
	fmt.Fprintf(w, "batch %s: %d documents, %d written, %d skipped, %d failed in %s\n",
		r.BatchID, r.Total, r.Written, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
	for _, t := range r.Failures {
		fmt.Fprintf(w, "  FAILED %s: %v\n", t.Destination, t.Err)
	}
}

func startMetricsServer(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// connectRedis accepts a redis:// URL or a plain host:port.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return rdb, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
