package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the fetch cache.
var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfetch_cache_hits_total",
		Help: "Total number of fetch cache hits",
	})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfetch_cache_misses_total",
		Help: "Total number of fetch cache misses, including expired entries",
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_cache_errors_total",
		Help: "Total number of cache operation errors by operation",
	}, []string{"operation"})

	// Revalidations counts 304 responses answered from a cached body. The
	// fetcher increments it; the cache only owns the metric.
	Revalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfetch_304_responses_total",
		Help: "Total number of 304 Not Modified responses served from cache",
	})
)
