// Package cache keeps fetched documents in Redis so repeated batches can
// revalidate instead of downloading again.
//
// Entries are keyed by source URL and expire according to the response's
// Expires header (DefaultTTL when absent). Entries carrying an ETag or
// Last-Modified value are revalidated with a conditional request; a 304
// answer lets the fetcher reuse the cached body. Bodies above
// DefaultMaxEntryBytes (see WithMaxEntryBytes) are not cached.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.KeyFor("https://example.com/report.html")
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from origin, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(resp, body))
//	}
//
// # Metrics
//
//   - docfetch_cache_hits_total - Cache hits
//   - docfetch_cache_misses_total - Cache misses
//   - docfetch_304_responses_total - Successful revalidations
//   - docfetch_cache_errors_total{operation} - Cache operation errors
//
// The cache is an optimisation for the fetch collaborator only. Whether a
// task is skipped is decided by the destination store, never by the cache.
package cache
