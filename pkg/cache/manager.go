package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxEntryBytes bounds the body size kept in Redis.
const DefaultMaxEntryBytes = 8 << 20

var (
	// ErrCacheMiss is returned by Get for absent and expired entries.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned by Get when a stored value does not decode.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrEntryTooLarge is returned by Set for bodies above the size limit.
	ErrEntryTooLarge = errors.New("cache entry too large")
)

// Manager stores fetched bodies in Redis keyed by source.
type Manager struct {
	redis         *redis.Client
	maxEntryBytes int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxEntryBytes overrides DefaultMaxEntryBytes. Zero disables the limit.
func WithMaxEntryBytes(n int) Option {
	return func(m *Manager) {
		m.maxEntryBytes = n
	}
}

// NewManager creates a cache manager on top of a Redis client.
func NewManager(redisClient *redis.Client, opts ...Option) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	m := &Manager{
		redis:         redisClient,
		maxEntryBytes: DefaultMaxEntryBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get loads the entry for key. Expired entries are deleted and reported as
// ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		missesTotal.Inc()
		return nil, ErrCacheMiss
	case err != nil:
		errorsTotal.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	entry := new(Entry)
	if err := json.Unmarshal(raw, entry); err != nil {
		errorsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		missesTotal.Inc()
		return nil, ErrCacheMiss
	}

	hitsTotal.Inc()
	return entry, nil
}

// Set stores entry until its Expires time. Already expired entries are
// silently dropped.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}
	if m.maxEntryBytes > 0 && len(entry.Data) > m.maxEntryBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrEntryTooLarge, len(entry.Data), m.maxEntryBytes)
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		errorsTotal.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		errorsTotal.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		errorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// UpdateTTL re-stores an entry the caller already holds with a new expiry,
// as after a 304 carrying a fresh Expires header. The body is not re-read.
func (m *Manager) UpdateTTL(ctx context.Context, key Key, entry *Entry, expires time.Time) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}
	updated := *entry
	updated.Expires = expires
	return m.Set(ctx, key, &updated)
}
