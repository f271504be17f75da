package cache

import (
	"time"
)

// Entry is a cached response body with its validators.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag,omitempty"`

	// LastModified for conditional requests (If-Modified-Since)
	LastModified time.Time `json:"last_modified,omitempty"`

	// Expires is when the entry stops being served
	Expires time.Time `json:"expires"`

	// StatusCode of the cached response
	StatusCode int `json:"status_code"`

	// CachedAt is when the entry was stored
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// HasValidators reports whether the entry can be revalidated with a
// conditional request.
func (e *Entry) HasValidators() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}
