package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL applies when a response says nothing about freshness.
const DefaultTTL = 5 * time.Minute

// NewEntry builds an entry from a response and its already-read body.
func NewEntry(resp *http.Response, body []byte) *Entry {
	entry := &Entry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		CachedAt:   time.Now(),
		Expires:    parseExpires(resp.Header),
	}

	if lastMod, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		entry.LastModified = lastMod
	}

	return entry
}

// parseExpires returns when a response stops being cacheable. Cache-Control
// wins over Expires: no-store and no-cache expire immediately, max-age is
// counted from now. Without either, Expires applies, falling back to
// now + DefaultTTL when it is absent or unparsable.
func parseExpires(headers http.Header) time.Time {
	now := time.Now()

	for _, directive := range strings.Split(headers.Get("Cache-Control"), ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store", directive == "no-cache":
			return now
		case strings.HasPrefix(directive, "max-age="):
			if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil {
				if secs <= 0 {
					return now
				}
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	expires, err := http.ParseTime(headers.Get("Expires"))
	if err != nil {
		return now.Add(DefaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since
// to req based on the entry's validators.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}

	switch {
	case entry.ETag != "":
		req.Header.Set("If-None-Match", entry.ETag)
	case !entry.LastModified.IsZero():
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
}
