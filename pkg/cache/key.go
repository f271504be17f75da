package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces all docfetch keys in Redis.
const keyPrefix = "docfetch"

// Key identifies a cached document by its source locator.
type Key struct {
	Source string
}

// KeyFor returns the cache key for a source locator.
func KeyFor(source string) Key {
	return Key{Source: source}
}

// String generates a deterministic key string.
// Format: docfetch:host/path:query1=val1:query2=val2
//
// Host is lower-cased, trailing slashes and fragments are dropped and query
// parameters are sorted, so equivalent URLs share an entry. Locators that do
// not parse as absolute URLs are kept verbatim under docfetch:raw:.
func (k Key) String() string {
	u, err := url.Parse(k.Source)
	if err != nil || u.Host == "" {
		return keyPrefix + ":raw:" + k.Source
	}

	parts := []string{keyPrefix}

	resource := strings.ToLower(u.Host)
	if path := strings.Trim(u.EscapedPath(), "/"); path != "" {
		resource += "/" + path
	}
	parts = append(parts, resource)

	query := u.Query()
	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), query[name]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
