package cache

import (
	"testing"
	"time"
)

func TestEntry_Expiry(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		expires     time.Time
		wantExpired bool
		wantTTLMin  time.Duration
		wantTTLMax  time.Duration
	}{
		{
			name:       "fresh for an hour",
			expires:    now.Add(time.Hour),
			wantTTLMin: 59 * time.Minute,
			wantTTLMax: time.Hour,
		},
		{
			name:        "expired a second ago",
			expires:     now.Add(-time.Second),
			wantExpired: true,
		},
		{
			name:        "zero expiry",
			wantExpired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Data: []byte("%PDF"), Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if ttl := entry.TTL(); ttl < tt.wantTTLMin || ttl > tt.wantTTLMax {
				t.Errorf("TTL() = %v, want within [%v, %v]", ttl, tt.wantTTLMin, tt.wantTTLMax)
			}
		})
	}
}

func TestEntry_HasValidators(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{name: "none", entry: Entry{}},
		{name: "etag", entry: Entry{ETag: `"v1"`}, want: true},
		{name: "last modified", entry: Entry{LastModified: time.Now()}, want: true},
	}
	for _, tt := range tests {
		if got := tt.entry.HasValidators(); got != tt.want {
			t.Errorf("%s: HasValidators() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
