package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// offlineClient points at a port nothing listens on. Tests using it must not
// reach Redis.
func offlineClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewManager_Defaults(t *testing.T) {
	client := offlineClient(t)
	manager := NewManager(client)

	if manager.redis != client {
		t.Error("redis client not set")
	}
	if manager.maxEntryBytes != DefaultMaxEntryBytes {
		t.Errorf("maxEntryBytes = %d, want %d", manager.maxEntryBytes, DefaultMaxEntryBytes)
	}
}

func TestNewManager_WithMaxEntryBytes(t *testing.T) {
	manager := NewManager(offlineClient(t), WithMaxEntryBytes(1024))
	if manager.maxEntryBytes != 1024 {
		t.Errorf("maxEntryBytes = %d, want 1024", manager.maxEntryBytes)
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

// The checks below all return before any Redis round trip.
func TestManager_SetRejectsWithoutRedis(t *testing.T) {
	manager := NewManager(offlineClient(t), WithMaxEntryBytes(4))
	ctx := context.Background()
	key := KeyFor("https://example.com/a.html")

	if err := manager.Set(ctx, key, nil); err == nil {
		t.Error("Set(nil) should fail")
	}

	big := &Entry{Data: []byte("12345"), Expires: time.Now().Add(time.Minute)}
	if err := manager.Set(ctx, key, big); !errors.Is(err, ErrEntryTooLarge) {
		t.Errorf("Set(oversized) = %v, want ErrEntryTooLarge", err)
	}

	expired := &Entry{Data: []byte("x"), Expires: time.Now().Add(-time.Minute)}
	if err := manager.Set(ctx, key, expired); err != nil {
		t.Errorf("Set(expired) = %v, want nil", err)
	}

	if err := manager.UpdateTTL(ctx, key, nil, time.Now()); err == nil {
		t.Error("UpdateTTL(nil) should fail")
	}
}

func TestManager_UpdateTTLLeavesCallerEntryAlone(t *testing.T) {
	manager := NewManager(offlineClient(t))
	original := time.Now().Add(-time.Minute)
	entry := &Entry{Data: []byte("x"), Expires: original}

	// The new expiry is in the past as well, so Set drops it without I/O.
	_ = manager.UpdateTTL(context.Background(), KeyFor("https://example.com"), entry, time.Now().Add(-time.Second))

	if !entry.Expires.Equal(original) {
		t.Errorf("caller entry Expires changed to %v", entry.Expires)
	}
}
