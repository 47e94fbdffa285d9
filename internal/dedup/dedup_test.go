package dedup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

const testAlertID = "MD101-2025-001"

func TestMemoryCache_SeenWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	cache := NewMemoryCache(30*time.Minute, clock)

	assert.True(t, cache.IsNew(ctx, testAlertID))

	cache.MarkSeen(ctx, testAlertID)
	assert.False(t, cache.IsNew(ctx, testAlertID))

	// Still inside the window.
	clock.Advance(29 * time.Minute)
	assert.False(t, cache.IsNew(ctx, testAlertID))
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	cache := NewMemoryCache(30*time.Minute, clock)

	cache.MarkSeen(ctx, testAlertID)
	clock.Advance(30*time.Minute + time.Second)

	// Expiry re-admits the identifier; eventual reprocessing is accepted.
	assert.True(t, cache.IsNew(ctx, testAlertID))
}

func TestMemoryCache_IndependentKeys(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(30*time.Minute, clockwork.NewFakeClock())

	cache.MarkSeen(ctx, "alert-a")
	assert.False(t, cache.IsNew(ctx, "alert-a"))
	assert.True(t, cache.IsNew(ctx, "alert-b"))
}

func TestMemoryCache_CompactsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	cache := NewMemoryCache(time.Minute, clock)

	for i := 0; i < compactThreshold; i++ {
		cache.MarkSeen(ctx, fmt.Sprintf("old-%d", i))
	}
	clock.Advance(2 * time.Minute)

	// The next mark crosses the threshold and sweeps the expired keys.
	cache.MarkSeen(ctx, "fresh")

	cache.mu.Lock()
	remaining := len(cache.seen)
	cache.mu.Unlock()
	assert.Equal(t, 1, remaining)
}

func TestRedisCache_FailsOpenWhenStoreUnavailable(t *testing.T) {
	// Nothing listens here; every store call errors.
	cache := NewRedisCache("127.0.0.1:1", 30*time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.True(t, cache.IsNew(ctx, testAlertID))
	cache.MarkSeen(ctx, testAlertID) // must not panic
	assert.True(t, cache.IsNew(ctx, testAlertID), "unavailable store treats every alert as new")
}
