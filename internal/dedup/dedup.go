// Package dedup tracks which alert identifiers have already been processed
// within a bounded retention window. TTL expiry deliberately allows eventual
// reprocessing; missing an alert is worse than a duplicate notification.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache answers whether an alert identifier is new and records seen ones.
// Each check is independent; there is no ordering guarantee across keys.
type Cache interface {
	// IsNew reports whether the identifier has not been seen within the TTL
	// window. Implementations must fail open: if the backing store cannot
	// be reached, every alert is treated as new.
	IsNew(ctx context.Context, alertID string) bool

	// MarkSeen records the identifier with the cache TTL. Best effort.
	MarkSeen(ctx context.Context, alertID string)

	Close() error
}

// compactThreshold bounds the memory cache between compactions.
const compactThreshold = 10000

// MemoryCache is a single-node Cache backed by a map with per-key expiry.
type MemoryCache struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryCache creates an in-memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration, clock clockwork.Clock) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		ttl:   ttl,
		clock: clock,
		seen:  make(map[string]time.Time),
	}
}

func (c *MemoryCache) IsNew(_ context.Context, alertID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	firstSeen, ok := c.seen[alertID]
	if !ok {
		return true
	}
	return c.clock.Now().Sub(firstSeen) > c.ttl
}

func (c *MemoryCache) MarkSeen(_ context.Context, alertID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.seen[alertID] = now
	if len(c.seen) > compactThreshold {
		c.compact(now)
	}
}

func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) compact(now time.Time) {
	for id, firstSeen := range c.seen {
		if now.Sub(firstSeen) > c.ttl {
			delete(c.seen, id)
		}
	}
}
