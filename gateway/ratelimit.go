package gateway

import (
	"sync"
	"sync/atomic"
	"time"
)

const sweepEvery = 256

type rateLimitEntry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window per-identity request counter. Entries are
// guarded per key so two callers never contend on a global lock, and expired
// windows are swept opportunistically every sweepEvery operations so the map
// stays bounded under many distinct identities.
type RateLimiter struct {
	entries sync.Map // identity -> *rateLimitEntry
	limit   int
	window  time.Duration
	ops     atomic.Uint64

	now func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether identity may proceed, consuming one slot if so. A
// denied request does not count toward the next window.
func (rl *RateLimiter) Allow(identity string) bool {
	if rl.ops.Add(1)%sweepEvery == 0 {
		rl.sweep()
	}

	v, _ := rl.entries.LoadOrStore(identity, &rateLimitEntry{})
	entry := v.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := rl.now()
	if entry.resetAt.IsZero() || now.After(entry.resetAt) {
		entry.count = 1
		entry.resetAt = now.Add(rl.window)
		return true
	}
	if entry.count >= rl.limit {
		return false
	}
	entry.count++
	return true
}

// sweep drops entries whose window already expired. A concurrent Allow that
// raced the delete simply starts a fresh window, which at worst forgets one
// consumed slot.
func (rl *RateLimiter) sweep() {
	now := rl.now()
	rl.entries.Range(func(key, value any) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		expired := !entry.resetAt.IsZero() && now.After(entry.resetAt)
		entry.mu.Unlock()
		if expired {
			rl.entries.Delete(key)
		}
		return true
	})
}
