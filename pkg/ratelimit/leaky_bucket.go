package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// LeakyBucket implements the leaky bucket algorithm as a bounded queue.
//
// Each admitted request occupies one queue slot; the queue drains one slot
// per leak interval. Requests arriving with the queue full are rejected.
// Like TokenBucket, drain arithmetic preserves fractional progress: the leak
// timestamp advances only when at least one whole interval has elapsed.
type LeakyBucket struct {
	capacity     int64
	leakInterval time.Duration
	retryAfter   time.Duration // ceilSeconds(leakInterval), fixed at construction

	mu      sync.Mutex
	entries map[string]*queueEntry
	now     func() time.Time
}

type queueEntry struct {
	level    int64
	lastLeak time.Time
	lastSeen time.Time
}

// NewLeakyBucket creates a per-key leaky bucket.
//
// Parameters:
//   - capacity: maximum queued requests per key
//   - leakInterval: time to drain one queue slot
func NewLeakyBucket(capacity int64, leakInterval time.Duration) (*LeakyBucket, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("leaky bucket: capacity must be at least 1, got %d", capacity)
	}
	if leakInterval <= 0 {
		return nil, fmt.Errorf("leaky bucket: leak interval must be positive, got %v", leakInterval)
	}
	return &LeakyBucket{
		capacity:     capacity,
		leakInterval: leakInterval,
		retryAfter:   ceilSeconds(leakInterval),
		entries:      make(map[string]*queueEntry),
		now:          time.Now,
	}, nil
}

// Name returns StrategyLeakyBucket.
func (lb *LeakyBucket) Name() string { return StrategyLeakyBucket }

// Allow drains the key's queue for the elapsed time and admits the request
// if a slot is free.
func (lb *LeakyBucket) Allow(key string) Decision {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := lb.now()
	e, ok := lb.entries[key]
	if !ok {
		// First observation occupies the first slot.
		lb.entries[key] = &queueEntry{level: 1, lastLeak: now, lastSeen: now}
		return Decision{Allowed: true, Limit: lb.capacity, Remaining: lb.capacity - 1}
	}
	e.lastSeen = now

	leaked := int64(now.Sub(e.lastLeak) / lb.leakInterval)
	if leaked > 0 {
		e.level -= leaked
		if e.level < 0 {
			e.level = 0
		}
		// Same fractional-progress rule as the token bucket refill.
		e.lastLeak = now
	}

	if e.level < lb.capacity {
		e.level++
		return Decision{Allowed: true, Limit: lb.capacity, Remaining: lb.capacity - e.level}
	}

	return Decision{Allowed: false, Limit: lb.capacity, RetryAfter: lb.retryAfter}
}

// Sweep removes entries idle for at least idleFor, clamped up to the full
// drain time: evicting sooner would hand a full queue free headroom.
func (lb *LeakyBucket) Sweep(idleFor time.Duration) int {
	if full := time.Duration(lb.capacity) * lb.leakInterval; idleFor < full {
		idleFor = full
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	cutoff := lb.now().Add(-idleFor)
	removed := 0
	for key, e := range lb.entries {
		if e.lastSeen.Before(cutoff) {
			delete(lb.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently holding queue state.
func (lb *LeakyBucket) Len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.entries)
}
