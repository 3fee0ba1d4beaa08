package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// TokenBucket implements the token bucket algorithm with one bucket per key.
//
// Each key holds a credit pool that refills at a constant rate and is spent
// one token per admitted request, allowing bursts up to the capacity while
// bounding the average rate. Refill arithmetic is whole-token: the elapsed
// time since the last refill is converted to floor(elapsed × rate) tokens,
// and the refill timestamp advances only when at least one token was added,
// so sub-token elapsed time keeps accumulating instead of being discarded.
type TokenBucket struct {
	capacity   int64
	refillRate float64
	retryAfter time.Duration // ceil(1/refillRate), fixed at construction

	mu      sync.Mutex
	entries map[string]*bucketEntry
	now     func() time.Time
}

type bucketEntry struct {
	tokens     int64
	lastRefill time.Time
	lastSeen   time.Time
}

// NewTokenBucket creates a per-key token bucket.
//
// Parameters:
//   - capacity: maximum tokens per key (burst size)
//   - refillRate: tokens added per second (average rate)
func NewTokenBucket(capacity int64, refillRate float64) (*TokenBucket, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("token bucket: capacity must be at least 1, got %d", capacity)
	}
	if refillRate <= 0 {
		return nil, fmt.Errorf("token bucket: refill rate must be positive, got %g", refillRate)
	}
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		retryAfter: time.Duration(math.Ceil(1/refillRate)) * time.Second,
		entries:    make(map[string]*bucketEntry),
		now:        time.Now,
	}, nil
}

// Name returns StrategyTokenBucket.
func (tb *TokenBucket) Name() string { return StrategyTokenBucket }

// Allow refills the key's bucket for the elapsed time and admits the request
// if a token is available.
func (tb *TokenBucket) Allow(key string) Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	e, ok := tb.entries[key]
	if !ok {
		// First observation spends the first token.
		tb.entries[key] = &bucketEntry{tokens: tb.capacity - 1, lastRefill: now, lastSeen: now}
		return Decision{Allowed: true, Limit: tb.capacity, Remaining: tb.capacity - 1}
	}
	e.lastSeen = now

	elapsed := now.Sub(e.lastRefill)
	tokensToAdd := int64(elapsed.Seconds() * tb.refillRate)
	if tokensToAdd > 0 {
		e.tokens += tokensToAdd
		if e.tokens > tb.capacity {
			e.tokens = tb.capacity
		}
		// Advancing lastRefill on a zero-token refill would silently discard
		// the elapsed fraction, so it moves only with whole tokens.
		e.lastRefill = now
	}

	if e.tokens > 0 {
		e.tokens--
		return Decision{Allowed: true, Limit: tb.capacity, Remaining: e.tokens}
	}

	return Decision{Allowed: false, Limit: tb.capacity, RetryAfter: tb.retryAfter}
}

// Sweep removes entries idle for at least idleFor, clamped up to the full
// refill time: evicting sooner would hand a drained key a fresh burst.
func (tb *TokenBucket) Sweep(idleFor time.Duration) int {
	if full := tb.fullRefill(); idleFor < full {
		idleFor = full
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	cutoff := tb.now().Add(-idleFor)
	removed := 0
	for key, e := range tb.entries {
		if e.lastSeen.Before(cutoff) {
			delete(tb.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently holding bucket state.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.entries)
}

// fullRefill returns the time an empty bucket needs to refill to capacity.
func (tb *TokenBucket) fullRefill() time.Duration {
	return time.Duration(float64(tb.capacity) / tb.refillRate * float64(time.Second))
}
