package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// SlidingCounter implements the sliding window counter approximation.
//
// Time is divided into buckets of one window length, aligned to multiples of
// the window from the epoch. The strategy keeps request counts for the
// current and the immediately preceding bucket and blends them by how far
// the current bucket has progressed:
//
//	estimate = current × (1 − weight) + previous × weight
//
// where weight is the elapsed fraction of the current bucket. The request is
// rejected when the estimate exceeds the maximum. This trades per-request
// accuracy for O(1) memory per key; the retry hint is correspondingly coarse
// (one full window). Unlike SlidingLog, rejected attempts stay counted, so
// hammering a saturated key extends its penalty.
type SlidingCounter struct {
	window time.Duration
	max    int64

	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

type counterEntry struct {
	currentStart  time.Time
	currentCount  int64
	previousCount int64
	lastSeen      time.Time
}

// NewSlidingCounter creates a sliding window counter admitting an estimated
// maxRequests per trailing window.
func NewSlidingCounter(window time.Duration, maxRequests int64) (*SlidingCounter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("sliding counter: window must be positive, got %v", window)
	}
	if maxRequests < 1 {
		return nil, fmt.Errorf("sliding counter: max requests must be at least 1, got %d", maxRequests)
	}
	return &SlidingCounter{
		window:  window,
		max:     maxRequests,
		entries: make(map[string]*counterEntry),
		now:     time.Now,
	}, nil
}

// Name returns StrategySlidingCounter.
func (sc *SlidingCounter) Name() string { return StrategySlidingCounter }

// Allow counts the request in the current bucket and admits it if the
// weighted two-bucket estimate stays within the maximum.
func (sc *SlidingCounter) Allow(key string) Decision {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := sc.now()
	bucketStart := now.Truncate(sc.window)

	e, ok := sc.entries[key]
	if !ok {
		e = &counterEntry{currentStart: bucketStart}
		sc.entries[key] = e
	}
	e.lastSeen = now

	if !bucketStart.Equal(e.currentStart) {
		// Roll buckets. The previous count only carries when the stored
		// bucket is the one immediately preceding; across a longer gap it
		// is stale and contributes nothing.
		if e.currentStart.Equal(bucketStart.Add(-sc.window)) {
			e.previousCount = e.currentCount
		} else {
			e.previousCount = 0
		}
		e.currentStart = bucketStart
		e.currentCount = 1
	} else {
		e.currentCount++
	}

	weight := float64(now.Sub(bucketStart)) / float64(sc.window)
	estimate := float64(e.currentCount)*(1-weight) + float64(e.previousCount)*weight

	if estimate > float64(sc.max) {
		return Decision{
			Allowed:    false,
			Limit:      sc.max,
			RetryAfter: ceilSeconds(sc.window),
		}
	}

	remaining := sc.max - int64(estimate)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: sc.max, Remaining: remaining}
}

// Sweep removes entries idle for at least idleFor, clamped up to twice the
// window: the previous bucket still weighs on decisions for one full window
// after a roll, so anything younger is still load-bearing.
func (sc *SlidingCounter) Sweep(idleFor time.Duration) int {
	if idleFor < 2*sc.window {
		idleFor = 2 * sc.window
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	cutoff := sc.now().Add(-idleFor)
	removed := 0
	for key, e := range sc.entries {
		if e.lastSeen.Before(cutoff) {
			delete(sc.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently holding counter state.
func (sc *SlidingCounter) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.entries)
}
