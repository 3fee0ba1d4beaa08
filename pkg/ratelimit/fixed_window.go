package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// FixedWindow implements the fixed window counter algorithm.
//
// Requests are counted against non-overlapping intervals anchored at the
// key's first request in each window. When the count reaches the maximum,
// further requests are rejected until the window elapses, at which point the
// next request starts a fresh window with count 1.
//
// Edge policy: a client bursting across a window boundary can be admitted up
// to twice the maximum within a short real interval. That is an accepted
// property of this strategy, not a defect; use SlidingLog for an exact bound.
type FixedWindow struct {
	window time.Duration
	max    int64

	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

type windowEntry struct {
	count       int64
	windowStart time.Time
	lastSeen    time.Time
}

// NewFixedWindow creates a fixed window counter admitting up to maxRequests
// per window.
func NewFixedWindow(window time.Duration, maxRequests int64) (*FixedWindow, error) {
	if window <= 0 {
		return nil, fmt.Errorf("fixed window: window must be positive, got %v", window)
	}
	if maxRequests < 1 {
		return nil, fmt.Errorf("fixed window: max requests must be at least 1, got %d", maxRequests)
	}
	return &FixedWindow{
		window:  window,
		max:     maxRequests,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}, nil
}

// Name returns StrategyFixedWindow.
func (fw *FixedWindow) Name() string { return StrategyFixedWindow }

// Allow admits the request if the key's current window has headroom.
func (fw *FixedWindow) Allow(key string) Decision {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := fw.now()
	e, ok := fw.entries[key]
	if !ok {
		fw.entries[key] = &windowEntry{count: 1, windowStart: now, lastSeen: now}
		return Decision{Allowed: true, Limit: fw.max, Remaining: fw.max - 1}
	}
	e.lastSeen = now

	elapsed := now.Sub(e.windowStart)
	if elapsed >= fw.window {
		e.count = 1
		e.windowStart = now
		return Decision{Allowed: true, Limit: fw.max, Remaining: fw.max - 1}
	}

	if e.count < fw.max {
		e.count++
		return Decision{Allowed: true, Limit: fw.max, Remaining: fw.max - e.count}
	}

	// Rejected requests do not advance the count or the window.
	return Decision{
		Allowed:    false,
		Limit:      fw.max,
		RetryAfter: ceilSeconds(fw.window - elapsed),
	}
}

// Sweep removes entries idle for at least idleFor, clamped up to the window
// length: anything older would have been reset on its next request anyway.
func (fw *FixedWindow) Sweep(idleFor time.Duration) int {
	if idleFor < fw.window {
		idleFor = fw.window
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	cutoff := fw.now().Add(-idleFor)
	removed := 0
	for key, e := range fw.entries {
		if e.lastSeen.Before(cutoff) {
			delete(fw.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently holding window state.
func (fw *FixedWindow) Len() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.entries)
}
