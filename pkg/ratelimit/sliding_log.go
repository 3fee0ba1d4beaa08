package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// SlidingLog implements the sliding window log algorithm.
//
// Every admitted request's timestamp is retained for one window length, and
// a request is admitted only while fewer than the maximum timestamps remain
// in the trailing window. This gives an exact rolling bound with no
// window-boundary burst, at the cost of one stored timestamp per admitted
// request per key. Rejected requests are not recorded, so a rejected client
// becomes admissible exactly when the oldest retained timestamp leaves the
// window.
type SlidingLog struct {
	window time.Duration
	max    int64

	mu      sync.Mutex
	entries map[string]*logEntry
	now     func() time.Time
}

type logEntry struct {
	stamps   []time.Time
	lastSeen time.Time
}

// NewSlidingLog creates a sliding window log admitting up to maxRequests in
// any trailing interval of the window length.
func NewSlidingLog(window time.Duration, maxRequests int64) (*SlidingLog, error) {
	if window <= 0 {
		return nil, fmt.Errorf("sliding log: window must be positive, got %v", window)
	}
	if maxRequests < 1 {
		return nil, fmt.Errorf("sliding log: max requests must be at least 1, got %d", maxRequests)
	}
	return &SlidingLog{
		window:  window,
		max:     maxRequests,
		entries: make(map[string]*logEntry),
		now:     time.Now,
	}, nil
}

// Name returns StrategySlidingLog.
func (sl *SlidingLog) Name() string { return StrategySlidingLog }

// Allow admits the request if fewer than the maximum timestamps remain in
// the trailing window after pruning.
func (sl *SlidingLog) Allow(key string) Decision {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := sl.now()
	e, ok := sl.entries[key]
	if !ok {
		e = &logEntry{}
		sl.entries[key] = e
	}
	e.lastSeen = now

	e.stamps = pruneBefore(e.stamps, now.Add(-sl.window))

	if int64(len(e.stamps)) >= sl.max {
		// The slot frees up when the oldest retained timestamp exits the
		// trailing window.
		oldest := e.stamps[0]
		return Decision{
			Allowed:    false,
			Limit:      sl.max,
			RetryAfter: ceilSeconds(sl.window - now.Sub(oldest)),
		}
	}

	e.stamps = append(e.stamps, now)
	return Decision{Allowed: true, Limit: sl.max, Remaining: sl.max - int64(len(e.stamps))}
}

// Sweep removes entries idle for at least idleFor, clamped up to the window
// length: a log idle that long prunes to empty on its next request anyway.
func (sl *SlidingLog) Sweep(idleFor time.Duration) int {
	if idleFor < sl.window {
		idleFor = sl.window
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	cutoff := sl.now().Add(-idleFor)
	removed := 0
	for key, e := range sl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(sl.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently holding log state.
func (sl *SlidingLog) Len() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.entries)
}

// pruneBefore drops leading timestamps older than cutoff, preserving order.
// Timestamps exactly at the cutoff are retained.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	n := copy(stamps, stamps[i:])
	return stamps[:n]
}
