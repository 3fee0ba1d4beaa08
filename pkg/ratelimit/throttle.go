package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Throttle implements delayed admission over a sliding timestamp log.
//
// Where the rejecting strategies answer an over-limit request with a 429,
// Throttle answers it with latency: Wait parks the caller until the oldest
// tracked timestamp leaves the window, then records the request at the later
// wall clock and lets it proceed. It never produces a hard rejection.
//
// Throttle is used standalone; it is deliberately not a Strategy and cannot
// be composed into a rejecting chain.
//
// The admission bound is weaker than SlidingLog's: a parked caller proceeds
// after its single computed delay without re-checking capacity, so requests
// that arrived while it slept may push the trailing count past the maximum
// transiently. Waiters for the same key are not serialized.
type Throttle struct {
	window time.Duration
	max    int64

	mu      sync.Mutex
	entries map[string]*logEntry
	now     func() time.Time
}

// NewThrottle creates a delayed-admission throttle allowing maxRequests per
// window before introducing latency.
func NewThrottle(window time.Duration, maxRequests int64) (*Throttle, error) {
	if window <= 0 {
		return nil, fmt.Errorf("throttle: window must be positive, got %v", window)
	}
	if maxRequests < 1 {
		return nil, fmt.Errorf("throttle: max requests must be at least 1, got %d", maxRequests)
	}
	return &Throttle{
		window:  window,
		max:     maxRequests,
		entries: make(map[string]*logEntry),
		now:     time.Now,
	}, nil
}

// Name identifies the throttle in janitor and metrics output.
func (t *Throttle) Name() string { return "throttle" }

// Wait blocks until the request identified by key may proceed. It returns
// immediately when the key's trailing window has headroom. If the context is
// canceled while parked, Wait returns ctx.Err() without recording the
// request, so an abandoned caller consumes no slot.
func (t *Throttle) Wait(ctx context.Context, key string) error {
	delay := t.reserve(key)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	t.record(key)
	return nil
}

// reserve records the request and returns 0 when the window has headroom;
// otherwise it returns the delay until the oldest timestamp exits the window.
func (t *Throttle) reserve(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok {
		e = &logEntry{}
		t.entries[key] = e
	}
	e.lastSeen = now

	e.stamps = pruneBefore(e.stamps, now.Add(-t.window))
	if int64(len(e.stamps)) < t.max {
		e.stamps = append(e.stamps, now)
		return 0
	}
	return e.stamps[0].Add(t.window).Sub(now)
}

// record re-derives the key's log at the post-wait wall clock and appends
// the request. Capacity is not re-checked (see the type docs).
func (t *Throttle) record(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok {
		e = &logEntry{}
		t.entries[key] = e
	}
	e.lastSeen = now

	e.stamps = pruneBefore(e.stamps, now.Add(-t.window))
	e.stamps = append(e.stamps, now)
}

// Sweep removes entries idle for at least idleFor, clamped up to the window
// length, mirroring SlidingLog.
func (t *Throttle) Sweep(idleFor time.Duration) int {
	if idleFor < t.window {
		idleFor = t.window
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-idleFor)
	removed := 0
	for key, e := range t.entries {
		if e.lastSeen.Before(cutoff) {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently holding throttle state.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
