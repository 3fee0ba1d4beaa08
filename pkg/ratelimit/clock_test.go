package ratelimit

import (
	"sync"
	"time"
)

// fakeClock is a manually advanced time source for deterministic tests.
// Strategies under test have their now function pointed at Now.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

// newFakeClock starts at a whole-hour instant so bucket truncation in
// sliding counter tests begins exactly on a boundary.
func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
