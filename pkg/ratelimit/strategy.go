package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Strategy names accepted by Build.
const (
	StrategyFixedWindow    = "fixed_window"
	StrategySlidingLog     = "sliding_log"
	StrategySlidingCounter = "sliding_counter"
	StrategyTokenBucket    = "token_bucket"
	StrategyLeakyBucket    = "leaky_bucket"
)

// ErrUnknownStrategy is returned by Build for an unrecognized strategy name.
var ErrUnknownStrategy = errors.New("unknown rate limit strategy")

// Strategy is the common contract of the five admission-control algorithms.
//
// Allow decides whether the request identified by key may proceed at the
// current time, mutating the key's state as a side effect. It never blocks
// and never fails; configuration is validated at construction so runtime
// decisions are total.
type Strategy interface {
	// Name returns the strategy kind, one of the Strategy* constants.
	Name() string

	// Allow runs one admission check for key.
	Allow(key string) Decision

	// Sweep removes per-key state idle for at least idleFor and returns the
	// number of entries removed. Each strategy clamps idleFor up to its safe
	// horizon, so callers may pass zero to mean "as aggressive as correct".
	Sweep(idleFor time.Duration) int

	// Len returns the number of keys currently holding state.
	Len() int
}

// Config selects and parameterizes a strategy for Build. Only the fields
// relevant to the chosen strategy are read.
type Config struct {
	// Strategy is one of the Strategy* constants.
	Strategy string

	// Window and MaxRequests configure the window-based strategies
	// (fixed_window, sliding_log, sliding_counter).
	Window      time.Duration
	MaxRequests int64

	// Capacity configures token_bucket and leaky_bucket.
	Capacity int64

	// RefillRate is tokens added per second (token_bucket).
	RefillRate float64

	// LeakInterval is the time to drain one queue slot (leaky_bucket).
	LeakInterval time.Duration
}

// Build constructs the strategy named by cfg.Strategy.
func Build(cfg Config) (Strategy, error) {
	switch cfg.Strategy {
	case StrategyFixedWindow:
		return NewFixedWindow(cfg.Window, cfg.MaxRequests)
	case StrategySlidingLog:
		return NewSlidingLog(cfg.Window, cfg.MaxRequests)
	case StrategySlidingCounter:
		return NewSlidingCounter(cfg.Window, cfg.MaxRequests)
	case StrategyTokenBucket:
		return NewTokenBucket(cfg.Capacity, cfg.RefillRate)
	case StrategyLeakyBucket:
		return NewLeakyBucket(cfg.Capacity, cfg.LeakInterval)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}
