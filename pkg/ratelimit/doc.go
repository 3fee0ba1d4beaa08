// Package ratelimit implements per-key request admission control.
//
// # Overview
//
// The package provides five independent rate-limiting strategies sharing one
// calling convention: each takes a client key, consults and mutates its own
// per-key state, and produces a Decision that either admits the request or
// rejects it with a retry hint.
//
//   - FixedWindow: non-overlapping clock-aligned counting intervals
//   - SlidingLog: exact rolling count over a trailing window
//   - SlidingCounter: two-bucket weighted approximation, O(1) memory per key
//   - TokenBucket: capacity-bounded credit pool refilled over time
//   - LeakyBucket: capacity-bounded queue drained at a constant rate
//
// A sixth mechanism, Throttle, implements delayed admission: instead of
// rejecting over-limit requests it parks the caller until the oldest tracked
// timestamp leaves the window. It is used standalone, never composed with
// the rejecting strategies.
//
// # Usage
//
//	tb, err := ratelimit.NewTokenBucket(10, 1.0)
//	if err != nil {
//	    return err
//	}
//
//	d := tb.Allow(clientKey)
//	if !d.Allowed {
//	    // reject with d.RetryAfter
//	}
//
// Strategies can also be built from configuration via Build, which maps a
// strategy name and its options onto the matching constructor.
//
// # State and Eviction
//
// Each strategy instance owns a private key-state table, populated lazily on
// first observation of a key and guarded by a single mutex. Nothing is
// shared across instances and nothing is persisted. Idle entries are
// reclaimed through Sweep, typically driven by a Janitor; each strategy
// clamps the sweep age up to its own safe horizon so eviction can only
// forget state the algorithm would treat as fresh anyway.
//
// # Thread Safety
//
// All exported methods on all types are safe for concurrent use.
package ratelimit
