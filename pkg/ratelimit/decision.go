package ratelimit

import "time"

// Decision is the outcome of one admission check. It is produced fresh per
// request and never stored.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the configured bound of the strategy that produced the
	// decision (max requests per window, or bucket/queue capacity).
	Limit int64

	// Remaining is a best-effort count of additional requests the key could
	// issue right now. Zero when the decision is a rejection.
	Remaining int64

	// RetryAfter hints when a rejected caller may retry. It is always a
	// whole number of seconds and zero when Allowed is true.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns the retry hint as integer seconds, the form used
// by the Retry-After header and rejection bodies.
func (d Decision) RetryAfterSeconds() int {
	return int(d.RetryAfter / time.Second)
}

// ceilSeconds rounds d up to a whole number of seconds. Non-positive
// durations yield zero.
func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return ((d + time.Second - 1) / time.Second) * time.Second
}
