// Breakwater is a request admission gateway.
//
// It sits in front of an HTTP application and decides, per client, whether
// each request is admitted, rejected with a retry hint, or delayed until a
// slot frees up. Admission is governed by a configurable chain of
// rate-limiting rules:
//   - Fixed window, sliding log, and sliding counter request counting
//   - Token bucket and leaky bucket pacing
//   - Delayed admission (throttle) as an alternative to rejection
//   - Audit trail of admission decisions (memory or SQLite)
//
// Usage:
//
//	# Start the gateway with default configuration
//	breakwater run
//
//	# Start with a custom configuration file
//	breakwater run --config /path/to/config.yaml
//
//	# Check a configuration file without starting
//	breakwater validate
//
//	# Load test a running gateway
//	breakwater bench --target http://localhost:8080 --rate 100
//
//	# Show version information
//	breakwater version
package main

func main() {
	Execute()
}
