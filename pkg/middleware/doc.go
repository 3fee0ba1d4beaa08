// Package middleware adapts the admission strategies to net/http.
//
// # Overview
//
// The package provides two guard middlewares and the ambient plumbing
// around them:
//
//   - AdmissionMiddleware evaluates one or more rate-limiting rules against
//     the request's partition key and answers 429 with a Retry-After hint
//     on the first rejection.
//   - ThrottleMiddleware parks requests instead of rejecting them, delaying
//     each admission long enough to respect a pacing window.
//
// RequestIDMiddleware, LoggingMiddleware, RecoveryMiddleware, and
// MetricsMiddleware carry request correlation, structured request logs,
// panic containment, and per-status counters. They are independent of the
// guards and compose in the usual outside-in order:
//
//	handler = middleware.RequestIDMiddleware(
//	    middleware.LoggingMiddleware(
//	        middleware.RecoveryMiddleware(
//	            middleware.AdmissionMiddleware(cfg)(mux))))
//
// # Client Keys
//
// A KeyExtractor derives the partition key each rule counts against.
// Extraction is total: when no identity can be derived the extractor falls
// back to a configured shared key, so unidentifiable traffic is limited as
// one aggregate client rather than admitted unchecked.
package middleware
