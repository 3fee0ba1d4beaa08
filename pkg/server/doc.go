// Package server assembles the breakwater admission gateway.
//
// This package ties together the admission strategies, HTTP middleware,
// audit pipeline, and janitor, and provides server lifecycle management
// including start, graceful shutdown, and health checks.
//
// # Architecture
//
// The server package is the top-level orchestrator that:
//   - Builds the strategy chain (or throttle) from configuration
//   - Chains middleware for cross-cutting concerns
//   - Wires the audit recorder and retention pruner
//   - Runs the janitor that bounds per-key state growth
//   - Manages graceful shutdown and OS signals (SIGTERM, SIGINT)
//
// # Basic Usage
//
// Creating and starting a gateway:
//
//	import (
//	    "context"
//	    "harborline/breakwater/pkg/config"
//	    "harborline/breakwater/pkg/server"
//	)
//
//	cfg, err := config.LoadConfigWithEnvOverrides("breakwater.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, a SIGTERM/SIGINT arrives, or
// RequestShutdown is called. The shutdown process:
//  1. Stops accepting new connections
//  2. Waits for active connections to complete (up to the shutdown timeout)
//  3. Stops the janitor and retention pruner
//  4. Drains and closes the audit recorder, then the store
//
// In-flight requests drain before the recorder closes, so their decisions
// still reach the audit trail.
//
// # Routes
//
// The gateway exposes the following HTTP endpoints:
//
//   - ANY /          - Guarded echo route (stands in for the protected application)
//   - GET /healthz   - Liveness probe (always returns 200)
//   - GET /readyz    - Readiness probe (runs registered component checks)
//   - GET /metrics   - Prometheus metrics (path configurable)
//
// Over-limit requests on the guarded route are answered 429 with a
// Retry-After header and a JSON body carrying the same hint, or delayed
// when the gateway runs in delay mode.
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost to innermost):
//  1. Recovery: recovers from panics and returns 500
//  2. RequestID: assigns the correlation ID
//  3. Logging: logs request/response details
//  4. Metrics: counts responses by status code
//  5. Admission guard (guarded route only): rule chain or throttle
//
// # Thread Safety
//
// All server operations are thread-safe and can be called concurrently from
// multiple goroutines.
package server
