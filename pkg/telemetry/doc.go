// Package telemetry provides observability for breakwater.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// and health check endpoints. It gives operators visibility into admission
// decisions, limiter occupancy, and janitor activity while keeping the
// per-request overhead negligible next to the admission check itself.
//
// # Components
//
//   - logging: structured logger construction on top of log/slog
//   - metrics: Prometheus collectors and the /metrics handler
//   - health: liveness and readiness probes
//
// # Usage
//
//	logger, _ := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	logger.Info("gateway starting", "addr", ":8080")
//
//	m := metrics.New(nil)
//	m.RecordCheck("token_bucket", true, 3*time.Microsecond)
//	http.Handle("/metrics", m.Handler())
//
//	checker := health.New(0)
//	http.Handle("/healthz", checker.LivenessHandler())
//	http.Handle("/readyz", checker.ReadinessHandler())
package telemetry
