// Package metrics provides Prometheus collectors for the admission layer.
//
// # Overview
//
// All collectors live on a single Metrics value backed by an injectable
// registry, so tests can construct isolated instances without tripping
// duplicate-registration panics on the default registry.
//
// # Metrics
//
//   - breakwater_admission_checks_total{strategy,outcome}: admission
//     decisions, outcome is "allowed" or "rejected"
//   - breakwater_admission_check_duration_seconds{strategy}: latency of a
//     single strategy evaluation
//   - breakwater_throttle_wait_seconds: time requests spent parked by the
//     delayed-admission throttle
//   - breakwater_active_keys{strategy}: keys currently holding limiter state
//   - breakwater_keys_swept_total{strategy}: idle keys evicted by the janitor
//   - breakwater_audit_records_total{outcome}: decisions handed to the audit
//     recorder
//   - breakwater_audit_dropped_total: audit records dropped on a full buffer
//   - breakwater_http_requests_total{code}: gateway responses by status code
//
// The strategy label carries the configured rule name, which defaults to the
// algorithm kind when a rule is not explicitly named.
package metrics
