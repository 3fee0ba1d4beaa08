package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the admission layer.
// Create one instance per process and share it between the middleware,
// the janitor, and the audit recorder.
type Metrics struct {
	registry *prometheus.Registry

	admissionChecks *prometheus.CounterVec
	checkDuration   *prometheus.HistogramVec
	throttleWait    prometheus.Histogram
	activeKeys      *prometheus.GaugeVec
	keysSwept       *prometheus.CounterVec
	auditRecords    *prometheus.CounterVec
	auditDropped    prometheus.Counter
	httpRequests    *prometheus.CounterVec
}

// New creates a Metrics instance and registers its collectors with the
// provided registry. If registry is nil, a fresh registry is created.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		admissionChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakwater_admission_checks_total",
				Help: "Total number of admission checks performed",
			},
			[]string{"strategy", "outcome"},
		),

		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breakwater_admission_check_duration_seconds",
				Help:    "Duration of a single strategy evaluation in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"strategy"},
		),

		throttleWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "breakwater_throttle_wait_seconds",
				Help:    "Time requests spent parked by the delayed-admission throttle",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to 32s
			},
		),

		activeKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "breakwater_active_keys",
				Help: "Keys currently holding limiter state",
			},
			[]string{"strategy"},
		),

		keysSwept: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakwater_keys_swept_total",
				Help: "Total number of idle keys evicted by the janitor",
			},
			[]string{"strategy"},
		),

		auditRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakwater_audit_records_total",
				Help: "Total number of decisions handed to the audit recorder",
			},
			[]string{"outcome"},
		),

		auditDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "breakwater_audit_dropped_total",
				Help: "Total number of audit records dropped on a full buffer",
			},
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakwater_http_requests_total",
				Help: "Total number of gateway responses by status code",
			},
			[]string{"code"},
		),
	}
}

// RecordCheck records a single strategy evaluation.
func (m *Metrics) RecordCheck(strategy string, allowed bool, elapsed time.Duration) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.admissionChecks.WithLabelValues(strategy, outcome).Inc()
	m.checkDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveThrottleWait records how long a request was parked by the throttle.
func (m *Metrics) ObserveThrottleWait(elapsed time.Duration) {
	m.throttleWait.Observe(elapsed.Seconds())
}

// RecordSweep records the outcome of one janitor pass over a strategy:
// the number of idle keys removed and the live key count afterwards.
func (m *Metrics) RecordSweep(strategy string, removed, live int) {
	if removed > 0 {
		m.keysSwept.WithLabelValues(strategy).Add(float64(removed))
	}
	m.activeKeys.WithLabelValues(strategy).Set(float64(live))
}

// RecordAuditRecord records a decision handed to the audit recorder.
func (m *Metrics) RecordAuditRecord(allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.auditRecords.WithLabelValues(outcome).Inc()
}

// RecordAuditDrop records an audit record dropped because the recorder
// buffer was full.
func (m *Metrics) RecordAuditDrop() {
	m.auditDropped.Inc()
}

// RecordHTTPRequest records a completed gateway response.
func (m *Metrics) RecordHTTPRequest(status int) {
	m.httpRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Registry returns the Prometheus registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
