package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"harborline/breakwater/pkg/audit"
	"harborline/breakwater/pkg/ratelimit"
	"harborline/breakwater/pkg/telemetry/metrics"
)

// ThrottleConfig configures the delayed-admission middleware.
type ThrottleConfig struct {
	// Extractor derives the partition key. Nil defaults to
	// RemoteAddrExtractor.
	Extractor KeyExtractor

	// Throttle paces admissions per key. Required.
	Throttle *ratelimit.Throttle

	// Name labels the throttle in logs and audit records.
	// Empty defaults to the throttle's algorithm name.
	Name string

	// Metrics receives wait-time observations. Optional.
	Metrics *metrics.Metrics

	// Recorder receives an audit record per admitted request. Optional.
	Recorder *audit.Recorder

	// RecordAllowed audits admitted requests. A throttle never rejects, so
	// with the default of false nothing is recorded.
	RecordAllowed bool
}

// ThrottleMiddleware delays requests instead of rejecting them: a request
// over the pacing window is parked until a slot frees up, then admitted.
// A caller that disconnects while parked never consumes its slot and is
// answered 503 (the response is unobservable to a gone client, but the
// connection must still be completed).
func ThrottleMiddleware(cfg ThrottleConfig) func(http.Handler) http.Handler {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}

	name := cfg.Name
	if name == "" && cfg.Throttle != nil {
		name = cfg.Throttle.Name()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractor.Key(r)
			ctx := context.WithValue(r.Context(), ClientKeyKey, key)
			r = r.WithContext(ctx)

			start := time.Now()
			if err := cfg.Throttle.Wait(ctx, key); err != nil {
				slog.DebugContext(ctx, "request abandoned while awaiting admission",
					"client_key", key,
					"rule", name,
					"waited_ms", time.Since(start).Milliseconds(),
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeError(w, http.StatusServiceUnavailable,
					"request cancelled while awaiting admission")
				return
			}

			waited := time.Since(start)
			if cfg.Metrics != nil {
				cfg.Metrics.ObserveThrottleWait(waited)
			}
			if waited >= time.Millisecond {
				slog.DebugContext(ctx, "request delayed for pacing",
					"client_key", key,
					"rule", name,
					"waited_ms", waited.Milliseconds(),
					"request_id", GetRequestID(ctx),
				)
			}

			if cfg.Recorder != nil && cfg.RecordAllowed {
				err := cfg.Recorder.Record(&audit.Record{
					RequestID: GetRequestID(ctx),
					ClientKey: key,
					Rule:      name,
					Strategy:  cfg.Throttle.Name(),
					Allowed:   true,
					Method:    r.Method,
					Path:      r.URL.Path,
				})
				if err == nil && cfg.Metrics != nil {
					cfg.Metrics.RecordAuditRecord(true)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
