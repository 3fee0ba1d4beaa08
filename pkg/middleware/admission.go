package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"harborline/breakwater/pkg/audit"
	"harborline/breakwater/pkg/ratelimit"
	"harborline/breakwater/pkg/telemetry/metrics"
)

// Rule pairs a configured rule name with the strategy enforcing it.
type Rule struct {
	// Name labels the rule in logs, metrics, and audit records.
	// Empty defaults to the strategy's algorithm name.
	Name string

	// Strategy decides admission for each partition key. Must be non-nil.
	Strategy ratelimit.Strategy
}

// AdmissionConfig configures the admission middleware.
type AdmissionConfig struct {
	// Extractor derives the partition key. Nil defaults to
	// RemoteAddrExtractor.
	Extractor KeyExtractor

	// Rules are evaluated in order. Every rule must admit the request;
	// the first rejection short-circuits with a 429.
	Rules []Rule

	// Metrics receives per-check observations. Optional.
	Metrics *metrics.Metrics

	// Recorder receives an audit record per decision. Optional.
	Recorder *audit.Recorder

	// RecordAllowed also audits admitted requests. The default records
	// rejections only, keeping audit volume proportional to abuse rather
	// than to traffic.
	RecordAllowed bool
}

// AdmissionMiddleware guards the wrapped handler behind the configured
// rules. A rejected request is answered with 429, the X-RateLimit headers,
// a Retry-After header, and a JSON body carrying the same hint. An admitted
// request proceeds with the binding rule's budget (the smallest remaining
// allowance across rules) exposed on the response headers.
//
// With no rules configured every request is refused with 503: a
// misconfigured guard must fail closed, not admit unchecked traffic.
func AdmissionMiddleware(cfg AdmissionConfig) func(http.Handler) http.Handler {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}

	rules := make([]Rule, len(cfg.Rules))
	copy(rules, cfg.Rules)
	for i := range rules {
		if rules[i].Name == "" && rules[i].Strategy != nil {
			rules[i].Name = rules[i].Strategy.Name()
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(rules) == 0 {
				slog.ErrorContext(r.Context(), "no admission rules configured, refusing request",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				writeError(w, http.StatusServiceUnavailable, "admission not configured")
				return
			}

			key := extractor.Key(r)
			ctx := context.WithValue(r.Context(), ClientKeyKey, key)
			r = r.WithContext(ctx)

			var binding ratelimit.Decision
			var bindingRule Rule

			for i, rule := range rules {
				start := time.Now()
				decision := rule.Strategy.Allow(key)
				if cfg.Metrics != nil {
					cfg.Metrics.RecordCheck(rule.Name, decision.Allowed, time.Since(start))
				}

				if !decision.Allowed {
					slog.WarnContext(ctx, "request rejected",
						"client_key", key,
						"rule", rule.Name,
						"strategy", rule.Strategy.Name(),
						"retry_after_seconds", decision.RetryAfterSeconds(),
						"request_id", GetRequestID(ctx),
					)
					recordDecision(cfg, r, rule, key, decision)
					writeRejection(w, decision)
					return
				}

				if i == 0 || decision.Remaining < binding.Remaining {
					binding = decision
					bindingRule = rule
				}
			}

			recordDecision(cfg, r, bindingRule, key, binding)
			setLimitHeaders(w, binding)
			next.ServeHTTP(w, r)
		})
	}
}

// recordDecision hands the decision to the audit recorder, when configured.
func recordDecision(cfg AdmissionConfig, r *http.Request, rule Rule, key string, d ratelimit.Decision) {
	if cfg.Recorder == nil {
		return
	}
	if d.Allowed && !cfg.RecordAllowed {
		return
	}

	err := cfg.Recorder.Record(&audit.Record{
		RequestID:         GetRequestID(r.Context()),
		ClientKey:         key,
		Rule:              rule.Name,
		Strategy:          rule.Strategy.Name(),
		Allowed:           d.Allowed,
		RetryAfterSeconds: d.RetryAfterSeconds(),
		Method:            r.Method,
		Path:              r.URL.Path,
	})
	if err != nil {
		slog.DebugContext(r.Context(), "audit record not accepted", "error", err)
		return
	}
	if cfg.Metrics != nil {
		cfg.Metrics.RecordAuditRecord(d.Allowed)
	}
}

// rejectionBody is the JSON payload of a 429 response.
type rejectionBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// setLimitHeaders exposes the rule's budget on the response.
func setLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
}

// writeRejection answers a rejected request with 429 and the retry hint,
// rounded up to whole seconds in both the header and the body.
func writeRejection(w http.ResponseWriter, d ratelimit.Decision) {
	retryAfter := d.RetryAfterSeconds()

	setLimitHeaders(w, d)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(rejectionBody{
		Error:      "rate limit exceeded",
		RetryAfter: retryAfter,
	})
}

// writeError answers with a bare JSON error body, used when admission
// cannot be evaluated at all.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
