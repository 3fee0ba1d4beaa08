package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{
		Admission: AdmissionConfig{
			Rules: []RuleConfig{
				{
					Name:       "burst",
					Strategy:   "token_bucket",
					Capacity:   10,
					RefillRate: 1.0,
				},
			},
		},
	}
	ApplyDefaults(&cfg)

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithReadTimeout sets the server read timeout.
func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Server.ReadTimeout = d
	return b
}

// WithMode sets the admission mode.
func (b *ConfigBuilder) WithMode(mode string) *ConfigBuilder {
	b.cfg.Admission.Mode = mode
	return b
}

// WithRules replaces the admission rule chain.
func (b *ConfigBuilder) WithRules(rules ...RuleConfig) *ConfigBuilder {
	b.cfg.Admission.Rules = rules
	return b
}

// WithRule appends a rule to the admission rule chain.
func (b *ConfigBuilder) WithRule(rule RuleConfig) *ConfigBuilder {
	b.cfg.Admission.Rules = append(b.cfg.Admission.Rules, rule)
	return b
}

// WithKeyHeader switches client identification to a request header.
func (b *ConfigBuilder) WithKeyHeader(header string) *ConfigBuilder {
	b.cfg.Admission.KeySource = KeySourceHeader
	b.cfg.Admission.KeyHeader = header
	return b
}

// WithThrottle switches to delay mode with the given pacing parameters.
func (b *ConfigBuilder) WithThrottle(maxRequests int64, window time.Duration) *ConfigBuilder {
	b.cfg.Admission.Mode = ModeDelay
	b.cfg.Admission.Throttle = ThrottleConfig{
		MaxRequests: maxRequests,
		Window:      window,
	}
	return b
}

// WithSweepInterval sets the janitor sweep interval.
func (b *ConfigBuilder) WithSweepInterval(d time.Duration) *ConfigBuilder {
	b.cfg.Admission.SweepInterval = d
	return b
}

// WithAuditEnabled sets whether audit recording is enabled.
func (b *ConfigBuilder) WithAuditEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Audit.Enabled = enabled
	return b
}

// WithAuditBackend sets the audit backend.
func (b *ConfigBuilder) WithAuditBackend(backend string) *ConfigBuilder {
	b.cfg.Audit.Backend = backend
	return b
}

// WithSQLitePath sets the SQLite database path and selects the SQLite
// backend.
func (b *ConfigBuilder) WithSQLitePath(path string) *ConfigBuilder {
	b.cfg.Audit.Backend = "sqlite"
	b.cfg.Audit.SQLite.Path = path
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Metrics.Enabled = enabled
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
