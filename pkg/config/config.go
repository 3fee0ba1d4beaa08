package config

import "time"

// Config is the root configuration structure for breakwater. It contains
// all configuration sections for the HTTP server, admission control, audit
// recording, logging, and metrics.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Admission contains the admission-control configuration: the mode,
	// how clients are identified, and the rule chain or throttle.
	Admission AdmissionConfig `yaml:"admission"`

	// Audit contains configuration for recording admission decisions.
	Audit AuditConfig `yaml:"audit"`

	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., ":8080", "127.0.0.1:8080").
	// Default: ":8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Delayed-admission waits count against it, so it must exceed
	// the longest throttle window.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits how much of the request header the server reads.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// Admission modes.
const (
	// ModeReject evaluates the rule chain and answers over-limit requests
	// with 429.
	ModeReject = "reject"

	// ModeDelay parks over-limit requests until a slot frees up instead of
	// rejecting them.
	ModeDelay = "delay"
)

// Client key sources.
const (
	// KeySourceRemoteAddr partitions clients by network address.
	KeySourceRemoteAddr = "remote_addr"

	// KeySourceHeader partitions clients by a request header value.
	KeySourceHeader = "header"
)

// AdmissionConfig contains admission-control configuration.
type AdmissionConfig struct {
	// Mode selects how over-limit requests are handled.
	// Options: "reject", "delay"
	// Default: "reject"
	Mode string `yaml:"mode"`

	// KeySource selects how the client partition key is derived.
	// Options: "remote_addr", "header"
	// Default: "remote_addr"
	KeySource string `yaml:"key_source"`

	// KeyHeader is the header carrying the client key.
	// Required when KeySource is "header".
	KeyHeader string `yaml:"key_header"`

	// FallbackKey is the shared partition key for requests whose client
	// identity cannot be derived. Such requests are limited as one
	// aggregate client rather than admitted unchecked.
	// Default: "global"
	FallbackKey string `yaml:"fallback_key"`

	// SweepInterval is how often idle per-key state is evicted.
	// 0 disables the sweep.
	// Default: 5m
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Rules is the rule chain for "reject" mode, evaluated in order.
	// Every rule must admit a request; the first rejection answers 429.
	// At least one rule is required in "reject" mode.
	Rules []RuleConfig `yaml:"rules"`

	// Throttle configures "delay" mode pacing. Only read in that mode.
	Throttle ThrottleConfig `yaml:"throttle"`
}

// RuleConfig configures one admission rule. Only the fields relevant to
// the chosen strategy are read.
type RuleConfig struct {
	// Name labels the rule in logs, metrics, and audit records.
	// Default: the strategy name.
	Name string `yaml:"name"`

	// Strategy is the algorithm enforcing the rule.
	// Options: "fixed_window", "sliding_log", "sliding_counter",
	// "token_bucket", "leaky_bucket"
	Strategy string `yaml:"strategy"`

	// Window is the measurement window for the window-based strategies
	// (fixed_window, sliding_log, sliding_counter).
	Window time.Duration `yaml:"window"`

	// MaxRequests is the admission bound per window for the window-based
	// strategies.
	MaxRequests int64 `yaml:"max_requests"`

	// Capacity is the bucket size for token_bucket and leaky_bucket.
	Capacity int64 `yaml:"capacity"`

	// RefillRate is tokens added per second (token_bucket).
	RefillRate float64 `yaml:"refill_rate"`

	// LeakInterval is the time to drain one queue slot (leaky_bucket).
	LeakInterval time.Duration `yaml:"leak_interval"`
}

// ThrottleConfig configures delayed admission.
type ThrottleConfig struct {
	// Window is the pacing window.
	Window time.Duration `yaml:"window"`

	// MaxRequests is the number of admissions per key per window.
	MaxRequests int64 `yaml:"max_requests"`
}

// AuditConfig contains configuration for recording admission decisions.
type AuditConfig struct {
	// Enabled controls whether decisions are recorded at all.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects where records are stored.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// RecordAllowed also records admitted requests. The default records
	// rejections only.
	// Default: false
	RecordAllowed bool `yaml:"record_allowed"`

	// BufferSize is the capacity of the asynchronous write queue. When the
	// queue is full new records are dropped, never blocking admission.
	// Default: 1024
	BufferSize int `yaml:"buffer_size"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Memory contains memory backend configuration.
	Memory MemoryAuditConfig `yaml:"memory"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteAuditConfig `yaml:"sqlite"`

	// Retention contains record retention configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// MemoryAuditConfig contains memory backend configuration.
type MemoryAuditConfig struct {
	// MaxRecords is the number of records kept before the oldest are
	// evicted.
	// Default: 10000
	MaxRecords int `yaml:"max_records"`
}

// SQLiteAuditConfig contains SQLite backend configuration.
type SQLiteAuditConfig struct {
	// Path is the database file path.
	// Default: "breakwater.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// RetentionConfig contains record retention configuration.
type RetentionConfig struct {
	// MaxAge is how long records are kept. 0 keeps records forever.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a standard cron expression for the pruning job,
	// evaluated in local time. Empty disables scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
