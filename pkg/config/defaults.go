package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Admission defaults
	DefaultAdmissionMode = ModeReject
	DefaultKeySource     = KeySourceRemoteAddr
	DefaultFallbackKey   = "global"
	DefaultSweepInterval = 5 * time.Minute

	// Audit defaults
	DefaultAuditBackend           = "memory"
	DefaultAuditBufferSize        = 1024
	DefaultAuditWriteTimeout      = 5 * time.Second
	DefaultAuditMemoryMaxRecords  = 10000
	DefaultAuditSQLitePath        = "breakwater.db"
	DefaultAuditSQLiteBusyTimeout = 5 * time.Second
	DefaultAuditSQLiteCheckpoint  = 5 * time.Minute
	DefaultAuditRetentionMaxAge   = 720 * time.Hour // 30 days
	DefaultAuditRetentionSchedule = "0 3 * * *"

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	// Metrics defaults
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Admission defaults
	if cfg.Admission.Mode == "" {
		cfg.Admission.Mode = DefaultAdmissionMode
	}
	if cfg.Admission.KeySource == "" {
		cfg.Admission.KeySource = DefaultKeySource
	}
	if cfg.Admission.FallbackKey == "" {
		cfg.Admission.FallbackKey = DefaultFallbackKey
	}
	if cfg.Admission.SweepInterval == 0 {
		cfg.Admission.SweepInterval = DefaultSweepInterval
	}

	// Rule defaults - applied to each rule
	for i, rule := range cfg.Admission.Rules {
		if rule.Name == "" {
			rule.Name = rule.Strategy
		}
		// Update the rule in the slice
		cfg.Admission.Rules[i] = rule
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = DefaultAuditBufferSize
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.Memory.MaxRecords == 0 {
		cfg.Audit.Memory.MaxRecords = DefaultAuditMemoryMaxRecords
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if cfg.Audit.SQLite.CheckpointInterval == 0 {
		cfg.Audit.SQLite.CheckpointInterval = DefaultAuditSQLiteCheckpoint
	}
	if cfg.Audit.Retention.MaxAge == 0 {
		cfg.Audit.Retention.MaxAge = DefaultAuditRetentionMaxAge
	}
	if cfg.Audit.Retention.Schedule == "" {
		cfg.Audit.Retention.Schedule = DefaultAuditRetentionSchedule
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	// Metrics default to enabled. A zero-value section means the user wrote
	// nothing; an explicit enabled: false with a path set is honored.
	if !cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		cfg.Metrics.Enabled = DefaultMetricsEnabled
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
