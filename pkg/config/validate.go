package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAdmission(&cfg.Admission)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

// validateAdmission validates admission configuration.
func validateAdmission(cfg *AdmissionConfig) []FieldError {
	var errs []FieldError

	// Validate mode
	validModes := map[string]bool{ModeReject: true, ModeDelay: true}
	if cfg.Mode == "" {
		errs = append(errs, FieldError{
			Field:   "admission.mode",
			Message: "mode is required",
		})
	} else if !validModes[cfg.Mode] {
		errs = append(errs, FieldError{
			Field:   "admission.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'reject' or 'delay'", cfg.Mode),
		})
	}

	// Validate key source
	validSources := map[string]bool{KeySourceRemoteAddr: true, KeySourceHeader: true}
	if cfg.KeySource == "" {
		errs = append(errs, FieldError{
			Field:   "admission.key_source",
			Message: "key source is required",
		})
	} else if !validSources[cfg.KeySource] {
		errs = append(errs, FieldError{
			Field:   "admission.key_source",
			Message: fmt.Sprintf("invalid key source %q: must be 'remote_addr' or 'header'", cfg.KeySource),
		})
	}

	if cfg.KeySource == KeySourceHeader && cfg.KeyHeader == "" {
		errs = append(errs, FieldError{
			Field:   "admission.key_header",
			Message: "key header is required when key source is 'header'",
		})
	}

	if cfg.FallbackKey == "" {
		errs = append(errs, FieldError{
			Field:   "admission.fallback_key",
			Message: "fallback key is required",
		})
	}

	if cfg.SweepInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "admission.sweep_interval",
			Message: "sweep interval must be non-negative (0 disables the sweep)",
		})
	}

	// Validate the rule chain (reject mode) or the throttle (delay mode)
	switch cfg.Mode {
	case ModeReject:
		if len(cfg.Rules) == 0 {
			errs = append(errs, FieldError{
				Field:   "admission.rules",
				Message: "at least one rule is required in 'reject' mode",
			})
		}
		errs = append(errs, validateRules(cfg.Rules)...)
	case ModeDelay:
		errs = append(errs, validateThrottle(&cfg.Throttle)...)
	}

	return errs
}

// validateRules validates each rule and rejects duplicate rule names, which
// would make logs, metrics, and audit records ambiguous.
func validateRules(rules []RuleConfig) []FieldError {
	var errs []FieldError

	validStrategies := map[string]bool{
		"fixed_window":    true,
		"sliding_log":     true,
		"sliding_counter": true,
		"token_bucket":    true,
		"leaky_bucket":    true,
	}

	seen := make(map[string]int)
	for i, rule := range rules {
		prefix := fmt.Sprintf("admission.rules[%d]", i)

		if rule.Strategy == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".strategy",
				Message: "strategy is required",
			})
			continue
		}
		if !validStrategies[rule.Strategy] {
			errs = append(errs, FieldError{
				Field:   prefix + ".strategy",
				Message: fmt.Sprintf("invalid strategy %q: must be 'fixed_window', 'sliding_log', 'sliding_counter', 'token_bucket', or 'leaky_bucket'", rule.Strategy),
			})
			continue
		}

		// Rule names are defaulted to the strategy name before validation,
		// so an empty name here means defaults were not applied.
		name := rule.Name
		if name == "" {
			name = rule.Strategy
		}
		if prev, dup := seen[name]; dup {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate rule name %q (also used by rule %d)", name, prev),
			})
		}
		seen[name] = i

		// Per-strategy parameters, mirroring what the constructors require
		// so a valid configuration always builds.
		switch rule.Strategy {
		case "fixed_window", "sliding_log", "sliding_counter":
			if rule.Window <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".window",
					Message: "window must be positive",
				})
			}
			if rule.MaxRequests < 1 {
				errs = append(errs, FieldError{
					Field:   prefix + ".max_requests",
					Message: "max requests must be at least 1",
				})
			}
		case "token_bucket":
			if rule.Capacity < 1 {
				errs = append(errs, FieldError{
					Field:   prefix + ".capacity",
					Message: "capacity must be at least 1",
				})
			}
			if rule.RefillRate <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".refill_rate",
					Message: "refill rate must be positive",
				})
			}
		case "leaky_bucket":
			if rule.Capacity < 1 {
				errs = append(errs, FieldError{
					Field:   prefix + ".capacity",
					Message: "capacity must be at least 1",
				})
			}
			if rule.LeakInterval <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".leak_interval",
					Message: "leak interval must be positive",
				})
			}
		}
	}

	return errs
}

// validateThrottle validates delay-mode throttle configuration.
func validateThrottle(cfg *ThrottleConfig) []FieldError {
	var errs []FieldError

	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "admission.throttle.window",
			Message: "window must be positive in 'delay' mode",
		})
	}
	if cfg.MaxRequests < 1 {
		errs = append(errs, FieldError{
			Field:   "admission.throttle.max_requests",
			Message: "max requests must be at least 1 in 'delay' mode",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	// If auditing is disabled, skip validation
	if !cfg.Enabled {
		return errs
	}

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if cfg.Backend == "" {
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: "backend is required when auditing is enabled",
		})
	} else if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.BufferSize < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer_size",
			Message: "buffer size must be at least 1",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	switch cfg.Backend {
	case "memory":
		if cfg.Memory.MaxRecords < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.memory.max_records",
				Message: "max records must be non-negative",
			})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.busy_timeout",
				Message: "busy timeout must be positive",
			})
		}
		if cfg.SQLite.CheckpointInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.checkpoint_interval",
				Message: "checkpoint interval must be positive",
			})
		}
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_age",
			Message: "max age must be non-negative (0 keeps records forever)",
		})
	}

	return errs
}

// validateLogging validates logging configuration.
func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Level == "" {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Level] {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Format == "" {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Format] {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Format),
		})
	}

	return errs
}

// validateMetrics validates metrics configuration.
func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if cfg.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "metrics.path",
				Message: "metrics path must start with /",
			})
		}
	}

	return errs
}
