// Package config provides configuration management for Breakwater.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Unknown YAML keys are rejected, so a typo like "max_request" fails at load
// time instead of silently leaving the intended limit at its default.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BREAKWATER_SECTION_FIELD.
// For example:
//
//   - BREAKWATER_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - BREAKWATER_ADMISSION_MODE overrides admission.mode
//   - BREAKWATER_LOGGING_LEVEL overrides logging.level
//
// Environment variables always take precedence over file-based configuration.
// The admission rule chain is list-shaped and cannot be overridden from the
// environment; edit the file instead.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., listen address, rule strategy)
//   - Range validation (e.g., max_requests must be at least 1)
//   - Enumeration checks (e.g., mode must be 'reject' or 'delay')
//   - Logical validation (e.g., key_source 'header' requires key_header,
//     each strategy requires its own parameters)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - admission.rules[0].window: window must be positive
//	  - admission.key_header: key header is required when key source is 'header'
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: ":8080"
//
//	admission:
//	  mode: "reject"
//	  key_source: "remote_addr"
//	  rules:
//	    - name: "per-client"
//	      strategy: "token_bucket"
//	      capacity: 20
//	      refill_rate: 5
//
//	audit:
//	  enabled: true
//	  backend: "sqlite"
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes.
package config
