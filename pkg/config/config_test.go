package config

import (
	"testing"
	"time"
)

func TestNewTestConfig(t *testing.T) {
	cfg := NewTestConfig().Build()

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	// Should be valid out of the box
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}

	// Should have defaults applied
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if cfg.Admission.Mode != ModeReject {
		t.Errorf("expected default mode %q, got %q", ModeReject, cfg.Admission.Mode)
	}
	if cfg.Admission.KeySource != KeySourceRemoteAddr {
		t.Errorf("expected default key source %q, got %q", KeySourceRemoteAddr, cfg.Admission.KeySource)
	}

	// Should have one rule so reject mode validates
	if len(cfg.Admission.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(cfg.Admission.Rules))
	}
	if cfg.Admission.Rules[0].Strategy != "token_bucket" {
		t.Errorf("expected token_bucket rule, got %q", cfg.Admission.Rules[0].Strategy)
	}
}

func TestConfigBuilder_WithListenAddress(t *testing.T) {
	cfg := NewTestConfig().
		WithListenAddress("127.0.0.1:9999").
		Build()

	if cfg.Server.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9999", cfg.Server.ListenAddress)
	}
}

func TestConfigBuilder_WithRule(t *testing.T) {
	cfg := NewTestConfig().
		WithRule(RuleConfig{
			Name:        "sustained",
			Strategy:    "fixed_window",
			Window:      15 * time.Minute,
			MaxRequests: 100,
		}).
		Build()

	if len(cfg.Admission.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(cfg.Admission.Rules))
	}
	if cfg.Admission.Rules[1].Name != "sustained" {
		t.Errorf("expected appended rule name %q, got %q", "sustained", cfg.Admission.Rules[1].Name)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestConfigBuilder_WithRules(t *testing.T) {
	cfg := NewTestConfig().
		WithRules(RuleConfig{
			Name:        "only",
			Strategy:    "sliding_log",
			Window:      time.Minute,
			MaxRequests: 10,
		}).
		Build()

	if len(cfg.Admission.Rules) != 1 {
		t.Fatalf("expected rule chain to be replaced, got %d rules", len(cfg.Admission.Rules))
	}
	if cfg.Admission.Rules[0].Strategy != "sliding_log" {
		t.Errorf("expected sliding_log rule, got %q", cfg.Admission.Rules[0].Strategy)
	}
}

func TestConfigBuilder_WithKeyHeader(t *testing.T) {
	cfg := NewTestConfig().
		WithKeyHeader("X-API-Key").
		Build()

	if cfg.Admission.KeySource != KeySourceHeader {
		t.Errorf("expected key source %q, got %q", KeySourceHeader, cfg.Admission.KeySource)
	}
	if cfg.Admission.KeyHeader != "X-API-Key" {
		t.Errorf("expected key header %q, got %q", "X-API-Key", cfg.Admission.KeyHeader)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestConfigBuilder_WithThrottle(t *testing.T) {
	cfg := NewTestConfig().
		WithThrottle(100, 15*time.Minute).
		Build()

	if cfg.Admission.Mode != ModeDelay {
		t.Errorf("expected mode %q, got %q", ModeDelay, cfg.Admission.Mode)
	}
	if cfg.Admission.Throttle.MaxRequests != 100 {
		t.Errorf("expected throttle max requests 100, got %d", cfg.Admission.Throttle.MaxRequests)
	}
	if cfg.Admission.Throttle.Window != 15*time.Minute {
		t.Errorf("expected throttle window 15m, got %v", cfg.Admission.Throttle.Window)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestConfigBuilder_WithSQLitePath(t *testing.T) {
	cfg := NewTestConfig().
		WithAuditEnabled(true).
		WithSQLitePath("/tmp/audit.db").
		Build()

	if cfg.Audit.Backend != "sqlite" {
		t.Errorf("expected backend %q, got %q", "sqlite", cfg.Audit.Backend)
	}
	if cfg.Audit.SQLite.Path != "/tmp/audit.db" {
		t.Errorf("expected SQLite path %q, got %q", "/tmp/audit.db", cfg.Audit.SQLite.Path)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestConfigBuilder_ChainedCalls(t *testing.T) {
	cfg := NewTestConfig().
		WithListenAddress(":9090").
		WithReadTimeout(45 * time.Second).
		WithSweepInterval(time.Minute).
		WithLoggingLevel("debug").
		WithLoggingFormat("text").
		WithMetricsEnabled(false).
		Build()

	if cfg.Server.ListenAddress != ":9090" {
		t.Errorf("listen address not applied")
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("read timeout not applied")
	}
	if cfg.Admission.SweepInterval != time.Minute {
		t.Errorf("sweep interval not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level not applied")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("logging format not applied")
	}
	if cfg.Metrics.Enabled {
		t.Errorf("metrics enabled not applied")
	}
}

func TestMinimalConfig(t *testing.T) {
	cfg := MinimalConfig()

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected minimal config to be valid, got: %v", err)
	}
}
