package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a config file to a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"

admission:
  mode: "reject"
  key_source: "remote_addr"
  sweep_interval: "2m"
  rules:
    - name: "burst"
      strategy: "token_bucket"
      capacity: 10
      refill_rate: 1.0
    - name: "sustained"
      strategy: "fixed_window"
      window: "15m"
      max_requests: 100

audit:
  enabled: true
  backend: "memory"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load valid config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
	}
	// Unset server fields fall back to defaults
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}

	if cfg.Admission.Mode != ModeReject {
		t.Errorf("expected mode reject, got %q", cfg.Admission.Mode)
	}
	if cfg.Admission.SweepInterval != 2*time.Minute {
		t.Errorf("expected sweep interval 2m, got %v", cfg.Admission.SweepInterval)
	}
	if len(cfg.Admission.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(cfg.Admission.Rules))
	}
	if cfg.Admission.Rules[0].Strategy != "token_bucket" || cfg.Admission.Rules[0].Capacity != 10 {
		t.Errorf("first rule not loaded: %+v", cfg.Admission.Rules[0])
	}
	if cfg.Admission.Rules[1].Window != 15*time.Minute || cfg.Admission.Rules[1].MaxRequests != 100 {
		t.Errorf("second rule not loaded: %+v", cfg.Admission.Rules[1])
	}

	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging not loaded: %+v", cfg.Logging)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: ":8080"
   bad_indent: true
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	// A typo like max_request must fail loudly, not silently use a default.
	configPath := writeConfig(t, `
admission:
  rules:
    - strategy: "fixed_window"
      window: "1m"
      max_request: 100
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for unknown YAML key")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_EmptyFileFailsValidation(t *testing.T) {
	// An empty file defaults to reject mode with no rules, which is invalid:
	// a gateway with no rules would silently admit everything.
	configPath := writeConfig(t, "")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error for empty config")
	}

	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	found := false
	for _, fe := range vErr.Errors {
		if fe.Field == "admission.rules" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected admission.rules error, got: %v", vErr)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
admission:
  mode: "reject"
  rules:
    - strategy: "token_bucket"
      capacity: 0
      refill_rate: -1
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(vErr.Errors) < 2 {
		t.Errorf("expected at least 2 field errors, got %d: %v", len(vErr.Errors), vErr)
	}
}

const minimalValid = `
admission:
  rules:
    - strategy: "token_bucket"
      capacity: 10
      refill_rate: 1.0
`

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfig(t, minimalValid)

	os.Setenv("BREAKWATER_SERVER_LISTEN_ADDRESS", "0.0.0.0:9090")
	os.Setenv("BREAKWATER_ADMISSION_FALLBACK_KEY", "anonymous")
	os.Setenv("BREAKWATER_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("BREAKWATER_SERVER_LISTEN_ADDRESS")
		os.Unsetenv("BREAKWATER_ADMISSION_FALLBACK_KEY")
		os.Unsetenv("BREAKWATER_LOGGING_LEVEL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected env-overridden listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Admission.FallbackKey != "anonymous" {
		t.Errorf("expected env-overridden fallback key, got %q", cfg.Admission.FallbackKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env-overridden logging level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_DurationParsing(t *testing.T) {
	configPath := writeConfig(t, minimalValid)

	os.Setenv("BREAKWATER_SERVER_READ_TIMEOUT", "120s")
	os.Setenv("BREAKWATER_ADMISSION_SWEEP_INTERVAL", "45s")
	defer func() {
		os.Unsetenv("BREAKWATER_SERVER_READ_TIMEOUT")
		os.Unsetenv("BREAKWATER_ADMISSION_SWEEP_INTERVAL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ReadTimeout != 120*time.Second {
		t.Errorf("expected read timeout 120s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Admission.SweepInterval != 45*time.Second {
		t.Errorf("expected sweep interval 45s, got %v", cfg.Admission.SweepInterval)
	}
}

func TestLoadConfigWithEnvOverrides_IntegerParsing(t *testing.T) {
	configPath := writeConfig(t, minimalValid)

	os.Setenv("BREAKWATER_SERVER_MAX_HEADER_BYTES", "2097152")
	os.Setenv("BREAKWATER_AUDIT_BUFFER_SIZE", "512")
	defer func() {
		os.Unsetenv("BREAKWATER_SERVER_MAX_HEADER_BYTES")
		os.Unsetenv("BREAKWATER_AUDIT_BUFFER_SIZE")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.MaxHeaderBytes != 2097152 {
		t.Errorf("expected max header bytes 2097152, got %d", cfg.Server.MaxHeaderBytes)
	}
	if cfg.Audit.BufferSize != 512 {
		t.Errorf("expected audit buffer size 512, got %d", cfg.Audit.BufferSize)
	}
}

func TestLoadConfigWithEnvOverrides_BooleanParsing(t *testing.T) {
	configPath := writeConfig(t, minimalValid)

	os.Setenv("BREAKWATER_AUDIT_ENABLED", "true")
	os.Setenv("BREAKWATER_METRICS_ENABLED", "false")
	defer func() {
		os.Unsetenv("BREAKWATER_AUDIT_ENABLED")
		os.Unsetenv("BREAKWATER_METRICS_ENABLED")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled via env")
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled via env")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	configPath := writeConfig(t, minimalValid)

	// Unparseable values are ignored; unparseable enums fail validation.
	os.Setenv("BREAKWATER_SERVER_MAX_HEADER_BYTES", "not-a-number")
	os.Setenv("BREAKWATER_LOGGING_LEVEL", "invalid-level")
	defer func() {
		os.Unsetenv("BREAKWATER_SERVER_MAX_HEADER_BYTES")
		os.Unsetenv("BREAKWATER_LOGGING_LEVEL")
	}()

	_, err := LoadConfigWithEnvOverrides(configPath)
	if err == nil {
		t.Fatal("expected validation error for invalid logging level")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidNumericIgnored(t *testing.T) {
	configPath := writeConfig(t, minimalValid)

	os.Setenv("BREAKWATER_SERVER_MAX_HEADER_BYTES", "not-a-number")
	defer os.Unsetenv("BREAKWATER_SERVER_MAX_HEADER_BYTES")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.MaxHeaderBytes != DefaultMaxHeaderBytes {
		t.Errorf("expected unparseable int ignored, got %d", cfg.Server.MaxHeaderBytes)
	}
}

func TestLoadConfigWithEnvOverrides_SQLiteAndRetention(t *testing.T) {
	configPath := writeConfig(t, minimalValid+`
audit:
  enabled: true
  backend: "sqlite"
`)

	os.Setenv("BREAKWATER_AUDIT_SQLITE_PATH", "/var/lib/breakwater/audit.db")
	os.Setenv("BREAKWATER_AUDIT_RETENTION_MAX_AGE", "168h")
	defer func() {
		os.Unsetenv("BREAKWATER_AUDIT_SQLITE_PATH")
		os.Unsetenv("BREAKWATER_AUDIT_RETENTION_MAX_AGE")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Audit.SQLite.Path != "/var/lib/breakwater/audit.db" {
		t.Errorf("expected env-overridden SQLite path, got %q", cfg.Audit.SQLite.Path)
	}
	if cfg.Audit.Retention.MaxAge != 168*time.Hour {
		t.Errorf("expected retention max age 168h, got %v", cfg.Audit.Retention.MaxAge)
	}
}
