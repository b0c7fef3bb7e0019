package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HTTP.TimeoutSeconds != 30 {
		t.Errorf("timeout = %d, want 30", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.Restore.WakeupAdjustment != WakeupPreserveWallClock {
		t.Errorf("wakeup adjustment = %q", cfg.Restore.WakeupAdjustment)
	}
	if !cfg.History.Enabled {
		t.Error("history not enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
bridge:
  address: 192.168.1.50
  api_key: secret
http:
  timeout_seconds: 10
restore:
  wakeup_adjustment: shift-offset
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Bridge.Address != "192.168.1.50" {
		t.Errorf("address = %q", cfg.Bridge.Address)
	}
	if cfg.HTTP.Timeout() != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.HTTP.Timeout())
	}
	if cfg.Restore.WakeupAdjustment != WakeupShiftOffset {
		t.Errorf("wakeup adjustment = %q", cfg.Restore.WakeupAdjustment)
	}
	// Unset file values keep their defaults.
	if cfg.HTTP.RetryCount != 2 {
		t.Errorf("retry count = %d, want default 2", cfg.HTTP.RetryCount)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "bridge: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("want error for malformed yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HUEKEEP_BRIDGE_ADDRESS", "10.0.0.9")
	t.Setenv("HUEKEEP_BRIDGE_API_KEY", "envkey")
	t.Setenv("HUEKEEP_HISTORY_PATH", "/tmp/h.db")

	path := writeConfig(t, `
bridge:
  address: 192.168.1.50
  api_key: filekey
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Bridge.Address != "10.0.0.9" {
		t.Errorf("address = %q, want env override", cfg.Bridge.Address)
	}
	if cfg.Bridge.APIKey != "envkey" {
		t.Errorf("api key = %q, want env override", cfg.Bridge.APIKey)
	}
	if cfg.History.Path != "/tmp/h.db" {
		t.Errorf("history path = %q, want env override", cfg.History.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.HTTP.TimeoutSeconds = 0 },
			wantErr: "http.timeout_seconds",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.HTTP.RetryCount = -1 },
			wantErr: "http.retry_count",
		},
		{
			name:    "unknown wakeup mode",
			mutate:  func(c *Config) { c.Restore.WakeupAdjustment = "guess" },
			wantErr: "restore.wakeup_adjustment",
		},
		{
			name: "history enabled without path",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.Path = ""
			},
			wantErr: "history.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
