package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for huekeep.
// All configuration is loaded from YAML and can be overridden by environment
// variables; command-line flags override both.
type Config struct {
	Bridge  BridgeConfig  `yaml:"bridge"`
	HTTP    HTTPConfig    `yaml:"http"`
	Restore RestoreConfig `yaml:"restore"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// BridgeConfig contains the default bridge connection settings.
// Both values can be supplied per-invocation on the command line instead.
type BridgeConfig struct {
	// Address is the hostname or IP of the bridge (no scheme).
	Address string `yaml:"address"`

	// APIKey is the whitelisted application key used for all API calls.
	APIKey string `yaml:"api_key"`
}

// HTTPConfig contains outbound HTTP client settings.
type HTTPConfig struct {
	// TimeoutSeconds is the overall per-request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// RetryCount is the number of retries on transient connection errors.
	RetryCount int `yaml:"retry_count"`

	// RetryDelaySeconds is the delay between retries.
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
}

// RestoreConfig contains restore-pass behaviour settings.
type RestoreConfig struct {
	// WakeupAdjustment selects how absolute schedule trigger times are
	// carried across bridges in different timezones:
	//   - "preserve-wall-clock": copy the stored local time verbatim (default)
	//   - "shift-offset": shift by the offset delta between the snapshot
	//     bridge timezone and the destination bridge timezone
	WakeupAdjustment string `yaml:"wakeup_adjustment"`
}

// HistoryConfig contains run-history database settings.
type HistoryConfig struct {
	// Enabled controls whether backup/restore runs are recorded.
	Enabled bool `yaml:"enabled"`

	// Path is the filesystem path to the SQLite history database.
	Path string `yaml:"path"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Wakeup adjustment modes accepted by RestoreConfig.WakeupAdjustment.
const (
	WakeupPreserveWallClock = "preserve-wall-clock"
	WakeupShiftOffset       = "shift-offset"
)

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HUEKEEP_SECTION_KEY
// For example: HUEKEEP_BRIDGE_ADDRESS, HUEKEEP_BRIDGE_API_KEY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment variable
// overrides applied. Used when no config file is given; huekeep is fully
// operable from command-line flags alone.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			TimeoutSeconds:    30,
			RetryCount:        2,
			RetryDelaySeconds: 2,
		},
		Restore: RestoreConfig{
			WakeupAdjustment: WakeupPreserveWallClock,
		},
		History: HistoryConfig{
			Enabled:     true,
			Path:        "./data/huekeep.db",
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HUEKEEP_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HUEKEEP_BRIDGE_ADDRESS"); v != "" {
		cfg.Bridge.Address = v
	}

	// The API key is a credential; the environment is the preferred way to
	// supply it without leaking into shell history.
	if v := os.Getenv("HUEKEEP_BRIDGE_API_KEY"); v != "" {
		cfg.Bridge.APIKey = v
	}

	if v := os.Getenv("HUEKEEP_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Bridge address and API key are deliberately not required here: they may be
// supplied per-invocation as command-line flags, and the commands verify
// their presence after flag merging.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.TimeoutSeconds < 1 {
		errs = append(errs, "http.timeout_seconds must be at least 1")
	}
	if c.HTTP.RetryCount < 0 {
		errs = append(errs, "http.retry_count must not be negative")
	}

	switch c.Restore.WakeupAdjustment {
	case WakeupPreserveWallClock, WakeupShiftOffset:
	default:
		errs = append(errs, fmt.Sprintf(
			"restore.wakeup_adjustment must be %q or %q",
			WakeupPreserveWallClock, WakeupShiftOffset))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Timeout returns the HTTP request timeout as a Duration.
func (c *HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the HTTP retry delay as a Duration.
func (c *HTTPConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}
