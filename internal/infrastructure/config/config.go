package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Sync Hub.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	GC      GCConfig      `yaml:"gc"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// StorageConfig contains filesystem storage settings.
type StorageConfig struct {
	// DataPath is the root directory for all persisted state.
	// Accounts live under <data_path>/accounts/<account-id>/.
	DataPath string `yaml:"data_path"`
}

// GCConfig contains expiration and sweep interval settings.
//
// Sweeps are fixed-delay background loops, not wall-clock cron: an interval
// of one hour means "roughly every hour while the process is up".
type GCConfig struct {
	// AccountInterval is both the orphan age threshold and the sweep
	// interval for accounts that have no devices.
	AccountInterval time.Duration `yaml:"account_interval"`

	// DeviceExpiration is how long a device may go unseen before it is
	// removed. DeviceInterval is how often the check runs.
	DeviceExpiration time.Duration `yaml:"device_expiration"`
	DeviceInterval   time.Duration `yaml:"device_interval"`

	// ShareExpiration is the time-to-live of an unconsumed share code.
	// ShareStaleInterval is how often in-memory shares are reconciled
	// against their backing files.
	ShareExpiration    time.Duration `yaml:"share_expiration"`
	ShareStaleInterval time.Duration `yaml:"share_stale_interval"`

	// ModuleExpiration is how long an untouched module blob is kept.
	// ModuleInterval is how often the check runs.
	ModuleExpiration time.Duration `yaml:"module_expiration"`
	ModuleInterval   time.Duration `yaml:"module_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SYNCHUB_SECTION_KEY
// For example: SYNCHUB_STORAGE_DATA_PATH, SYNCHUB_SERVER_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file. A missing file is not an error: the
	// server runs on defaults plus environment overrides.
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
//
// The GC defaults mirror the sync protocol's intent: share codes are
// short-lived capabilities (minutes), devices and modules linger for
// months of inactivity before cleanup.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Storage: StorageConfig{
			DataPath: "./data",
		},
		GC: GCConfig{
			AccountInterval:    time.Hour,
			DeviceExpiration:   90 * 24 * time.Hour,
			DeviceInterval:     time.Hour,
			ShareExpiration:    10 * time.Minute,
			ShareStaleInterval: 10 * time.Minute,
			ModuleExpiration:   90 * 24 * time.Hour,
			ModuleInterval:     time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SYNCHUB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SYNCHUB_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SYNCHUB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SYNCHUB_STORAGE_DATA_PATH"); v != "" {
		cfg.Storage.DataPath = v
	}
	if v := os.Getenv("SYNCHUB_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Storage.DataPath == "" {
		errs = append(errs, "storage.data_path is required")
	}

	if c.GC.AccountInterval <= 0 {
		errs = append(errs, "gc.account_interval must be positive")
	}
	if c.GC.DeviceExpiration <= 0 || c.GC.DeviceInterval <= 0 {
		errs = append(errs, "gc.device_expiration and gc.device_interval must be positive")
	}
	if c.GC.ShareExpiration <= 0 || c.GC.ShareStaleInterval <= 0 {
		errs = append(errs, "gc.share_expiration and gc.share_stale_interval must be positive")
	}
	if c.GC.ModuleExpiration <= 0 || c.GC.ModuleInterval <= 0 {
		errs = append(errs, "gc.module_expiration and gc.module_interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LogFields returns the configuration as explicit key-value pairs for
// structured logging at startup. Every field is listed by hand; there is
// deliberately no reflection-based dump.
func (c *Config) LogFields() []any {
	return []any{
		"server_host", c.Server.Host,
		"server_port", c.Server.Port,
		"data_path", c.Storage.DataPath,
		"account_interval", c.GC.AccountInterval.String(),
		"device_expiration", c.GC.DeviceExpiration.String(),
		"device_interval", c.GC.DeviceInterval.String(),
		"share_expiration", c.GC.ShareExpiration.String(),
		"share_stale_interval", c.GC.ShareStaleInterval.String(),
		"module_expiration", c.GC.ModuleExpiration.String(),
		"module_interval", c.GC.ModuleInterval.String(),
		"log_level", c.Logging.Level,
		"log_format", c.Logging.Format,
	}
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}
