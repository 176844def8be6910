package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  timeouts:
    read: 5
    write: 5
    idle: 10
storage:
  data_path: "/tmp/synchub-test"
gc:
  account_interval: 30m
  share_expiration: 5m
logging:
  level: "debug"
  format: "text"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Storage.DataPath != "/tmp/synchub-test" {
		t.Errorf("Storage.DataPath = %q, want %q", cfg.Storage.DataPath, "/tmp/synchub-test")
	}
	if cfg.GC.AccountInterval != 30*time.Minute {
		t.Errorf("GC.AccountInterval = %v, want %v", cfg.GC.AccountInterval, 30*time.Minute)
	}
	if cfg.GC.ShareExpiration != 5*time.Minute {
		t.Errorf("GC.ShareExpiration = %v, want %v", cfg.GC.ShareExpiration, 5*time.Minute)
	}

	// Fields absent from the file keep their defaults
	if cfg.GC.DeviceExpiration != 90*24*time.Hour {
		t.Errorf("GC.DeviceExpiration = %v, want default %v", cfg.GC.DeviceExpiration, 90*24*time.Hour)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults for missing file", err)
	}

	def := Default()
	if cfg.Server.Port != def.Server.Port {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, def.Server.Port)
	}
	if cfg.Storage.DataPath != def.Storage.DataPath {
		t.Errorf("Storage.DataPath = %q, want default %q", cfg.Storage.DataPath, def.Storage.DataPath)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
server:
  port: 999999
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for out-of-range port, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SYNCHUB_SERVER_HOST", "10.0.0.5")
	t.Setenv("SYNCHUB_SERVER_PORT", "7070")
	t.Setenv("SYNCHUB_STORAGE_DATA_PATH", "/var/lib/synchub")
	t.Setenv("SYNCHUB_LOGGING_LEVEL", "warn")

	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "10.0.0.5" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "10.0.0.5")
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 7070)
	}
	if cfg.Storage.DataPath != "/var/lib/synchub" {
		t.Errorf("Storage.DataPath = %q, want %q", cfg.Storage.DataPath, "/var/lib/synchub")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestValidate_GCIntervals(t *testing.T) {
	cfg := Default()
	cfg.GC.ShareExpiration = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for zero share expiration, got nil")
	}

	cfg = Default()
	cfg.GC.AccountInterval = -time.Minute
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for negative account interval, got nil")
	}
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := Default()
	cfg.Server.Timeouts.Read = 15

	if got := cfg.GetReadTimeout(); got != 15*time.Second {
		t.Errorf("GetReadTimeout() = %v, want %v", got, 15*time.Second)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want %v", got, 60*time.Second)
	}
}
