package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("history:\n  path: \"/embedded/history.db\"\n  backend: file")
	t.Setenv("DW_HISTORY_PATH", "/env/history.db")
	cli := CLIOverrides{HistoryPath: "/cli/history.db", Backend: "sqlite", LogLevel: "debug"}

	cfg, err := LoadLayered(cli, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.History.Path != "/cli/history.db" {
		t.Errorf("Path = %q, want CLI override", cfg.History.Path)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("Backend = %q, want CLI override", cfg.History.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want CLI override", cfg.Logging.Level)
	}
}

func TestLoadLayered_EnvOverridesEmbed(t *testing.T) {
	embedded := []byte("monitor:\n  refresh_interval: 45s\nthresholds:\n  warning_percent: 15")
	t.Setenv("DW_REFRESH_INTERVAL", "60")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Monitor.RefreshInterval.Duration != time.Minute {
		t.Errorf("RefreshInterval = %v, want env override 1m", cfg.Monitor.RefreshInterval.Duration)
	}
	if cfg.Thresholds.WarningPercent != 15 {
		t.Errorf("WarningPercent = %v, want embedded value", cfg.Thresholds.WarningPercent)
	}
}

func TestLoadLayered_FileOverridesEmbed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("history:\n  retention_days: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLayered(CLIOverrides{}, []byte("history:\n  retention_days: 14\n"), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.History.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d, want file value 7", cfg.History.RetentionDays)
	}
	if cfg.History.Retention() != 7*24*time.Hour {
		t.Errorf("Retention() = %v, want 168h", cfg.History.Retention())
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Monitor.RefreshInterval.Duration != 30*time.Second {
		t.Errorf("RefreshInterval = %v, want 30s default", cfg.Monitor.RefreshInterval.Duration)
	}
	if cfg.Monitor.SnapshotInterval.Duration != 5*time.Minute {
		t.Errorf("SnapshotInterval = %v, want 5m default", cfg.Monitor.SnapshotInterval.Duration)
	}
	if cfg.Thresholds.WarningPercent != 10 || cfg.Thresholds.CriticalPercent != 5 {
		t.Errorf("thresholds = %+v, want 10/5", cfg.Thresholds)
	}
	if cfg.History.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.History.RetentionDays)
	}
	if cfg.History.MaxSizeMB != 0 {
		t.Errorf("MaxSizeMB = %d, want 0 (no cap unless configured)", cfg.History.MaxSizeMB)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromBytes_InvalidEnv(t *testing.T) {
	t.Setenv("DW_RETENTION_DAYS", "a week")
	if _, err := LoadFromBytes(nil); err == nil {
		t.Error("expected error for non-numeric DW_RETENTION_DAYS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"refresh at lower bound", func(c *Config) { c.Monitor.RefreshInterval.Duration = 10 * time.Second }, false},
		{"refresh at upper bound", func(c *Config) { c.Monitor.RefreshInterval.Duration = 300 * time.Second }, false},
		{"refresh too short", func(c *Config) { c.Monitor.RefreshInterval.Duration = 5 * time.Second }, true},
		{"refresh too long", func(c *Config) { c.Monitor.RefreshInterval.Duration = 301 * time.Second }, true},
		{"snapshot too short", func(c *Config) { c.Monitor.SnapshotInterval.Duration = time.Second }, true},
		{"warning below critical", func(c *Config) { c.Thresholds.WarningPercent = 4 }, true},
		{"critical above 100", func(c *Config) { c.Thresholds.CriticalPercent = 120; c.Thresholds.WarningPercent = 130 }, true},
		{"unknown backend", func(c *Config) { c.History.Backend = "postgres" }, true},
		{"zero retention", func(c *Config) { c.History.RetentionDays = 0 }, true},
		{"unknown estimator", func(c *Config) { c.Monitor.Estimator = "median" }, true},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"zero store timeout", func(c *Config) { c.History.StoreTimeout.Duration = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.History.Path = "/tmp/history.db"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfig_RoundTripsDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Monitor.RefreshInterval = Duration{90 * time.Second}

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Monitor.RefreshInterval.Duration != 90*time.Second {
		t.Errorf("RefreshInterval = %v, want 1m30s", loaded.Monitor.RefreshInterval.Duration)
	}
}
