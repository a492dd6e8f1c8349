// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// MinRefreshInterval and MaxRefreshInterval bound the user-configurable refresh period.
	MinRefreshInterval = 10 * time.Second
	MaxRefreshInterval = 300 * time.Second

	// MinSnapshotInterval keeps the history from being flooded by a misconfigured period.
	MinSnapshotInterval = 10 * time.Second

	EstimatorTwoPoint     = "two-point"
	EstimatorLeastSquares = "least-squares"

	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m". Bare integers are
// interpreted as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := parseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// parseDuration accepts Go duration strings and plain seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Config holds all diskwatch configuration.
type Config struct {
	Monitor    MonitorConfig   `yaml:"monitor"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	History    HistoryConfig   `yaml:"history"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// MonitorConfig holds polling and trend settings.
type MonitorConfig struct {
	RefreshInterval  Duration `yaml:"refresh_interval"`
	SnapshotInterval Duration `yaml:"snapshot_interval"`
	Lookback         Duration `yaml:"lookback"`
	Estimator        string   `yaml:"estimator" validate:"oneof=two-point least-squares"`
}

// ThresholdConfig holds the free-space percentages that drive the status bands.
type ThresholdConfig struct {
	WarningPercent  float64 `yaml:"warning_percent" validate:"gte=0,lte=100,gtfield=CriticalPercent"`
	CriticalPercent float64 `yaml:"critical_percent" validate:"gte=0,lte=100"`
}

// HistoryConfig holds snapshot store settings.
type HistoryConfig struct {
	Backend       string   `yaml:"backend" validate:"oneof=sqlite file"`
	Path          string   `yaml:"path" validate:"required"`
	RetentionDays int      `yaml:"retention_days" validate:"min=1"`
	StoreTimeout  Duration `yaml:"store_timeout"`
	CacheSize     int      `yaml:"cache_size" validate:"min=1"`
	// MaxSizeMB caps the file backend; 0 (the default) disables the cap.
	// A cap evicts the oldest snapshots even inside the retention window.
	MaxSizeMB int `yaml:"max_size_mb" validate:"min=0"`
}

// Retention returns the retention window as a duration.
func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// DefaultHistoryPath returns the per-user location of the history database.
func DefaultHistoryPath() string {
	return filepath.Join(xdg.DataHome, "diskwatch", "history.db")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			RefreshInterval:  Duration{30 * time.Second},
			SnapshotInterval: Duration{5 * time.Minute},
			Lookback:         Duration{24 * time.Hour},
			Estimator:        EstimatorTwoPoint,
		},
		Thresholds: ThresholdConfig{
			WarningPercent:  10,
			CriticalPercent: 5,
		},
		History: HistoryConfig{
			Backend:       BackendSQLite,
			Path:          DefaultHistoryPath(),
			RetentionDays: 30,
			StoreTimeout:  Duration{5 * time.Second},
			CacheSize:     32,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	HistoryPath string
	Backend     string
	LogLevel    string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.HistoryPath != "" {
		cfg.History.Path = cli.HistoryPath
	}
	if cli.Backend != "" {
		cfg.History.Backend = cli.Backend
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DW_REFRESH_INTERVAL"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("DW_REFRESH_INTERVAL: %w", err)
		}
		cfg.Monitor.RefreshInterval = Duration{d}
	}
	if v := os.Getenv("DW_SNAPSHOT_INTERVAL"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("DW_SNAPSHOT_INTERVAL: %w", err)
		}
		cfg.Monitor.SnapshotInterval = Duration{d}
	}
	if v := os.Getenv("DW_WARNING_PERCENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DW_WARNING_PERCENT: %w", err)
		}
		cfg.Thresholds.WarningPercent = f
	}
	if v := os.Getenv("DW_CRITICAL_PERCENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DW_CRITICAL_PERCENT: %w", err)
		}
		cfg.Thresholds.CriticalPercent = f
	}
	if v := os.Getenv("DW_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DW_RETENTION_DAYS: %w", err)
		}
		cfg.History.RetentionDays = n
	}
	if v := os.Getenv("DW_HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = v
	}
	if v := os.Getenv("DW_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("DW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges with struct tags and the interval bounds
// that tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error
	if d := c.Monitor.RefreshInterval.Duration; d < MinRefreshInterval || d > MaxRefreshInterval {
		errs = append(errs, fmt.Errorf("monitor.refresh_interval must be between %s and %s (got %s)",
			MinRefreshInterval, MaxRefreshInterval, d))
	}
	if d := c.Monitor.SnapshotInterval.Duration; d < MinSnapshotInterval {
		errs = append(errs, fmt.Errorf("monitor.snapshot_interval must be at least %s (got %s)",
			MinSnapshotInterval, d))
	}
	if c.Monitor.Lookback.Duration <= 0 {
		errs = append(errs, fmt.Errorf("monitor.lookback must be positive"))
	}
	if c.History.StoreTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("history.store_timeout must be positive"))
	}
	return errors.Join(errs...)
}
