package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/oximon/internal/health"
)

// Config holds all configurable oximon settings.
type Config struct {
	Interval   string     `yaml:"interval"` // Go duration, e.g. "5s"
	DataDir    string     `yaml:"data_dir"` // empty means the XDG data dir
	Users      []string   `yaml:"users"`
	Thresholds Thresholds `yaml:"thresholds"`
	Sensor     string     `yaml:"sensor"` // "simulator" | "file:<path>"
	Alerts     Alerts     `yaml:"alerts"`
	Log        Log        `yaml:"log"`
}

// Thresholds are per-key optional so a project file can override one value.
type Thresholds struct {
	HeartRateLow  *int `yaml:"heart_rate_low"`
	HeartRateHigh *int `yaml:"heart_rate_high"`
	OxygenMin     *int `yaml:"oxygen_min"`
}

type Alerts struct {
	Debounce *bool `yaml:"debounce"`
}

type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
	File   string `yaml:"file"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Interval: "5s",
		Users:    []string{"User 1", "User 2", "User 3"},
		Sensor:   "simulator",
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Dir returns ~/.config/oximon.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "oximon"), nil
}

// LoadGlobal reads ~/.config/oximon/config.yaml.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.yaml"), true)
}

// LoadProject reads .oximon.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".oximon.yaml", false)
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c != nil {
			result.apply(c)
		}
	}
	return result
}

func (c *Config) apply(o *Config) {
	if o.Interval != "" {
		c.Interval = o.Interval
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if len(o.Users) > 0 {
		c.Users = o.Users
	}
	if o.Thresholds.HeartRateLow != nil {
		c.Thresholds.HeartRateLow = o.Thresholds.HeartRateLow
	}
	if o.Thresholds.HeartRateHigh != nil {
		c.Thresholds.HeartRateHigh = o.Thresholds.HeartRateHigh
	}
	if o.Thresholds.OxygenMin != nil {
		c.Thresholds.OxygenMin = o.Thresholds.OxygenMin
	}
	if o.Sensor != "" {
		c.Sensor = o.Sensor
	}
	if o.Alerts.Debounce != nil {
		c.Alerts.Debounce = o.Alerts.Debounce
	}
	if o.Log.Level != "" {
		c.Log.Level = o.Log.Level
	}
	if o.Log.Format != "" {
		c.Log.Format = o.Log.Format
	}
	if o.Log.File != "" {
		c.Log.File = o.Log.File
	}
}

// PollInterval parses Interval. It must be positive.
func (c Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", c.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid interval %q: must be positive", c.Interval)
	}
	return d, nil
}

// HealthThresholds overlays the configured values on the defaults and
// validates the result.
func (c Config) HealthThresholds() (health.Thresholds, error) {
	t := health.DefaultThresholds()
	if c.Thresholds.HeartRateLow != nil {
		t.HeartRateLow = *c.Thresholds.HeartRateLow
	}
	if c.Thresholds.HeartRateHigh != nil {
		t.HeartRateHigh = *c.Thresholds.HeartRateHigh
	}
	if c.Thresholds.OxygenMin != nil {
		t.OxygenMin = *c.Thresholds.OxygenMin
	}
	if err := t.Validate(); err != nil {
		return health.DefaultThresholds(), err
	}
	return t, nil
}

// Debounce reports whether alerts.debounce is set.
func (c Config) Debounce() bool {
	return c.Alerts.Debounce != nil && *c.Alerts.Debounce
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
