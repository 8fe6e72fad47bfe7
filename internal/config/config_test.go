package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/oximon/internal/health"
)

// Config merge precedence: project over global over defaults, per key.
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)
	optInt := func(t *rapid.T, label string) *int {
		if !rapid.Bool().Draw(t, "has"+label) {
			return nil
		}
		v := rapid.IntRange(0, 200).Draw(t, label)
		return &v
	}

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasInterval") {
			cfg.Interval = nonEmptyString.Draw(t, "interval")
		}
		if rapid.Bool().Draw(t, "hasDataDir") {
			cfg.DataDir = nonEmptyString.Draw(t, "dataDir")
		}
		if rapid.Bool().Draw(t, "hasSensor") {
			cfg.Sensor = nonEmptyString.Draw(t, "sensor")
		}
		if rapid.Bool().Draw(t, "hasLogLevel") {
			cfg.Log.Level = nonEmptyString.Draw(t, "logLevel")
		}
		cfg.Thresholds.HeartRateLow = optInt(t, "hrLow")
		cfg.Thresholds.OxygenMin = optInt(t, "oxygenMin")
		if rapid.Bool().Draw(t, "hasDebounce") {
			b := rapid.Bool().Draw(t, "debounce")
			cfg.Alerts.Debounce = &b
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "Interval", global.Interval, project.Interval, defaults.Interval, merged.Interval)
		checkStringField(t, "DataDir", global.DataDir, project.DataDir, defaults.DataDir, merged.DataDir)
		checkStringField(t, "Sensor", global.Sensor, project.Sensor, defaults.Sensor, merged.Sensor)
		checkStringField(t, "Log.Level", global.Log.Level, project.Log.Level, defaults.Log.Level, merged.Log.Level)

		checkIntField(t, "HeartRateLow", global.Thresholds.HeartRateLow, project.Thresholds.HeartRateLow, merged.Thresholds.HeartRateLow)
		checkIntField(t, "OxygenMin", global.Thresholds.OxygenMin, project.Thresholds.OxygenMin, merged.Thresholds.OxygenMin)

		want := false
		switch {
		case project.Alerts.Debounce != nil:
			want = *project.Alerts.Debounce
		case global.Alerts.Debounce != nil:
			want = *global.Alerts.Debounce
		}
		if merged.Debounce() != want {
			t.Fatalf("Debounce: want %v, got %v", want, merged.Debounce())
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty: merged == project
//   - project empty, global non-empty: merged == global
//   - both empty: merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func checkIntField(t *rapid.T, name string, globalVal, projectVal, mergedVal *int) {
	t.Helper()
	want := projectVal
	if want == nil {
		want = globalVal
	}
	switch {
	case want == nil && mergedVal != nil:
		t.Fatalf("%s: neither set, expected nil, got %d", name, *mergedVal)
	case want != nil && (mergedVal == nil || *mergedVal != *want):
		t.Fatalf("%s: expected %d, got %v", name, *want, mergedVal)
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.Interval != "5s" {
		t.Errorf("Interval: want %q, got %q", "5s", d.Interval)
	}
	if len(d.Users) != 3 || d.Users[0] != "User 1" {
		t.Errorf("Users: want three default users, got %v", d.Users)
	}
	if d.Sensor != "simulator" {
		t.Errorf("Sensor: want %q, got %q", "simulator", d.Sensor)
	}
	if d.Debounce() {
		t.Error("Debounce: want false by default")
	}
	th, err := d.HealthThresholds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th != health.DefaultThresholds() {
		t.Errorf("thresholds: want defaults, got %v", th)
	}
	iv, err := d.PollInterval()
	if err != nil || iv != 5*time.Second {
		t.Errorf("PollInterval: want 5s, got %v (%v)", iv, err)
	}
}

func TestHealthThresholdsOverlayAndValidate(t *testing.T) {
	low, high := 50, 120
	cfg := Defaults()
	cfg.Thresholds.HeartRateLow = &low
	cfg.Thresholds.HeartRateHigh = &high

	th, err := cfg.HealthThresholds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.HeartRateLow != 50 || th.HeartRateHigh != 120 || th.OxygenMin != 95 {
		t.Errorf("unexpected thresholds %v", th)
	}

	bad := 250
	cfg.Thresholds.HeartRateLow = &bad
	_, err = cfg.HealthThresholds()
	var verr *health.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *health.ValidationError, got %T: %v", err, err)
	}
}

func TestPollIntervalRejectsNonPositive(t *testing.T) {
	for _, in := range []string{"0s", "-1s", "soon"} {
		cfg := Config{Interval: in}
		if _, err := cfg.PollInterval(); err == nil {
			t.Errorf("PollInterval(%q): expected error", in)
		}
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if cfg.Interval != defaults.Interval {
		t.Errorf("Interval: want %q, got %q", defaults.Interval, cfg.Interval)
	}
	if cfg.Sensor != defaults.Sensor {
		t.Errorf("Sensor: want %q, got %q", defaults.Sensor, cfg.Sensor)
	}
}

func TestLoadGlobalReadsYAML(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "oximon")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "interval: 2s\nusers: [Alice, Bob]\nthresholds:\n  oxygen_min: 92\nalerts:\n  debounce: true\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	merged := Merge(cfg, nil)
	if merged.Interval != "2s" {
		t.Errorf("Interval: want 2s, got %q", merged.Interval)
	}
	if len(merged.Users) != 2 || merged.Users[1] != "Bob" {
		t.Errorf("Users: got %v", merged.Users)
	}
	th, err := merged.HealthThresholds()
	if err != nil {
		t.Fatal(err)
	}
	if th.OxygenMin != 92 || th.HeartRateLow != 60 {
		t.Errorf("thresholds: got %v", th)
	}
	if !merged.Debounce() {
		t.Error("Debounce: want true")
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "oximon")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("interval: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid YAML, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}
