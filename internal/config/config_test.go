package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pdfp-go/internal/progress"
	"pdfp-go/internal/settings"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	s := c.CompressionSettings()
	if s.Quality != settings.QualityEbook || s.RemoveInputFile || s.Advanced != nil {
		t.Errorf("default settings = %+v", s)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
quality: Screen
remove_input_file: true
output_folder: /tmp/out
target_size: 1.5
target_size_unit: mb
engine:
  binaries: [gswin64c]
  timeout: 2m
progress:
  interval: 250ms
  strategy: linear
  max_step: 10
logging:
  level: DEBUG
  format: json
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if c.Quality != "screen" || c.TargetSizeUnit != "MB" || c.Logging.Level != "debug" {
		t.Errorf("normalization failed: %+v", c)
	}
	if c.Engine.Timeout != 2*time.Minute || c.Progress.Interval != 250*time.Millisecond {
		t.Errorf("durations = %v / %v", c.Engine.Timeout, c.Progress.Interval)
	}
	if len(c.Engine.Binaries) != 1 || c.Engine.Binaries[0] != "gswin64c" {
		t.Errorf("binaries = %v", c.Engine.Binaries)
	}
	if c.Engine.CompatibilityLevel != "1.4" {
		t.Errorf("compatibility level default lost: %q", c.Engine.CompatibilityLevel)
	}

	s := c.CompressionSettings()
	if !s.RemoveInputFile || s.OutputFolder() != "/tmp/out" {
		t.Errorf("settings = %+v", s)
	}
	if s.TargetSize() != 1572864 || s.Advanced.TargetSizeUnit != settings.UnitMB {
		t.Errorf("target = %d %s", s.TargetSize(), s.Advanced.TargetSizeUnit)
	}

	opts := c.CompressorOptions()
	lin, ok := opts.Progress.(progress.Linear)
	if !ok || lin.Step != 5 {
		t.Errorf("progress strategy = %#v", opts.Progress)
	}
	if opts.Timeout != 2*time.Minute {
		t.Errorf("timeout = %v", opts.Timeout)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PDFP_QUALITY", "prepress")
	t.Setenv("PDFP_ENGINE_TIMEOUT", "45s")
	t.Setenv("PDFP_SAFETY_MAX_FILES_PER_RUN", "7")

	c, err := LoadConfig(writeConfig(t, "quality: screen\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Quality != "prepress" {
		t.Errorf("env should override file: %q", c.Quality)
	}
	if c.Engine.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", c.Engine.Timeout)
	}
	if c.Safety.MaxFilesPerRun != 7 {
		t.Errorf("max files = %d", c.Safety.MaxFilesPerRun)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("explicit missing config file should fail")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"quality", func(c *Config) { c.Quality = "ultra" }},
		{"unit", func(c *Config) { c.TargetSizeUnit = "GB" }},
		{"negative target", func(c *Config) { c.TargetSize = -1 }},
		{"no binaries", func(c *Config) { c.Engine.Binaries = nil }},
		{"negative timeout", func(c *Config) { c.Engine.Timeout = -time.Second }},
		{"strategy", func(c *Config) { c.Progress.Strategy = "bogus" }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	c := DefaultConfig()
	c.Quality = "ultra"
	if err := c.Validate(); !errors.Is(err, settings.ErrUnknownQuality) {
		t.Errorf("unknown quality should wrap ErrUnknownQuality: %v", err)
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	c := DefaultConfig()
	c.Progress.Interval = 0
	c.Progress.MaxStep = 0
	c.Engine.CompatibilityLevel = ""
	c.Logging.Format = ""
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Progress.Interval != 500*time.Millisecond || c.Progress.MaxStep != 15 {
		t.Errorf("progress = %+v", c.Progress)
	}
	if c.Engine.CompatibilityLevel != "1.4" || c.Logging.Format != "text" {
		t.Errorf("engine/logging = %+v / %+v", c.Engine, c.Logging)
	}
}

func TestIsLargeFile(t *testing.T) {
	c := DefaultConfig()
	if c.IsLargeFile(50 * 1024 * 1024) {
		t.Error("50 MiB is below the default threshold")
	}
	if !c.IsLargeFile(150 * 1024 * 1024) {
		t.Error("150 MiB is above the default threshold")
	}
	c.Safety.LargeFileThreshold = 0
	if c.IsLargeFile(1 << 40) {
		t.Error("zero threshold disables the warning")
	}
}
