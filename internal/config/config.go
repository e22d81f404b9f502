package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pdfp-go/internal/compressor"
	"pdfp-go/internal/engine"
	"pdfp-go/internal/logger"
	"pdfp-go/internal/progress"
	"pdfp-go/internal/settings"
)

// Config represents the main configuration structure
type Config struct {
	Quality         string         `mapstructure:"quality"`
	RemoveInputFile bool           `mapstructure:"remove_input_file"`
	OutputFolder    string         `mapstructure:"output_folder"`
	TargetSize      float64        `mapstructure:"target_size"` // in TargetSizeUnit, 0 means none
	TargetSizeUnit  string         `mapstructure:"target_size_unit"`
	Engine          EngineConfig   `mapstructure:"engine"`
	Progress        ProgressConfig `mapstructure:"progress"`
	Safety          SafetyConfig   `mapstructure:"safety"`
	Logging         LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig contains Ghostscript invocation settings
type EngineConfig struct {
	Binaries           []string      `mapstructure:"binaries"`
	CompatibilityLevel string        `mapstructure:"compatibility_level"`
	Timeout            time.Duration `mapstructure:"timeout"` // 0 disables the deadline
}

// ProgressConfig contains synthetic progress settings
type ProgressConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Strategy string        `mapstructure:"strategy"`
	MaxStep  float64       `mapstructure:"max_step"`
}

// SafetyConfig contains guard rails for large runs
type SafetyConfig struct {
	LargeFileThreshold int64 `mapstructure:"large_file_threshold"` // bytes
	MaxFilesPerRun     int   `mapstructure:"max_files_per_run"`    // 0 means no limit
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Quality:        string(settings.QualityEbook),
		TargetSizeUnit: string(settings.UnitMB),
		Engine: EngineConfig{
			Binaries:           append([]string(nil), engine.DefaultBinaries...),
			CompatibilityLevel: engine.DefaultCompatibilityLevel,
			Timeout:            30 * time.Minute,
		},
		Progress: ProgressConfig{
			Interval: 500 * time.Millisecond,
			Strategy: "random",
			MaxStep:  15,
		},
		Safety: SafetyConfig{
			LargeFileThreshold: 100 * 1024 * 1024,
			MaxFilesPerRun:     0,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "text",
			FilePath:   "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
			Console:    true,
		},
	}
}

// NewViper returns a viper instance with every key registered at its default,
// so environment variables apply to nested keys as well.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("quality", d.Quality)
	v.SetDefault("remove_input_file", d.RemoveInputFile)
	v.SetDefault("output_folder", d.OutputFolder)
	v.SetDefault("target_size", d.TargetSize)
	v.SetDefault("target_size_unit", d.TargetSizeUnit)
	v.SetDefault("engine.binaries", d.Engine.Binaries)
	v.SetDefault("engine.compatibility_level", d.Engine.CompatibilityLevel)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("progress.interval", d.Progress.Interval)
	v.SetDefault("progress.strategy", d.Progress.Strategy)
	v.SetDefault("progress.max_step", d.Progress.MaxStep)
	v.SetDefault("safety.large_file_threshold", d.Safety.LargeFileThreshold)
	v.SetDefault("safety.max_files_per_run", d.Safety.MaxFilesPerRun)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.console", d.Logging.Console)

	v.SetEnvPrefix("PDFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	return Load(NewViper(), configPath)
}

// Load reads configuration through v, which may already have command line
// flags bound to it.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pdfp")
		v.AddConfigPath("/etc/pdfp")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates and normalizes the configuration
func (c *Config) Validate() error {
	q, err := settings.ParseQuality(c.Quality)
	if err != nil {
		return err
	}
	c.Quality = string(q)

	unit, err := settings.ParseSizeUnit(c.TargetSizeUnit)
	if err != nil {
		return err
	}
	c.TargetSizeUnit = string(unit)

	if c.TargetSize < 0 {
		return fmt.Errorf("target_size must not be negative: %v", c.TargetSize)
	}

	if len(c.Engine.Binaries) == 0 {
		return fmt.Errorf("engine.binaries must name at least one executable")
	}
	if c.Engine.CompatibilityLevel == "" {
		c.Engine.CompatibilityLevel = engine.DefaultCompatibilityLevel
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("engine.timeout must not be negative: %s", c.Engine.Timeout)
	}

	if c.Progress.Interval <= 0 {
		c.Progress.Interval = 500 * time.Millisecond
	}
	if c.Progress.MaxStep <= 0 {
		c.Progress.MaxStep = 15
	}
	c.Progress.Strategy = strings.ToLower(c.Progress.Strategy)
	if _, err := progress.FromName(c.Progress.Strategy, c.Progress.MaxStep); err != nil {
		return err
	}

	if c.Safety.MaxFilesPerRun < 0 {
		c.Safety.MaxFilesPerRun = 0
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "text"
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}

// CompressionSettings builds the settings applied to every job of a run.
// Advanced settings are only attached when an output folder or target is set.
func (c *Config) CompressionSettings() settings.CompressionSettings {
	s := settings.CompressionSettings{
		Quality:         settings.Quality(c.Quality),
		RemoveInputFile: c.RemoveInputFile,
	}
	if c.OutputFolder != "" || c.TargetSize > 0 {
		unit := settings.SizeUnit(c.TargetSizeUnit)
		s.Advanced = &settings.AdvancedSettings{
			OutputFolder:   c.OutputFolder,
			TargetSize:     settings.UnitToBytes(c.TargetSize, unit),
			TargetSizeUnit: unit,
		}
	}
	return s
}

// CompressorOptions returns the job runner options.
func (c *Config) CompressorOptions() compressor.Options {
	strategy, err := progress.FromName(c.Progress.Strategy, c.Progress.MaxStep)
	if err != nil {
		strategy = progress.Random{MaxStep: c.Progress.MaxStep}
	}
	return compressor.Options{
		Interval:           c.Progress.Interval,
		Timeout:            c.Engine.Timeout,
		CompatibilityLevel: c.Engine.CompatibilityLevel,
		Progress:           strategy,
	}
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.LoggerConfig {
	return logger.LoggerConfig{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
		Compress:   c.Logging.Compress,
		Console:    c.Logging.Console,
	}
}

// IsLargeFile reports whether size crosses the large file warning threshold.
func (c *Config) IsLargeFile(size int64) bool {
	return c.Safety.LargeFileThreshold > 0 && size > c.Safety.LargeFileThreshold
}
