// Package config holds the YAML settings of a comparison run: worker count,
// change thresholds, output naming and slice export, and logging.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"mrichange/pkg/change"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for the elementwise passes
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Thresholds control which voxel differences count as significant
	Thresholds change.Thresholds `yaml:"thresholds"`

	// Output parameters
	Output struct {
		// Prefix is prepended to every output file name
		Prefix string `yaml:"prefix"`

		// SaveIntermediaryResults writes the normalized prior and change field
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// SaveSlices exports 2D slices of both renderings
		SaveSlices bool `yaml:"saveSlices"`

		// SliceAxis is the axis slices are cut along (x, y or z)
		SliceAxis string `yaml:"sliceAxis"`

		// SliceFormat is the image format of exported slices (png, jpeg or tiff)
		SliceFormat string `yaml:"sliceFormat"`
	} `yaml:"output"`

	// Logging parameters
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls log level, format and the optional rotated log file
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	cfg.Thresholds = change.DefaultThresholds()

	cfg.Output.Prefix = "vt-"
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.SaveSlices = false
	cfg.Output.SliceAxis = "z"
	cfg.Output.SliceFormat = "png"

	cfg.Logging = LoggingConfig{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}

	return cfg
}

// Validate checks that the configuration can drive a comparison
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	switch c.Output.SliceAxis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("output.sliceAxis must be x, y or z, got %q", c.Output.SliceAxis)
	}
	switch c.Output.SliceFormat {
	case "png", "jpeg", "tiff":
	default:
		return fmt.Errorf("output.sliceFormat must be png, jpeg or tiff, got %q", c.Output.SliceFormat)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig reads a comparison configuration. Keys missing from the file keep
// their DefaultConfig values, and a missing or empty file yields the defaults.
// Unknown keys are rejected.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating parent directories as needed
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", configPath, err)
	}
	return nil
}

// CreateDefaultConfigFile writes DefaultConfig to configPath. This is what
// `mrichange init-config` produces.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
