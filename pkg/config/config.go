// Package config provides configuration loading and management for quadview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"quadview/internal/models"
	"quadview/pkg/logging"
)

// Output formats understood by the frame writers
const (
	FormatTIFF    = "tiff"
	FormatPNG     = "png"
	FormatArchive = "archive"
)

// Selection holds the four keep flags. A nil flag was not configured and
// falls back to the profile, then to true.
type Selection struct {
	KeepBlue   *bool `yaml:"keep_blue,omitempty"`
	KeepGreen  *bool `yaml:"keep_green,omitempty"`
	KeepRed    *bool `yaml:"keep_red,omitempty"`
	KeepFarRed *bool `yaml:"keep_farRed,omitempty"`
}

// BoolLookup returns a stored flag and whether it is present
type BoolLookup interface {
	Lookup(key string) (bool, bool)
}

// Config represents the application configuration loaded from YAML
type Config struct {
	Selection Selection `yaml:"selection"`

	// Processing parameters
	Processing struct {
		// NumWorkers limits how many frames are split concurrently
		NumWorkers int `yaml:"numWorkers"`

		// StrictGeometry rejects frames with odd dimensions instead of
		// dropping the last row or column
		StrictGeometry bool `yaml:"strictGeometry"`
	} `yaml:"processing"`

	// Dataset describes the acquisition when the input carries no summary
	Dataset struct {
		ChannelNames []string `yaml:"channelNames"`
		AxisOrder    []string `yaml:"axisOrder"`
	} `yaml:"dataset"`

	// Output parameters
	Output struct {
		// Format is one of tiff, png or archive
		Format string `yaml:"format"`

		// Dir is where split frames and the summary are written
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	Log logging.Config `yaml:"log"`

	// Profile is the TOML file remembering the selection between runs
	Profile string `yaml:"profile"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.StrictGeometry = false

	cfg.Dataset.ChannelNames = []string{"Default"}
	cfg.Dataset.AxisOrder = []string{models.AxisTime, models.AxisChannel}

	cfg.Output.Format = FormatTIFF
	cfg.Output.Dir = "quadview_output"
	cfg.Output.Verbose = false

	cfg.Log.MaxSize = 100
	cfg.Log.MaxAge = 30

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that have no sensible fallback
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatTIFF, FormatPNG, FormatArchive:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Processing.NumWorkers <= 0 {
		return fmt.Errorf("numWorkers must be positive, got %d", c.Processing.NumWorkers)
	}
	for _, axis := range c.Dataset.AxisOrder {
		switch axis {
		case models.AxisChannel, models.AxisTime, models.AxisZ, models.AxisPosition:
		default:
			return fmt.Errorf("unknown axis %q in axisOrder", axis)
		}
	}
	return nil
}

// ResolveSelection combines the configured flags with the profile.
// For each quadrant the configured value wins, then the profile value,
// then true. A nil profile is treated as empty.
func (c *Config) ResolveSelection(profile BoolLookup) models.QuadSelection {
	flags := [4]*bool{c.Selection.KeepBlue, c.Selection.KeepGreen, c.Selection.KeepRed, c.Selection.KeepFarRed}

	sel := models.NoQuadrants
	for i, spec := range models.Quadrants {
		keep := true
		if flags[i] != nil {
			keep = *flags[i]
		} else if profile != nil {
			if v, ok := profile.Lookup(spec.Key); ok {
				keep = v
			}
		}
		if keep {
			sel = sel.With(spec.Quadrant)
		}
	}
	return sel
}

// SetSelection stores sel as explicit flags
func (c *Config) SetSelection(sel models.QuadSelection) {
	flag := func(q models.Quadrant) *bool {
		v := sel.Has(q)
		return &v
	}
	c.Selection = Selection{
		KeepBlue:   flag(models.TopLeft),
		KeepGreen:  flag(models.BottomLeft),
		KeepRed:    flag(models.TopRight),
		KeepFarRed: flag(models.BottomRight),
	}
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
