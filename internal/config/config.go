// Package config holds the product-level defaults that shape what the
// engine is asked to compute: default alpha and power, the MDE sweep,
// the traffic splits compared, and how charts are capped and annotated.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gkobilansky/abkit/internal/stats"
)

type Config struct {
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Curve     CurveConfig     `yaml:"curve"`
	Display   DisplayConfig   `yaml:"display"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Server    ServerConfig    `yaml:"server"`
}

type DefaultsConfig struct {
	Alpha         float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	Power         float64 `yaml:"power" validate:"gt=0,lt=1"`
	BaselineRate  float64 `yaml:"baseline_rate" validate:"gt=0,lt=1"`
	MDE           float64 `yaml:"mde" validate:"gt=0"`
	DailyVisitors int     `yaml:"daily_visitors" validate:"gt=0"`
	TrafficSplit  float64 `yaml:"traffic_split" validate:"gt=0,lte=0.5"`
	Seed          uint64  `yaml:"seed"`
}

type CurveConfig struct {
	MDEMin        float64   `yaml:"mde_min" validate:"gt=0"`
	MDEMax        float64   `yaml:"mde_max" validate:"gtfield=MDEMin"`
	MDESteps      int       `yaml:"mde_steps" validate:"gte=1,lte=10000"`
	TrafficSplits []float64 `yaml:"traffic_splits" validate:"min=1,dive,gt=0,lte=0.5"`
}

type DisplayConfig struct {
	// MaxDurationDays caps durations in charts and annotations only.
	MaxDurationDays int       `yaml:"max_duration_days" validate:"gte=1"`
	AnnotationMDEs  []float64 `yaml:"annotation_mdes" validate:"dive,gt=0"`
	AlphaChoices    []float64 `yaml:"alpha_choices" validate:"min=1,dive,gt=0,lt=1"`
}

type NarrativeConfig struct {
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Defaults: DefaultsConfig{
			Alpha:         0.05,
			Power:         0.8,
			BaselineRate:  0.05,
			MDE:           0.10,
			DailyVisitors: 1000,
			TrafficSplit:  0.5,
			Seed:          42,
		},
		Curve: CurveConfig{
			MDEMin:        0.01,
			MDEMax:        0.20,
			MDESteps:      100,
			TrafficSplits: stats.DefaultTrafficSplits(),
		},
		Display: DisplayConfig{
			MaxDurationDays: 90,
			AnnotationMDEs:  []float64{0.01, 0.02, 0.05, 0.10},
			AlphaChoices:    []float64{0.01, 0.05, 0.10},
		},
		Narrative: NarrativeConfig{
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   800,
			Temperature: 0.2,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// ExperimentConfig returns the default experiment described by c.
func (c Config) ExperimentConfig() stats.ExperimentConfig {
	return stats.ExperimentConfig{
		BaselineRate:  c.Defaults.BaselineRate,
		MDE:           c.Defaults.MDE,
		Alpha:         c.Defaults.Alpha,
		Power:         c.Defaults.Power,
		DailyVisitors: c.Defaults.DailyVisitors,
		TrafficSplit:  c.Defaults.TrafficSplit,
	}
}

// MDERange returns the configured MDE sweep.
func (c Config) MDERange() []float64 {
	return stats.Linspace(c.Curve.MDEMin, c.Curve.MDEMax, c.Curve.MDESteps)
}

var validate = validator.New()

// Validate checks every field against its tag constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path, creating its
// directory. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
