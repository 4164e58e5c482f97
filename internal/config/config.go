// Package config loads application settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"animal-vision-camera/internal/filters"
)

// Source selects where frames come from.
type Source string

const (
	SourceCamera  Source = "camera"
	SourcePattern Source = "pattern"
)

// Config holds every EYESEE_* setting.
type Config struct {
	Source   Source `env:"EYESEE_SOURCE" envDefault:"camera"`
	DeviceID int    `env:"EYESEE_DEVICE_ID" envDefault:"0"`

	// pattern source geometry
	PatternWidth  int `env:"EYESEE_PATTERN_WIDTH" envDefault:"1280"`
	PatternHeight int `env:"EYESEE_PATTERN_HEIGHT" envDefault:"720"`
	FrameRate     int `env:"EYESEE_FRAME_RATE" envDefault:"30"`

	DefaultFilter filters.Variant `env:"EYESEE_DEFAULT_FILTER" envDefault:"none"`

	PhotoDir     string `env:"EYESEE_PHOTO_DIR" envDefault:"photos"`
	PhotoFormat  string `env:"EYESEE_PHOTO_FORMAT" envDefault:"png"`
	SaveFiltered bool   `env:"EYESEE_SAVE_FILTERED" envDefault:"true"`

	// DebugAddr enables the diagnostics HTTP server when non-empty.
	DebugAddr string `env:"EYESEE_DEBUG_ADDR"`

	OTelEnabled  bool   `env:"EYESEE_OTEL_ENABLED" envDefault:"true"`
	OTelEndpoint string `env:"EYESEE_OTEL_ENDPOINT"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	switch c.Source {
	case SourceCamera, SourcePattern:
	default:
		return fmt.Errorf("invalid EYESEE_SOURCE %q", c.Source)
	}
	if c.FrameRate <= 0 || c.FrameRate > 240 {
		return fmt.Errorf("EYESEE_FRAME_RATE must be between 1 and 240, got %d", c.FrameRate)
	}
	if c.PatternWidth <= 0 || c.PatternHeight <= 0 {
		return fmt.Errorf("invalid pattern size %dx%d", c.PatternWidth, c.PatternHeight)
	}
	if c.PhotoDir == "" {
		return fmt.Errorf("EYESEE_PHOTO_DIR must not be empty")
	}
	return nil
}
