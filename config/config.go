// ABOUTME: YAML configuration for syncview layered over built-in defaults and environment overrides.
// ABOUTME: Validated with go-playground/validator so a bad file fails at startup, not mid-render.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/syncview/raster"
)

// ErrInvalidConfig wraps every load or validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	EnvAddr     = "SYNCVIEW_ADDR"
	EnvLogLevel = "SYNCVIEW_LOG_LEVEL"
)

// Config is the complete runtime configuration.
type Config struct {
	Addr       string        `yaml:"addr" validate:"required"`
	LogLevel   string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile    string        `yaml:"log_file"`
	RollPeriod int           `yaml:"roll_period" validate:"gte=1"`
	Heatmap    HeatmapConfig `yaml:"heatmap"`
	Chart      ChartConfig   `yaml:"chart"`
	Cache      CacheConfig   `yaml:"cache"`
}

// HeatmapConfig controls density panel rendering.
type HeatmapConfig struct {
	Width          int     `yaml:"width" validate:"gte=1,lte=8192"`
	Height         int     `yaml:"height" validate:"gte=1,lte=8192"`
	NoiseThreshold float64 `yaml:"noise_threshold" validate:"gte=0"`
	MarkerColor    string  `yaml:"marker_color" validate:"hexcolor"`
	MarkerWidth    int     `yaml:"marker_width" validate:"gte=1"`
}

// ChartConfig sizes chart panels rendered off-screen.
type ChartConfig struct {
	Width  int `yaml:"width" validate:"gte=1,lte=8192"`
	Height int `yaml:"height" validate:"gte=1,lte=8192"`
}

// CacheConfig bounds the PNG render cache.
type CacheConfig struct {
	Size int           `yaml:"size" validate:"gte=1"`
	TTL  time.Duration `yaml:"ttl" validate:"gt=0"`
}

// Default returns the settings of the original dashboard.
func Default() Config {
	return Config{
		Addr:       "127.0.0.1:2389",
		LogLevel:   "info",
		RollPeriod: 1,
		Heatmap: HeatmapConfig{
			Width:          415,
			Height:         100,
			NoiseThreshold: 20,
			MarkerColor:    "#6969b9",
			MarkerWidth:    1,
		},
		Chart: ChartConfig{Width: 415, Height: 150},
		Cache: CacheConfig{Size: 256, TTL: 5 * time.Minute},
	}
}

var validate = validator.New()

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := cfg.decode(data); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides the listen address and log level from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate checks field constraints and that the marker color is usable.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.MarkerColor(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MarkerColor parses the heatmap marker color.
func (c Config) MarkerColor() (color.RGBA, error) {
	return raster.ParseHexColor(c.Heatmap.MarkerColor)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
