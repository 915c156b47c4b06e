package moon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML file the demo binaries are driven by.
//
//	title: Moon
//	width: 1280
//	height: 720
//	backend: vulkan
//	vsync: true
//	clear_color: [0.4, 0.576, 0.96, 1]
//	log_level: debug
//	scene: quad
//	texture: assets/checker.tga
type Config struct {
	Title            string     `yaml:"title"`
	Width            int        `yaml:"width"`
	Height           int        `yaml:"height"`
	Backend          string     `yaml:"backend"`
	VSync            *bool      `yaml:"vsync"` // nil means on
	Debug            bool       `yaml:"debug"`
	DebugAssertions  bool       `yaml:"debug_assertions"`
	SoftwareFallback bool       `yaml:"software_fallback"`
	Headless         bool       `yaml:"headless"`
	Frames           int        `yaml:"frames"`
	ClearColor       [4]float64 `yaml:"clear_color"`
	LogLevel         string     `yaml:"log_level"`
	Scene            string     `yaml:"scene"`
	Texture          string     `yaml:"texture"`
	Label            string     `yaml:"label"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	c := DefaultClearColor
	return Config{
		Title:      "Moon",
		Width:      1280,
		Height:     720,
		ClearColor: [4]float64{c.R, c.G, c.B, c.A},
		LogLevel:   "info",
		Scene:      "triangle",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("moon: read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("moon: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML on top of DefaultConfig. Unknown keys are
// rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks sizes, the frame limit and the log level.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	}
	if c.Frames < 0 {
		return fmt.Errorf("invalid frame count %d", c.Frames)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// ContextOptions converts the config into context options.
func (c Config) ContextOptions() []ContextOption {
	vsync := c.VSync == nil || *c.VSync
	return []ContextOption{
		WithBackend(c.Backend),
		WithDebug(c.Debug),
		WithDebugAssertions(c.DebugAssertions),
		WithSoftwareFallback(c.SoftwareFallback),
		WithVSync(vsync),
		WithClearColor(c.ClearColor[0], c.ClearColor[1], c.ClearColor[2], c.ClearColor[3]),
	}
}

// AppConfig converts the config into application settings.
func (c Config) AppConfig() AppConfig {
	return AppConfig{
		Title:     c.Title,
		Width:     c.Width,
		Height:    c.Height,
		Headless:  c.Headless,
		MaxFrames: c.Frames,
		Options:   c.ContextOptions(),
	}
}
