// Package config loads chronogl settings from a YAML file and CHRONOGL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/replay"
)

// Environment variables overriding the file.
const (
	EnvAddress     = "CHRONOGL_ADDRESS"
	EnvFbOnSwap    = "CHRONOGL_FB_ON_SWAP"
	EnvFbOnDraw    = "CHRONOGL_FB_ON_DRAW"
	EnvTextureData = "CHRONOGL_TEXTURE_DATA"
	EnvLogLevel    = "CHRONOGL_LOG_LEVEL"
	EnvImageCache  = "CHRONOGL_IMAGE_CACHE"
	EnvDebounce    = "CHRONOGL_DEBOUNCE"
)

type CaptureConfig struct {
	// Address is the host:port the tracer listens on.
	Address string                 `yaml:"address"`
	Options framing.CaptureOptions `yaml:",inline"`
}

type ReplayConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type ImagesConfig struct {
	CacheSize       int `yaml:"cache_size"`
	ThumbnailWidth  int `yaml:"thumbnail_width"`
	ThumbnailHeight int `yaml:"thumbnail_height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Replay  ReplayConfig  `yaml:"replay"`
	Images  ImagesConfig  `yaml:"images"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Address: "localhost:5039",
			Options: framing.CaptureOptions{FramebufferOnSwap: true},
		},
		Replay: ReplayConfig{Debounce: replay.DefaultDebounce},
		Images: ImagesConfig{
			CacheSize:       fbimage.DefaultCacheSize,
			ThumbnailWidth:  160,
			ThumbnailHeight: 120,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		if err := conf.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := conf.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) decodeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("can't open config file: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("can't parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddress); ok && v != "" {
		c.Capture.Address = v
	}
	for _, b := range []struct {
		env string
		dst *bool
	}{
		{EnvFbOnSwap, &c.Capture.Options.FramebufferOnSwap},
		{EnvFbOnDraw, &c.Capture.Options.FramebufferOnDraw},
		{EnvTextureData, &c.Capture.Options.TextureData},
	} {
		if v, ok := lookup(b.env); ok && v != "" {
			*b.dst = parseBool(v)
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvImageCache); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvImageCache, err)
		}
		c.Images.CacheSize = n
	}
	if v, ok := lookup(EnvDebounce); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebounce, err)
		}
		c.Replay.Debounce = d
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Replay.Debounce < 0 {
		return fmt.Errorf("replay debounce must not be negative, got %s", c.Replay.Debounce)
	}
	if c.Images.CacheSize < 0 {
		return fmt.Errorf("image cache size must not be negative, got %d", c.Images.CacheSize)
	}
	if c.Images.ThumbnailWidth <= 0 || c.Images.ThumbnailHeight <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %dx%d", c.Images.ThumbnailWidth, c.Images.ThumbnailHeight)
	}
	return nil
}

// LogLevel returns the parsed log level. It assumes Validate passed.
func (c *Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
