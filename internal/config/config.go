// Package config holds the renderer settings read from YAML and the command
// line.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-packet-raytracer/internal/logger"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all renderer settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig controls image size and how the work is split.
type RenderConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Lanes      int    `yaml:"lanes"` // 0 picks the widest supported width
	RegionSize int    `yaml:"region_size"`
	Passes     int    `yaml:"passes"`
	Workers    int    `yaml:"workers"` // 0 uses every CPU
	OutputDir  string `yaml:"output_dir"`
}

// SceneConfig names the scene to render: a built-in scene name or the path
// of a YAML scene file.
type SceneConfig struct {
	Name string `yaml:"name"`
	Mesh string `yaml:"mesh,omitempty"` // PLY file for the ply scene
}

// IsFile reports whether the scene refers to a YAML file.
func (s SceneConfig) IsFile() bool {
	n := strings.ToLower(s.Name)
	return strings.HasSuffix(n, ".yaml") || strings.HasSuffix(n, ".yml")
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Console    bool   `yaml:"console"`
}

// FileConfig converts the logging section for logger.InitWithFileConfig.
func (l LoggingConfig) FileConfig() logger.FileConfig {
	fc := logger.DefaultFileConfig(l.File)
	if l.MaxSizeMB > 0 {
		fc.MaxSizeMB = l.MaxSizeMB
	}
	if l.MaxBackups > 0 {
		fc.MaxBackups = l.MaxBackups
	}
	return fc
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:      400,
			Height:     300,
			Lanes:      0,
			RegionSize: 64,
			Passes:     16,
			Workers:    0,
			OutputDir:  "output",
		},
		Scene: SceneConfig{
			Name: "default",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
			Console:    true,
		},
	}
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	r := c.Render
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalid, r.Width, r.Height)
	case r.Width > 0xffff || r.Height > 0xffff:
		return fmt.Errorf("%w: image size %dx%d exceeds 65535", ErrInvalid, r.Width, r.Height)
	case r.RegionSize <= 0:
		return fmt.Errorf("%w: region size %d must be positive", ErrInvalid, r.RegionSize)
	case r.Passes <= 0:
		return fmt.Errorf("%w: passes %d must be positive", ErrInvalid, r.Passes)
	case r.Workers < 0:
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalid, r.Workers)
	case r.Lanes != 0 && !lane.Valid(r.Lanes):
		return fmt.Errorf("%w: %v", ErrInvalid, lane.CheckWidth(r.Lanes))
	case c.Scene.Name == "":
		return fmt.Errorf("%w: no scene given", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
