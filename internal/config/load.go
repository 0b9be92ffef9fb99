package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up when no path is given.
const FileName = "raytracer.yaml"

// Overrides carries command line values. Nil fields leave the config alone.
type Overrides struct {
	Scene     *string
	Mesh      *string
	Width     *int
	Height    *int
	Lanes     *int
	Passes    *int
	Workers   *int
	OutputDir *string
	LogLevel  *string
}

// Load builds the configuration with priority defaults < file. An explicit
// path must exist; without one the working directory and ConfigDir are
// searched and a missing file is not an error. It returns the path that was
// read, or "" when only defaults apply.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, "", nil
	}

	if err := loadFromFile(cfg, path); err != nil {
		return nil, "", fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, path, nil
}

// ApplyOverrides applies command line values on top of the loaded config.
func (c *Config) ApplyOverrides(o Overrides) {
	setString(&c.Scene.Name, o.Scene)
	setString(&c.Scene.Mesh, o.Mesh)
	setInt(&c.Render.Width, o.Width)
	setInt(&c.Render.Height, o.Height)
	setInt(&c.Render.Lanes, o.Lanes)
	setInt(&c.Render.Passes, o.Passes)
	setInt(&c.Render.Workers, o.Workers)
	setString(&c.Render.OutputDir, o.OutputDir)
	setString(&c.Logging.Level, o.LogLevel)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func findConfigFile() string {
	candidates := []string{FileName}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, FileName))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "packet-raytracer"), nil
}

// loadFromFile merges the YAML file at path into cfg. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
