package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the renderer cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Render.Near <= 0:
		return fmt.Errorf("%w: render.near must be positive, got %v", ErrInvalid, c.Render.Near)
	case c.Render.Far <= c.Render.Near:
		return fmt.Errorf("%w: render.far (%v) must exceed render.near (%v)", ErrInvalid, c.Render.Far, c.Render.Near)
	case c.Render.FieldOfView <= 0 || c.Render.FieldOfView >= 180:
		return fmt.Errorf("%w: render.field_of_view must be in (0, 180), got %v", ErrInvalid, c.Render.FieldOfView)
	case c.Animation.FramesPerSecond <= 0:
		return fmt.Errorf("%w: animation.frames_per_second must be positive", ErrInvalid)
	}
	switch c.Camera.Lens {
	case "perspective", "focus_zoom", "ortho":
	default:
		return fmt.Errorf("%w: unknown camera.lens %q", ErrInvalid, c.Camera.Lens)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./trellis.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Trellis")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Trellis")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "trellis")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "trellis")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
