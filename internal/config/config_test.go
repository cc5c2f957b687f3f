package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Render.FieldOfView != 45 {
		t.Errorf("expected field of view 45, got %v", cfg.Render.FieldOfView)
	}
	if !cfg.Render.Shadows {
		t.Error("expected shadows to be enabled by default")
	}
	if cfg.Render.MaxLights != 8 {
		t.Errorf("expected 8 max lights, got %d", cfg.Render.MaxLights)
	}

	if cfg.Camera.Lens != "perspective" {
		t.Errorf("expected perspective lens, got %s", cfg.Camera.Lens)
	}
	if cfg.Camera.RealTimeSpring {
		t.Error("expected fixed-step spring by default")
	}

	if cfg.Animation.FramesPerSecond != 30 {
		t.Errorf("expected 30 fps animation, got %v", cfg.Animation.FramesPerSecond)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

render:
  field_of_view: 60
  near: 0.5
  far: 500
  shadows: false
  occlusion_testing: true

camera:
  lens: focus_zoom
  focus: 4
  zoom: 2
  real_time_spring: true

animation:
  frames_per_second: 24
  loop: false

logging:
  level: "debug"
  log_file: "trellis.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Render.FieldOfView != 60 {
		t.Errorf("expected field of view 60, got %v", cfg.Render.FieldOfView)
	}
	if cfg.Render.Shadows {
		t.Error("expected shadows to be disabled")
	}
	if !cfg.Render.OcclusionTesting {
		t.Error("expected occlusion testing to be enabled")
	}
	if cfg.Render.MaxLights != 8 {
		t.Errorf("unset max_lights should keep default 8, got %d", cfg.Render.MaxLights)
	}
	if cfg.Camera.Lens != "focus_zoom" {
		t.Errorf("expected focus_zoom lens, got %s", cfg.Camera.Lens)
	}
	if !cfg.Camera.RealTimeSpring {
		t.Error("expected real-time spring")
	}
	if cfg.Animation.FramesPerSecond != 24 || cfg.Animation.Loop {
		t.Errorf("unexpected animation config %+v", cfg.Animation)
	}
	if cfg.Logging.LogFile != "trellis.log" {
		t.Errorf("expected log file 'trellis.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero near", func(c *Config) { c.Render.Near = 0 }},
		{"far before near", func(c *Config) { c.Render.Far = c.Render.Near }},
		{"fov too wide", func(c *Config) { c.Render.FieldOfView = 180 }},
		{"no animation rate", func(c *Config) { c.Animation.FramesPerSecond = 0 }},
		{"unknown lens", func(c *Config) { c.Camera.Lens = "fisheye" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "trellis.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find trellis.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "no shadows flag",
			setup: func() { *flagNoShadows = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Shadows {
					t.Error("expected shadows disabled")
				}
			},
			teardown: func() { *flagNoShadows = false },
		},
		{
			name:  "lens flag",
			setup: func() { *flagLens = "ortho" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Camera.Lens != "ortho" {
					t.Errorf("expected ortho lens, got %s", cfg.Camera.Lens)
				}
			},
			teardown: func() { *flagLens = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Render.Far = 321
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Render.Far != 321 {
		t.Errorf("expected far 321 after reload, got %v", loaded.Render.Far)
	}
}
