// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Render    RenderConfig    `yaml:"render"`
	Camera    CameraConfig    `yaml:"camera"`
	Animation AnimationConfig `yaml:"animation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds display settings for the viewer.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// RenderConfig holds scene rendering settings.
type RenderConfig struct {
	FieldOfView      float32    `yaml:"field_of_view"` // degrees
	Near             float32    `yaml:"near"`
	Far              float32    `yaml:"far"`
	ClearColor       [4]float32 `yaml:"clear_color"`
	Shadows          bool       `yaml:"shadows"`
	ShadowResolution int32      `yaml:"shadow_resolution"`
	OcclusionTesting bool       `yaml:"occlusion_testing"`
	MaxLights        int        `yaml:"max_lights"`
}

// CameraConfig holds camera controller settings.
type CameraConfig struct {
	Lens           string  `yaml:"lens"` // "perspective", "focus_zoom" or "ortho"
	Focus          float32 `yaml:"focus"`
	Zoom           float32 `yaml:"zoom"`
	Stiffness      float32 `yaml:"stiffness"`
	Damping        float32 `yaml:"damping"`
	RealTimeSpring bool    `yaml:"real_time_spring"`
}

// AnimationConfig holds skeletal playback settings.
type AnimationConfig struct {
	FramesPerSecond float32 `yaml:"frames_per_second"`
	Loop            bool    `yaml:"loop"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "trellis",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			FieldOfView:      45,
			Near:             0.1,
			Far:              1000,
			ClearColor:       [4]float32{0.1, 0.1, 0.15, 1},
			Shadows:          true,
			ShadowResolution: 2048,
			MaxLights:        8,
		},
		Camera: CameraConfig{
			Lens:      "perspective",
			Focus:     1.2,
			Zoom:      1,
			Stiffness: 10,
			Damping:   5,
		},
		Animation: AnimationConfig{
			FramesPerSecond: 30,
			Loop:            true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
