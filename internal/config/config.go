// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Shadow   ShadowConfig   `yaml:"shadow"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and projection settings.
type GraphicsConfig struct {
	Title      string     `yaml:"title"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FOV        float32    `yaml:"fov"` // vertical field of view, degrees
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// CameraConfig holds free-fly camera tuning.
type CameraConfig struct {
	Speed         float32 `yaml:"speed"`       // world units per movement call
	Sensitivity   float32 `yaml:"sensitivity"` // degrees per pixel
	LockHeight    bool    `yaml:"lock_height"`
	HabitatHeight float32 `yaml:"habitat_height"`
}

// ShadowConfig holds the fixed orthographic box used for the light-space projection.
type ShadowConfig struct {
	Enabled  bool    `yaml:"enabled"`
	HalfSize float32 `yaml:"half_size"`
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
}

// AssetsConfig holds asset file paths.
type AssetsConfig struct {
	SceneFile      string `yaml:"scene_file"`
	DefaultTexture string `yaml:"default_texture"`
	SceneVertex    string `yaml:"scene_vertex_shader"`
	SceneFragment  string `yaml:"scene_fragment_shader"`
	DepthVertex    string `yaml:"depth_vertex_shader"`
	DepthFragment  string `yaml:"depth_fragment_shader"`
	ScreenshotDir  string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Title:      "Museum3D",
			Width:      800,
			Height:     600,
			Fullscreen: false,
			VSync:      true,
			FOV:        45,
			Near:       0.1,
			Far:        100,
			ClearColor: [4]float32{0.1, 0.1, 0.12, 1.0},
		},
		Camera: CameraConfig{
			Speed:         0.01,
			Sensitivity:   0.1,
			LockHeight:    true,
			HabitatHeight: 3.0,
		},
		Shadow: ShadowConfig{
			Enabled:  true,
			HalfSize: 10,
			Near:     1,
			Far:      25,
		},
		Assets: AssetsConfig{
			SceneFile:      "assets/scene.yaml",
			DefaultTexture: "assets/textures/default.png",
			SceneVertex:    "assets/shaders/scene.vert",
			SceneFragment:  "assets/shaders/scene.frag",
			DepthVertex:    "assets/shaders/depth.vert",
			DepthFragment:  "assets/shaders/depth.frag",
			ScreenshotDir:  "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
