// Package viewer runs the window, input and scene frame loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/museum3d/internal/config"
	"github.com/Faultbox/museum3d/internal/engine/camera"
	"github.com/Faultbox/museum3d/internal/engine/gpu/opengl"
	"github.com/Faultbox/museum3d/internal/engine/input"
	"github.com/Faultbox/museum3d/internal/engine/scene"
	"github.com/Faultbox/museum3d/internal/engine/screenshot"
	"github.com/Faultbox/museum3d/internal/engine/shader"
	"github.com/Faultbox/museum3d/internal/engine/texture"
	"github.com/Faultbox/museum3d/internal/engine/window"
	"github.com/Faultbox/museum3d/internal/logger"
)

// Viewer is the running application.
type Viewer struct {
	cfg     *config.Config
	running bool
	window  *window.Window
	input   *input.Input
	mouse   *camera.MouseLook
	scene   *scene.Scene
	capture *screenshot.Capture
}

// New opens the window and builds the scene described by the config.
func New(cfg *config.Config) (*Viewer, error) {
	log := logger.Named("viewer")
	log.Info("initializing viewer",
		zap.String("scene", cfg.Assets.SceneFile),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	v := &Viewer{
		cfg:   cfg,
		input: input.New(),
		mouse: camera.NewMouseLook(),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:        cfg.Graphics.Title,
		Width:        cfg.Graphics.Width,
		Height:       cfg.Graphics.Height,
		Fullscreen:   cfg.Graphics.Fullscreen,
		VSync:        cfg.Graphics.VSync,
		CaptureMouse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL device AFTER window, since the context must be current
	dev, err := opengl.New()
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to initialize GPU device: %w", err)
	}

	desc, err := scene.LoadDescription(cfg.Assets.SceneFile)
	if err != nil {
		v.window.Close()
		return nil, err
	}

	cache, err := texture.NewCache(dev, cfg.Assets.DefaultTexture)
	if err != nil {
		v.window.Close()
		return nil, err
	}

	progs := scene.Programs{
		Forward: shader.Load(dev, cfg.Assets.SceneVertex, cfg.Assets.SceneFragment),
		Depth:   shader.Load(dev, cfg.Assets.DepthVertex, cfg.Assets.DepthFragment),
	}

	width, height := v.window.DrawableSize()
	v.scene, err = scene.Build(dev, desc, Options(cfg, width, height), progs, cache)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}

	for _, d := range v.scene.Diagnostics() {
		log.Warn("scene diagnostic",
			zap.Stringer("severity", d.Severity),
			zap.String("source", d.Source),
			zap.String("message", d.Message),
		)
	}

	v.capture = screenshot.New(dev, cfg.Assets.ScreenshotDir, "museum")

	log.Info("viewer initialized")
	return v, nil
}

// Options maps the config onto scene render options for a viewport.
func Options(cfg *config.Config, width, height int32) scene.Options {
	opts := scene.DefaultOptions()
	opts.Width, opts.Height = width, height
	opts.FOV = cfg.Graphics.FOV
	opts.Near = cfg.Graphics.Near
	opts.Far = cfg.Graphics.Far
	opts.ClearColor = cfg.Graphics.ClearColor
	opts.Shadows = cfg.Shadow.Enabled
	opts.Shadow.HalfExtent = cfg.Shadow.HalfSize
	opts.Shadow.Near = cfg.Shadow.Near
	opts.Shadow.Far = cfg.Shadow.Far
	opts.Camera = camera.Config{
		Speed:       cfg.Camera.Speed,
		Sensitivity: cfg.Camera.Sensitivity,
		LockHeight:  cfg.Camera.LockHeight,
		Height:      cfg.Camera.HabitatHeight,
	}
	return opts
}

// Run drives the frame loop until the window closes or Escape is pressed.
func (v *Viewer) Run() error {
	log := logger.Named("viewer")
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		// 1. Input
		if v.input.Update() || v.input.IsKeyDown(sdl.SCANCODE_ESCAPE) {
			v.running = false
			break
		}
		if w, h, ok := v.input.Resized(); ok {
			dw, dh := v.window.DrawableSize()
			log.Debug("window resized", zap.Int32("width", w), zap.Int32("height", h))
			if err := v.scene.Resize(dw, dh); err != nil {
				return fmt.Errorf("resize error: %w", err)
			}
		}

		// 2. Update
		v.scene.Update(dt, Controls(v.input, v.mouse))

		// 3. Render and present
		v.scene.Render()
		if v.input.IsKeyPressed(KeyScreenshot) {
			w, h := v.scene.Viewport()
			if _, err := v.capture.Save(w, h); err != nil {
				log.Warn("screenshot failed", zap.Error(err))
			}
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			log.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close releases the scene and the window.
func (v *Viewer) Close() {
	logger.Named("viewer").Info("closing viewer")

	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.window != nil {
		v.window.Close()
	}
}
