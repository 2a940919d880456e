// Package scene owns the loaded models, camera and lights, and draws them
// with a shadow pass followed by a lit forward pass.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/museum3d/internal/engine/asset"
	"github.com/Faultbox/museum3d/internal/engine/camera"
	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/engine/lighting"
	"github.com/Faultbox/museum3d/internal/engine/model"
	"github.com/Faultbox/museum3d/internal/engine/shader"
	"github.com/Faultbox/museum3d/internal/engine/shadow"
	"github.com/Faultbox/museum3d/internal/engine/texture"
	"github.com/Faultbox/museum3d/internal/logger"
)

// Options contains render settings that do not come from the scene file.
type Options struct {
	Width      int32
	Height     int32
	FOV        float32 // vertical, degrees
	Near       float32
	Far        float32
	ClearColor mgl32.Vec4
	Shadows    bool
	Shadow     shadow.Config
	Camera     camera.Config
}

// DefaultOptions returns an 800x600 view with shadows on.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		FOV:        45,
		Near:       0.1,
		Far:        100,
		ClearColor: mgl32.Vec4{0.1, 0.1, 0.12, 1},
		Shadows:    true,
		Shadow:     shadow.DefaultConfig(),
		Camera:     camera.DefaultConfig(),
	}
}

// Programs are the two shader programs a scene draws with.
type Programs struct {
	Forward *shader.Program
	Depth   *shader.Program
}

// Severity classifies a build diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a problem found while building the scene.
type Diagnostic struct {
	Severity Severity
	Source   string
	Message  string
}

// Controls is one frame of user input.
type Controls struct {
	Forward, Backward, Left, Right bool
	LookDX, LookDY                 float32
	LightsOn, LightsOff            bool
}

// Scene is everything drawn each frame.
type Scene struct {
	dev         gpu.Device
	opts        Options
	cache       *texture.Cache
	forward     *shader.Program
	shadow      *shadow.Pass
	camera      *camera.Camera
	lights      *lighting.Set
	caster      int
	instances   []*model.Instance
	orbits      []Orbit
	diagnostics []Diagnostic
	lightSpace  mgl32.Mat4
}

// Build loads every model in desc. Models that fail to load are skipped and
// reported in Diagnostics. The scene takes ownership of progs and cache.
func Build(dev gpu.Device, desc *Description, opts Options, progs Programs, cache *texture.Cache) (*Scene, error) {
	log := logger.Named("scene")

	s := &Scene{
		dev:        dev,
		opts:       opts,
		cache:      cache,
		forward:    progs.Forward,
		caster:     desc.ShadowCaster,
		orbits:     append([]Orbit(nil), desc.Animations...),
		lightSpace: mgl32.Ident4(),
	}

	lights := make([]lighting.Light, len(desc.Lights))
	for i, l := range desc.Lights {
		lights[i] = l.Light()
	}
	var err error
	s.lights, err = lighting.NewSet(lights...)
	if err != nil {
		progs.Depth.Release()
		s.Destroy()
		return nil, fmt.Errorf("building lights: %w", err)
	}

	s.shadow, err = shadow.NewPass(dev, progs.Depth, opts.Width, opts.Height, opts.Shadow)
	if err != nil {
		progs.Depth.Release()
		s.Destroy()
		return nil, fmt.Errorf("building shadow pass: %w", err)
	}

	s.camera = camera.New(opts.Camera)
	s.camera.SetPose(desc.Camera.Position, desc.Camera.Yaw, desc.Camera.Pitch)
	s.camera.SetWalkableArea(desc.Area())

	loader := asset.NewLoader(dev, cache)
	for _, m := range desc.Models {
		path := desc.AssetPath(m)
		loaded, err := loader.Load(path, desc.MaterialDir(m))
		if err != nil {
			s.report(SeverityError, path, err)
			continue
		}
		for _, w := range loaded.Warnings {
			s.diagnostics = append(s.diagnostics, Diagnostic{Severity: SeverityWarning, Source: path, Message: w})
		}
		s.instances = append(s.instances, model.New(m.Name, path, loaded.Meshes, m.Transform()))
	}

	stats := cache.Stats()
	log.Info("scene built",
		zap.Int("models", len(s.instances)),
		zap.Int("requested", len(desc.Models)),
		zap.Int("lights", s.lights.Len()),
		zap.Int("textures", cache.Len()),
		zap.Int("texture_decodes", stats.Decodes),
		zap.Int("texture_hits", stats.Hits),
		zap.Int("diagnostics", len(s.diagnostics)),
	)
	return s, nil
}

func (s *Scene) report(sev Severity, source string, err error) {
	var loadErr *asset.LoadError
	msg := err.Error()
	if errors.As(err, &loadErr) && errors.Is(err, asset.ErrGeometry) {
		msg = loadErr.Err.Error()
	}
	s.diagnostics = append(s.diagnostics, Diagnostic{Severity: sev, Source: source, Message: msg})
	logger.Named("scene").Error("model skipped", zap.String("path", source), zap.Error(err))
}

// Camera returns the scene camera.
func (s *Scene) Camera() *camera.Camera { return s.camera }

// Lights returns the scene lights.
func (s *Scene) Lights() *lighting.Set { return s.lights }

// Instances returns the loaded models in draw order.
func (s *Scene) Instances() []*model.Instance { return s.instances }

// Instance returns the first model with the given name.
func (s *Scene) Instance(name string) (*model.Instance, bool) {
	for _, inst := range s.instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}

// Diagnostics returns the problems found while building.
func (s *Scene) Diagnostics() []Diagnostic { return s.diagnostics }

// Textures returns the texture cache.
func (s *Scene) Textures() *texture.Cache { return s.cache }

// LightSpaceMatrix returns the matrix computed by the last Render.
func (s *Scene) LightSpaceMatrix() mgl32.Mat4 { return s.lightSpace }

// Viewport returns the current render size.
func (s *Scene) Viewport() (width, height int32) { return s.opts.Width, s.opts.Height }

// Update applies one frame of input and advances animations by dt seconds.
// Movement is a fixed step per frame and does not scale with dt. When both
// light keys are held, off wins.
func (s *Scene) Update(dt float32, c Controls) {
	if c.Forward {
		s.camera.Move(camera.Forward)
	}
	if c.Backward {
		s.camera.Move(camera.Backward)
	}
	if c.Left {
		s.camera.Move(camera.Left)
	}
	if c.Right {
		s.camera.Move(camera.Right)
	}
	if c.LookDX != 0 || c.LookDY != 0 {
		s.camera.Look(c.LookDX, c.LookDY)
	}

	if c.LightsOn {
		s.lights.SetEnabled(true)
	}
	if c.LightsOff {
		s.lights.SetEnabled(false)
	}

	for _, o := range s.orbits {
		for _, inst := range s.instances {
			if inst.Name == o.Model {
				inst.Transform.Rotation[1] = WrapDegrees(inst.Transform.Rotation[1] + o.YawRate*dt)
			}
		}
	}
}

// WrapDegrees maps an angle into [0, 360). Non-finite input maps to 0.
func WrapDegrees(a float32) float32 {
	w := math.Mod(float64(a), 360)
	if math.IsNaN(w) {
		return 0
	}
	if w < 0 {
		w += 360
	}
	r := float32(w)
	if r >= 360 {
		r = 0
	}
	return r
}

// Render draws the shadow pass and then the forward pass into the current
// framebuffer.
func (s *Scene) Render() {
	s.lightSpace = s.renderShadows()

	s.dev.BeginFrame(s.opts.Width, s.opts.Height, s.opts.ClearColor)
	if !s.forward.Use() {
		return
	}

	s.forward.SetMat4("projection", s.Projection())
	s.forward.SetMat4("view", s.camera.ViewMatrix())
	s.forward.SetMat4("lightSpaceMatrix", s.lightSpace)
	s.forward.SetVec3("viewPos", s.camera.Position)
	s.forward.SetInt("shadowMap", gpu.UnitShadow)
	s.forward.SetVec3("shadowLightPos", s.shadowLightPos())
	s.lights.Upload(s.forward)

	s.dev.BindTexture(gpu.UnitShadow, s.shadow.DepthTexture())
	for _, inst := range s.instances {
		s.forward.SetMat4("model", inst.ModelMatrix())
		inst.Draw()
	}
}

// renderShadows runs the depth pass from the caster light. With shadows
// disabled or no lights the map is only cleared, so nothing is shadowed.
func (s *Scene) renderShadows() mgl32.Mat4 {
	pos := s.shadowLightPos()
	if s.lights.Len() == 0 || !s.opts.Shadows {
		return s.shadow.Render(pos, nil)
	}
	return s.shadow.Render(pos, s.instances)
}

// shadowLightPos is the position the depth map is rendered from.
func (s *Scene) shadowLightPos() mgl32.Vec3 {
	if s.lights.Len() == 0 {
		return mgl32.Vec3{0, 10, 0}
	}
	return s.lights.Light(s.caster).Position
}

// Projection returns the perspective projection for the current viewport.
func (s *Scene) Projection() mgl32.Mat4 {
	aspect := float32(s.opts.Width) / float32(max(s.opts.Height, 1))
	return mgl32.Perspective(mgl32.DegToRad(s.opts.FOV), aspect, s.opts.Near, s.opts.Far)
}

// Resize updates the viewport and the shadow map to match it.
func (s *Scene) Resize(width, height int32) error {
	width, height = max(width, 1), max(height, 1)
	if width == s.opts.Width && height == s.opts.Height {
		return nil
	}
	if err := s.shadow.Resize(width, height); err != nil {
		return fmt.Errorf("resizing scene: %w", err)
	}
	s.opts.Width, s.opts.Height = width, height
	logger.Named("scene").Debug("viewport resized", zap.Int32("width", width), zap.Int32("height", height))
	return nil
}

// Destroy releases every model, the passes and the texture cache.
func (s *Scene) Destroy() {
	for _, inst := range s.instances {
		inst.Destroy()
	}
	s.instances = nil
	if s.shadow != nil {
		s.shadow.Release()
		s.shadow = nil
	}
	if s.forward != nil {
		s.forward.Release()
	}
	if s.cache != nil {
		s.cache.Purge()
	}
}
