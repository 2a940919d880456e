// Package lighting holds the scene's point lights and uploads them to shaders.
package lighting

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the number of light slots the scene shader declares.
const MaxLights = 3

// Light is a point light with Phong colour terms and distance attenuation.
type Light struct {
	Position  mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Constant  float32
	Linear    float32
	Quadratic float32
}

// NewLight returns a white light at pos with the default terms.
func NewLight(pos mgl32.Vec3) Light {
	return Light{
		Position:  pos,
		Ambient:   mgl32.Vec3{0.1, 0.1, 0.1},
		Diffuse:   mgl32.Vec3{0.5, 0.5, 0.5},
		Specular:  mgl32.Vec3{1.0, 1.0, 1.0},
		Constant:  1.0,
		Linear:    0.09,
		Quadratic: 0.032,
	}
}

// UniformSetter is the part of a shader program lights are uploaded through.
type UniformSetter interface {
	SetFloat(name string, v float32)
	SetVec3(name string, v mgl32.Vec3)
}

type slotNames struct {
	position, ambient, diffuse, specular string
	constant, linear, quadratic          string
}

// uniforms holds light{1,2,3}.* names so uploads do not format strings per frame.
var uniforms = func() (names [MaxLights]slotNames) {
	for i := range names {
		p := fmt.Sprintf("light%d.", i+1)
		names[i] = slotNames{
			position:  p + "position",
			ambient:   p + "ambient",
			diffuse:   p + "diffuse",
			specular:  p + "specular",
			constant:  p + "constant",
			linear:    p + "linear",
			quadratic: p + "quadratic",
		}
	}
	return names
}()

// Set is up to MaxLights lights and a global on/off switch.
// Only light positions may change after construction.
type Set struct {
	lights  []Light
	enabled bool
}

// NewSet creates an enabled set.
func NewSet(lights ...Light) (*Set, error) {
	if len(lights) > MaxLights {
		return nil, fmt.Errorf("%d lights given, at most %d supported", len(lights), MaxLights)
	}
	return &Set{lights: append([]Light(nil), lights...), enabled: true}, nil
}

// Len returns the number of lights.
func (s *Set) Len() int { return len(s.lights) }

// Light returns a copy of light i.
func (s *Set) Light(i int) Light { return s.lights[i] }

// SetPosition moves light i.
func (s *Set) SetPosition(i int, pos mgl32.Vec3) error {
	if i < 0 || i >= len(s.lights) {
		return fmt.Errorf("light %d out of range (have %d)", i, len(s.lights))
	}
	s.lights[i].Position = pos
	return nil
}

// Enabled reports whether diffuse and specular terms are uploaded.
func (s *Set) Enabled() bool { return s.enabled }

// SetEnabled switches lighting on or off.
func (s *Set) SetEnabled(on bool) { s.enabled = on }

// Upload writes every slot. When disabled, diffuse and specular are zero
// but position, ambient and attenuation are still sent. Unused slots get
// zero colours.
func (s *Set) Upload(u UniformSetter) {
	var zero mgl32.Vec3
	for i, names := range uniforms {
		l := Light{Constant: 1}
		if i < len(s.lights) {
			l = s.lights[i]
		}
		diffuse, specular := l.Diffuse, l.Specular
		if !s.enabled {
			diffuse, specular = zero, zero
		}

		u.SetVec3(names.position, l.Position)
		u.SetVec3(names.ambient, l.Ambient)
		u.SetVec3(names.diffuse, diffuse)
		u.SetVec3(names.specular, specular)
		u.SetFloat(names.constant, l.Constant)
		u.SetFloat(names.linear, l.Linear)
		u.SetFloat(names.quadratic, l.Quadratic)
	}
}
