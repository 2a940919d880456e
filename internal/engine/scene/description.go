package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/museum3d/internal/engine/lighting"
	"github.com/Faultbox/museum3d/internal/engine/model"
)

// Description is the declarative scene layout read from YAML.
type Description struct {
	Camera       CameraDesc  `yaml:"camera"`
	Lights       []LightDesc `yaml:"lights"`
	ShadowCaster int         `yaml:"shadow_caster"`
	Models       []ModelDesc `yaml:"models"`
	Animations   []Orbit     `yaml:"animations"`
	// WalkableArea is an optional polygon on the XZ plane the camera stays inside.
	WalkableArea [][2]float32 `yaml:"walkable_area"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// CameraDesc is the camera's starting pose.
type CameraDesc struct {
	Position [3]float32 `yaml:"position"`
	Yaw      float32    `yaml:"yaw"`
	Pitch    float32    `yaml:"pitch"`
}

// LightDesc describes one point light. Omitted terms take the light defaults.
type LightDesc struct {
	Position  [3]float32 `yaml:"position"`
	Ambient   [3]float32 `yaml:"ambient"`
	Diffuse   [3]float32 `yaml:"diffuse"`
	Specular  [3]float32 `yaml:"specular"`
	Constant  float32    `yaml:"constant"`
	Linear    float32    `yaml:"linear"`
	Quadratic float32    `yaml:"quadratic"`
}

// ModelDesc places one asset in the scene.
type ModelDesc struct {
	Name        string     `yaml:"name"`
	Asset       string     `yaml:"asset"`
	MaterialDir string     `yaml:"material_dir"`
	Position    [3]float32 `yaml:"position"`
	Rotation    [3]float32 `yaml:"rotation"` // degrees
	Scale       Scale      `yaml:"scale"`
}

// Scale is a per-axis scale factor. A single number scales uniformly.
type Scale mgl32.Vec3

// UnmarshalYAML accepts either a number or a [x, y, z] list.
func (s *Scale) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var f float32
		if err := value.Decode(&f); err != nil {
			return err
		}
		*s = Scale{f, f, f}
		return nil
	}
	var v [3]float32
	if err := value.Decode(&v); err != nil {
		return err
	}
	*s = Scale(v)
	return nil
}

// Orbit spins every model with the given name about Y.
type Orbit struct {
	Model   string  `yaml:"model"`
	YawRate float32 `yaml:"yaw_rate"` // degrees per second
}

// UnmarshalYAML fills unset light terms with the defaults.
func (l *LightDesc) UnmarshalYAML(value *yaml.Node) error {
	type raw LightDesc
	d := lighting.NewLight(mgl32.Vec3{})
	r := raw{
		Ambient:   d.Ambient,
		Diffuse:   d.Diffuse,
		Specular:  d.Specular,
		Constant:  d.Constant,
		Linear:    d.Linear,
		Quadratic: d.Quadratic,
	}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*l = LightDesc(r)
	return nil
}

// UnmarshalYAML defaults scale to 1 on every axis.
func (m *ModelDesc) UnmarshalYAML(value *yaml.Node) error {
	type raw ModelDesc
	r := raw{Scale: Scale{1, 1, 1}}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*m = ModelDesc(r)
	return nil
}

// Light converts the description to a light.
func (l LightDesc) Light() lighting.Light {
	return lighting.Light{
		Position:  l.Position,
		Ambient:   l.Ambient,
		Diffuse:   l.Diffuse,
		Specular:  l.Specular,
		Constant:  l.Constant,
		Linear:    l.Linear,
		Quadratic: l.Quadratic,
	}
}

// Transform converts the placement to a model transform.
func (m ModelDesc) Transform() model.Transform {
	return model.Transform{
		Position: m.Position,
		Rotation: m.Rotation,
		Scale:    mgl32.Vec3(m.Scale),
	}
}

// defaultDescription is the layout used for fields the file omits.
func defaultDescription() Description {
	return Description{
		Camera: CameraDesc{Position: [3]float32{0, 3, 0}, Yaw: -90},
	}
}

// LoadDescription reads and validates a scene file. Relative paths in it
// are resolved against the file's directory.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	d, err := ParseDescription(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return d, nil
}

// ParseDescription decodes YAML with paths relative to dir.
func ParseDescription(data []byte, dir string) (*Description, error) {
	d := defaultDescription()
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	d.dir = dir
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the description for errors.
func (d *Description) Validate() error {
	var errs []error

	if len(d.Lights) > lighting.MaxLights {
		errs = append(errs, fmt.Errorf("%d lights given, at most %d supported", len(d.Lights), lighting.MaxLights))
	}
	if len(d.Lights) > 0 && (d.ShadowCaster < 0 || d.ShadowCaster >= len(d.Lights)) {
		errs = append(errs, fmt.Errorf("shadow_caster %d out of range (have %d lights)", d.ShadowCaster, len(d.Lights)))
	}

	names := make(map[string]bool)
	for i, m := range d.Models {
		if m.Asset == "" {
			errs = append(errs, fmt.Errorf("models[%d]: asset is required", i))
		}
		for _, c := range m.Scale {
			if c <= 0 || !finite(c) {
				errs = append(errs, fmt.Errorf("models[%d]: scale must be positive, got %v", i, m.Scale))
				break
			}
		}
		if !allFinite(m.Position[:]...) || !allFinite(m.Rotation[:]...) {
			errs = append(errs, fmt.Errorf("models[%d]: position and rotation must be finite", i))
		}
		if m.Name != "" {
			names[m.Name] = true
		}
	}
	for i, a := range d.Animations {
		if !names[a.Model] {
			errs = append(errs, fmt.Errorf("animations[%d]: no model named %q", i, a.Model))
		}
		if !finite(a.YawRate) {
			errs = append(errs, fmt.Errorf("animations[%d]: yaw_rate must be finite, got %g", i, a.YawRate))
		}
	}
	if n := len(d.WalkableArea); n > 0 && n < 3 {
		errs = append(errs, fmt.Errorf("walkable_area needs at least 3 points, got %d", n))
	}

	return errors.Join(errs...)
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func allFinite(vs ...float32) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}

// AssetPath returns the model's asset path resolved against the description.
func (d *Description) AssetPath(m ModelDesc) string {
	return d.resolve(m.Asset)
}

// MaterialDir returns the model's texture directory, or "" to use the
// asset's own directory.
func (d *Description) MaterialDir(m ModelDesc) string {
	if m.MaterialDir == "" {
		return ""
	}
	return d.resolve(m.MaterialDir)
}

func (d *Description) resolve(p string) string {
	if filepath.IsAbs(p) || d.dir == "" {
		return p
	}
	return filepath.Join(d.dir, p)
}

// Area returns the walkable polygon, or nil when unrestricted.
func (d *Description) Area() []mgl32.Vec2 {
	if len(d.WalkableArea) == 0 {
		return nil
	}
	area := make([]mgl32.Vec2, len(d.WalkableArea))
	for i, p := range d.WalkableArea {
		area[i] = p
	}
	return area
}
