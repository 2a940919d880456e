package scene

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/museum3d/internal/engine/gpu/gputest"
	"github.com/Faultbox/museum3d/internal/engine/shader"
	"github.com/Faultbox/museum3d/internal/engine/shadow"
	"github.com/Faultbox/museum3d/internal/engine/texture"
)

const triangleOBJ = `mtllib tri.mtl
o tri
usemtl wood
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

const stubSource = "#version 410 core\nvoid main() {}\n"

// writeAssets creates a textured one-triangle OBJ in dir.
func writeAssets(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(triangleOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.mtl"), []byte("newmtl wood\nmap_Kd wood.png\n"), 0o644))

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	f, err := os.Create(filepath.Join(dir, "wood.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

type fixture struct {
	dev     *gputest.Device
	scene   *Scene
	forward *shader.Program
	depth   *shader.Program
}

func build(t *testing.T, sceneYAML string, opts Options) fixture {
	t.Helper()
	dir := t.TempDir()
	writeAssets(t, dir)

	desc, err := ParseDescription([]byte(sceneYAML), dir)
	require.NoError(t, err)

	dev := gputest.New()
	cache, err := texture.NewCache(dev, "")
	require.NoError(t, err)
	fwd := shader.FromSource(dev, "forward", stubSource, stubSource)
	depth := shader.FromSource(dev, "depth", stubSource, stubSource)

	s, err := Build(dev, desc, opts, Programs{Forward: fwd, Depth: depth}, cache)
	require.NoError(t, err)
	return fixture{dev: dev, scene: s, forward: fwd, depth: depth}
}

const museumYAML = `
camera:
  position: [0, 3, 5]
lights:
  - position: [0, 8, 4]
  - position: [-4, 6, 0]
shadow_caster: 0
models:
  - asset: tri.obj
    name: hall
  - asset: tri.obj
    name: statue
    position: [2, 0, 0]
    rotation: [0, 300, 0]
  - asset: missing.obj
animations:
  - model: statue
    yaw_rate: 90
`

func TestBuildSkipsFailedModels(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())

	require.Len(t, f.scene.Instances(), 2)
	assert.NotEqual(t, f.scene.Instances()[0].ID, f.scene.Instances()[1].ID)

	var errs []Diagnostic
	for _, d := range f.scene.Diagnostics() {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Source, "missing.obj")
	assert.Equal(t, "error", errs[0].Severity.String())

	// Both instances share one decoded texture
	stats := f.scene.Textures().Stats()
	assert.Equal(t, 1, stats.Decodes)
	assert.Equal(t, 1, stats.Hits)

	statue, ok := f.scene.Instance("statue")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, statue.Transform.Position)
	assert.Equal(t, mgl32.Vec3{0, 3, 5}, f.scene.Camera().Position)
}

func TestRenderShadowThenForward(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())
	f.dev.ResetTrace()
	f.scene.Render()

	beginDepth := f.dev.CallIndex("BeginDepthPass 800x600")
	endDepth := f.dev.CallIndex("EndDepthPass")
	frame := f.dev.CallIndex("BeginFrame 800x600")
	require.GreaterOrEqual(t, beginDepth, 0)
	assert.Less(t, beginDepth, endDepth)
	assert.Less(t, endDepth, frame)

	require.Len(t, f.dev.Draws, 4)
	depthDraws, forwardDraws := f.dev.Draws[:2], f.dev.Draws[2:]
	for _, d := range depthDraws {
		assert.True(t, d.DepthPass)
		assert.Equal(t, f.depth.ID(), d.Program)
	}
	for i, d := range forwardDraws {
		assert.False(t, d.DepthPass)
		assert.Equal(t, f.forward.ID(), d.Program)
		assert.NotZero(t, d.Texture)
		assert.Equal(t, f.scene.shadow.DepthTexture(), d.ShadowTexture)
		assert.Equal(t, f.scene.Instances()[i].ModelMatrix(), d.Model)
	}

	prog := f.forward.ID()
	wantLS := shadow.LightSpaceMatrix(mgl32.Vec3{0, 8, 4}, shadow.DefaultConfig())
	assert.Equal(t, wantLS, f.dev.Mat4(prog, "lightSpaceMatrix"))
	assert.Equal(t, wantLS, f.scene.LightSpaceMatrix())
	assert.Equal(t, f.scene.Projection(), f.dev.Mat4(prog, "projection"))
	assert.Equal(t, f.scene.Camera().ViewMatrix(), f.dev.Mat4(prog, "view"))
	assert.Equal(t, mgl32.Vec3{0, 3, 5}, f.dev.Vec3(prog, "viewPos"))
	assert.Equal(t, int32(1), f.dev.Int(prog, "shadowMap"))
	assert.Equal(t, mgl32.Vec3{-4, 6, 0}, f.dev.Vec3(prog, "light2.position"))
	assert.Equal(t, mgl32.Vec3{0, 8, 4}, f.dev.Vec3(prog, "shadowLightPos"))
	assert.Equal(t, mgl32.Vec3{}, f.dev.Vec3(prog, "light3.diffuse"))
}

func TestLightToggle(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())
	prog := f.forward.ID()

	f.scene.Update(0.016, Controls{LightsOff: true})
	f.scene.Render()
	assert.False(t, f.scene.Lights().Enabled())
	assert.Equal(t, mgl32.Vec3{}, f.dev.Vec3(prog, "light1.diffuse"))
	assert.Equal(t, mgl32.Vec3{}, f.dev.Vec3(prog, "light1.specular"))
	assert.Equal(t, mgl32.Vec3{0.1, 0.1, 0.1}, f.dev.Vec3(prog, "light1.ambient"))
	assert.Equal(t, mgl32.Vec3{0, 8, 4}, f.dev.Vec3(prog, "light1.position"))

	f.scene.Update(0.016, Controls{LightsOn: true})
	f.scene.Render()
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, f.dev.Vec3(prog, "light1.diffuse"))

	f.scene.Update(0.016, Controls{LightsOn: true, LightsOff: true})
	assert.False(t, f.scene.Lights().Enabled())
}

func TestOrbitWrapsYaw(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())
	statue, _ := f.scene.Instance("statue")
	hall, _ := f.scene.Instance("hall")

	f.scene.Update(1, Controls{})
	assert.InDelta(t, 30, statue.Transform.Rotation[1], 1e-4)
	assert.Equal(t, float32(0), hall.Transform.Rotation[1])

	f.scene.Update(0.5, Controls{})
	assert.InDelta(t, 75, statue.Transform.Rotation[1], 1e-4)
}

func TestWrapDegrees(t *testing.T) {
	assert.Equal(t, float32(0), WrapDegrees(360))
	assert.Equal(t, float32(350), WrapDegrees(-10))
	assert.Equal(t, float32(10), WrapDegrees(730))
	assert.Equal(t, float32(45), WrapDegrees(45))

	for _, a := range []float32{-1e-6, -360, 1e12, -1e12, 3e38,
		float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN())} {
		w := WrapDegrees(a)
		assert.GreaterOrEqual(t, w, float32(0), "WrapDegrees(%g)", a)
		assert.Less(t, w, float32(360), "WrapDegrees(%g)", a)
	}
}

func TestUpdateMovesAndLooks(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())
	cam := f.scene.Camera()
	start := cam.Position

	f.scene.Update(0.016, Controls{Forward: true})
	assert.InDelta(t, start[2]-0.01, cam.Position[2], 1e-5)
	assert.Equal(t, float32(3), cam.Position[1])

	f.scene.Update(0.016, Controls{LookDX: 100})
	assert.InDelta(t, -80, cam.Yaw, 1e-4)
}

func TestShadowsDisabledSkipsDepthDraws(t *testing.T) {
	opts := DefaultOptions()
	opts.Shadows = false
	f := build(t, museumYAML, opts)
	f.dev.ResetTrace()
	f.scene.Render()

	assert.GreaterOrEqual(t, f.dev.CallIndex("BeginDepthPass"), 0)
	for _, d := range f.dev.Draws {
		assert.False(t, d.DepthPass)
	}
	assert.Len(t, f.dev.Draws, 2)
}

func TestBrokenForwardProgramDrawsNothing(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir)
	desc, err := ParseDescription([]byte("models: [{asset: tri.obj}]"), dir)
	require.NoError(t, err)

	dev := gputest.New()
	cache, err := texture.NewCache(dev, "")
	require.NoError(t, err)
	progs := Programs{
		Forward: shader.FromSource(dev, "forward", gputest.FailMarker, stubSource),
		Depth:   shader.FromSource(dev, "depth", stubSource, stubSource),
	}
	s, err := Build(dev, desc, DefaultOptions(), progs, cache)
	require.NoError(t, err)

	dev.ResetTrace()
	s.Render()
	for _, d := range dev.Draws {
		assert.True(t, d.DepthPass)
	}
	assert.GreaterOrEqual(t, dev.CallIndex("BeginFrame"), 0)
}

func TestResize(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())

	require.NoError(t, f.scene.Resize(1024, 768))
	w, h := f.scene.Viewport()
	assert.Equal(t, int32(1024), w)
	assert.Equal(t, int32(768), h)
	assert.GreaterOrEqual(t, f.dev.CallIndex("ResizeDepthTarget 1024x768"), 0)
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(45), 1024.0/768.0, 0.1, 100), f.scene.Projection())

	f.dev.ResetTrace()
	f.scene.Render()
	assert.GreaterOrEqual(t, f.dev.CallIndex("BeginDepthPass 1024x768"), 0)
	assert.GreaterOrEqual(t, f.dev.CallIndex("BeginFrame 1024x768"), 0)
}

func TestShadowLightFollowsCaster(t *testing.T) {
	src := strings.Replace(museumYAML, "shadow_caster: 0", "shadow_caster: 1", 1)
	f := build(t, src, DefaultOptions())
	f.scene.Render()

	caster := mgl32.Vec3{-4, 6, 0}
	assert.Equal(t, caster, f.dev.Vec3(f.forward.ID(), "shadowLightPos"))
	assert.Equal(t, shadow.LightSpaceMatrix(caster, shadow.DefaultConfig()), f.scene.LightSpaceMatrix())
}

func TestResizeFailureKeepsViewport(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())
	f.dev.FailResize = true

	assert.Error(t, f.scene.Resize(1024, 768))
	w, h := f.scene.Viewport()
	assert.Equal(t, int32(800), w)
	assert.Equal(t, int32(600), h)
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(45), 800.0/600.0, 0.1, 100), f.scene.Projection())

	f.dev.FailResize = false
	require.NoError(t, f.scene.Resize(1024, 768))
	w, _ = f.scene.Viewport()
	assert.Equal(t, int32(1024), w)
}

func TestDestroyReleasesEverything(t *testing.T) {
	f := build(t, museumYAML, DefaultOptions())
	f.scene.Destroy()

	assert.Empty(t, f.dev.Textures)
	assert.Empty(t, f.dev.Meshes)
	assert.Empty(t, f.dev.Programs)
	assert.Empty(t, f.dev.Targets)
}
