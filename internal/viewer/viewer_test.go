package viewer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/museum3d/internal/config"
	"github.com/Faultbox/museum3d/internal/engine/camera"
	"github.com/Faultbox/museum3d/internal/engine/input"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Graphics.FOV = 60
	cfg.Shadow.Enabled = false
	cfg.Shadow.HalfSize = 15
	cfg.Camera.Speed = 0.05

	opts := Options(cfg, 1280, 720)
	assert.Equal(t, int32(1280), opts.Width)
	assert.Equal(t, int32(720), opts.Height)
	assert.Equal(t, float32(60), opts.FOV)
	assert.Equal(t, float32(0.1), opts.Near)
	assert.Equal(t, float32(100), opts.Far)
	assert.Equal(t, mgl32.Vec4{0.1, 0.1, 0.12, 1.0}, opts.ClearColor)
	assert.False(t, opts.Shadows)
	assert.Equal(t, float32(15), opts.Shadow.HalfExtent)
	assert.Equal(t, float32(25), opts.Shadow.Far)
	assert.Equal(t, float32(0.05), opts.Camera.Speed)
	assert.Equal(t, float32(3), opts.Camera.Height)
	assert.True(t, opts.Camera.LockHeight)
}

func TestControls(t *testing.T) {
	in := input.New()
	mouse := camera.NewMouseLook()

	in.Apply(input.Event{Type: input.EventKeyDown, Key: KeyForward})
	in.Apply(input.Event{Type: input.EventKeyDown, Key: KeyLightsOff})
	in.Apply(input.Event{Type: input.EventMouseMove, XRel: 40, YRel: 10})

	c := Controls(in, mouse)
	assert.True(t, c.Forward)
	assert.False(t, c.Backward)
	assert.True(t, c.LightsOff)
	assert.False(t, c.LightsOn)
	// First sample seeds the mouse look
	assert.Zero(t, c.LookDX)
	assert.Zero(t, c.LookDY)

	in.Apply(input.Event{Type: input.EventMouseMove, XRel: 5, YRel: 4})
	c = Controls(in, mouse)
	assert.Equal(t, float32(5), c.LookDX)
	assert.Equal(t, float32(-4), c.LookDY)
}
