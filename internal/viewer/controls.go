package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/museum3d/internal/engine/camera"
	"github.com/Faultbox/museum3d/internal/engine/input"
	"github.com/Faultbox/museum3d/internal/engine/scene"
)

// Key bindings.
const (
	KeyForward    = sdl.SCANCODE_W
	KeyBackward   = sdl.SCANCODE_S
	KeyLeft       = sdl.SCANCODE_A
	KeyRight      = sdl.SCANCODE_D
	KeyLightsOn   = sdl.SCANCODE_L
	KeyLightsOff  = sdl.SCANCODE_K
	KeyScreenshot = sdl.SCANCODE_F12
)

// Controls samples held keys and the cursor into one frame of scene input.
func Controls(in *input.Input, mouse *camera.MouseLook) scene.Controls {
	dx, dy := mouse.Observe(in.Cursor())
	return scene.Controls{
		Forward:   in.IsKeyDown(KeyForward),
		Backward:  in.IsKeyDown(KeyBackward),
		Left:      in.IsKeyDown(KeyLeft),
		Right:     in.IsKeyDown(KeyRight),
		LookDX:    dx,
		LookDY:    dy,
		LightsOn:  in.IsKeyDown(KeyLightsOn),
		LightsOff: in.IsKeyDown(KeyLightsOff),
	}
}
