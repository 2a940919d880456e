// Package camera provides the free-fly camera used to walk the scene.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a movement direction relative to the view.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

// Pitch limits in degrees; beyond these the basis degenerates.
const (
	MaxPitch float32 = 89
	MinPitch float32 = -89
)

// Config holds movement tuning.
type Config struct {
	Speed       float32 // world units per Move call
	Sensitivity float32 // degrees per pixel of mouse movement
	LockHeight  bool    // pin Y to Height after every move
	Height      float32
}

// DefaultConfig returns the standard walking setup.
func DefaultConfig() Config {
	return Config{
		Speed:       0.01,
		Sensitivity: 0.1,
		LockHeight:  true,
		Height:      3.0,
	}
}

// Camera is a yaw/pitch camera. Front is always unit length.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32 // degrees, unconstrained
	Pitch    float32 // degrees, clamped to [MinPitch, MaxPitch]

	front   mgl32.Vec3
	up      mgl32.Vec3
	right   mgl32.Vec3
	worldUp mgl32.Vec3

	cfg  Config
	area []mgl32.Vec2 // walkable polygon on XZ; nil means unbounded
}

// New creates a camera at (0, cfg.Height, 0) looking down -Z.
func New(cfg Config) *Camera {
	c := &Camera{
		Position: mgl32.Vec3{0, cfg.Height, 0},
		Yaw:      -90,
		worldUp:  mgl32.Vec3{0, 1, 0},
		cfg:      cfg,
	}
	c.updateVectors()
	return c
}

// SetPose places the camera. Pitch is clamped.
func (c *Camera) SetPose(position mgl32.Vec3, yaw, pitch float32) {
	c.Position = position
	if c.cfg.LockHeight {
		c.Position[1] = c.cfg.Height
	}
	c.Yaw = yaw
	c.Pitch = mgl32.Clamp(pitch, MinPitch, MaxPitch)
	c.updateVectors()
}

// SetWalkableArea restricts movement to a polygon on the XZ plane.
// A polygon with fewer than 3 points removes the restriction.
func (c *Camera) SetWalkableArea(polygon []mgl32.Vec2) {
	if len(polygon) < 3 {
		c.area = nil
		return
	}
	c.area = append([]mgl32.Vec2(nil), polygon...)
}

// Config returns the movement tuning.
func (c *Camera) Config() Config { return c.cfg }

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Up returns the camera's up vector.
func (c *Camera) Up() mgl32.Vec3 { return c.up }

// Right returns the camera's right vector.
func (c *Camera) Right() mgl32.Vec3 { return c.right }

// Move steps the camera a fixed distance. The step does not depend on frame
// time. Moves that would leave the walkable area are dropped.
func (c *Camera) Move(d Direction) {
	var delta mgl32.Vec3
	switch d {
	case Forward:
		delta = c.front.Mul(c.cfg.Speed)
	case Backward:
		delta = c.front.Mul(-c.cfg.Speed)
	case Left:
		delta = c.right.Mul(-c.cfg.Speed)
	case Right:
		delta = c.right.Mul(c.cfg.Speed)
	default:
		return
	}

	next := c.Position.Add(delta)
	if c.cfg.LockHeight {
		next[1] = c.cfg.Height
	}
	if !c.CanStand(next) {
		return
	}
	c.Position = next
}

// CanStand reports whether p lies inside the walkable area.
func (c *Camera) CanStand(p mgl32.Vec3) bool {
	if c.area == nil {
		return true
	}
	// Even-odd ray cast along +X
	inside := false
	x, z := p[0], p[2]
	for i, j := 0, len(c.area)-1; i < len(c.area); j, i = i, i+1 {
		a, b := c.area[i], c.area[j]
		if (a[1] > z) != (b[1] > z) && x < (b[0]-a[0])*(z-a[1])/(b[1]-a[1])+a[0] {
			inside = !inside
		}
	}
	return inside
}

// Look turns the camera by a mouse delta in pixels. dy is positive when
// the cursor moves up.
func (c *Camera) Look(dx, dy float32) {
	c.Yaw += dx * c.cfg.Sensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+dy*c.cfg.Sensitivity, MinPitch, MaxPitch)
	c.updateVectors()
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), c.up)
}

func (c *Camera) updateVectors() {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	c.front = mgl32.Vec3{
		float32(gomath.Cos(yaw) * gomath.Cos(pitch)),
		float32(gomath.Sin(pitch)),
		float32(gomath.Sin(yaw) * gomath.Cos(pitch)),
	}.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}
