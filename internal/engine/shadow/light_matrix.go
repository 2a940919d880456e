package shadow

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Config is the light's orthographic shadow volume.
type Config struct {
	HalfExtent float32 // half width and height of the ortho box
	Near       float32
	Far        float32
}

// DefaultConfig returns a box that covers the museum hall.
func DefaultConfig() Config {
	return Config{HalfExtent: 10, Near: 1, Far: 25}
}

// LightSpaceMatrix returns ortho * view for a light at lightPos aimed at the
// world origin.
func LightSpaceMatrix(lightPos mgl32.Vec3, cfg Config) mgl32.Mat4 {
	target := mgl32.Vec3{}
	dir := target.Sub(lightPos)
	if dir.Len() < 1e-6 {
		// Light at the origin: look straight down from just above it
		lightPos = mgl32.Vec3{0, 1e-3, 0}
		dir = mgl32.Vec3{0, -1, 0}
	}

	// Up vector must not be parallel to the view direction
	up := mgl32.Vec3{0, 1, 0}
	if gomath.Abs(float64(dir.Normalize()[1])) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}

	view := mgl32.LookAtV(lightPos, target, up)
	h := cfg.HalfExtent
	proj := mgl32.Ortho(-h, h, -h, h, cfg.Near, cfg.Far)
	return proj.Mul4(view)
}
