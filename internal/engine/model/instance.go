// Package model places loaded meshes in the world.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/museum3d/internal/engine/mesh"
)

// Transform is a placement: position, Euler rotation in degrees, and scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // degrees about X, Y, Z
	Scale    mgl32.Vec3
}

// Identity returns a transform with unit scale.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns T(position) * Rx * Ry * Rz * S(scale).
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(t.Rotation[0]))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(t.Rotation[1]))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(t.Rotation[2]))).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Instance is a set of meshes loaded from one asset, placed in the world.
// It owns its meshes exclusively.
type Instance struct {
	ID        uuid.UUID
	Name      string // optional; matched by animation rules
	Source    string // asset path
	Transform Transform

	meshes []*mesh.Mesh
}

// New creates an instance owning meshes.
func New(name, source string, meshes []*mesh.Mesh, t Transform) *Instance {
	return &Instance{
		ID:        uuid.New(),
		Name:      name,
		Source:    source,
		Transform: t,
		meshes:    meshes,
	}
}

// Meshes returns the owned meshes in draw order.
func (i *Instance) Meshes() []*mesh.Mesh { return i.meshes }

// ModelMatrix recomputes the model matrix from the current transform.
func (i *Instance) ModelMatrix() mgl32.Mat4 {
	return i.Transform.Matrix()
}

// Draw draws every mesh with its texture.
func (i *Instance) Draw() {
	for _, m := range i.meshes {
		m.Draw()
	}
}

// DrawDepth draws every mesh without textures.
func (i *Instance) DrawDepth() {
	for _, m := range i.meshes {
		m.DrawDepth()
	}
}

// Destroy releases every mesh.
func (i *Instance) Destroy() {
	for _, m := range i.meshes {
		m.Release()
	}
	i.meshes = nil
}
