// Package mesh holds uploaded triangle meshes and their textures.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/engine/texture"
)

// Bounds is an axis-aligned bounding box in model space.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Mesh owns one vertex/index buffer pair and one texture reference.
// Vertices are stored per face corner; the index buffer is 0..N-1.
type Mesh struct {
	Name     string
	vertices []gpu.Vertex
	bounds   Bounds
	buffers  *gpu.MeshBuffers
	texture  *texture.Resource
	dev      gpu.Device
	released bool
}

// New uploads triangle-list vertices with a sequential index buffer.
// It takes ownership of tex, which is released if New fails.
func New(dev gpu.Device, name string, vertices []gpu.Vertex, tex *texture.Resource) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		tex.Release()
		return nil, fmt.Errorf("mesh %q: vertex count %d is not a positive multiple of 3", name, len(vertices))
	}

	buffers, err := gpu.NewMeshBuffers(dev, vertices, SequentialIndices(len(vertices)))
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("mesh %q: %w", name, err)
	}

	return &Mesh{
		Name:     name,
		vertices: vertices,
		bounds:   computeBounds(vertices),
		buffers:  buffers,
		texture:  tex,
		dev:      dev,
	}, nil
}

// SequentialIndices returns 0..n-1.
func SequentialIndices(n int) []uint32 {
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}

func computeBounds(vertices []gpu.Vertex) Bounds {
	b := Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
	return b
}

// Vertices returns the per-corner vertex data.
func (m *Mesh) Vertices() []gpu.Vertex { return m.vertices }

// IndexCount returns the length of the index buffer.
func (m *Mesh) IndexCount() int { return m.buffers.IndexCount() }

// Bounds returns the model-space bounding box.
func (m *Mesh) Bounds() Bounds { return m.bounds }

// Texture returns the mesh's diffuse texture.
func (m *Mesh) Texture() *texture.Resource { return m.texture }

// Draw binds the diffuse texture to unit 0 and draws the mesh.
func (m *Mesh) Draw() {
	if m.released {
		return
	}
	m.dev.BindTexture(gpu.UnitDiffuse, m.texture.ID())
	m.buffers.Draw()
}

// DrawDepth draws the mesh without binding a texture.
func (m *Mesh) DrawDepth() {
	m.buffers.Draw()
}

// Release frees the buffers and drops the texture reference. Subsequent calls do nothing.
func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.buffers.Release()
	m.texture.Release()
}
