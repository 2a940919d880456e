package opengl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

// CreateMesh uploads interleaved vertices and indices into a new VAO.
func (d *Device) CreateMesh(vertices []gpu.Vertex, indices []uint32) (gpu.MeshHandle, error) {
	var h gpu.MeshHandle

	gl.GenVertexArrays(1, &h.VAO)
	gl.BindVertexArray(h.VAO)

	gl.GenBuffers(1, &h.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*gpu.VertexStride, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(gpu.AttribPosition, 3, gl.FLOAT, false, gpu.VertexStride, 0)
	gl.EnableVertexAttribArray(gpu.AttribPosition)
	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(gpu.AttribNormal, 3, gl.FLOAT, false, gpu.VertexStride, 3*4)
	gl.EnableVertexAttribArray(gpu.AttribNormal)
	// TexCoord (location 2)
	gl.VertexAttribPointerWithOffset(gpu.AttribTexCoord, 2, gl.FLOAT, false, gpu.VertexStride, 6*4)
	gl.EnableVertexAttribArray(gpu.AttribTexCoord)

	gl.GenBuffers(1, &h.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	h.IndexCount = int32(len(indices))
	return h, nil
}

// DeleteMesh frees the VAO and both buffers.
func (d *Device) DeleteMesh(h gpu.MeshHandle) {
	if h.VAO != 0 {
		gl.DeleteVertexArrays(1, &h.VAO)
	}
	if h.VBO != 0 {
		gl.DeleteBuffers(1, &h.VBO)
	}
	if h.EBO != 0 {
		gl.DeleteBuffers(1, &h.EBO)
	}
}

// DrawMesh draws the mesh as indexed triangles.
func (d *Device) DrawMesh(h gpu.MeshHandle) {
	gl.BindVertexArray(h.VAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, h.IndexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}
