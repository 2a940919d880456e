// Package gpu defines the device the renderer draws through and the
// resource wrappers that own GPU handles.
//
// Every GPU call in the engine goes through Device so that loaders, passes
// and the scene can run against gputest.Device without a GL context.
package gpu

import "github.com/go-gl/mathgl/mgl32"

// Vertex is the interleaved vertex layout shared by every mesh.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// VertexStride is the size of Vertex in bytes.
const VertexStride = 32

// Vertex attribute locations used by every shader.
const (
	AttribPosition = 0
	AttribNormal   = 1
	AttribTexCoord = 2
)

// Texture units bound by the forward pass.
const (
	UnitDiffuse = 0
	UnitShadow  = 1
)

// Image is decoded 8-bit pixel data ready for upload.
// Rows are stored bottom-up to match the GL texture origin.
type Image struct {
	Width    int
	Height   int
	Channels int // 1 (red), 3 (RGB) or 4 (RGBA)
	Pix      []byte
}

// MeshHandle identifies an uploaded vertex/index buffer pair.
type MeshHandle struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
}

// DepthTargetHandle identifies a depth-only framebuffer and its texture.
type DepthTargetHandle struct {
	FBO     uint32
	Texture uint32
	Width   int32
	Height  int32
}

// Device is the set of GPU operations the engine needs.
type Device interface {
	CreateTexture(img *Image) (uint32, error)
	DeleteTexture(id uint32)
	BindTexture(unit, id uint32)

	CreateMesh(vertices []Vertex, indices []uint32) (MeshHandle, error)
	DeleteMesh(h MeshHandle)
	DrawMesh(h MeshHandle)

	// CompileProgram compiles and links a vertex/fragment pair.
	// The error carries the driver's info log.
	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)
	// UniformLocation returns -1 when the program has no active uniform by that name.
	UniformLocation(program uint32, name string) int32
	SetUniformInt(loc int32, v int32)
	SetUniformFloat(loc int32, v float32)
	SetUniformVec3(loc int32, v mgl32.Vec3)
	SetUniformMat4(loc int32, m mgl32.Mat4)

	CreateDepthTarget(width, height int32) (DepthTargetHandle, error)
	// ResizeDepthTarget reallocates the depth texture storage in place.
	ResizeDepthTarget(h DepthTargetHandle, width, height int32) (DepthTargetHandle, error)
	DeleteDepthTarget(h DepthTargetHandle)
	// BeginDepthPass binds the target, sets the viewport to its size and clears depth.
	BeginDepthPass(h DepthTargetHandle)
	// EndDepthPass restores the default framebuffer.
	EndDepthPass()

	// BeginFrame binds the default framebuffer at full window size and clears colour and depth.
	BeginFrame(width, height int32, clear mgl32.Vec4)
	// ReadPixels returns the window framebuffer as RGBA with rows bottom-up.
	ReadPixels(width, height int32) []byte
}
