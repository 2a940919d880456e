package gpu

import "fmt"

// Texture owns one GPU texture handle. It is used through a pointer and
// must not be copied; Release deletes the handle exactly once.
type Texture struct {
	dev Device
	id  uint32
}

// NewTexture uploads img and takes ownership of the resulting handle.
func NewTexture(dev Device, img *Image) (*Texture, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	id, err := dev.CreateTexture(img)
	if err != nil {
		return nil, fmt.Errorf("uploading texture: %w", err)
	}
	return &Texture{dev: dev, id: id}, nil
}

// ID returns the GPU handle, or 0 after Release.
func (t *Texture) ID() uint32 {
	if t == nil {
		return 0
	}
	return t.id
}

// Release deletes the GPU texture. Subsequent calls do nothing.
func (t *Texture) Release() {
	if t == nil || t.dev == nil {
		return
	}
	t.dev.DeleteTexture(t.id)
	t.dev = nil
	t.id = 0
}

// MeshBuffers owns one uploaded vertex/index buffer pair.
type MeshBuffers struct {
	dev Device
	h   MeshHandle
}

// NewMeshBuffers uploads the vertex and index data.
func NewMeshBuffers(dev Device, vertices []Vertex, indices []uint32) (*MeshBuffers, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("empty mesh")
	}
	h, err := dev.CreateMesh(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("uploading mesh: %w", err)
	}
	return &MeshBuffers{dev: dev, h: h}, nil
}

// Handle returns the buffer handles.
func (m *MeshBuffers) Handle() MeshHandle { return m.h }

// IndexCount returns the number of indices drawn per call.
func (m *MeshBuffers) IndexCount() int { return int(m.h.IndexCount) }

// Draw issues one indexed triangle draw. Released buffers draw nothing.
func (m *MeshBuffers) Draw() {
	if m.dev == nil {
		return
	}
	m.dev.DrawMesh(m.h)
}

// Release deletes the GPU buffers. Subsequent calls do nothing.
func (m *MeshBuffers) Release() {
	if m == nil || m.dev == nil {
		return
	}
	m.dev.DeleteMesh(m.h)
	m.dev = nil
	m.h = MeshHandle{}
}

// DepthTarget owns a depth-only framebuffer.
type DepthTarget struct {
	dev Device
	h   DepthTargetHandle
}

// NewDepthTarget allocates a depth target of the given size.
func NewDepthTarget(dev Device, width, height int32) (*DepthTarget, error) {
	width, height = clampSize(width), clampSize(height)
	h, err := dev.CreateDepthTarget(width, height)
	if err != nil {
		return nil, fmt.Errorf("creating depth target: %w", err)
	}
	return &DepthTarget{dev: dev, h: h}, nil
}

// Size returns the depth texture dimensions.
func (d *DepthTarget) Size() (width, height int32) {
	return d.h.Width, d.h.Height
}

// TextureID returns the depth texture handle for sampling.
func (d *DepthTarget) TextureID() uint32 { return d.h.Texture }

// Resize reallocates the depth texture if the size changed.
func (d *DepthTarget) Resize(width, height int32) error {
	width, height = clampSize(width), clampSize(height)
	if d.dev == nil || (width == d.h.Width && height == d.h.Height) {
		return nil
	}
	h, err := d.dev.ResizeDepthTarget(d.h, width, height)
	if err != nil {
		return fmt.Errorf("resizing depth target: %w", err)
	}
	d.h = h
	return nil
}

// Begin binds the target for a depth-only pass.
func (d *DepthTarget) Begin() {
	if d.dev != nil {
		d.dev.BeginDepthPass(d.h)
	}
}

// End restores the default framebuffer.
func (d *DepthTarget) End() {
	if d.dev != nil {
		d.dev.EndDepthPass()
	}
}

// Release deletes the framebuffer and its texture. Subsequent calls do nothing.
func (d *DepthTarget) Release() {
	if d == nil || d.dev == nil {
		return
	}
	d.dev.DeleteDepthTarget(d.h)
	d.dev = nil
	d.h = DepthTargetHandle{}
}

func clampSize(v int32) int32 {
	if v < 1 {
		return 1
	}
	return v
}
