package texture

import (
	"fmt"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

// Resource is an uploaded texture shared by every mesh that references its
// source. It is reference counted; the GPU handle is deleted when the last
// reference is released.
type Resource struct {
	key  string
	tex  *gpu.Texture
	refs int
}

// Upload creates a Resource holding one reference.
func Upload(dev gpu.Device, key string, img *gpu.Image) (*Resource, error) {
	tex, err := gpu.NewTexture(dev, img)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", key, err)
	}
	return &Resource{key: key, tex: tex, refs: 1}, nil
}

// Path returns the resolved source path (or cache key for embedded images).
func (r *Resource) Path() string { return r.key }

// ID returns the GPU texture handle, or 0 once released.
func (r *Resource) ID() uint32 { return r.tex.ID() }

// Refs returns the number of live references.
func (r *Resource) Refs() int { return r.refs }

// Acquire adds a reference and returns r.
func (r *Resource) Acquire() *Resource {
	r.refs++
	return r
}

// Release drops one reference. The texture is deleted when none remain.
func (r *Resource) Release() {
	if r == nil || r.refs == 0 {
		return
	}
	r.refs--
	if r.refs == 0 {
		r.tex.Release()
	}
}
