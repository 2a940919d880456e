package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

// CreateDepthTarget creates a framebuffer with a single depth texture attachment
// configured for sampler2DShadow comparison.
func (d *Device) CreateDepthTarget(width, height int32) (gpu.DepthTargetHandle, error) {
	h := gpu.DepthTargetHandle{Width: width, Height: height}

	gl.GenFramebuffers(1, &h.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, h.FBO)

	gl.GenTextures(1, &h.Texture)
	gl.BindTexture(gl.TEXTURE_2D, h.Texture)
	allocDepth(width, height)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// Outside the light frustum counts as lit
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	borderColor := []float32{1.0, 1.0, 1.0, 1.0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, h.Texture, 0)

	// No color buffer for the depth pass
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		d.DeleteDepthTarget(h)
		return gpu.DepthTargetHandle{}, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return h, nil
}

func allocDepth(width, height int32) {
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, width, height, 0,
		gl.DEPTH_COMPONENT, gl.FLOAT, nil)
}

// ResizeDepthTarget reallocates the depth texture storage; the framebuffer keeps its attachment.
func (d *Device) ResizeDepthTarget(h gpu.DepthTargetHandle, width, height int32) (gpu.DepthTargetHandle, error) {
	gl.BindTexture(gl.TEXTURE_2D, h.Texture)
	allocDepth(width, height)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	h.Width, h.Height = width, height
	return h, nil
}

// DeleteDepthTarget frees the framebuffer and its depth texture.
func (d *Device) DeleteDepthTarget(h gpu.DepthTargetHandle) {
	if h.FBO != 0 {
		gl.DeleteFramebuffers(1, &h.FBO)
	}
	if h.Texture != 0 {
		gl.DeleteTextures(1, &h.Texture)
	}
}

// BeginDepthPass binds the depth target and clears it.
func (d *Device) BeginDepthPass(h gpu.DepthTargetHandle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, h.FBO)
	gl.Viewport(0, 0, h.Width, h.Height)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	// Push depth away from the light to reduce shadow acne
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(1.1, 4.0)
}

// EndDepthPass restores the window framebuffer.
func (d *Device) EndDepthPass() {
	gl.Disable(gl.POLYGON_OFFSET_FILL)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}
