package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

// pixelFormat maps a channel count to GL internal and client formats.
func pixelFormat(channels int) (internal int32, format uint32, err error) {
	switch channels {
	case 1:
		return gl.R8, gl.RED, nil
	case 3:
		return gl.RGB8, gl.RGB, nil
	case 4:
		return gl.RGBA8, gl.RGBA, nil
	default:
		return 0, 0, fmt.Errorf("unsupported channel count %d", channels)
	}
}

// CreateTexture uploads an image with mipmaps and repeat wrapping.
func (d *Device) CreateTexture(img *gpu.Image) (uint32, error) {
	internal, format, err := pixelFormat(img.Channels)
	if err != nil {
		return 0, err
	}
	if len(img.Pix) < img.Width*img.Height*img.Channels {
		return 0, fmt.Errorf("pixel buffer too short: %d bytes for %dx%dx%d",
			len(img.Pix), img.Width, img.Height, img.Channels)
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)

	// RGB and RED rows are not 4-byte aligned
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Width), int32(img.Height), 0,
		format, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if d.maxAnisotropy > 0 {
		gl.TexParameterf(gl.TEXTURE_2D, textureMaxAnisotropy, d.maxAnisotropy)
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texID, nil
}

// DeleteTexture frees a texture handle.
func (d *Device) DeleteTexture(id uint32) {
	if id != 0 {
		gl.DeleteTextures(1, &id)
	}
}

// BindTexture binds a 2D texture to the given unit.
func (d *Device) BindTexture(unit, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, id)
}
