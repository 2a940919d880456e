// Package texture decodes image files and manages shared GPU textures.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

var (
	// ErrDecode is returned when image data cannot be decoded.
	ErrDecode = errors.New("cannot decode image")
	// ErrUnsupportedChannels is returned for images that do not map to 1, 3 or 4 channels.
	ErrUnsupportedChannels = errors.New("unsupported channel count")
)

// DecodeFile reads and decodes an image file into upload-ready pixels.
func DecodeFile(path string) (*gpu.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading texture %s: %w", path, err)
	}
	return DecodeBytes(data, filepath.Ext(path))
}

// DecodeBytes decodes encoded image data. The extension selects the TGA
// decoder, which has no magic number; every other format is sniffed.
func DecodeBytes(data []byte, ext string) (*gpu.Image, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(ext, ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return ToPixels(img)
}

// Channels classifies an image: grayscale is 1, opaque colour is 3, colour with alpha is 4.
func Channels(img image.Image) (int, error) {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1, nil
	case *image.Alpha, *image.Alpha16:
		return 0, fmt.Errorf("%w: alpha-only image", ErrUnsupportedChannels)
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3, nil
	}
	return 4, nil
}

// ToPixels converts an image to tightly packed 8-bit rows, bottom row first.
func ToPixels(img image.Image) (*gpu.Image, error) {
	channels, err := Channels(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	out := &gpu.Image{Width: w, Height: h, Channels: channels, Pix: make([]byte, w*h*channels)}

	for y := 0; y < h; y++ {
		// Flip vertically: image row 0 is the top, GL row 0 is the bottom
		row := out.Pix[(h-1-y)*w*channels:]
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			px := row[x*channels:]
			if channels == 1 {
				px[0] = color.GrayModel.Convert(c).(color.Gray).Y
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			px[0], px[1], px[2] = n.R, n.G, n.B
			if channels == 4 {
				px[3] = n.A
			}
		}
	}
	return out, nil
}

// solidImage returns a single-pixel RGBA image.
func solidImage(r, g, b, a uint8) *gpu.Image {
	return &gpu.Image{Width: 1, Height: 1, Channels: 4, Pix: []byte{r, g, b, a}}
}
