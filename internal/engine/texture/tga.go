package texture

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeRLE          = 10 // RLE compressed true-color
	TGATypeRLEGray      = 11 // RLE compressed grayscale
)

const (
	tgaHeaderSize            = 18
	tgaDescriptorTopToBottom = 0x20
)

// DecodeTGA decodes a TGA image file.
// Supports true-color (24/32 bpp) and 8-bit grayscale images, raw or RLE compressed.
// Grayscale images decode to *image.Gray, true-color to *image.NRGBA.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	gray := imageType == TGATypeGray || imageType == TGATypeRLEGray
	switch {
	case imageType != TGATypeUncompressed && imageType != TGATypeRLE && !gray:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	case gray && bpp != 8:
		return nil, fmt.Errorf("unsupported grayscale TGA bit depth %d (only 8 supported)", bpp)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("TGA has zero size %dx%d", width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	d := tgaDecoder{
		src:           data[offset:],
		width:         width,
		height:        height,
		bytesPerPixel: bpp / 8,
		topToBottom:   descriptor&tgaDescriptorTopToBottom != 0,
	}
	if gray {
		img := image.NewGray(image.Rect(0, 0, width, height))
		d.set = func(x, y int, px []byte) { img.SetGray(x, y, color.Gray{Y: px[0]}) }
		if err := d.decode(imageType == TGATypeRLEGray); err != nil {
			return nil, err
		}
		return img, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	d.set = func(x, y int, px []byte) {
		a := uint8(255)
		if len(px) == 4 {
			a = px[3]
		}
		// TGA stores BGR(A)
		img.SetNRGBA(x, y, color.NRGBA{R: px[2], G: px[1], B: px[0], A: a})
	}
	if err := d.decode(imageType == TGATypeRLE); err != nil {
		return nil, err
	}
	return img, nil
}

type tgaDecoder struct {
	src           []byte
	width         int
	height        int
	bytesPerPixel int
	topToBottom   bool
	set           func(x, y int, px []byte)
}

// put writes the pixel at linear file position idx, honouring the row order bit.
func (d *tgaDecoder) put(idx int, px []byte) {
	x := idx % d.width
	y := idx / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.set(x, y, px)
}

func (d *tgaDecoder) decode(rle bool) error {
	pixelCount := d.width * d.height
	bpp := d.bytesPerPixel

	if !rle {
		if len(d.src) < pixelCount*bpp {
			return fmt.Errorf("TGA pixel data truncated")
		}
		for i := 0; i < pixelCount; i++ {
			d.put(i, d.src[i*bpp:(i+1)*bpp])
		}
		return nil
	}

	pixelIdx := 0
	dataIdx := 0
	for pixelIdx < pixelCount {
		if dataIdx >= len(d.src) {
			return fmt.Errorf("TGA RLE data truncated at pixel %d", pixelIdx)
		}
		packet := d.src[dataIdx]
		dataIdx++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run packet: one pixel repeated
			if dataIdx+bpp > len(d.src) {
				return fmt.Errorf("TGA RLE data truncated at pixel %d", pixelIdx)
			}
			px := d.src[dataIdx : dataIdx+bpp]
			dataIdx += bpp
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				d.put(pixelIdx, px)
				pixelIdx++
			}
			continue
		}

		// Raw packet: count literal pixels
		for i := 0; i < count && pixelIdx < pixelCount; i++ {
			if dataIdx+bpp > len(d.src) {
				return fmt.Errorf("TGA RLE data truncated at pixel %d", pixelIdx)
			}
			d.put(pixelIdx, d.src[dataIdx:dataIdx+bpp])
			dataIdx += bpp
			pixelIdx++
		}
	}
	return nil
}
