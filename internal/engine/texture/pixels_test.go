package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannels(t *testing.T) {
	opaque := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	opaque.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 255})
	translucent := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 10})

	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"gray", image.NewGray(image.Rect(0, 0, 1, 1)), 1},
		{"gray16", image.NewGray16(image.Rect(0, 0, 1, 1)), 1},
		{"opaque rgba", opaque, 3},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420), 3},
		{"translucent rgba", translucent, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Channels(tt.img)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Channels(image.NewAlpha(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrUnsupportedChannels)
}

func TestToPixelsFlipsRows(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255}) // top-left red
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255}) // bottom-left blue
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255})

	px, err := ToPixels(img)
	require.NoError(t, err)
	assert.Equal(t, 3, px.Channels)
	assert.Equal(t, []byte{
		0, 0, 255, 0, 0, 255, // bottom row first
		255, 0, 0, 255, 0, 0,
	}, px.Pix)
}

func TestToPixelsGrayAndAlpha(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 1, 2))
	gray.SetGray(0, 0, color.Gray{Y: 10})
	gray.SetGray(0, 1, color.Gray{Y: 20})

	px, err := ToPixels(gray)
	require.NoError(t, err)
	assert.Equal(t, 1, px.Channels)
	assert.Equal(t, []byte{20, 10}, px.Pix)

	rgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	rgba.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	px, err = ToPixels(rgba)
	require.NoError(t, err)
	assert.Equal(t, 4, px.Channels)
	assert.Equal(t, []byte{1, 2, 3, 4}, px.Pix)
}

func TestDecodeBytesRejectsGarbage(t *testing.T) {
	_, err := DecodeBytes([]byte("not an image"), ".png")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeBytes([]byte{1, 2, 3}, ".TGA")
	assert.ErrorIs(t, err, ErrDecode)
}
