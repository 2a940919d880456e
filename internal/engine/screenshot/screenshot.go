// Package screenshot saves the rendered frame as a PNG file.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/logger"
)

// Capture writes window contents to timestamped files.
type Capture struct {
	dev       gpu.Device
	outputDir string
	prefix    string
	now       func() time.Time
}

// New creates a capture writing <outputDir>/<prefix>_<timestamp>.png.
func New(dev gpu.Device, outputDir, prefix string) *Capture {
	return &Capture{
		dev:       dev,
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Filename returns the path the next capture would be written to.
func (c *Capture) Filename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.png", c.prefix, timestamp)
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}

// Save reads the current frame and writes it as PNG, returning the path.
func (c *Capture) Save(width, height int32) (string, error) {
	img, err := FromPixels(c.dev.ReadPixels(width, height), int(width), int(height))
	if err != nil {
		return "", err
	}

	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	logger.Named("screenshot").Info("screenshot saved", zap.String("path", filename))
	return filename, nil
}

// FromPixels converts bottom-up RGBA rows, as read from GL, into a
// top-down image.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}
