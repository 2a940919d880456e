package texture

import (
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/museum3d/internal/engine/gpu/gputest"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCacheDeduplicatesByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "wood.png"), 4, 2)

	dev := gputest.New()
	cache, err := NewCache(dev, "")
	require.NoError(t, err)

	first, err := cache.Get(filepath.Join(dir, "wood.png"))
	require.NoError(t, err)
	// Same file through a different relative spelling
	second, err := cache.Get(filepath.Join(dir, "sub", "..", "wood.png"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, Stats{Decodes: 1, Hits: 1}, cache.Stats())
	assert.Equal(t, 1, cache.Len())

	// White fallback plus one decoded texture
	assert.Len(t, dev.Textures, 2)
	img := dev.Textures[first.ID()]
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Channels)
}

func TestCacheReleasesOnLastReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stone.png")
	writePNG(t, path, 1, 1)

	dev := gputest.New()
	cache, err := NewCache(dev, "")
	require.NoError(t, err)

	a, err := cache.Get(path)
	require.NoError(t, err)
	b, err := cache.Get(path)
	require.NoError(t, err)
	id := a.ID()
	assert.Equal(t, 3, a.Refs(), "cache plus two meshes")

	a.Release()
	cache.Purge()
	assert.NotContains(t, dev.DeletedTextures, id, "still referenced by b")

	b.Release()
	b.Release()
	assert.Equal(t, 1, countID(dev.DeletedTextures, id), "deleted exactly once")
	assert.Zero(t, b.ID())
}

func TestCacheMissingFile(t *testing.T) {
	cache, err := NewCache(gputest.New(), "")
	require.NoError(t, err)

	_, err = cache.Get(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheGetBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embedded.png")
	writePNG(t, path, 2, 2)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	cache, err := NewCache(gputest.New(), "")
	require.NoError(t, err)

	r1, err := cache.GetBytes("/models/cart.glb#image0", data, ".png")
	require.NoError(t, err)
	r2, err := cache.GetBytes("/models/cart.glb#image0", nil, ".png")
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, Stats{Decodes: 1, Hits: 1}, cache.Stats())
}

func TestDefaultTexture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.png")
	writePNG(t, path, 8, 8)

	dev := gputest.New()
	cache, err := NewCache(dev, path)
	require.NoError(t, err)
	def := cache.Default()
	assert.Equal(t, 8, dev.Textures[def.ID()].Width)
	assert.Same(t, def, cache.Default())
}

func TestDefaultTextureFallsBackToWhite(t *testing.T) {
	dev := gputest.New()
	cache, err := NewCache(dev, filepath.Join(t.TempDir(), "nope.png"))
	require.NoError(t, err)

	img := dev.Textures[cache.Default().ID()]
	require.NotNil(t, img)
	assert.Equal(t, 1, img.Width)
	assert.Equal(t, []byte{255, 255, 255, 255}, img.Pix)
}

func TestNewCacheFailsWithoutDevice(t *testing.T) {
	dev := gputest.New()
	dev.FailTextures = true
	_, err := NewCache(dev, "")
	assert.Error(t, err)
}

func countID(ids []uint32, id uint32) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
