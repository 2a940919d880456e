package texture

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/logger"
)

// Stats counts cache activity.
type Stats struct {
	Decodes int // image decodes attempted
	Hits    int // lookups served from the cache
}

// Cache shares textures by resolved absolute path for the lifetime of the
// process. Entries are never evicted; the cache holds one reference to each
// until Purge.
type Cache struct {
	dev      gpu.Device
	entries  map[string]*Resource
	fallback *Resource
	stats    Stats
}

// NewCache creates a cache and its default texture. The default is loaded
// from defaultPath; if that fails a 1x1 white texture is used instead.
func NewCache(dev gpu.Device, defaultPath string) (*Cache, error) {
	c := &Cache{
		dev:     dev,
		entries: make(map[string]*Resource),
	}

	if defaultPath != "" {
		img, err := DecodeFile(defaultPath)
		if err == nil {
			c.fallback, err = Upload(dev, defaultPath, img)
		}
		if err != nil {
			logger.Named("texture").Warn("default texture unavailable, using white",
				zap.String("path", defaultPath), zap.Error(err))
		}
	}
	if c.fallback == nil {
		var err error
		c.fallback, err = Upload(dev, "<white>", solidImage(255, 255, 255, 255))
		if err != nil {
			return nil, fmt.Errorf("creating fallback texture: %w", err)
		}
	}
	return c, nil
}

// Get returns the texture for path with a reference owned by the caller,
// decoding and uploading it only on the first request for that absolute path.
func (c *Cache) Get(path string) (*Resource, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving texture path %s: %w", path, err)
	}
	if r, ok := c.entries[key]; ok {
		c.stats.Hits++
		return r.Acquire(), nil
	}

	c.stats.Decodes++
	img, err := DecodeFile(key)
	if err != nil {
		return nil, err
	}
	return c.insert(key, img)
}

// GetBytes is Get for images embedded in another file. key must be unique
// to the embedding file and image index.
func (c *Cache) GetBytes(key string, data []byte, ext string) (*Resource, error) {
	if r, ok := c.entries[key]; ok {
		c.stats.Hits++
		return r.Acquire(), nil
	}

	c.stats.Decodes++
	img, err := DecodeBytes(data, ext)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", key, err)
	}
	return c.insert(key, img)
}

func (c *Cache) insert(key string, img *gpu.Image) (*Resource, error) {
	r, err := Upload(c.dev, key, img)
	if err != nil {
		return nil, err
	}
	c.entries[key] = r
	logger.Named("texture").Debug("texture uploaded",
		zap.String("path", key),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("channels", img.Channels),
	)
	return r.Acquire(), nil
}

// Default returns the default texture with a reference owned by the caller.
func (c *Cache) Default() *Resource {
	return c.fallback.Acquire()
}

// Stats returns the decode and hit counters.
func (c *Cache) Stats() Stats { return c.stats }

// Len returns the number of cached textures, excluding the default.
func (c *Cache) Len() int { return len(c.entries) }

// Paths returns the cached keys in sorted order.
func (c *Cache) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for k := range c.entries {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// Purge drops the cache's own references, including the default texture's.
// Textures still referenced by meshes stay alive until those are released.
func (c *Cache) Purge() {
	for k, r := range c.entries {
		r.Release()
		delete(c.entries, k)
	}
	if c.fallback != nil {
		c.fallback.Release()
		c.fallback = nil
	}
}
