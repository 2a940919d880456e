// Package asset loads geometry files into GPU meshes.
//
// Supported formats are Wavefront OBJ with MTL material libraries and glTF 2.0
// (.gltf and .glb). Textures are shared through a texture.Cache.
package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/engine/mesh"
	"github.com/Faultbox/museum3d/internal/engine/texture"
	"github.com/Faultbox/museum3d/internal/logger"
)

// ErrGeometry marks every failure to turn a geometry file into meshes.
var ErrGeometry = errors.New("geometry load failed")

// LoadError reports a geometry file that could not be loaded.
// It matches both ErrGeometry and the underlying cause with errors.Is.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrGeometry, e.Err}
}

// Loaded is the result of a successful load.
type Loaded struct {
	Meshes   []*mesh.Mesh
	Warnings []string
}

// Loader builds meshes on a device, sharing textures through a cache.
type Loader struct {
	dev   gpu.Device
	cache *texture.Cache
}

// NewLoader creates a loader.
func NewLoader(dev gpu.Device, cache *texture.Cache) *Loader {
	return &Loader{dev: dev, cache: cache}
}

// Load parses a geometry file and uploads one mesh per shape. Texture names
// are resolved against materialDir, which defaults to the file's directory.
// Missing textures fall back to the cache's default texture with a warning.
// On error no meshes are left allocated.
func (l *Loader) Load(path, materialDir string) (*Loaded, error) {
	if materialDir == "" {
		materialDir = filepath.Dir(path)
	}

	var (
		shapes   []Shape
		warnings []string
		err      error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		shapes, warnings, err = ParseOBJ(path, materialDir)
	case ".gltf", ".glb":
		shapes, warnings, err = ParseGLTF(path, materialDir)
	default:
		err = fmt.Errorf("unsupported geometry format %q", ext)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(shapes) == 0 {
		return nil, &LoadError{Path: path, Err: errors.New("no geometry found")}
	}

	log := logger.Named("asset")
	out := &Loaded{Warnings: warnings}
	for _, s := range shapes {
		tex, warning := l.resolveTexture(s)
		if warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}
		m, err := mesh.New(l.dev, s.Name, s.Vertices, tex)
		if err != nil {
			for _, built := range out.Meshes {
				built.Release()
			}
			return nil, &LoadError{Path: path, Err: err}
		}
		out.Meshes = append(out.Meshes, m)
	}

	for _, w := range out.Warnings {
		log.Warn(w, zap.String("asset", path))
	}
	log.Info("asset loaded",
		zap.String("path", path),
		zap.Int("meshes", len(out.Meshes)),
		zap.Int("warnings", len(out.Warnings)),
	)
	return out, nil
}

// resolveTexture returns a texture reference for the shape, falling back to
// the default texture. A non-empty warning explains a fallback.
func (l *Loader) resolveTexture(s Shape) (*texture.Resource, string) {
	switch {
	case s.Embedded != nil:
		tex, err := l.cache.GetBytes(s.Embedded.Key, s.Embedded.Data, s.Embedded.Ext)
		if err != nil {
			return l.cache.Default(), fmt.Sprintf("shape %s: embedded texture: %v; using default", s.Name, err)
		}
		return tex, ""
	case s.Texture != "":
		tex, err := l.cache.Get(s.Texture)
		if err != nil {
			return l.cache.Default(), fmt.Sprintf("shape %s: texture %s: %v; using default", s.Name, s.Texture, err)
		}
		return tex, ""
	default:
		logger.Named("asset").Debug("shape has no diffuse texture, using default", zap.String("shape", s.Name))
		return l.cache.Default(), ""
	}
}
