// Package shader loads GLSL programs from disk and sets uniforms by name.
package shader

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/logger"
)

// Program is a linked vertex+fragment program.
//
// A program that failed to load or compile stays usable as a value: Use
// reports false and every setter is a no-op, so the pass drawing with it
// renders nothing instead of failing.
type Program struct {
	dev    gpu.Device
	name   string
	id     uint32
	err    error
	locs   map[string]int32
	warned map[string]bool
}

// Load reads both stage sources from disk and builds the program.
// Failures are logged and kept in Err.
func Load(dev gpu.Device, vertexPath, fragmentPath string) *Program {
	name := fmt.Sprintf("%s+%s", vertexPath, fragmentPath)

	vs, err := os.ReadFile(vertexPath)
	if err != nil {
		return failed(dev, name, fmt.Errorf("reading vertex shader: %w", err))
	}
	fs, err := os.ReadFile(fragmentPath)
	if err != nil {
		return failed(dev, name, fmt.Errorf("reading fragment shader: %w", err))
	}
	return FromSource(dev, name, string(vs), string(fs))
}

// FromSource compiles and links the given stage sources.
func FromSource(dev gpu.Device, name, vertexSrc, fragmentSrc string) *Program {
	id, err := dev.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return failed(dev, name, fmt.Errorf("compiling %s: %w", name, err))
	}
	logger.Named("shader").Debug("program linked", zap.String("name", name), zap.Uint32("id", id))
	return &Program{
		dev:    dev,
		name:   name,
		id:     id,
		locs:   make(map[string]int32),
		warned: make(map[string]bool),
	}
}

func failed(dev gpu.Device, name string, err error) *Program {
	logger.Named("shader").Error("shader program unusable", zap.String("name", name), zap.Error(err))
	return &Program{dev: dev, name: name, err: err}
}

// Valid reports whether the program compiled and linked.
func (p *Program) Valid() bool { return p.id != 0 }

// Err returns the load, compile or link error, if any.
func (p *Program) Err() error { return p.err }

// ID returns the GPU program handle, 0 when invalid or released.
func (p *Program) ID() uint32 { return p.id }

// Name identifies the program in logs.
func (p *Program) Name() string { return p.name }

// Use binds the program. It returns false for an invalid program.
func (p *Program) Use() bool {
	if p.id == 0 {
		return false
	}
	p.dev.UseProgram(p.id)
	return true
}

// location looks up and caches a uniform location. A miss is logged once per name.
func (p *Program) location(name string) (int32, bool) {
	if p.id == 0 {
		return -1, false
	}
	loc, ok := p.locs[name]
	if !ok {
		loc = p.dev.UniformLocation(p.id, name)
		p.locs[name] = loc
	}
	if loc < 0 {
		if !p.warned[name] {
			p.warned[name] = true
			logger.Named("shader").Warn("uniform not found",
				zap.String("program", p.name), zap.String("uniform", name))
		}
		return -1, false
	}
	return loc, true
}

// SetInt sets an int (or sampler) uniform.
func (p *Program) SetInt(name string, v int32) {
	if loc, ok := p.location(name); ok {
		p.dev.SetUniformInt(loc, v)
	}
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	if loc, ok := p.location(name); ok {
		p.dev.SetUniformFloat(loc, v)
	}
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc, ok := p.location(name); ok {
		p.dev.SetUniformVec3(loc, v)
	}
}

// SetMat4 sets a mat4 uniform.
func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc, ok := p.location(name); ok {
		p.dev.SetUniformMat4(loc, m)
	}
}

// Release deletes the GPU program. Subsequent calls do nothing.
func (p *Program) Release() {
	if p.id == 0 {
		return
	}
	p.dev.DeleteProgram(p.id)
	p.id = 0
}
