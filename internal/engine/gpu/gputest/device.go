// Package gputest provides a recording gpu.Device for tests that run
// without a GL context.
package gputest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

// FailMarker makes CompileProgram fail when it appears in either source.
const FailMarker = "FAIL"

// Draw is one recorded DrawMesh call with the state it saw.
type Draw struct {
	Program       uint32
	Mesh          gpu.MeshHandle
	Texture       uint32 // bound to gpu.UnitDiffuse
	ShadowTexture uint32 // bound to gpu.UnitShadow
	DepthPass     bool
	Model         mgl32.Mat4
}

// Frame is one recorded BeginFrame call.
type Frame struct {
	Width, Height int32
	Clear         mgl32.Vec4
}

type uniformKey struct {
	program uint32
	name    string
}

// Device records every call made through gpu.Device.
type Device struct {
	// MissingUniforms lists names UniformLocation reports as inactive.
	MissingUniforms map[string]bool
	// FailTextures makes CreateTexture return an error.
	FailTextures bool
	// FailResize makes ResizeDepthTarget return an error.
	FailResize bool
	// Screen is what ReadPixels returns when its size matches the request.
	Screen []byte

	Textures        map[uint32]*gpu.Image
	DeletedTextures []uint32
	Meshes          map[uint32]gpu.MeshHandle
	DeletedMeshes   []gpu.MeshHandle
	Programs        map[uint32]bool
	DeletedPrograms []uint32
	Targets         map[uint32]gpu.DepthTargetHandle
	DeletedTargets  []gpu.DepthTargetHandle

	Draws  []Draw
	Frames []Frame
	Calls  []string

	next     uint32
	nextLoc  int32
	current  uint32
	inDepth  bool
	bound    map[uint32]uint32
	locs     map[uniformKey]int32
	locNames map[int32]uniformKey
	values   map[uniformKey]any
}

var _ gpu.Device = (*Device)(nil)

// New returns an empty recording device.
func New() *Device {
	return &Device{
		MissingUniforms: make(map[string]bool),
		Textures:        make(map[uint32]*gpu.Image),
		Meshes:          make(map[uint32]gpu.MeshHandle),
		Programs:        make(map[uint32]bool),
		Targets:         make(map[uint32]gpu.DepthTargetHandle),
		bound:           make(map[uint32]uint32),
		locs:            make(map[uniformKey]int32),
		locNames:        make(map[int32]uniformKey),
		values:          make(map[uniformKey]any),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

// ResetTrace clears recorded draws, frames and calls but keeps live resources and uniform values.
func (d *Device) ResetTrace() {
	d.Draws = nil
	d.Frames = nil
	d.Calls = nil
}

func (d *Device) CreateTexture(img *gpu.Image) (uint32, error) {
	if d.FailTextures {
		return 0, errors.New("texture upload rejected")
	}
	id := d.handle()
	d.Textures[id] = img
	d.record("CreateTexture %d", id)
	return id, nil
}

func (d *Device) DeleteTexture(id uint32) {
	delete(d.Textures, id)
	d.DeletedTextures = append(d.DeletedTextures, id)
	d.record("DeleteTexture %d", id)
}

func (d *Device) BindTexture(unit, id uint32) {
	d.bound[unit] = id
	d.record("BindTexture %d %d", unit, id)
}

func (d *Device) CreateMesh(vertices []gpu.Vertex, indices []uint32) (gpu.MeshHandle, error) {
	h := gpu.MeshHandle{VAO: d.handle(), VBO: d.handle(), EBO: d.handle(), IndexCount: int32(len(indices))}
	d.Meshes[h.VAO] = h
	d.record("CreateMesh %d", h.VAO)
	return h, nil
}

func (d *Device) DeleteMesh(h gpu.MeshHandle) {
	delete(d.Meshes, h.VAO)
	d.DeletedMeshes = append(d.DeletedMeshes, h)
	d.record("DeleteMesh %d", h.VAO)
}

func (d *Device) DrawMesh(h gpu.MeshHandle) {
	draw := Draw{
		Program:       d.current,
		Mesh:          h,
		Texture:       d.bound[gpu.UnitDiffuse],
		ShadowTexture: d.bound[gpu.UnitShadow],
		DepthPass:     d.inDepth,
	}
	if m, ok := d.values[uniformKey{d.current, "model"}].(mgl32.Mat4); ok {
		draw.Model = m
	}
	d.Draws = append(d.Draws, draw)
	d.record("DrawMesh %d", h.VAO)
}

func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	if strings.Contains(vertexSrc, FailMarker) {
		return 0, errors.New("vertex shader: 0:1(1): error: syntax error")
	}
	if strings.Contains(fragmentSrc, FailMarker) {
		return 0, errors.New("fragment shader: 0:1(1): error: syntax error")
	}
	id := d.handle()
	d.Programs[id] = true
	d.record("CompileProgram %d", id)
	return id, nil
}

func (d *Device) DeleteProgram(id uint32) {
	delete(d.Programs, id)
	d.DeletedPrograms = append(d.DeletedPrograms, id)
	d.record("DeleteProgram %d", id)
}

func (d *Device) UseProgram(id uint32) {
	d.current = id
	d.record("UseProgram %d", id)
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	if !d.Programs[program] || d.MissingUniforms[name] {
		return -1
	}
	key := uniformKey{program, name}
	if loc, ok := d.locs[key]; ok {
		return loc
	}
	loc := d.nextLoc
	d.nextLoc++
	d.locs[key] = loc
	d.locNames[loc] = key
	return loc
}

func (d *Device) set(loc int32, v any) {
	key, ok := d.locNames[loc]
	if !ok {
		return
	}
	d.values[key] = v
	d.record("SetUniform %s", key.name)
}

func (d *Device) SetUniformInt(loc int32, v int32) { d.set(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32) { d.set(loc, v) }
func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) { d.set(loc, v) }
func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) { d.set(loc, m) }

func (d *Device) CreateDepthTarget(width, height int32) (gpu.DepthTargetHandle, error) {
	h := gpu.DepthTargetHandle{FBO: d.handle(), Texture: d.handle(), Width: width, Height: height}
	d.Targets[h.FBO] = h
	d.record("CreateDepthTarget %dx%d", width, height)
	return h, nil
}

func (d *Device) ResizeDepthTarget(h gpu.DepthTargetHandle, width, height int32) (gpu.DepthTargetHandle, error) {
	if d.FailResize {
		return h, errors.New("gputest: depth target resize failed")
	}
	h.Width, h.Height = width, height
	d.Targets[h.FBO] = h
	d.record("ResizeDepthTarget %dx%d", width, height)
	return h, nil
}

func (d *Device) DeleteDepthTarget(h gpu.DepthTargetHandle) {
	delete(d.Targets, h.FBO)
	d.DeletedTargets = append(d.DeletedTargets, h)
	d.record("DeleteDepthTarget %d", h.FBO)
}

func (d *Device) BeginDepthPass(h gpu.DepthTargetHandle) {
	d.inDepth = true
	d.record("BeginDepthPass %dx%d", h.Width, h.Height)
}

func (d *Device) EndDepthPass() {
	d.inDepth = false
	d.record("EndDepthPass")
}

func (d *Device) BeginFrame(width, height int32, clear mgl32.Vec4) {
	d.Frames = append(d.Frames, Frame{Width: width, Height: height, Clear: clear})
	d.record("BeginFrame %dx%d", width, height)
}

func (d *Device) ReadPixels(width, height int32) []byte {
	d.record("ReadPixels %dx%d", width, height)
	n := int(width) * int(height) * 4
	if len(d.Screen) == n {
		return append([]byte(nil), d.Screen...)
	}
	return make([]byte, n)
}

// Uniform returns the last value written to a program's uniform.
func (d *Device) Uniform(program uint32, name string) (any, bool) {
	v, ok := d.values[uniformKey{program, name}]
	return v, ok
}

// Vec3 returns the last vec3 written to a program's uniform, or the zero vector.
func (d *Device) Vec3(program uint32, name string) mgl32.Vec3 {
	v, _ := d.values[uniformKey{program, name}].(mgl32.Vec3)
	return v
}

// Float returns the last float written to a program's uniform.
func (d *Device) Float(program uint32, name string) float32 {
	v, _ := d.values[uniformKey{program, name}].(float32)
	return v
}

// Int returns the last int written to a program's uniform.
func (d *Device) Int(program uint32, name string) int32 {
	v, _ := d.values[uniformKey{program, name}].(int32)
	return v
}

// Mat4 returns the last matrix written to a program's uniform.
func (d *Device) Mat4(program uint32, name string) mgl32.Mat4 {
	v, _ := d.values[uniformKey{program, name}].(mgl32.Mat4)
	return v
}

// CallIndex returns the position of the first recorded call with the given prefix, or -1.
func (d *Device) CallIndex(prefix string) int {
	for i, c := range d.Calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}
