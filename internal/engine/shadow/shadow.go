// Package shadow renders scene depth from one light into a shadow map.
package shadow

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
	"github.com/Faultbox/museum3d/internal/engine/model"
	"github.com/Faultbox/museum3d/internal/engine/shader"
)

// Pass owns the depth target and depth program for the shadow pass.
// The depth texture always matches the viewport size.
type Pass struct {
	target  *gpu.DepthTarget
	program *shader.Program
	cfg     Config
	matrix  mgl32.Mat4
}

// NewPass allocates a width x height depth target. The pass takes ownership
// of program. An invalid program is accepted; the pass then only clears depth.
func NewPass(dev gpu.Device, program *shader.Program, width, height int32, cfg Config) (*Pass, error) {
	target, err := gpu.NewDepthTarget(dev, width, height)
	if err != nil {
		return nil, fmt.Errorf("shadow pass: %w", err)
	}
	return &Pass{
		target:  target,
		program: program,
		cfg:     cfg,
		matrix:  mgl32.Ident4(),
	}, nil
}

// Render draws every instance's depth as seen from lightPos and returns the
// light-space matrix used, which the forward pass samples with.
func (p *Pass) Render(lightPos mgl32.Vec3, instances []*model.Instance) mgl32.Mat4 {
	p.matrix = LightSpaceMatrix(lightPos, p.cfg)

	p.target.Begin()
	defer p.target.End()

	if !p.program.Use() {
		return p.matrix
	}
	p.program.SetMat4("lightSpaceMatrix", p.matrix)
	for _, inst := range instances {
		p.program.SetMat4("model", inst.ModelMatrix())
		inst.DrawDepth()
	}
	return p.matrix
}

// Matrix returns the light-space matrix of the last Render.
func (p *Pass) Matrix() mgl32.Mat4 { return p.matrix }

// DepthTexture returns the shadow map texture handle.
func (p *Pass) DepthTexture() uint32 { return p.target.TextureID() }

// Size returns the shadow map dimensions.
func (p *Pass) Size() (width, height int32) { return p.target.Size() }

// Resize matches the shadow map to a new viewport.
func (p *Pass) Resize(width, height int32) error {
	return p.target.Resize(width, height)
}

// Release frees the depth target and program.
func (p *Pass) Release() {
	p.target.Release()
	p.program.Release()
}
