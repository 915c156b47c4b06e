// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package moon

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/moon/internal/gpu"
)

// VertexLayout tags the vertex format a material's pipeline reads.
type VertexLayout uint8

// Vertex layouts.
const (
	VertexLayoutUnknown VertexLayout = iota

	// VertexLayoutPositionColor is float3 POSITION at 0 and float4 COLOR at
	// 12, 28 bytes per vertex.
	VertexLayoutPositionColor

	// VertexLayoutPositionTexcoord is float3 POSITION at 0 and float2
	// TEXCOORD at 12, 20 bytes per vertex.
	VertexLayoutPositionTexcoord
)

// String returns the layout name.
func (l VertexLayout) String() string {
	switch l {
	case VertexLayoutPositionColor:
		return "PositionColor"
	case VertexLayoutPositionTexcoord:
		return "PositionTexcoord"
	case VertexLayoutUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("VertexLayout(%d)", uint8(l))
	}
}

// Stride returns the size of one vertex in bytes, or 0 for an unknown layout.
func (l VertexLayout) Stride() uint32 {
	b, ok := l.buffer()
	if !ok {
		return 0
	}
	return uint32(b.ArrayStride)
}

func (l VertexLayout) buffer() (gputypes.VertexBufferLayout, bool) {
	switch l {
	case VertexLayoutPositionColor:
		return gputypes.VertexBufferLayout{
			ArrayStride: 28,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
			},
		}, true
	case VertexLayoutPositionTexcoord:
		return gputypes.VertexBufferLayout{
			ArrayStride: 20,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			},
		}, true
	default:
		return gputypes.VertexBufferLayout{}, false
	}
}

// compiledPipeline is everything CompileMaterial creates. It is immutable
// once published.
type compiledPipeline struct {
	pipeline hal.RenderPipeline
	vs       hal.ShaderModule
	ps       hal.ShaderModule
	group    hal.BindGroup
	view     hal.TextureView
}

func (p *compiledPipeline) release(device hal.Device) {
	if p.group != nil {
		device.DestroyBindGroup(p.group)
	}
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
	}
	if p.vs != nil {
		device.DestroyShaderModule(p.vs)
	}
	if p.ps != nil {
		device.DestroyShaderModule(p.ps)
	}
}

// Material pairs shaders, textures and a vertex layout. It is mutable until
// compiled; compiling produces the pipeline object DrawMesh binds.
type Material struct {
	ctx      *Context
	name     string
	layout   VertexLayout
	vs       *Shader
	ps       *Shader
	textures map[string]*Texture

	pipeline atomic.Pointer[compiledPipeline]
}

// CreateMaterial returns an uncompiled material. The name labels the
// pipeline.
func (c *Context) CreateMaterial(name string, layout VertexLayout) *Material {
	return &Material{
		ctx:      c,
		name:     name,
		layout:   layout,
		textures: make(map[string]*Texture),
	}
}

// Name returns the material name.
func (m *Material) Name() string { return m.name }

// Layout returns the vertex layout tag.
func (m *Material) Layout() VertexLayout { return m.layout }

// Compiled reports whether the material has a pipeline.
func (m *Material) Compiled() bool { return m != nil && m.pipeline.Load() != nil }

// Texture returns the texture bound to sampler, or nil.
func (m *Material) Texture(sampler string) *Texture { return m.textures[sampler] }

// SetLayout changes the vertex layout tag.
func (m *Material) SetLayout(layout VertexLayout) error {
	if m.Compiled() {
		return ErrMaterialCompiled
	}
	m.layout = layout
	return nil
}

// SetVertexShader attaches the vertex stage.
func (m *Material) SetVertexShader(s *Shader) error {
	return m.setShader(&m.vs, s, StageVertex)
}

// SetPixelShader attaches the pixel stage.
func (m *Material) SetPixelShader(s *Shader) error {
	return m.setShader(&m.ps, s, StagePixel)
}

// SetShader attaches s to the slot of its own stage.
func (m *Material) SetShader(s *Shader) error {
	if s == nil {
		return fmt.Errorf("%w: nil shader", ErrShaderStage)
	}
	if s.Stage() == StageVertex {
		return m.SetVertexShader(s)
	}
	return m.SetPixelShader(s)
}

func (m *Material) setShader(slot **Shader, s *Shader, want ShaderStage) error {
	if m.Compiled() {
		return ErrMaterialCompiled
	}
	if s != nil && s.Stage() != want {
		return fmt.Errorf("%w: %s shader %q in %s slot", ErrShaderStage, s.Stage(), s.Name(), want)
	}
	*slot = s
	return nil
}

// SetTexture binds t to the named sampler. A nil texture unbinds it.
func (m *Material) SetTexture(sampler string, t *Texture) error {
	if m.Compiled() {
		return ErrMaterialCompiled
	}
	if t == nil {
		delete(m.textures, sampler)
		return nil
	}
	m.textures[sampler] = t
	return nil
}

// Destroy releases the pipeline once no submitted frame uses it. The
// material can then be modified and compiled again.
func (m *Material) Destroy() {
	if m == nil {
		return
	}
	old := m.pipeline.Swap(nil)
	if old == nil || m.ctx.gpu == nil {
		return
	}
	device := m.ctx.gpu.Device
	m.ctx.retireLater(func() { old.release(device) })
}

// textureView returns the view of the first bound texture by sampler name.
func (m *Material) textureView() (hal.TextureView, string) {
	if len(m.textures) == 0 {
		return nil, ""
	}
	names := make([]string, 0, len(m.textures))
	for name := range m.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	return m.textures[names[0]].view(), names[0]
}

// CompileMaterial builds the material's pipeline: the root signature, the
// shader modules, the vertex layout and the fixed-function state. A
// missing stage yields a partially specified pipeline and a warning.
// Compiling a compiled material replaces its pipeline; the old one is
// released after the frames using it have completed.
func (c *Context) CompileMaterial(m *Material) error {
	if !c.IsInitialized() {
		return c.violation(ErrNotInitialized, "op", "CompileMaterial")
	}
	if m == nil {
		return nil
	}
	buffer, ok := m.layout.buffer()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownVertexLayout, m.layout)
		Logger().Error("moon: compile material", "material", m.name, "err", err)
		return err
	}
	if len(m.textures) > c.srv.Cap() {
		err := fmt.Errorf("%w: %d > %d", ErrTooManyTextures, len(m.textures), c.srv.Cap())
		Logger().Error("moon: compile material", "material", m.name, "err", err)
		return err
	}
	if m.vs == nil || m.ps == nil {
		Logger().Warn("moon: material is missing a shader stage, pipeline is partially specified",
			"material", m.name,
			"vertex", m.vs != nil,
			"pixel", m.ps != nil,
		)
	}

	device := c.gpu.Device
	p := &compiledPipeline{}
	fail := func(err error) error {
		p.release(device)
		err = fmt.Errorf("%w: %s: %w", ErrPipelineCreation, m.name, err)
		Logger().Error("moon: compile material", "material", m.name, "err", err)
		return err
	}

	layout := c.root
	if view, sampler := m.textureView(); view != nil {
		if err := c.ensureTextureRoot(); err != nil {
			return fail(err)
		}
		group, err := gpu.CreateTextureGroup(device, m.name+"_"+sampler, c.textureBGL, view, c.sampler)
		if err != nil {
			return fail(err)
		}
		p.group, p.view = group, view
		layout = c.textureRoot
	} else if len(m.textures) > 0 {
		return fail(fmt.Errorf("%w: texture for sampler %q", ErrDestroyed, sampler))
	}

	spirv := gpu.PrefersSPIRV(c.gpu.Info.Backend)
	cfg := gpu.PipelineConfig{
		Label:   m.name,
		Layout:  layout,
		Buffers: []gputypes.VertexBufferLayout{buffer},
		Format:  c.swap.Format(),
	}
	var err error
	if m.vs != nil {
		if p.vs, err = gpu.CreateShaderModule(device, m.vs.Name(), m.vs.Source(), m.vs.SPIRV(), spirv); err != nil {
			return fail(err)
		}
		cfg.VertexModule, cfg.VertexEntry = p.vs, m.vs.Entry()
	}
	if m.ps != nil {
		if p.ps, err = gpu.CreateShaderModule(device, m.ps.Name(), m.ps.Source(), m.ps.SPIRV(), spirv); err != nil {
			return fail(err)
		}
		cfg.FragmentModule, cfg.FragmentEntry = p.ps, m.ps.Entry()
	}
	if p.pipeline, err = gpu.CreateRenderPipeline(device, cfg); err != nil {
		return fail(err)
	}

	if old := m.pipeline.Swap(p); old != nil {
		c.retireLater(func() { old.release(device) })
	}
	Logger().Debug("moon: material compiled",
		"material", m.name,
		"layout", m.layout.String(),
		"textured", p.group != nil,
		"spirv", spirv,
	)
	return nil
}

// ensureTextureRoot creates the texture bind group layout, the root
// signature that uses it and the shared sampler.
func (c *Context) ensureTextureRoot() error {
	device := c.gpu.Device
	if c.textureBGL == nil {
		bgl, err := gpu.CreateTextureGroupLayout(device, "moon_texture")
		if err != nil {
			return err
		}
		c.textureBGL = bgl
	}
	if c.textureRoot == nil {
		root, err := gpu.CreateRootSignature(device, "moon_texture_root", c.textureBGL)
		if err != nil {
			return err
		}
		c.textureRoot = root
	}
	if c.sampler == nil {
		sampler, err := gpu.CreateLinearSampler(device, "moon_linear")
		if err != nil {
			return err
		}
		c.sampler = sampler
	}
	return nil
}
