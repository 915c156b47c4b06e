package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PipelineConfig is everything a graphics pipeline is compiled from.
type PipelineConfig struct {
	Label  string
	Layout hal.PipelineLayout

	// VertexModule and FragmentModule may be nil; the pipeline is then only
	// partially specified and the driver will most likely reject it.
	VertexModule   hal.ShaderModule
	VertexEntry    string
	FragmentModule hal.ShaderModule
	FragmentEntry  string

	Buffers []gputypes.VertexBufferLayout
	Format  gputypes.TextureFormat
}

// PipelineDescriptor assembles the fixed-function state: default raster
// state, replace blending, no depth/stencil, triangle lists, one colour
// target and single-sample rasterization.
func PipelineDescriptor(cfg PipelineConfig) *hal.RenderPipelineDescriptor {
	desc := &hal.RenderPipelineDescriptor{
		Label:  cfg.Label,
		Layout: cfg.Layout,
		Vertex: hal.VertexState{
			Module:     cfg.VertexModule,
			EntryPoint: cfg.VertexEntry,
			Buffers:    cfg.Buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		DepthStencil: nil,
		Multisample:  gputypes.DefaultMultisampleState(),
	}
	if cfg.FragmentModule != nil {
		blend := gputypes.BlendStateReplace()
		desc.Fragment = &hal.FragmentState{
			Module:     cfg.FragmentModule,
			EntryPoint: cfg.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    cfg.Format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		}
	}
	return desc
}

// CreateRenderPipeline compiles cfg into an immutable pipeline object.
func CreateRenderPipeline(device hal.Device, cfg PipelineConfig) (hal.RenderPipeline, error) {
	pipeline, err := device.CreateRenderPipeline(PipelineDescriptor(cfg))
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", cfg.Label, err)
	}
	slogger().Debug("gpu: render pipeline created",
		"label", cfg.Label,
		"vertex", cfg.VertexEntry,
		"fragment", cfg.FragmentEntry,
		"buffers", len(cfg.Buffers),
	)
	return pipeline, nil
}

// CreateRootSignature creates the pipeline layout. With no groups it is the
// empty root signature: no bindings, vertex input from the input assembler.
func CreateRootSignature(device hal.Device, label string, groups ...hal.BindGroupLayout) (hal.PipelineLayout, error) {
	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", label, err)
	}
	return layout, nil
}

// CreateShaderModule creates a module from the compiled SPIR-V blob when
// useSPIRV is set, otherwise from the WGSL source so the backend can
// translate it with its own naga backend.
func CreateShaderModule(device hal.Device, label, wgsl string, spirv []uint32, useSPIRV bool) (hal.ShaderModule, error) {
	source := hal.ShaderSource{WGSL: wgsl}
	if useSPIRV && len(spirv) > 0 {
		source = hal.ShaderSource{SPIRV: spirv}
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", label, err)
	}
	return module, nil
}

// PrefersSPIRV reports whether the backend consumes SPIR-V blobs. DX12,
// Metal and GL translate WGSL with their own naga backends.
func PrefersSPIRV(variant gputypes.Backend) bool {
	return variant == gputypes.BackendVulkan || variant == gputypes.BackendEmpty
}
