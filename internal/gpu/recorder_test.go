package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestRecorderLifecycle(t *testing.T) {
	device, _ := openNoopDevice(t)
	rec, err := NewRecorder(device, "frame")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	defer rec.Destroy()

	if rec.State() != RecorderClosed {
		t.Fatalf("initial state = %s, want closed", rec.State())
	}
	if _, err := rec.BeginPass(&hal.RenderPassDescriptor{}); !errors.Is(err, ErrNotRecording) {
		t.Errorf("BeginPass on closed list = %v, want ErrNotRecording", err)
	}
	if err := rec.Reset("frame 1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := rec.Reset("frame 1"); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Reset = %v, want ErrAlreadyRecording", err)
	}
	pass, err := rec.BeginPass(&hal.RenderPassDescriptor{})
	if err != nil || pass == nil {
		t.Fatalf("BeginPass = %v, %v", pass, err)
	}
	if rec.State() != RecorderInPass || rec.Pass() != pass {
		t.Errorf("state = %s after BeginPass", rec.State())
	}

	// Close ends the open pass.
	cmd, err := rec.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	rec.Free(cmd)
	if rec.State() != RecorderClosed || rec.Pass() != nil {
		t.Errorf("state = %s after Close", rec.State())
	}
	if _, err := rec.Close(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Close on closed list = %v, want ErrNotRecording", err)
	}
}

func TestRecorderDiscard(t *testing.T) {
	device, _ := openNoopDevice(t)
	rec, err := NewRecorder(device, "frame")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := rec.Reset("frame"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := rec.BeginPass(&hal.RenderPassDescriptor{}); err != nil {
		t.Fatalf("BeginPass: %v", err)
	}
	rec.Discard()
	if rec.State() != RecorderClosed {
		t.Errorf("state = %s after Discard", rec.State())
	}
	if err := rec.Reset("again"); err != nil {
		t.Errorf("Reset after Discard: %v", err)
	}
}

func TestRecorderStateString(t *testing.T) {
	tests := []struct {
		s    RecorderState
		want string
	}{
		{RecorderClosed, "closed"},
		{RecorderRecording, "recording"},
		{RecorderInPass, "in-pass"},
		{RecorderState(9), "RecorderState(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPipelineDescriptor(t *testing.T) {
	device, _ := openNoopDevice(t)
	vs, err := CreateShaderModule(device, "vs", "@vertex fn vs_main() {}", nil, false)
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	fs, err := CreateShaderModule(device, "fs", "", []uint32{0x07230203}, true)
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	buffers := []gputypes.VertexBufferLayout{{ArrayStride: 28}}

	desc := PipelineDescriptor(PipelineConfig{
		Label:          "triangle",
		VertexModule:   vs,
		VertexEntry:    "VSMain",
		FragmentModule: fs,
		FragmentEntry:  "PSMain",
		Buffers:        buffers,
		Format:         SwapChainFormat,
	})
	if desc.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %v, want TriangleList", desc.Primitive.Topology)
	}
	if desc.DepthStencil != nil {
		t.Error("depth/stencil should be disabled")
	}
	if desc.Multisample.Count != 1 {
		t.Errorf("sample count = %d, want 1", desc.Multisample.Count)
	}
	if desc.Fragment == nil || len(desc.Fragment.Targets) != 1 {
		t.Fatal("want exactly one colour target")
	}
	if desc.Fragment.Targets[0].Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("target format = %v", desc.Fragment.Targets[0].Format)
	}
	if desc.Vertex.EntryPoint != "VSMain" || desc.Fragment.EntryPoint != "PSMain" {
		t.Errorf("entry points = %q/%q", desc.Vertex.EntryPoint, desc.Fragment.EntryPoint)
	}

	partial := PipelineDescriptor(PipelineConfig{VertexModule: vs, VertexEntry: "VSMain"})
	if partial.Fragment != nil {
		t.Error("fragment state set without a fragment module")
	}

	layout, err := CreateRootSignature(device, "empty")
	if err != nil {
		t.Fatalf("CreateRootSignature: %v", err)
	}
	if _, err := CreateRenderPipeline(device, PipelineConfig{
		Label: "triangle", Layout: layout,
		VertexModule: vs, VertexEntry: "VSMain",
		FragmentModule: fs, FragmentEntry: "PSMain",
		Buffers: buffers, Format: SwapChainFormat,
	}); err != nil {
		t.Fatalf("CreateRenderPipeline: %v", err)
	}
}

func TestPrefersSPIRV(t *testing.T) {
	if !PrefersSPIRV(gputypes.BackendVulkan) {
		t.Error("vulkan should take SPIR-V")
	}
	if PrefersSPIRV(gputypes.BackendDX12) || PrefersSPIRV(gputypes.BackendMetal) {
		t.Error("dx12 and metal translate WGSL")
	}
}

func TestTextureGroup(t *testing.T) {
	device, _ := openNoopDevice(t)
	layout, err := CreateTextureGroupLayout(device, "texture")
	if err != nil {
		t.Fatalf("CreateTextureGroupLayout: %v", err)
	}
	sampler, err := CreateLinearSampler(device, "linear")
	if err != nil {
		t.Fatalf("CreateLinearSampler: %v", err)
	}
	tex, err := CreateTexture(device, "t", 1, 1)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if _, err := CreateTextureGroup(device, "texture", layout, tex.View, sampler); err != nil {
		t.Fatalf("CreateTextureGroup: %v", err)
	}
}
