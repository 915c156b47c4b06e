package moon

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/moon/internal/gpu"
)

// drawCall is one Draw recorded by a recordingPass.
type drawCall struct {
	vertices, instances, firstVertex, firstInstance uint32
}

// commandLog collects everything recorded on a recordingDevice.
type commandLog struct {
	passes      []*hal.RenderPassDescriptor
	pipelines   []hal.RenderPipeline
	bindGroups  []uint32
	vertexBufs  []hal.Buffer
	draws       []drawCall
	viewports   int
	scissors    int
	ended       int
	copies      int
	submissions int
}

// recordingDevice wraps a noop device and records command encoding.
type recordingDevice struct {
	hal.Device
	log *commandLog

	pipelineDescs    []*hal.RenderPipelineDescriptor
	destroyedPipes   int
	destroyedBuffers int
	textures         int
	failPipeline     error
}

func (d *recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{CommandEncoder: enc, log: d.log}, nil
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelineDescs = append(d.pipelineDescs, desc)
	if d.failPipeline != nil {
		return nil, d.failPipeline
	}
	return &noop.Resource{}, nil
}

func (d *recordingDevice) DestroyRenderPipeline(hal.RenderPipeline) { d.destroyedPipes++ }

func (d *recordingDevice) DestroyBuffer(b hal.Buffer) {
	d.destroyedBuffers++
	d.Device.DestroyBuffer(b)
}

func (d *recordingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.textures++
	return d.Device.CreateTexture(desc)
}

type recordingEncoder struct {
	hal.CommandEncoder
	log *commandLog
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.log.passes = append(e.log.passes, desc)
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), log: e.log}
}

func (e *recordingEncoder) CopyBufferToTexture(src hal.Buffer, dst hal.Texture, regions []hal.BufferTextureCopy) {
	e.log.copies += len(regions)
	e.CommandEncoder.CopyBufferToTexture(src, dst, regions)
}

type recordingPass struct {
	hal.RenderPassEncoder
	log *commandLog
}

func (p *recordingPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.log.pipelines = append(p.log.pipelines, pipeline)
}

func (p *recordingPass) SetBindGroup(index uint32, _ hal.BindGroup, _ []uint32) {
	p.log.bindGroups = append(p.log.bindGroups, index)
}

func (p *recordingPass) SetVertexBuffer(_ uint32, buf hal.Buffer, _ uint64) {
	p.log.vertexBufs = append(p.log.vertexBufs, buf)
}

func (p *recordingPass) SetViewport(_, _, _, _, _, _ float32) { p.log.viewports++ }

func (p *recordingPass) SetScissorRect(_, _, _, _ uint32) { p.log.scissors++ }

func (p *recordingPass) Draw(vertices, instances, firstVertex, firstInstance uint32) {
	p.log.draws = append(p.log.draws, drawCall{vertices, instances, firstVertex, firstInstance})
}

func (p *recordingPass) End() { p.log.ended++ }

// countingQueue counts submissions.
type countingQueue struct {
	hal.Queue
	log *commandLog
}

func (q *countingQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.log.submissions++
	return q.Queue.Submit(cmds)
}

// newTestGPU opens the noop backend and wraps its device and queue in
// recorders.
func newTestGPU(t *testing.T) (*gpu.GPU, *recordingDevice) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	surface, err := instance.CreateSurface(0, 0)
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	exposed := instance.EnumerateAdapters(surface)[0]
	opened, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	log := &commandLog{}
	device := &recordingDevice{Device: opened.Device, log: log}
	return &gpu.GPU{
		Backend:  noop.API{},
		Instance: instance,
		Surface:  surface,
		Adapter:  exposed.Adapter,
		Info:     exposed.Info,
		Caps:     exposed.Capabilities,
		Device:   device,
		Queue:    &countingQueue{Queue: opened.Queue, log: log},
	}, device
}

// newTestContext returns an initialized 640x480 context on the recording
// noop device. It is destroyed when the test ends.
func newTestContext(t *testing.T, opts ...ContextOption) (*Context, *recordingDevice) {
	t.Helper()
	g, device := newTestGPU(t)
	ctx, err := NewContext(WindowHandle{}, 640, 480, append(opts, withGPU(g))...)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return ctx, device
}

// triangleVertices is the position/colour triangle the demo draws.
var triangleVertices = []float32{
	0.0, 0.25, 0.0, 1.0, 0.0, 0.0, 1.0,
	0.25, -0.25, 0.0, 0.0, 1.0, 0.0, 1.0,
	-0.25, -0.25, 0.0, 0.0, 0.0, 1.0, 1.0,
}

// newBasicMaterial compiles the built-in position/colour shaders.
func newBasicMaterial(t *testing.T, ctx *Context) *Material {
	t.Helper()
	m := ctx.CreateMaterial("basic", VertexLayoutPositionColor)
	attachShaders(t, ctx, m, BasicShaderSource())
	if err := ctx.CompileMaterial(m); err != nil {
		t.Fatalf("CompileMaterial: %v", err)
	}
	return m
}

func attachShaders(t *testing.T, ctx *Context, m *Material, source string) {
	t.Helper()
	vs, err := ctx.CompileShader(m.Name()+"_vs", source, "VSMain", StageVertex)
	if err != nil {
		t.Fatalf("CompileShader(VSMain): %v", err)
	}
	ps, err := ctx.CompileShader(m.Name()+"_ps", source, "PSMain", StagePixel)
	if err != nil {
		t.Fatalf("CompileShader(PSMain): %v", err)
	}
	if err := m.SetVertexShader(vs); err != nil {
		t.Fatal(err)
	}
	if err := m.SetPixelShader(ps); err != nil {
		t.Fatal(err)
	}
}

// mustPanicWith runs fn and checks that it panics with target.
func mustPanicWith(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Errorf("panic = %v, want %v", r, target)
		}
	}()
	fn()
}
