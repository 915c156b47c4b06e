package moon

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/moon/internal/gpu"
)

// VertexBufferView describes a mesh's vertex buffer as the input assembler
// sees it.
type VertexBufferView struct {
	// Buffer holds the vertex data. It is nil once the mesh is destroyed.
	Buffer hal.Buffer

	// Offset is where the vertex data starts in Buffer. Meshes own their
	// buffer, so it is always 0.
	Offset uint64

	// Size is the number of bytes of vertex data.
	Size uint64

	// Stride is Size divided by the vertex count.
	Stride uint32
}

// Mesh is an immutable vertex buffer in CPU-writable memory that the GPU
// reads directly.
type Mesh struct {
	ctx         *Context
	buffer      hal.Buffer
	vertexCount uint32
	view        VertexBufferView
}

// CreateMesh uploads interleaved vertex data. The stride is derived as
// len(data)/vertexCount, which must divide exactly.
func (c *Context) CreateMesh(data []byte, vertexCount int) (*Mesh, error) {
	if !c.IsInitialized() {
		return nil, c.violation(ErrNotInitialized, "op", "CreateMesh")
	}
	if len(data) == 0 || vertexCount <= 0 || len(data)%vertexCount != 0 {
		err := fmt.Errorf("%w: %d bytes for %d vertices", ErrInvalidMesh, len(data), vertexCount)
		Logger().Error("moon: create mesh", "err", err)
		return nil, err
	}
	buf, err := gpu.CreateUploadBuffer(c.gpu.Device, "moon_mesh", gputypes.BufferUsageVertex, data)
	if err != nil {
		Logger().Error("moon: create mesh", "err", err)
		return nil, fmt.Errorf("moon: create mesh: %w", err)
	}
	m := &Mesh{
		ctx:         c,
		buffer:      buf,
		vertexCount: uint32(vertexCount),
		view: VertexBufferView{
			Size:   uint64(len(data)),
			Stride: uint32(len(data) / vertexCount),
		},
	}
	Logger().Debug("moon: mesh created", "vertices", vertexCount, "stride", m.view.Stride)
	return m, nil
}

// CreateMeshFloat32 uploads vertex data given as float32 components.
func (c *Context) CreateMeshFloat32(vertices []float32, vertexCount int) (*Mesh, error) {
	if len(vertices) == 0 {
		return c.CreateMesh(nil, vertexCount)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*4)
	return c.CreateMesh(data, vertexCount)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return int(m.vertexCount) }

// View returns the vertex buffer view.
func (m *Mesh) View() VertexBufferView {
	v := m.view
	v.Buffer = m.buffer
	return v
}

// Destroy releases the buffer once no submitted frame can still read it.
func (m *Mesh) Destroy() {
	if m == nil || m.buffer == nil {
		return
	}
	buf, device := m.buffer, m.ctx.gpu
	m.buffer = nil
	if device == nil {
		return
	}
	d := device.Device
	m.ctx.retireLater(func() { d.DestroyBuffer(buf) })
}
