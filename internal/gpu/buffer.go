package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// bufferAlignment is the size granularity of mapped buffers.
const bufferAlignment = 4

// alignUp rounds n up to a multiple of align (a power of two).
func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// CreateUploadBuffer allocates a CPU-writable buffer and fills it with data
// through a map/copy/unmap sequence. The buffer is usable by the GPU with
// the given usage directly; no GPU-local copy is made.
func CreateUploadBuffer(device hal.Device, label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: upload buffer %q is empty", ErrInvalidSize, label)
	}
	size := alignUp(uint64(len(data)), bufferAlignment)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageMapWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", label, err)
	}
	if err := WriteMapped(device, buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, err
	}
	slogger().Debug("gpu: upload buffer created", "label", label, "size", size)
	return buf, nil
}

// WriteMapped maps buf at offset, copies data and unmaps.
func WriteMapped(device hal.Device, buf hal.Buffer, offset uint64, data []byte) error {
	size := uint64(len(data))
	mapping, err := device.MapBuffer(buf, offset, size)
	if err != nil {
		return fmt.Errorf("map buffer: %w", err)
	}
	copy(unsafe.Slice((*byte)(mapping.Ptr), size), data)
	if err := device.UnmapBuffer(buf); err != nil {
		return fmt.Errorf("unmap buffer: %w", err)
	}
	return nil
}
