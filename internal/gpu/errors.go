package gpu

import "errors"

var (
	// ErrNoBackend is returned when no HAL backend is registered under the
	// requested name, or none is registered at all.
	ErrNoBackend = errors.New("gpu: no HAL backend available")

	// ErrNoAdapter is returned when no suitable adapter could open a device.
	ErrNoAdapter = errors.New("gpu: no suitable adapter")

	// ErrSyncIncomplete is returned when the queue still reports pending
	// work after a blocking wait.
	ErrSyncIncomplete = errors.New("gpu: queue did not reach the signaled value")

	// ErrHeapFull is returned when a descriptor heap has no free slot.
	ErrHeapFull = errors.New("gpu: descriptor heap is full")

	// ErrHeapSlot is returned for an out-of-range descriptor heap slot.
	ErrHeapSlot = errors.New("gpu: descriptor heap slot out of range")

	// ErrNotRecording is returned when a command is recorded on a closed list.
	ErrNotRecording = errors.New("gpu: command list is closed")

	// ErrAlreadyRecording is returned when an open command list is reset.
	ErrAlreadyRecording = errors.New("gpu: command list is already open")

	// ErrNoBackBuffer is returned when presenting without an acquired buffer.
	ErrNoBackBuffer = errors.New("gpu: no back buffer acquired")

	// ErrInvalidSize is returned for zero-sized buffers or images.
	ErrInvalidSize = errors.New("gpu: invalid size")
)
