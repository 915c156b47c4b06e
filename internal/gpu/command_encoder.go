package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// RecorderState is the state of the command list.
type RecorderState uint8

// Recorder states.
//
//	Closed    -> Reset()     -> Recording
//	Recording -> BeginPass() -> InPass
//	InPass    -> EndPass()   -> Recording
//	Recording -> Close()     -> Closed
const (
	RecorderClosed RecorderState = iota
	RecorderRecording
	RecorderInPass
)

// String returns the state name.
func (s RecorderState) String() string {
	switch s {
	case RecorderClosed:
		return "closed"
	case RecorderRecording:
		return "recording"
	case RecorderInPass:
		return "in-pass"
	default:
		return fmt.Sprintf("RecorderState(%d)", uint8(s))
	}
}

// Recorder is the single command allocator/list pair the render context
// reuses every frame. The list is closed at rest; Reset opens it.
//
// Recorder is NOT safe for concurrent use.
type Recorder struct {
	device  hal.Device
	encoder hal.CommandEncoder
	label   string
	state   RecorderState
	pass    hal.RenderPassEncoder
}

// NewRecorder creates the command allocator. The list starts closed.
func NewRecorder(device hal.Device, label string) (*Recorder, error) {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	return &Recorder{device: device, encoder: encoder, label: label}, nil
}

// State returns the current state.
func (r *Recorder) State() RecorderState { return r.state }

// Encoder returns the underlying HAL encoder.
func (r *Recorder) Encoder() hal.CommandEncoder { return r.encoder }

// Pass returns the open render pass, or nil.
func (r *Recorder) Pass() hal.RenderPassEncoder { return r.pass }

// Reset opens the command list for recording.
func (r *Recorder) Reset(label string) error {
	if r.state != RecorderClosed {
		return fmt.Errorf("%w: %s", ErrAlreadyRecording, r.state)
	}
	if err := r.encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	r.state = RecorderRecording
	return nil
}

// BeginPass begins a render pass on the open list.
func (r *Recorder) BeginPass(desc *hal.RenderPassDescriptor) (hal.RenderPassEncoder, error) {
	if r.state != RecorderRecording {
		return nil, fmt.Errorf("%w: begin pass while %s", ErrNotRecording, r.state)
	}
	r.pass = r.encoder.BeginRenderPass(desc)
	r.state = RecorderInPass
	return r.pass, nil
}

// EndPass ends the open render pass.
func (r *Recorder) EndPass() error {
	if r.state != RecorderInPass {
		return fmt.Errorf("%w: end pass while %s", ErrNotRecording, r.state)
	}
	r.pass.End()
	r.pass = nil
	r.state = RecorderRecording
	return nil
}

// Close finishes recording and returns the command buffer. The caller frees
// it with Free once the GPU is done with it.
func (r *Recorder) Close() (hal.CommandBuffer, error) {
	if r.state == RecorderInPass {
		if err := r.EndPass(); err != nil {
			return nil, err
		}
	}
	if r.state != RecorderRecording {
		return nil, fmt.Errorf("%w: close while %s", ErrNotRecording, r.state)
	}
	r.state = RecorderClosed
	cmd, err := r.encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmd, nil
}

// Free returns a submitted command buffer to the device.
func (r *Recorder) Free(cmd hal.CommandBuffer) {
	if cmd != nil {
		r.device.FreeCommandBuffer(cmd)
	}
}

// Discard abandons whatever is being recorded and closes the list.
func (r *Recorder) Discard() {
	if r.state == RecorderInPass {
		r.pass.End()
		r.pass = nil
	}
	if r.state != RecorderClosed {
		r.encoder.DiscardEncoding()
	}
	r.state = RecorderClosed
}

// Destroy releases the command allocator.
func (r *Recorder) Destroy() {
	r.Discard()
	if r.encoder != nil {
		r.encoder.Destroy()
		r.encoder = nil
	}
}
