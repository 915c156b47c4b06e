package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// openNoopDevice opens a device and queue on the noop backend.
func openNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	opened, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		opened.Device.Destroy()
		instance.Destroy()
	})
	return opened.Device, opened.Queue
}

// lagQueue is a queue whose submissions only complete when the device is
// drained, so the CPU can get ahead of the GPU.
type lagQueue struct {
	*noop.Queue
	submitted uint64
	completed uint64
	fail      error
}

func (q *lagQueue) Submit(_ []hal.CommandBuffer) (uint64, error) {
	if q.fail != nil {
		return 0, q.fail
	}
	q.submitted++
	return q.submitted, nil
}

func (q *lagQueue) PollCompleted() uint64 { return q.completed }

// drainDevice completes every submission on its queue when waited on,
// unless stuck is set.
type drainDevice struct {
	*noop.Device
	queue *lagQueue
	stuck bool
	idles int
}

func (d *drainDevice) WaitIdle() error {
	d.idles++
	if !d.stuck {
		d.queue.completed = d.queue.submitted
	}
	return nil
}

func newLaggingDevice() (*drainDevice, *lagQueue) {
	q := &lagQueue{Queue: &noop.Queue{}}
	return &drainDevice{Device: &noop.Device{}, queue: q}, q
}

// countingDevice counts texture view destruction.
type countingDevice struct {
	*noop.Device
	destroyedViews int
}

func (d *countingDevice) DestroyTextureView(hal.TextureView) { d.destroyedViews++ }

// recordingEncoder records the transfer commands StageTexture emits.
type recordingEncoder struct {
	*noop.CommandEncoder
	transitions []hal.TextureUsageTransition
	copies      []hal.BufferTextureCopy
}

func (e *recordingEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	for _, b := range barriers {
		e.transitions = append(e.transitions, b.Usage)
	}
}

func (e *recordingEncoder) CopyBufferToTexture(_ hal.Buffer, _ hal.Texture, regions []hal.BufferTextureCopy) {
	e.copies = append(e.copies, regions...)
}
