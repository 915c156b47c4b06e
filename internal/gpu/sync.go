package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// FrameSync implements the wait-for-everything discipline with one fence and
// a monotonically increasing counter.
//
// The HAL tracks completion per submission index, so the queue's own index
// is the real fence value: waits compare PollCompleted against Signaled and
// the retire list is keyed by it. The counter starts at 1 and only counts
// signals. Nothing waits on it; it labels submissions in logs. The fence
// object itself is only handed to surface acquisition.
type FrameSync struct {
	device hal.Device
	queue  hal.Queue
	fence  hal.Fence

	// value is the next counter value to signal.
	value uint64

	// signaled is the submission index the queue reaches once everything
	// submitted so far has executed.
	signaled uint64

	waits int
}

// NewFrameSync creates the fence (initial value 0, first signal value 1).
func NewFrameSync(device hal.Device, queue hal.Queue) (*FrameSync, error) {
	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &FrameSync{
		device: device,
		queue:  queue,
		fence:  fence,
		value:  1,
	}, nil
}

// Fence returns the fence handed to surface acquisition.
func (s *FrameSync) Fence() hal.Fence { return s.fence }

// Value returns the next counter value that will be signaled. It is a label,
// not something to wait on; use Signaled and Completed for that.
func (s *FrameSync) Value() uint64 { return s.value }

// Signaled returns the submission index the last signal waits for.
func (s *FrameSync) Signaled() uint64 { return s.signaled }

// Waits returns how many times the CPU actually blocked.
func (s *FrameSync) Waits() int { return s.waits }

// Submit submits command buffers and signals the fence at the current
// counter value, then increments the counter. It returns the counter value
// that was signaled.
func (s *FrameSync) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	index, err := s.queue.Submit(cmds)
	if err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	return s.Signal(index), nil
}

// Signal records that the queue reaches submission index once the work
// submitted so far completes and advances the counter.
func (s *FrameSync) Signal(index uint64) uint64 {
	if index > s.signaled {
		s.signaled = index
	}
	v := s.value
	s.value++
	return v
}

// Completed returns the highest submission index the GPU has finished.
func (s *FrameSync) Completed() uint64 {
	return s.queue.PollCompleted()
}

// WaitForPrevious blocks until the GPU has executed everything submitted so
// far. It returns immediately when the queue already reports completion.
// The wait cannot be cancelled.
func (s *FrameSync) WaitForPrevious() error {
	if s.queue.PollCompleted() >= s.signaled {
		return nil
	}
	s.waits++
	if err := s.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	if done := s.queue.PollCompleted(); done < s.signaled {
		return fmt.Errorf("%w: completed %d, signaled %d", ErrSyncIncomplete, done, s.signaled)
	}
	return nil
}

// Destroy releases the fence. Callers must WaitForPrevious first.
func (s *FrameSync) Destroy() {
	if s.fence != nil {
		s.device.DestroyFence(s.fence)
		s.fence = nil
	}
}
