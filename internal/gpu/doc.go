// Package gpu holds the HAL plumbing behind the moon render context.
//
// It talks to github.com/gogpu/wgpu/hal directly and knows nothing about
// meshes or materials. The root package composes these pieces:
//
//   - OpenDevice: backend lookup, adapter ranking and device creation
//   - FrameSync: one fence and a monotonically increasing counter that
//     implements the wait-for-everything discipline
//   - SwapChain: a double-buffered surface with back-buffer index tracking
//   - DescriptorHeap: fixed-capacity tables of texture views
//   - Recorder: the single command allocator/list pair reused every frame
//   - RetireList: deferred destruction keyed by submission index
//   - upload helpers: mapped buffer writes and staged texture copies
//
// # Synchronization
//
// FrameSync serializes CPU and GPU completely: after every submit the CPU
// blocks until the queue reports the submission as completed. A ring of
// per-frame fence values that only blocks when the ring wraps is the natural
// next step; it is not implemented here.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. The render context is
// driven from a single goroutine.
package gpu
