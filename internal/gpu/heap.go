package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// DescriptorHeap is a fixed-capacity table of texture views.
//
// The render context keeps two: a render-target heap with one slot per back
// buffer and a shader-visible heap with a single slot for the sampled
// texture. A heap optionally owns the views stored in it; owned views are
// destroyed when replaced or when the heap is destroyed.
type DescriptorHeap struct {
	device        hal.Device
	label         string
	shaderVisible bool
	views         []hal.TextureView
	owned         []bool
}

// NewDescriptorHeap creates a heap with capacity slots.
func NewDescriptorHeap(device hal.Device, label string, capacity int, shaderVisible bool) *DescriptorHeap {
	return &DescriptorHeap{
		device:        device,
		label:         label,
		shaderVisible: shaderVisible,
		views:         make([]hal.TextureView, capacity),
		owned:         make([]bool, capacity),
	}
}

// Label returns the heap's debug label.
func (h *DescriptorHeap) Label() string { return h.label }

// Cap returns the number of slots.
func (h *DescriptorHeap) Cap() int { return len(h.views) }

// ShaderVisible reports whether shaders may read the heap.
func (h *DescriptorHeap) ShaderVisible() bool { return h.shaderVisible }

// Set stores view in slot, releasing the owned view it replaces.
func (h *DescriptorHeap) Set(slot int, view hal.TextureView, owned bool) error {
	if slot < 0 || slot >= len(h.views) {
		return fmt.Errorf("%w: %s[%d] (cap %d)", ErrHeapSlot, h.label, slot, len(h.views))
	}
	if old := h.views[slot]; old != nil && h.owned[slot] && old != view {
		h.device.DestroyTextureView(old)
	}
	h.views[slot] = view
	h.owned[slot] = owned
	return nil
}

// Get returns the view in slot, or nil for an empty or invalid slot.
func (h *DescriptorHeap) Get(slot int) hal.TextureView {
	if slot < 0 || slot >= len(h.views) {
		return nil
	}
	return h.views[slot]
}

// Free returns the first empty slot.
func (h *DescriptorHeap) Free() (int, error) {
	for i, v := range h.views {
		if v == nil {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrHeapFull, h.label)
}

// Clear empties slot, releasing an owned view.
func (h *DescriptorHeap) Clear(slot int) {
	if slot < 0 || slot >= len(h.views) {
		return
	}
	if h.views[slot] != nil && h.owned[slot] {
		h.device.DestroyTextureView(h.views[slot])
	}
	h.views[slot] = nil
	h.owned[slot] = false
}

// Destroy releases every owned view.
func (h *DescriptorHeap) Destroy() {
	for i := range h.views {
		h.Clear(i)
	}
}
