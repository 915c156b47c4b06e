package platform

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
)

// Headless is a window without a native surface. Every PumpMessages call
// delivers queued input and then paints once.
type Headless struct {
	handlers

	mu      sync.Mutex
	width   int
	height  int
	pending []func()

	maxFrames int
	frames    int
	redraws   atomic.Int64
	quit      atomic.Bool
}

var _ Window = (*Headless)(nil)

// NewHeadless returns a headless window of the given client size.
func NewHeadless(width, height int) *Headless {
	return &Headless{width: max(width, 1), height: max(height, 1)}
}

// SetMaxFrames stops the loop after n paints. Zero disables the limit.
func (h *Headless) SetMaxFrames(n int) { h.maxFrames = max(n, 0) }

// Frames returns the number of paints delivered so far.
func (h *Headless) Frames() int { return h.frames }

// Redraws returns how many times RequestRedraw was called.
func (h *Headless) Redraws() int { return int(h.redraws.Load()) }

// Handles returns zero handles.
func (h *Headless) Handles() (display, window uintptr) { return 0, 0 }

// Size returns the client size.
func (h *Headless) Size() (width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// ScaleFactor is always 1.
func (h *Headless) ScaleFactor() float64 { return 1 }

// RequestRedraw records the request; a headless window paints every pump.
func (h *Headless) RequestRedraw() { h.redraws.Add(1) }

// OnPaint registers a paint callback.
func (h *Headless) OnPaint(fn func()) { h.paint = append(h.paint, fn) }

// OnResize registers a resize callback.
func (h *Headless) OnResize(fn func(width, height int)) { h.resize = append(h.resize, fn) }

// OnKeyPress registers a key callback.
func (h *Headless) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	h.keys = append(h.keys, fn)
}

// Resize queues a resize to the given client size for the next pump.
func (h *Headless) Resize(width, height int) {
	h.post(func() {
		h.mu.Lock()
		h.width, h.height = max(width, 1), max(height, 1)
		w, ht := h.width, h.height
		h.mu.Unlock()
		h.fireResize(w, ht)
	})
}

// PressKey queues a key press for the next pump. Escape quits.
func (h *Headless) PressKey(key gpucontext.Key, mods gpucontext.Modifiers) {
	h.post(func() {
		h.fireKey(key, mods)
		if key == gpucontext.KeyEscape {
			h.Close()
		}
	})
}

func (h *Headless) post(fn func()) {
	h.mu.Lock()
	h.pending = append(h.pending, fn)
	h.mu.Unlock()
}

// PumpMessages delivers queued events and paints once.
func (h *Headless) PumpMessages() bool {
	h.mu.Lock()
	events := h.pending
	h.pending = nil
	h.mu.Unlock()
	for _, ev := range events {
		ev()
	}
	if h.quit.Load() {
		return false
	}
	if h.maxFrames > 0 && h.frames >= h.maxFrames {
		h.quit.Store(true)
		return false
	}
	h.frames++
	h.firePaint()
	return !h.quit.Load()
}

// Close asks the loop to quit.
func (h *Headless) Close() { h.quit.Store(true) }

// Destroy is a no-op.
func (h *Headless) Destroy() {}
