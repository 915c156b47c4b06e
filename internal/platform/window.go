// Package platform provides the native window the application loop renders
// into, and a headless stand-in for tests and machines without a display.
package platform

import (
	"errors"

	"github.com/gogpu/gpucontext"
)

// ErrUnsupported is returned by New when the OS has no native window
// implementation.
var ErrUnsupported = errors.New("platform: native windows are not supported on this OS")

// Default client area size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Config describes the window to create.
type Config struct {
	Title    string
	Width    int
	Height   int
	Headless bool

	// MaxFrames stops a headless window after that many paints. Zero means
	// run until Close.
	MaxFrames int
}

// Window is an OS window with a message pump.
//
// Callbacks run on the goroutine that calls PumpMessages.
type Window interface {
	gpucontext.WindowProvider

	// Handles returns the native display and window handles a GPU surface
	// is created from. Both are zero for a headless window.
	Handles() (display, window uintptr)

	// PumpMessages dispatches pending messages. It returns false once the
	// window has been asked to quit.
	PumpMessages() bool

	OnPaint(fn func())
	OnResize(fn func(width, height int))
	OnKeyPress(fn func(key gpucontext.Key, mods gpucontext.Modifiers))

	// Close asks the message loop to quit.
	Close()

	// Destroy releases the native window.
	Destroy()
}

// New creates a native window, or a headless one when cfg.Headless is set.
func New(cfg Config) (Window, error) {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Headless {
		h := NewHeadless(cfg.Width, cfg.Height)
		h.SetMaxFrames(cfg.MaxFrames)
		return h, nil
	}
	return newNative(cfg)
}

// handlers holds registered callbacks.
type handlers struct {
	paint  []func()
	resize []func(int, int)
	keys   []func(gpucontext.Key, gpucontext.Modifiers)
}

func (h *handlers) firePaint() {
	for _, fn := range h.paint {
		fn()
	}
}

func (h *handlers) fireResize(width, height int) {
	for _, fn := range h.resize {
		fn(width, height)
	}
}

func (h *handlers) fireKey(key gpucontext.Key, mods gpucontext.Modifiers) {
	for _, fn := range h.keys {
		fn(key, mods)
	}
}
