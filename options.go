package moon

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/moon/internal/gpu"
)

// DefaultClearColor is a cornflower blue.
var DefaultClearColor = gputypes.Color{R: 102.0 / 255, G: 147.0 / 255, B: 245.0 / 255, A: 1}

// ContextOption configures a Context during creation.
//
// Example:
//
//	ctx, err := moon.NewContext(handle, 1280, 720,
//	    moon.WithBackend("vulkan"),
//	    moon.WithDebug(true),
//	)
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	backend         string
	debug           bool
	allowSoftware   bool
	vsync           bool
	debugAssertions bool
	clearColor      gputypes.Color

	// gpu replaces device creation. Tests inject recording devices here.
	gpu *gpu.GPU
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		vsync:      true,
		clearColor: DefaultClearColor,
	}
}

// WithBackend selects a HAL backend by name ("dx12", "vulkan", "metal",
// "gl", "software", "noop"). The empty string picks the highest priority
// registered backend.
func WithBackend(name string) ContextOption {
	return func(o *contextOptions) {
		o.backend = name
	}
}

// WithDebug enables the backend's debug and validation layers, and debug
// info in compiled shaders.
func WithDebug(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.debug = enabled
	}
}

// WithSoftwareFallback allows a CPU adapter when no hardware adapter can
// open a device.
func WithSoftwareFallback(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.allowSoftware = enabled
	}
}

// WithVSync selects FIFO presentation (the default) or immediate.
func WithVSync(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.vsync = enabled
	}
}

// WithDebugAssertions makes contract violations, such as drawing with an
// uncompiled material, panic instead of being logged and skipped.
func WithDebugAssertions(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.debugAssertions = enabled
	}
}

// WithClearColor sets the initial clear colour.
func WithClearColor(r, g, b, a float64) ContextOption {
	return func(o *contextOptions) {
		o.clearColor = gputypes.Color{R: r, G: g, B: b, A: a}
	}
}

// withGPU makes the context use an already opened device.
func withGPU(g *gpu.GPU) ContextOption {
	return func(o *contextOptions) {
		o.gpu = g
	}
}
