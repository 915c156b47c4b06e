package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BackBufferCount is the number of swap-chain images.
const BackBufferCount = 2

// SwapChainFormat is the fixed 8-bit-per-channel back-buffer format.
const SwapChainFormat = gputypes.TextureFormatRGBA8Unorm

// BufferState is the resource state a back buffer is in.
type BufferState uint8

// Back buffer states.
const (
	StatePresent BufferState = iota
	StateRenderTarget
)

// String returns the state name.
func (s BufferState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateRenderTarget:
		return "render-target"
	default:
		return fmt.Sprintf("BufferState(%d)", uint8(s))
	}
}

// SwapChain is a double-buffered presentation surface.
//
// The HAL hands out one surface texture per acquire and does not expose the
// image index, so SwapChain tracks it: the index advances by one modulo
// BackBufferCount after every present. The present<->render-target barriers
// for surface textures are issued by the HAL when the render pass begins and
// ends; SwapChain records the resulting state so misuse is detectable.
type SwapChain struct {
	device  hal.Device
	surface hal.Surface
	config  hal.SurfaceConfiguration

	index   uint32
	current hal.SurfaceTexture
	states  [BackBufferCount]BufferState
}

// NewSwapChain configures surface for width x height.
func NewSwapChain(device hal.Device, surface hal.Surface, width, height uint32, vsync bool) (*SwapChain, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: swap chain %dx%d", ErrInvalidSize, width, height)
	}
	mode := gputypes.PresentModeFifo
	if !vsync {
		mode = gputypes.PresentModeImmediate
	}
	sc := &SwapChain{
		device:  device,
		surface: surface,
		config: hal.SurfaceConfiguration{
			Width:       width,
			Height:      height,
			Format:      SwapChainFormat,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: mode,
			AlphaMode:   gputypes.CompositeAlphaModeOpaque,
		},
	}
	if err := surface.Configure(device, &sc.config); err != nil {
		return nil, fmt.Errorf("configure surface: %w", err)
	}
	return sc, nil
}

// Index returns the current back-buffer index.
func (sc *SwapChain) Index() uint32 { return sc.index }

// State returns the state of back buffer i.
func (sc *SwapChain) State(i uint32) BufferState { return sc.states[i%BackBufferCount] }

// Size returns the configured size.
func (sc *SwapChain) Size() (width, height uint32) { return sc.config.Width, sc.config.Height }

// Format returns the back-buffer format.
func (sc *SwapChain) Format() gputypes.TextureFormat { return sc.config.Format }

// Current returns the acquired back buffer, or nil between frames.
func (sc *SwapChain) Current() hal.SurfaceTexture { return sc.current }

// Acquire obtains the current back buffer. An outdated or lost surface is
// reconfigured once before giving up.
func (sc *SwapChain) Acquire(fence hal.Fence) (hal.SurfaceTexture, error) {
	if sc.current != nil {
		return sc.current, nil
	}
	acquired, err := sc.surface.AcquireTexture(fence)
	if errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost) {
		slogger().Debug("gpu: surface outdated, reconfiguring", "err", err)
		if cerr := sc.surface.Configure(sc.device, &sc.config); cerr != nil {
			return nil, fmt.Errorf("reconfigure surface: %w", cerr)
		}
		acquired, err = sc.surface.AcquireTexture(fence)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire back buffer: %w", err)
	}
	if acquired.Suboptimal {
		slogger().Debug("gpu: suboptimal back buffer", "index", sc.index)
	}
	sc.current = acquired.Texture
	return sc.current, nil
}

// Transition moves the current back buffer from one state to another.
// A back buffer that is not in the expected state is a sequencing bug.
func (sc *SwapChain) Transition(from, to BufferState) error {
	if sc.current == nil {
		return ErrNoBackBuffer
	}
	i := sc.index % BackBufferCount
	if sc.states[i] != from {
		return fmt.Errorf("gpu: back buffer %d is %s, want %s", i, sc.states[i], from)
	}
	sc.states[i] = to
	return nil
}

// Present queues the current back buffer for display and advances the
// back-buffer index.
func (sc *SwapChain) Present(queue hal.Queue) error {
	if sc.current == nil {
		return ErrNoBackBuffer
	}
	err := queue.Present(sc.surface, sc.current, nil)
	sc.current = nil
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	sc.index = (sc.index + 1) % BackBufferCount
	return nil
}

// Discard releases an acquired back buffer without presenting it.
func (sc *SwapChain) Discard() {
	if sc.current == nil {
		return
	}
	sc.surface.DiscardTexture(sc.current)
	sc.states[sc.index%BackBufferCount] = StatePresent
	sc.current = nil
}

// Resize reconfigures the surface. Dimensions are clamped to at least 1.
// The caller must have drained the GPU.
func (sc *SwapChain) Resize(width, height uint32) error {
	width, height = max(width, 1), max(height, 1)
	if width == sc.config.Width && height == sc.config.Height {
		return nil
	}
	sc.Discard()
	sc.config.Width, sc.config.Height = width, height
	if err := sc.surface.Configure(sc.device, &sc.config); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	sc.index = 0
	sc.states = [BackBufferCount]BufferState{}
	return nil
}

// Destroy unconfigures the surface. The surface itself belongs to GPU.
func (sc *SwapChain) Destroy() {
	sc.Discard()
	sc.surface.Unconfigure(sc.device)
}
