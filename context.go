// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package moon

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/moon/internal/cache"
	"github.com/gogpu/moon/internal/gpu"
	"github.com/gogpu/moon/internal/label"
	"github.com/gogpu/moon/internal/shader"
)

// WindowHandle identifies the native window a context presents to. On
// Windows Display is the module instance and Window the HWND.
type WindowHandle struct {
	Display uintptr
	Window  uintptr
}

// Context owns the GPU device, the swap chain and the per-frame command
// recording. Every resource is created through a Context and every draw is
// recorded between BeginFrame and EndFrame.
//
// Context is NOT safe for concurrent use; it is driven from the goroutine
// that runs the message loop.
type Context struct {
	opts contextOptions

	gpu      *gpu.GPU
	swap     *gpu.SwapChain
	rtv      *gpu.DescriptorHeap
	srv      *gpu.DescriptorHeap
	recorder *gpu.Recorder
	upload   *gpu.Recorder
	sync     *gpu.FrameSync
	retire   gpu.RetireList

	// bound is the textured pipeline whose bind group the open pass holds.
	// The srv slot mirrors its view.
	bound *compiledPipeline

	// deferred holds releases requested while a frame is open. They are
	// retired against that frame's submission.
	deferred []func()

	// root is the empty root signature. The texture root signature and its
	// bind group layout and sampler are created with the first textured
	// material.
	root        hal.PipelineLayout
	textureRoot hal.PipelineLayout
	textureBGL  hal.BindGroupLayout
	sampler     hal.Sampler

	labels  *label.Renderer
	shaders *cache.Cache[shaderKey, *shader.Blob]

	clearColor  gputypes.Color
	initialized bool
	waited      bool
	inFrame     bool
	frames      uint64
}

var _ gpucontext.DeviceProvider = (*Context)(nil)

// NewContext initializes a context for the window. On failure every
// partially created object is released and the error is returned.
func NewContext(window WindowHandle, width, height int, opts ...ContextOption) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{opts: o, clearColor: o.clearColor, shaders: newShaderCache()}
	if err := c.initialize(window, width, height); err != nil {
		Logger().Error("moon: context initialization failed", "err", err)
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *Context) initialize(window WindowHandle, width, height int) error {
	if c.opts.gpu != nil {
		c.gpu = c.opts.gpu
	} else {
		g, err := gpu.OpenDevice(gpu.DeviceConfig{
			Backend:       c.opts.backend,
			Debug:         c.opts.debug,
			AllowSoftware: c.opts.allowSoftware,
			Display:       window.Display,
			Window:        window.Window,
		})
		if err != nil {
			return fmt.Errorf("moon: open device: %w", err)
		}
		c.gpu = g
	}
	device := c.gpu.Device

	w, h := clampSize(width, height)
	swap, err := gpu.NewSwapChain(device, c.gpu.Surface, w, h, c.opts.vsync)
	if err != nil {
		return fmt.Errorf("moon: swap chain: %w", err)
	}
	c.swap = swap

	c.rtv = gpu.NewDescriptorHeap(device, "rtv", gpu.BackBufferCount, false)
	c.srv = gpu.NewDescriptorHeap(device, "srv", 1, true)

	if c.recorder, err = gpu.NewRecorder(device, "moon_frame"); err != nil {
		return fmt.Errorf("moon: command allocator: %w", err)
	}
	if c.sync, err = gpu.NewFrameSync(device, c.gpu.Queue); err != nil {
		return fmt.Errorf("moon: fence: %w", err)
	}
	if c.root, err = gpu.CreateRootSignature(device, "moon_root"); err != nil {
		return fmt.Errorf("moon: root signature: %w", err)
	}

	c.initialized = true
	Logger().Info("moon: context ready",
		"adapter", c.gpu.Info.Name,
		"backend", c.gpu.Info.Backend.String(),
		"width", w,
		"height", h,
		"vsync", c.opts.vsync,
	)
	return nil
}

func clampSize(width, height int) (uint32, uint32) {
	return uint32(max(width, 1)), uint32(max(height, 1))
}

// IsInitialized reports whether the context can be used.
func (c *Context) IsInitialized() bool { return c != nil && c.initialized }

// violation reports a contract violation. It panics when debug assertions
// are enabled and otherwise logs and returns err.
func (c *Context) violation(err error, args ...any) error {
	Logger().Error("moon: contract violation", append([]any{"err", err}, args...)...)
	if c != nil && c.opts.debugAssertions {
		panic(err)
	}
	return err
}

// SetClearColor sets the colour the next BeginFrame clears to. A frame that
// is already open keeps its colour.
func (c *Context) SetClearColor(r, g, b, a float64) {
	if c == nil {
		return
	}
	c.clearColor = gputypes.Color{R: r, G: g, B: b, A: a}
}

// ClearColor returns the colour the next frame clears to.
func (c *Context) ClearColor() gputypes.Color { return c.clearColor }

// BackBufferIndex returns the current back-buffer index.
func (c *Context) BackBufferIndex() uint32 {
	if !c.IsInitialized() {
		return 0
	}
	return c.swap.Index()
}

// Size returns the swap-chain size.
func (c *Context) Size() (width, height int) {
	if !c.IsInitialized() {
		return 0, 0
	}
	w, h := c.swap.Size()
	return int(w), int(h)
}

// Frames returns how many frames have been presented.
func (c *Context) Frames() uint64 { return c.frames }

// InFrame reports whether a frame is open.
func (c *Context) InFrame() bool { return c != nil && c.inFrame }

// BeginFrame opens the command list, acquires the current back buffer,
// transitions it to the render-target state and begins a render pass that
// clears it. Viewport and scissor cover the whole back buffer.
func (c *Context) BeginFrame() error {
	if !c.IsInitialized() {
		return c.violation(ErrNotInitialized)
	}
	if c.inFrame {
		return c.violation(ErrFrameInProgress)
	}
	if !c.waited {
		if err := c.sync.WaitForPrevious(); err != nil {
			return fmt.Errorf("moon: begin frame: %w", err)
		}
		c.waited = true
	}
	c.retire.Collect(c.sync.Completed())

	if err := c.recorder.Reset("moon_frame"); err != nil {
		return fmt.Errorf("moon: begin frame: %w", err)
	}
	backBuffer, err := c.swap.Acquire(c.sync.Fence())
	if err != nil {
		c.recorder.Discard()
		return fmt.Errorf("moon: begin frame: %w", err)
	}
	if err := c.swap.Transition(gpu.StatePresent, gpu.StateRenderTarget); err != nil {
		c.abortFrame()
		return fmt.Errorf("moon: begin frame: %w", err)
	}

	index := c.swap.Index()
	view, err := c.gpu.Device.CreateTextureView(backBuffer, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("back_buffer_%d", index),
		Format:        c.swap.Format(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.abortFrame()
		return fmt.Errorf("moon: back buffer view: %w", err)
	}
	if err := c.rtv.Set(int(index), view, true); err != nil {
		c.gpu.Device.DestroyTextureView(view)
		c.abortFrame()
		return fmt.Errorf("moon: begin frame: %w", err)
	}

	pass, err := c.recorder.BeginPass(&hal.RenderPassDescriptor{
		Label: "moon_frame",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.clearColor,
		}},
	})
	if err != nil {
		c.abortFrame()
		return fmt.Errorf("moon: begin frame: %w", err)
	}
	w, h := c.swap.Size()
	pass.SetViewport(0, 0, float32(w), float32(h), 0, 1)
	pass.SetScissorRect(0, 0, w, h)

	c.bound = nil
	c.srv.Clear(0)
	c.inFrame = true
	Logger().Debug("moon: frame begun", "frame", c.frames, "back_buffer", index)
	return nil
}

// EndFrame ends the render pass, transitions the back buffer back to the
// present state, submits the command list, presents and waits until the
// GPU has finished. The back-buffer index then advances to the one the swap
// chain reports next.
func (c *Context) EndFrame() error {
	if !c.IsInitialized() {
		return c.violation(ErrNotInitialized)
	}
	if !c.inFrame {
		return c.violation(ErrNoFrame)
	}
	c.inFrame = false

	if err := c.recorder.EndPass(); err != nil {
		c.abortFrame()
		return fmt.Errorf("moon: end frame: %w", err)
	}
	if err := c.swap.Transition(gpu.StateRenderTarget, gpu.StatePresent); err != nil {
		c.abortFrame()
		return fmt.Errorf("moon: end frame: %w", err)
	}
	cmd, err := c.recorder.Close()
	if err != nil {
		c.abortFrame()
		return fmt.Errorf("moon: end frame: %w", err)
	}
	signal, err := c.sync.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		c.recorder.Free(cmd)
		c.swap.Discard()
		c.flushDeferred()
		return fmt.Errorf("moon: end frame: %w", err)
	}
	Logger().Debug("moon: frame submitted", "signal", signal, "submission", c.sync.Signaled())
	c.flushDeferred()
	presentErr := c.swap.Present(c.gpu.Queue)
	waitErr := c.sync.WaitForPrevious()
	c.recorder.Free(cmd)
	c.retire.Collect(c.sync.Completed())
	if presentErr != nil {
		return fmt.Errorf("moon: end frame: %w", presentErr)
	}
	if waitErr != nil {
		return fmt.Errorf("moon: end frame: %w", waitErr)
	}
	c.frames++
	return nil
}

// abortFrame drops whatever was recorded and releases the back buffer.
func (c *Context) abortFrame() {
	c.recorder.Discard()
	c.swap.Discard()
	c.inFrame = false
	c.flushDeferred()
}

// Resize waits for the GPU and reconfigures the swap chain. Sizes are
// clamped to at least one pixel.
func (c *Context) Resize(width, height int) error {
	if !c.IsInitialized() {
		return c.violation(ErrNotInitialized)
	}
	if c.inFrame {
		return c.violation(ErrFrameInProgress)
	}
	w, h := clampSize(width, height)
	if cw, ch := c.swap.Size(); cw == w && ch == h {
		return nil
	}
	if err := c.sync.WaitForPrevious(); err != nil {
		return fmt.Errorf("moon: resize: %w", err)
	}
	c.rtv.Destroy()
	if err := c.swap.Resize(w, h); err != nil {
		return fmt.Errorf("moon: resize: %w", err)
	}
	Logger().Debug("moon: resized", "width", w, "height", h)
	return nil
}

// retireLater releases fn once every submission made so far has completed.
// Inside a frame the release also waits for that frame's submission.
func (c *Context) retireLater(fn func()) {
	if !c.IsInitialized() {
		fn()
		return
	}
	if c.inFrame {
		c.deferred = append(c.deferred, fn)
		return
	}
	c.retire.Retire(c.sync.Signaled(), fn)
	c.retire.Collect(c.sync.Completed())
}

// flushDeferred moves releases requested during the frame to the retire
// list, keyed by the latest submission.
func (c *Context) flushDeferred() {
	for _, fn := range c.deferred {
		c.retire.Retire(c.sync.Signaled(), fn)
	}
	clear(c.deferred)
	c.deferred = c.deferred[:0]
}

// Destroy waits for the GPU and releases everything in reverse creation
// order. The context cannot be used afterwards.
func (c *Context) Destroy() {
	if c == nil {
		return
	}
	if c.inFrame {
		c.abortFrame()
	}
	if c.sync != nil {
		if err := c.sync.WaitForPrevious(); err != nil {
			Logger().Warn("moon: wait before destroy", "err", err)
		}
	}
	c.retire.Drain()

	device := hal.Device(nil)
	if c.gpu != nil {
		device = c.gpu.Device
	}
	if c.srv != nil {
		c.srv.Destroy()
		c.srv = nil
	}
	if c.rtv != nil {
		c.rtv.Destroy()
		c.rtv = nil
	}
	if device != nil {
		if c.sampler != nil {
			device.DestroySampler(c.sampler)
			c.sampler = nil
		}
		if c.textureRoot != nil {
			device.DestroyPipelineLayout(c.textureRoot)
			c.textureRoot = nil
		}
		if c.textureBGL != nil {
			device.DestroyBindGroupLayout(c.textureBGL)
			c.textureBGL = nil
		}
		if c.root != nil {
			device.DestroyPipelineLayout(c.root)
			c.root = nil
		}
	}
	if c.upload != nil {
		c.upload.Destroy()
		c.upload = nil
	}
	if c.recorder != nil {
		c.recorder.Destroy()
		c.recorder = nil
	}
	if c.sync != nil {
		c.sync.Destroy()
		c.sync = nil
	}
	if c.swap != nil {
		c.swap.Destroy()
		c.swap = nil
	}
	if c.gpu != nil {
		c.gpu.Destroy()
		c.gpu = nil
	}
	c.initialized = false
}

// Device returns the HAL device as a gpucontext.Device.
func (c *Context) Device() gpucontext.Device {
	if !c.IsInitialized() {
		return nil
	}
	return c.gpu.Device
}

// Queue returns the HAL queue.
func (c *Context) Queue() gpucontext.Queue {
	if !c.IsInitialized() {
		return nil
	}
	return c.gpu.Queue
}

// Adapter returns the HAL adapter.
func (c *Context) Adapter() gpucontext.Adapter {
	if !c.IsInitialized() {
		return nil
	}
	return c.gpu.Adapter
}

// SurfaceFormat returns the back-buffer format.
func (c *Context) SurfaceFormat() gputypes.TextureFormat {
	if !c.IsInitialized() {
		return gputypes.TextureFormatUndefined
	}
	return c.swap.Format()
}

// AdapterInfo describes the adapter the device was opened on.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo {
	if !c.IsInitialized() {
		return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	}
	info := c.gpu.Info
	t := gpucontext.AdapterTypeUnknown
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: info.Name, Type: t}
}
