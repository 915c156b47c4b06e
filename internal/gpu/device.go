package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceConfig selects the backend and adapter OpenDevice uses.
type DeviceConfig struct {
	// Backend is a registry name ("dx12", "vulkan", "metal", "gl", "empty")
	// or empty for the highest priority registered backend.
	Backend string

	// Debug enables the backend's debug and validation layers.
	Debug bool

	// AllowSoftware permits a CPU adapter when no hardware adapter exists.
	AllowSoftware bool

	// Display and Window are the native handles the surface is created from.
	Display uintptr
	Window  uintptr
}

// GPU bundles the objects created by OpenDevice. The caller owns all of them
// and releases them with Destroy.
type GPU struct {
	Backend  hal.Backend
	Instance hal.Instance
	Surface  hal.Surface
	Adapter  hal.Adapter
	Info     gputypes.AdapterInfo
	Caps     hal.Capabilities
	Device   hal.Device
	Queue    hal.Queue
}

// OpenDevice creates an instance and a surface for the window, then opens a
// device on the best adapter that accepts device creation. Adapters are
// tried in RankAdapters order; an adapter whose Open fails is skipped.
func OpenDevice(cfg DeviceConfig) (*GPU, error) {
	backend, err := LookupBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	flags := gputypes.InstanceFlagsNone
	if cfg.Debug {
		flags |= gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: flags})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	surface, err := instance.CreateSurface(cfg.Display, cfg.Window)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("create surface: %w", err)
	}

	for _, candidate := range RankAdapters(instance.EnumerateAdapters(surface), cfg.AllowSoftware) {
		opened, err := candidate.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			slogger().Warn("gpu: adapter rejected device creation",
				"adapter", candidate.Info.Name, "err", err)
			continue
		}
		slogger().Info("gpu: adapter selected",
			"name", candidate.Info.Name,
			"vendor", candidate.Info.Vendor,
			"type", candidate.Info.DeviceType.String(),
			"backend", candidate.Info.Backend.String(),
			"driver", candidate.Info.Driver,
		)
		return &GPU{
			Backend:  backend,
			Instance: instance,
			Surface:  surface,
			Adapter:  candidate.Adapter,
			Info:     candidate.Info,
			Caps:     candidate.Capabilities,
			Device:   opened.Device,
			Queue:    opened.Queue,
		}, nil
	}

	surface.Destroy()
	instance.Destroy()
	return nil, ErrNoAdapter
}

// CopyPitchAlignment returns the row pitch alignment for buffer/texture
// copies, falling back to the WebGPU value of 256 bytes.
func (g *GPU) CopyPitchAlignment() uint64 {
	if g == nil || g.Caps.AlignmentsMask.BufferCopyPitch == 0 {
		return DefaultCopyPitchAlignment
	}
	return g.Caps.AlignmentsMask.BufferCopyPitch
}

// Destroy releases the device, surface and instance. The caller must have
// waited for the GPU and unconfigured the surface first.
func (g *GPU) Destroy() {
	if g == nil {
		return
	}
	if g.Device != nil {
		g.Device.Destroy()
		g.Device = nil
	}
	if g.Adapter != nil {
		g.Adapter.Destroy()
		g.Adapter = nil
	}
	if g.Surface != nil {
		g.Surface.Destroy()
		g.Surface = nil
	}
	if g.Instance != nil {
		g.Instance.Destroy()
		g.Instance = nil
	}
	g.Queue = nil
}
