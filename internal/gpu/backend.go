package gpu

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Backend names understood by LookupBackend.
const (
	BackendDX12   = "dx12"
	BackendVulkan = "vulkan"
	BackendMetal  = "metal"
	BackendGL     = "gl"
	BackendEmpty  = "empty"
)

// backendPriority orders backends when no name is requested. The software
// and noop backends both register as BackendEmpty and come last.
var backendPriority = []string{BackendDX12, BackendVulkan, BackendMetal, BackendGL, BackendEmpty}

// backendAliases maps user-facing spellings onto registry names.
var backendAliases = map[string]string{
	"d3d12":    BackendDX12,
	"vk":       BackendVulkan,
	"gles":     BackendGL,
	"opengl":   BackendGL,
	"software": BackendEmpty,
	"noop":     BackendEmpty,
}

// BackendName returns the registry name of a HAL backend variant.
func BackendName(variant gputypes.Backend) string {
	switch variant {
	case gputypes.BackendDX12:
		return BackendDX12
	case gputypes.BackendVulkan:
		return BackendVulkan
	case gputypes.BackendMetal:
		return BackendMetal
	case gputypes.BackendGL:
		return BackendGL
	case gputypes.BackendEmpty:
		return BackendEmpty
	default:
		return strings.ToLower(variant.String())
	}
}

// backendRegistry snapshots the HAL's registered backends into a
// priority-ordered registry.
func backendRegistry() *gpucontext.Registry[hal.Backend] {
	reg := gpucontext.NewRegistry[hal.Backend](gpucontext.WithPriority(backendPriority...))
	for _, variant := range hal.AvailableBackends() {
		b, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		reg.Register(BackendName(variant), func() hal.Backend { return b })
	}
	return reg
}

// LookupBackend returns the backend registered under name, or the highest
// priority registered backend when name is empty or "auto".
func LookupBackend(name string) (hal.Backend, error) {
	reg := backendRegistry()
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := backendAliases[name]; ok {
		name = alias
	}
	if name == "" || name == "auto" {
		if b := reg.Best(); b != nil {
			return b, nil
		}
		return nil, ErrNoBackend
	}
	if !reg.Has(name) {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrNoBackend, name, strings.Join(reg.Available(), ", "))
	}
	return reg.Get(name), nil
}

// deviceTypeRank orders adapter types from least to most preferred.
func deviceTypeRank(t gputypes.DeviceType) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return 4
	case gputypes.DeviceTypeIntegratedGPU:
		return 3
	case gputypes.DeviceTypeVirtualGPU:
		return 2
	case gputypes.DeviceTypeOther:
		return 1
	default:
		return 0
	}
}

// IsSoftware reports whether the adapter is a CPU rasterizer.
func IsSoftware(info gputypes.AdapterInfo) bool {
	return info.DeviceType == gputypes.DeviceTypeCPU
}

// RankAdapters returns the adapters worth trying, best first. Software
// adapters are dropped unless allowSoftware is set, and then only used when
// no hardware adapter exists. The HAL does not report dedicated video memory,
// so ties between adapters of the same type are broken by the largest
// buffer the adapter can allocate.
func RankAdapters(adapters []hal.ExposedAdapter, allowSoftware bool) []hal.ExposedAdapter {
	hardware := make([]hal.ExposedAdapter, 0, len(adapters))
	var software []hal.ExposedAdapter
	for _, a := range adapters {
		if a.Adapter == nil {
			continue
		}
		if IsSoftware(a.Info) {
			software = append(software, a)
			continue
		}
		hardware = append(hardware, a)
	}
	slices.SortStableFunc(hardware, func(a, b hal.ExposedAdapter) int {
		if c := cmp.Compare(deviceTypeRank(b.Info.DeviceType), deviceTypeRank(a.Info.DeviceType)); c != 0 {
			return c
		}
		return cmp.Compare(b.Capabilities.Limits.MaxBufferSize, a.Capabilities.Limits.MaxBufferSize)
	})
	if len(hardware) == 0 && allowSoftware {
		return software
	}
	return hardware
}
