package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func TestBackendName(t *testing.T) {
	tests := []struct {
		variant gputypes.Backend
		want    string
	}{
		{gputypes.BackendDX12, "dx12"},
		{gputypes.BackendVulkan, "vulkan"},
		{gputypes.BackendMetal, "metal"},
		{gputypes.BackendGL, "gl"},
		{gputypes.BackendEmpty, "empty"},
	}
	for _, tt := range tests {
		if got := BackendName(tt.variant); got != tt.want {
			t.Errorf("BackendName(%v) = %q, want %q", tt.variant, got, tt.want)
		}
	}
}

func TestLookupBackend(t *testing.T) {
	for _, name := range []string{"", "auto", "empty", "noop", " Software "} {
		b, err := LookupBackend(name)
		if err != nil {
			t.Errorf("LookupBackend(%q): %v", name, err)
			continue
		}
		if b == nil {
			t.Errorf("LookupBackend(%q) returned nil", name)
		}
	}
	if _, err := LookupBackend("glide"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("LookupBackend(glide) = %v, want ErrNoBackend", err)
	}
}

func exposed(name string, typ gputypes.DeviceType, maxBuffer uint64) hal.ExposedAdapter {
	limits := gputypes.DefaultLimits()
	limits.MaxBufferSize = maxBuffer
	return hal.ExposedAdapter{
		Adapter:      &noop.Adapter{},
		Info:         gputypes.AdapterInfo{Name: name, DeviceType: typ},
		Capabilities: hal.Capabilities{Limits: limits},
	}
}

func names(adapters []hal.ExposedAdapter) []string {
	out := make([]string, len(adapters))
	for i, a := range adapters {
		out[i] = a.Info.Name
	}
	return out
}

func TestRankAdapters(t *testing.T) {
	tests := []struct {
		name          string
		adapters      []hal.ExposedAdapter
		allowSoftware bool
		want          []string
	}{
		{
			name: "discrete before integrated",
			adapters: []hal.ExposedAdapter{
				exposed("igpu", gputypes.DeviceTypeIntegratedGPU, 4<<30),
				exposed("dgpu", gputypes.DeviceTypeDiscreteGPU, 2<<30),
			},
			want: []string{"dgpu", "igpu"},
		},
		{
			name: "larger memory breaks ties",
			adapters: []hal.ExposedAdapter{
				exposed("small", gputypes.DeviceTypeDiscreteGPU, 1<<30),
				exposed("big", gputypes.DeviceTypeDiscreteGPU, 8<<30),
			},
			want: []string{"big", "small"},
		},
		{
			name: "software skipped by default",
			adapters: []hal.ExposedAdapter{
				exposed("warp", gputypes.DeviceTypeCPU, 8<<30),
			},
			want: []string{},
		},
		{
			name: "software only as fallback",
			adapters: []hal.ExposedAdapter{
				exposed("warp", gputypes.DeviceTypeCPU, 8<<30),
				exposed("igpu", gputypes.DeviceTypeIntegratedGPU, 1<<30),
			},
			allowSoftware: true,
			want:          []string{"igpu"},
		},
		{
			name: "software allowed",
			adapters: []hal.ExposedAdapter{
				exposed("warp", gputypes.DeviceTypeCPU, 8<<30),
			},
			allowSoftware: true,
			want:          []string{"warp"},
		},
		{
			name:     "nil adapters dropped",
			adapters: []hal.ExposedAdapter{{Info: gputypes.AdapterInfo{Name: "ghost"}}},
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(RankAdapters(tt.adapters, tt.allowSoftware))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestOpenDeviceNoop(t *testing.T) {
	g, err := OpenDevice(DeviceConfig{Backend: "noop"})
	if err != nil {
		t.Fatalf("OpenDevice: %v", err)
	}
	defer g.Destroy()

	if g.Device == nil || g.Queue == nil || g.Surface == nil {
		t.Fatal("OpenDevice returned incomplete GPU")
	}
	if g.Info.Name != "Noop Adapter" {
		t.Errorf("adapter = %q", g.Info.Name)
	}
	if got := g.CopyPitchAlignment(); got != 256 {
		t.Errorf("CopyPitchAlignment = %d, want 256", got)
	}
}

func TestOpenDeviceUnknownBackend(t *testing.T) {
	if _, err := OpenDevice(DeviceConfig{Backend: "glide"}); !errors.Is(err, ErrNoBackend) {
		t.Errorf("OpenDevice = %v, want ErrNoBackend", err)
	}
}
