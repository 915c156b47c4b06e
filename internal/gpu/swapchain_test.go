package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// flakySurface reports the surface as outdated for the first failures
// acquisitions.
type flakySurface struct {
	*noop.Surface
	failures   int
	configures []hal.SurfaceConfiguration
}

func (s *flakySurface) Configure(d hal.Device, cfg *hal.SurfaceConfiguration) error {
	s.configures = append(s.configures, *cfg)
	return s.Surface.Configure(d, cfg)
}

func (s *flakySurface) AcquireTexture(f hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	if s.failures > 0 {
		s.failures--
		return nil, hal.ErrSurfaceOutdated
	}
	return s.Surface.AcquireTexture(f)
}

func newTestSwapChain(t *testing.T, surface hal.Surface) (*SwapChain, hal.Queue) {
	t.Helper()
	device, queue := openNoopDevice(t)
	sc, err := NewSwapChain(device, surface, 640, 480, true)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	return sc, queue
}

func TestSwapChainConfiguration(t *testing.T) {
	surface := &flakySurface{Surface: &noop.Surface{}}
	sc, _ := newTestSwapChain(t, surface)

	if len(surface.configures) != 1 {
		t.Fatalf("configured %d times, want 1", len(surface.configures))
	}
	cfg := surface.configures[0]
	if cfg.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v, want RGBA8Unorm", cfg.Format)
	}
	if cfg.PresentMode != gputypes.PresentModeFifo {
		t.Errorf("present mode = %v, want Fifo", cfg.PresentMode)
	}
	if w, h := sc.Size(); w != 640 || h != 480 {
		t.Errorf("size = %dx%d, want 640x480", w, h)
	}
	if sc.Index() != 0 {
		t.Errorf("initial index = %d, want 0", sc.Index())
	}
}

func TestSwapChainRejectsZeroSize(t *testing.T) {
	device, _ := openNoopDevice(t)
	_, err := NewSwapChain(device, &noop.Surface{}, 0, 480, true)
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("error = %v, want ErrInvalidSize", err)
	}
}

func TestSwapChainFrameCycle(t *testing.T) {
	sc, queue := newTestSwapChain(t, &noop.Surface{})

	wantIndex := []uint32{0, 1, 0, 1}
	for frame, want := range wantIndex {
		if sc.Index() != want {
			t.Fatalf("frame %d: index = %d, want %d", frame, sc.Index(), want)
		}
		if _, err := sc.Acquire(nil); err != nil {
			t.Fatalf("frame %d: Acquire: %v", frame, err)
		}
		if err := sc.Transition(StatePresent, StateRenderTarget); err != nil {
			t.Fatalf("frame %d: to render target: %v", frame, err)
		}
		if sc.State(want) != StateRenderTarget {
			t.Errorf("frame %d: state = %s", frame, sc.State(want))
		}
		if err := sc.Transition(StateRenderTarget, StatePresent); err != nil {
			t.Fatalf("frame %d: to present: %v", frame, err)
		}
		if err := sc.Present(queue); err != nil {
			t.Fatalf("frame %d: Present: %v", frame, err)
		}
		if sc.Current() != nil {
			t.Errorf("frame %d: back buffer still held after present", frame)
		}
	}
}

func TestSwapChainTransitionChecksState(t *testing.T) {
	sc, _ := newTestSwapChain(t, &noop.Surface{})

	if err := sc.Transition(StatePresent, StateRenderTarget); !errors.Is(err, ErrNoBackBuffer) {
		t.Errorf("transition without acquire = %v, want ErrNoBackBuffer", err)
	}
	if _, err := sc.Acquire(nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := sc.Transition(StateRenderTarget, StatePresent); err == nil {
		t.Error("expected error transitioning from the wrong state")
	}
}

func TestSwapChainPresentWithoutAcquire(t *testing.T) {
	sc, queue := newTestSwapChain(t, &noop.Surface{})
	if err := sc.Present(queue); !errors.Is(err, ErrNoBackBuffer) {
		t.Errorf("Present = %v, want ErrNoBackBuffer", err)
	}
}

func TestSwapChainReconfiguresOutdatedSurface(t *testing.T) {
	surface := &flakySurface{Surface: &noop.Surface{}, failures: 1}
	sc, _ := newTestSwapChain(t, surface)

	if _, err := sc.Acquire(nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(surface.configures) != 2 {
		t.Errorf("configured %d times, want 2", len(surface.configures))
	}

	sc.Discard()
	surface.failures = 2
	if _, err := sc.Acquire(nil); !errors.Is(err, hal.ErrSurfaceOutdated) {
		t.Errorf("Acquire = %v, want ErrSurfaceOutdated after one retry", err)
	}
}

func TestSwapChainResize(t *testing.T) {
	surface := &flakySurface{Surface: &noop.Surface{}}
	sc, queue := newTestSwapChain(t, surface)

	if _, err := sc.Acquire(nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := sc.Present(queue); err != nil {
		t.Fatalf("Present: %v", err)
	}

	tests := []struct {
		name         string
		w, h         uint32
		wantW, wantH uint32
	}{
		{"grow", 1280, 720, 1280, 720},
		{"zero clamps to one", 0, 0, 1, 1},
		{"same size", 1, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := sc.Resize(tt.w, tt.h); err != nil {
				t.Fatalf("Resize: %v", err)
			}
			if w, h := sc.Size(); w != tt.wantW || h != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if sc.Index() != 0 {
				t.Errorf("index = %d after resize, want 0", sc.Index())
			}
		})
	}
	// initial configure + two real resizes
	if len(surface.configures) != 3 {
		t.Errorf("configured %d times, want 3", len(surface.configures))
	}
}
