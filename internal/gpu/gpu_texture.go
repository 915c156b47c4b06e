package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultCopyPitchAlignment is the WebGPU/D3D12 row pitch alignment for
// buffer<->texture copies.
const DefaultCopyPitchAlignment = 256

// TextureFormat is the fixed format every sampled texture is stored in.
const TextureFormat = gputypes.TextureFormatRGBA8Unorm

// BytesPerPixel is the size of one TextureFormat texel.
const BytesPerPixel = 4

// AlignedBytesPerRow returns the staging row pitch for width texels.
func AlignedBytesPerRow(width uint32, pitch uint64) uint32 {
	if pitch == 0 {
		pitch = DefaultCopyPitchAlignment
	}
	return uint32(alignUp(uint64(width)*BytesPerPixel, pitch))
}

// RequiredStagingSize returns the staging buffer size for a width x height
// upload: every row padded to the pitch alignment.
func RequiredStagingSize(width, height uint32, pitch uint64) uint64 {
	return uint64(AlignedBytesPerRow(width, pitch)) * uint64(height)
}

// GPUTexture is a GPU-local 2D texture and its default view.
type GPUTexture struct {
	Texture hal.Texture
	View    hal.TextureView
	Width   uint32
	Height  uint32
}

// CreateTexture allocates a GPU-local RGBA8 texture that can be copied into
// and sampled.
func CreateTexture(device hal.Device, label string, width, height uint32) (*GPUTexture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidSize, label, width, height)
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        TextureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %q: %w", label, err)
	}
	return &GPUTexture{Texture: tex, View: view, Width: width, Height: height}, nil
}

// Destroy releases the view and the texture.
func (t *GPUTexture) Destroy(device hal.Device) {
	if t == nil {
		return
	}
	if t.View != nil {
		device.DestroyTextureView(t.View)
		t.View = nil
	}
	if t.Texture != nil {
		device.DestroyTexture(t.Texture)
		t.Texture = nil
	}
}

// StageTexture fills a CPU-writable staging buffer with tightly packed RGBA8
// pixels, padding rows to the pitch alignment, and records on enc the copy
// into dst followed by the copy-destination to shader-read transition.
//
// The returned staging buffer must stay alive until the recorded commands
// have been submitted and completed.
func StageTexture(device hal.Device, enc hal.CommandEncoder, dst *GPUTexture, pixels []byte, pitch uint64) (hal.Buffer, error) {
	rowBytes := int(dst.Width) * BytesPerPixel
	if len(pixels) != rowBytes*int(dst.Height) {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d texture", ErrInvalidSize, len(pixels), dst.Width, dst.Height)
	}

	alignedRow := AlignedBytesPerRow(dst.Width, pitch)
	size := RequiredStagingSize(dst.Width, dst.Height, pitch)
	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texture_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}

	padded := pixels
	if int(alignedRow) != rowBytes {
		padded = make([]byte, size)
		for y := 0; y < int(dst.Height); y++ {
			copy(padded[y*int(alignedRow):], pixels[y*rowBytes:(y+1)*rowBytes])
		}
	}
	if err := WriteMapped(device, staging, 0, padded); err != nil {
		device.DestroyBuffer(staging)
		return nil, err
	}

	fullRange := hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: dst.Texture,
		Range:   fullRange,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageNone,
			NewUsage: gputypes.TextureUsageCopyDst,
		},
	}})
	enc.CopyBufferToTexture(staging, dst.Texture, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedRow, RowsPerImage: dst.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: dst.Texture, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: dst.Width, Height: dst.Height, DepthOrArrayLayers: 1},
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: dst.Texture,
		Range:   fullRange,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
	return staging, nil
}
