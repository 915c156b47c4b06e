package moon

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/moon/internal/gpu"
	"github.com/gogpu/moon/internal/imageutil"
	"github.com/gogpu/moon/internal/label"
	"github.com/gogpu/moon/internal/tga"
)

// Texture is a GPU-local RGBA8 image that shaders sample.
type Texture struct {
	ctx    *Context
	name   string
	image  *gpu.GPUTexture
	width  int
	height int

	// pixels is the CPU copy, dropped once the upload has completed.
	pixels []byte
}

// Name returns the texture's debug name.
func (t *Texture) Name() string { return t.name }

// Width returns the width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the height in pixels.
func (t *Texture) Height() int { return t.height }

// BytesPerPixel is always 4: every source is normalised to RGBA8.
func (t *Texture) BytesPerPixel() int { return gpu.BytesPerPixel }

// Pixels returns the CPU copy of the pixels, or nil once uploaded.
func (t *Texture) Pixels() []byte { return t.pixels }

func (t *Texture) view() hal.TextureView {
	if t == nil || t.image == nil {
		return nil
	}
	return t.image.View
}

// Destroy releases the image once no submitted frame can still sample it.
func (t *Texture) Destroy() {
	if t == nil || t.image == nil {
		return
	}
	img := t.image
	t.image = nil
	if t.ctx.gpu == nil {
		return
	}
	device := t.ctx.gpu.Device
	t.ctx.retireLater(func() { img.Destroy(device) })
}

// LoadTexture decodes an image file and uploads it. Files ending in .tga
// go through the TGA decoder; every other extension through the generic
// image decoders. Nothing is allocated on the GPU when decoding fails.
func (c *Context) LoadTexture(path string) (*Texture, error) {
	if !c.IsInitialized() {
		return nil, c.violation(ErrNotInitialized, "op", "LoadTexture")
	}
	img, err := decodeImageFile(path)
	if err != nil {
		Logger().Error("moon: load texture", "path", path, "err", err)
		return nil, fmt.Errorf("moon: load texture %s: %w", path, err)
	}
	return c.CreateTextureFromImage(filepath.Base(path), img)
}

func decodeImageFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return tga.Decode(f)
	}
	return imageutil.Decode(f)
}

// CreateTextureFromImage uploads any image after normalising it to RGBA8.
func (c *Context) CreateTextureFromImage(name string, img image.Image) (*Texture, error) {
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = imaging.Clone(img)
	}
	pix, w, h := imageutil.Pixels(nrgba)
	return c.CreateTexture(name, w, h, pix)
}

// CreateTexture uploads width*height tightly packed RGBA8 pixels through a
// staging buffer. The copy is recorded on a dedicated encoder and
// submitted on its own, then waited for, so it may be called inside a
// frame without touching the frame's command list.
func (c *Context) CreateTexture(name string, width, height int, rgba []byte) (*Texture, error) {
	if !c.IsInitialized() {
		return nil, c.violation(ErrNotInitialized, "op", "CreateTexture")
	}
	if width <= 0 || height <= 0 || len(rgba) != width*height*gpu.BytesPerPixel {
		err := fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidTexture, len(rgba), width, height)
		Logger().Error("moon: create texture", "name", name, "err", err)
		return nil, err
	}
	t := &Texture{ctx: c, name: name, width: width, height: height, pixels: rgba}

	device := c.gpu.Device
	img, err := gpu.CreateTexture(device, name, uint32(width), uint32(height))
	if err != nil {
		Logger().Error("moon: create texture", "name", name, "err", err)
		return nil, fmt.Errorf("moon: create texture: %w", err)
	}
	if err := c.uploadPixels(img, rgba); err != nil {
		img.Destroy(device)
		Logger().Error("moon: upload texture", "name", name, "err", err)
		return nil, fmt.Errorf("moon: upload texture %s: %w", name, err)
	}
	t.image = img
	t.pixels = nil
	Logger().Debug("moon: texture created", "name", name, "width", width, "height", height)
	return t, nil
}

// uploadPixels records the staged copy, submits it and waits. The staging
// buffer is released only after the wait.
func (c *Context) uploadPixels(img *gpu.GPUTexture, rgba []byte) error {
	device := c.gpu.Device
	if c.upload == nil {
		rec, err := gpu.NewRecorder(device, "moon_upload")
		if err != nil {
			return err
		}
		c.upload = rec
	}
	if err := c.upload.Reset("moon_upload"); err != nil {
		return err
	}
	staging, err := gpu.StageTexture(device, c.upload.Encoder(), img, rgba, c.gpu.CopyPitchAlignment())
	if err != nil {
		c.upload.Discard()
		return err
	}
	defer device.DestroyBuffer(staging)

	cmd, err := c.upload.Close()
	if err != nil {
		return err
	}
	defer c.upload.Free(cmd)
	if _, err := c.sync.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return err
	}
	return c.sync.WaitForPrevious()
}

// LabelStyle describes how CreateLabelTexture draws text.
type LabelStyle struct {
	Size       float64
	Color      color.NRGBA
	Background color.NRGBA
	Padding    int
}

// DefaultLabelStyle is 16px white text on a transparent background.
var DefaultLabelStyle = LabelStyle{
	Size:    label.DefaultStyle.Size,
	Color:   label.DefaultStyle.Color,
	Padding: label.DefaultStyle.Padding,
}

// CreateLabelTexture renders a line of text with the built-in font and
// uploads it as a texture just large enough to hold it.
func (c *Context) CreateLabelTexture(text string, style LabelStyle) (*Texture, error) {
	if !c.IsInitialized() {
		return nil, c.violation(ErrNotInitialized, "op", "CreateLabelTexture")
	}
	if c.labels == nil {
		r, err := label.New(nil)
		if err != nil {
			return nil, fmt.Errorf("moon: label font: %w", err)
		}
		c.labels = r
	}
	img, err := c.labels.Render(text, label.Style(style))
	if err != nil {
		Logger().Error("moon: render label", "text", text, "err", err)
		return nil, fmt.Errorf("moon: render label: %w", err)
	}
	return c.CreateTextureFromImage("label", img)
}
