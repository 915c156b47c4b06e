// Package tga reads and writes Truevision TGA images.
//
// Only truecolor images are handled: uncompressed (type 2) and run-length
// encoded (type 10), 24 or 32 bits per pixel. Decoded images are always
// 8-bit straight-alpha RGBA with a top-left origin, whatever the order the
// file stores its rows in.
package tga

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"slices"

	"github.com/disintegration/imaging"
)

// HeaderSize is the size of the fixed TGA header.
const HeaderSize = 18

// MaxDimension bounds the width and height Decode accepts. It matches the
// largest 2D texture the HAL's default limits allow.
const MaxDimension = 16384

// Image types.
const (
	TypeTrueColor    = 2
	TypeTrueColorRLE = 10
)

// Image descriptor bits.
const (
	descAlphaMask  = 0x0f
	descRightLeft  = 0x10
	descTopBottom  = 0x20
	rlePacketFlag  = 0x80
	rlePacketCount = 0x7f
)

var (
	// ErrUnsupportedType is returned for image types other than 2 and 10.
	ErrUnsupportedType = errors.New("tga: unsupported image type")

	// ErrUnsupportedDepth is returned for pixel depths other than 24 and 32.
	ErrUnsupportedDepth = errors.New("tga: unsupported pixel depth")

	// ErrInvalidSize is returned for a zero width or height, or one above
	// MaxDimension.
	ErrInvalidSize = errors.New("tga: invalid image size")

	// ErrCorrupt is returned when the pixel data ends early or an RLE
	// packet overruns the image.
	ErrCorrupt = errors.New("tga: corrupt pixel data")
)

// Header is the fixed 18-byte TGA header. All multi-byte fields are
// little-endian.
type Header struct {
	IDLength        uint8
	ColorMapType    uint8
	ImageType       uint8
	ColorMapStart   uint16
	ColorMapLength  uint16
	ColorMapBits    uint8
	XOrigin         uint16
	YOrigin         uint16
	Width           uint16
	Height          uint16
	BitsPerPixel    uint8
	ImageDescriptor uint8
}

// ReadHeader reads and validates the header. Unsupported image types are
// rejected here, before any pixel memory is allocated.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("tga: read header: %w", err)
	}
	if h.ImageType != TypeTrueColor && h.ImageType != TypeTrueColorRLE {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedType, h.ImageType)
	}
	if h.BitsPerPixel != 24 && h.BitsPerPixel != 32 {
		return h, fmt.Errorf("%w: %d bpp", ErrUnsupportedDepth, h.BitsPerPixel)
	}
	if h.Width == 0 || h.Height == 0 || h.Width > MaxDimension || h.Height > MaxDimension {
		return h, fmt.Errorf("%w: %dx%d", ErrInvalidSize, h.Width, h.Height)
	}
	return h, nil
}

// RLE reports whether the pixel data is run-length encoded.
func (h Header) RLE() bool { return h.ImageType == TypeTrueColorRLE }

// TopOrigin reports whether the first stored row is the top row.
func (h Header) TopOrigin() bool { return h.ImageDescriptor&descTopBottom != 0 }

// RightOrigin reports whether rows are stored right to left.
func (h Header) RightOrigin() bool { return h.ImageDescriptor&descRightLeft != 0 }

// AlphaBits returns the attribute bits per pixel.
func (h Header) AlphaBits() int { return int(h.ImageDescriptor & descAlphaMask) }

// colorMapSize is the number of bytes the (ignored) color map occupies.
func (h Header) colorMapSize() int {
	if h.ColorMapType == 0 {
		return 0
	}
	return int(h.ColorMapLength) * ((int(h.ColorMapBits) + 7) / 8)
}

// DecodeConfig returns the dimensions of the image without decoding pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}

// Decode reads a TGA image as top-left origin RGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Discard(int(h.IDLength) + h.colorMapSize()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	// Pixel memory grows a row at a time as data arrives, so a header that
	// lies about its size cannot allocate more than the file provides.
	w, height := int(h.Width), int(h.Height)
	bpp := int(h.BitsPerPixel) / 8
	var pix []byte
	if h.RLE() {
		pix, err = decodeRLE(br, w, height, bpp)
	} else {
		pix, err = decodeRaw(br, w, height, bpp)
	}
	if err != nil {
		return nil, err
	}
	img := &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, height)}

	if !h.TopOrigin() {
		img = imaging.FlipV(img)
	}
	if h.RightOrigin() {
		img = imaging.FlipH(img)
	}
	return img, nil
}

// growRow extends pix by one row of w RGBA pixels.
func growRow(pix []byte, w int) []byte {
	n := len(pix)
	return slices.Grow(pix, w*4)[:n+w*4]
}

// decodeRaw reads contiguous BGR(A) rows.
func decodeRaw(r io.Reader, w, height, bpp int) ([]byte, error) {
	src := make([]byte, w*bpp)
	var pix []byte
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(r, src); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorrupt, y, err)
		}
		off := len(pix)
		pix = growRow(pix, w)
		for x := 0; x < w; x++ {
			putPixel(pix[off+x*4:], src[x*bpp:], bpp)
		}
	}
	return pix, nil
}

// decodeRLE expands run-length packets. Packets may span rows.
func decodeRLE(r *bufio.Reader, w, height, bpp int) ([]byte, error) {
	total := w * height
	var pix []byte
	px := make([]byte, 4)
	put := func(i int) {
		if i*4 == len(pix) {
			pix = growRow(pix, w)
		}
		putPixel(pix[i*4:], px, bpp)
	}
	for i := 0; i < total; {
		head, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: packet header: %w", ErrCorrupt, err)
		}
		count := int(head&rlePacketCount) + 1
		if i+count > total {
			return nil, fmt.Errorf("%w: packet of %d pixels at %d overruns %d", ErrCorrupt, count, i, total)
		}
		if head&rlePacketFlag != 0 {
			if _, err := io.ReadFull(r, px[:bpp]); err != nil {
				return nil, fmt.Errorf("%w: run packet: %w", ErrCorrupt, err)
			}
			for ; count > 0; count-- {
				put(i)
				i++
			}
			continue
		}
		for ; count > 0; count-- {
			if _, err := io.ReadFull(r, px[:bpp]); err != nil {
				return nil, fmt.Errorf("%w: raw packet: %w", ErrCorrupt, err)
			}
			put(i)
			i++
		}
	}
	return pix, nil
}

// putPixel converts one stored BGR(A) pixel to RGBA.
func putPixel(dst, src []byte, bpp int) {
	dst[0], dst[1], dst[2] = src[2], src[1], src[0]
	if bpp == 4 {
		dst[3] = src[3]
	} else {
		dst[3] = 0xff
	}
}
