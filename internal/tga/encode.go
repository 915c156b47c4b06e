package tga

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// RLE writes a type 10 image instead of type 2.
	RLE bool

	// BottomOrigin stores rows bottom-up, the TGA default.
	BottomOrigin bool
}

// Encode writes img as a 32-bit truecolor TGA.
func Encode(w io.Writer, img image.Image, opts *EncodeOptions) error {
	if opts == nil {
		opts = &EncodeOptions{}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > 0xffff || b.Dy() > 0xffff {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, b.Dx(), b.Dy())
	}

	src := imaging.Clone(img)
	desc := uint8(8)
	if opts.BottomOrigin {
		src = imaging.FlipV(src)
	} else {
		desc |= descTopBottom
	}
	h := Header{
		ImageType:       TypeTrueColor,
		Width:           uint16(b.Dx()),
		Height:          uint16(b.Dy()),
		BitsPerPixel:    32,
		ImageDescriptor: desc,
	}
	if opts.RLE {
		h.ImageType = TypeTrueColorRLE
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("tga: write header: %w", err)
	}
	bgra := toBGRA(src.Pix)
	if opts.RLE {
		encodeRLE(bw, bgra)
	} else {
		_, _ = bw.Write(bgra)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("tga: write pixels: %w", err)
	}
	return nil
}

func toBGRA(rgba []byte) []byte {
	out := make([]byte, len(rgba))
	for i := 0; i < len(rgba); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = rgba[i+2], rgba[i+1], rgba[i], rgba[i+3]
	}
	return out
}

// encodeRLE writes run packets for repeated pixels and raw packets for the
// rest, at most 128 pixels per packet.
func encodeRLE(w *bufio.Writer, px []byte) {
	n := len(px) / 4
	at := func(i int) []byte { return px[i*4 : i*4+4] }
	for i := 0; i < n; {
		run := 1
		for i+run < n && run < 128 && bytes.Equal(at(i+run), at(i)) {
			run++
		}
		if run > 1 {
			_ = w.WriteByte(rlePacketFlag | byte(run-1))
			_, _ = w.Write(at(i))
			i += run
			continue
		}
		start := i
		for i < n && i-start < 128 && (i+1 >= n || !bytes.Equal(at(i+1), at(i))) {
			i++
		}
		if i == start {
			i++
		}
		_ = w.WriteByte(byte(i - start - 1))
		_, _ = w.Write(px[start*4 : i*4])
	}
}
