// Package imageutil normalises decoded images into tightly packed RGBA8
// pixel rows ready for texture upload.
package imageutil

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"

	// WebP is not registered by imaging; PNG, JPEG, GIF, BMP and TIFF are.
	_ "golang.org/x/image/webp"
)

// Decode decodes any registered image format and converts it to RGBA with
// straight alpha. EXIF orientation is applied to JPEG input.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imageutil: decode: %w", err)
	}
	return imaging.Clone(img), nil
}

// Open decodes the image file at path.
func Open(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Pixels returns img as width*height*4 bytes without row padding. The
// backing array is shared when img is already tightly packed at the origin.
func Pixels(img *image.NRGBA) (pix []byte, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	row := width * 4
	if img.Stride == row && b.Min == (image.Point{}) {
		return img.Pix[:row*height], width, height
	}
	pix = make([]byte, row*height)
	for y := 0; y < height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*row:(y+1)*row], img.Pix[off:off+row])
	}
	return pix, width, height
}

// Checkerboard returns a size x size image of cell x cell squares
// alternating between a and b.
func Checkerboard(size, cell int, a, b [4]uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			copy(img.Pix[img.PixOffset(x, y):], c[:])
		}
	}
	return img
}
