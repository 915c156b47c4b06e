// Package label rasterises short single-line strings into RGBA bitmaps that
// can be uploaded as textures.
//
// Text is split into directional runs with the Unicode bidi algorithm,
// each run is shaped with HarfBuzz and the resulting glyph outlines are
// filled with an anti-aliasing rasteriser.
package label

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/bidi"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("label: empty text")

// Style describes how a label is drawn.
type Style struct {
	// Size is the font size in pixels per em.
	Size float64

	// Color is the text colour.
	Color color.NRGBA

	// Background fills the bitmap before the text is drawn.
	Background color.NRGBA

	// Padding is the margin around the text in pixels.
	Padding int
}

// DefaultStyle is 16px opaque white text on a transparent background.
var DefaultStyle = Style{Size: 16, Color: color.NRGBA{255, 255, 255, 255}, Padding: 2}

// Renderer draws labels with one font. A Renderer is not safe for
// concurrent use.
type Renderer struct {
	outlines *sfnt.Font
	face     *font.Face
	shaper   shaping.HarfbuzzShaper
	buf      sfnt.Buffer
}

// New parses a TrueType or OpenType font. A nil ttf selects Go Regular.
func New(ttf []byte) (*Renderer, error) {
	if ttf == nil {
		ttf = goregular.TTF
	}
	outlines, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("label: parse font: %w", err)
	}
	face, err := font.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, fmt.Errorf("label: parse font: %w", err)
	}
	return &Renderer{outlines: outlines, face: face}, nil
}

// Render draws text into a new bitmap just large enough to hold it.
func (r *Renderer) Render(text string, style Style) (*image.NRGBA, error) {
	if text == "" {
		return nil, ErrEmpty
	}
	if style.Size <= 0 {
		style.Size = DefaultStyle.Size
	}
	runs, err := r.shape(text, fixed.Int26_6(style.Size*64))
	if err != nil {
		return nil, err
	}

	var advance, ascent, descent fixed.Int26_6
	for _, rn := range runs {
		advance += rn.Advance
		ascent = max(ascent, rn.LineBounds.Ascent)
		descent = min(descent, rn.LineBounds.Descent)
	}
	pad := max(style.Padding, 0)
	w := advance.Ceil() + 2*pad
	h := (ascent - descent).Ceil() + 2*pad
	if advance <= 0 || w <= 2*pad {
		return nil, ErrEmpty
	}

	raster := vector.NewRasterizer(w, h)
	ppem := fixed.Int26_6(style.Size * 64)
	penX := float32(pad)
	baseline := float32(pad) + float32(ascent)/64
	for _, rn := range runs {
		for _, g := range rn.Glyphs {
			x := penX + float32(g.XOffset)/64
			y := baseline - float32(g.YOffset)/64
			if err := r.outline(raster, sfnt.GlyphIndex(g.GlyphID), ppem, x, y); err != nil {
				return nil, err
			}
			penX += float32(g.Advance) / 64
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	raster.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return compose(mask, style), nil
}

// shape splits text into bidi runs in visual order and shapes each one.
func (r *Renderer) shape(text string, size fixed.Int26_6) ([]shaping.Output, error) {
	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return nil, fmt.Errorf("label: bidi: %w", err)
	}
	order, err := p.Order()
	if err != nil {
		return nil, fmt.Errorf("label: bidi: %w", err)
	}
	if order.NumRuns() == 0 {
		return nil, ErrEmpty
	}

	runs := make([]shaping.Output, 0, order.NumRuns())
	for i := 0; i < order.NumRuns(); i++ {
		br := order.Run(i)
		runes := []rune(br.String())
		if len(runes) == 0 {
			continue
		}
		dir := di.DirectionLTR
		if br.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		runs = append(runs, r.shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: dir,
			Face:      r.face,
			Size:      size,
			Script:    scriptOf(runes),
			Language:  language.NewLanguage("en"),
		}))
	}
	return runs, nil
}

// outline adds the glyph's contours to raster with its origin at (x, y).
func (r *Renderer) outline(raster *vector.Rasterizer, gid sfnt.GlyphIndex, ppem fixed.Int26_6, x, y float32) error {
	segments, err := r.outlines.LoadGlyph(&r.buf, gid, ppem, nil)
	if err != nil {
		if errors.Is(err, sfnt.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("label: glyph %d: %w", gid, err)
	}
	pt := func(p fixed.Point26_6) (float32, float32) {
		return x + float32(p.X)/64, y + float32(p.Y)/64
	}
	open := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				raster.ClosePath()
			}
			raster.MoveTo(pt(seg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			raster.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			raster.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			dx, dy := pt(seg.Args[2])
			raster.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		raster.ClosePath()
	}
	return nil
}

// compose blends the coverage mask in the text colour over the background.
func compose(mask *image.Alpha, style Style) *image.NRGBA {
	dst := image.NewNRGBA(mask.Bounds())
	fg, bg := style.Color, style.Background
	for i, cov := range mask.Pix {
		a := float64(cov) / 255 * float64(fg.A) / 255
		ba := float64(bg.A) / 255
		outA := a + ba*(1-a)
		o := dst.Pix[i*4 : i*4+4]
		if outA == 0 {
			continue
		}
		mix := func(f, b uint8) uint8 {
			v := (float64(f)*a + float64(b)*ba*(1-a)) / outA
			return uint8(math.Round(v))
		}
		o[0], o[1], o[2] = mix(fg.R, bg.R), mix(fg.G, bg.G), mix(fg.B, bg.B)
		o[3] = uint8(math.Round(outA * 255))
	}
	return dst
}

// scriptOf returns the script of the first letter in runes.
func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		s := language.LookupScript(r)
		if s != language.Common && s != language.Inherited {
			return s
		}
	}
	return language.Latin
}
