package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/gazeview/internal/cache"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/bidi"
)

// ErrEmptyFont is returned by LoadFont for empty data.
var ErrEmptyFont = errors.New("overlay: empty font data")

// Face is a parsed TrueType/OpenType font usable at any size. It keeps
// two views of the same data: the go-text font used for shaping and the
// sfnt font used for outlines. Glyph IDs are shared between them.
type Face struct {
	outlines *sfnt.Font
	shaping  *gotext.Font

	// HarfbuzzShaper keeps a mutable buffer and is not safe for
	// concurrent use.
	shapers sync.Pool

	lines *cache.LRU[lineKey, line]
}

// shapedLines bounds the per-face cache of shaped lines.
const shapedLines = 256

type lineKey struct {
	text string
	ppem fixed.Int26_6
}

// LoadFont parses ttf.
func LoadFont(ttf []byte) (*Face, error) {
	if len(ttf) == 0 {
		return nil, ErrEmptyFont
	}
	outlines, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font outlines: %w", err)
	}
	parsed, err := gotext.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font for shaping: %w", err)
	}
	f := &Face{
		outlines: outlines,
		shaping:  parsed.Font,
		lines:    cache.New[lineKey, line](shapedLines),
	}
	f.shapers.New = func() any { return &shaping.HarfbuzzShaper{} }
	return f, nil
}

var defaultFace = sync.OnceValue(func() *Face {
	f, err := LoadFont(goregular.TTF)
	if err != nil {
		panic("overlay: embedded Go Regular font: " + err.Error())
	}
	return f
})

// DefaultFace returns the embedded Go Regular face.
func DefaultFace() *Face { return defaultFace() }

// glyph is one shaped glyph positioned relative to the line origin, in
// pixels, y down.
type glyph struct {
	id   sfnt.GlyphIndex
	x, y float64
}

// line is a shaped single line of text.
type line struct {
	glyphs  []glyph
	advance float64
	ascent  float64
	descent float64
}

// shape returns the shaped line for s at size, from the cache when the
// same text was shaped at the same size before.
func (f *Face) shape(s string, size float64) (line, error) {
	ppem := fixed.Int26_6(math.Round(size * 64))
	key := lineKey{text: s, ppem: ppem}
	if l, ok := f.lines.Get(key); ok {
		return l, nil
	}
	l, err := f.shapeLine(s, ppem)
	if err != nil {
		return l, err
	}
	f.lines.Put(key, l)
	return l, nil
}

// shapeLine splits s into bidi runs in visual order and shapes each run
// with its own direction.
func (f *Face) shapeLine(s string, ppem fixed.Int26_6) (line, error) {
	var l line
	var buf sfnt.Buffer
	m, err := f.outlines.Metrics(&buf, ppem, xfont.HintingNone)
	if err != nil {
		return l, fmt.Errorf("overlay: font metrics: %w", err)
	}
	l.ascent = fixedToFloat(m.Ascent)
	l.descent = fixedToFloat(m.Descent)
	if s == "" {
		return l, nil
	}

	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return l, fmt.Errorf("overlay: bidi: %w", err)
	}
	ordering, err := p.Order()
	if err != nil {
		return l, fmt.Errorf("overlay: bidi order: %w", err)
	}

	face := gotext.NewFace(f.shaping)
	hb := f.shapers.Get().(*shaping.HarfbuzzShaper)
	defer f.shapers.Put(hb)

	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		runes := []rune(run.String())
		if len(runes) == 0 {
			continue
		}
		dir := di.DirectionLTR
		if run.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		out := hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: dir,
			Face:      face,
			Size:      ppem,
			Script:    scriptOf(runes),
			Language:  language.NewLanguage("en"),
		})
		for _, g := range out.Glyphs {
			l.glyphs = append(l.glyphs, glyph{
				id: sfnt.GlyphIndex(g.GlyphID), //nolint:gosec // sfnt glyph indices are 16-bit
				x:  l.advance + fixedToFloat(g.XOffset),
				y:  -fixedToFloat(g.YOffset),
			})
			l.advance += fixedToFloat(g.Advance)
		}
	}
	return l, nil
}

// scriptOf returns the script of the first non-space rune.
func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func (c *Canvas) fontFace() *Face {
	if c.face != nil {
		return c.face
	}
	return DefaultFace()
}

// MeasureText returns the advance width and the ascent+descent height of
// s at the given pixel size.
func (c *Canvas) MeasureText(s string, size float64) (w, h float64, err error) {
	l, err := c.fontFace().shape(s, size)
	if err != nil {
		return 0, 0, err
	}
	return l.advance, l.ascent + l.descent, nil
}

// DrawText draws s at the given pixel size, centered on (x, y): the
// advance box is centered horizontally and the ascent+descent box
// vertically.
func (c *Canvas) DrawText(s string, x, y, size float64, col color.Color) error {
	if size <= 0 {
		return fmt.Errorf("overlay: invalid text size %v", size)
	}
	f := c.fontFace()
	l, err := f.shape(s, size)
	if err != nil {
		return err
	}
	if len(l.glyphs) == 0 {
		return nil
	}

	left := x - l.advance/2
	top := y - (l.ascent+l.descent)/2
	ox, oy := math.Floor(left), math.Floor(top)
	w := int(math.Ceil(left-ox+l.advance)) + 1
	h := int(math.Ceil(top-oy+l.ascent+l.descent)) + 1

	// Glyph bounds may overhang the advance box; pad the mask.
	pad := int(math.Ceil(size / 4))
	mw, mh := w+2*pad, h+2*pad
	baseX := left - ox + float64(pad)
	baseY := top - oy + l.ascent + float64(pad)

	z := vector.NewRasterizer(mw, mh)
	ppem := fixed.Int26_6(math.Round(size * 64))
	var buf sfnt.Buffer
	for _, g := range l.glyphs {
		segs, err := f.outlines.LoadGlyph(&buf, g.id, ppem, nil)
		if err != nil {
			return fmt.Errorf("overlay: load glyph %d: %w", g.id, err)
		}
		addSegments(z, segs, float32(baseX+g.x), float32(baseY+g.y))
	}

	mask := image.NewAlpha(image.Rect(0, 0, mw, mh))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	dst := image.Rect(int(ox)-pad, int(oy)-pad, int(ox)-pad+mw, int(oy)-pad+mh)
	draw.DrawMask(c.img, dst, image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

// addSegments appends a glyph outline (y down, origin on the baseline)
// to z with its origin at (dx, dy).
func addSegments(z *vector.Rasterizer, segs sfnt.Segments, dx, dy float32) {
	pt := func(p fixed.Point26_6) (float32, float32) {
		return dx + float32(p.X)/64, dy + float32(p.Y)/64
	}
	open := false
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(s.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			ex, ey := pt(s.Args[2])
			z.CubeTo(bx, by, cx, cy, ex, ey)
		}
	}
	if open {
		z.ClosePath()
	}
}
