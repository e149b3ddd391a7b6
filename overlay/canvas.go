package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// Canvas is an RGBA drawing surface with a black, opaque background.
type Canvas struct {
	img  *image.RGBA
	face *Face
}

// NewCanvas returns a w x h canvas cleared to black. Text is drawn with
// the Go Regular face until SetFace is called.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	c.Clear(color.Black)
	return c
}

// Image returns the backing image. It aliases the canvas pixels.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// SetFace selects the face used by DrawText. nil restores the default.
func (c *Canvas) SetFace(f *Face) { c.face = f }

// Clear fills the whole canvas with col, replacing what was there.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect composites col over the rectangle with its top-left corner at
// (x, y). Parts outside the canvas are clipped.
func (c *Canvas) FillRect(x, y, w, h int, col color.NRGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(c.img.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// DrawImage scales img by scale with a Catmull-Rom filter and composites
// it with its top-left corner at (x, y).
func (c *Canvas) DrawImage(img image.Image, scale float64, x, y int) {
	if img == nil || scale <= 0 {
		return
	}
	b := img.Bounds()
	w := int(float64(b.Dx())*scale + 0.5)
	h := int(float64(b.Dy())*scale + 0.5)
	if w == 0 || h == 0 {
		return
	}
	dst := image.Rect(x, y, x+w, y+h)
	if dst.Intersect(c.img.Rect).Empty() {
		return
	}
	xdraw.CatmullRom.Scale(c.img, dst, img, b, xdraw.Over, nil)
}

// DecodePNG decodes a PNG image from r.
func DecodePNG(r io.Reader) (image.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("overlay: decode png: %w", err)
	}
	return img, nil
}
