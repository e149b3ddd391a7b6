package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/gogpu/gazeview/gaze"
	"github.com/gogpu/gazeview/overlay"
	"github.com/gogpu/gazeview/ycbcr"
)

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return overlay.DecodePNG(f)
}

// textStimulus composites a translucent green square, img at a tenth of
// its size with its top-left corner on the center, and centered white
// text, then encodes the result.
func textStimulus(c config, img image.Image) (*ycbcr.Raster, error) {
	canvas := overlay.NewCanvas(c.width, c.height)
	canvas.FillRect(c.width*500/1920, c.height*500/1080, 100, 100, color.NRGBA{G: 230, A: 128})
	if img != nil {
		canvas.DrawImage(img, 0.1, c.width/2, c.height/2)
	}
	if err := canvas.DrawText(c.text, float64(c.width)/2, float64(c.height)/2, c.fontSize, color.White); err != nil {
		return nil, err
	}
	return encode(canvas.Image())
}

// pngStimulus scales img to fit the output and centers it.
func pngStimulus(c config, img image.Image) (*ycbcr.Raster, error) {
	b := img.Bounds()
	scale := min(float64(c.width)/float64(b.Dx()), float64(c.height)/float64(b.Dy()))
	canvas := overlay.NewCanvas(c.width, c.height)
	w, h := int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)
	canvas.DrawImage(img, scale, (c.width-w)/2, (c.height-h)/2)
	return encode(canvas.Image())
}

// panorama encodes an equirectangular image at its own size, dropping a
// trailing odd row or column.
func panorama(img image.Image) (*ycbcr.Raster, error) {
	b := img.Bounds()
	w, h := b.Dx()&^1, b.Dy()&^1
	r, err := ycbcr.NewRaster(w, h)
	if err != nil {
		return nil, err
	}
	src := img
	if w != b.Dx() || h != b.Dy() {
		crop := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				crop.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		src = crop
	}
	if err := ycbcr.Convert(r, src); err != nil {
		return nil, err
	}
	return r, nil
}

func encode(img image.Image) (*ycbcr.Raster, error) {
	b := img.Bounds()
	r, err := ycbcr.NewRaster(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if err := ycbcr.Convert(r, img); err != nil {
		return nil, fmt.Errorf("encode stimulus: %w", err)
	}
	return r, nil
}

// gazeTextPainter redraws a word centered on the horizontal gaze position,
// halfway down the frame, as a monochrome luma stimulus.
type gazeTextPainter struct {
	canvas *overlay.Canvas
	text   string
	size   float64
}

func newGazeTextPainter(c config) *gazeTextPainter {
	return &gazeTextPainter{canvas: overlay.NewCanvas(c.width, c.height), text: "Eye", size: c.fontSize}
}

func (p *gazeTextPainter) paint(dst *ycbcr.Raster, s gaze.Sample) error {
	p.canvas.Clear(color.Black)
	x, _ := s.Pixel(dst.Width(), dst.Height())
	if err := p.canvas.DrawText(p.text, x, float64(dst.Height())/2, p.size, color.White); err != nil {
		return err
	}
	return ycbcr.LumaFromGreen(dst, p.canvas.Image())
}
