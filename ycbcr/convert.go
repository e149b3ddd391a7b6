package ycbcr

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gazeview/internal/parallel"
)

// Encode coefficients (Rec. 709 luma weights, limited range quantization).
const (
	kr = 0.2125
	kg = 0.7154
	kb = 0.0721

	cbR = -0.115
	cbG = -0.386
	cbB = 0.500

	crR = 0.500
	crG = -0.454
	crB = -0.046

	lumaScale   = 219
	lumaOffset  = 16
	chromaScale = 224
	chromaZero  = 128
)

// Decode coefficients (SMPTE 170M). They intentionally differ from the
// encode side; see DecodeFloat.
const (
	decY     = 1.16438356164384
	decCrR   = 1.59567019581339
	decCbG   = 0.391260370716072
	decCrG   = 0.813004933873461
	decCbB   = 2.01741475897078
	yFloor   = 16.0 / 255.0
	cNeutral = 128.0 / 255.0
)

// Neutral is the chroma value that carries no color.
const Neutral = chromaZero

// EncodeFloat converts normalized RGB (nominally [0,1]) to limited range
// YCbCr. Out of range inputs and results are clamped; the result is
// truncated toward zero.
func EncodeFloat(r, g, b float64) (y, cb, cr uint8) {
	r, g, b = clamp01(r), clamp01(g), clamp01(b)
	ey := kr*r + kg*g + kb*b
	epb := cbR*r + cbG*g + cbB*b
	epr := crR*r + crG*g + crB*b
	return quantize(lumaScale*ey + lumaOffset),
		quantize(chromaScale*epb + chromaZero),
		quantize(chromaScale*epr + chromaZero)
}

// Encode converts an 8-bit RGB triple to limited range YCbCr.
func Encode(r, g, b uint8) (y, cb, cr uint8) {
	return EncodeFloat(float64(r)/255, float64(g)/255, float64(b)/255)
}

// DecodeFloat reconstructs normalized RGB from limited range YCbCr with
// the same matrix the display shader uses. Each channel is clamped to
// [0,1].
func DecodeFloat(y, cb, cr uint8) (r, g, b float64) {
	fy := decY * (float64(y)/255 - yFloor)
	fcb := float64(cb)/255 - cNeutral
	fcr := float64(cr)/255 - cNeutral
	r = clamp01(fy + decCrR*fcr)
	g = clamp01(fy - decCbG*fcb - decCrG*fcr)
	b = clamp01(fy + decCbB*fcb)
	return r, g, b
}

// Decode is DecodeFloat scaled to 8 bits with rounding.
func Decode(y, cb, cr uint8) (r, g, b uint8) {
	fr, fg, fb := DecodeFloat(y, cb, cr)
	return uint8(fr*255 + 0.5), uint8(fg*255 + 0.5), uint8(fb*255 + 0.5)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func quantize(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Sample is one chroma pair.
type Sample struct {
	Cb, Cr uint8
}

// ChromaSampler reduces the four chroma pairs of a 2x2 luma block to the
// single pair stored in the chroma planes. The block is ordered top-left,
// top-right, bottom-left, bottom-right.
type ChromaSampler func(block [4]Sample) Sample

// PointSample keeps the top-left pair and discards the other three.
func PointSample(block [4]Sample) Sample {
	return block[0]
}

// AverageSample returns the rounded mean of the four pairs.
func AverageSample(block [4]Sample) Sample {
	var cb, cr int
	for _, s := range block {
		cb += int(s.Cb)
		cr += int(s.Cr)
	}
	return Sample{Cb: uint8((cb + 2) / 4), Cr: uint8((cr + 2) / 4)}
}

// Converter fills rasters from RGB images.
//
// The zero value point-samples chroma.
type Converter struct {
	// Chroma selects the subsampling policy. Nil means PointSample.
	Chroma ChromaSampler
}

// Convert encodes src into dst. src must have the raster's dimensions.
func (c Converter) Convert(dst *Raster, src image.Image) error {
	if err := dst.Validate(); err != nil {
		return err
	}
	b := src.Bounds()
	if b.Dx() != dst.Width() || b.Dy() != dst.Height() {
		return fmt.Errorf("%w: source %dx%d, raster %dx%d",
			ErrSizeMismatch, b.Dx(), b.Dy(), dst.Width(), dst.Height())
	}
	sampler := c.Chroma
	if sampler == nil {
		sampler = PointSample
	}
	rgb := rgbReader(src)

	// Each band owns whole chroma rows and the two luma rows under them.
	parallel.Rows(dst.Cb.Height, func(lo, hi int) {
		var block [4]Sample
		for cy := lo; cy < hi; cy++ {
			for cx := 0; cx < dst.Cb.Width; cx++ {
				for i := 0; i < 4; i++ {
					x, y := 2*cx+i%2, 2*cy+i/2
					r, g, bl := rgb(b.Min.X+x, b.Min.Y+y)
					luma, cb, cr := Encode(r, g, bl)
					dst.Y.Set(x, y, luma)
					block[i] = Sample{Cb: cb, Cr: cr}
				}
				s := sampler(block)
				dst.Cb.Set(cx, cy, s.Cb)
				dst.Cr.Set(cx, cy, s.Cr)
			}
		}
	})
	return nil
}

// Convert encodes src into dst with point-sampled chroma.
func Convert(dst *Raster, src image.Image) error {
	return Converter{}.Convert(dst, src)
}

// LumaFromGreen copies the green channel of src straight into the luma
// plane and sets chroma to neutral. It is the monochrome path used for
// text and cursor stimuli.
func LumaFromGreen(dst *Raster, src image.Image) error {
	if err := dst.Validate(); err != nil {
		return err
	}
	b := src.Bounds()
	if b.Dx() != dst.Width() || b.Dy() != dst.Height() {
		return fmt.Errorf("%w: source %dx%d, raster %dx%d",
			ErrSizeMismatch, b.Dx(), b.Dy(), dst.Width(), dst.Height())
	}
	rgb := rgbReader(src)
	for y := 0; y < dst.Height(); y++ {
		row := dst.Y.Row(y)
		for x := range row {
			_, g, _ := rgb(b.Min.X+x, b.Min.Y+y)
			row[x] = g
		}
	}
	dst.Cb.Fill(Neutral)
	dst.Cr.Fill(Neutral)
	return nil
}

// rgbReader returns a fast accessor for the common image types and falls
// back to color.Color conversion otherwise.
func rgbReader(src image.Image) func(x, y int) (r, g, b uint8) {
	switch img := src.(type) {
	case *image.RGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := img.PixOffset(x, y)
			return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		}
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := img.PixOffset(x, y)
			return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		}
	default:
		return func(x, y int) (uint8, uint8, uint8) {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			return c.R, c.G, c.B
		}
	}
}
