package ycbcr

import (
	"errors"
	"fmt"
	"image"
)

// Raster errors.
var (
	// ErrOddDimensions is returned when a raster width or height is not a
	// positive even number.
	ErrOddDimensions = errors.New("ycbcr: raster dimensions must be positive and even")

	// ErrPlaneSize is returned when a plane does not match the layout
	// implied by the luma dimensions.
	ErrPlaneSize = errors.New("ycbcr: plane size does not match 4:2:0 layout")

	// ErrSizeMismatch is returned when a source image and a raster differ
	// in size.
	ErrSizeMismatch = errors.New("ycbcr: source and raster sizes differ")

	// ErrSubsampleRatio is returned when adopting an image.YCbCr that is
	// not 4:2:0.
	ErrSubsampleRatio = errors.New("ycbcr: only 4:2:0 subsampling is supported")
)

// Plane is one 8-bit sample plane stored row-major with a stride equal to
// its width.
type Plane struct {
	Width  int
	Height int
	Pix    []uint8
}

func newPlane(w, h int) Plane {
	return Plane{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) uint8 {
	return p.Pix[y*p.Width+x]
}

// Set stores the sample at (x, y).
func (p *Plane) Set(x, y int, v uint8) {
	p.Pix[y*p.Width+x] = v
}

// Row returns the samples of row y. The slice aliases the plane memory.
func (p *Plane) Row(y int) []uint8 {
	off := y * p.Width
	return p.Pix[off : off+p.Width : off+p.Width]
}

// Fill sets every sample of the plane to v.
func (p *Plane) Fill(v uint8) {
	for i := range p.Pix {
		p.Pix[i] = v
	}
}

func (p *Plane) valid(w, h int) bool {
	return p.Width == w && p.Height == h && len(p.Pix) == w*h
}

// Raster is a planar YCbCr 4:2:0 frame: a full resolution luma plane and
// two chroma planes at half width and half height.
//
// Chroma sample (cx, cy) covers luma samples (2cx, 2cy), (2cx+1, 2cy),
// (2cx, 2cy+1) and (2cx+1, 2cy+1).
type Raster struct {
	Y  Plane
	Cb Plane
	Cr Plane
}

// NewRaster allocates a raster for a w x h frame. Both dimensions must be
// positive and even.
func NewRaster(w, h int) (*Raster, error) {
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrOddDimensions, w, h)
	}
	return &Raster{
		Y:  newPlane(w, h),
		Cb: newPlane(w/2, h/2),
		Cr: newPlane(w/2, h/2),
	}, nil
}

// Width returns the luma width.
func (r *Raster) Width() int { return r.Y.Width }

// Height returns the luma height.
func (r *Raster) Height() int { return r.Y.Height }

// Bounds returns the luma rectangle anchored at the origin.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Y.Width, r.Y.Height)
}

// Validate reports whether the three planes agree with the 4:2:0 layout.
func (r *Raster) Validate() error {
	w, h := r.Y.Width, r.Y.Height
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("%w: %dx%d", ErrOddDimensions, w, h)
	}
	if !r.Y.valid(w, h) {
		return fmt.Errorf("%w: luma %dx%d with %d bytes", ErrPlaneSize, w, h, len(r.Y.Pix))
	}
	if !r.Cb.valid(w/2, h/2) {
		return fmt.Errorf("%w: Cb is %dx%d, want %dx%d", ErrPlaneSize, r.Cb.Width, r.Cb.Height, w/2, h/2)
	}
	if !r.Cr.valid(w/2, h/2) {
		return fmt.Errorf("%w: Cr is %dx%d, want %dx%d", ErrPlaneSize, r.Cr.Width, r.Cr.Height, w/2, h/2)
	}
	return nil
}

// Fill sets every luma sample to y and every chroma pair to (cb, cr).
func (r *Raster) Fill(y, cb, cr uint8) {
	r.Y.Fill(y)
	r.Cb.Fill(cb)
	r.Cr.Fill(cr)
}

// ChromaAt returns the chroma pair that covers luma sample (x, y).
func (r *Raster) ChromaAt(x, y int) (cb, cr uint8) {
	return r.Cb.At(x/2, y/2), r.Cr.At(x/2, y/2)
}

// YCbCr returns an image.YCbCr that shares the raster memory.
func (r *Raster) YCbCr() *image.YCbCr {
	return &image.YCbCr{
		Y:              r.Y.Pix,
		Cb:             r.Cb.Pix,
		Cr:             r.Cr.Pix,
		YStride:        r.Y.Width,
		CStride:        r.Cb.Width,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           r.Bounds(),
	}
}

// FromYCbCr copies a 4:2:0 image into a newly allocated raster.
func FromYCbCr(img *image.YCbCr) (*Raster, error) {
	if img.SubsampleRatio != image.YCbCrSubsampleRatio420 {
		return nil, fmt.Errorf("%w: got %v", ErrSubsampleRatio, img.SubsampleRatio)
	}
	b := img.Bounds()
	r, err := NewRaster(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.Y.Height; y++ {
		off := img.YOffset(b.Min.X, b.Min.Y+y)
		copy(r.Y.Row(y), img.Y[off:off+r.Y.Width])
	}
	for cy := 0; cy < r.Cb.Height; cy++ {
		off := img.COffset(b.Min.X, b.Min.Y+2*cy)
		copy(r.Cb.Row(cy), img.Cb[off:off+r.Cb.Width])
		copy(r.Cr.Row(cy), img.Cr[off:off+r.Cr.Width])
	}
	return r, nil
}
