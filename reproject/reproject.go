// Package reproject implements the equirectangular reprojection used by
// the display shader, on the CPU.
//
// The display shader and this package share one mapping: a luma-plane
// coordinate becomes a ray, the ray is rotated by the viewer orientation
// (Rz·Ry·Rx), and its spherical angles select a sample in the panoramic
// source. The CPU version drives tests and offline rendering of
// panoramic frames.
package reproject

import (
	"math"
	"sync/atomic"

	"github.com/gogpu/gazeview/internal/parallel"
	"github.com/gogpu/gazeview/ycbcr"
)

// Mode selects how the fragment stage addresses the luma plane.
type Mode uint32

const (
	// Flat samples the luma plane at the unmodified coordinate.
	Flat Mode = iota

	// Panoramic reprojects the coordinate through the equirectangular
	// mapping before sampling.
	Panoramic
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Flat:
		return "flat"
	case Panoramic:
		return "panoramic"
	default:
		return "unknown"
	}
}

// Orientation is the viewer head orientation in radians. Angles are free:
// they are never wrapped.
type Orientation struct {
	Roll  float32 // about X
	Pitch float32 // about Y
	Yaw   float32 // about Z
}

// Add returns the component-wise sum.
func (o Orientation) Add(d Orientation) Orientation {
	return Orientation{Roll: o.Roll + d.Roll, Pitch: o.Pitch + d.Pitch, Yaw: o.Yaw + d.Yaw}
}

// IsZero reports whether all three angles are zero.
func (o Orientation) IsZero() bool {
	return o == Orientation{}
}

// Vec3 is a column vector.
type Vec3 [3]float64

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return v
	}
	return Vec3{v[0] / n, v[1] / n, v[2] / n}
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return r
}

// Apply returns m·v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// RotX returns the rotation by a about the X axis.
func RotX(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

// RotY returns the rotation by a about the Y axis.
func RotY(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

// RotZ returns the rotation by a about the Z axis.
func RotZ(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// Rotation returns Rz(yaw)·Ry(pitch)·Rx(roll).
func Rotation(o Orientation) Mat3 {
	return RotZ(float64(o.Yaw)).Mul(RotY(float64(o.Pitch))).Mul(RotX(float64(o.Roll)))
}

// Intrinsics describes the pinhole used to turn a luma coordinate into a
// ray. The zero value is the identity: the ray is (x, y, 1).
type Intrinsics struct {
	Fx, Fy float64
	Cx, Cy float64
}

// Pinhole returns intrinsics with focal length f centered on a w x h
// frame.
func Pinhole(w, h int, f float64) Intrinsics {
	return Intrinsics{Fx: f, Fy: f, Cx: float64(w) / 2, Cy: float64(h) / 2}
}

// Normalized returns k with zero focal lengths replaced by 1.
func (k Intrinsics) Normalized() Intrinsics {
	if k.Fx == 0 {
		k.Fx = 1
	}
	if k.Fy == 0 {
		k.Fy = 1
	}
	return k
}

// Ray returns the unnormalized ray K⁻¹·(x, y, 1).
func (k Intrinsics) Ray(x, y float64) Vec3 {
	k = k.Normalized()
	return Vec3{(x - k.Cx) / k.Fx, (y - k.Cy) / k.Fy, 1}
}

// Sphere maps a ray, rotated by r, to a coordinate in a w x h
// equirectangular plane.
func Sphere(ray Vec3, r Mat3, w, h int) (sx, sy float64) {
	d := r.Apply(ray.Normalize())
	theta := math.Atan2(d[1], math.Hypot(d[0], d[2]))
	phi := math.Atan2(d[0], d[2])
	sx = (phi/math.Pi + 1) * float64(w) / 2
	sy = (theta + math.Pi/2) * float64(h) / math.Pi
	return sx, sy
}

// Equirect maps luma coordinate (x, y) to a coordinate in a w x h
// equirectangular plane for orientation o, using the identity
// intrinsics.
func Equirect(x, y float64, w, h int, o Orientation) (sx, sy float64) {
	return Sphere(Vec3{x, y, 1}, Rotation(o), w, h)
}

// Lookup returns the coordinate the fragment stage samples for luma
// coordinate (x, y). Flat mode returns the coordinate unchanged.
func Lookup(mode Mode, x, y float64, w, h int, k Intrinsics, o Orientation) (sx, sy float64) {
	if mode != Panoramic {
		return x, y
	}
	return Sphere(k.Ray(x, y), Rotation(o), w, h)
}

// Project renders the view of panoramic raster src seen through k at
// orientation o into dst. Destination samples whose source coordinate
// falls outside src are left untouched. Chroma is written from the even
// luma coordinates of each block. It returns the number of luma samples
// written.
func Project(dst, src *ycbcr.Raster, k Intrinsics, o Orientation) int {
	r := Rotation(o)
	sw, sh := src.Width(), src.Height()
	var written atomic.Int64
	parallel.Rows(dst.Height(), func(lo, hi int) {
		n := 0
		for y := lo; y < hi; y++ {
			for x := 0; x < dst.Width(); x++ {
				fx, fy := Sphere(k.Ray(float64(x), float64(y)), r, sw, sh)
				if fx < 0 || fy < 0 {
					continue
				}
				sx, sy := int(fx), int(fy)
				if sx >= sw || sy >= sh {
					continue
				}
				dst.Y.Set(x, y, src.Y.At(sx, sy))
				n++
				if x%2 == 0 && y%2 == 0 {
					cb, cr := src.ChromaAt(sx, sy)
					dst.Cb.Set(x/2, y/2, cb)
					dst.Cr.Set(x/2, y/2, cr)
				}
			}
		}
		written.Add(int64(n))
	})
	return int(written.Load())
}

// Sweep advances an orientation by a fixed step per frame.
type Sweep struct {
	Step Orientation
	cur  Orientation
}

// NewSweep returns a sweep starting at the zero orientation.
func NewSweep(step Orientation) *Sweep {
	return &Sweep{Step: step}
}

// DefaultStep is the per-frame step of the panoramic demo loop.
var DefaultStep = Orientation{Roll: 0.001, Pitch: 0.003, Yaw: 0.001}

// Next returns the current orientation and advances by one step.
func (s *Sweep) Next() Orientation {
	o := s.cur
	s.cur = s.cur.Add(s.Step)
	return o
}
