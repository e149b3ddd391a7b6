package gaze

import (
	"math"

	"github.com/gogpu/gazeview/ycbcr"
)

// Limited-range luma levels used by the cursor.
const (
	LumaWhite = 235
	LumaBlack = 16
)

// DefaultCursorRadius is the cursor radius in luma pixels.
const DefaultCursorRadius = 5

// Cursor paints a white disc on black. The zero value uses
// DefaultCursorRadius.
type Cursor struct {
	Radius float64
}

func (c Cursor) radius() float64 {
	if c.Radius <= 0 {
		return DefaultCursorRadius
	}
	return c.Radius
}

// Paint overwrites r: luma samples within the radius of (x, y) become
// LumaWhite, all others LumaBlack, and both chroma planes neutral.
func (c Cursor) Paint(r *ycbcr.Raster, x, y float64) {
	rad := c.radius()
	r.Fill(LumaBlack, ycbcr.Neutral, ycbcr.Neutral)
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}

	w, h := r.Width(), r.Height()
	x0 := max(0, int(math.Floor(x-rad)))
	x1 := min(w-1, int(math.Ceil(x+rad)))
	y0 := max(0, int(math.Floor(y-rad)))
	y1 := min(h-1, int(math.Ceil(y+rad)))
	r2 := rad * rad
	for py := y0; py <= y1; py++ {
		dy := y - float64(py)
		for px := x0; px <= x1; px++ {
			dx := x - float64(px)
			if dx*dx+dy*dy <= r2 {
				r.Y.Set(px, py, LumaWhite)
			}
		}
	}
}
