package gaze

import (
	"math"
	"time"

	"github.com/gogpu/gazeview/reproject"
)

// Sample is one gaze position in normalized scene coordinates: (0, 0) is
// the bottom-left corner, (1, 1) the top-right one.
type Sample struct {
	X, Y       float64
	Confidence float64
	Time       time.Time
}

// Valid reports whether both coordinates are numbers.
func (s Sample) Valid() bool {
	return !math.IsNaN(s.X) && !math.IsNaN(s.Y) && !math.IsInf(s.X, 0) && !math.IsInf(s.Y, 0)
}

// Pixel maps s to a pixel position in a w x h frame with the origin at
// the top-left corner.
func (s Sample) Pixel(w, h int) (x, y float64) {
	return s.X * float64(w), (1 - s.Y) * float64(h)
}

// ToOrientation turns a gaze sample into a viewing direction: the frame
// center looks straight ahead and the edges are half the field of view
// away. fovX and fovY are in radians. Looking right increases yaw and
// looking up increases pitch.
func ToOrientation(s Sample, fovX, fovY float64) reproject.Orientation {
	return reproject.Orientation{
		Yaw:   float32((s.X - 0.5) * fovX),
		Pitch: float32((s.Y - 0.5) * fovY),
	}
}
