package gaze

import (
	"math"
	"testing"

	"github.com/gogpu/gazeview/ycbcr"
)

func TestSample_Pixel(t *testing.T) {
	tests := []struct {
		s      Sample
		wx, wy float64
	}{
		{Sample{X: 0, Y: 0}, 0, 1080},
		{Sample{X: 1, Y: 1}, 1920, 0},
		{Sample{X: 0.5, Y: 0.5}, 960, 540},
		{Sample{X: 0.25, Y: 0.75}, 480, 270},
	}
	for _, tt := range tests {
		x, y := tt.s.Pixel(1920, 1080)
		if x != tt.wx || y != tt.wy {
			t.Errorf("Pixel(%v, %v) = (%v, %v), want (%v, %v)", tt.s.X, tt.s.Y, x, y, tt.wx, tt.wy)
		}
	}
}

func TestSample_Valid(t *testing.T) {
	if !(Sample{X: 0.3, Y: 2}).Valid() {
		t.Error("finite sample reported invalid")
	}
	for _, s := range []Sample{{X: math.NaN()}, {Y: math.NaN()}, {X: math.Inf(1)}} {
		if s.Valid() {
			t.Errorf("%+v reported valid", s)
		}
	}
}

func TestToOrientation(t *testing.T) {
	fov := math.Pi / 2
	if o := ToOrientation(Sample{X: 0.5, Y: 0.5}, fov, fov); !o.IsZero() {
		t.Errorf("center = %+v, want zero", o)
	}
	o := ToOrientation(Sample{X: 1, Y: 0}, fov, fov)
	if math.Abs(float64(o.Yaw)-math.Pi/4) > 1e-6 || math.Abs(float64(o.Pitch)+math.Pi/4) > 1e-6 || o.Roll != 0 {
		t.Errorf("bottom-right = %+v, want yaw π/4 pitch -π/4", o)
	}
}

func TestCursor_Paint(t *testing.T) {
	r, err := ycbcr.NewRaster(64, 48)
	if err != nil {
		t.Fatal(err)
	}
	r.Fill(99, 1, 2)
	Cursor{}.Paint(r, 20, 10)

	tests := []struct {
		x, y int
		want uint8
	}{
		{20, 10, LumaWhite},
		{25, 10, LumaWhite}, // on the radius
		{20, 5, LumaWhite},
		{26, 10, LumaBlack},
		{24, 14, LumaBlack}, // 4²+4² > 5²
		{23, 14, LumaWhite}, // 3²+4² = 5²
		{0, 0, LumaBlack},
		{63, 47, LumaBlack},
	}
	for _, tt := range tests {
		if got := r.Y.At(tt.x, tt.y); got != tt.want {
			t.Errorf("luma(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
	for i, v := range r.Cb.Pix {
		if v != 128 || r.Cr.Pix[i] != 128 {
			t.Fatalf("chroma %d = (%d,%d), want neutral", i, v, r.Cr.Pix[i])
		}
	}
}

func TestCursor_Clipped(t *testing.T) {
	r, err := ycbcr.NewRaster(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	Cursor{Radius: 3}.Paint(r, -2, 15)
	if got := r.Y.At(0, 15); got != LumaWhite {
		t.Errorf("edge luma = %d, want white", got)
	}
	if got := r.Y.At(2, 15); got != LumaBlack {
		t.Errorf("luma past radius = %d, want black", got)
	}

	Cursor{}.Paint(r, math.NaN(), 3)
	for _, v := range r.Y.Pix {
		if v != LumaBlack {
			t.Fatal("NaN position painted a cursor")
		}
	}
}
