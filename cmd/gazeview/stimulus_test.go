package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gazeview/gaze"
	"github.com/gogpu/gazeview/ycbcr"
)

func testConfig() config {
	return config{width: 192, height: 108, mode: modeText, text: "Hi", fontSize: 24, throttle: 4 * time.Millisecond}
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stimulus.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestTextStimulus(t *testing.T) {
	c := testConfig()
	r, err := textStimulus(c, nil)
	if err != nil {
		t.Fatalf("textStimulus: %v", err)
	}
	if r.Width() != c.width || r.Height() != c.height {
		t.Fatalf("raster %dx%d", r.Width(), r.Height())
	}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	lit := 0
	for _, v := range r.Y.Pix {
		if v > 128 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("no text in the luma plane")
	}
	if got := r.Y.At(0, 0); got != 16 {
		t.Errorf("background luma = %d, want 16", got)
	}
}

func TestPNGStimulus_FitsAndCenters(t *testing.T) {
	c := testConfig()
	img, err := loadPNG(writePNG(t, solid(50, 50, color.NRGBA{R: 255, A: 255})))
	if err != nil {
		t.Fatal(err)
	}
	r, err := pngStimulus(c, img)
	if err != nil {
		t.Fatal(err)
	}
	// 50x50 scaled to 108x108 and centered: columns 42..149.
	y, cb, cr := ycbcr.Encode(255, 0, 0)
	near := func(a, b uint8) bool { return a+1 >= b && b+1 >= a }
	if got := r.Y.At(96, 54); !near(got, y) {
		t.Errorf("center luma = %d, want %d", got, y)
	}
	if gcb, gcr := r.ChromaAt(96, 54); !near(gcb, cb) || !near(gcr, cr) {
		t.Errorf("center chroma = (%d,%d), want (%d,%d)", gcb, gcr, cb, cr)
	}
	if got := r.Y.At(10, 54); got != 16 {
		t.Errorf("letterbox luma = %d, want 16", got)
	}
}

func TestPanorama_CropsToEven(t *testing.T) {
	r, err := panorama(solid(33, 17, color.NRGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	if r.Width() != 32 || r.Height() != 16 {
		t.Errorf("panorama = %dx%d, want 32x16", r.Width(), r.Height())
	}
	if _, err := panorama(solid(1, 1, color.NRGBA{A: 255})); err == nil {
		t.Error("1x1 panorama accepted")
	}
}

func TestGazeTextPainter(t *testing.T) {
	c := testConfig()
	r, err := ycbcr.NewRaster(c.width, c.height)
	if err != nil {
		t.Fatal(err)
	}
	p := newGazeTextPainter(c)

	litColumns := func() (minX, maxX int) {
		minX, maxX = c.width, -1
		for y := 0; y < c.height; y++ {
			for x, v := range r.Y.Row(y) {
				if v > 0 {
					minX, maxX = min(minX, x), max(maxX, x)
				}
			}
		}
		return minX, maxX
	}

	if err := p.paint(r, gaze.Sample{X: 0.25, Y: 0.5}); err != nil {
		t.Fatal(err)
	}
	lo, hi := litColumns()
	if hi < 0 || (lo+hi)/2 > c.width/2 {
		t.Errorf("text at x=0.25 spans columns %d..%d", lo, hi)
	}
	if err := p.paint(r, gaze.Sample{X: 0.75, Y: 0.5}); err != nil {
		t.Fatal(err)
	}
	lo2, hi2 := litColumns()
	if lo2 <= lo || hi2 <= hi {
		t.Errorf("text did not follow gaze: %d..%d then %d..%d", lo, hi, lo2, hi2)
	}
	if r.Cb.At(0, 0) != ycbcr.Neutral {
		t.Error("chroma not neutral")
	}
}
