// Package overlay draws stimulus imagery into an RGB canvas: filled
// rectangles, shaped text and scaled images.
//
// A Canvas is the RGB source consumed by the ycbcr color converter:
//
//	c := overlay.NewCanvas(1920, 1080)
//	c.FillRect(500, 500, 100, 100, color.NRGBA{G: 230, A: 128})
//	_ = c.DrawText("Hello", 960, 540, 80, color.White)
//	_ = ycbcr.Convert(raster, c.Image())
//
// Text is shaped with HarfBuzz (go-text/typesetting), split into
// directional runs with the Unicode bidi algorithm and rasterized from the
// font outlines with golang.org/x/image/vector.
package overlay
