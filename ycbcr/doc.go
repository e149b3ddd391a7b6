// Package ycbcr holds the planar YCbCr 4:2:0 raster and the color
// conversion between full range RGB and limited range YCbCr.
//
// Encoding uses Rec. 709 style luma weights
// (0.2125, 0.7154, 0.0721) quantized to the limited 16..235 / 16..240
// ranges. Decoding uses the SMPTE 170M matrix, the same matrix the
// display shader applies on the GPU. The two sides are deliberately not
// inverses of each other; existing captured content was encoded against
// this decoder.
//
// Chroma subsampling is a policy:
//
//	dst, _ := ycbcr.NewRaster(1920, 1080)
//	conv := ycbcr.Converter{Chroma: ycbcr.PointSample}
//	if err := conv.Convert(dst, img); err != nil {
//	    return err
//	}
package ycbcr
