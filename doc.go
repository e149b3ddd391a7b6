// Package gazeview draws gaze-contingent stimuli on a planar YCbCr
// display.
//
// # Overview
//
// Frames are composed on the CPU as 8-bit RGB, converted to limited range
// BT.601 YCbCr 4:2:0 and uploaded as three single-channel textures. A
// fragment shader decodes them back to RGB and can reproject an
// equirectangular panorama for the current viewer orientation.
//
// # Packages
//
//   - ycbcr: planar rasters and the RGB to YCbCr converter
//   - reproject: orientation, pinhole intrinsics and the CPU reference
//     reprojection
//   - display: the surface manager, GPU textures and frame statistics
//   - overlay: RGBA canvas with text and image drawing
//   - gaze: Pupil Capture gaze subscriber and the gaze cursor
//
// # Logging
//
// Nothing is logged by default. SetLogger installs one logger for every
// package:
//
//	gazeview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
//
// # Build tags
//
// The nogpu tag removes the display package and its GPU backends from the
// build. The conversion, reprojection, overlay and gaze packages do not
// depend on a GPU.
package gazeview
