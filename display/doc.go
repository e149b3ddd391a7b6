//go:build !nogpu

// Package display presents planar YCbCr 4:2:0 frames on a window.
//
// A Manager owns the GPU surface of one Window, the display pipeline and
// the Texture that is current. Frames flow:
//
//	raster (ycbcr.Raster) -> Texture.Upload -> Manager.Draw -> present
//
// Each Repaint compares the window size with the size the manager last
// applied. On a change it rebuilds the screen quad, the viewport and the
// uniforms and reconfigures the surface before drawing. Resize asks the
// window for a new size and fails with ErrResizeRejected if the platform
// does not honor it: resize is never best-effort.
//
// The fragment stage runs in one of two modes (reproject.Flat or
// reproject.Panoramic). In panoramic mode the luma coordinate is
// reprojected through the equirectangular mapping driven by
// SetOrientation, so a single uploaded panorama can be re-viewed each
// frame without another upload.
//
// A Manager is not safe for concurrent use. Drive it from one render
// goroutine.
//
// Example:
//
//	m, err := display.New(win, display.WithSwapInterval(1))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	tex, err := m.NewTexture(raster)
//	if err != nil {
//		return err
//	}
//	defer tex.Close()
//
//	for !win.ShouldClose() {
//		if err := m.Draw(tex); err != nil {
//			return err
//		}
//	}
package display
