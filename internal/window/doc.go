// Package window opens the output window on X11 and exposes it as a
// display.Window. libX11 is loaded at run time through goffi, the same
// FFI the Vulkan backend uses, so the binary builds with CGO_ENABLED=0.
//
// The GPU surface is created from the window's Display* and Window ID.
// Under a Wayland session the window runs on XWayland.
//
// A Window must be used from one goroutine, the render thread.
package window
