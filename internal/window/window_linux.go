//go:build linux

package window

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unsafe"
)

// ErrNoDisplay is returned when the X server cannot be reached.
var ErrNoDisplay = errors.New("window: cannot open X display")

// resizeSettle bounds how long SetSize waits for the window manager.
const resizeSettle = 250 * time.Millisecond

// X protocol constants (X.h, Xatom.h, keysymdef.h).
const (
	keyPressMask        = 1 << 0
	exposureMask        = 1 << 15
	structureNotifyMask = 1 << 17

	xaAtom          = 4
	propModeReplace = 0

	xkEscape = 0xff1b
)

// Config describes the window to open.
type Config struct {
	Width, Height int
	Title         string

	// Fullscreen asks the window manager for a fullscreen window on the
	// current monitor.
	Fullscreen bool

	// HideCursor hides the pointer while it is over the window.
	HideCursor bool
}

// Window is an X11 window. It implements display.Window.
type Window struct {
	x      *xlib
	dpy    uintptr
	win    uint64
	cursor uint64

	wmProtocols, wmDelete uint64

	width, height int
	shouldClose   bool
}

// Open connects to the X server and maps the window.
func Open(cfg Config) (_ *Window, err error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("window: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	x, err := loadXlib()
	if err != nil {
		return nil, err
	}
	// The Vulkan backend picks a Wayland surface whenever WAYLAND_DISPLAY
	// is set; this window always hands it Xlib handles.
	_ = os.Unsetenv("WAYLAND_DISPLAY")

	w := &Window{x: x, dpy: x.openDisplay()}
	if w.dpy == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoDisplay, os.Getenv("DISPLAY"))
	}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()

	var screen int32
	x.call(fnDefaultScreen, unsafe.Pointer(&screen), unsafe.Pointer(&w.dpy))
	var root, black uint64
	x.call(fnRootWindow, unsafe.Pointer(&root), unsafe.Pointer(&w.dpy), unsafe.Pointer(&screen))
	x.call(fnBlackPixel, unsafe.Pointer(&black), unsafe.Pointer(&w.dpy), unsafe.Pointer(&screen))

	var posX, posY int32
	width, height := uint32(cfg.Width), uint32(cfg.Height) //nolint:gosec // checked positive
	var border uint32
	x.call(fnCreateSimpleWindow, unsafe.Pointer(&w.win),
		unsafe.Pointer(&w.dpy), unsafe.Pointer(&root),
		unsafe.Pointer(&posX), unsafe.Pointer(&posY),
		unsafe.Pointer(&width), unsafe.Pointer(&height), unsafe.Pointer(&border),
		unsafe.Pointer(&black), unsafe.Pointer(&black))
	if w.win == 0 {
		return nil, fmt.Errorf("window: create %dx%d failed", cfg.Width, cfg.Height)
	}

	title := cstring(cfg.Title)
	titlePtr := unsafe.Pointer(&title[0])
	x.call(fnStoreName, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win), unsafe.Pointer(&titlePtr))

	mask := int64(keyPressMask | exposureMask | structureNotifyMask)
	x.call(fnSelectInput, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win), unsafe.Pointer(&mask))

	w.wmProtocols = x.internAtom(w.dpy, "WM_PROTOCOLS")
	w.wmDelete = x.internAtom(w.dpy, "WM_DELETE_WINDOW")
	protocols := [1]uint64{w.wmDelete}
	protocolsPtr := unsafe.Pointer(&protocols[0])
	count := int32(1)
	x.call(fnSetWMProtocols, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win), unsafe.Pointer(&protocolsPtr), unsafe.Pointer(&count))

	if cfg.Fullscreen {
		w.setFullscreen()
	}
	if cfg.HideCursor {
		w.hideCursor()
	}

	x.call(fnMapRaised, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win))
	x.flush(w.dpy)
	w.width, w.height = w.geometry()
	return w, nil
}

// setFullscreen sets _NET_WM_STATE before mapping, as EWMH asks.
func (w *Window) setFullscreen() {
	state := w.x.internAtom(w.dpy, "_NET_WM_STATE")
	data := [1]uint64{w.x.internAtom(w.dpy, "_NET_WM_STATE_FULLSCREEN")}
	dataPtr := unsafe.Pointer(&data[0])
	typ := uint64(xaAtom)
	format, mode, n := int32(32), int32(propModeReplace), int32(1)
	w.x.call(fnChangeProperty, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win),
		unsafe.Pointer(&state), unsafe.Pointer(&typ), unsafe.Pointer(&format),
		unsafe.Pointer(&mode), unsafe.Pointer(&dataPtr), unsafe.Pointer(&n))
}

// hideCursor installs an empty 8x8 bitmap cursor.
func (w *Window) hideCursor() {
	var bits [8]byte
	bitsPtr := unsafe.Pointer(&bits[0])
	side := uint32(8)
	var pix uint64
	w.x.call(fnCreateBitmapFromData, unsafe.Pointer(&pix), unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win),
		unsafe.Pointer(&bitsPtr), unsafe.Pointer(&side), unsafe.Pointer(&side))
	if pix == 0 {
		return
	}
	// XColor: pixel, red, green, blue, flags, pad.
	var black [16]byte
	blackPtr := unsafe.Pointer(&black[0])
	var hot uint32
	w.x.call(fnCreatePixmapCursor, unsafe.Pointer(&w.cursor), unsafe.Pointer(&w.dpy),
		unsafe.Pointer(&pix), unsafe.Pointer(&pix), unsafe.Pointer(&blackPtr), unsafe.Pointer(&blackPtr),
		unsafe.Pointer(&hot), unsafe.Pointer(&hot))
	w.x.call(fnFreePixmap, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&pix))
	if w.cursor != 0 {
		w.x.call(fnDefineCursor, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win), unsafe.Pointer(&w.cursor))
	}
}

// geometry asks the server for the window size.
func (w *Window) geometry() (width, height int) {
	var root uint64
	var x, y int32
	var gw, gh, border, depth uint32
	ptrs := [7]unsafe.Pointer{
		unsafe.Pointer(&root), unsafe.Pointer(&x), unsafe.Pointer(&y),
		unsafe.Pointer(&gw), unsafe.Pointer(&gh), unsafe.Pointer(&border), unsafe.Pointer(&depth),
	}
	var status int32
	w.x.call(fnGetGeometry, unsafe.Pointer(&status), unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win),
		unsafe.Pointer(&ptrs[0]), unsafe.Pointer(&ptrs[1]), unsafe.Pointer(&ptrs[2]),
		unsafe.Pointer(&ptrs[3]), unsafe.Pointer(&ptrs[4]), unsafe.Pointer(&ptrs[5]), unsafe.Pointer(&ptrs[6]))
	if status == 0 {
		return w.width, w.height
	}
	return int(gw), int(gh)
}

// Size returns the window size in pixels as last reported by the server.
func (w *Window) Size() (width, height int) { return w.width, w.height }

// ScaleFactor returns 1: X11 sizes are already in pixels.
func (w *Window) ScaleFactor() float64 { return 1 }

// RequestRedraw is a no-op; the render loop draws continuously.
func (w *Window) RequestRedraw() {}

// SetSize asks for a width x height window and processes events until
// the server reports that size or resizeSettle elapses. The caller checks
// the outcome with Size.
func (w *Window) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	rw, rh := uint32(width), uint32(height) //nolint:gosec // checked positive
	w.x.call(fnResizeWindow, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win), unsafe.Pointer(&rw), unsafe.Pointer(&rh))
	w.x.flush(w.dpy)

	deadline := time.Now().Add(resizeSettle)
	for time.Now().Before(deadline) {
		w.PollEvents()
		if w.width == width && w.height == height {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	w.width, w.height = w.geometry()
}

// NativeHandles returns the Xlib Display* and the Window ID.
func (w *Window) NativeHandles() (display, window uintptr) {
	return w.dpy, uintptr(w.win)
}

// ShouldClose reports whether the window manager asked to close the
// window or Escape was pressed.
func (w *Window) ShouldClose() bool { return w.shouldClose }

// PollEvents handles all queued events without blocking.
func (w *Window) PollEvents() {
	var pending int32
	for {
		w.x.call(fnPending, unsafe.Pointer(&pending), unsafe.Pointer(&w.dpy))
		if pending == 0 {
			return
		}
		var ev xEvent
		evPtr := unsafe.Pointer(&ev[0])
		w.x.call(fnNextEvent, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&evPtr))
		w.handle(&ev)
	}
}

func (w *Window) handle(ev *xEvent) {
	e := ev.decode(w.wmProtocols, w.wmDelete)
	switch e.kind {
	case eventResize:
		w.width, w.height = e.width, e.height
	case eventClose:
		w.shouldClose = true
	case eventKey:
		evPtr := unsafe.Pointer(&ev[0])
		var index int32
		var sym uint64
		w.x.call(fnLookupKeysym, unsafe.Pointer(&sym), unsafe.Pointer(&evPtr), unsafe.Pointer(&index))
		if sym == xkEscape {
			w.shouldClose = true
		}
	}
}

// Close destroys the window and closes the display connection. The GPU
// surface created for it must be released first.
func (w *Window) Close() {
	if w.dpy == 0 {
		return
	}
	if w.cursor != 0 {
		w.x.call(fnFreeCursor, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.cursor))
		w.cursor = 0
	}
	if w.win != 0 {
		w.x.call(fnDestroyWindow, nil, unsafe.Pointer(&w.dpy), unsafe.Pointer(&w.win))
		w.win = 0
	}
	w.x.closeDisplay(w.dpy)
	w.dpy = 0
}
