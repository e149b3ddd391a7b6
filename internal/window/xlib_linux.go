//go:build linux

package window

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// ErrNoX11 is returned when libX11 cannot be loaded.
var ErrNoX11 = errors.New("window: libX11 not available")

// Xlib function indices.
const (
	fnInitThreads = iota
	fnOpenDisplay
	fnCloseDisplay
	fnDefaultScreen
	fnRootWindow
	fnBlackPixel
	fnCreateSimpleWindow
	fnDestroyWindow
	fnStoreName
	fnSelectInput
	fnMapRaised
	fnInternAtom
	fnSetWMProtocols
	fnChangeProperty
	fnResizeWindow
	fnGetGeometry
	fnPending
	fnNextEvent
	fnLookupKeysym
	fnFlush
	fnCreateBitmapFromData
	fnCreatePixmapCursor
	fnDefineCursor
	fnFreePixmap
	fnFreeCursor
	fnCount
)

// xfunc is one resolved Xlib entry point.
type xfunc struct {
	name string
	ret  *types.TypeDescriptor
	args []*types.TypeDescriptor

	sym unsafe.Pointer
	cif types.CallInterface
}

// Type shorthands on LP64: XID, Atom and unsigned long are 64 bit, Bool
// and Status are int.
var (
	tPtr = types.PointerTypeDescriptor
	tInt = types.SInt32TypeDescriptor
	tU32 = types.UInt32TypeDescriptor
	tU64 = types.UInt64TypeDescriptor
	tI64 = types.SInt64TypeDescriptor
)

func signatures() [fnCount]xfunc {
	return [fnCount]xfunc{
		fnInitThreads:          {name: "XInitThreads", ret: tInt},
		fnOpenDisplay:          {name: "XOpenDisplay", ret: tPtr, args: []*types.TypeDescriptor{tPtr}},
		fnCloseDisplay:         {name: "XCloseDisplay", ret: tInt, args: []*types.TypeDescriptor{tPtr}},
		fnDefaultScreen:        {name: "XDefaultScreen", ret: tInt, args: []*types.TypeDescriptor{tPtr}},
		fnRootWindow:           {name: "XRootWindow", ret: tU64, args: []*types.TypeDescriptor{tPtr, tInt}},
		fnBlackPixel:           {name: "XBlackPixel", ret: tU64, args: []*types.TypeDescriptor{tPtr, tInt}},
		fnCreateSimpleWindow:   {name: "XCreateSimpleWindow", ret: tU64, args: []*types.TypeDescriptor{tPtr, tU64, tInt, tInt, tU32, tU32, tU32, tU64, tU64}},
		fnDestroyWindow:        {name: "XDestroyWindow", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64}},
		fnStoreName:            {name: "XStoreName", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tPtr}},
		fnSelectInput:          {name: "XSelectInput", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tI64}},
		fnMapRaised:            {name: "XMapRaised", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64}},
		fnInternAtom:           {name: "XInternAtom", ret: tU64, args: []*types.TypeDescriptor{tPtr, tPtr, tInt}},
		fnSetWMProtocols:       {name: "XSetWMProtocols", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tPtr, tInt}},
		fnChangeProperty:       {name: "XChangeProperty", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tU64, tU64, tInt, tInt, tPtr, tInt}},
		fnResizeWindow:         {name: "XResizeWindow", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tU32, tU32}},
		fnGetGeometry:          {name: "XGetGeometry", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tPtr, tPtr, tPtr, tPtr, tPtr, tPtr, tPtr}},
		fnPending:              {name: "XPending", ret: tInt, args: []*types.TypeDescriptor{tPtr}},
		fnNextEvent:            {name: "XNextEvent", ret: tInt, args: []*types.TypeDescriptor{tPtr, tPtr}},
		fnLookupKeysym:         {name: "XLookupKeysym", ret: tU64, args: []*types.TypeDescriptor{tPtr, tInt}},
		fnFlush:                {name: "XFlush", ret: tInt, args: []*types.TypeDescriptor{tPtr}},
		fnCreateBitmapFromData: {name: "XCreateBitmapFromData", ret: tU64, args: []*types.TypeDescriptor{tPtr, tU64, tPtr, tU32, tU32}},
		fnCreatePixmapCursor:   {name: "XCreatePixmapCursor", ret: tU64, args: []*types.TypeDescriptor{tPtr, tU64, tU64, tPtr, tPtr, tU32, tU32}},
		fnDefineCursor:         {name: "XDefineCursor", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64, tU64}},
		fnFreePixmap:           {name: "XFreePixmap", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64}},
		fnFreeCursor:           {name: "XFreeCursor", ret: tInt, args: []*types.TypeDescriptor{tPtr, tU64}},
	}
}

// xlib holds the loaded library. It is loaded once per process and never
// unloaded: the Vulkan driver keeps using the Display it was given.
type xlib struct {
	lib unsafe.Pointer
	fns [fnCount]xfunc
}

var loadXlib = sync.OnceValues(func() (*xlib, error) {
	lib, err := ffi.LoadLibrary("libX11.so.6")
	if err != nil {
		if lib, err = ffi.LoadLibrary("libX11.so"); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoX11, err)
		}
	}
	x := &xlib{lib: lib, fns: signatures()}
	for i := range x.fns {
		f := &x.fns[i]
		if f.sym, err = ffi.GetSymbol(lib, f.name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoX11, err)
		}
		if err := ffi.PrepareCallInterface(&f.cif, types.DefaultCall, f.ret, f.args); err != nil {
			return nil, fmt.Errorf("window: prepare %s: %w", f.name, err)
		}
	}
	// Vulkan WSI may talk to the Display from driver threads.
	x.call(fnInitThreads, nil)
	return x, nil
})

// call invokes fn. Each arg points at the storage holding the argument
// value, and ret at storage for the result (nil to discard it).
func (x *xlib) call(fn int, ret unsafe.Pointer, args ...unsafe.Pointer) {
	f := &x.fns[fn]
	if ret == nil {
		var discard uint64
		ret = unsafe.Pointer(&discard)
	}
	_ = ffi.CallFunction(&f.cif, f.sym, ret, args)
}

// cstring returns a NUL-terminated copy of s.
func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func (x *xlib) openDisplay() uintptr {
	var name uintptr // NULL: use $DISPLAY
	var dpy uintptr
	x.call(fnOpenDisplay, unsafe.Pointer(&dpy), unsafe.Pointer(&name))
	return dpy
}

func (x *xlib) closeDisplay(dpy uintptr) {
	x.call(fnCloseDisplay, nil, unsafe.Pointer(&dpy))
}

func (x *xlib) internAtom(dpy uintptr, name string) uint64 {
	b := cstring(name)
	p := unsafe.Pointer(&b[0])
	var onlyIfExists int32
	var atom uint64
	x.call(fnInternAtom, unsafe.Pointer(&atom), unsafe.Pointer(&dpy), unsafe.Pointer(&p), unsafe.Pointer(&onlyIfExists))
	return atom
}

func (x *xlib) flush(dpy uintptr) {
	x.call(fnFlush, nil, unsafe.Pointer(&dpy))
}
