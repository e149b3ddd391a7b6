package window

import "encoding/binary"

// X event types (X.h).
const (
	xKeyPress        = 2
	xConfigureNotify = 22
	xClientMessage   = 33
)

// xEventSize is sizeof(XEvent) on LP64: a union padded to 24 longs.
const xEventSize = 24 * 8

// xEvent is the raw storage XNextEvent writes into.
type xEvent [xEventSize]byte

func (e *xEvent) int32At(off int) int32 { return int32(binary.LittleEndian.Uint32(e[off:])) }
func (e *xEvent) uint64At(off int) uint64 { return binary.LittleEndian.Uint64(e[off:]) }

type eventKind int

const (
	eventOther eventKind = iota
	eventKey
	eventResize
	eventClose
)

// event is the part of an X event the window acts on.
type event struct {
	kind          eventKind
	width, height int
}

// Field offsets on LP64 (Xlib.h). All events start with type, serial,
// send_event, display and the window they are reported on.
const (
	offConfigureWidth  = 56
	offConfigureHeight = 60
	offClientType      = 40
	offClientData      = 56
)

// decode classifies e. wmProtocols and wmDelete are the interned
// WM_PROTOCOLS and WM_DELETE_WINDOW atoms.
func (e *xEvent) decode(wmProtocols, wmDelete uint64) event {
	switch e.int32At(0) {
	case xKeyPress:
		return event{kind: eventKey}
	case xConfigureNotify:
		return event{
			kind:   eventResize,
			width:  int(e.int32At(offConfigureWidth)),
			height: int(e.int32At(offConfigureHeight)),
		}
	case xClientMessage:
		if e.uint64At(offClientType) == wmProtocols && e.uint64At(offClientData) == wmDelete {
			return event{kind: eventClose}
		}
	}
	return event{kind: eventOther}
}
