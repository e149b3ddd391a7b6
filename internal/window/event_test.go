package window

import (
	"encoding/binary"
	"testing"
)

const (
	testProtocols = 301
	testDelete    = 302
)

func newEvent(typ int32) *xEvent {
	var e xEvent
	binary.LittleEndian.PutUint32(e[0:], uint32(typ))
	return &e
}

func TestDecode_ConfigureNotify(t *testing.T) {
	e := newEvent(xConfigureNotify)
	binary.LittleEndian.PutUint32(e[offConfigureWidth:], 1280)
	binary.LittleEndian.PutUint32(e[offConfigureHeight:], 720)

	got := e.decode(testProtocols, testDelete)
	if got.kind != eventResize || got.width != 1280 || got.height != 720 {
		t.Errorf("decode = %+v, want resize to 1280x720", got)
	}
}

func TestDecode_ClientMessage(t *testing.T) {
	tests := []struct {
		name       string
		typ, datum uint64
		want       eventKind
	}{
		{"delete window", testProtocols, testDelete, eventClose},
		{"other protocol", testProtocols, 999, eventOther},
		{"other message", 999, testDelete, eventOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEvent(xClientMessage)
			binary.LittleEndian.PutUint64(e[offClientType:], tt.typ)
			binary.LittleEndian.PutUint64(e[offClientData:], tt.datum)
			if got := e.decode(testProtocols, testDelete); got.kind != tt.want {
				t.Errorf("decode kind = %v, want %v", got.kind, tt.want)
			}
		})
	}
}

func TestDecode_KeyAndOther(t *testing.T) {
	if got := newEvent(xKeyPress).decode(testProtocols, testDelete); got.kind != eventKey {
		t.Errorf("key press decoded as %v", got.kind)
	}
	if got := newEvent(12).decode(testProtocols, testDelete); got.kind != eventOther { // Expose
		t.Errorf("expose decoded as %v", got.kind)
	}
}
