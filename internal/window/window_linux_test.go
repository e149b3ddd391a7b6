//go:build linux

package window

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestOpen_InvalidSize(t *testing.T) {
	if _, err := Open(Config{Width: 0, Height: 720}); err == nil {
		t.Error("Open accepted a zero width")
	}
}

func TestOpen_NoServer(t *testing.T) {
	t.Setenv("DISPLAY", ":4093")
	t.Setenv("WAYLAND_DISPLAY", "")
	w, err := Open(Config{Width: 64, Height: 64, Title: "test"})
	if err == nil {
		w.Close()
		t.Fatal("Open succeeded without an X server")
	}
	if !errors.Is(err, ErrNoDisplay) && !errors.Is(err, ErrNoX11) {
		t.Errorf("Open = %v, want ErrNoDisplay or ErrNoX11", err)
	}
}

func TestHandle_CloseAndResize(t *testing.T) {
	w := &Window{wmProtocols: testProtocols, wmDelete: testDelete}

	e := newEvent(xConfigureNotify)
	binary.LittleEndian.PutUint32(e[offConfigureWidth:], 1280)
	binary.LittleEndian.PutUint32(e[offConfigureHeight:], 720)
	w.handle(e)
	if gw, gh := w.Size(); gw != 1280 || gh != 720 {
		t.Errorf("Size = %dx%d after configure, want 1280x720", gw, gh)
	}

	c := newEvent(xClientMessage)
	binary.LittleEndian.PutUint64(c[offClientType:], testProtocols)
	binary.LittleEndian.PutUint64(c[offClientData:], testDelete)
	w.handle(c)
	if !w.ShouldClose() {
		t.Error("WM_DELETE_WINDOW did not request close")
	}
}
