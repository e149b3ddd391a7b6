package gaze

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/vmihailenco/msgpack/v5"
)

func payload(t *testing.T, v any) []byte {
	t.Helper()
	b, err := msgpack.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDecode(t *testing.T) {
	at := time.Unix(42, 0)
	s := NewSubscriber(WithClock(func() time.Time { return at }))

	got, err := s.decode([][]byte{[]byte("gaze.3d.0."), payload(t, map[string]any{
		"topic":      "gaze.3d.0.",
		"norm_pos":   []float64{0.25, 0.75},
		"confidence": 0.9,
		"timestamp":  1234.5,
		"base_data":  []any{"ignored"},
	})})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Sample{X: 0.25, Y: 0.75, Confidence: 0.9, Time: at}
	if got != want {
		t.Errorf("decode = %+v, want %+v", got, want)
	}
}

func TestDecode_Malformed(t *testing.T) {
	s := NewSubscriber()
	tests := []struct {
		name   string
		frames [][]byte
	}{
		{"single frame", [][]byte{[]byte("gaze")}},
		{"not msgpack", [][]byte{[]byte("gaze"), {0xc1}}},
		{"no norm_pos", [][]byte{[]byte("gaze"), payload(t, map[string]any{"confidence": 1.0})}},
		{"short norm_pos", [][]byte{[]byte("gaze"), payload(t, map[string]any{"norm_pos": []float64{0.5}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.decode(tt.frames); !errors.Is(err, ErrMalformed) {
				t.Errorf("decode = %v, want ErrMalformed", err)
			}
		})
	}
}

// fakePupil answers SUB_PORT on a REP socket and publishes on a PUB
// socket, like Pupil Capture.
type fakePupil struct {
	remote zmq4.Socket
	pub    zmq4.Socket
	addr   string
}

func newFakePupil(t *testing.T, ctx context.Context) *fakePupil {
	t.Helper()
	f := &fakePupil{remote: zmq4.NewRep(ctx), pub: zmq4.NewPub(ctx)}
	t.Cleanup(func() {
		_ = f.remote.Close()
		_ = f.pub.Close()
	})
	if err := f.remote.Listen("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("listen remote: %v", err)
	}
	if err := f.pub.Listen("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("listen pub: %v", err)
	}
	f.addr = f.remote.Addr().String()
	_, pubPort, err := net.SplitHostPort(f.pub.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		req, err := f.remote.Recv()
		if err != nil || string(req.Frames[0]) != "SUB_PORT" {
			return
		}
		_ = f.remote.Send(zmq4.NewMsgString(pubPort))
	}()
	return f
}

func (f *fakePupil) publish(t *testing.T, topic string, v any) {
	t.Helper()
	if err := f.pub.Send(zmq4.NewMsgFrom([]byte(topic), payload(t, v))); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestSubscriber_Run(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pupil := newFakePupil(t, ctx)

	s := NewSubscriber(WithAddress(pupil.addr), WithMinConfidence(0.5))
	if _, ok := s.Latest(); ok {
		t.Fatal("Latest before any sample reported ok")
	}
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()

	// A SUB socket misses whatever is published before it connects, so
	// keep publishing until a sample lands.
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for s.Received() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("no sample received")
		case <-tick.C:
		}
		pupil.publish(t, "gaze.3d.0.", map[string]any{"norm_pos": []float64{math.NaN(), 0.5}, "confidence": 1.0})
		pupil.publish(t, "gaze.3d.0.", map[string]any{"norm_pos": []float64{0.1, 0.2}, "confidence": 0.2})
		pupil.publish(t, "pupil.0", map[string]any{"norm_pos": []float64{0.9, 0.9}, "confidence": 1.0})
		pupil.publish(t, "gaze.3d.0.", map[string]any{"norm_pos": []float64{0.3, 0.6}, "confidence": 0.95})
	}

	got, ok := s.Latest()
	if !ok || got.X != 0.3 || got.Y != 0.6 {
		t.Errorf("Latest = %+v, %v; want (0.3, 0.6)", got, ok)
	}
	// The subscription may have started mid-burst; once connected, a NaN
	// sample must be dropped.
	for s.Dropped() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("NaN sample was not dropped")
		case <-tick.C:
		}
		pupil.publish(t, "gaze.3d.0.", map[string]any{"norm_pos": []float64{math.NaN(), 0.5}, "confidence": 1.0})
	}
	if got, _ := s.Latest(); got.X != 0.3 {
		t.Errorf("dropped sample replaced Latest: %+v", got)
	}
	if err := s.Run(ctx); !errors.Is(err, ErrRunning) {
		t.Errorf("second Run = %v, want ErrRunning", err)
	}

	stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run after cancel = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSubscriber_BadAddress(t *testing.T) {
	s := NewSubscriber(WithAddress("no-port"))
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run accepted an address without a port")
	}
}
