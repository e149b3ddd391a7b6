package gaze

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/go-zeromq/zmq4"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrMalformed is returned for gaze messages that cannot be decoded.
	ErrMalformed = errors.New("gaze: malformed message")

	// ErrRunning is returned when Run is called while another Run is
	// active.
	ErrRunning = errors.New("gaze: subscriber already running")
)

// datum is the subset of a Pupil gaze datum the subscriber reads.
type datum struct {
	Topic      string    `msgpack:"topic"`
	NormPos    []float64 `msgpack:"norm_pos"`
	Confidence float64   `msgpack:"confidence"`
	Timestamp  float64   `msgpack:"timestamp"`
}

// Subscriber receives gaze samples from Pupil Capture. Run receives on
// its own goroutine while the render loop polls Latest.
type Subscriber struct {
	opts options

	latest   atomic.Pointer[Sample]
	received atomic.Uint64
	dropped  atomic.Uint64
	running  atomic.Bool
}

// NewSubscriber returns an idle subscriber. Nothing is dialed until Run.
func NewSubscriber(opts ...Option) *Subscriber {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Subscriber{opts: o}
}

// Latest returns the most recent accepted sample. ok is false until the
// first one arrives.
func (s *Subscriber) Latest() (sample Sample, ok bool) {
	p := s.latest.Load()
	if p == nil {
		return Sample{}, false
	}
	return *p, true
}

// Received returns the number of accepted samples.
func (s *Subscriber) Received() uint64 { return s.received.Load() }

// Dropped returns the number of messages discarded as malformed, NaN or
// below the confidence threshold.
func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

// Run asks Pupil Remote for the SUB port, subscribes to the gaze topic and
// receives until ctx is cancelled. It returns nil on cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	host, _, err := net.SplitHostPort(s.opts.address)
	if err != nil {
		return fmt.Errorf("gaze: address %q: %w", s.opts.address, err)
	}

	port, err := s.subPort(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	sub := zmq4.NewSub(ctx)
	defer sub.Close()

	endpoint := "tcp://" + net.JoinHostPort(host, port)
	if err := sub.Dial(endpoint); err != nil {
		return fmt.Errorf("gaze: dial %s: %w", endpoint, err)
	}
	if err := sub.SetOption(zmq4.OptionSubscribe, s.opts.topic); err != nil {
		return fmt.Errorf("gaze: subscribe %q: %w", s.opts.topic, err)
	}
	slogger().Info("gaze: subscribed", "endpoint", endpoint, "topic", s.opts.topic)

	// Closing the socket unblocks Recv.
	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	defer stop()

	for {
		msg, err := sub.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("gaze: receive: %w", err)
		}
		sample, err := s.decode(msg.Frames)
		if err != nil {
			s.dropped.Add(1)
			slogger().Warn("gaze: dropping message", "err", err)
			continue
		}
		if !sample.Valid() || sample.Confidence < s.opts.minConfidence {
			s.dropped.Add(1)
			continue
		}
		s.latest.Store(&sample)
		s.received.Add(1)
	}
}

// subPort performs the Pupil Remote handshake.
func (s *Subscriber) subPort(ctx context.Context) (string, error) {
	req := zmq4.NewReq(ctx)
	defer req.Close()

	endpoint := "tcp://" + s.opts.address
	if err := req.Dial(endpoint); err != nil {
		return "", fmt.Errorf("gaze: dial pupil remote %s: %w", endpoint, err)
	}
	if err := req.Send(zmq4.NewMsgString("SUB_PORT")); err != nil {
		return "", fmt.Errorf("gaze: request SUB_PORT: %w", err)
	}
	reply, err := req.Recv()
	if err != nil {
		return "", fmt.Errorf("gaze: receive SUB_PORT: %w", err)
	}
	if len(reply.Frames) == 0 || len(reply.Frames[0]) == 0 {
		return "", fmt.Errorf("%w: empty SUB_PORT reply", ErrMalformed)
	}
	port := string(reply.Frames[0])
	slogger().Debug("gaze: pupil remote replied", "sub_port", port)
	return port, nil
}

// decode reads a [topic, payload] message.
func (s *Subscriber) decode(frames [][]byte) (Sample, error) {
	if len(frames) < 2 {
		return Sample{}, fmt.Errorf("%w: %d frames, want at least 2", ErrMalformed, len(frames))
	}
	var d datum
	if err := msgpack.Unmarshal(frames[1], &d); err != nil {
		return Sample{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(d.NormPos) < 2 {
		return Sample{}, fmt.Errorf("%w: norm_pos has %d components", ErrMalformed, len(d.NormPos))
	}
	return Sample{
		X:          d.NormPos[0],
		Y:          d.NormPos[1],
		Confidence: d.Confidence,
		Time:       s.opts.now(),
	}, nil
}
