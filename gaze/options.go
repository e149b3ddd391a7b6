package gaze

import "time"

// DefaultAddress is the Pupil Remote endpoint of a local Pupil Capture.
const DefaultAddress = "127.0.0.1:4587"

// DefaultTopic is the gaze topic prefix.
const DefaultTopic = "gaze"

// Option configures a Subscriber.
type Option func(*options)

type options struct {
	address       string
	topic         string
	minConfidence float64
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		address: DefaultAddress,
		topic:   DefaultTopic,
		now:     time.Now,
	}
}

// WithAddress sets the Pupil Remote host:port. Default: DefaultAddress.
func WithAddress(addr string) Option {
	return func(o *options) {
		o.address = addr
	}
}

// WithTopic sets the subscription prefix. Default: "gaze".
func WithTopic(topic string) Option {
	return func(o *options) {
		o.topic = topic
	}
}

// WithMinConfidence drops samples whose confidence is below c.
// Default: 0, every sample is kept.
func WithMinConfidence(c float64) Option {
	return func(o *options) {
		o.minConfidence = c
	}
}

// WithClock sets the function used to timestamp received samples.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
