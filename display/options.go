//go:build !nogpu

package display

import (
	"github.com/gogpu/gazeview/internal/gpu"
	"github.com/gogpu/gazeview/reproject"
	"github.com/gogpu/gputypes"
)

// Option configures a Manager during creation.
//
// Example:
//
//	m, err := display.New(win,
//		display.WithSwapInterval(0),
//		display.WithMode(reproject.Panoramic),
//		display.WithIntrinsics(reproject.Pinhole(1920, 1080, 672)),
//	)
type Option func(*options)

type options struct {
	backend      gputypes.Backend
	swapInterval int
	chromaOffset float32
	mode         reproject.Mode
	intrinsics   reproject.Intrinsics
	statsWindow  int
}

func defaultOptions() options {
	return options{
		backend:      gputypes.BackendVulkan,
		swapInterval: 1,
		chromaOffset: gpu.DefaultChromaOffset,
		mode:         reproject.Flat,
		statsWindow:  DefaultStatsWindow,
	}
}

// WithBackend selects the HAL backend. Default: gputypes.BackendVulkan.
// gputypes.BackendEmpty runs headless on the noop backend.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithSwapInterval sets the initial swap interval (see SetSwapInterval).
// Default: 1 (vsync).
func WithSwapInterval(n int) Option {
	return func(o *options) {
		o.swapInterval = n
	}
}

// WithChromaOffset sets the x shift, in chroma pixels, of the chroma
// texture coordinate. Default: 0.25.
func WithChromaOffset(dx float32) Option {
	return func(o *options) {
		o.chromaOffset = dx
	}
}

// WithMode sets the initial fragment mode. Default: reproject.Flat.
func WithMode(m reproject.Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithIntrinsics sets the pinhole used by the panoramic mode. The zero
// value (default) feeds the raw pixel coordinate as the ray.
func WithIntrinsics(k reproject.Intrinsics) Option {
	return func(o *options) {
		o.intrinsics = k
	}
}

// WithStatsWindow sets how many presented frames make up one frame-rate
// measurement. Default: DefaultStatsWindow.
func WithStatsWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.statsWindow = n
		}
	}
}
