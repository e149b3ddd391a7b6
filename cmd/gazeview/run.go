//go:build !nogpu

package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/gazeview/display"
	"github.com/gogpu/gazeview/gaze"
	"github.com/gogpu/gazeview/reproject"
	"github.com/gogpu/gazeview/ycbcr"
)

// appWindow is the output window as the render loop sees it.
type appWindow interface {
	display.Window
	ShouldClose() bool
	PollEvents()
}

// gazeSource yields the latest tracker sample.
type gazeSource interface {
	Latest() (gaze.Sample, bool)
}

// gazeCounters is implemented by sources that count tracker messages.
type gazeCounters interface {
	Received() uint64
	Dropped() uint64
}

// stepFunc prepares the next frame. It reports whether a frame should be
// drawn this iteration.
type stepFunc func(now time.Time) (bool, error)

// app owns the display and the stimulus of one run.
type app struct {
	cfg   config
	win   appWindow
	src   gazeSource
	log   *slog.Logger
	m     *display.Manager
	tex   *display.Texture
	frame *ycbcr.Raster
	now   func() time.Time
}

// run opens the display on win, builds the stimulus for cfg.mode and
// draws until ctx is cancelled, the window closes or cfg.frames frames
// were presented.
func run(ctx context.Context, cfg config, win appWindow, src gazeSource, log *slog.Logger, opts ...display.Option) error {
	a := &app{cfg: cfg, win: win, src: src, log: log, now: time.Now}

	base := []display.Option{
		display.WithSwapInterval(cfg.swapInterval),
		display.WithStatsWindow(cfg.statsWindow),
	}
	if cfg.mode == modeEquirect && !cfg.cpuReproject {
		base = append(base,
			display.WithMode(reproject.Panoramic),
			display.WithIntrinsics(reproject.Pinhole(cfg.width, cfg.height, cfg.focal)))
	}
	m, err := display.New(win, append(base, opts...)...)
	if err != nil {
		return err
	}
	a.m = m
	defer m.Close()

	// Fails when the window manager did not give us the requested size.
	if err := m.Resize(cfg.width, cfg.height); err != nil {
		return err
	}

	step, err := a.stimulus()
	if err != nil {
		return fmt.Errorf("%s stimulus: %w", cfg.mode, err)
	}
	defer a.tex.Close()

	log.Info("gazeview: running", "mode", cfg.mode, "width", cfg.width, "height", cfg.height,
		"swap_interval", cfg.swapInterval, "frames", cfg.frames)

	drawn := 0
	for ctx.Err() == nil && !win.ShouldClose() {
		win.PollEvents()
		ok, err := step(a.now())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := m.Draw(a.tex); err != nil {
			return err
		}
		drawn++
		if cfg.frames > 0 && drawn >= cfg.frames {
			break
		}
	}
	a.logDone(drawn)
	return nil
}

func (a *app) logDone(drawn int) {
	attrs := []any{"frames", drawn, "fps", a.m.Stats().FPS()}
	if c, ok := a.src.(gazeCounters); ok {
		attrs = append(attrs, "gaze_received", c.Received(), "gaze_dropped", c.Dropped())
	}
	a.log.Info("gazeview: done", attrs...)
}

// stimulus creates the texture and returns the per-frame step for the
// configured mode.
func (a *app) stimulus() (stepFunc, error) {
	c := a.cfg
	always := func(time.Time) (bool, error) { return true, nil }

	switch c.mode {
	case modeText:
		var img image.Image
		if c.input != "" {
			var err error
			if img, err = loadPNG(c.input); err != nil {
				return nil, err
			}
		}
		r, err := textStimulus(c, img)
		if err != nil {
			return nil, err
		}
		return always, a.upload(r)

	case modePNG:
		img, err := loadPNG(c.input)
		if err != nil {
			return nil, err
		}
		r, err := pngStimulus(c, img)
		if err != nil {
			return nil, err
		}
		return always, a.upload(r)

	case modeEquirect:
		return a.equirect()

	case modeGaze:
		return a.gazeText()

	case modeCursor:
		return a.cursor()
	}
	return nil, fmt.Errorf("%w: unknown mode %q", errUsage, c.mode)
}

func (a *app) upload(r *ycbcr.Raster) error {
	if a.tex != nil {
		return a.tex.Upload(r)
	}
	tex, err := a.m.NewTexture(r)
	if err != nil {
		return err
	}
	a.tex = tex
	return nil
}

func (a *app) equirect() (stepFunc, error) {
	img, err := loadPNG(a.cfg.input)
	if err != nil {
		return nil, err
	}
	pano, err := panorama(img)
	if err != nil {
		return nil, err
	}
	next, err := a.orientation()
	if err != nil {
		return nil, err
	}

	if !a.cfg.cpuReproject {
		// The shader reprojects; the panorama is uploaded once.
		if err := a.upload(pano); err != nil {
			return nil, err
		}
		return func(time.Time) (bool, error) {
			a.m.SetOrientation(next())
			return true, nil
		}, nil
	}

	k := reproject.Pinhole(a.cfg.width, a.cfg.height, a.cfg.focal)
	if a.frame, err = ycbcr.NewRaster(a.cfg.width, a.cfg.height); err != nil {
		return nil, err
	}
	a.frame.Fill(ycbcr.Encode(0, 0, 0))
	reproject.Project(a.frame, pano, k, next())
	if err := a.upload(a.frame); err != nil {
		return nil, err
	}
	return func(time.Time) (bool, error) {
		reproject.Project(a.frame, pano, k, next())
		return true, a.tex.Upload(a.frame)
	}, nil
}

// orientation returns the per-frame view direction of the equirect mode:
// the latest valid gaze sample with --gaze-orientation, the sweep
// otherwise. Without a valid sample the previous direction is kept.
func (a *app) orientation() (func() reproject.Orientation, error) {
	if !a.cfg.gazeOrientation {
		step := reproject.Orientation{}
		if a.cfg.sweep {
			step = reproject.DefaultStep
		}
		return reproject.NewSweep(step).Next, nil
	}
	if a.src == nil {
		return nil, fmt.Errorf("%w: --gaze-orientation needs a tracker", errUsage)
	}
	var cur reproject.Orientation
	return func() reproject.Orientation {
		if s, ok := a.src.Latest(); ok && s.Valid() {
			cur = gaze.ToOrientation(s, a.cfg.fovX, a.cfg.fovY)
		}
		return cur
	}, nil
}

func (a *app) blankFrame() error {
	var err error
	if a.frame, err = ycbcr.NewRaster(a.cfg.width, a.cfg.height); err != nil {
		return err
	}
	a.frame.Fill(ycbcr.Encode(0, 0, 0))
	return a.upload(a.frame)
}

// gazeText redraws the text whenever a new sample arrives.
func (a *app) gazeText() (stepFunc, error) {
	if a.src == nil {
		return nil, fmt.Errorf("%w: gaze mode needs a tracker", errUsage)
	}
	if err := a.blankFrame(); err != nil {
		return nil, err
	}
	painter := newGazeTextPainter(a.cfg)
	var last time.Time
	return func(time.Time) (bool, error) {
		s, ok := a.src.Latest()
		if ok && s.Time.After(last) {
			last = s.Time
			if err := painter.paint(a.frame, s); err != nil {
				return false, err
			}
			if err := a.tex.Upload(a.frame); err != nil {
				return false, err
			}
		}
		return true, nil
	}, nil
}

// cursor draws a dot at the gaze position, at most once per throttle
// interval, and only while samples are available.
func (a *app) cursor() (stepFunc, error) {
	if a.src == nil {
		return nil, fmt.Errorf("%w: cursor mode needs a tracker", errUsage)
	}
	if err := a.blankFrame(); err != nil {
		return nil, err
	}
	var prev time.Time
	cursor := gaze.Cursor{}
	return func(now time.Time) (bool, error) {
		s, ok := a.src.Latest()
		if !ok || !s.Valid() {
			return false, nil
		}
		if now.Sub(prev) < a.cfg.throttle {
			return false, nil
		}
		prev = now
		x, y := s.Pixel(a.frame.Width(), a.frame.Height())
		cursor.Paint(a.frame, x, y)
		return true, a.tex.Upload(a.frame)
	}, nil
}
