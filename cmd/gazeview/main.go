//go:build linux && !nogpu

// Command gazeview presents planar YCbCr stimuli on a Vulkan surface:
// text and images, equirectangular panoramas reprojected by orientation,
// and gaze-contingent displays driven by Pupil Capture.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gogpu/gazeview"
	"github.com/gogpu/gazeview/gaze"
	"github.com/gogpu/gazeview/internal/window"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// The window and the GPU surface are driven from the main thread.
func init() { runtime.LockOSThread() }

var _ appWindow = (*window.Window)(nil)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	cfg, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	session := uuid.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel})).
		With("session", session.String())
	gazeview.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := window.Open(window.Config{
		Width:      cfg.width,
		Height:     cfg.height,
		Title:      "gazeview",
		Fullscreen: cfg.fullscreen,
		HideCursor: cfg.fullscreen || cfg.mode == modeCursor,
	})
	if err != nil {
		logger.Error("gazeview: open window", "err", err)
		return 1
	}
	defer win.Close()

	var src gazeSource
	if cfg.needsTracker() {
		sub := gaze.NewSubscriber(gaze.WithAddress(cfg.tracker))
		go func() {
			if err := sub.Run(ctx); err != nil {
				logger.Error("gazeview: tracker", "err", err)
				stop()
			}
		}()
		src = sub
	}

	if err := run(ctx, cfg, win, src, logger); err != nil {
		logger.Error("gazeview: failed", "err", err)
		return 1
	}
	return 0
}
