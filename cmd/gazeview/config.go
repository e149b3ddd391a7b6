package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Stimulus modes.
const (
	modeText     = "text"
	modePNG      = "png"
	modeEquirect = "equirect"
	modeGaze     = "gaze"
	modeCursor   = "cursor"
)

var modes = []string{modeText, modePNG, modeEquirect, modeGaze, modeCursor}

var errUsage = errors.New("usage")

// config is the parsed command line.
type config struct {
	width, height int
	fullscreen    bool
	swapInterval  int
	mode          string
	input         string
	text          string
	fontSize      float64
	tracker       string
	sweep         bool
	cpuReproject  bool
	focal         float64

	// gazeOrientation steers the equirect view with the tracker; fovX
	// and fovY are the view angles in radians spanned by the frame.
	gazeOrientation bool
	fovX, fovY      float64

	frames        int
	statsWindow   int
	throttle      time.Duration
	logLevel      slog.Level
}

func parseFlags(args []string) (config, error) {
	var c config
	var level string
	var fovX, fovY float64
	fs := pflag.NewFlagSet("gazeview", pflag.ContinueOnError)
	fs.IntVarP(&c.width, "width", "W", 1920, "output width in pixels")
	fs.IntVarP(&c.height, "height", "H", 1080, "output height in pixels")
	fs.BoolVarP(&c.fullscreen, "fullscreen", "f", false, "fullscreen on the primary monitor")
	fs.IntVar(&c.swapInterval, "swap-interval", 1, "0 immediate, 1 vsync, -1 adaptive vsync")
	fs.StringVarP(&c.mode, "mode", "m", modeText, "stimulus: "+strings.Join(modes, ", "))
	fs.StringVarP(&c.input, "input", "i", "", "PNG file for the png and equirect modes")
	fs.StringVar(&c.text, "text", "Hello, world", "text drawn in the text mode")
	fs.Float64Var(&c.fontSize, "font-size", 80, "text size in pixels")
	fs.StringVar(&c.tracker, "tracker", "127.0.0.1:4587", "Pupil Remote address for the gaze and cursor modes")
	fs.BoolVar(&c.sweep, "sweep", true, "rotate the panorama every frame in the equirect mode")
	fs.BoolVar(&c.cpuReproject, "cpu-reproject", false, "reproject the panorama on the CPU instead of in the shader")
	fs.Float64Var(&c.focal, "focal", 672, "pinhole focal length in pixels for the equirect mode")
	fs.BoolVar(&c.gazeOrientation, "gaze-orientation", false, "steer the equirect view with the tracker instead of the sweep")
	fs.Float64Var(&fovX, "fov-x", 180, "horizontal view angle in degrees spanned by the frame for --gaze-orientation")
	fs.Float64Var(&fovY, "fov-y", 90, "vertical view angle in degrees spanned by the frame for --gaze-orientation")
	fs.IntVarP(&c.frames, "frames", "n", 0, "stop after this many frames (0 runs until the window closes)")
	fs.IntVar(&c.statsWindow, "stats-window", 480, "frames per frame-rate report")
	fs.DurationVar(&c.throttle, "throttle", 4*time.Millisecond, "minimum time between cursor frames")
	fs.StringVar(&level, "log-level", "info", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return c, fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := c.logLevel.UnmarshalText([]byte(level)); err != nil {
		return c, fmt.Errorf("%w: --log-level: %w", errUsage, err)
	}
	c.fovX, c.fovY = fovX*math.Pi/180, fovY*math.Pi/180
	return c, c.validate()
}

func (c config) validate() error {
	switch {
	case !slices.Contains(modes, c.mode):
		return fmt.Errorf("%w: unknown mode %q", errUsage, c.mode)
	case c.width <= 0 || c.height <= 0 || c.width%2 != 0 || c.height%2 != 0:
		return fmt.Errorf("%w: size %dx%d must be positive and even", errUsage, c.width, c.height)
	case c.swapInterval < -1 || c.swapInterval > 1:
		return fmt.Errorf("%w: swap interval %d", errUsage, c.swapInterval)
	case (c.mode == modePNG || c.mode == modeEquirect) && c.input == "":
		return fmt.Errorf("%w: mode %s needs --input", errUsage, c.mode)
	case c.frames < 0:
		return fmt.Errorf("%w: negative frame limit", errUsage)
	case c.fontSize <= 0:
		return fmt.Errorf("%w: font size must be positive", errUsage)
	case c.gazeOrientation && c.mode != modeEquirect:
		return fmt.Errorf("%w: --gaze-orientation needs the equirect mode", errUsage)
	case c.gazeOrientation && (c.fovX <= 0 || c.fovY <= 0):
		return fmt.Errorf("%w: view angles must be positive", errUsage)
	}
	return nil
}

func (c config) needsTracker() bool {
	return c.mode == modeGaze || c.mode == modeCursor || (c.mode == modeEquirect && c.gazeOrientation)
}
