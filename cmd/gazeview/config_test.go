package main

import (
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"
)

func TestParseFlags_Defaults(t *testing.T) {
	c, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if c.width != 1920 || c.height != 1080 || c.mode != modeText || c.swapInterval != 1 {
		t.Errorf("defaults = %+v", c)
	}
	if c.throttle != 4*time.Millisecond || c.statsWindow != 480 || c.logLevel != slog.LevelInfo {
		t.Errorf("throttle %v stats %d level %v", c.throttle, c.statsWindow, c.logLevel)
	}
	if c.needsTracker() {
		t.Error("text mode needs no tracker")
	}
}

func TestParseFlags(t *testing.T) {
	c, err := parseFlags([]string{"-m", "cursor", "--swap-interval=0", "-W", "1280", "-H", "720", "--log-level", "debug", "-n", "10"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if c.mode != modeCursor || c.swapInterval != 0 || c.width != 1280 || c.height != 720 || c.frames != 10 {
		t.Errorf("parsed = %+v", c)
	}
	if c.logLevel != slog.LevelDebug || !c.needsTracker() {
		t.Errorf("level %v tracker %v", c.logLevel, c.needsTracker())
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := [][]string{
		{"--mode", "video"},
		{"--width", "1921"},
		{"--height", "0"},
		{"--swap-interval", "2"},
		{"--mode", "png"},
		{"--mode", "equirect"},
		{"--frames", "-1"},
		{"--font-size", "0"},
		{"--log-level", "loud"},
		{"--gaze-orientation"},
		{"-m", "equirect", "-i", "p.png", "--gaze-orientation", "--fov-x", "0"},
		{"--no-such-flag"},
	}
	for _, args := range tests {
		if _, err := parseFlags(args); !errors.Is(err, errUsage) {
			t.Errorf("parseFlags(%q) = %v, want usage error", args, err)
		}
	}
}

func TestParseFlags_GazeOrientation(t *testing.T) {
	tests := []struct {
		args        []string
		wantTracker bool
	}{
		{[]string{"-m", "equirect", "-i", "p.png"}, false},
		{[]string{"-m", "equirect", "-i", "p.png", "--gaze-orientation"}, true},
	}
	for _, tt := range tests {
		c, err := parseFlags(tt.args)
		if err != nil {
			t.Fatalf("parseFlags(%q): %v", tt.args, err)
		}
		if got := c.needsTracker(); got != tt.wantTracker {
			t.Errorf("parseFlags(%q).needsTracker() = %v, want %v", tt.args, got, tt.wantTracker)
		}
	}

	c, err := parseFlags([]string{"-m", "equirect", "-i", "p.png", "--gaze-orientation", "--fov-x", "90", "--fov-y", "60"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if math.Abs(c.fovX-math.Pi/2) > 1e-12 || math.Abs(c.fovY-math.Pi/3) > 1e-12 {
		t.Errorf("fov = %v, %v rad", c.fovX, c.fovY)
	}
}
