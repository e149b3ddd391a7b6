package display

import "time"

// DefaultStatsWindow is the number of frames per frame-rate measurement.
const DefaultStatsWindow = 480

// FrameStats counts presented frames and measures the frame rate over
// fixed windows of frames.
type FrameStats struct {
	window int
	frames uint64
	start  time.Time
	inWin  int
	fps    float64
}

// NewFrameStats returns statistics measured every window frames.
func NewFrameStats(window int) *FrameStats {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return &FrameStats{window: window}
}

// Tick records a frame presented at now. It returns the frame rate and
// true when the frame completes a window.
func (s *FrameStats) Tick(now time.Time) (fps float64, done bool) {
	s.frames++
	if s.inWin == 0 {
		s.start = now
	}
	s.inWin++
	if s.inWin <= s.window {
		return 0, false
	}
	// The window spans s.window frame intervals.
	if elapsed := now.Sub(s.start); elapsed > 0 {
		s.fps = float64(s.window) / elapsed.Seconds()
	}
	s.start = now
	s.inWin = 1
	return s.fps, true
}

// Frames returns the total number of frames recorded.
func (s *FrameStats) Frames() uint64 { return s.frames }

// FPS returns the frame rate of the last completed window, or 0.
func (s *FrameStats) FPS() float64 { return s.fps }

// Window returns the measurement window in frames.
func (s *FrameStats) Window() int { return s.window }
