//go:build !nogpu

package display

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gazeview/internal/gpu"
	"github.com/gogpu/gazeview/reproject"
	"github.com/gogpu/gazeview/ycbcr"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

var (
	// ErrResizeRejected is returned when the window does not report the
	// size it was asked to adopt.
	ErrResizeRejected = errors.New("display: resize rejected")

	// ErrSwapInterval is returned for swap intervals other than -1, 0, 1.
	ErrSwapInterval = errors.New("display: swap interval must be -1, 0 or 1")

	// ErrClosed is returned by operations on a closed Manager or Texture.
	ErrClosed = errors.New("display: closed")

	// ErrForeignTexture is returned when a Texture is drawn by a Manager
	// that did not create it.
	ErrForeignTexture = errors.New("display: texture belongs to another manager")

	// ErrNilWindow is returned by New when no window is given.
	ErrNilWindow = errors.New("display: window is nil")

	// ErrInvalidSize is returned by Resize for non-positive sizes.
	ErrInvalidSize = errors.New("display: invalid size")
)

// Window is the output window contract. Size reports the drawable size
// in pixels.
type Window interface {
	gpucontext.WindowProvider

	// SetSize asks the platform to resize the drawable to w x h pixels.
	// The result is observed through Size.
	SetSize(w, h int)

	// NativeHandles returns the platform display connection and window
	// handles the GPU surface is created for.
	NativeHandles() (display, window uintptr)
}

// Manager owns the surface of one window, the display pipeline and the
// current texture.
type Manager struct {
	win  Window
	opts options

	dev  *gpu.Device
	pipe *gpu.Pipeline

	current  *Texture
	textures map[*Texture]struct{}

	// width and height are the last applied size; zero until the first
	// successful resize (the Initialized state).
	width, height int
	resizes       int

	uniforms     gpu.Uniforms
	swapInterval int

	stats  *FrameStats
	closed bool
}

// New opens the GPU device for win, creates the display pipeline and
// applies the window's current size.
func New(win Window, opts ...Option) (_ *Manager, err error) {
	if win == nil {
		return nil, ErrNilWindow
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := presentModeFor(o.swapInterval); err != nil {
		return nil, err
	}

	m := &Manager{
		win:          win,
		opts:         o,
		swapInterval: o.swapInterval,
		textures:     make(map[*Texture]struct{}),
		stats:        NewFrameStats(o.statsWindow),
		uniforms: gpu.Uniforms{
			Mode:       o.mode,
			Intrinsics: o.intrinsics,
		},
	}
	defer func() {
		if err != nil {
			m.Close()
		}
	}()

	display, window := win.NativeHandles()
	m.dev, err = gpu.Open(gpu.Config{
		Backend:       o.backend,
		DisplayHandle: display,
		WindowHandle:  window,
	})
	if err != nil {
		return nil, fmt.Errorf("display: open device: %w", err)
	}

	device, queue := m.dev.HAL()
	m.pipe, err = gpu.NewPipeline(device, queue, m.dev.SurfaceFormat())
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}

	if w, h := win.Size(); w > 0 && h > 0 {
		if err := m.apply(w, h); err != nil {
			return nil, err
		}
	}
	info := m.dev.AdapterInfo()
	slogger().Info("display: manager ready",
		"adapter", info.Name,
		"adapter_type", info.Type.String(),
		"width", m.width,
		"height", m.height,
		"swap_interval", m.swapInterval)
	return m, nil
}

// DeviceProvider exposes the GPU device shared by the manager.
func (m *Manager) DeviceProvider() gpucontext.DeviceProvider { return m.dev }

// Size returns the last applied size.
func (m *Manager) Size() (w, h int) { return m.width, m.height }

// Stats returns the frame statistics.
func (m *Manager) Stats() *FrameStats { return m.stats }

// Mode returns the fragment mode.
func (m *Manager) Mode() reproject.Mode { return m.uniforms.Mode }

// Orientation returns the orientation applied at the next repaint.
func (m *Manager) Orientation() reproject.Orientation { return m.uniforms.Orientation }

// SwapInterval returns the current swap interval.
func (m *Manager) SwapInterval() int { return m.swapInterval }

// NewTexture creates a texture owned by m and uploads r into it.
func (m *Manager) NewTexture(r *ycbcr.Raster) (*Texture, error) {
	if m.closed {
		return nil, ErrClosed
	}
	device, queue := m.dev.HAL()
	t := &Texture{m: m, planes: gpu.NewPlaneTextures(device, queue)}
	if err := t.Upload(r); err != nil {
		t.planes.Close()
		return nil, err
	}
	m.textures[t] = struct{}{}
	return t, nil
}

// Draw binds t and repaints.
func (m *Manager) Draw(t *Texture) error {
	if m.closed {
		return ErrClosed
	}
	if err := m.bind(t); err != nil {
		return err
	}
	return m.Repaint()
}

func (m *Manager) bind(t *Texture) error {
	if t == nil || t.closed {
		return ErrClosed
	}
	if t.m != m {
		return ErrForeignTexture
	}
	if err := m.pipe.Bind(t.planes); err != nil {
		return fmt.Errorf("display: bind texture: %w", err)
	}
	m.current = t
	return nil
}

// Repaint follows a window size change if there is one, re-applies the
// uniforms and the current texture, draws and presents.
func (m *Manager) Repaint() error {
	if m.closed {
		return ErrClosed
	}
	w, h := m.win.Size()
	if w <= 0 || h <= 0 {
		// Minimized: nothing to present.
		return nil
	}
	if w != m.width || h != m.height {
		if err := m.apply(w, h); err != nil {
			return err
		}
		// The window moved on while the surface was reconfigured; the
		// next repaint follows it.
		if gw, gh := m.win.Size(); gw != w || gh != h {
			slogger().Debug("display: size changed during resize, frame skipped",
				"width", w, "height", h, "window_width", gw, "window_height", gh)
			return nil
		}
	}
	if m.current != nil {
		if err := m.bind(m.current); err != nil {
			return err
		}
	}
	if err := m.pipe.WriteUniforms(m.uniforms); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	vp := gpu.Viewport{Width: float32(m.width), Height: float32(m.height)}
	if err := m.dev.RenderFrame(m.pipe, vp); err != nil {
		return fmt.Errorf("display: render frame: %w", err)
	}
	if fps, ok := m.stats.Tick(time.Now()); ok {
		slogger().Info("display: frame rate",
			"fps", fps,
			"frames", m.stats.Frames(),
			"window", m.stats.Window())
	}
	return nil
}

// Resize asks the window to adopt w x h and applies it. Resizing to the
// current size is a no-op. If the window then reports another size the
// resize fails with ErrResizeRejected; it is not retried.
func (m *Manager) Resize(w, h int) error {
	if m.closed {
		return ErrClosed
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	if w == m.width && h == m.height {
		return nil
	}
	m.win.SetSize(w, h)
	if gw, gh := m.win.Size(); gw != w || gh != h {
		return fmt.Errorf("%w: failed to resize window to %dx%d (window reports %dx%d)",
			ErrResizeRejected, w, h, gw, gh)
	}
	return m.apply(w, h)
}

// apply moves the manager to the Sized(w, h) state: geometry, uniforms
// and surface follow the new size. The manager's size and uniforms change
// only once every step succeeded, so a failed apply leaves the previous
// size in place and the next Repaint retries it.
func (m *Manager) apply(w, h int) error {
	u := m.uniforms
	u.Width = float32(w)
	u.Height = float32(h)
	if err := m.pipe.WriteGeometry(w, h, m.opts.chromaOffset); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if err := m.pipe.WriteUniforms(u); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if err := m.configure(w, h); err != nil {
		return err
	}
	slogger().Debug("display: resized", "from_width", m.width, "from_height", m.height, "width", w, "height", h)
	m.uniforms = u
	m.width, m.height = w, h
	m.resizes++
	return nil
}

func (m *Manager) configure(w, h int) error {
	mode, err := presentModeFor(m.swapInterval)
	if err != nil {
		return err
	}
	mode = m.fallbackPresentMode(mode)
	if err := m.dev.Configure(w, h, mode); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// SetOrientation sets the viewer orientation applied at the next repaint.
func (m *Manager) SetOrientation(o reproject.Orientation) {
	m.uniforms.Orientation = o
}

// SetMode switches between flat and panoramic sampling.
func (m *Manager) SetMode(mode reproject.Mode) {
	m.uniforms.Mode = mode
}

// SetIntrinsics sets the pinhole used by the panoramic mode.
func (m *Manager) SetIntrinsics(k reproject.Intrinsics) {
	m.uniforms.Intrinsics = k
}

// SetSwapInterval sets the presentation pacing: 0 presents immediately,
// 1 waits for vertical retrace, -1 waits unless the frame is late
// (adaptive). The surface is reconfigured when the manager is sized.
func (m *Manager) SetSwapInterval(n int) error {
	if m.closed {
		return ErrClosed
	}
	if _, err := presentModeFor(n); err != nil {
		return err
	}
	m.swapInterval = n
	if m.width == 0 || m.height == 0 {
		return nil
	}
	return m.configure(m.width, m.height)
}

// presentModeFor maps a swap interval to a present mode.
func presentModeFor(n int) (gputypes.PresentMode, error) {
	switch n {
	case 0:
		return gputypes.PresentModeImmediate, nil
	case 1:
		return gputypes.PresentModeFifo, nil
	case -1:
		return gputypes.PresentModeFifoRelaxed, nil
	default:
		return gputypes.PresentModeUndefined, fmt.Errorf("%w: got %d", ErrSwapInterval, n)
	}
}

// fallbackPresentMode picks the closest supported mode: mailbox for an
// unsupported immediate, FIFO otherwise.
func (m *Manager) fallbackPresentMode(mode gputypes.PresentMode) gputypes.PresentMode {
	if m.dev.SupportsPresentMode(mode) {
		return mode
	}
	if mode == gputypes.PresentModeImmediate && m.dev.SupportsPresentMode(gputypes.PresentModeMailbox) {
		return gputypes.PresentModeMailbox
	}
	return gputypes.PresentModeFifo
}

// Close waits for the GPU and releases the textures created by m, the
// pipeline and the device, in reverse creation order. Safe to call more
// than once.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if m.dev != nil {
		_ = m.dev.Wait()
	}
	m.current = nil
	for t := range m.textures {
		t.release()
	}
	if m.pipe != nil {
		m.pipe.Destroy()
		m.pipe = nil
	}
	if m.dev != nil {
		m.dev.Close()
		m.dev = nil
	}
}
