//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"   // register noop backend (tests, headless)
	_ "github.com/gogpu/wgpu/hal/vulkan" // register Vulkan backend
)

// Device errors.
var (
	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not registered on this platform.
	ErrBackendUnavailable = errors.New("gpu: backend not available")

	// ErrNoAdapter is returned when no adapter can present to the surface.
	ErrNoAdapter = errors.New("gpu: no suitable adapter")

	// ErrNoSurfaceFormat is returned when the surface reports no usable
	// texture format.
	ErrNoSurfaceFormat = errors.New("gpu: surface has no supported format")

	// ErrNotConfigured is returned when a frame is rendered before the
	// surface was configured.
	ErrNotConfigured = errors.New("gpu: surface not configured")

	// ErrDeviceClosed is returned by operations on a closed Device.
	ErrDeviceClosed = errors.New("gpu: device is closed")
)

// Config selects the backend and the native window the surface is
// created for.
type Config struct {
	// Backend is the HAL backend. The zero value, gputypes.BackendEmpty,
	// selects the noop backend.
	Backend gputypes.Backend

	// DisplayHandle and WindowHandle are the native handles passed to
	// Instance.CreateSurface (X11 Display* and Window on Linux).
	DisplayHandle uintptr
	WindowHandle  uintptr
}

// Device bundles the HAL objects needed to present to one window.
type Device struct {
	instance hal.Instance
	surface  hal.Surface
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	caps     *hal.SurfaceCapabilities
	device   hal.Device
	queue    hal.Queue
	format   gputypes.TextureFormat

	config     hal.SurfaceConfiguration
	configured bool

	inflight []inflightFrame
	closed   bool
}

var _ gpucontext.DeviceProvider = (*Device)(nil)

// Open creates the instance, the surface, picks an adapter that can
// present to it and opens a logical device. On failure everything created
// so far is released.
func Open(cfg Config) (_ *Device, err error) {
	variant := cfg.Backend
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, variant)
	}

	d := &Device{}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	d.instance, err = backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	d.surface, err = d.instance.CreateSurface(cfg.DisplayHandle, cfg.WindowHandle)
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}

	exposed, ok := pickAdapter(d.instance.EnumerateAdapters(d.surface))
	if !ok {
		return nil, ErrNoAdapter
	}
	d.adapter = exposed.Adapter
	d.info = exposed.Info

	d.caps = d.adapter.SurfaceCapabilities(d.surface)
	if d.caps == nil || len(d.caps.Formats) == 0 {
		return nil, ErrNoSurfaceFormat
	}
	d.format = pickFormat(d.caps.Formats)

	open, err := d.adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	d.device = open.Device
	d.queue = open.Queue

	slogger().Info("gpu: device opened",
		"backend", variant.String(),
		"adapter", d.info.Name,
		"type", d.info.DeviceType,
		"format", d.format.String())
	return d, nil
}

// pickAdapter prefers a discrete GPU, then an integrated one, then
// whatever comes first.
func pickAdapter(adapters []hal.ExposedAdapter) (hal.ExposedAdapter, bool) {
	if len(adapters) == 0 {
		return hal.ExposedAdapter{}, false
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for _, a := range adapters {
			if a.Info.DeviceType == want {
				return a, true
			}
		}
	}
	return adapters[0], true
}

// pickFormat prefers the non-sRGB 8-bit formats: the fragment stage
// writes display-referred values that must not be encoded again.
func pickFormat(formats []gputypes.TextureFormat) gputypes.TextureFormat {
	for _, f := range []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm} {
		if slices.Contains(formats, f) {
			return f
		}
	}
	return formats[0]
}

// Configure (re)configures the surface for a w x h swap chain using the
// given present mode. Unsupported present modes fall back to FIFO, which
// every backend must support.
func (d *Device) Configure(w, h int, mode gputypes.PresentMode) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if !d.SupportsPresentMode(mode) {
		slogger().Warn("gpu: present mode unsupported, using fifo", "mode", mode.String())
		mode = gputypes.PresentModeFifo
	}
	alpha := gputypes.CompositeAlphaModeOpaque
	if len(d.caps.AlphaModes) > 0 && !slices.Contains(d.caps.AlphaModes, alpha) {
		alpha = d.caps.AlphaModes[0]
	}

	// In-flight frames reference the old swap chain images.
	d.drain()

	cfg := hal.SurfaceConfiguration{
		Width:       uint32(w), //nolint:gosec // validated positive by the caller
		Height:      uint32(h), //nolint:gosec // validated positive by the caller
		Format:      d.format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: mode,
		AlphaMode:   alpha,
	}
	if err := d.surface.Configure(d.device, &cfg); err != nil {
		d.configured = false
		return fmt.Errorf("configure surface %dx%d: %w", w, h, err)
	}
	d.config = cfg
	d.configured = true
	slogger().Debug("gpu: surface configured", "width", w, "height", h, "present", mode.String())
	return nil
}

// SupportsPresentMode reports whether the surface accepts mode.
func (d *Device) SupportsPresentMode(mode gputypes.PresentMode) bool {
	if d.caps == nil {
		return false
	}
	return slices.Contains(d.caps.PresentModes, mode)
}

// PresentMode returns the present mode of the current configuration.
func (d *Device) PresentMode() gputypes.PresentMode { return d.config.PresentMode }

// HAL returns the logical device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Device implements gpucontext.DeviceProvider.
func (d *Device) Device() gpucontext.Device { return d.device }

// Queue implements gpucontext.DeviceProvider.
func (d *Device) Queue() gpucontext.Queue { return d.queue }

// Adapter implements gpucontext.DeviceProvider.
func (d *Device) Adapter() gpucontext.Adapter { return d.adapter }

// SurfaceFormat implements gpucontext.DeviceProvider.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.format }

// AdapterInfo implements gpucontext.DeviceProvider.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch d.info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: d.info.Name, Type: t}
}

// Close waits for the GPU to finish and destroys everything in reverse
// creation order. Safe to call more than once.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			slogger().Warn("gpu: wait idle failed", "err", err)
		}
		d.releaseInflight(^uint64(0))
		if d.configured && d.surface != nil {
			d.surface.Unconfigure(d.device)
			d.configured = false
		}
		d.device.Destroy()
		d.device = nil
		d.queue = nil
	}
	if d.adapter != nil {
		d.adapter.Destroy()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Destroy()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
