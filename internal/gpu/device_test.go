//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func openNoop(t *testing.T) *Device {
	t.Helper()
	d, err := Open(Config{Backend: gputypes.BackendEmpty})
	if err != nil {
		t.Fatalf("Open(noop): %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestOpen_Noop(t *testing.T) {
	d := openNoop(t)
	if d.SurfaceFormat() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("SurfaceFormat = %v, want BGRA8Unorm", d.SurfaceFormat())
	}
	if d.Device() == nil || d.Queue() == nil || d.Adapter() == nil {
		t.Error("DeviceProvider returned nil handles")
	}
	if info := d.AdapterInfo(); info.Name == "" || info.Type != gpucontext.AdapterTypeUnknown {
		t.Errorf("AdapterInfo = %+v", info)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: gputypes.BackendBrowserWebGPU})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Open(browser) = %v, want ErrBackendUnavailable", err)
	}
}

func TestPickAdapter(t *testing.T) {
	adapters := []hal.ExposedAdapter{
		{Info: gputypes.AdapterInfo{Name: "cpu", DeviceType: gputypes.DeviceTypeCPU}},
		{Info: gputypes.AdapterInfo{Name: "igpu", DeviceType: gputypes.DeviceTypeIntegratedGPU}},
		{Info: gputypes.AdapterInfo{Name: "dgpu", DeviceType: gputypes.DeviceTypeDiscreteGPU}},
	}
	if a, _ := pickAdapter(adapters); a.Info.Name != "dgpu" {
		t.Errorf("picked %q, want dgpu", a.Info.Name)
	}
	if a, _ := pickAdapter(adapters[:2]); a.Info.Name != "igpu" {
		t.Errorf("picked %q, want igpu", a.Info.Name)
	}
	if a, _ := pickAdapter(adapters[:1]); a.Info.Name != "cpu" {
		t.Errorf("picked %q, want cpu", a.Info.Name)
	}
	if _, ok := pickAdapter(nil); ok {
		t.Error("pickAdapter(nil) reported an adapter")
	}
}

func TestPickFormat(t *testing.T) {
	got := pickFormat([]gputypes.TextureFormat{gputypes.TextureFormatBGRA8UnormSrgb, gputypes.TextureFormatRGBA8Unorm})
	if got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("pickFormat = %v, want RGBA8Unorm", got)
	}
	got = pickFormat([]gputypes.TextureFormat{gputypes.TextureFormatBGRA8UnormSrgb})
	if got != gputypes.TextureFormatBGRA8UnormSrgb {
		t.Errorf("pickFormat fallback = %v", got)
	}
}

func TestRenderFrame(t *testing.T) {
	d := openNoop(t)
	device, queue := d.HAL()
	p, err := NewPipeline(device, queue, d.SurfaceFormat())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	vp := Viewport{Width: 64, Height: 32}
	if err := d.RenderFrame(p, vp); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("RenderFrame before Configure = %v, want ErrNotConfigured", err)
	}
	if err := d.Configure(64, 32, gputypes.PresentModeFifo); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	tex := NewPlaneTextures(device, queue)
	defer tex.Close()
	if err := tex.Upload(newTestRaster(t, 64, 32)); err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(tex); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteGeometry(64, 32, DefaultChromaOffset); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := d.RenderFrame(p, vp); err != nil {
			t.Fatalf("RenderFrame %d: %v", i, err)
		}
	}
	// The noop queue completes every submission immediately.
	d.reclaim()
	if len(d.inflight) != 0 {
		t.Errorf("%d frames still in flight", len(d.inflight))
	}
	if err := d.Wait(); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestConfigure_PresentModes(t *testing.T) {
	d := openNoop(t)
	for _, m := range []gputypes.PresentMode{
		gputypes.PresentModeImmediate,
		gputypes.PresentModeFifo,
		gputypes.PresentModeFifoRelaxed,
	} {
		if err := d.Configure(16, 16, m); err != nil {
			t.Fatalf("Configure(%v): %v", m, err)
		}
		if d.PresentMode() != m {
			t.Errorf("PresentMode = %v, want %v", d.PresentMode(), m)
		}
	}
	if err := d.Configure(16, 16, gputypes.PresentModeUndefined); err != nil {
		t.Fatal(err)
	}
	if d.PresentMode() != gputypes.PresentModeFifo {
		t.Errorf("unsupported mode fell back to %v, want Fifo", d.PresentMode())
	}
}

func TestDevice_CloseIdempotent(t *testing.T) {
	d, err := Open(Config{Backend: gputypes.BackendEmpty})
	if err != nil {
		t.Fatal(err)
	}
	d.Close()
	d.Close()
	if err := d.Configure(8, 8, gputypes.PresentModeFifo); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Configure after Close = %v, want ErrDeviceClosed", err)
	}
}
