//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Viewport is the render target rectangle in surface pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
}

// inflightFrame holds the per-frame objects that must outlive submission.
type inflightFrame struct {
	index   uint64
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
	view    hal.TextureView
}

// RenderFrame acquires the next surface texture, records one render pass
// that clears to black and draws the pipeline's quad into vp, submits it
// and presents. An outdated or lost surface is reconfigured once with the
// last configuration before giving up.
func (d *Device) RenderFrame(p *Pipeline, vp Viewport) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if !d.configured {
		return ErrNotConfigured
	}
	d.reclaim()

	acquired, err := d.surface.AcquireTexture(nil)
	if errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost) {
		slogger().Debug("gpu: surface outdated, reconfiguring", "err", err)
		if cerr := d.surface.Configure(d.device, &d.config); cerr != nil {
			return fmt.Errorf("reconfigure surface: %w", cerr)
		}
		acquired, err = d.surface.AcquireTexture(nil)
	}
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	if acquired.Suboptimal {
		slogger().Warn("gpu: suboptimal surface texture")
	}

	frame, err := d.encodeFrame(p, acquired.Texture, vp)
	if err != nil {
		d.surface.DiscardTexture(acquired.Texture)
		return err
	}

	frame.index, err = d.queue.Submit([]hal.CommandBuffer{frame.cmd})
	if err != nil {
		d.releaseFrame(frame)
		d.surface.DiscardTexture(acquired.Texture)
		return fmt.Errorf("submit: %w", err)
	}
	d.inflight = append(d.inflight, frame)

	if err := d.queue.Present(d.surface, acquired.Texture, nil); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

func (d *Device) encodeFrame(p *Pipeline, target hal.SurfaceTexture, vp Viewport) (f inflightFrame, err error) {
	defer func() {
		if err != nil {
			d.releaseFrame(f)
		}
	}()

	f.view, err = d.device.CreateTextureView(target, &hal.TextureViewDescriptor{
		Label:           "ycbcr_surface_view",
		Format:          d.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return f, fmt.Errorf("create surface view: %w", err)
	}

	f.encoder, err = d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "ycbcr_frame_encoder",
	})
	if err != nil {
		return f, fmt.Errorf("create command encoder: %w", err)
	}
	if err = f.encoder.BeginEncoding("ycbcr_frame"); err != nil {
		return f, fmt.Errorf("begin encoding: %w", err)
	}

	rp := f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "ycbcr_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	p.RecordDraw(rp, vp)
	rp.End()

	f.cmd, err = f.encoder.EndEncoding()
	if err != nil {
		return f, fmt.Errorf("end encoding: %w", err)
	}
	return f, nil
}

// reclaim frees the frames the queue reports completed.
func (d *Device) reclaim() {
	if len(d.inflight) == 0 {
		return
	}
	d.releaseInflight(d.queue.PollCompleted())
}

// drain waits for the device and frees every in-flight frame.
func (d *Device) drain() {
	if len(d.inflight) == 0 {
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle failed", "err", err)
	}
	d.releaseInflight(^uint64(0))
}

func (d *Device) releaseInflight(completed uint64) {
	keep := d.inflight[:0]
	for _, f := range d.inflight {
		if f.index <= completed {
			d.releaseFrame(f)
			continue
		}
		keep = append(keep, f)
	}
	clear(d.inflight[len(keep):])
	d.inflight = keep
}

func (d *Device) releaseFrame(f inflightFrame) {
	if f.cmd != nil {
		d.device.FreeCommandBuffer(f.cmd)
	}
	if f.encoder != nil {
		f.encoder.Destroy()
	}
	if f.view != nil {
		d.device.DestroyTextureView(f.view)
	}
}

// Wait blocks until the GPU finished every submitted frame and frees
// them. Call it before destroying resources a frame may still use.
func (d *Device) Wait() error {
	if d.closed {
		return ErrDeviceClosed
	}
	d.drain()
	return nil
}
