//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gazeview/ycbcr"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Plane indices, matching bindings 1..3 in ycbcr.wgsl.
const (
	PlaneY = iota
	PlaneCb
	PlaneCr
	planeCount
)

var planeLabels = [planeCount]string{"ycbcr_y", "ycbcr_cb", "ycbcr_cr"}

// ErrTexturesClosed is returned by Upload after Close.
var ErrTexturesClosed = errors.New("gpu: plane textures are closed")

// PlaneTextures is the GPU mirror of a ycbcr.Raster: one R8Unorm texture
// and view per plane.
type PlaneTextures struct {
	device hal.Device
	queue  hal.Queue

	width, height int
	textures      [planeCount]hal.Texture
	views         [planeCount]hal.TextureView

	// generation changes whenever the textures are reallocated, so a
	// pipeline can tell its bind group is stale.
	generation uint64
	closed     bool
}

// NewPlaneTextures returns an empty mirror. Textures are allocated on the
// first Upload.
func NewPlaneTextures(device hal.Device, queue hal.Queue) *PlaneTextures {
	return &PlaneTextures{device: device, queue: queue}
}

// Size returns the luma dimensions of the allocated textures.
func (t *PlaneTextures) Size() (w, h int) { return t.width, t.height }

// Generation returns the allocation counter.
func (t *PlaneTextures) Generation() uint64 { return t.generation }

// Ready reports whether textures have been allocated.
func (t *PlaneTextures) Ready() bool { return !t.closed && t.views[PlaneY] != nil }

// Upload transfers r into the textures, reallocating them when the raster
// size changed. The chroma planes must be exactly half the luma size.
func (t *PlaneTextures) Upload(r *ycbcr.Raster) error {
	if t.closed {
		return ErrTexturesClosed
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if r.Width() != t.width || r.Height() != t.height || t.views[PlaneY] == nil {
		if err := t.allocate(r.Width(), r.Height()); err != nil {
			return err
		}
	}
	for i, p := range [planeCount]ycbcr.Plane{r.Y, r.Cb, r.Cr} {
		if err := t.writePlane(i, p); err != nil {
			return err
		}
	}
	return nil
}

func (t *PlaneTextures) writePlane(i int, p ycbcr.Plane) error {
	//nolint:gosec // plane sizes are validated positive
	err := t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture: t.textures[i],
			Aspect:  gputypes.TextureAspectAll,
		},
		p.Pix,
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(p.Width),
			RowsPerImage: uint32(p.Height),
		},
		&hal.Extent3D{Width: uint32(p.Width), Height: uint32(p.Height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write %s texture: %w", planeLabels[i], err)
	}
	return nil
}

func (t *PlaneTextures) allocate(w, h int) (err error) {
	t.release()
	defer func() {
		if err != nil {
			t.release()
		}
	}()

	sizes := [planeCount][2]int{{w, h}, {w / 2, h / 2}, {w / 2, h / 2}}
	for i, sz := range sizes {
		//nolint:gosec // dimensions validated positive by ycbcr.Raster
		t.textures[i], err = t.device.CreateTexture(&hal.TextureDescriptor{
			Label:         planeLabels[i],
			Size:          hal.Extent3D{Width: uint32(sz[0]), Height: uint32(sz[1]), DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatR8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create %s texture %dx%d: %w", planeLabels[i], sz[0], sz[1], err)
		}
		t.views[i], err = t.device.CreateTextureView(t.textures[i], &hal.TextureViewDescriptor{
			Label:           planeLabels[i] + "_view",
			Format:          gputypes.TextureFormatR8Unorm,
			Dimension:       gputypes.TextureViewDimension2D,
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		})
		if err != nil {
			return fmt.Errorf("create %s view: %w", planeLabels[i], err)
		}
	}
	t.width, t.height = w, h
	t.generation++
	slogger().Debug("gpu: plane textures allocated", "width", w, "height", h, "generation", t.generation)
	return nil
}

// release destroys views then textures, in reverse plane order.
func (t *PlaneTextures) release() {
	for i := planeCount - 1; i >= 0; i-- {
		if t.views[i] != nil {
			t.device.DestroyTextureView(t.views[i])
			t.views[i] = nil
		}
		if t.textures[i] != nil {
			t.device.DestroyTexture(t.textures[i])
			t.textures[i] = nil
		}
	}
	t.width, t.height = 0, 0
}

// Close releases the textures. Safe to call more than once. The caller
// must make sure no submitted frame still samples them.
func (t *PlaneTextures) Close() {
	if t.closed {
		return
	}
	t.release()
	t.closed = true
}
