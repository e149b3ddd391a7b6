//go:build !nogpu

package display

import (
	"fmt"

	"github.com/gogpu/gazeview/internal/gpu"
	"github.com/gogpu/gazeview/ycbcr"
	"github.com/gogpu/gpucontext"
)

// Texture is the GPU mirror of a ycbcr.Raster, owned by the Manager that
// created it. Close releases it; the Manager releases any texture still
// open when it closes.
type Texture struct {
	m      *Manager
	planes *gpu.PlaneTextures
	closed bool
}

var _ gpucontext.Texture = (*Texture)(nil)

// Width returns the luma width in pixels.
func (t *Texture) Width() int {
	w, _ := t.planes.Size()
	return w
}

// Height returns the luma height in pixels.
func (t *Texture) Height() int {
	_, h := t.planes.Size()
	return h
}

// Upload transfers r into the texture. When the raster size differs from
// the texture size the planes are reallocated after in-flight frames
// finished.
func (t *Texture) Upload(r *ycbcr.Raster) error {
	if t.closed || t.m.closed {
		return ErrClosed
	}
	if w, h := t.planes.Size(); t.planes.Ready() && (w != r.Width() || h != r.Height()) {
		if err := t.m.dev.Wait(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}
	if err := t.planes.Upload(r); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// Close releases the GPU textures. Safe to call more than once.
func (t *Texture) Close() {
	if t.closed {
		return
	}
	if !t.m.closed {
		_ = t.m.dev.Wait()
	}
	t.release()
}

func (t *Texture) release() {
	if t.closed {
		return
	}
	t.closed = true
	if t.m.pipe != nil {
		t.m.pipe.Unbind(t.planes)
	}
	if t.m.current == t {
		t.m.current = nil
	}
	delete(t.m.textures, t)
	t.planes.Close()
}
