//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gazeview/reproject"
)

const (
	// uniformSize is the byte size of the Uniforms block in ycbcr.wgsl.
	uniformSize = 48

	// quadVertexStride is position (vec2<f32>) + chroma_texcoord (vec2<f32>).
	quadVertexStride = 16

	// quadVertexCount is the number of triangle strip vertices.
	quadVertexCount = 4

	// DefaultChromaOffset is the x shift, in chroma pixels, applied to the
	// chroma texture coordinate.
	DefaultChromaOffset = 0.25
)

// Uniforms mirrors the Uniforms struct in ycbcr.wgsl.
//
// Layout (std140-compatible, 48 bytes):
//
//	0  window_size  vec2<f32>
//	8  mode         u32
//	12 _pad         u32
//	16 orientation  vec4<f32> (roll, pitch, yaw, 0)
//	32 intrinsics   vec4<f32> (fx, fy, cx, cy)
type Uniforms struct {
	Width, Height float32
	Mode          reproject.Mode
	Orientation   reproject.Orientation
	Intrinsics    reproject.Intrinsics
}

// Bytes serializes u little-endian. Zero focal lengths are written as 1
// so the shader never divides by zero.
func (u Uniforms) Bytes() []byte {
	k := u.Intrinsics.Normalized()
	buf := make([]byte, uniformSize)
	putF32(buf[0:], u.Width)
	putF32(buf[4:], u.Height)
	binary.LittleEndian.PutUint32(buf[8:], uint32(u.Mode))
	putF32(buf[16:], u.Orientation.Roll)
	putF32(buf[20:], u.Orientation.Pitch)
	putF32(buf[24:], u.Orientation.Yaw)
	putF32(buf[32:], float32(k.Fx))
	putF32(buf[36:], float32(k.Fy))
	putF32(buf[40:], float32(k.Cx))
	putF32(buf[44:], float32(k.Cy))
	return buf
}

// QuadVertices returns the screen quad for a w x h output as a 4-vertex
// triangle strip: (0,0) (0,h) (w,0) (w,h). Each vertex carries its pixel
// position and the chroma coordinate, position/2 shifted right by
// chromaOffset.
func QuadVertices(w, h int, chromaOffset float32) []byte {
	fw, fh := float32(w), float32(h)
	corners := [quadVertexCount][2]float32{{0, 0}, {0, fh}, {fw, 0}, {fw, fh}}
	buf := make([]byte, quadVertexCount*quadVertexStride)
	for i, c := range corners {
		off := i * quadVertexStride
		putF32(buf[off:], c[0])
		putF32(buf[off+4:], c[1])
		putF32(buf[off+8:], c[0]/2+chromaOffset)
		putF32(buf[off+12:], c[1]/2)
	}
	return buf
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
