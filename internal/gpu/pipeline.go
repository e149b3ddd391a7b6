//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrPipelineClosed is returned by operations on a closed Pipeline.
	ErrPipelineClosed = errors.New("gpu: ycbcr pipeline is closed")

	// ErrNoTextures is returned by Bind when the mirror has no uploaded
	// frame yet.
	ErrNoTextures = errors.New("gpu: plane textures not uploaded")
)

// Pipeline is the planar YCbCr display pipeline: one shader module, one
// bind group layout (uniforms, three planes, sampler), one render
// pipeline drawing a 4-vertex triangle strip.
//
// Resources are created once by NewPipeline. Destroy releases them in
// reverse creation order and is safe to call more than once.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue

	shader      hal.ShaderModule
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipeline    hal.RenderPipeline
	sampler     hal.Sampler
	uniformBuf  hal.Buffer
	vertexBuf   hal.Buffer
	bindGroup   hal.BindGroup
	bound       *PlaneTextures
	boundGen    uint64
	hasGeometry bool
}

// NewPipeline compiles the display shader and creates the pipeline for
// render targets of the given format.
func NewPipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (_ *Pipeline, err error) {
	p := &Pipeline{device: device, queue: queue}
	defer func() {
		if err != nil {
			p.Destroy()
		}
	}()

	if p.shader, err = createShaderModule(device); err != nil {
		return nil, err
	}

	p.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "ycbcr_bind_layout",
		Entries: bindLayoutEntries(),
	})
	if err != nil {
		return nil, fmt.Errorf("create ycbcr bind group layout: %w", err)
	}

	p.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "ycbcr_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create ycbcr pipeline layout: %w", err)
	}

	p.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "ycbcr_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create ycbcr pipeline: %w", err)
	}

	// Nearest, clamp-to-edge: planes are addressed like rectangle
	// textures, one texel per pixel coordinate.
	p.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "ycbcr_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create ycbcr sampler: %w", err)
	}

	p.uniformBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ycbcr_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create ycbcr uniform buffer: %w", err)
	}

	p.vertexBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ycbcr_quad",
		Size:  quadVertexCount * quadVertexStride,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create ycbcr vertex buffer: %w", err)
	}

	slogger().Debug("gpu: ycbcr pipeline created", "format", format.String())
	return p, nil
}

// bindLayoutEntries matches the @group(0) bindings in ycbcr.wgsl.
func bindLayoutEntries() []gputypes.BindGroupLayoutEntry {
	plane := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
		plane(1 + PlaneY),
		plane(1 + PlaneCb),
		plane(1 + PlaneCr),
		{
			Binding:    4,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	}
}

// quadVertexLayout matches VertexInput in ycbcr.wgsl:
//
//	location 0: position (vec2<f32>)
//	location 1: chroma_texcoord (vec2<f32>)
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: quadVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}}
}

// WriteUniforms uploads u to the uniform buffer.
func (p *Pipeline) WriteUniforms(u Uniforms) error {
	if p.device == nil {
		return ErrPipelineClosed
	}
	if err := p.queue.WriteBuffer(p.uniformBuf, 0, u.Bytes()); err != nil {
		return fmt.Errorf("write ycbcr uniforms: %w", err)
	}
	return nil
}

// WriteGeometry uploads the screen quad for a w x h output.
func (p *Pipeline) WriteGeometry(w, h int, chromaOffset float32) error {
	if p.device == nil {
		return ErrPipelineClosed
	}
	if err := p.queue.WriteBuffer(p.vertexBuf, 0, QuadVertices(w, h, chromaOffset)); err != nil {
		return fmt.Errorf("write ycbcr quad: %w", err)
	}
	p.hasGeometry = true
	return nil
}

// Bind makes t the plane set sampled by the next draws. The bind group is
// rebuilt when t differs from the bound mirror or was reallocated.
func (p *Pipeline) Bind(t *PlaneTextures) error {
	if p.device == nil {
		return ErrPipelineClosed
	}
	if t == nil || !t.Ready() {
		return ErrNoTextures
	}
	if p.bindGroup != nil && p.bound == t && p.boundGen == t.Generation() {
		return nil
	}

	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "ycbcr_bind_group",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.uniformBuf.NativeHandle(), Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: t.views[PlaneY].NativeHandle()}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: t.views[PlaneCb].NativeHandle()}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: t.views[PlaneCr].NativeHandle()}},
			{Binding: 4, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create ycbcr bind group: %w", err)
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
	}
	p.bindGroup = bg
	p.bound = t
	p.boundGen = t.Generation()
	return nil
}

// Unbind drops the bind group if it references t.
func (p *Pipeline) Unbind(t *PlaneTextures) {
	if p.bound != t || p.device == nil {
		return
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	p.bound = nil
}

// RecordDraw records the quad draw into rp. Nothing is drawn until both
// geometry and textures are bound; the pass then only clears.
func (p *Pipeline) RecordDraw(rp hal.RenderPassEncoder, vp Viewport) {
	if p.bindGroup == nil || !p.hasGeometry {
		return
	}
	rp.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, 0, 1)
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertexBuf, 0)
	rp.Draw(quadVertexCount, 1, 0, 0)
}

// Destroy releases all pipeline resources in reverse creation order.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.vertexBuf != nil {
		p.device.DestroyBuffer(p.vertexBuf)
		p.vertexBuf = nil
	}
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
	p.bound = nil
	p.device = nil
}
