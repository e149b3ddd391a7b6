//go:build !nogpu

// Package gpu owns the WebGPU objects behind the planar YCbCr display.
//
// It is an internal package used by display. Everything is built on the
// gogpu/wgpu HAL (zero CGO): Vulkan on desktop platforms, and the noop
// backend for tests.
//
// # Components
//
//   - Device: instance, surface, adapter, logical device and queue. It
//     implements gpucontext.DeviceProvider so the host application can
//     share the device.
//   - PlaneTextures: three R8Unorm textures mirroring a ycbcr.Raster.
//   - Pipeline: the single render pipeline compiled from
//     shaders/ycbcr.wgsl, its uniform and vertex buffers, the sampler
//     and the bind group for the current PlaneTextures.
//
// # Frame
//
// A frame is acquire, one render pass, submit, present:
//
//	dev.Configure(w, h, gputypes.PresentModeFifo)
//	pipe.Bind(textures)
//	dev.RenderFrame(pipe, viewport)
//
// Command buffers are freed once the queue reports their submission
// index completed. Device.Close waits for the device to go idle.
package gpu
