// Package gpu narrows the wgpu device and queue down to the resource-creation calls the
// engine makes, so model loading, texture upload and pipeline construction can run
// against a recording backend in tests.
package gpu

import (
	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Releasable is any GPU object that frees native resources on Release.
// Every wgpu handle type satisfies it.
type Releasable interface {
	Release()
}

// Backend defines the resource-creation surface of a GPU device and its queue.
// Objects returned by a Backend must be released through Backend.Release.
type Backend interface {
	// CreateBuffer creates an immutable buffer initialized with contents.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - contents: the initial buffer bytes
	//   - usage: usage flags for the buffer
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: error if creation fails
	CreateBuffer(label string, contents []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer, created with BufferUsageCopyDst
	//   - offset: byte offset into buf
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: error if the write is rejected
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error

	// CreateTexture creates a texture from desc.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - *wgpu.Texture: the created texture
	//   - error: error if creation fails
	CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error)

	// WriteTexture uploads RGBA8 staging data into mip level 0 of tex.
	//
	// Parameters:
	//   - tex: the destination texture, created with TextureUsageCopyDst
	//   - staging: the pixel data and its dimensions
	//
	// Returns:
	//   - error: error if the staging data does not fit the texture
	WriteTexture(tex *wgpu.Texture, staging common.TextureStagingData) error

	// CreateTextureView creates the default view of tex.
	//
	// Parameters:
	//   - tex: the texture to view
	//
	// Returns:
	//   - *wgpu.TextureView: the created view
	//   - error: error if creation fails
	CreateTextureView(tex *wgpu.Texture) (*wgpu.TextureView, error)

	// CreateSampler creates a sampler from desc.
	//
	// Parameters:
	//   - desc: the sampler descriptor
	//
	// Returns:
	//   - *wgpu.Sampler: the created sampler
	//   - error: error if creation fails
	CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error)

	// CreateBindGroupLayout creates a bind group layout from desc.
	//
	// Parameters:
	//   - desc: the bind group layout descriptor
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the created layout
	//   - error: error if creation fails
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates a bind group from desc.
	//
	// Parameters:
	//   - desc: the bind group descriptor
	//
	// Returns:
	//   - *wgpu.BindGroup: the created bind group
	//   - error: error if creation fails
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)

	// CreateShaderModule compiles a shader module from desc.
	//
	// Parameters:
	//   - desc: the shader module descriptor
	//
	// Returns:
	//   - *wgpu.ShaderModule: the created module
	//   - error: error if the device rejects the shader
	CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error)

	// CreatePipelineLayout creates a pipeline layout from desc.
	//
	// Parameters:
	//   - desc: the pipeline layout descriptor
	//
	// Returns:
	//   - *wgpu.PipelineLayout: the created layout
	//   - error: error if creation fails
	CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error)

	// CreateRenderPipeline creates a render pipeline from desc.
	//
	// Parameters:
	//   - desc: the render pipeline descriptor
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the created pipeline
	//   - error: error if creation fails
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)

	// Release frees a GPU object previously returned by this backend.
	//
	// Parameters:
	//   - r: the object to release
	Release(r Releasable)
}
