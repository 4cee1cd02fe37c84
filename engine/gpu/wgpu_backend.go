package gpu

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBackendImpl is the implementation of WGPUBackend.
type wgpuBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	clearColor    wgpu.Color

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// WGPUBackend is a Backend bound to a real wgpu device. When created for a surface it also
// owns the swapchain and records one render pass per frame.
type WGPUBackend interface {
	Backend

	// Device returns the underlying wgpu device.
	Device() *wgpu.Device

	// Queue returns the device's command queue.
	Queue() *wgpu.Queue

	// ConfigureSurface (re)configures the swapchain for the given size.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	//
	// Returns:
	//   - wgpu.TextureFormat: the color format chosen for the surface
	//   - error: error if the backend has no surface
	ConfigureSurface(width, height int) (wgpu.TextureFormat, error)

	// SetVSync selects Fifo presentation when enabled and Immediate otherwise.
	// It takes effect on the next ConfigureSurface.
	SetVSync(enabled bool)

	// BeginFrame acquires the next swapchain image and opens a render pass that clears it.
	// The depth view, when non-nil, is attached and cleared to 1.0.
	//
	// Parameters:
	//   - depthView: the depth attachment, or nil to render without depth
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the open render pass, valid until EndFrame
	//   - error: error if a frame is already in flight or the surface image cannot be acquired
	BeginFrame(depthView *wgpu.TextureView) (*wgpu.RenderPassEncoder, error)

	// EndFrame closes the render pass and submits the recorded commands.
	//
	// Returns:
	//   - error: error if the command buffer could not be finished
	EndFrame() error

	// Present shows the acquired surface image and releases the frame's references.
	Present()

	// Destroy releases the device, surface, adapter and instance owned by the backend.
	Destroy()
}

var _ WGPUBackend = &wgpuBackendImpl{}

// NewWGPUBackend creates an instance, a surface from surfaceDescriptor, a compatible adapter and a device.
// The calling goroutine is locked to its OS thread, as windowing systems require.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor (see window.Window.SurfaceDescriptor)
//   - forceFallbackAdapter: request the software fallback adapter
//
// Returns:
//   - WGPUBackend: the backend
//   - error: error if no adapter or device is available
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (WGPUBackend, error) {
	runtime.LockOSThread()
	b := &wgpuBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0},
	}
	if surfaceDescriptor != nil {
		b.surface = b.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	common.Logger().Info("wgpu device ready", "fallback", forceFallbackAdapter)

	return b, nil
}

func (b *wgpuBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuBackendImpl) CreateBuffer(label string, contents []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	return buf, nil
}

func (b *wgpuBackendImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.queue.WriteBuffer(buf, offset, data)
}

func (b *wgpuBackendImpl) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateTexture(desc)
}

func (b *wgpuBackendImpl) WriteTexture(tex *wgpu.Texture, staging common.TextureStagingData) error {
	if uint64(len(staging.Pixels)) != uint64(staging.Width)*uint64(staging.Height)*4 {
		return fmt.Errorf("staging data holds %d bytes, want %dx%dx4", len(staging.Pixels), staging.Width, staging.Height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuBackendImpl) CreateTextureView(tex *wgpu.Texture) (*wgpu.TextureView, error) {
	return tex.CreateView(nil)
}

func (b *wgpuBackendImpl) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateSampler(desc)
}

func (b *wgpuBackendImpl) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateBindGroupLayout(desc)
}

func (b *wgpuBackendImpl) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateBindGroup(desc)
}

func (b *wgpuBackendImpl) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateShaderModule(desc)
}

func (b *wgpuBackendImpl) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreatePipelineLayout(desc)
}

func (b *wgpuBackendImpl) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateRenderPipeline(desc)
}

func (b *wgpuBackendImpl) Release(r Releasable) {
	if r == nil {
		return
	}
	r.Release()
}

func (b *wgpuBackendImpl) SetVSync(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if enabled {
		b.presentMode = wgpu.PresentModeFifo
	} else {
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuBackendImpl) ConfigureSurface(width, height int) (wgpu.TextureFormat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return wgpu.TextureFormatUndefined, errors.New("backend has no surface")
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	common.Logger().Debug("surface configured", "width", width, "height", height, "format", b.surfaceFormat)

	return b.surfaceFormat, nil
}

func (b *wgpuBackendImpl) BeginFrame(depthView *wgpu.TextureView) (*wgpu.RenderPassEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A held surface image means Present was skipped; acquiring again is a wgpu validation error.
	if b.frameSurface != nil {
		return nil, errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, err
	}

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(desc)
	b.frameSurface = surfaceTexture
	b.frameView = view

	return b.framePass, nil
}

func (b *wgpuBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("no frame in flight")
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.frameSurface = nil
		b.frameView = nil
		return fmt.Errorf("failed to finish frame: %w", err)
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	return nil
}

func (b *wgpuBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuBackendImpl) Destroy() {
	if b.instance == nil {
		return
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	b.instance.Release()
	b.instance = nil
}
