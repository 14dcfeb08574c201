// Package wgpubackend implements gpu.Backend on WebGPU.
//
// WebGPU has no named attribute or uniform lookups, so the backend reflects the WGSL it is given:
// attribute slots are @location indices, matrix uniforms are byte offsets into the group 0
// uniform struct and texture or sampler uniforms are encoded binding indices. A render pipeline
// is created per linked program, and the uniform buffer and bind group are refreshed at draw time.
package wgpubackend

import (
	"fmt"
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
)

// Backend is a gpu.Backend drawing through WebGPU, exposing the underlying device for callers
// that need it.
type Backend interface {
	gpu.Backend

	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// SurfaceFormat returns the color format of the configured surface.
	SurfaceFormat() wgpu.TextureFormat

	// SetPresentMode changes how frames are delivered to the display. The surface is
	// reconfigured at the start of the next frame.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode gpu.PresentMode)
}

type shaderModule struct {
	stage      gpu.ShaderStage
	module     *wgpu.ShaderModule
	reflection wgsl.Reflection
}

type program struct {
	attached []gpu.ShaderHandle
	linked   bool

	reflection     wgsl.Reflection
	pipeline       *wgpu.RenderPipeline
	pipelineLayout *wgpu.PipelineLayout
	bindGroupLay   *wgpu.BindGroupLayout

	// uniformBinding is -1 when the program declares no uniform buffer.
	uniformBinding int
	uniformBuffer  *wgpu.Buffer
	uniformData    []byte

	textureBinding int
	samplerBinding int

	bindGroup    *wgpu.BindGroup
	bindGroupKey textureKey
}

type buffer struct {
	target gpu.BufferTarget
	buf    *wgpu.Buffer
}

type texture struct {
	tex     *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler

	img    *image.RGBA
	levels int
	state  gpu.SamplerState
	// version changes whenever the view or sampler is replaced, invalidating bind groups.
	version uint64
}

// textureKey identifies the exact view and sampler a bind group was built from.
type textureKey struct {
	handle  gpu.TextureHandle
	version uint64
}

type vertexBinding struct {
	buffer     gpu.BufferHandle
	components int32
}

type wgpuBackendImpl struct {
	mu *sync.Mutex

	label    string
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	width         int
	height        int

	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode          wgpu.PresentMode
	sampleCount          gpu.MSAASampleCount
	forceFallbackAdapter bool

	// Frame state
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameErr     error

	nextHandle uint32
	shaders    map[gpu.ShaderHandle]*shaderModule
	programs   map[gpu.ProgramHandle]*program
	buffers    map[gpu.BufferHandle]*buffer
	textures   map[gpu.TextureHandle]*texture

	currentProgram gpu.ProgramHandle
	vertexBindings map[int32]vertexBinding
	boundTextures  map[uint32]gpu.TextureHandle
}

var _ Backend = &wgpuBackendImpl{}

// New creates a WebGPU instance, surface, adapter and device for surfaceDescriptor and configures
// the surface at the given size. It must be called on the goroutine that will render.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//   - options: functional options
//
// Returns:
//   - Backend: the ready backend
//   - error: gpu.ErrNoSurface if surfaceDescriptor is nil, or the adapter/device error
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (Backend, error) {
	if surfaceDescriptor == nil {
		return nil, fmt.Errorf("wgpu backend: %w", gpu.ErrNoSurface)
	}

	b := &wgpuBackendImpl{
		mu:             &sync.Mutex{},
		label:          "oxy-cube",
		presentMode:    wgpu.PresentModeFifo,
		sampleCount:    gpu.MSAAOff,
		shaders:        make(map[gpu.ShaderHandle]*shaderModule),
		programs:       make(map[gpu.ProgramHandle]*program),
		buffers:        make(map[gpu.BufferHandle]*buffer),
		textures:       make(map[gpu.TextureHandle]*texture),
		vertexBindings: make(map[int32]vertexBinding),
		boundTextures:  make(map[uint32]gpu.TextureHandle),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)
	if b.surface == nil {
		b.Release()
		return nil, fmt.Errorf("wgpu backend: %w", gpu.ErrNoSurface)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: b.label + " Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	b.mu.Lock()
	err = b.configureSurface(width, height)
	b.mu.Unlock()
	if err != nil {
		b.Release()
		return nil, err
	}

	common.LogInfo("wgpu backend ready: surface format %v, %dx MSAA", b.surfaceFormat, b.sampleCount)
	return b, nil
}

func (b *wgpuBackendImpl) Name() string {
	return "wgpu"
}

func (b *wgpuBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

func (b *wgpuBackendImpl) SetPresentMode(mode gpu.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case gpu.PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case gpu.PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
	// zero size forces configureSurface on the next BeginFrame
	b.width, b.height = 0, 0
}

// configureSurface (re)configures the swapchain and rebuilds the MSAA and depth targets for the
// new size. Callers hold b.mu.
func (b *wgpuBackendImpl) configureSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("surface reports no usable formats: %w", gpu.ErrNoSurface)
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})

	b.releaseTargets()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is written to the
		// swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: b.label + " MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create MSAA texture: %w", err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			return fmt.Errorf("failed to create MSAA view: %w", err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: b.label + " Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create depth view: %w", err)
	}

	// When MSAA is enabled, View is the MSAA texture and ResolveTarget is set per-frame to the
	// swapchain view. When disabled, View is set per-frame and ResolveTarget stays nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}

	b.width, b.height = width, height
	common.LogDebug("wgpu surface configured at %dx%d", width, height)
	return nil
}

func (b *wgpuBackendImpl) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

// BeginFrame acquires the next swapchain image and opens the render pass. The depth test is part
// of every pipeline, so clear.DepthTest only affects the GL backend.
func (b *wgpuBackendImpl) BeginFrame(width, height int, clear gpu.ClearState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, acquiring another one fails with
	// "Surface image is already acquired".
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	if width != b.width || height != b.height {
		if err := b.configureSurface(width, height); err != nil {
			return err
		}
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	color := &b.renderPassDescriptor.ColorAttachments[0]
	color.ClearValue = wgpu.Color{
		R: float64(clear.Color[0]),
		G: float64(clear.Color[1]),
		B: float64(clear.Color[2]),
		A: float64(clear.Color[3]),
	}
	b.renderPassDescriptor.DepthStencilAttachment.DepthClearValue = clear.Depth
	if b.sampleCount > 1 {
		color.ResolveTarget = view
	} else {
		color.View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameErr = nil

	return nil
}

// EndFrame closes the render pass, submits it and presents the surface image. An error recorded
// by a draw in this frame is returned after the frame is presented.
func (b *wgpuBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return fmt.Errorf("EndFrame called without a frame in progress")
	}

	b.framePass.End()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.releaseFrame()
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	b.releaseFrame()

	frameErr := b.frameErr
	b.frameErr = nil
	return frameErr
}

func (b *wgpuBackendImpl) releaseFrame() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

// Release frees every resource the backend created, then the device and instance.
func (b *wgpuBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.End()
		b.framePass = nil
	}
	b.releaseFrame()

	for h, p := range b.programs {
		p.release()
		delete(b.programs, h)
	}
	for h, s := range b.shaders {
		s.release()
		delete(b.shaders, h)
	}
	for h, buf := range b.buffers {
		buf.buf.Release()
		delete(b.buffers, h)
	}
	for h, t := range b.textures {
		t.release()
		delete(b.textures, h)
	}
	b.releaseTargets()

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
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// newHandle returns the next handle value. Zero is reserved as invalid in every handle space.
func (b *wgpuBackendImpl) newHandle() uint32 {
	b.nextHandle++
	return b.nextHandle
}
