package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/Carmen-Shannon/oxy-cube/engine/config"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/glbackend"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/wgpubackend"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// ErrAlreadyInitialized is returned by a second call to Init.
var ErrAlreadyInitialized = errors.New("renderer already initialized")

// ErrNotInitialized is returned by Tick and Run before Init has succeeded.
var ErrNotInitialized = errors.New("renderer not initialized")

// wgpuSurface is implemented by hosts that can describe a native surface for WebGPU.
type wgpuSurface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex
	id uuid.UUID

	surface frame.Surface

	backendType RendererBackendType
	backend     gpu.Backend
	// injected backends belong to the caller and are not released
	ownsBackend bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          gpu.PresentMode
	msaa                 gpu.MSAASampleCount
	textureSource        string
	pool                 worker.DynamicWorkerPool
	hasPool              bool
	camera               camera.Camera
	clear                gpu.ClearState

	program     *shader.ShaderProgram
	geometry    *geometry.GeometryBuffers
	texture     *texture.Texture
	driver      frame.Driver
	initialized bool
}

// Renderer draws the textured, lit, tumbling cube.
//
// Init and every method after it must run on the goroutine that owns the GPU context; that
// goroutine must be locked to its OS thread.
type Renderer interface {
	// ID returns the unique identifier of this renderer, used in logs and GPU labels.
	ID() string

	// Init creates the backend (unless one was injected), then builds the shader program, the cube
	// geometry and starts the texture load, in that order. Any failure releases what was created
	// so far and nothing renders.
	//
	// Parameters:
	//   - ctx: bounds the background texture fetch
	//
	// Returns:
	//   - error: gpu.ErrNoSurface, a wrapped compile/link error, or the first resource failure
	Init(ctx context.Context) error

	// Tick draws one frame at timestamp now, in seconds.
	//
	// Parameters:
	//   - now: the current timestamp in seconds
	//
	// Returns:
	//   - error: a per-frame backend error; the frame was skipped but the renderer stays usable
	Tick(now float64) error

	// Run ticks with timestamps from clock until ctx is done.
	//
	// Parameters:
	//   - ctx: stops the loop when cancelled
	//   - clock: timestamp source
	//   - options: frame limit and after-frame hook passed to the frame driver
	//
	// Returns:
	//   - error: ErrNotInitialized before Init, otherwise ctx.Err()
	Run(ctx context.Context, clock frame.Clock, options ...frame.RunOption) error

	// State returns a copy of the current animation state.
	State() frame.AnimationState

	// Texture returns the cube texture, or nil before Init.
	Texture() *texture.Texture

	// Backend returns the GPU backend, or nil before Init.
	Backend() gpu.Backend

	// Release deletes every GPU object the renderer created. The renderer cannot be reused.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer that will draw into surface. No GPU work happens until Init.
//
// Parameters:
//   - surface: the drawing surface; for the gl backend it must also provide the GL context
//     methods, for wgpu a SurfaceDescriptor
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(surface frame.Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		id:            uuid.New(),
		surface:       surface,
		backendType:   BackendTypeGL,
		presentMode:   gpu.PresentModeVSync,
		msaa:          gpu.MSAAOff,
		textureSource: config.DefaultTextureSource,
		clear:         gpu.DefaultClearState(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) ID() string {
	return r.id.String()
}

func (r *renderer) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	if r.surface == nil {
		return fmt.Errorf("renderer %s: %w", r.id, gpu.ErrNoSurface)
	}

	if r.backend == nil {
		b, err := r.createBackend()
		if err != nil {
			common.LogError("renderer %s: unable to create the %s backend: %v", r.id, r.backendType, err)
			return fmt.Errorf("renderer %s: failed to create %s backend: %w", r.id, r.backendType, err)
		}
		r.backend = b
		r.ownsBackend = true
	}

	if err := r.buildResources(ctx); err != nil {
		r.releaseResources()
		return fmt.Errorf("renderer %s: %w", r.id, err)
	}

	r.initialized = true
	common.LogInfo("renderer %s initialized on the %s backend, texture %s", r.id, r.backend.Name(), r.textureSource)
	return nil
}

// createBackend builds the configured backend against the surface. Callers hold r.mu.
func (r *renderer) createBackend() (gpu.Backend, error) {
	switch r.backendType {
	case BackendTypeGL:
		ctx, ok := r.surface.(glbackend.Context)
		if !ok {
			return nil, fmt.Errorf("surface has no GL context: %w", gpu.ErrNoSurface)
		}
		return glbackend.New(ctx, glbackend.WithPresentMode(r.presentMode))
	case BackendTypeWGPU:
		s, ok := r.surface.(wgpuSurface)
		if !ok {
			return nil, fmt.Errorf("surface cannot describe a WebGPU surface: %w", gpu.ErrNoSurface)
		}
		desc := s.SurfaceDescriptor()
		if desc == nil {
			return nil, fmt.Errorf("surface descriptor unavailable: %w", gpu.ErrNoSurface)
		}
		return wgpubackend.New(desc, r.surface.Width(), r.surface.Height(),
			wgpubackend.WithPresentMode(r.presentMode),
			wgpubackend.WithMSAA(r.msaa),
			wgpubackend.WithForceFallbackAdapter(r.forceFallbackAdapter),
			wgpubackend.WithLabel("oxy-cube "+r.id.String()),
		)
	default:
		return nil, fmt.Errorf("%w: %s", gpu.ErrUnknownBackend, r.backendType)
	}
}

// buildResources runs the init sequence. Callers hold r.mu.
func (r *renderer) buildResources(ctx context.Context) error {
	lang := r.backendType.Language()
	if r.backend.Name() == "wgpu" {
		lang = shader.LanguageWGSL
	}
	src := shader.CubeSource(lang)

	program, err := shader.BuildProgram(r.backend, src.Vertex, src.Fragment)
	if err != nil {
		return err
	}
	r.program = program

	geom, err := geometry.BuildCubeGeometry(r.backend)
	if err != nil {
		return err
	}
	r.geometry = geom

	var texOpts []texture.LoaderOption
	if r.hasPool {
		texOpts = append(texOpts, texture.WithWorkerPool(r.pool))
	}
	tex, err := texture.Load(ctx, r.backend, r.textureSource, texOpts...)
	if err != nil {
		return err
	}
	r.texture = tex

	driverOpts := []frame.DriverBuilderOption{frame.WithClearState(r.clear)}
	if r.camera != nil {
		driverOpts = append(driverOpts, frame.WithCamera(r.camera))
	}
	driver, err := frame.NewDriver(r.backend, r.program, r.geometry, r.texture, r.surface, driverOpts...)
	if err != nil {
		return err
	}
	r.driver = driver
	return nil
}

func (r *renderer) Tick(now float64) error {
	r.mu.Lock()
	driver := r.driver
	r.mu.Unlock()

	if driver == nil {
		return ErrNotInitialized
	}
	return driver.Tick(now)
}

func (r *renderer) Run(ctx context.Context, clock frame.Clock, options ...frame.RunOption) error {
	r.mu.Lock()
	driver := r.driver
	r.mu.Unlock()

	if driver == nil {
		return ErrNotInitialized
	}
	return driver.Run(ctx, clock, options...)
}

func (r *renderer) State() frame.AnimationState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.driver == nil {
		return frame.AnimationState{}
	}
	return r.driver.State()
}

func (r *renderer) Texture() *texture.Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.texture
}

func (r *renderer) Backend() gpu.Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseResources()
	r.initialized = false
	common.LogDebug("renderer %s released", r.id)
}

// releaseResources deletes GPU objects in reverse creation order. Callers hold r.mu.
func (r *renderer) releaseResources() {
	r.driver = nil
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}
	if r.geometry != nil {
		r.geometry.Release(r.backend)
		r.geometry = nil
	}
	if r.program != nil {
		r.program.Release(r.backend)
		r.program = nil
	}
	if r.backend != nil && r.ownsBackend {
		r.backend.Release()
		r.backend = nil
		r.ownsBackend = false
	}
}
