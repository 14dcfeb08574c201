package renderer

import (
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackendType selects which backend Init creates.
//
// Parameters:
//   - backendType: BackendTypeGL or BackendTypeWGPU
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend type option to a renderer
func WithBackendType(backendType RendererBackendType) RendererBuilderOption {
	return func(r *renderer) {
		r.backendType = backendType
	}
}

// WithBackend makes Init use an existing backend instead of creating one. The caller keeps
// ownership and releases it.
//
// Parameters:
//   - backend: the backend to draw through
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend gpu.Backend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
		r.ownsBackend = false
	}
}

// WithPresentMode sets how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode gpu.PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the wgpu backend.
// When not specified, MSAA is off. Higher values (MSAA8x, MSAA16x) are adapter-dependent and
// may not be supported by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count gpu.MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.msaa = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithTextureSource sets the image shown on the cube: a path, file:// URL or http(s):// URL.
func WithTextureSource(source string) RendererBuilderOption {
	return func(r *renderer) {
		r.textureSource = source
	}
}

// WithTextureWorkers gives the renderer its own decode pool with the given number of workers
// instead of the shared default pool.
//
// Parameters:
//   - workers: the maximum number of concurrent fetch/decode workers
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithTextureWorkers(workers int) RendererBuilderOption {
	return func(r *renderer) {
		if workers < 1 {
			return
		}
		r.pool = worker.NewDynamicWorkerPool(workers, 16, time.Second)
		r.hasPool = true
	}
}

// WithCamera replaces the default camera.
func WithCamera(cam camera.Camera) RendererBuilderOption {
	return func(r *renderer) {
		r.camera = cam
	}
}

// WithClearState sets the per-frame clear color and depth configuration.
func WithClearState(clear gpu.ClearState) RendererBuilderOption {
	return func(r *renderer) {
		r.clear = clear
	}
}
