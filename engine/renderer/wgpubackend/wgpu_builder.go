package wgpubackend

import (
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option applied to the backend during construction via New.
type BackendBuilderOption func(*wgpuBackendImpl)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to a backend
func WithPresentMode(mode gpu.PresentMode) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		if mode == gpu.PresentModeVSync {
			b.presentMode = wgpu.PresentModeFifo
		} else {
			b.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithMSAA sets the multisample anti-aliasing sample count.
// When not specified, MSAA is off. Higher values (MSAA8x, MSAA16x) are adapter-dependent.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the MSAA option to a backend
func WithMSAA(count gpu.MSAASampleCount) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.sampleCount = count
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that applies the option to a backend
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

// WithLabel sets the prefix used for every wgpu object label.
func WithLabel(label string) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.label = label
	}
}
