package glbackend

import "github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"

// BackendBuilderOption is a functional option applied to the backend during construction via New.
type BackendBuilderOption func(*glBackendImpl)

// WithPresentMode picks the swap interval: VSync waits one refresh per swap, Uncapped none.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to a backend
func WithPresentMode(mode gpu.PresentMode) BackendBuilderOption {
	return func(b *glBackendImpl) {
		b.swapInterval = mode.SwapInterval()
	}
}
