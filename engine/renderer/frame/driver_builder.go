package frame

import (
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
)

type DriverBuilderOption func(*driverImpl)

// WithCamera replaces the default camera.
//
// Parameters:
//   - cam: the camera supplying projection and model-view matrices
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithCamera(cam camera.Camera) DriverBuilderOption {
	return func(d *driverImpl) {
		d.camera = cam
	}
}

// WithClearState overrides the opaque black, depth 1.0 clear.
//
// Parameters:
//   - clear: color, depth and depth-test settings applied at the start of every frame
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithClearState(clear gpu.ClearState) DriverBuilderOption {
	return func(d *driverImpl) {
		d.clear = clear
	}
}

// WithInitialState starts the animation from state instead of zero.
//
// Parameters:
//   - state: the initial rotation and timestamp
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithInitialState(state AnimationState) DriverBuilderOption {
	return func(d *driverImpl) {
		d.state = state
	}
}
