package frame

import (
	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// AnimationState is the only state that changes between frames.
type AnimationState struct {
	// CubeRotation is the tumble angle in radians. It grows without bound.
	CubeRotation float64
	// LastTimestamp is the timestamp of the previous tick in seconds.
	LastTimestamp float64
}

// Advance records now as the latest timestamp and returns the seconds elapsed since the
// previous one.
func (s *AnimationState) Advance(now float64) float64 {
	dt := now - s.LastTimestamp
	s.LastTimestamp = now
	return dt
}

// Rotate advances the tumble angle by dt radians, one radian per second of animation.
func (s *AnimationState) Rotate(dt float64) {
	s.CubeRotation += dt
}

// Transforms are the three matrices uploaded every frame.
type Transforms struct {
	Projection mgl32.Mat4
	ModelView  mgl32.Mat4
	Normal     mgl32.Mat4
}

// ComputeTransforms returns the frame matrices for state on a width x height surface using the
// default camera: 45 degree field of view, planes at 0.1 and 100, cube 6 units away.
//
// Parameters:
//   - state: the animation state; only CubeRotation is read
//   - width, height: surface size in pixels, a zero height gives an aspect of 1
//
// Returns:
//   - Transforms: projection, model-view and normal matrices
func ComputeTransforms(state AnimationState, width, height int) Transforms {
	cam := camera.NewCamera()
	cam.SetViewport(width, height)
	return transformsFor(cam, state)
}

func transformsFor(cam camera.Camera, state AnimationState) Transforms {
	modelView := cam.ModelViewMatrix(float32(state.CubeRotation))
	return Transforms{
		Projection: cam.ProjectionMatrix(),
		ModelView:  modelView,
		Normal:     common.NormalMatrix(modelView),
	}
}
