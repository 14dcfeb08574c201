package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Defaults match the fixed view the cube is always shown with.
const (
	DefaultFovDegrees float32 = 45
	DefaultNear       float32 = 0.1
	DefaultFar        float32 = 100
	DefaultDistance   float32 = 6
)

type cameraImpl struct {
	mu *sync.Mutex

	fov      float32
	aspect   float32
	near     float32
	far      float32
	distance float32

	projectionMatrix mgl32.Mat4
}

// Camera holds the perspective settings for the cube view. The projection is recomputed whenever
// a setting changes, so ProjectionMatrix is a plain read.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Distance returns how far in front of the eye the cube is placed.
	//
	// Returns:
	//   - float32: distance along -Z
	Distance() float32

	// ProjectionMatrix returns the current perspective projection (column-major).
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ModelViewMatrix places the cube Distance units in front of the eye and tumbles it by angle
	// around Z then Y.
	//
	// Parameters:
	//   - angle: rotation in radians
	//
	// Returns:
	//   - mgl32.Mat4: the model-view matrix
	ModelViewMatrix(angle float32) mgl32.Mat4

	// SetViewport updates the aspect ratio from a surface size. A zero or negative dimension
	// falls back to an aspect of 1.
	//
	// Parameters:
	//   - width, height: surface size in pixels
	SetViewport(width, height int)

	// SetFov sets the field of view in radians and recomputes the projection.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and recomputes the projection.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near plane and recomputes the projection.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far plane and recomputes the projection.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 45 degree field of view, planes at 0.1 and 100, an aspect of 1
// and the cube 6 units away.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		fov:      mgl32.DegToRad(DefaultFovDegrees),
		aspect:   1.0,
		near:     DefaultNear,
		far:      DefaultFar,
		distance: DefaultDistance,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Distance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distance
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ModelViewMatrix(angle float32) mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.TumbleModelView(c.distance, angle)
}

func (c *cameraImpl) SetViewport(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = common.AspectRatio(width, height)
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

// updateMatrices recalculates the projection. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
}
