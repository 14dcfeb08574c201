package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/texture"
)

// Surface reports the current drawable size in pixels.
type Surface interface {
	Width() int
	Height() int
}

type driverImpl struct {
	mu *sync.Mutex

	backend  gpu.Backend
	program  *shader.ShaderProgram
	geometry *geometry.GeometryBuffers
	texture  *texture.Texture
	surface  Surface
	camera   camera.Camera
	clear    gpu.ClearState

	state  AnimationState
	frames uint64
}

// Driver draws one frame of the tumbling cube per tick. All of its methods except State and
// Frames must run on the goroutine that owns the backend.
type Driver interface {
	// Tick draws one frame at timestamp now and advances the rotation by the time elapsed since
	// the previous tick. A backend failure skips the draw but still advances the animation.
	//
	// Parameters:
	//   - now: frame timestamp in seconds
	//
	// Returns:
	//   - error: the backend error that caused the frame to be skipped, if any
	Tick(now float64) error

	// Run ticks with timestamps from clock until ctx is done. Frame errors are logged and the
	// loop keeps going; pacing comes from the backend's present call unless WithFrameLimit is set.
	//
	// Parameters:
	//   - ctx: stops the loop when cancelled
	//   - clock: timestamp source, read once per frame
	//   - options: frame limit and after-frame hook
	//
	// Returns:
	//   - error: always ctx.Err()
	Run(ctx context.Context, clock Clock, options ...RunOption) error

	// State returns a copy of the animation state.
	//
	// Returns:
	//   - AnimationState: the current rotation and last timestamp
	State() AnimationState

	// Frames returns the number of frames that reached EndFrame.
	//
	// Returns:
	//   - uint64: presented frame count
	Frames() uint64
}

var _ Driver = &driverImpl{}

// NewDriver creates a Driver in its initial state: rotation 0 and last timestamp 0.
//
// Parameters:
//   - backend: the GPU backend to draw with
//   - program: the linked cube program
//   - geom: the uploaded cube buffers
//   - tex: the cube texture; polled every tick so a finished load is uploaded on this goroutine
//   - surface: source of the drawable size
//   - options: functional options such as a custom camera or clear state
//
// Returns:
//   - Driver: the frame driver
//   - error: an error if a required dependency is missing
func NewDriver(backend gpu.Backend, program *shader.ShaderProgram, geom *geometry.GeometryBuffers, tex *texture.Texture, surface Surface, options ...DriverBuilderOption) (Driver, error) {
	switch {
	case backend == nil:
		return nil, fmt.Errorf("frame driver requires a backend")
	case program == nil:
		return nil, fmt.Errorf("frame driver requires a shader program")
	case geom == nil:
		return nil, fmt.Errorf("frame driver requires geometry buffers")
	case tex == nil:
		return nil, fmt.Errorf("frame driver requires a texture")
	case surface == nil:
		return nil, fmt.Errorf("frame driver requires a surface: %w", gpu.ErrNoSurface)
	}

	d := &driverImpl{
		mu:       &sync.Mutex{},
		backend:  backend,
		program:  program,
		geometry: geom,
		texture:  tex,
		surface:  surface,
		clear:    gpu.DefaultClearState(),
	}
	for _, option := range options {
		option(d)
	}
	if d.camera == nil {
		d.camera = camera.NewCamera()
	}
	return d, nil
}

func (d *driverImpl) Tick(now float64) error {
	d.mu.Lock()
	dt := d.state.Advance(now)
	state := d.state
	d.mu.Unlock()

	// advance after drawing so this frame uses the angle the previous tick left behind
	defer func() {
		d.mu.Lock()
		d.state.Rotate(dt)
		d.mu.Unlock()
	}()

	d.texture.Poll()

	width, height := d.surface.Width(), d.surface.Height()
	if err := d.backend.BeginFrame(width, height, d.clear); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}

	d.camera.SetViewport(width, height)
	xf := transformsFor(d.camera, state)

	attrs := d.program.Attributes
	d.backend.BindVertexAttribute(attrs.VertexPosition, d.geometry.Position, geometry.PositionComponents)
	d.backend.BindVertexAttribute(attrs.VertexNormal, d.geometry.Normal, geometry.NormalComponents)
	d.backend.BindVertexAttribute(attrs.TextureCoord, d.geometry.TextureCoord, geometry.TextureCoordComponents)

	d.backend.UseProgram(d.program.Program)

	uniforms := d.program.Uniforms
	d.backend.SetUniformMatrix4(uniforms.ProjectionMatrix, xf.Projection)
	d.backend.SetUniformMatrix4(uniforms.ModelViewMatrix, xf.ModelView)
	d.backend.SetUniformMatrix4(uniforms.NormalMatrix, xf.Normal)

	d.backend.BindTexture(0, d.texture.Handle)
	d.backend.SetUniformInt(uniforms.Sampler, 0)

	d.backend.DrawIndexed(d.geometry.Indices, d.geometry.IndexCount, d.geometry.IndexType)

	if err := d.backend.EndFrame(); err != nil {
		return fmt.Errorf("failed to end frame: %w", err)
	}

	d.mu.Lock()
	d.frames++
	d.mu.Unlock()
	return nil
}

func (d *driverImpl) Run(ctx context.Context, clock Clock, options ...RunOption) error {
	var cfg runConfig
	for _, opt := range options {
		opt(&cfg)
	}

	var prev float64
	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		now := clock.Seconds()
		if err := d.Tick(now); err != nil {
			common.LogWarn("skipping frame: %v", err)
		}

		if cfg.afterFrame != nil {
			var dt float64
			if !first {
				dt = now - prev
			}
			cfg.afterFrame(dt)
		}
		prev, first = now, false

		if cfg.minFrame > 0 {
			if remaining := cfg.minFrame - time.Since(start); remaining > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(remaining):
				}
			}
		}
	}
}

func (d *driverImpl) State() AnimationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *driverImpl) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}
