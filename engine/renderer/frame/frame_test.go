package frame

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/geometry"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSurface struct {
	width, height int
}

func (s fixedSurface) Width() int  { return s.width }
func (s fixedSurface) Height() int { return s.height }

type fixture struct {
	backend *gputest.Backend
	program *shader.ShaderProgram
	geom    *geometry.GeometryBuffers
	tex     *texture.Texture
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := gputest.New()
	b.Attributes[shader.AttribVertexPosition] = 0
	b.Attributes[shader.AttribVertexNormal] = 1
	b.Attributes[shader.AttribTextureCoord] = 2
	b.Uniforms[shader.UniformProjectionMatrix] = 10
	b.Uniforms[shader.UniformModelViewMatrix] = 11
	b.Uniforms[shader.UniformNormalMatrix] = 12
	b.Uniforms[shader.UniformSampler] = 13

	program, err := shader.BuildProgram(b, "vs", "fs")
	require.NoError(t, err)
	geom, err := geometry.BuildCubeGeometry(b)
	require.NoError(t, err)
	tex, err := texture.Load(context.Background(), b, filepath.Join(t.TempDir(), "missing.png"))
	require.NoError(t, err)
	b.Reset()

	return &fixture{backend: b, program: program, geom: geom, tex: tex}
}

func (f *fixture) driver(t *testing.T, options ...DriverBuilderOption) Driver {
	t.Helper()
	d, err := NewDriver(f.backend, f.program, f.geom, f.tex, fixedSurface{800, 600}, options...)
	require.NoError(t, err)
	return d
}

func TestAdvanceDeltaTime(t *testing.T) {
	s := AnimationState{LastTimestamp: 1.000}
	dt := s.Advance(1.016)
	assert.InDelta(t, 0.016, dt, 1e-9)
	assert.Equal(t, 1.016, s.LastTimestamp)
}

func TestRotateAdvancesByDelta(t *testing.T) {
	for _, d := range []float64{0, 0.016, 0.5, 2} {
		s := AnimationState{CubeRotation: 3}
		s.Rotate(d)
		assert.InDelta(t, 3+d, s.CubeRotation, 1e-12)
	}
}

func TestComputeTransformsAtRest(t *testing.T) {
	xf := ComputeTransforms(AnimationState{}, 800, 600)

	assert.InDelta(t, 1.81066, xf.Projection[0], 1e-4)
	assert.InDelta(t, 2.41421, xf.Projection[5], 1e-4)
	assert.InDelta(t, -1.002002, xf.Projection[10], 1e-5)
	assert.InDelta(t, -0.2002002, xf.Projection[14], 1e-6)

	assert.True(t, common.Mat4ApproxEqual(mgl32.Translate3D(0, 0, -6), xf.ModelView, 1e-6))
}

func TestComputeTransformsNormalMatrix(t *testing.T) {
	xf := ComputeTransforms(AnimationState{CubeRotation: 0.7}, 640, 480)
	// rigid transform: the normal matrix's rotation block equals the model-view's
	assert.True(t, xf.Normal.Mat3().ApproxEqualThreshold(xf.ModelView.Mat3(), 1e-5))
	assert.True(t, common.Mat4ApproxEqual(mgl32.Ident4(), xf.Normal.Transpose().Mul4(xf.ModelView), 1e-5))
}

func TestComputeTransformsZeroHeight(t *testing.T) {
	xf := ComputeTransforms(AnimationState{}, 800, 0)
	want := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	assert.True(t, common.Mat4ApproxEqual(want, xf.Projection, 1e-6))
	for _, v := range xf.Projection {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestNewDriverRequiresDependencies(t *testing.T) {
	f := newFixture(t)
	_, err := NewDriver(f.backend, f.program, f.geom, f.tex, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrNoSurface))

	_, err = NewDriver(nil, f.program, f.geom, f.tex, fixedSurface{1, 1})
	assert.Error(t, err)
	_, err = NewDriver(f.backend, nil, f.geom, f.tex, fixedSurface{1, 1})
	assert.Error(t, err)
}

func TestTickCallOrder(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t)

	require.NoError(t, d.Tick(0.5))

	assert.Equal(t, []string{
		"BeginFrame",
		"BindVertexAttribute",
		"BindVertexAttribute",
		"BindVertexAttribute",
		"UseProgram",
		"SetUniformMatrix4",
		"SetUniformMatrix4",
		"SetUniformMatrix4",
		"BindTexture",
		"SetUniformInt",
		"DrawIndexed",
		"EndFrame",
	}, f.backend.Ops())
}

func TestTickArguments(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t)
	require.NoError(t, d.Tick(0.25))

	begin := f.backend.CallsTo("BeginFrame")[0]
	assert.Equal(t, []any{800, 600, gpu.DefaultClearState()}, begin.Args)

	binds := f.backend.CallsTo("BindVertexAttribute")
	assert.Equal(t, []any{int32(0), f.geom.Position, int32(3)}, binds[0].Args)
	assert.Equal(t, []any{int32(1), f.geom.Normal, int32(3)}, binds[1].Args)
	assert.Equal(t, []any{int32(2), f.geom.TextureCoord, int32(2)}, binds[2].Args)

	mats := f.backend.CallsTo("SetUniformMatrix4")
	require.Len(t, mats, 3)
	assert.Equal(t, int32(10), mats[0].Args[0])
	assert.Equal(t, int32(11), mats[1].Args[0])
	assert.Equal(t, int32(12), mats[2].Args[0])

	// the first frame draws with the initial angle of zero
	mv := mats[1].Args[1].(mgl32.Mat4)
	assert.True(t, common.Mat4ApproxEqual(mgl32.Translate3D(0, 0, -6), mv, 1e-6))

	assert.Equal(t, []any{uint32(0), f.tex.Handle}, f.backend.CallsTo("BindTexture")[0].Args)
	assert.Equal(t, []any{int32(13), int32(0)}, f.backend.CallsTo("SetUniformInt")[0].Args)
	assert.Equal(t, []any{f.geom.Indices, int32(36), gpu.IndexUint16}, f.backend.CallsTo("DrawIndexed")[0].Args)
}

func TestTickAdvancesRotation(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t, WithInitialState(AnimationState{LastTimestamp: 1.000}))

	require.NoError(t, d.Tick(1.016))
	s := d.State()
	assert.InDelta(t, 0.016, s.CubeRotation, 1e-9)
	assert.Equal(t, 1.016, s.LastTimestamp)

	require.NoError(t, d.Tick(1.516))
	assert.InDelta(t, 0.516, d.State().CubeRotation, 1e-9)
	assert.Equal(t, uint64(2), d.Frames())
}

func TestTickSkipsFrameOnBackendError(t *testing.T) {
	f := newFixture(t)
	f.backend.FrameErr = errors.New("surface lost")
	d := f.driver(t)

	err := d.Tick(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface lost")
	assert.Equal(t, []string{"BeginFrame"}, f.backend.Ops())
	assert.Equal(t, uint64(0), d.Frames())
	assert.InDelta(t, 1, d.State().CubeRotation, 1e-12)
}

func TestTickUsesCustomCamera(t *testing.T) {
	f := newFixture(t)
	cam := camera.NewCamera(camera.WithDistance(10), camera.WithFovDegrees(60))
	d := f.driver(t, WithCamera(cam))
	require.NoError(t, d.Tick(0))

	mats := f.backend.CallsTo("SetUniformMatrix4")
	want := mgl32.Perspective(mgl32.DegToRad(60), 800.0/600.0, 0.1, 100)
	assert.True(t, common.Mat4ApproxEqual(want, mats[0].Args[1].(mgl32.Mat4), 1e-5))
	assert.True(t, common.Mat4ApproxEqual(mgl32.Translate3D(0, 0, -10), mats[1].Args[1].(mgl32.Mat4), 1e-6))
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t)

	ctx, cancel := context.WithCancel(context.Background())
	var now float64
	clock := ClockFunc(func() float64 {
		now += 0.01
		if now > 0.1 {
			cancel()
		}
		return now
	})

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, clock) }()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, d.Frames(), uint64(10))
}

func TestRunReturnsImmediatelyWhenCancelled(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx, NewClock())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.backend.CallsTo("BeginFrame"))
}

func TestWallClockIsMonotonic(t *testing.T) {
	c := NewClock()
	a := c.Seconds()
	b := c.Seconds()
	assert.GreaterOrEqual(t, b, a)
	assert.GreaterOrEqual(t, a, 0.0)
}

func TestRunAfterFrameReceivesTimestampDeltas(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stamps := []float64{1.0, 1.25, 1.75}
	var calls int
	clock := ClockFunc(func() float64 { return stamps[min(calls, len(stamps)-1)] })

	var deltas []float64
	err := d.Run(ctx, clock, WithAfterFrame(func(dt float64) {
		deltas = append(deltas, dt)
		calls++
		if calls == len(stamps) {
			cancel()
		}
	}))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, deltas, 3)
	assert.Zero(t, deltas[0], "first frame has no previous timestamp")
	assert.InDelta(t, 0.25, deltas[1], 1e-12)
	assert.InDelta(t, 0.5, deltas[2], 1e-12)
	assert.Equal(t, uint64(3), d.Frames())
}

func TestRunFrameLimitPacesFrames(t *testing.T) {
	f := newFixture(t)
	d := f.driver(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var frames int
	start := time.Now()
	err := d.Run(ctx, NewClock(), WithFrameLimit(100), WithAfterFrame(func(float64) {
		frames++
		if frames == 5 {
			cancel()
		}
	}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "four full 10ms frames before the cancel")
}

func TestFrameDuration(t *testing.T) {
	assert.Zero(t, FrameDuration(0))
	assert.Zero(t, FrameDuration(-30))
	assert.Equal(t, 16666666*time.Nanosecond, FrameDuration(60))
	assert.Equal(t, time.Second/144, FrameDuration(144))
}
