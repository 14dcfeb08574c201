package engine

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cube/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cube/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow pumps nothing; ProcessMessages blocks until RequestClose.
type fakeWindow struct {
	closeOnce sync.Once
	closed    chan struct{}
	detached  atomic.Bool
	resize    func(width, height int)
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{closed: make(chan struct{})}
}

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.resize = callback }
func (w *fakeWindow) ClientAPI() window.ClientAPI { return window.ClientAPIOpenGL }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) MakeContextCurrent() error { return nil }
func (w *fakeWindow) DetachContext() { w.detached.Store(true) }
func (w *fakeWindow) SwapBuffers() {}
func (w *fakeWindow) SwapInterval(int) {}
func (w *fakeWindow) Close() error { return nil }
func (w *fakeWindow) Width() int { return 320 }
func (w *fakeWindow) Height() int { return 240 }

func (w *fakeWindow) IsRunning() bool {
	select {
	case <-w.closed:
		return false
	default:
		return true
	}
}

func (w *fakeWindow) RequestClose() {
	w.closeOnce.Do(func() { close(w.closed) })
}

func (w *fakeWindow) ProcessMessages() {
	<-w.closed
}

func newBackend() *gputest.Backend {
	b := gputest.New()
	b.Attributes[shader.AttribVertexPosition] = 0
	b.Attributes[shader.AttribVertexNormal] = 1
	b.Attributes[shader.AttribTextureCoord] = 2
	b.Uniforms[shader.UniformProjectionMatrix] = 0
	b.Uniforms[shader.UniformModelViewMatrix] = 1
	b.Uniforms[shader.UniformNormalMatrix] = 2
	b.Uniforms[shader.UniformSampler] = 3
	return b
}

func newTestEngine(t *testing.T, b gpu.Backend, w window.Window, options ...EngineBuilderOption) Engine {
	t.Helper()
	r := renderer.NewRenderer(w,
		renderer.WithBackend(b),
		renderer.WithTextureSource(filepath.Join(t.TempDir(), "missing.png")),
	)
	opts := append([]EngineBuilderOption{WithWindow(w), WithRenderer(r)}, options...)
	return NewEngine(opts...)
}

// countingClock returns a 60Hz timestamp per read and calls stop once reads reach n.
type countingClock struct {
	reads atomic.Int32
	n     int32
	stop  func()
}

func (c *countingClock) Seconds() float64 {
	r := c.reads.Add(1)
	if r == c.n && c.stop != nil {
		c.stop()
	}
	return float64(r) / 60
}

func TestRunDrawsUntilCancelled(t *testing.T) {
	b := newBackend()
	w := newFakeWindow()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &countingClock{n: 3, stop: cancel}
	e := newTestEngine(t, b, w, WithProfiling(true), WithClock(clock))

	require.NoError(t, e.Run(ctx))
	assert.GreaterOrEqual(t, len(b.CallsTo("DrawIndexed")), 3)
	assert.NotEmpty(t, b.CallsTo("DeleteProgram"), "renderer is released on the render goroutine")
	assert.True(t, w.detached.Load())
	assert.False(t, w.IsRunning())
}

func TestRunTimestampsFramesWithInjectedClock(t *testing.T) {
	b := newBackend()
	w := newFakeWindow()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &countingClock{n: 30, stop: cancel}
	e := newTestEngine(t, b, w, WithClock(clock))

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, int32(30), clock.reads.Load(), "one clock read per frame")
	assert.Len(t, b.CallsTo("DrawIndexed"), 30)
}

func TestWithClockIgnoresNil(t *testing.T) {
	e := NewEngine(WithClock(nil)).(*engine)
	assert.NotNil(t, e.clock)
}

func TestRunReturnsInitError(t *testing.T) {
	b := newBackend()
	b.CompileLogs[gpu.ShaderStageVertex] = "0:3: undeclared identifier"
	w := newFakeWindow()
	e := newTestEngine(t, b, w)

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, gpu.ErrShaderCompile)
	assert.Empty(t, b.CallsTo("DrawIndexed"))
	assert.False(t, w.IsRunning(), "a failed init closes the window")
}

func TestQuitIsIdempotent(t *testing.T) {
	w := newFakeWindow()
	var e Engine
	clock := &countingClock{n: 2}
	clock.stop = func() {
		e.Quit()
		e.Quit()
	}
	e = newTestEngine(t, newBackend(), w, WithClock(clock))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after Quit")
	}
	e.Quit()
}

func TestQuitBeforeRunStopsImmediately(t *testing.T) {
	w := newFakeWindow()
	e := newTestEngine(t, newBackend(), w)
	e.Quit()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after an early Quit")
	}
}

func TestRunRequiresWindowAndRenderer(t *testing.T) {
	assert.ErrorIs(t, NewEngine().Run(context.Background()), ErrNoWindow)
	assert.ErrorIs(t, NewEngine(WithWindow(newFakeWindow())).Run(context.Background()), ErrNoRenderer)
}

func TestRunOptionsFollowSettings(t *testing.T) {
	plain := NewEngine(WithRenderFrameLimit(60)).(*engine)
	assert.Len(t, plain.runOptions(), 1)
	assert.Equal(t, 60.0, plain.renderFrameLimit)

	profiled := NewEngine(WithProfiling(true)).(*engine)
	assert.Len(t, profiled.runOptions(), 2, "profiling adds the after-frame hook")
}

func TestNewEngineInstallsResizeCallback(t *testing.T) {
	w := newFakeWindow()
	NewEngine(WithWindow(w))
	require.NotNil(t, w.resize)
	w.resize(800, 600)
}
