package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cube/engine/window"
)

var (
	// ErrNoWindow is returned by Run when the engine was built without a window.
	ErrNoWindow = errors.New("engine has no window")
	// ErrNoRenderer is returned by Run when the engine was built without a renderer.
	ErrNoRenderer = errors.New("engine has no renderer")
)

// engine implements the Engine interface.
// Coordinates the render goroutine and the window thread.
type engine struct {
	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer
	clock    frame.Clock

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit float64 // frames per second; 0 = uncapped

	errMu sync.Mutex
	err   error
}

// Engine is the main entry point for oxy-cube.
// It owns the render goroutine and pumps the window on the calling thread.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the cube renderer driven by the engine.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Run starts the render goroutine and pumps window events until the window closes, ctx is
	// done or Quit is called. It must be called from the main OS thread.
	//
	// Parameters:
	//   - ctx: cancelling it shuts the engine down
	//
	// Returns:
	//   - error: the renderer init error or a recovered render panic; nil on a normal shutdown
	Run(ctx context.Context) error

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		wg:          sync.WaitGroup{},
		profiler:    profiler.NewProfiler(),
		clock:       frame.NewClock(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			common.LogDebug("framebuffer resized to %dx%d", width, height)
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run(ctx context.Context) error {
	if e.window == nil {
		return ErrNoWindow
	}
	if e.renderer == nil {
		return ErrNoRenderer
	}
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine is already running")
	}

	e.handle(ctx)
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	return e.runErr()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit and wakes the window pump.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the render and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle(ctx context.Context) {
	renderCtx, stopRender := context.WithCancel(ctx)
	e.wg.Add(2)
	go e.handleRender(renderCtx)
	go e.handleQuit(ctx, stopRender)
}

// handleRender initializes the renderer and hands the render loop to Renderer.Run on its own
// locked OS thread, which owns the GPU context for the rest of the run.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender(ctx context.Context) {
	defer e.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			common.LogError("render goroutine recovered from panic: %v", r)
			e.setErr(fmt.Errorf("render goroutine panic: %v", r))
			e.signalQuit()
		}
	}()

	if err := e.renderer.Init(ctx); err != nil {
		common.LogError("renderer %s failed to initialize: %v", e.renderer.ID(), err)
		e.setErr(err)
		e.signalQuit()
		return
	}
	defer func() {
		e.renderer.Release()
		if e.window.ClientAPI() == window.ClientAPIOpenGL {
			e.window.DetachContext()
		}
	}()

	err := e.renderer.Run(ctx, e.clock, e.runOptions()...)
	if err != nil && ctx.Err() == nil {
		common.LogError("renderer %s stopped: %v", e.renderer.ID(), err)
		e.setErr(err)
	}
	e.signalQuit()
}

// runOptions translates the engine settings into frame loop options.
func (e *engine) runOptions() []frame.RunOption {
	opts := []frame.RunOption{frame.WithFrameLimit(e.renderFrameLimit)}
	if e.profilingEnabled && e.profiler != nil {
		opts = append(opts, frame.WithAfterFrame(func(float64) {
			e.profiler.Tick()
		}))
	}
	return opts
}

// handleQuit blocks until ctx is done or the quit channel is closed, then signals quit and stops
// the render loop.
func (e *engine) handleQuit(ctx context.Context, stopRender context.CancelFunc) {
	defer e.wg.Done()
	defer stopRender()
	select {
	case <-ctx.Done():
		common.LogInfo("shutting down: %v", context.Cause(ctx))
		e.signalQuit()
	case <-e.quitChannel:
	}
}

func (e *engine) setErr(err error) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

func (e *engine) runErr() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}
