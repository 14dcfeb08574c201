package window

import (
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// ClientAPI selects which graphics API the window is created for.
type ClientAPI int

const (
	// ClientAPIOpenGL creates an OpenGL 4.1 core context alongside the window.
	ClientAPIOpenGL ClientAPI = iota
	// ClientAPINone creates no context; WebGPU builds its own surface from the native handle.
	ClientAPINone
)

func (a ClientAPI) String() string {
	switch a {
	case ClientAPIOpenGL:
		return "opengl"
	case ClientAPINone:
		return "none"
	default:
		return fmt.Sprintf("ClientAPI(%d)", int(a))
	}
}

// Window provides the drawing surface and the platform event pump.
// Wraps platform-specific window implementations with a common interface.
//
// NewWindow, ProcessMessages and Close must run on the main OS thread. The GL context methods
// run on whichever goroutine renders; that goroutine must be locked to its OS thread.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// ClientAPI returns the graphics API the window was created for.
	//
	// Returns:
	//   - ClientAPI: the window's client API
	ClientAPI() ClientAPI

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// MakeContextCurrent binds the window's GL context to the calling thread.
	//
	// Returns:
	//   - error: error if the window has no GL context
	MakeContextCurrent() error

	// DetachContext releases the GL context from the calling thread.
	DetachContext()

	// SwapBuffers presents the back buffer of the GL context.
	SwapBuffers()

	// SwapInterval sets how many display refreshes to wait per swap on the current context.
	//
	// Parameters:
	//   - interval: 1 for vsync, 0 to swap immediately
	SwapInterval(interval int)

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to stop. Safe to call from any goroutine.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	clientAPI ClientAPI

	limits SizeLimits

	// width and height are the framebuffer size. Written by the event pump, read by the renderer.
	width  atomic.Int32
	height atomic.Int32

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-cube",
		clientAPI: ClientAPIOpenGL,
		limits:    DefaultSizeLimits(),
	}
	w.setSize(640, 480)
	for _, opt := range options {
		opt(w)
	}
	if err := w.limits.Validate(); err != nil {
		return nil, err
	}
	w.setSize(w.limits.Clamp(w.Width(), w.Height()))
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) ClientAPI() ClientAPI {
	return w.clientAPI
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) MakeContextCurrent() error {
	return platformMakeContextCurrent(w)
}

func (w *engineWindow) DetachContext() {
	platformDetachContext(w)
}

func (w *engineWindow) SwapBuffers() {
	platformSwapBuffers(w)
}

func (w *engineWindow) SwapInterval(interval int) {
	platformSwapInterval(w, interval)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *engineWindow) Width() int {
	return int(w.width.Load())
}

func (w *engineWindow) Height() int {
	return int(w.height.Load())
}

func (w *engineWindow) setSize(width, height int) {
	w.width.Store(int32(width))
	w.height.Store(int32(height))
}
