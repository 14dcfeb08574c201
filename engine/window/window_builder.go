package window

// WindowBuilderOption configures a window before NewWindow creates the platform window.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the requested framebuffer size. NewWindow clamps it to the size limits; the
// platform may still hand back a different framebuffer size on high-DPI displays.
//
// Parameters:
//   - width: requested width in pixels
//   - height: requested height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.setSize(width, height)
	}
}

// WithSizeLimits bounds how far the user can resize the window.
//
// Parameters:
//   - limits: minimum and maximum framebuffer size; see SizeLimits.Validate
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(limits SizeLimits) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits = limits
	}
}

// WithClientAPI picks the context the window is created with: ClientAPIOpenGL for the gl
// backend, ClientAPINone when WebGPU builds its own surface.
func WithClientAPI(api ClientAPI) WindowBuilderOption {
	return func(w *engineWindow) {
		w.clientAPI = api
	}
}
