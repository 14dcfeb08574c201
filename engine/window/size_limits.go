package window

import "fmt"

// SizeLimits bounds the window's framebuffer size in pixels.
type SizeLimits struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// DefaultSizeLimits allows anything from 64x64 up to 3840x2160.
func DefaultSizeLimits() SizeLimits {
	return SizeLimits{MinWidth: 64, MinHeight: 64, MaxWidth: 3840, MaxHeight: 2160}
}

// Validate reports limits that glfw would reject or that leave no valid size.
func (l SizeLimits) Validate() error {
	if l.MinWidth <= 0 || l.MinHeight <= 0 {
		return fmt.Errorf("minimum window size %dx%d must be positive", l.MinWidth, l.MinHeight)
	}
	if l.MaxWidth < l.MinWidth || l.MaxHeight < l.MinHeight {
		return fmt.Errorf("maximum window size %dx%d is below the minimum %dx%d", l.MaxWidth, l.MaxHeight, l.MinWidth, l.MinHeight)
	}
	return nil
}

// Clamp returns width and height moved into the limits.
func (l SizeLimits) Clamp(width, height int) (int, int) {
	return min(max(width, l.MinWidth), l.MaxWidth), min(max(height, l.MinHeight), l.MaxHeight)
}
