package frame

import "time"

// RunOption tunes a Run loop.
type RunOption func(*runConfig)

type runConfig struct {
	minFrame   time.Duration // 0 = uncapped
	afterFrame func(dt float64)
}

// WithFrameLimit caps Run at fps frames per second on the wall clock.
//
// Parameters:
//   - fps: maximum frames per second; 0 or less leaves pacing to the backend's present call
//
// Returns:
//   - RunOption: option function to apply
func WithFrameLimit(fps float64) RunOption {
	return func(c *runConfig) {
		c.minFrame = FrameDuration(fps)
	}
}

// WithAfterFrame registers fn to run after every tick, skipped frames included.
//
// Parameters:
//   - fn: receives the seconds between this frame's timestamp and the previous one (0 on the
//     first frame)
//
// Returns:
//   - RunOption: option function to apply
func WithAfterFrame(fn func(dt float64)) RunOption {
	return func(c *runConfig) {
		c.afterFrame = fn
	}
}

// FrameDuration returns the minimum frame duration for an fps cap, or 0 when fps <= 0.
func FrameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
