package frame

import "time"

// Clock supplies frame timestamps in seconds.
type Clock interface {
	// Seconds returns the current timestamp in seconds. Successive calls must not decrease.
	Seconds() float64
}

type wallClock struct {
	start time.Time
}

// NewClock returns a Clock measuring monotonic seconds since its creation, the same time base a
// display-refresh callback hands to its frame function.
func NewClock() Clock {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Seconds() float64 {
	return time.Since(c.start).Seconds()
}

// ClockFunc adapts a plain function to a Clock.
type ClockFunc func() float64

func (f ClockFunc) Seconds() float64 {
	return f()
}
