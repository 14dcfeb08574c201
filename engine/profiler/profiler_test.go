package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsOncePerInterval(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	p := newProfiler(time.Second, clk.now)

	for i := 0; i < 9; i++ {
		clk.advance(100 * time.Millisecond)
		assert.False(t, p.Tick(), "frame %d", i)
	}
	clk.advance(100 * time.Millisecond)
	assert.True(t, p.Tick())

	stats := p.Last()
	assert.InDelta(t, 10.0, stats.FPS, 1e-9)
	assert.InDelta(t, 100.0, stats.FrameTimeMS, 1e-9)
	assert.Positive(t, stats.SysMB)

	clk.advance(100 * time.Millisecond)
	assert.False(t, p.Tick(), "counter resets after a report")
}

func TestFrameTimeAveragesRecentFrames(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := newProfiler(time.Hour, clk.now)

	for i := 0; i < frameWindow; i++ {
		clk.advance(50 * time.Millisecond)
		p.Tick()
	}
	assert.InDelta(t, 50.0, p.averageFrameTime(), 1e-9)

	for i := 0; i < frameWindow; i++ {
		clk.advance(10 * time.Millisecond)
		p.Tick()
	}
	assert.InDelta(t, 10.0, p.averageFrameTime(), 1e-9, "older frames fall out of the window")
}

func TestLastBeforeFirstReport(t *testing.T) {
	assert.Zero(t, NewProfiler().Last())
}
