package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-cube/common"
)

// frameWindow is the number of frames averaged for the frame time.
const frameWindow = 30

// Stats is one profiler report.
type Stats struct {
	FPS         float64
	FrameTimeMS float64
	HeapMB      float64
	AllocRateMB float64
	NumGC       uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the shared logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	lastFrame      time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	frameTimes [frameWindow]float64
	frameIdx   int
	frameTotal int
	last       Stats
	now        func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return newProfiler(time.Second, time.Now)
}

func newProfiler(interval time.Duration, now func() time.Time) *Profiler {
	start := now()
	return &Profiler{
		lastTime:       start,
		lastFrame:      start,
		updateInterval: interval,
		now:            now,
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, average frame time, heap usage, allocation rate, GC count/pause times
// and total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	p.recordFrame(currentTime.Sub(p.lastFrame))
	p.lastFrame = currentTime

	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		FrameTimeMS: p.averageFrameTime(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	gcCount := p.memStats.NumGC
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	common.Logger().Info("profiler",
		"fps", stats.FPS,
		"frame_ms", stats.FrameTimeMS,
		"heap_mb", stats.HeapMB,
		"alloc_mb_s", stats.AllocRateMB,
		"gc", stats.NumGC,
		"gc_last_us", stats.LastPauseUs,
		"gc_max_us", stats.MaxPauseUs,
		"sys_mb", stats.SysMB,
	)

	p.last = stats
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report, or a zero Stats before the first one.
func (p *Profiler) Last() Stats {
	return p.last
}

func (p *Profiler) recordFrame(d time.Duration) {
	p.frameTimes[p.frameIdx] = float64(d) / float64(time.Millisecond)
	p.frameIdx = (p.frameIdx + 1) % frameWindow
	if p.frameTotal < frameWindow {
		p.frameTotal++
	}
}

func (p *Profiler) averageFrameTime() float64 {
	if p.frameTotal == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < p.frameTotal; i++ {
		sum += p.frameTimes[i]
	}
	return sum / float64(p.frameTotal)
}
