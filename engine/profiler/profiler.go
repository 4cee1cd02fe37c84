package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-draw/common"
)

// Stats is one reporting interval's worth of frame and memory statistics.
type Stats struct {
	// FPS is the average frame rate over the interval.
	FPS float64
	// HeapMB is the live heap size in MiB.
	HeapMB float64
	// AllocRateMBs is the heap allocation rate over the interval in MiB per second.
	AllocRateMBs float64
	// GCCount is the cumulative number of completed GC cycles.
	GCCount uint32
	// MaxPause is the longest GC pause completed during the interval.
	MaxPause time.Duration
}

// Profiler counts frames and logs Stats at a fixed interval. It is not safe for concurrent use;
// call Tick from the render loop only.
type Profiler struct {
	interval time.Duration
	now      func() time.Time

	frames         int
	last           time.Time
	lastGCCount    uint32
	lastTotalAlloc uint64
	memStats       runtime.MemStats
}

// NewProfiler creates a Profiler that reports every interval. A non-positive interval means one second.
//
// Parameters:
//   - interval: time between reports
//
// Returns:
//   - *Profiler: the profiler, with its interval starting now
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Profiler{interval: interval, now: time.Now}
	p.last = p.now()
	return p
}

// Tick records one frame. When the interval has elapsed it gathers Stats, logs them at
// info level and starts a new interval.
//
// Returns:
//   - Stats: the statistics for the finished interval, zero otherwise
//   - bool: true if an interval finished on this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frames++
	now := p.now()
	elapsed := now.Sub(p.last)
	if elapsed < p.interval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	seconds := elapsed.Seconds()
	stats := Stats{
		FPS:          float64(p.frames) / seconds,
		HeapMB:       float64(p.memStats.Alloc) / (1 << 20),
		AllocRateMBs: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / (1 << 20) / seconds,
		GCCount:      p.memStats.NumGC,
		MaxPause:     maxPause(&p.memStats, p.lastGCCount),
	}

	common.Logger().Info("frame stats",
		"fps", stats.FPS,
		"heap_mb", stats.HeapMB,
		"alloc_mb_s", stats.AllocRateMBs,
		"gc", stats.GCCount,
		"max_pause", stats.MaxPause,
	)

	p.frames = 0
	p.last = now
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}

// maxPause scans the PauseNs ring buffer for cycles completed after since.
func maxPause(ms *runtime.MemStats, since uint32) time.Duration {
	n := ms.NumGC
	if n-since > uint32(len(ms.PauseNs)) {
		since = n - uint32(len(ms.PauseNs))
	}
	var longest uint64
	for i := since; i < n; i++ {
		longest = max(longest, ms.PauseNs[i%uint32(len(ms.PauseNs))])
	}
	return time.Duration(longest)
}
