package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsPerInterval(t *testing.T) {
	clock := time.Unix(0, 0)
	p := NewProfiler(time.Second)
	p.now = func() time.Time { return clock }
	p.last = clock

	for i := 0; i < 29; i++ {
		clock = clock.Add(10 * time.Millisecond)
		_, ok := p.Tick()
		require.False(t, ok)
	}

	clock = clock.Add(710 * time.Millisecond)
	stats, ok := p.Tick()
	require.True(t, ok)
	assert.InDelta(t, 30, stats.FPS, 0.001)
	assert.Greater(t, stats.HeapMB, 0.0)

	clock = clock.Add(10 * time.Millisecond)
	_, ok = p.Tick()
	assert.False(t, ok)
}

func TestNewProfilerDefaultInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).interval)
	assert.Equal(t, 250*time.Millisecond, NewProfiler(250*time.Millisecond).interval)
}
