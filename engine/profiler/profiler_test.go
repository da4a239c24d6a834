package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ro/engine/frame_pacer"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	start := time.Unix(100, 0)
	now := start
	p := NewProfiler()
	p.lastTime = start
	p.now = func() time.Time { return now }

	stats := frame_pacer.Stats{CPUAverage: 4 * time.Millisecond, GPUAverage: 6 * time.Millisecond}

	now = start.Add(500 * time.Millisecond)
	if p.Tick(stats) {
		t.Fatal("logged before the interval elapsed")
	}
	now = start.Add(time.Second)
	if !p.Tick(stats) {
		t.Fatal("expected a log once the interval elapsed")
	}
	if p.frameCount != 0 || !p.lastTime.Equal(now) {
		t.Errorf("counters not reset: frames %d, last %v", p.frameCount, p.lastTime)
	}
	if p.Tick(stats) {
		t.Error("logged twice within one interval")
	}
}
