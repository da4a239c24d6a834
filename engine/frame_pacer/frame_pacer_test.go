package frame_pacer

import (
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestWaitForFrameSleepsUntilDeadline(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	pacer := NewFramePacer(100, WithClock(clock))

	pacer.WaitForFrame()
	if len(clock.sleeps) != 0 {
		t.Fatalf("first frame slept %v", clock.sleeps)
	}

	clock.advance(4 * time.Millisecond)
	pacer.WaitForFrame()
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 6*time.Millisecond {
		t.Fatalf("sleeps = %v, want [6ms]", clock.sleeps)
	}
}

func TestWaitForFrameResyncsWhenBehind(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	pacer := NewFramePacer(100, WithClock(clock))

	pacer.WaitForFrame()
	clock.advance(50 * time.Millisecond)
	pacer.WaitForFrame()
	clock.advance(2 * time.Millisecond)
	pacer.WaitForFrame()

	if len(clock.sleeps) != 1 || clock.sleeps[0] != 8*time.Millisecond {
		t.Fatalf("sleeps = %v, want [8ms]", clock.sleeps)
	}
}

func TestStageAverages(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	pacer := NewFramePacer(60, WithClock(clock))

	for _, d := range []time.Duration{2 * time.Millisecond, 4 * time.Millisecond} {
		pacer.BeginFrameStage(StageCPU)
		clock.advance(d)
		pacer.EndFrameStage(StageCPU)
	}

	stats := pacer.Stats()
	if stats.CPUAverage != 3*time.Millisecond {
		t.Fatalf("CPUAverage = %v, want 3ms", stats.CPUAverage)
	}
	if stats.GPUAverage != 0 {
		t.Fatalf("GPUAverage = %v, want 0", stats.GPUAverage)
	}
	if stats.Frames != 2 {
		t.Fatalf("Frames = %d, want 2", stats.Frames)
	}
}

func TestBeginFrameStageTwicePanics(t *testing.T) {
	pacer := NewFramePacer(60)
	pacer.BeginFrameStage(StageGPU)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on reentrant stage")
		}
	}()
	pacer.BeginFrameStage(StageGPU)
}

func TestEndFrameStageWithoutBeginIsIgnored(t *testing.T) {
	pacer := NewFramePacer(60)
	pacer.EndFrameStage(StageGPU)
	if pacer.StageOpen(StageGPU) || pacer.Stats().GPUAverage != 0 {
		t.Fatal("ending a closed stage changed the pacer")
	}
}

func TestDefaultMonitorFrequency(t *testing.T) {
	pacer := NewFramePacer(0)
	if got := pacer.Stats().MonitorFrequency; got != 60 {
		t.Fatalf("MonitorFrequency = %v, want 60", got)
	}
}
