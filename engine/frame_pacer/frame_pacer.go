// Package frame_pacer tracks CPU and GPU frame stage timings and throttles rendering to the monitor frequency.
package frame_pacer

import (
	"fmt"
	"sync"
	"time"
)

// Stage identifies a frame stage.
type Stage int

const (
	// StageCPU brackets the CPU side of a frame, from the start of RenderNextFrame until present.
	StageCPU Stage = iota
	// StageGPU brackets the GPU side of a frame, from submission until the device poll that observes completion.
	StageGPU

	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageCPU:
		return "cpu"
	case StageGPU:
		return "gpu"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// historyLength is the number of samples averaged per stage.
const historyLength = 64

// Clock abstracts time so pacing can be tested.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

type stageState struct {
	open    bool
	begin   time.Time
	history [historyLength]time.Duration
	next    int
	count   int
}

func (s *stageState) average() time.Duration {
	if s.count == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.history[:s.count] {
		total += d
	}
	return total / time.Duration(s.count)
}

// Stats is a snapshot of the pacer state.
type Stats struct {
	MonitorFrequency float64
	FrameDuration    time.Duration
	CPUAverage       time.Duration
	GPUAverage       time.Duration
	// Frames counts completed CPU stages.
	Frames uint64
}

// FramePacer paces frames to a target monitor frequency. It is not reentrant: each stage may only be open once.
type FramePacer struct {
	mu    sync.Mutex
	clock Clock

	monitorFrequency float64
	frameDuration    time.Duration
	deadline         time.Time

	stages [stageCount]stageState
	frames uint64
}

// NewFramePacer creates a pacer targeting the given monitor frequency.
//
// Parameters:
//   - monitorFrequency: refresh rate in Hz (60 if <= 0)
//   - options: functional options
//
// Returns:
//   - *FramePacer: the created pacer
func NewFramePacer(monitorFrequency float64, options ...FramePacerBuilderOption) *FramePacer {
	p := &FramePacer{clock: systemClock{}}
	for _, opt := range options {
		opt(p)
	}
	p.setMonitorFrequency(monitorFrequency)
	return p
}

// SetMonitorFrequency changes the target refresh rate and restarts the deadline sequence.
func (p *FramePacer) SetMonitorFrequency(monitorFrequency float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setMonitorFrequency(monitorFrequency)
}

func (p *FramePacer) setMonitorFrequency(monitorFrequency float64) {
	if monitorFrequency <= 0 {
		monitorFrequency = 60
	}
	p.monitorFrequency = monitorFrequency
	p.frameDuration = time.Duration(float64(time.Second) / monitorFrequency)
	p.deadline = time.Time{}
}

// WaitForFrame blocks until the next frame deadline. If the caller fell behind by more than a frame the deadline
// sequence is resynchronised to now instead of trying to catch up.
func (p *FramePacer) WaitForFrame() {
	p.mu.Lock()
	now := p.clock.Now()
	if p.deadline.IsZero() || now.Sub(p.deadline) > p.frameDuration {
		p.deadline = now
	}
	wait := p.deadline.Sub(now)
	p.deadline = p.deadline.Add(p.frameDuration)
	clock := p.clock
	p.mu.Unlock()

	if wait > 0 {
		clock.Sleep(wait)
	}
}

// BeginFrameStage opens a stage. Panics if the stage is already open.
func (p *FramePacer) BeginFrameStage(stage Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.stages[stage]
	if s.open {
		panic(fmt.Sprintf("frame pacer: %s stage begun twice", stage))
	}
	s.open = true
	s.begin = p.clock.Now()
}

// EndFrameStage closes a stage and records its duration. Ending a stage that is not open is ignored, which lets
// the GPU stage be ended unconditionally on the first frame.
func (p *FramePacer) EndFrameStage(stage Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.stages[stage]
	if !s.open {
		return
	}
	s.open = false
	s.history[s.next] = p.clock.Now().Sub(s.begin)
	s.next = (s.next + 1) % historyLength
	s.count = min(s.count+1, historyLength)
	if stage == StageCPU {
		p.frames++
	}
}

// StageOpen reports whether a stage is currently open.
func (p *FramePacer) StageOpen(stage Stage) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stages[stage].open
}

// Stats returns the current pacing statistics.
func (p *FramePacer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		MonitorFrequency: p.monitorFrequency,
		FrameDuration:    p.frameDuration,
		CPUAverage:       p.stages[StageCPU].average(),
		GPUAverage:       p.stages[StageGPU].average(),
		Frames:           p.frames,
	}
}
