package runner

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
)

// RunnerBuilderOption is a functional option for configuring a Runner.
type RunnerBuilderOption func(*Runner)

// WithTickRate sets the initial game tick rate in ticks per second.
// Values <= 0 will be treated as the default (60).
//
// Parameters:
//   - hz: ticks per second
//
// Returns:
//   - RunnerBuilderOption: option function to apply
func WithTickRate(hz float64) RunnerBuilderOption {
	return func(r *Runner) {
		if hz > 0 {
			r.tickRate = time.Duration(float64(time.Second) / hz)
		}
	}
}

// WithTickCallback registers the function called each game tick.
//
// Parameters:
//   - callback: function receiving the delta time in seconds
//
// Returns:
//   - RunnerBuilderOption: option function to apply
func WithTickCallback(callback func(deltaTime float32)) RunnerBuilderOption {
	return func(r *Runner) {
		r.tickCallback = callback
	}
}

// WithFrameSource registers the function building the instruction of each frame. It runs on the render goroutine
// after the swapchain texture was acquired.
//
// Parameters:
//   - source: function receiving the delta time in seconds since the previous frame
//
// Returns:
//   - RunnerBuilderOption: option function to apply
func WithFrameSource(source func(deltaTime float32) *instruction.RenderInstruction) RunnerBuilderOption {
	return func(r *Runner) {
		if source != nil {
			r.frameSource = source
		}
	}
}
