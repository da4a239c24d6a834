// Package runner drives a renderer from its own goroutine while the host keeps the window thread for event polling.
//
// A Runner owns three goroutines: the game tick loop, the render loop and a quit watcher. Everything that touches the
// renderer outside a frame (surface suspend and resume, resizes, settings changes) is posted as a command and runs
// on the render goroutine between two frames.
package runner

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
)

// Renderer is the part of the engine a Runner drives.
type Renderer interface {
	ResumeSurface(s gpu.Surface, size common.ScreenSize)
	SuspendSurface()
	Resize(size common.ScreenSize)
	WaitForNextFrame() gpu.SurfaceTexture
	RenderNextFrame(frame gpu.SurfaceTexture, instruction *instruction.RenderInstruction)
}

// Command runs on the render goroutine between two frames.
type Command func(r Renderer)

// ErrRenderPanic wraps the value recovered from a panicking frame.
var ErrRenderPanic = errors.New("render loop panicked")

// Runner runs the tick and render loops of a client.
type Runner struct {
	renderer Renderer
	surface  gpu.Surface
	size     common.ScreenSize

	commands        chan Command
	tickRateChannel chan time.Duration
	tickRate        time.Duration

	quitChannel chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup
	startOnce   sync.Once

	tickCallback func(deltaTime float32)
	frameSource  func(deltaTime float32) *instruction.RenderInstruction

	errMu sync.Mutex
	err   error
}

// NewRunner creates a runner for a renderer presenting to surface. The surface is resumed when the render loop
// starts.
//
// Parameters:
//   - renderer: the renderer to drive
//   - surface: the presentation surface
//   - size: the initial surface size
//   - options: functional options
//
// Returns:
//   - *Runner: the runner, not yet started
func NewRunner(renderer Renderer, surface gpu.Surface, size common.ScreenSize, options ...RunnerBuilderOption) *Runner {
	r := &Runner{
		renderer:        renderer,
		surface:         surface,
		size:            size,
		commands:        make(chan Command, 64),
		tickRateChannel: make(chan time.Duration, 1),
		tickRate:        time.Second / 60,
		quitChannel:     make(chan struct{}),
		frameSource: func(float32) *instruction.RenderInstruction {
			return &instruction.RenderInstruction{}
		},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Start launches the tick, render and quit goroutines. Subsequent calls are no-ops.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(3)
		go r.handleTick()
		go r.handleRender()
		go r.handleQuit()
	})
}

// Post queues a command for the render goroutine. It blocks while the command queue is full and returns false
// if the runner has quit.
//
// Parameters:
//   - cmd: the command to run between frames
//
// Returns:
//   - bool: true if the command was queued
func (r *Runner) Post(cmd Command) bool {
	select {
	case <-r.quitChannel:
		return false
	default:
	}
	select {
	case <-r.quitChannel:
		return false
	case r.commands <- cmd:
		return true
	}
}

// Resize forwards a new surface size to the renderer.
func (r *Runner) Resize(size common.ScreenSize) {
	r.Post(func(rd Renderer) {
		r.size = size
		rd.Resize(size)
	})
}

// Suspend stops rendering and releases the surface, e.g. while the window is minimized.
func (r *Runner) Suspend() {
	r.Post(func(rd Renderer) {
		if r.surface != nil {
			rd.SuspendSurface()
		}
		r.surface = nil
	})
}

// Resume hands a surface back to the renderer and resumes rendering.
//
// Parameters:
//   - s: the presentation surface
//   - size: the current surface size
func (r *Runner) Resume(s gpu.Surface, size common.ScreenSize) {
	r.Post(func(rd Renderer) {
		r.surface = s
		r.size = size
		rd.ResumeSurface(s, size)
	})
}

// SetTickRate sets the game tick rate in ticks per second. Values <= 0 default to 60.
// If the runner is running the change takes effect on the next tick.
func (r *Runner) SetTickRate(hz float64) {
	if hz <= 0 {
		hz = 60
	}
	rate := time.Duration(float64(time.Second) / hz)

	// Replace a pending update rather than blocking behind it.
	select {
	case r.tickRateChannel <- rate:
	default:
		select {
		case <-r.tickRateChannel:
		default:
		}
		r.tickRateChannel <- rate
	}
}

// Quit signals all goroutines to stop. Safe to call multiple times.
func (r *Runner) Quit() {
	r.quitOnce.Do(func() {
		close(r.quitChannel)
	})
}

// Done is closed once Quit was called or the render loop failed.
func (r *Runner) Done() <-chan struct{} {
	return r.quitChannel
}

// Wait blocks until every goroutine has exited.
//
// Returns:
//   - error: the error that stopped the render loop, or nil after a regular Quit
func (r *Runner) Wait() error {
	r.wg.Wait()
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

func (r *Runner) fail(err error) {
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.errMu.Unlock()
	r.Quit()
}

func (r *Runner) handleTick() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-r.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if r.tickCallback != nil {
				r.tickCallback(dt)
			}
		case rate := <-r.tickRateChannel:
			ticker.Reset(rate)
			r.tickRate = rate
		}
	}
}

func (r *Runner) handleRender() {
	defer r.wg.Done()
	// A panicking frame stops the runner instead of the process; the host sees the error from Wait.
	defer func() {
		if v := recover(); v != nil {
			err, ok := v.(error)
			if !ok {
				err = fmt.Errorf("%v", v)
			}
			common.LogError("render loop stopped: %v", err)
			r.fail(fmt.Errorf("%w: %w", ErrRenderPanic, err))
		}
	}()

	if r.surface != nil {
		r.renderer.ResumeSurface(r.surface, r.size)
	}

	lastFrame := time.Now()
	for {
		if !r.runCommands() {
			return
		}
		if r.surface == nil {
			// Suspended: block until a command resumes the surface.
			select {
			case <-r.quitChannel:
				return
			case cmd := <-r.commands:
				cmd(r.renderer)
			}
			lastFrame = time.Now()
			continue
		}

		frame := r.renderer.WaitForNextFrame()
		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		r.renderer.RenderNextFrame(frame, r.frameSource(dt))
	}
}

// runCommands drains the command queue without blocking. It returns false once the runner has quit.
func (r *Runner) runCommands() bool {
	for {
		select {
		case <-r.quitChannel:
			return false
		case cmd := <-r.commands:
			cmd(r.renderer)
		default:
			return true
		}
	}
}

func (r *Runner) handleQuit() {
	defer r.wg.Done()
	<-r.quitChannel
}
