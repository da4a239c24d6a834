package runner

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
)

type fakeRenderer struct {
	mu      sync.Mutex
	events  []string
	frames  chan struct{}
	panicAt int
	count   int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{frames: make(chan struct{}, 1024)}
}

func (f *fakeRenderer) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeRenderer) ResumeSurface(gpu.Surface, common.ScreenSize) { f.record("resume") }
func (f *fakeRenderer) SuspendSurface()                              { f.record("suspend") }
func (f *fakeRenderer) Resize(common.ScreenSize)                     { f.record("resize") }

func (f *fakeRenderer) WaitForNextFrame() gpu.SurfaceTexture {
	time.Sleep(time.Millisecond)
	return nil
}

func (f *fakeRenderer) RenderNextFrame(gpu.SurfaceTexture, *instruction.RenderInstruction) {
	f.mu.Lock()
	f.count++
	n := f.count
	f.mu.Unlock()
	if f.panicAt > 0 && n == f.panicAt {
		panic(errors.New("device lost"))
	}
	f.frames <- struct{}{}
}

func (f *fakeRenderer) snapshot() ([]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...), f.count
}

func waitFrames(t *testing.T, f *fakeRenderer, n int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for range n {
		select {
		case <-f.frames:
		case <-timeout:
			t.Fatalf("timed out waiting for %d frames", n)
		}
	}
}

// flush posts a no-op and waits for it, so every command posted before has run.
func flush(t *testing.T, r *Runner) {
	t.Helper()
	done := make(chan struct{})
	if !r.Post(func(Renderer) { close(done) }) {
		t.Fatal("runner quit early")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command never ran")
	}
}

func TestRunnerSuspendAndResume(t *testing.T) {
	f := newFakeRenderer()
	size := common.ScreenSize{Width: 640, Height: 480}
	r := NewRunner(f, gputest.NewSurface(gputest.NewDevice()), size)
	r.Start()

	waitFrames(t, f, 3)
	r.Suspend()
	flush(t, r)

	// Drain anything rendered before the suspend ran, then make sure nothing else arrives.
	for len(f.frames) > 0 {
		<-f.frames
	}
	_, before := f.snapshot()
	time.Sleep(20 * time.Millisecond)
	if _, after := f.snapshot(); after != before {
		t.Fatalf("rendered %d frames while suspended", after-before)
	}

	r.Resume(gputest.NewSurface(gputest.NewDevice()), size)
	r.Resize(common.ScreenSize{Width: 800, Height: 600})
	waitFrames(t, f, 2)

	r.Quit()
	if err := r.Wait(); err != nil {
		t.Fatalf("wait = %v", err)
	}

	events, _ := f.snapshot()
	want := []string{"resume", "suspend", "resume", "resize"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestRunnerStopsOnPanic(t *testing.T) {
	f := newFakeRenderer()
	f.panicAt = 2
	r := NewRunner(f, gputest.NewSurface(gputest.NewDevice()), common.ScreenSize{Width: 1, Height: 1})
	r.Start()

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	err := r.Wait()
	if !errors.Is(err, ErrRenderPanic) {
		t.Fatalf("wait = %v, want ErrRenderPanic", err)
	}
	if r.Post(func(Renderer) {}) {
		t.Error("post after quit reported success")
	}
}

func TestRunnerFrameSourceAndTicks(t *testing.T) {
	f := newFakeRenderer()
	var mu sync.Mutex
	var sourced, ticks int
	r := NewRunner(f, gputest.NewSurface(gputest.NewDevice()), common.ScreenSize{Width: 1, Height: 1},
		WithTickRate(1000),
		WithTickCallback(func(float32) {
			mu.Lock()
			ticks++
			mu.Unlock()
		}),
		WithFrameSource(func(float32) *instruction.RenderInstruction {
			mu.Lock()
			sourced++
			mu.Unlock()
			return &instruction.RenderInstruction{}
		}),
	)
	r.Start()
	waitFrames(t, f, 3)
	time.Sleep(20 * time.Millisecond)
	r.Quit()
	if err := r.Wait(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if sourced < 3 {
		t.Errorf("frame source called %d times", sourced)
	}
	if ticks == 0 {
		t.Error("tick callback never ran")
	}
}

func TestSetTickRateReplacesPending(t *testing.T) {
	r := NewRunner(newFakeRenderer(), nil, common.ScreenSize{})
	r.SetTickRate(30)
	r.SetTickRate(0)

	if len(r.tickRateChannel) != 1 {
		t.Fatalf("pending updates = %d", len(r.tickRateChannel))
	}
	if got := <-r.tickRateChannel; got != time.Second/60 {
		t.Errorf("pending rate = %v, want %v", got, time.Second/60)
	}
}
