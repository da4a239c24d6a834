// Command viewer opens a window and renders a synthetic map through the render engine.
//
// Graphics settings are read from a TOML file that is watched for changes; editing it while the viewer runs
// applies the new values between two frames. Keys toggle the common settings and write them back to the file.
package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ro/engine/runner"
	"github.com/Carmen-Shannon/oxy-ro/engine/settings"
	"github.com/Carmen-Shannon/oxy-ro/engine/window"
)

type options struct {
	settingsPath    string
	shaderDir       string
	tickRate        float64
	fallbackAdapter bool
}

func main() {
	var opts options
	flag.StringVar(&opts.settingsPath, "settings", "settings.toml", "settings file, created on the first change")
	flag.StringVar(&opts.shaderDir, "shaders", "shaders", "directory containing the WGSL shader modules")
	flag.Float64Var(&opts.tickRate, "tick-rate", 60, "game ticks per second")
	flag.BoolVar(&opts.fallbackAdapter, "fallback-adapter", false, "force the software fallback adapter")
	flag.Parse()

	if err := run(opts); err != nil {
		common.LogError("viewer: %v", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	current, err := settings.Load(opts.settingsPath)
	if errors.Is(err, settings.ErrInvalidSettings) {
		common.LogWarn("%v, using defaults", err)
	} else if err != nil {
		return err
	}
	if !common.SetLogLevel(current.LogLevel) {
		common.LogWarn("unknown log level %q ignored", current.LogLevel)
	}

	win, err := window.NewWindow(window.WithTitle("oxy-ro viewer"))
	if err != nil {
		return err
	}
	defer win.Close()

	backend, err := wgpu_backend.New(win.SurfaceDescriptor(), shader.NewLibrary(os.DirFS(opts.shaderDir)),
		wgpu_backend.WithForceFallbackAdapter(opts.fallbackAdapter))
	if err != nil {
		return err
	}
	defer backend.Release()

	frequency := current.MonitorFrequency
	if rate := win.RefreshRate(); rate > 0 {
		frequency = rate
	}
	eng := engine.NewEngine(backend.Device(), backend.Queue(),
		engine.WithGraphicsSettings(current.Graphics),
		engine.WithProfiling(current.Profiling),
		engine.WithMonitorFrequency(frequency),
		engine.WithExtension(engine.NewDebugExtension()),
	)

	scene := newViewerScene(win.Size())
	scene.depthBounds = eng.DepthBounds
	r := runner.NewRunner(eng, backend.Surface(), win.Size(),
		runner.WithTickRate(opts.tickRate),
		runner.WithTickCallback(scene.tick),
		runner.WithFrameSource(scene.instruction),
	)

	// apply runs on the window goroutine, which owns current; the engine setters run between frames.
	apply := func(next settings.Settings) {
		prev := current
		current = next
		r.Post(func(runner.Renderer) {
			if changed := settings.Apply(eng, prev, next); len(changed) > 0 {
				common.LogInfo("applied settings: %v", changed)
			}
		})
	}
	persist := func(next settings.Settings) {
		apply(next)
		if err := settings.Save(opts.settingsPath, next); err != nil {
			common.LogWarn("%v", err)
		}
	}

	var changes <-chan settings.Settings
	watcher, err := settings.NewWatcher(opts.settingsPath, current)
	if err != nil {
		common.LogWarn("settings will not be reloaded: %v", err)
	} else {
		defer watcher.Close()
		changes = watcher.Changes()
	}

	quit := false
	win.SetResizeCallback(func(size common.ScreenSize) {
		scene.setSize(size)
		r.Resize(size)
	})
	win.SetIconifyCallback(func(iconified bool) {
		if iconified {
			r.Suspend()
			return
		}
		r.Resume(backend.Surface(), win.Size())
	})
	win.SetCursorCallback(scene.setCursor)
	win.SetScrollCallback(scene.zoom)
	win.SetMouseButtonCallback(func(button window.MouseButton, pressed bool, pos common.ScreenPosition) {
		if button == window.MouseButtonRight {
			scene.setDragging(pressed)
			return
		}
		if button != window.MouseButtonLeft || !pressed {
			return
		}
		r.Post(func(runner.Renderer) {
			if target, ok := eng.PickerTarget(); ok {
				common.LogInfo("picked %T %v at %.0f,%.0f", target, target, pos.X, pos.Y)
			}
		})
	})
	win.SetKeyCallback(func(code uint32, pressed bool) {
		scene.key(code, pressed)
		if !pressed {
			return
		}
		next := current
		g := &next.Graphics
		switch code {
		case common.KeyEsc:
			quit = true
			return
		case common.KeyB:
			common.LogInfo("showing debug buffer %d", scene.cycleDebugBuffer())
			return
		case common.KeyF:
			g.ScreenSpaceAntiAliasing = (g.ScreenSpaceAntiAliasing + 1) % 3
		case common.KeyM:
			g.MSAA = (g.MSAA + 1) % 5
		case common.KeyT:
			g.TextureSampler = (g.TextureSampler + 1) % 5
		case common.KeyV:
			g.Vsync = !g.Vsync
		case common.KeyL:
			g.FramerateLimit = !g.FramerateLimit
		case common.KeyH:
			g.HighQualityInterface = !g.HighQualityInterface
		case common.KeyP:
			next.Profiling = !next.Profiling
		default:
			return
		}
		persist(next)
	})

	r.Start()
	poll := time.NewTicker(2 * time.Millisecond)
	defer poll.Stop()

loop:
	for !quit && win.Poll() {
		select {
		case <-r.Done():
			break loop
		case next := <-changes:
			common.LogInfo("settings file changed, reloading")
			apply(next)
		case <-poll.C:
		}
	}

	r.Quit()
	return r.Wait()
}
