package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var errWindowClosed = errors.New("window is closed")

type glfwWindow struct {
	window *glfw.Window
}

// newPlatformWindow creates the GLFW window and routes its callbacks into w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// The surface is driven through WebGPU, so no GL context is created.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolHint(w.resizable))

	win, err := glfw.CreateWindow(int(w.size.Width), int(w.size.Height), w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(int(w.minSize.Width), int(w.minSize.Height), glfw.DontCare, glfw.DontCare)

	gw := &glfwWindow{window: win}
	w.platform = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press, glfw.Repeat:
			w.key(uint32(key), true)
		case glfw.Release:
			w.key(uint32(key), false)
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.scrolled(float32(yoff))
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		var b MouseButton
		switch button {
		case glfw.MouseButtonLeft:
			b = MouseButtonLeft
		case glfw.MouseButtonRight:
			b = MouseButtonRight
		case glfw.MouseButtonMiddle:
			b = MouseButtonMiddle
		default:
			return
		}
		w.mouseButton(b, action == glfw.Press)
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		w.cursorMoved(gw.toFramebuffer(xpos, ypos))
	})

	// Framebuffer size rather than window size: on high-DPI displays the two differ and the surface is
	// configured in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(common.ScreenSize{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))})
	})

	win.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		w.iconified(iconified)
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.size = common.ScreenSize{Width: uint32(fbWidth), Height: uint32(fbHeight)}
	return nil
}

func boolHint(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

// toFramebuffer converts a cursor position in screen coordinates to framebuffer pixels.
func (gw *glfwWindow) toFramebuffer(x, y float64) common.ScreenPosition {
	winWidth, winHeight := gw.window.GetSize()
	fbWidth, fbHeight := gw.window.GetFramebufferSize()
	if winWidth == 0 || winHeight == 0 {
		return common.ScreenPosition{}
	}
	return common.ScreenPosition{
		X: float32(x * float64(fbWidth) / float64(winWidth)),
		Y: float32(y * float64(fbHeight) / float64(winHeight)),
	}
}

// surfaceDescriptor uses the wgpuglfw bridge, which has per-platform implementations (Windows, X11, Wayland, macOS).
func (gw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// refreshRate reads the video mode of the fullscreen monitor, or of the primary monitor for windowed mode.
func (gw *glfwWindow) refreshRate() float64 {
	monitor := gw.window.GetMonitor()
	if monitor == nil {
		monitor = glfw.GetPrimaryMonitor()
	}
	if monitor == nil {
		return 0
	}
	mode := monitor.GetVideoMode()
	if mode == nil {
		return 0
	}
	return float64(mode.RefreshRate)
}

func (gw *glfwWindow) poll() bool {
	glfw.PollEvents()
	return !gw.window.ShouldClose()
}

func (gw *glfwWindow) destroy() {
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
}
