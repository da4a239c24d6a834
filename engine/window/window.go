// Package window hosts the render surface of the client in a GLFW window and forwards its input events.
package window

import (
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies a mouse button reported by the window.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Window provides the platform surface and input events of the game client.
// All methods must be called from the goroutine that created the window.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer size in physical pixels
	SetResizeCallback(callback func(size common.ScreenSize))

	// SetIconifyCallback sets the function called when the window is minimized or restored.
	// A minimized window has no drawable surface; the host suspends rendering until it is restored.
	//
	// Parameters:
	//   - callback: function receiving true on minimize and false on restore
	SetIconifyCallback(callback func(iconified bool))

	// SetKeyCallback sets the callback for key presses, repeats and releases.
	//
	// Parameters:
	//   - callback: function receiving the key code (see common.Key*) and whether it is held
	SetKeyCallback(callback func(keyCode uint32, pressed bool))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button, its state and the cursor position
	SetMouseButtonCallback(callback func(button MouseButton, pressed bool, pos common.ScreenPosition))

	// SetCursorCallback sets the callback for cursor movement inside the window.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in physical pixels
	SetCursorCallback(callback func(pos common.ScreenPosition))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta (positive = up)
	SetScrollCallback(callback func(delta float32))

	// SurfaceDescriptor returns the platform surface descriptor of the window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Size returns the current framebuffer size in physical pixels.
	Size() common.ScreenSize

	// CursorPosition returns the last known cursor position in physical pixels.
	CursorPosition() common.ScreenPosition

	// RefreshRate returns the refresh rate of the monitor the window is on, or 0 if unknown.
	RefreshRate() float64

	// Poll processes pending window events and dispatches callbacks.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	Poll() bool

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error
}

type engineWindow struct {
	title     string
	size      common.ScreenSize
	minSize   common.ScreenSize
	resizable bool

	// cursor is kept in framebuffer pixels, which differ from window coordinates on high-DPI displays.
	cursor common.ScreenPosition

	platform *glfwWindow

	onResize      func(size common.ScreenSize)
	onIconify     func(iconified bool)
	onKey         func(keyCode uint32, pressed bool)
	onMouseButton func(button MouseButton, pressed bool, pos common.ScreenPosition)
	onCursor      func(pos common.ScreenPosition)
	onScroll      func(delta float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Ragnarok Online",
		size:      common.ScreenSize{Width: 1280, Height: 720},
		minSize:   common.ScreenSize{Width: 640, Height: 480},
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	common.LogInfo("window %q created at %dx%d", w.title, w.size.Width, w.size.Height)
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(size common.ScreenSize)) {
	w.onResize = callback
}

func (w *engineWindow) SetIconifyCallback(callback func(iconified bool)) {
	w.onIconify = callback
}

func (w *engineWindow) SetKeyCallback(callback func(keyCode uint32, pressed bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button MouseButton, pressed bool, pos common.ScreenPosition)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetCursorCallback(callback func(pos common.ScreenPosition)) {
	w.onCursor = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) Size() common.ScreenSize {
	return w.size
}

func (w *engineWindow) CursorPosition() common.ScreenPosition {
	return w.cursor
}

func (w *engineWindow) RefreshRate() float64 {
	if w.platform == nil {
		return 0
	}
	return w.platform.refreshRate()
}

func (w *engineWindow) Poll() bool {
	if w.platform == nil {
		return false
	}
	return w.platform.poll()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return errWindowClosed
	}
	w.platform.destroy()
	w.platform = nil
	return nil
}

// resized records a framebuffer size change and forwards it. A zero size is reported through onIconify instead.
func (w *engineWindow) resized(size common.ScreenSize) {
	if size == w.size {
		return
	}
	w.size = size
	if !size.Empty() && w.onResize != nil {
		w.onResize(size)
	}
}

func (w *engineWindow) iconified(iconified bool) {
	if w.onIconify != nil {
		w.onIconify(iconified)
	}
}

func (w *engineWindow) key(keyCode uint32, pressed bool) {
	if w.onKey != nil {
		w.onKey(keyCode, pressed)
	}
}

func (w *engineWindow) mouseButton(button MouseButton, pressed bool) {
	if w.onMouseButton != nil {
		w.onMouseButton(button, pressed, w.cursor)
	}
}

func (w *engineWindow) cursorMoved(pos common.ScreenPosition) {
	w.cursor = pos
	if w.onCursor != nil {
		w.onCursor(pos)
	}
}

func (w *engineWindow) scrolled(delta float32) {
	if w.onScroll != nil {
		w.onScroll(delta)
	}
}
