package common

// Key codes delivered by the window layer. They are the GLFW key codes, which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA = 65 // camera left
	KeyB = 66 // cycle debug buffer
	KeyD = 68 // camera right
	KeyF = 70 // cycle screen space anti-aliasing
	KeyH = 72 // high quality interface
	KeyL = 76 // framerate limit
	KeyM = 77 // cycle MSAA
	KeyP = 80 // profiler
	KeyS = 83 // camera back
	KeyT = 84 // cycle texture sampler
	KeyV = 86 // vsync
	KeyW = 87 // camera forward

	KeyEsc = 256
)
