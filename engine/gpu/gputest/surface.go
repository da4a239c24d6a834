package gputest

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

// ErrOutdated is returned by AcquireTexture while FailAcquires is positive.
var ErrOutdated = errors.New("gputest: surface outdated")

// Surface is a fake presentation surface.
type Surface struct {
	mu     sync.Mutex
	device *Device

	Caps gpu.SurfaceCapabilities
	// Configs records every Configure call.
	Configs []gpu.SurfaceConfiguration
	// FailAcquires makes the next n AcquireTexture calls fail.
	FailAcquires int
	// Presented counts presented frames.
	Presented int
}

var _ gpu.Surface = &Surface{}

// NewSurface creates a fake surface supporting BGRA8 sRGB and all present modes.
func NewSurface(device *Device) *Surface {
	return &Surface{
		device: device,
		Caps: gpu.SurfaceCapabilities{
			Formats:      []gpu.TextureFormat{gpu.TextureFormatBGRA8UnormSrgb, gpu.TextureFormatRGBA16Float},
			PresentModes: []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox, gpu.PresentModeImmediate},
		},
	}
}

func (s *Surface) Capabilities() gpu.SurfaceCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Caps
}

func (s *Surface) Configure(config gpu.SurfaceConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Configs = append(s.Configs, config)
	return nil
}

func (s *Surface) AcquireTexture() (gpu.SurfaceTexture, error) {
	s.mu.Lock()
	if s.FailAcquires > 0 {
		s.FailAcquires--
		s.mu.Unlock()
		return nil, ErrOutdated
	}
	if len(s.Configs) == 0 {
		s.mu.Unlock()
		return nil, errors.New("gputest: surface not configured")
	}
	cfg := s.Configs[len(s.Configs)-1]
	s.mu.Unlock()

	tex, err := s.device.CreateTexture(gpu.TextureDescriptor{
		Label:  "Surface Texture",
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: cfg.Format,
		Usage:  gpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(gpu.TextureViewDescriptor{})
	if err != nil {
		return nil, err
	}
	return &SurfaceTexture{surface: s, texture: tex, view: view}, nil
}

// SurfaceTexture is a fake acquired swapchain image.
type SurfaceTexture struct {
	surface *Surface
	texture gpu.Texture
	view    gpu.TextureView
}

func (t *SurfaceTexture) Texture() gpu.Texture  { return t.texture }
func (t *SurfaceTexture) View() gpu.TextureView { return t.view }
func (t *SurfaceTexture) Suboptimal() bool      { return false }

func (t *SurfaceTexture) Present() {
	t.surface.mu.Lock()
	defer t.surface.mu.Unlock()
	t.surface.Presented++
}
