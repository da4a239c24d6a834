package wgpu_backend

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type surface struct {
	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *device

	config    gpu.SurfaceConfiguration
	alphaMode wgpu.CompositeAlphaMode
}

var _ gpu.Surface = &surface{}

func (s *surface) Capabilities() gpu.SurfaceCapabilities {
	native := s.surface.GetCapabilities(s.adapter)
	if len(native.AlphaModes) > 0 {
		s.alphaMode = native.AlphaModes[0]
	}

	var caps gpu.SurfaceCapabilities
	for _, f := range native.Formats {
		if format := fromTextureFormat(f); format != gpu.TextureFormatUndefined {
			caps.Formats = append(caps.Formats, format)
		}
	}
	for _, m := range native.PresentModes {
		if mode, ok := fromPresentMode(m); ok {
			caps.PresentModes = append(caps.PresentModes, mode)
		}
	}
	return caps
}

func (s *surface) Configure(config gpu.SurfaceConfiguration) error {
	if config.Width == 0 || config.Height == 0 {
		return fmt.Errorf("cannot configure a %dx%d surface", config.Width, config.Height)
	}
	s.surface.Configure(s.adapter, s.device.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      textureFormat(config.Format),
		Width:       config.Width,
		Height:      config.Height,
		PresentMode: presentMode(config.PresentMode),
		AlphaMode:   s.alphaMode,
	})
	s.config = config
	return nil
}

func (s *surface) AcquireTexture() (gpu.SurfaceTexture, error) {
	if s.config.Width == 0 {
		return nil, errors.New("surface is not configured")
	}
	t, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	v, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("failed to create surface view: %w", err)
	}

	return &surfaceTexture{
		surface: s.surface,
		texture: &texture{
			label:       "Surface Texture",
			width:       s.config.Width,
			height:      s.config.Height,
			layers:      1,
			mips:        1,
			format:      s.config.Format,
			sampleCount: 1,
			texture:     t,
		},
		view: &textureView{label: "Surface View", view: v},
	}, nil
}

type surfaceTexture struct {
	surface *wgpu.Surface
	texture *texture
	view    *textureView
}

func (t *surfaceTexture) Texture() gpu.Texture  { return t.texture }
func (t *surfaceTexture) View() gpu.TextureView { return t.view }
func (t *surfaceTexture) Suboptimal() bool      { return false }

func (t *surfaceTexture) Present() {
	t.surface.Present()
	t.view.view.Release()
	t.texture.texture.Release()
}
