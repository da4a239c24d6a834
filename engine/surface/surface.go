// Package surface owns the swapchain state of the presentation surface: the chosen format, the size, and the
// present mode derived from the vsync and triple buffering settings. The surface is configured lazily; any change
// marks it invalid and the next Reconfigure applies it.
package surface

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

var (
	// ErrSurfaceNotResumed is reported when a frame is requested before the host resumed a surface.
	ErrSurfaceNotResumed = errors.New("surface not resumed")

	// ErrAcquireFailed is returned when no swapchain texture could be acquired after reconfiguring.
	ErrAcquireFailed = errors.New("failed to acquire surface texture")
)

// maxAcquireAttempts bounds the reconfigure and retry loop of Acquire.
const maxAcquireAttempts = 3

// preferredFormats are picked in order when the surface supports them.
var preferredFormats = []gpu.TextureFormat{
	gpu.TextureFormatBGRA8UnormSrgb,
	gpu.TextureFormatRGBA8UnormSrgb,
	gpu.TextureFormatBGRA8Unorm,
	gpu.TextureFormatRGBA8Unorm,
}

// Surface wraps a host surface. It is owned by the engine and not safe for concurrent use.
type Surface struct {
	surface gpu.Surface

	format      gpu.TextureFormat
	size        common.ScreenSize
	presentMode gpu.PresentMode

	vsync           bool
	tripleBuffering bool

	invalid bool
	// configured counts successful Configure calls.
	configured int
}

// NewSurface wraps a host surface. The surface starts invalid and is configured by the first Reconfigure.
//
// Parameters:
//   - surface: the host surface
//   - size: the window size in physical pixels
//   - vsync: whether presentation waits for vertical blank
//   - tripleBuffering: whether a mailbox present mode is preferred when vsync is on
//
// Returns:
//   - *Surface: the wrapped surface
func NewSurface(surface gpu.Surface, size common.ScreenSize, vsync, tripleBuffering bool) *Surface {
	return &Surface{
		surface:         surface,
		size:            size,
		vsync:           vsync,
		tripleBuffering: tripleBuffering,
		invalid:         true,
	}
}

// Format returns the configured format, TextureFormatUndefined before the first Reconfigure.
func (s *Surface) Format() gpu.TextureFormat {
	return s.format
}

// Size returns the requested size. The configured swapchain is at least 1x1.
func (s *Surface) Size() common.ScreenSize {
	return s.size
}

// PresentMode returns the configured present mode.
func (s *Surface) PresentMode() gpu.PresentMode {
	return s.presentMode
}

// Invalid reports whether the surface must be reconfigured before the next acquire.
func (s *Surface) Invalid() bool {
	return s.invalid
}

// Invalidate forces a reconfigure before the next acquire.
func (s *Surface) Invalidate() {
	s.invalid = true
}

// Resize records a new window size and invalidates the surface if it changed.
func (s *Surface) Resize(size common.ScreenSize) {
	if size != s.size {
		s.size = size
		s.invalid = true
	}
}

// SetVsync changes the vsync setting and invalidates the surface if it changed.
func (s *Surface) SetVsync(enabled bool) {
	if enabled != s.vsync {
		s.vsync = enabled
		s.invalid = true
	}
}

// SetTripleBuffering changes the triple buffering setting and invalidates the surface if it changed.
func (s *Surface) SetTripleBuffering(enabled bool) {
	if enabled != s.tripleBuffering {
		s.tripleBuffering = enabled
		s.invalid = true
	}
}

// Reconfigure applies the pending size, format and present mode.
//
// Returns:
//   - bool: true if the format differs from the previous configuration
//   - error: the host configuration error, the surface stays invalid
func (s *Surface) Reconfigure() (bool, error) {
	caps := s.surface.Capabilities()
	format := ChooseFormat(caps.Formats)
	mode := ChoosePresentMode(caps.PresentModes, s.vsync, s.tripleBuffering)
	size := common.ScreenSize{Width: max(s.size.Width, 1), Height: max(s.size.Height, 1)}

	if err := s.surface.Configure(gpu.SurfaceConfiguration{
		Format:      format,
		Width:       size.Width,
		Height:      size.Height,
		PresentMode: mode,
	}); err != nil {
		return false, fmt.Errorf("failed to configure surface %dx%d: %w", size.Width, size.Height, err)
	}

	formatChanged := s.configured > 0 && format != s.format
	s.format = format
	s.presentMode = mode
	s.invalid = false
	s.configured++
	common.LogDebug("surface configured: %dx%d format %d present mode %d", size.Width, size.Height, format, mode)
	return formatChanged, nil
}

// Acquire returns the next swapchain texture. A failed acquire invalidates and reconfigures the surface, then
// retries. A suboptimal texture is returned and the surface is reconfigured before the next frame.
//
// Returns:
//   - gpu.SurfaceTexture: the acquired texture
//   - error: ErrAcquireFailed wrapping the last failure
func (s *Surface) Acquire() (gpu.SurfaceTexture, error) {
	var last error
	for range maxAcquireAttempts {
		if s.invalid {
			if _, err := s.Reconfigure(); err != nil {
				last = err
				continue
			}
		}
		texture, err := s.surface.AcquireTexture()
		if err != nil {
			common.LogDebug("surface acquire failed, reconfiguring: %v", err)
			s.invalid = true
			last = err
			continue
		}
		if texture.Suboptimal() {
			s.invalid = true
		}
		return texture, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrAcquireFailed, last)
}

// ChooseFormat picks the preferred 8-bit sRGB format, falling back to the first supported format.
//
// Parameters:
//   - formats: the supported formats
//
// Returns:
//   - gpu.TextureFormat: the chosen format, TextureFormatUndefined if none is supported
func ChooseFormat(formats []gpu.TextureFormat) gpu.TextureFormat {
	for _, preferred := range preferredFormats {
		if slices.Contains(formats, preferred) {
			return preferred
		}
	}
	if len(formats) == 0 {
		return gpu.TextureFormatUndefined
	}
	return formats[0]
}

// ChoosePresentMode maps the vsync and triple buffering settings to a supported present mode. Fifo is always
// supported and is the fallback.
//
// Parameters:
//   - modes: the supported present modes
//   - vsync: whether presentation waits for vertical blank
//   - tripleBuffering: whether a mailbox is preferred under vsync
//
// Returns:
//   - gpu.PresentMode: the chosen mode
func ChoosePresentMode(modes []gpu.PresentMode, vsync, tripleBuffering bool) gpu.PresentMode {
	var candidates []gpu.PresentMode
	switch {
	case !vsync:
		candidates = []gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeMailbox}
	case tripleBuffering:
		candidates = []gpu.PresentMode{gpu.PresentModeMailbox}
	}
	for _, mode := range candidates {
		if slices.Contains(modes, mode) {
			return mode
		}
	}
	return gpu.PresentModeFifo
}
