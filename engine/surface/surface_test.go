package surface

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
)

func TestChoosePresentMode(t *testing.T) {
	all := []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox, gpu.PresentModeImmediate}
	fifoOnly := []gpu.PresentMode{gpu.PresentModeFifo}

	tests := []struct {
		name          string
		modes         []gpu.PresentMode
		vsync, triple bool
		want          gpu.PresentMode
	}{
		{"vsync", all, true, false, gpu.PresentModeFifo},
		{"vsync triple buffered", all, true, true, gpu.PresentModeMailbox},
		{"uncapped", all, false, false, gpu.PresentModeImmediate},
		{"uncapped without immediate", []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox}, false, false, gpu.PresentModeMailbox},
		{"triple buffered fallback", fifoOnly, true, true, gpu.PresentModeFifo},
		{"uncapped fallback", fifoOnly, false, true, gpu.PresentModeFifo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChoosePresentMode(tt.modes, tt.vsync, tt.triple); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestChooseFormat(t *testing.T) {
	if got := ChooseFormat([]gpu.TextureFormat{gpu.TextureFormatRGBA16Float, gpu.TextureFormatRGBA8UnormSrgb}); got != gpu.TextureFormatRGBA8UnormSrgb {
		t.Errorf("expected the sRGB format, got %d", got)
	}
	if got := ChooseFormat([]gpu.TextureFormat{gpu.TextureFormatRGBA16Float}); got != gpu.TextureFormatRGBA16Float {
		t.Errorf("expected the only format, got %d", got)
	}
	if got := ChooseFormat(nil); got != gpu.TextureFormatUndefined {
		t.Errorf("expected undefined, got %d", got)
	}
}

func TestReconfigureOnlyWhenInvalid(t *testing.T) {
	host := gputest.NewSurface(gputest.NewDevice())
	s := NewSurface(host, common.ScreenSize{Width: 800, Height: 600}, true, false)

	if !s.Invalid() {
		t.Fatal("expected a new surface to be invalid")
	}
	if _, err := s.Acquire(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Acquire(); err != nil {
		t.Fatal(err)
	}
	if len(host.Configs) != 1 {
		t.Fatalf("expected one configuration, got %d", len(host.Configs))
	}

	s.Resize(common.ScreenSize{Width: 800, Height: 600})
	if s.Invalid() {
		t.Error("expected an unchanged size to keep the surface valid")
	}
	s.SetVsync(false)
	if !s.Invalid() {
		t.Fatal("expected a vsync change to invalidate the surface")
	}
	if _, err := s.Reconfigure(); err != nil {
		t.Fatal(err)
	}
	if cfg := host.Configs[len(host.Configs)-1]; cfg.PresentMode != gpu.PresentModeImmediate {
		t.Errorf("expected immediate present mode, got %d", cfg.PresentMode)
	}
}

func TestMinimizedSurfaceIsConfiguredAtLeastOnePixel(t *testing.T) {
	host := gputest.NewSurface(gputest.NewDevice())
	s := NewSurface(host, common.ScreenSize{}, true, false)
	if _, err := s.Reconfigure(); err != nil {
		t.Fatal(err)
	}
	if cfg := host.Configs[0]; cfg.Width != 1 || cfg.Height != 1 {
		t.Errorf("expected a 1x1 configuration, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestAcquireRetriesAfterFailure(t *testing.T) {
	host := gputest.NewSurface(gputest.NewDevice())
	s := NewSurface(host, common.ScreenSize{Width: 640, Height: 480}, true, false)
	host.FailAcquires = 1

	texture, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if texture.Texture().Width() != 640 {
		t.Errorf("unexpected texture width %d", texture.Texture().Width())
	}
	if len(host.Configs) != 2 {
		t.Errorf("expected a reconfigure after the failed acquire, got %d configurations", len(host.Configs))
	}
}

func TestAcquireGivesUp(t *testing.T) {
	host := gputest.NewSurface(gputest.NewDevice())
	s := NewSurface(host, common.ScreenSize{Width: 640, Height: 480}, true, false)
	host.FailAcquires = maxAcquireAttempts

	_, err := s.Acquire()
	if !errors.Is(err, ErrAcquireFailed) || !errors.Is(err, gputest.ErrOutdated) {
		t.Errorf("expected ErrAcquireFailed wrapping the host error, got %v", err)
	}
	if !s.Invalid() {
		t.Error("expected the surface to stay invalid")
	}
}

func TestFormatChangeIsReported(t *testing.T) {
	host := gputest.NewSurface(gputest.NewDevice())
	s := NewSurface(host, common.ScreenSize{Width: 640, Height: 480}, true, false)

	if changed, err := s.Reconfigure(); err != nil || changed {
		t.Fatalf("expected the first configuration to report no change, got %v %v", changed, err)
	}
	host.Caps.Formats = []gpu.TextureFormat{gpu.TextureFormatRGBA16Float}
	changed, err := s.Reconfigure()
	if err != nil || !changed {
		t.Fatalf("expected a format change, got %v %v", changed, err)
	}
	if s.Format() != gpu.TextureFormatRGBA16Float {
		t.Errorf("unexpected format %d", s.Format())
	}
}
