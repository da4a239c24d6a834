package global

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

// ErrUnknownSetting is returned when a setting value cannot be parsed.
var ErrUnknownSetting = errors.New("unknown setting value")

func parseName(kind string, names []string, text []byte) (int, error) {
	value := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range names {
		if name == value {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s %q: %w", kind, value, ErrUnknownSetting)
}

func formatName(kind string, names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", kind, i)
	}
	return names[i]
}

// ScreenSpaceAntiAliasing selects the post-processing anti-aliasing filter.
type ScreenSpaceAntiAliasing int

const (
	ScreenSpaceAntiAliasingOff ScreenSpaceAntiAliasing = iota
	ScreenSpaceAntiAliasingFXAA
	ScreenSpaceAntiAliasingCMAA2
)

var screenSpaceAntiAliasingNames = []string{"off", "fxaa", "cmaa2"}

func (s ScreenSpaceAntiAliasing) String() string {
	return formatName("ScreenSpaceAntiAliasing", screenSpaceAntiAliasingNames, int(s))
}

func (s ScreenSpaceAntiAliasing) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ScreenSpaceAntiAliasing) UnmarshalText(text []byte) error {
	i, err := parseName("screen space anti-aliasing", screenSpaceAntiAliasingNames, text)
	*s = ScreenSpaceAntiAliasing(i)
	return err
}

// MSAA selects the multisample count of the forward pass.
type MSAA int

const (
	MSAAOff MSAA = iota
	MSAAX2
	MSAAX4
	MSAAX8
	MSAAX16
)

var msaaNames = []string{"off", "x2", "x4", "x8", "x16"}

// SampleCount returns the number of samples per pixel.
func (m MSAA) SampleCount() uint32 {
	return 1 << uint32(m)
}

// Multisampled reports whether more than one sample is used.
func (m MSAA) Multisampled() bool {
	return m != MSAAOff
}

func (m MSAA) String() string {
	return formatName("MSAA", msaaNames, int(m))
}

func (m MSAA) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MSAA) UnmarshalText(text []byte) error {
	i, err := parseName("msaa", msaaNames, text)
	*m = MSAA(i)
	return err
}

// SSAA selects the supersampling factor of the forward pass.
type SSAA int

const (
	SSAAOff SSAA = iota
	SSAAX2
	SSAAX3
	SSAAX4
)

var ssaaNames = []string{"off", "x2", "x3", "x4"}

// Factor returns the per-axis resolution multiplier.
func (s SSAA) Factor() uint32 {
	return uint32(s) + 1
}

func (s SSAA) String() string {
	return formatName("SSAA", ssaaNames, int(s))
}

func (s SSAA) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SSAA) UnmarshalText(text []byte) error {
	i, err := parseName("ssaa", ssaaNames, text)
	*s = SSAA(i)
	return err
}

// ShadowDetail selects shadow map resolutions.
type ShadowDetail int

const (
	ShadowDetailLow ShadowDetail = iota
	ShadowDetailMedium
	ShadowDetailHigh
	ShadowDetailUltra
)

var shadowDetailNames = []string{"low", "medium", "high", "ultra"}

// DirectionalResolution returns the edge length of one directional shadow partition.
func (d ShadowDetail) DirectionalResolution() uint32 {
	return 512 << uint32(d)
}

// PointResolution returns the edge length of one point shadow cube face.
func (d ShadowDetail) PointResolution() uint32 {
	return 256 << uint32(d)
}

func (d ShadowDetail) String() string {
	return formatName("ShadowDetail", shadowDetailNames, int(d))
}

func (d ShadowDetail) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *ShadowDetail) UnmarshalText(text []byte) error {
	i, err := parseName("shadow detail", shadowDetailNames, text)
	*d = ShadowDetail(i)
	return err
}

// TextureSamplerType selects filtering of world textures.
type TextureSamplerType int

const (
	TextureSamplerNearest TextureSamplerType = iota
	TextureSamplerLinear
	TextureSamplerAnisotropic4
	TextureSamplerAnisotropic8
	TextureSamplerAnisotropic16
)

var textureSamplerTypeNames = []string{"nearest", "linear", "anisotropic-4", "anisotropic-8", "anisotropic-16"}

// Descriptor returns the sampler descriptor of this filtering mode.
func (t TextureSamplerType) Descriptor() gpu.SamplerDescriptor {
	desc := gpu.SamplerDescriptor{
		Label:         "Texture Sampler",
		Filter:        gpu.FilterModeLinear,
		MipmapFilter:  gpu.FilterModeLinear,
		AddressMode:   gpu.AddressModeRepeat,
		MaxAnisotropy: 1,
	}
	switch t {
	case TextureSamplerNearest:
		desc.Filter = gpu.FilterModeNearest
		desc.MipmapFilter = gpu.FilterModeNearest
	case TextureSamplerAnisotropic4:
		desc.MaxAnisotropy = 4
	case TextureSamplerAnisotropic8:
		desc.MaxAnisotropy = 8
	case TextureSamplerAnisotropic16:
		desc.MaxAnisotropy = 16
	}
	return desc
}

func (t TextureSamplerType) String() string {
	return formatName("TextureSamplerType", textureSamplerTypeNames, int(t))
}

func (t TextureSamplerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TextureSamplerType) UnmarshalText(text []byte) error {
	i, err := parseName("texture sampler", textureSamplerTypeNames, text)
	*t = TextureSamplerType(i)
	return err
}

// GraphicsSettings is the full set of user-facing graphics options.
type GraphicsSettings struct {
	Vsync                   bool                    `toml:"vsync"`
	TripleBuffering         bool                    `toml:"triple_buffering"`
	FramerateLimit          bool                    `toml:"framerate_limit"`
	TextureSampler          TextureSamplerType      `toml:"texture_sampler"`
	ScreenSpaceAntiAliasing ScreenSpaceAntiAliasing `toml:"screen_space_anti_aliasing"`
	MSAA                    MSAA                    `toml:"msaa"`
	SSAA                    SSAA                    `toml:"ssaa"`
	ShadowDetail            ShadowDetail            `toml:"shadow_detail"`
	HighQualityInterface    bool                    `toml:"high_quality_interface"`
}

// DefaultGraphicsSettings returns the settings used when no file exists.
func DefaultGraphicsSettings() GraphicsSettings {
	return GraphicsSettings{
		Vsync:                   true,
		TextureSampler:          TextureSamplerLinear,
		ScreenSpaceAntiAliasing: ScreenSpaceAntiAliasingOff,
		MSAA:                    MSAAX4,
		SSAA:                    SSAAOff,
		ShadowDetail:            ShadowDetailHigh,
		HighQualityInterface:    true,
	}
}
