package light

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLightShadowCasters is the number of point lights that can render a cube shadow map per frame.
const MaxPointLightShadowCasters = 6

// MaxDirectionalShadowPartitions is the number of directional shadow cascades.
const MaxDirectionalShadowPartitions = 4

// DefaultVisibilityThreshold is the light intensity below which a point light no longer contributes visibly.
const DefaultVisibilityThreshold float32 = 0.01

// DefaultConsistencyBonus is the score added to lights that cast shadows in the previous frame.
const DefaultConsistencyBonus float32 = 20

// PointLightExtent returns the distance at which a light of the given color and range falls below threshold.
// The falloff is logarithmic: a light whose brightest channel is exactly 1 reaches threshold at its range, brighter
// lights reach further and dimmer lights less far.
//
// Parameters:
//   - color: the linear light color
//   - lightRange: the authored light range
//   - threshold: the visibility threshold, DefaultVisibilityThreshold if <= 0
//
// Returns:
//   - float32: the effective extent, never negative
func PointLightExtent(color mgl32.Vec3, lightRange, threshold float32) float32 {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultVisibilityThreshold
	}
	brightest := max(color[0], color[1], color[2])
	if brightest <= threshold || lightRange <= 0 {
		return 0
	}
	ratio := math.Log(float64(brightest/threshold)) / math.Log(float64(1/threshold))
	return lightRange * float32(ratio)
}

// ShadowCaster is a light chosen to render a point shadow map.
type ShadowCaster struct {
	Light  PointLight
	Extent float32
}

type candidate struct {
	light  PointLight
	extent float32
	score  float32
}

// ShadowCasterSelector picks the point lights that render shadow maps each frame. Lights that were selected in the
// previous frame receive a consistency bonus so that shadows do not flicker between similar lights.
type ShadowCasterSelector struct {
	threshold float32
	bonus     float32
	maximum   int

	previous   map[uint32]struct{}
	candidates []candidate
	selected   []ShadowCaster
}

// NewShadowCasterSelector creates a selector.
//
// Parameters:
//   - maximum: the number of casters selected per frame, clamped to MaxPointLightShadowCasters
//   - bonus: the consistency bonus, DefaultConsistencyBonus if negative
//   - threshold: the visibility threshold passed to PointLightExtent
//
// Returns:
//   - *ShadowCasterSelector: the created selector
func NewShadowCasterSelector(maximum int, bonus, threshold float32) *ShadowCasterSelector {
	if bonus < 0 {
		bonus = DefaultConsistencyBonus
	}
	return &ShadowCasterSelector{
		threshold: threshold,
		bonus:     bonus,
		maximum:   min(max(maximum, 0), MaxPointLightShadowCasters),
		previous:  make(map[uint32]struct{}),
	}
}

// Select returns the shadow casters for this frame, best first. Only shadow casting lights whose extent reaches
// the camera's view distance are considered. The returned slice is reused by the next call.
//
// Parameters:
//   - camera: the camera position
//   - viewDistance: lights whose extent sphere is further away than this are ignored
//   - lights: the candidate lights
//
// Returns:
//   - []ShadowCaster: at most maximum casters
func (s *ShadowCasterSelector) Select(camera mgl32.Vec3, viewDistance float32, lights []PointLight) []ShadowCaster {
	s.candidates = s.candidates[:0]
	for _, l := range lights {
		if !l.CastsShadows() {
			continue
		}
		extent := PointLightExtent(l.Color(), l.Range(), s.threshold)
		if extent <= 0 || l.Position().Sub(camera).Len()-extent > viewDistance {
			continue
		}
		c := l.Color()
		score := extent * max(c[0], c[1], c[2])
		if _, ok := s.previous[l.ID()]; ok {
			score += s.bonus
		}
		s.candidates = append(s.candidates, candidate{light: l, extent: extent, score: score})
	}

	slices.SortStableFunc(s.candidates, func(a, b candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	clear(s.previous)
	s.selected = s.selected[:0]
	for _, c := range s.candidates[:min(len(s.candidates), s.maximum)] {
		s.selected = append(s.selected, ShadowCaster{Light: c.light, Extent: c.extent})
		s.previous[c.light.ID()] = struct{}{}
	}
	clear(s.candidates)
	return s.selected
}
