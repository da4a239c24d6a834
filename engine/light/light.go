// Package light holds the map point light sources and decides which of them render point shadow maps.
package light

import "github.com/go-gl/mathgl/mgl32"

// PointLight is a map light source.
type PointLight interface {
	// ID returns the stable identifier used for frame-to-frame shadow consistency.
	//
	// Returns:
	//   - uint32: the light id
	ID() uint32

	// Position returns the world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Color returns the linear RGB color, already scaled by intensity.
	//
	// Returns:
	//   - mgl32.Vec3: the color
	Color() mgl32.Vec3

	// Range returns the authored range of the light in world units.
	//
	// Returns:
	//   - float32: the range
	Range() float32

	// CastsShadows reports whether the light may be selected as a shadow caster.
	//
	// Returns:
	//   - bool: true if the light can cast shadows
	CastsShadows() bool

	// SetPosition moves the light.
	//
	// Parameters:
	//   - position: the new world-space position
	SetPosition(position mgl32.Vec3)

	// SetColor changes the light color.
	//
	// Parameters:
	//   - color: the new linear RGB color
	SetColor(color mgl32.Vec3)
}

type pointLightImpl struct {
	id           uint32
	position     mgl32.Vec3
	color        mgl32.Vec3
	lightRange   float32
	castsShadows bool
}

var _ PointLight = &pointLightImpl{}

// NewPointLight creates a point light with the given id.
// Defaults to a white light at the origin with range 10 that casts shadows.
//
// Parameters:
//   - id: the stable light id
//   - options: functional options
//
// Returns:
//   - PointLight: the created light
func NewPointLight(id uint32, options ...PointLightBuilderOption) PointLight {
	l := &pointLightImpl{
		id:           id,
		color:        mgl32.Vec3{1, 1, 1},
		lightRange:   10,
		castsShadows: true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *pointLightImpl) ID() uint32 {
	return l.id
}

func (l *pointLightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *pointLightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *pointLightImpl) Range() float32 {
	return l.lightRange
}

func (l *pointLightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *pointLightImpl) SetPosition(position mgl32.Vec3) {
	l.position = position
}

func (l *pointLightImpl) SetColor(color mgl32.Vec3) {
	l.color = color
}
