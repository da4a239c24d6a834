package light

import "github.com/go-gl/mathgl/mgl32"

// PointLightBuilderOption is a function that configures a PointLight during construction.
type PointLightBuilderOption func(*pointLightImpl)

// WithPosition sets the world-space position of the light.
//
// Parameters:
//   - position: the position
//
// Returns:
//   - PointLightBuilderOption: option function to apply
func WithPosition(position mgl32.Vec3) PointLightBuilderOption {
	return func(l *pointLightImpl) {
		l.position = position
	}
}

// WithColor sets the linear RGB color of the light.
//
// Parameters:
//   - color: the color, components may exceed 1 for bright lights
//
// Returns:
//   - PointLightBuilderOption: option function to apply
func WithColor(color mgl32.Vec3) PointLightBuilderOption {
	return func(l *pointLightImpl) {
		l.color = color
	}
}

// WithRange sets the authored range of the light. Negative values are clamped to 0.
//
// Parameters:
//   - lightRange: the range in world units
//
// Returns:
//   - PointLightBuilderOption: option function to apply
func WithRange(lightRange float32) PointLightBuilderOption {
	return func(l *pointLightImpl) {
		l.lightRange = max(lightRange, 0)
	}
}

// WithCastsShadows enables or disables shadow casting.
func WithCastsShadows(castsShadows bool) PointLightBuilderOption {
	return func(l *pointLightImpl) {
		l.castsShadows = castsShadows
	}
}
