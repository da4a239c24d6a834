package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*Camera)

// WithTarget sets the initial orbited point.
//
// Parameters:
//   - target: the world-space target
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithTarget(target mgl32.Vec3) CameraBuilderOption {
	return func(c *Camera) {
		c.target = target
	}
}

// WithDistance sets the initial distance and the zoom limits. Limits with closest > farthest are ignored.
//
// Parameters:
//   - distance: the initial distance to the target
//   - closest: the closest zoom
//   - farthest: the farthest zoom
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithDistance(distance, closest, farthest float32) CameraBuilderOption {
	return func(c *Camera) {
		c.distance = distance
		if closest <= farthest {
			c.minDistance, c.maxDistance = closest, farthest
		}
	}
}

// WithOrientation sets the initial azimuth and elevation in radians.
func WithOrientation(azimuth, elevation float32) CameraBuilderOption {
	return func(c *Camera) {
		c.azimuth = azimuth
		c.elevation = elevation
	}
}

// WithFov sets the vertical field of view in radians.
func WithFov(fov float32) CameraBuilderOption {
	return func(c *Camera) {
		c.fov = fov
	}
}

// WithClipPlanes sets the near and far clip distances.
//
// Parameters:
//   - near: the near plane distance, > 0
//   - far: the far plane distance, > near
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *Camera) {
		c.near = near
		c.far = far
	}
}
