// Package camera implements the orbit camera of the client: it circles a ground target, zooms along its view
// direction and fills the camera half of a frame's instruction.Uniforms.
package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits a target point. Azimuth 0 looks along -Z; elevation is measured from the ground plane.
// A Camera is not safe for concurrent use.
type Camera struct {
	target mgl32.Vec3

	distance  float32
	azimuth   float32
	elevation float32

	minDistance  float32
	maxDistance  float32
	minElevation float32
	maxElevation float32

	fov    float32
	aspect float32
	near   float32
	far    float32
}

// NewCamera creates a camera with the provided options.
// Defaults match the usual client view: 45 degree field of view, looking down at 45 degrees from 60 units away.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Camera: the camera
func NewCamera(options ...CameraBuilderOption) *Camera {
	c := &Camera{
		distance:     60,
		elevation:    math.Pi / 4,
		minDistance:  20,
		maxDistance:  200,
		minElevation: 0.1,
		maxElevation: math.Pi/2 - 0.05,
		fov:          mgl32.DegToRad(45),
		aspect:       1,
		near:         1,
		far:          1000,
	}
	for _, opt := range options {
		opt(c)
	}
	c.distance = common.Clamp(c.distance, c.minDistance, c.maxDistance)
	c.elevation = common.Clamp(c.elevation, c.minElevation, c.maxElevation)
	return c
}

// Target returns the point the camera orbits.
func (c *Camera) Target() mgl32.Vec3 {
	return c.target
}

// SetTarget moves the orbited point, e.g. to follow the player.
func (c *Camera) SetTarget(target mgl32.Vec3) {
	c.target = target
}

// Distance returns the distance between the camera and its target.
func (c *Camera) Distance() float32 {
	return c.distance
}

// Position returns the world-space position of the camera.
func (c *Camera) Position() mgl32.Vec3 {
	sinEl, cosEl := math.Sincos(float64(c.elevation))
	sinAz, cosAz := math.Sincos(float64(c.azimuth))
	offset := mgl32.Vec3{
		float32(cosEl * sinAz),
		float32(sinEl),
		float32(cosEl * cosAz),
	}
	return c.target.Add(offset.Mul(c.distance))
}

// ClipPlanes returns the near and far clip distances.
func (c *Camera) ClipPlanes() (near, far float32) {
	return c.near, c.far
}

// Zoom moves the camera towards (positive delta) or away from its target within the distance limits.
func (c *Camera) Zoom(delta float32) {
	c.distance = common.Clamp(c.distance-delta, c.minDistance, c.maxDistance)
}

// Orbit rotates the camera around its target. The elevation is clamped, the azimuth wraps.
//
// Parameters:
//   - azimuth: horizontal rotation in radians
//   - elevation: vertical rotation in radians
func (c *Camera) Orbit(azimuth, elevation float32) {
	c.azimuth = float32(math.Mod(float64(c.azimuth+azimuth), 2*math.Pi))
	c.elevation = common.Clamp(c.elevation+elevation, c.minElevation, c.maxElevation)
}

// Pan moves the target on the ground plane relative to the current view direction.
//
// Parameters:
//   - forward: distance along the view direction projected on the ground
//   - right: distance to the right of the view direction
func (c *Camera) Pan(forward, right float32) {
	sinAz, cosAz := math.Sincos(float64(c.azimuth))
	ahead := mgl32.Vec3{-float32(sinAz), 0, -float32(cosAz)}
	side := mgl32.Vec3{float32(cosAz), 0, -float32(sinAz)}
	c.target = c.target.Add(ahead.Mul(forward)).Add(side.Mul(right))
}

// SetViewport updates the aspect ratio from the surface size. Empty sizes are ignored.
func (c *Camera) SetViewport(size common.ScreenSize) {
	if size.Empty() {
		return
	}
	c.aspect = float32(size.Width) / float32(size.Height)
}

// View returns the view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
}

// FillUniforms writes the camera matrices and position into u and leaves the lighting fields untouched.
//
// Parameters:
//   - u: the uniforms of the frame being built
func (c *Camera) FillUniforms(u *instruction.Uniforms) {
	view, projection := c.View(), c.Projection()
	u.View = view
	u.Projection = projection
	u.InverseView = view.Inv()
	u.InverseProjection = projection.Inv()
	u.CameraPosition = c.Position()
}
