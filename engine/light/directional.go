package light

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSplitBlend blends logarithmic (1) and uniform (0) partition splits.
const DefaultSplitBlend float32 = 0.5

// directionalCasterMargin extends each partition towards the light so casters outside the view still cast.
const directionalCasterMargin float32 = 50

// FitDirectionalPartitions splits the visible distance range into partitions and fits an orthographic light
// projection around the camera frustum slice of each one.
//
// Parameters:
//   - uniforms: the frame uniforms carrying the camera matrices
//   - direction: the direction the light travels
//   - near: the closest visible view distance, e.g. from the reduced depth bounds
//   - far: the farthest visible view distance
//   - count: the number of partitions, clamped to [1, MaxDirectionalShadowPartitions]
//   - models: the model batches drawn into every partition
//   - entities: the entities drawn into every partition
//
// Returns:
//   - []instruction.DirectionalShadowPartition: the partitions, nearest first
func FitDirectionalPartitions(uniforms instruction.Uniforms, direction mgl32.Vec3, near, far float32, count int, models, entities instruction.Range) []instruction.DirectionalShadowPartition {
	count = min(max(count, 1), MaxDirectionalShadowPartitions)
	near = max(near, 0.01)
	if far <= near {
		far = near + 1
	}
	if direction.Len() == 0 {
		direction = mgl32.Vec3{0, -1, 0}
	}
	direction = direction.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(direction.Dot(up))) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}

	splits := make([]float32, count+1)
	for i := range splits {
		t := float32(i) / float32(count)
		logarithmic := near * float32(math.Pow(float64(far/near), float64(t)))
		uniform := near + (far-near)*t
		splits[i] = DefaultSplitBlend*logarithmic + (1-DefaultSplitBlend)*uniform
	}
	splits[0], splits[count] = near, far

	inverse := uniforms.InverseView.Mul4(uniforms.InverseProjection)
	partitions := make([]instruction.DirectionalShadowPartition, count)
	for i := range partitions {
		corners := sliceCorners(inverse, uniforms.Projection, splits[i], splits[i+1])

		var center mgl32.Vec3
		for _, c := range corners {
			center = center.Add(c)
		}
		center = center.Mul(1.0 / float32(len(corners)))
		var radius float32
		for _, c := range corners {
			radius = max(radius, c.Sub(center).Len())
		}

		eye := center.Sub(direction.Mul(radius + directionalCasterMargin))
		view := mgl32.LookAtV(eye, center, up)
		projection := mgl32.Ortho(-radius, radius, -radius, radius, 0, 2*radius+directionalCasterMargin)
		partitions[i] = instruction.DirectionalShadowPartition{
			ViewProjection: projection.Mul4(view),
			Interval:       mgl32.Vec2{splits[i], splits[i+1]},
			ModelBatches:   models,
			Entities:       entities,
		}
	}
	return partitions
}

// sliceCorners returns the world-space corners of the camera frustum between two view distances.
func sliceCorners(inverseViewProjection, projection mgl32.Mat4, near, far float32) [8]mgl32.Vec3 {
	var corners [8]mgl32.Vec3
	i := 0
	for _, d := range [2]float32{near, far} {
		// Clip w is the view distance for a perspective projection.
		z := (projection.At(2, 2)*-d + projection.At(2, 3)) / d
		for _, y := range [2]float32{-1, 1} {
			for _, x := range [2]float32{-1, 1} {
				v := inverseViewProjection.Mul4x1(mgl32.Vec4{x, y, z, 1})
				corners[i] = v.Vec3().Mul(1 / v.W())
				i++
			}
		}
	}
	return corners
}
