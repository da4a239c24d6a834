package light

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/go-gl/mathgl/mgl32"
)

// pointShadowNear is the near plane of the cube face projections.
const pointShadowNear float32 = 0.1

// cubeFaces are the look directions and up vectors of the six cube map faces in +X, -X, +Y, -Y, +Z, -Z order.
var cubeFaces = [6]struct{ direction, up mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

// FaceViewProjections returns the view-projection matrices of the six cube faces rendered for the caster. The far
// plane is the caster's extent.
//
// Returns:
//   - [6]mgl32.Mat4: one matrix per face in +X, -X, +Y, -Y, +Z, -Z order
func (c ShadowCaster) FaceViewProjections() [6]mgl32.Mat4 {
	position := c.Light.Position()
	projection := mgl32.Perspective(mgl32.DegToRad(90), 1, pointShadowNear, max(c.Extent, 2*pointShadowNear))
	var faces [6]mgl32.Mat4
	for i, face := range cubeFaces {
		faces[i] = projection.Mul4(mgl32.LookAtV(position, position.Add(face.direction), face.up))
	}
	return faces
}

// AppendFrameLights adds the lights of a frame to instr: every light goes to PointLights for tiled culling and
// every caster to PointShadowCasters. A light's ShadowIndex is the index of its caster, or -1.
//
// Parameters:
//   - instr: the instruction being built
//   - lights: all lights of the frame
//   - casters: the casters returned by ShadowCasterSelector.Select
//   - models: the model batches drawn into every caster face
//   - entities: the entities drawn into every caster face
func AppendFrameLights(instr *instruction.RenderInstruction, lights []PointLight, casters []ShadowCaster, models, entities instruction.Range) {
	index := make(map[uint32]int, len(casters))
	for i, c := range casters {
		index[c.Light.ID()] = i

		caster := instruction.PointShadowCaster{
			Position: c.Light.Position(),
			Extent:   c.Extent,
		}
		for face, viewProjection := range c.FaceViewProjections() {
			caster.Faces[face] = instruction.PointShadowFace{
				ViewProjection: viewProjection,
				ModelBatches:   models,
				Entities:       entities,
			}
		}
		instr.PointShadowCasters = append(instr.PointShadowCasters, caster)
	}

	for _, l := range lights {
		shadowIndex := -1
		if i, ok := index[l.ID()]; ok {
			shadowIndex = i
		}
		instr.PointLights = append(instr.PointLights, instruction.PointLight{
			Position:    l.Position(),
			Color:       l.Color(),
			Range:       l.Range(),
			ShadowIndex: shadowIndex,
		})
	}
}
