package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/light"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// shadowUniforms is a dynamic-offset uniform buffer with one slot per shadow sub-target.
type shadowUniforms struct {
	buffer    gpu.Buffer
	bindGroup gpu.BindGroup
	data      []byte
	used      int
}

func newShadowUniforms(device gpu.Device, label string, l gpu.BindGroupLayout, slots int) shadowUniforms {
	size := uint64(slots * DynamicUniformAlignment)
	buffer := createBuffer(device, label, size, gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)
	return shadowUniforms{
		buffer: buffer,
		bindGroup: createBindGroup(device, label, l, gpu.BindGroupEntry{
			Binding: 0,
			Buffer:  buffer,
			Size:    common.SizeOf[GPUShadowPassUniforms](),
		}),
		data: make([]byte, size),
	}
}

func (u *shadowUniforms) set(slot int, uniforms GPUShadowPassUniforms) {
	copy(u.data[slot*DynamicUniformAlignment:], common.StructToBytes(&uniforms))
	u.used = max(u.used, slot+1)
}

func (u *shadowUniforms) upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	if u.used == 0 {
		return
	}
	belt.Write(encoder, u.buffer, 0, u.data[:u.used*DynamicUniformAlignment])
}

// DirectionalShadowContext opens one depth-only pass per directional shadow partition.
type DirectionalShadowContext struct {
	uniforms shadowUniforms
}

// NewDirectionalShadowContext creates the partition uniform slots.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//
// Returns:
//   - *DirectionalShadowContext: the context
func NewDirectionalShadowContext(device gpu.Device, layouts *layout.LayoutCache) *DirectionalShadowContext {
	return &DirectionalShadowContext{
		uniforms: newShadowUniforms(device, "Directional Shadow Uniforms", layouts.Get(layout.DirectionalShadowPass),
			light.MaxDirectionalShadowPartitions),
	}
}

// Prepare fills one uniform slot per partition.
func (c *DirectionalShadowContext) Prepare(instruction *instruction.RenderInstruction) {
	c.uniforms.used = 0
	for i, p := range instruction.DirectionalShadowPartitions {
		if i >= light.MaxDirectionalShadowPartitions {
			break
		}
		c.uniforms.set(i, GPUShadowPassUniforms{
			ViewProjection: p.ViewProjection,
			Parameters:     [4]float32{p.Interval.X(), p.Interval.Y()},
		})
	}
}

// Upload writes the prepared slots.
func (c *DirectionalShadowContext) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	c.uniforms.upload(belt, encoder)
}

// CreatePass opens the depth pass of one partition layer.
func (c *DirectionalShadowContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, partition int) gpu.RenderPass {
	if partition < 0 || partition >= len(g.DirectionalShadowLayerViews) {
		panic(fmt.Sprintf("directional shadow partition %d out of range", partition))
	}
	return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
		Label: fmt.Sprintf("Directional Shadow Partition %d", partition),
		DepthAttachment: &gpu.DepthAttachment{
			View:  g.DirectionalShadowLayerViews[partition],
			Clear: clearDepth(),
			Store: true,
		},
	}, c.uniforms.bindGroup, uint32(partition*DynamicUniformAlignment))
}

func (c *DirectionalShadowContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.DirectionalShadowPass)
}

// PointShadowPassData selects one cube face of one shadow caster.
type PointShadowPassData struct {
	Caster int
	Face   int
}

func (d PointShadowPassData) slot() int {
	return d.Caster*6 + d.Face
}

// PointShadowContext opens one depth-only pass per point light cube face.
type PointShadowContext struct {
	uniforms shadowUniforms
}

// NewPointShadowContext creates one uniform slot per caster face.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//
// Returns:
//   - *PointShadowContext: the context
func NewPointShadowContext(device gpu.Device, layouts *layout.LayoutCache) *PointShadowContext {
	return &PointShadowContext{
		uniforms: newShadowUniforms(device, "Point Shadow Uniforms", layouts.Get(layout.PointShadowPass),
			light.MaxPointLightShadowCasters*6),
	}
}

// Prepare fills the face slots of every caster. The caster count was validated by the engine.
func (c *PointShadowContext) Prepare(instruction *instruction.RenderInstruction) {
	c.uniforms.used = 0
	for i, caster := range instruction.PointShadowCasters {
		for face := range caster.Faces {
			c.uniforms.set(PointShadowPassData{Caster: i, Face: face}.slot(), GPUShadowPassUniforms{
				ViewProjection: caster.Faces[face].ViewProjection,
				Parameters:     caster.Position.Vec4(caster.Extent),
			})
		}
	}
}

// Upload writes the prepared slots.
func (c *PointShadowContext) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	c.uniforms.upload(belt, encoder)
}

// CreatePass opens the depth pass of one cube face.
func (c *PointShadowContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, passData PointShadowPassData) gpu.RenderPass {
	slot := passData.slot()
	if passData.Face < 0 || passData.Face >= 6 || slot < 0 || slot >= len(g.PointShadowFaceViews) {
		panic(fmt.Sprintf("point shadow caster %d face %d out of range", passData.Caster, passData.Face))
	}
	return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
		Label: fmt.Sprintf("Point Shadow Caster %d Face %d", passData.Caster, passData.Face),
		DepthAttachment: &gpu.DepthAttachment{
			View:  g.PointShadowFaceViews[slot],
			Clear: clearDepth(),
			Store: true,
		},
	}, c.uniforms.bindGroup, uint32(slot*DynamicUniformAlignment))
}

func (c *PointShadowContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.PointShadowPass)
}
