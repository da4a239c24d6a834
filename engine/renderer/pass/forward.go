package pass

import (
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/light"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// ForwardContext opens the forward shading pass. Its bind group exposes the shadow maps, the culled lights, the
// directional partitions and the hovered picker target to every forward drawer.
type ForwardContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	selection gpu.Buffer
	uniforms  gpu.Buffer
	data      GPUForwardUniforms
	bindGroup gpu.BindGroup
}

// NewForwardContext creates the forward uniform buffer and binds the current shadow maps, the light buffers and
// the selector result used to highlight the hovered target.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//   - lightCulling: the light culling context owning the light buffers
//   - selector: the selector context writing the hovered target earlier in the frame
//
// Returns:
//   - *ForwardContext: the context
func NewForwardContext(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext, lightCulling *LightCullingContext, selector *SelectorContext) *ForwardContext {
	c := &ForwardContext{
		device:    device,
		layouts:   layouts,
		selection: selector.ResultBuffer(),
		uniforms:  createBuffer(device, "Forward Uniforms", common.SizeOf[GPUForwardUniforms](), gpu.BufferUsageUniform|gpu.BufferUsageCopyDst),
	}
	c.Rebind(g, lightCulling)
	return c
}

// Rebind recreates the bind group after the shadow maps or the light tile buffer changed.
func (c *ForwardContext) Rebind(g *global.GlobalContext, lightCulling *LightCullingContext) {
	replaceBindGroup(&c.bindGroup, createBindGroup(c.device, "Forward", c.layouts.Get(layout.ForwardPass),
		textureEntry(0, g.DirectionalShadowMap.View),
		textureEntry(1, g.PointShadowMap.View),
		bufferEntry(2, lightCulling.LightsBuffer()),
		bufferEntry(3, lightCulling.TilesBuffer()),
		bufferEntry(4, c.uniforms),
		bufferEntry(5, c.selection),
	))
}

// BindGroup returns the forward bind group.
func (c *ForwardContext) BindGroup() gpu.BindGroup {
	return c.bindGroup
}

// Prepare copies the directional partitions used for shadow lookups.
func (c *ForwardContext) Prepare(instruction *instruction.RenderInstruction) {
	c.data = GPUForwardUniforms{}
	for i, p := range instruction.DirectionalShadowPartitions {
		if i >= light.MaxDirectionalShadowPartitions {
			break
		}
		c.data.Partitions[i] = GPUDirectionalPartition{
			ViewProjection: p.ViewProjection,
			Interval:       [4]float32{p.Interval.X(), p.Interval.Y()},
		}
		c.data.PartitionCount++
	}
}

// Upload writes the forward uniforms.
func (c *ForwardContext) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	belt.Write(encoder, c.uniforms, 0, common.StructToBytes(&c.data))
}

// CreatePass opens the forward pass on the forward attachments, clearing both.
func (c *ForwardContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.RenderPass {
	return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
		Label: "Forward",
		ColorAttachments: []gpu.ColorAttachment{{
			View:  g.ForwardColor.View,
			Clear: &gpu.Color{},
			Store: true,
		}},
		DepthAttachment: &gpu.DepthAttachment{
			View:  g.ForwardDepth.View,
			Clear: clearDepth(),
			Store: false,
		},
	}, c.bindGroup)
}

func (c *ForwardContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.ForwardPass)
}
