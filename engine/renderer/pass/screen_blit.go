package pass

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

// ScreenBlitContext opens the final pass onto the swapchain texture, binding the final color and the interface.
type ScreenBlitContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	bindGroup gpu.BindGroup
}

// NewScreenBlitContext creates the context and binds the current final color and interface attachments.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//
// Returns:
//   - *ScreenBlitContext: the context
func NewScreenBlitContext(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext) *ScreenBlitContext {
	c := &ScreenBlitContext{device: device, layouts: layouts}
	c.Rebind(g)
	return c
}

// FinalColor returns the attachment holding the finished frame: the FXAA target when FXAA is active, the post
// processing color otherwise.
func FinalColor(g *global.GlobalContext) gpu.TextureView {
	if g.ScreenSpaceAntiAliasing() == global.ScreenSpaceAntiAliasingFXAA {
		return g.FXAAResources().Target.View
	}
	return g.PostProcessingColor.View
}

// Rebind recreates the bind group after the final color or interface attachment changed.
func (c *ScreenBlitContext) Rebind(g *global.GlobalContext) {
	replaceBindGroup(&c.bindGroup, createBindGroup(c.device, "Screen Blit", c.layouts.Get(layout.ScreenBlitPass),
		textureEntry(0, FinalColor(g)),
		textureEntry(1, g.InterfaceColor.View),
	))
}

// CreatePass opens the blit pass on the acquired swapchain view.
func (c *ScreenBlitContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, target gpu.TextureView) gpu.RenderPass {
	return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
		Label: "Screen Blit",
		ColorAttachments: []gpu.ColorAttachment{{
			View:  target,
			Clear: &gpu.Color{A: 1},
			Store: true,
		}},
	}, c.bindGroup)
}

func (c *ScreenBlitContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.ScreenBlitPass)
}
