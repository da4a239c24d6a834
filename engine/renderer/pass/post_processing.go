package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

// PostProcessingStage selects the render pass opened by the PostProcessingContext.
type PostProcessingStage int

const (
	// PostProcessingStageMain resolves the forward color into the post processing color and draws effects and
	// post processing rectangles on top.
	PostProcessingStageMain PostProcessingStage = iota
	// PostProcessingStageFXAA filters the post processing color into the FXAA target.
	PostProcessingStageFXAA
)

func (s PostProcessingStage) String() string {
	switch s {
	case PostProcessingStageMain:
		return "main"
	case PostProcessingStageFXAA:
		return "fxaa"
	default:
		return fmt.Sprintf("PostProcessingStage(%d)", int(s))
	}
}

// PostProcessingContext opens the post processing passes. It is built for one MSAA level: the forward color is bound
// as a multisampled texture when MSAA is on, so a new context is created whenever MSAA changes.
type PostProcessingContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache
	msaa    global.MSAA

	forwardGroup gpu.BindGroup
	sourceGroup  gpu.BindGroup
}

// NewPostProcessingContext creates the context for the global context's current MSAA level.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//
// Returns:
//   - *PostProcessingContext: the context
func NewPostProcessingContext(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext) *PostProcessingContext {
	c := &PostProcessingContext{device: device, layouts: layouts, msaa: g.MSAA}
	c.Rebind(g)
	return c
}

// MSAA returns the MSAA level the context was built for.
func (c *PostProcessingContext) MSAA() global.MSAA {
	return c.msaa
}

// Rebind recreates the bind groups after the forward or post processing color was recreated.
// Panics if the forward color no longer matches the context's MSAA level.
func (c *PostProcessingContext) Rebind(g *global.GlobalContext) {
	if samples := g.ForwardColor.Texture.SampleCount(); samples != c.msaa.SampleCount() {
		panic(fmt.Sprintf("post processing context built for %s bound to a forward color with %d samples", c.msaa, samples))
	}
	replaceBindGroup(&c.forwardGroup, createBindGroup(c.device, "Post Processing Forward Color", c.forwardLayout(c.layouts),
		textureEntry(0, g.ForwardColor.View),
	))
	replaceBindGroup(&c.sourceGroup, createBindGroup(c.device, "Post Processing Color", c.layouts.Get(layout.Texture),
		textureEntry(0, g.PostProcessingColor.View),
	))
}

// CreatePass opens the pass of one post processing stage. The FXAA stage panics unless FXAA resources are constructed.
func (c *PostProcessingContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, stage PostProcessingStage) gpu.RenderPass {
	switch stage {
	case PostProcessingStageMain:
		return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
			Label: "Post Processing",
			ColorAttachments: []gpu.ColorAttachment{{
				View:  g.PostProcessingColor.View,
				Clear: &gpu.Color{A: 1},
				Store: true,
			}},
		}, c.forwardGroup)
	case PostProcessingStageFXAA:
		return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
			Label: "FXAA",
			ColorAttachments: []gpu.ColorAttachment{{
				View:  g.FXAAResources().Target.View,
				Clear: &gpu.Color{A: 1},
				Store: true,
			}},
		}, c.sourceGroup)
	default:
		panic(fmt.Sprintf("unknown post processing stage %s", stage))
	}
}

// BindGroupLayouts returns the layouts of the main stage.
func (c *PostProcessingContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return []gpu.BindGroupLayout{layouts.Get(layout.Global), c.forwardLayout(layouts)}
}

// FXAABindGroupLayouts returns the layouts of the FXAA stage.
func (c *PostProcessingContext) FXAABindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.Texture)
}

func (c *PostProcessingContext) forwardLayout(layouts *layout.LayoutCache) gpu.BindGroupLayout {
	if c.msaa.Multisampled() {
		return layouts.Get(layout.PostProcessingPassMultisampled)
	}
	return layouts.Get(layout.PostProcessingPass)
}
