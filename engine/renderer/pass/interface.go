package pass

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

// InterfaceContext opens the interface pass on the interface attachment, cleared to transparent.
type InterfaceContext struct{}

// NewInterfaceContext creates the context.
func NewInterfaceContext() *InterfaceContext {
	return &InterfaceContext{}
}

func (c *InterfaceContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.RenderPass {
	return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
		Label: "Interface",
		ColorAttachments: []gpu.ColorAttachment{{
			View:  g.InterfaceColor.View,
			Clear: &gpu.Color{},
			Store: true,
		}},
	}, nil)
}

func (c *InterfaceContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global)
}
