package pass

import (
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

// SelectorContext opens the selector dispatch, which reads the picker color under the picker position into a storage
// buffer. The forward pass binds the buffer to highlight the hovered target in the same frame, without waiting for
// the picker read-back.
type SelectorContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	result    gpu.Buffer
	bindGroup gpu.BindGroup
}

// NewSelectorContext creates the result buffer and binds the picker color.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//
// Returns:
//   - *SelectorContext: the context
func NewSelectorContext(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext) *SelectorContext {
	c := &SelectorContext{
		device:  device,
		layouts: layouts,
		result:  createBuffer(device, "Selector Result", common.SizeOf[GPUSelectorResult](), gpu.BufferUsageStorage),
	}
	c.Rebind(g)
	return c
}

// Rebind recreates the bind group after the picker color was recreated.
func (c *SelectorContext) Rebind(g *global.GlobalContext) {
	replaceBindGroup(&c.bindGroup, createBindGroup(c.device, "Selector", c.layouts.Get(layout.SelectorPass),
		textureEntry(0, g.PickerColor.View),
		bufferEntry(1, c.result),
	))
}

// ResultBuffer returns the selector result buffer.
func (c *SelectorContext) ResultBuffer() gpu.Buffer {
	return c.result
}

func (c *SelectorContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.ComputePass {
	return beginComputePass(encoder, g, "Selector", c.bindGroup)
}

func (c *SelectorContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.SelectorPass)
}
