package pass

import (
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// CMAA2Context opens the compute pass of the four CMAA2 stages, which filter the post processing color in place.
type CMAA2Context struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	bound     *global.CMAA2Resources
	bindGroup gpu.BindGroup
}

// NewCMAA2Context creates the context. The bind group only exists while CMAA2 resources are constructed.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//
// Returns:
//   - *CMAA2Context: the context
func NewCMAA2Context(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext) *CMAA2Context {
	c := &CMAA2Context{device: device, layouts: layouts}
	c.Rebind(g)
	return c
}

// Rebind binds the current CMAA2 resources, or drops the bind group when another anti-aliasing mode is active.
func (c *CMAA2Context) Rebind(g *global.GlobalContext) {
	if g.ScreenSpaceAntiAliasing() != global.ScreenSpaceAntiAliasingCMAA2 {
		c.bound = nil
		replaceBindGroup(&c.bindGroup, nil)
		return
	}
	r := g.CMAA2Resources()
	c.bound = r
	replaceBindGroup(&c.bindGroup, createBindGroup(c.device, "CMAA2", c.layouts.Get(layout.CMAA2Pass),
		textureEntry(0, g.PostProcessingColor.View),
		textureEntry(1, r.Edges.View),
		bufferEntry(2, r.ShapeCandidates),
		bufferEntry(3, r.DeferredBlendItems),
		bufferEntry(4, r.Control),
	))
}

// Upload resets the CMAA2 counters.
func (c *CMAA2Context) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	if c.bound == nil {
		return
	}
	control := GPUCMAA2Control{DispatchArgs: [3]uint32{0, 1, 1}}
	belt.Write(encoder, c.bound.Control, 0, common.StructToBytes(&control))
}

// CreatePass opens the CMAA2 compute pass. Panics unless CMAA2 resources are constructed and bound.
func (c *CMAA2Context) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.ComputePass {
	if r := g.CMAA2Resources(); r != c.bound {
		panic("CMAA2 context is bound to stale resources")
	}
	return beginComputePass(encoder, g, "CMAA2", c.bindGroup)
}

func (c *CMAA2Context) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.CMAA2Pass)
}
