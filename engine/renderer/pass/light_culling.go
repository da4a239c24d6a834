package pass

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/light"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

const lightHeaderSize = 16

// LightCullingContext owns the point light buffer and the per-tile light index buffer of tiled light culling.
// The light buffer has a fixed capacity of light.MaxGPULights; the tile buffer follows the forward attachment size.
type LightCullingContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	lights    gpu.Buffer
	lightData []byte
	tiles     gpu.Buffer
	bindGroup gpu.BindGroup

	tileCountX, tileCountY uint32
	lightCount             int
}

// NewLightCullingContext creates the light buffer and a tile buffer for the current forward size.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//
// Returns:
//   - *LightCullingContext: the context
func NewLightCullingContext(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext) *LightCullingContext {
	size := uint64(lightHeaderSize + light.MaxGPULights*light.GPUPointLightSize)
	c := &LightCullingContext{
		device:    device,
		layouts:   layouts,
		lights:    createBuffer(device, "Point Lights", size, gpu.BufferUsageStorage|gpu.BufferUsageCopyDst),
		lightData: make([]byte, size),
	}
	c.Rebind(g)
	return c
}

// Rebind recreates the tile buffer when the tile grid changed.
//
// Returns:
//   - bool: true if the tile buffer was replaced
func (c *LightCullingContext) Rebind(g *global.GlobalContext) bool {
	x, y := light.TileCounts(g.ForwardSize())
	x, y = max(x, 1), max(y, 1)
	if c.tiles != nil && x == c.tileCountX && y == c.tileCountY {
		return false
	}
	if c.tiles != nil {
		c.tiles.Release()
	}
	c.tileCountX, c.tileCountY = x, y
	c.tiles = createBuffer(c.device, "Light Tiles", uint64(x*y)*(light.MaxLightsPerTile+1)*4, gpu.BufferUsageStorage)
	replaceBindGroup(&c.bindGroup, createBindGroup(c.device, "Light Culling", c.layouts.Get(layout.LightCullingPass),
		bufferEntry(0, c.lights),
		bufferEntry(1, c.tiles),
	))
	return true
}

// Prepare serializes up to light.MaxGPULights point lights behind the light header.
func (c *LightCullingContext) Prepare(instruction *instruction.RenderInstruction) {
	c.lightCount = min(len(instruction.PointLights), light.MaxGPULights)
	header := light.GPULightHeader{TileCountX: c.tileCountX, TileCountY: c.tileCountY, LightCount: uint32(c.lightCount)}
	copy(c.lightData, header.Marshal())
	for i := range c.lightCount {
		l := &instruction.PointLights[i]
		gpuLight := light.GPUPointLight{
			Position:    l.Position,
			Range:       l.Range,
			Color:       l.Color,
			ShadowIndex: int32(l.ShadowIndex),
		}
		gpuLight.MarshalTo(c.lightData[lightHeaderSize+i*light.GPUPointLightSize:])
	}
}

// Upload writes the header and the prepared lights.
func (c *LightCullingContext) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	belt.Write(encoder, c.lights, 0, c.lightData[:lightHeaderSize+c.lightCount*light.GPUPointLightSize])
}

// LightCount returns the number of lights prepared this frame.
func (c *LightCullingContext) LightCount() int {
	return c.lightCount
}

// TileCounts returns the tile grid dimensions.
func (c *LightCullingContext) TileCounts() (x, y uint32) {
	return c.tileCountX, c.tileCountY
}

// LightsBuffer returns the point light buffer read by the forward pass.
func (c *LightCullingContext) LightsBuffer() gpu.Buffer {
	return c.lights
}

// TilesBuffer returns the per-tile light index buffer read by the forward pass.
func (c *LightCullingContext) TilesBuffer() gpu.Buffer {
	return c.tiles
}

// CreatePass opens the light culling compute pass.
func (c *LightCullingContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.ComputePass {
	return beginComputePass(encoder, g, "Light Culling", c.bindGroup)
}

func (c *LightCullingContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.LightCullingPass)
}
