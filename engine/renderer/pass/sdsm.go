package pass

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// SDSMContext opens the sample distribution shadow map reduction, which finds the view distance range of the visible
// samples of the frame from the single-sampled picker depth. The range is read back one frame later and used to fit
// the directional shadow partitions.
type SDSMContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	bounds    gpu.Buffer
	bindGroup gpu.BindGroup

	readBack readBack
	// result holds the last read bounds as minimum bits << 32 | maximum bits.
	result atomic.Uint64
}

// NewSDSMContext creates the bounds buffer, its read-back buffers and binds the picker depth.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - g: the global context
//
// Returns:
//   - *SDSMContext: the context
func NewSDSMContext(device gpu.Device, layouts *layout.LayoutCache, g *global.GlobalContext) *SDSMContext {
	c := &SDSMContext{
		device:  device,
		layouts: layouts,
		bounds: createBuffer(device, "SDSM Bounds", common.SizeOf[GPUSDSMBounds](),
			gpu.BufferUsageStorage|gpu.BufferUsageCopyDst|gpu.BufferUsageCopySrc),
		readBack: newReadBack(device, "SDSM Read Back", common.SizeOf[GPUSDSMBounds](), 8),
	}
	c.result.Store(emptyBounds)
	c.Rebind(g)
	return c
}

// Rebind recreates the bind group after the picker depth was recreated.
func (c *SDSMContext) Rebind(g *global.GlobalContext) {
	replaceBindGroup(&c.bindGroup, createBindGroup(c.device, "SDSM", c.layouts.Get(layout.SDSMPass),
		textureEntry(0, g.PickerDepth.View),
		bufferEntry(1, c.bounds),
	))
}

// BoundsBuffer returns the reduction result buffer.
func (c *SDSMContext) BoundsBuffer() gpu.Buffer {
	return c.bounds
}

// Upload resets the bounds to an empty range.
func (c *SDSMContext) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	bounds := GPUSDSMBounds{MinDistance: math.MaxUint32}
	belt.Write(encoder, c.bounds, 0, common.StructToBytes(&bounds))
}

// emptyBounds is the reset value of the bounds: minimum above maximum.
const emptyBounds = uint64(math.MaxUint32) << 32

// DispatchSize returns the size of the reduced texture, which is the screen-size picker depth.
func (c *SDSMContext) DispatchSize(g *global.GlobalContext) common.ScreenSize {
	return g.PickerDepth.Size()
}

// CopyBounds records the copy of the reduced bounds into this frame's read-back buffer. Must be recorded after the
// SDSM pass ended.
func (c *SDSMContext) CopyBounds(encoder gpu.CommandEncoder) {
	encoder.CopyBufferToBuffer(c.bounds, 0, c.readBack.target(), 0, common.SizeOf[GPUSDSMBounds]())
}

// RequestReadBack maps the bounds copied in the previous frame. The mapping resolves on the next device poll.
func (c *SDSMContext) RequestReadBack() {
	c.readBack.request(func(data []byte) {
		low, high := binary.LittleEndian.Uint32(data[0:]), binary.LittleEndian.Uint32(data[4:])
		c.result.Store(uint64(low)<<32 | uint64(high))
	})
}

// Bounds returns the most recently read view distance range of the visible samples.
//
// Returns:
//   - near: the closest visible distance
//   - far: the farthest visible distance
//   - ok: false if nothing was read yet or no sample was visible
func (c *SDSMContext) Bounds() (near, far float32, ok bool) {
	result := c.result.Load()
	low, high := uint32(result>>32), uint32(result)
	if low > high {
		return 0, 0, false
	}
	return math.Float32frombits(low), math.Float32frombits(high), true
}

func (c *SDSMContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.ComputePass {
	return beginComputePass(encoder, g, "SDSM", c.bindGroup)
}

func (c *SDSMContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global, layout.SDSMPass)
}
