package pass

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

// pickerRowPitch is the buffer row alignment of texture to buffer copies.
const pickerRowPitch = 256

// pickerTexelSize is the size of one RG32Uint texel.
const pickerTexelSize = 8

// PickerContext opens the picker pass and reads back the texel under the picker position. The value lags the picker
// pass by one frame.
type PickerContext struct {
	readBack readBack
	value    atomic.Uint64
}

// NewPickerContext creates the read-back buffers.
//
// Parameters:
//   - device: the device
//
// Returns:
//   - *PickerContext: the context
func NewPickerContext(device gpu.Device) *PickerContext {
	return &PickerContext{
		readBack: newReadBack(device, "Picker Read Back", pickerRowPitch, pickerTexelSize),
	}
}

// CreatePass opens the picker pass, clearing the picker color to zero (no target) and the picker depth to far.
func (c *PickerContext) CreatePass(encoder gpu.CommandEncoder, g *global.GlobalContext, _ NoPassData) gpu.RenderPass {
	return beginRenderPass(encoder, g, gpu.RenderPassDescriptor{
		Label: "Picker",
		ColorAttachments: []gpu.ColorAttachment{{
			View:  g.PickerColor.View,
			Clear: &gpu.Color{},
			Store: true,
		}},
		DepthAttachment: &gpu.DepthAttachment{
			View:  g.PickerDepth.View,
			Clear: clearDepth(),
			Store: true,
		},
	}, nil)
}

func (c *PickerContext) BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout {
	return layoutsOf(layouts, layout.Global)
}

// CopyTexel records the copy of the texel under the picker position into this frame's read-back buffer. Must be
// recorded after the picker pass ended.
//
// Parameters:
//   - encoder: the picker encoder
//   - g: the global context
//   - position: the picker position in screen pixels
func (c *PickerContext) CopyTexel(encoder gpu.CommandEncoder, g *global.GlobalContext, position common.ScreenPosition) {
	x, y := global.PickerTexel(position, g.PickerColor.Size())
	encoder.CopyTextureToBuffer(
		gpu.TextureCopy{Texture: g.PickerColor.Texture, X: x, Y: y},
		gpu.BufferCopy{Buffer: c.readBack.target(), BytesPerRow: pickerRowPitch},
		1, 1,
	)
}

// RequestReadBack maps the texel copied in the previous frame. The mapping resolves on the next device poll, which
// stores the texel as the current picker value.
func (c *PickerContext) RequestReadBack() {
	c.readBack.request(func(data []byte) {
		c.value.Store(binary.LittleEndian.Uint64(data))
	})
}

// Value returns the most recently read picker value.
func (c *PickerContext) Value() uint64 {
	return c.value.Load()
}
