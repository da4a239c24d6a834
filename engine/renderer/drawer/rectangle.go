package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// RectangleDrawer draws screen-space rectangles: the interface layers into the interface attachment, or the post
// processing rectangles on top of the resolved scene.
type RectangleDrawer struct {
	kind     Kind
	batch    *spriteBatch[GPURectangle]
	pipeline pipeline.Pipeline
}

// NewRectangleDrawer creates a rectangle drawer.
//
// Parameters:
//   - env: the drawer environment
//   - kind: KindInterfaceRectangle or KindPostProcessingRectangle
//   - passLayouts: the fixed layouts of the pass the drawer is recorded in
//
// Returns:
//   - *RectangleDrawer: the drawer
func NewRectangleDrawer(env Env, kind Kind, passLayouts []gpu.BindGroupLayout) *RectangleDrawer {
	var format gpu.TextureFormat
	switch kind {
	case KindInterfaceRectangle:
		format = global.InterfaceFormat
	case KindPostProcessingRectangle:
		format = global.PostProcessingColorFormat
	default:
		panic(fmt.Sprintf("%s is not a rectangle drawer", kind))
	}
	d := &RectangleDrawer{
		kind:  kind,
		batch: newSpriteBatch[GPURectangle](env, kind.String()+" Instances", passLayouts),
	}
	d.pipeline = newRenderPipeline(env, kind.String(), "rectangle", d.batch.pipelineLayouts(passLayouts),
		overlayTargets(format)...)
	return d
}

func (d *RectangleDrawer) Kind() Kind {
	return d.kind
}

// Prepare mirrors the rectangles; interface layers are concatenated bottom, middle, top.
func (d *RectangleDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.batch.reset()
	if d.kind == KindInterfaceRectangle {
		d.push(instr.InterfaceRectangles.Bottom)
		d.push(instr.InterfaceRectangles.Middle)
		d.push(instr.InterfaceRectangles.Top)
	} else {
		d.push(instr.PostProcessingRectangles)
	}
	d.batch.finish(device)
}

func (d *RectangleDrawer) push(rectangles []instruction.RectangleInstruction) {
	for i := range rectangles {
		r := &rectangles[i]
		d.batch.push(GPURectangle{
			Position:        r.Position,
			Size:            r.Size,
			Color:           r.Color,
			CornerRadius:    r.CornerRadius,
			ClipRect:        r.ClipRect,
			TexturePosition: r.TexturePosition,
			TextureSize:     r.TextureSize,
			Kind:            uint32(r.Kind),
			TextureIndex:    d.batch.textureIndex(r.Texture),
		}, r.Texture, 0)
	}
}

func (d *RectangleDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.batch.upload(belt, encoder)
}

func (d *RectangleDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	d.batch.draw(pass, renderPipelines(d.pipeline), 6, instruction.Range{Count: d.batch.len()})
}

// UpdateMSAA rebuilds the post processing variant against the new post processing layouts.
func (d *RectangleDrawer) UpdateMSAA(device gpu.Device, _ global.MSAA, passLayouts []gpu.BindGroupLayout) {
	if !d.kind.SampleCountDependent() {
		return
	}
	d.pipeline = d.pipeline.Recreate(device, pipeline.WithBindGroupLayouts(d.batch.pipelineLayouts(passLayouts)...))
}
