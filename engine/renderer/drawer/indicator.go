package drawer

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// IndicatorDrawer draws the ground indicator under the cursor into the forward pass.
type IndicatorDrawer struct {
	group    uint32
	instance *instances[GPUIndicator]
	textures textureGroups
	empty    gpu.TextureView
	texture  gpu.BindGroup
	pipeline pipeline.Pipeline
}

// NewIndicatorDrawer creates the indicator drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the forward pass layouts
//   - msaa: the MSAA level
//
// Returns:
//   - *IndicatorDrawer: the drawer
func NewIndicatorDrawer(env Env, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *IndicatorDrawer {
	layouts := withLayouts(passLayouts, env.Layouts.Get(layout.Instances), env.Layouts.Get(layout.Texture))
	return &IndicatorDrawer{
		group:    uint32(len(passLayouts)),
		instance: newInstances[GPUIndicator](env, "Indicator", layout.Instances),
		textures: newTextureGroups(env, "Indicator Texture"),
		empty:    env.EmptyTexture,
		pipeline: newRenderPipeline(env, KindForwardIndicator.String(), "indicator", layouts,
			append(forwardTargets(msaa), pipeline.WithBlendEnabled(true), pipeline.WithDepthWriteEnabled(false))...),
	}
}

func (d *IndicatorDrawer) Kind() Kind {
	return KindForwardIndicator
}

func (d *IndicatorDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.instance.reset()
	d.textures.trim()
	d.texture = nil
	if indicator := instr.Indicator; indicator != nil && instr.Settings.ShowIndicators {
		record := GPUIndicator{Color: indicator.Color}
		for i, corner := range indicator.Corners {
			record.Corners[i] = corner.Vec4(1)
		}
		d.instance.records = append(d.instance.records, record)
		texture := indicator.Texture
		if texture == nil {
			texture = d.empty
		}
		d.texture = d.textures.get(device, texture)
	}
	d.instance.reserve(device)
}

func (d *IndicatorDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.instance.upload(belt, encoder)
}

func (d *IndicatorDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	if len(d.instance.records) == 0 {
		return
	}
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.SetBindGroup(d.group, d.instance.provider.BindGroup(), nil)
	pass.SetBindGroup(d.group+1, d.texture, nil)
	pass.Draw(6, 1, 0, 0)
}

func (d *IndicatorDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, _ []gpu.BindGroupLayout) {
	d.pipeline = d.pipeline.Recreate(device, pipeline.WithSampleCount(msaa.SampleCount()))
}
