package drawer

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// WaterWaveDrawer draws the map water plane, displaced by the wave uniforms and the global animation timer.
type WaterWaveDrawer struct {
	group    uint32
	uniforms *instances[GPUWaterUniforms]
	textures textureGroups
	empty    gpu.TextureView

	water    *instruction.WaterInstruction
	texture  gpu.BindGroup
	pipeline pipeline.Pipeline
}

// NewWaterWaveDrawer creates the water drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the forward pass layouts
//   - msaa: the MSAA level
//
// Returns:
//   - *WaterWaveDrawer: the drawer
func NewWaterWaveDrawer(env Env, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *WaterWaveDrawer {
	layouts := withLayouts(passLayouts, env.Layouts.Get(layout.Uniform), env.Layouts.Get(layout.Texture))
	return &WaterWaveDrawer{
		group: uint32(len(passLayouts)),
		uniforms: newInstances[GPUWaterUniforms](env, "Water Uniforms", layout.Uniform,
			bind_group_provider.WithUsage(gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)),
		textures: newTextureGroups(env, "Water Texture"),
		empty:    env.EmptyTexture,
		pipeline: newRenderPipeline(env, KindWaterWave.String(), "water", layouts,
			append(forwardTargets(msaa), pipeline.WithBlendEnabled(true), pipeline.WithDepthWriteEnabled(false))...),
	}
}

func (d *WaterWaveDrawer) Kind() Kind {
	return KindWaterWave
}

func (d *WaterWaveDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.uniforms.reset()
	d.textures.trim()
	d.water, d.texture = nil, nil
	w := instr.Water
	if w == nil || !instr.Settings.ShowWater || w.VertexCount == 0 || w.VertexBuffer == nil {
		return
	}
	d.water = w
	d.uniforms.records = append(d.uniforms.records, GPUWaterUniforms{
		WaterLevel:    w.WaterLevel,
		WaveHeight:    w.WaveHeight,
		WaveSpeed:     w.WaveSpeed,
		WavePitch:     w.WavePitch,
		TextureRepeat: w.TextureRepeat,
		Opacity:       w.Opacity,
	})
	texture := w.Texture
	if texture == nil {
		texture = d.empty
	}
	d.texture = d.textures.get(device, texture)
}

func (d *WaterWaveDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.uniforms.upload(belt, encoder)
}

func (d *WaterWaveDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	if d.water == nil {
		return
	}
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.SetBindGroup(d.group, d.uniforms.provider.BindGroup(), nil)
	pass.SetBindGroup(d.group+1, d.texture, nil)
	pass.SetVertexBuffer(0, d.water.VertexBuffer, 0, d.water.VertexBuffer.Size())
	pass.Draw(d.water.VertexCount, 1, 0, 0)
}

func (d *WaterWaveDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, _ []gpu.BindGroupLayout) {
	d.pipeline = d.pipeline.Recreate(device, pipeline.WithSampleCount(msaa.SampleCount()))
}
