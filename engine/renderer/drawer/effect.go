package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

type blendPair struct {
	src, dst gpu.BlendFactor
}

// EffectDrawer draws screen-space effect quads. Every source/destination blend pair gets its own pipeline, created
// the first time a frame uses it; consecutive effects with the same pair are drawn in one call.
type EffectDrawer struct {
	env         Env
	passLayouts []gpu.BindGroupLayout
	batch       *spriteBatch[GPUEffect]

	indices   map[blendPair]int
	pipelines []pipeline.Pipeline
	rendered  []gpu.RenderPipeline
}

// NewEffectDrawer creates the effect drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the post processing pass layouts
//
// Returns:
//   - *EffectDrawer: the drawer
func NewEffectDrawer(env Env, passLayouts []gpu.BindGroupLayout) *EffectDrawer {
	return &EffectDrawer{
		env:         env,
		passLayouts: passLayouts,
		batch:       newSpriteBatch[GPUEffect](env, "Effect Instances", passLayouts),
		indices:     make(map[blendPair]int),
	}
}

func (d *EffectDrawer) Kind() Kind {
	return KindEffect
}

func (d *EffectDrawer) pipelineIndex(pair blendPair) int {
	if i, ok := d.indices[pair]; ok {
		return i
	}
	p := newRenderPipeline(d.env, fmt.Sprintf("%s %d/%d", KindEffect, pair.src, pair.dst), "effect",
		d.batch.pipelineLayouts(d.passLayouts),
		append(overlayTargets(global.PostProcessingColorFormat), pipeline.WithBlendState(pair.src, pair.dst))...)
	i := len(d.pipelines)
	d.indices[pair] = i
	d.pipelines = append(d.pipelines, p)
	d.rendered = append(d.rendered, p.RenderPipeline())
	return i
}

// Prepare mirrors the effects in submission order and creates the pipelines of blend pairs not seen before.
func (d *EffectDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.batch.reset()
	for i := range instr.Effects {
		e := &instr.Effects[i]
		record := GPUEffect{Color: e.Color, TextureIndex: d.batch.textureIndex(e.Texture)}
		for c := range 4 {
			record.Corners[c] = e.Corners[c]
			record.TextureCorners[c] = e.TextureCorners[c]
		}
		d.batch.push(record, e.Texture, d.pipelineIndex(blendPair{src: e.SourceFactor, dst: e.DestinationFactor}))
	}
	d.batch.finish(device)
}

func (d *EffectDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.batch.upload(belt, encoder)
}

func (d *EffectDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	d.batch.draw(pass, d.rendered, 6, instruction.Range{Count: d.batch.len()})
}

// PipelineCount returns the number of blend pair pipelines created so far.
func (d *EffectDrawer) PipelineCount() int {
	return len(d.pipelines)
}

// UpdateMSAA recreates every blend pair pipeline against the new post processing layouts.
func (d *EffectDrawer) UpdateMSAA(device gpu.Device, _ global.MSAA, passLayouts []gpu.BindGroupLayout) {
	d.passLayouts = passLayouts
	layouts := d.batch.pipelineLayouts(passLayouts)
	for i, p := range d.pipelines {
		d.pipelines[i] = p.Recreate(device, pipeline.WithBindGroupLayouts(layouts...))
		d.rendered[i] = d.pipelines[i].RenderPipeline()
	}
}
