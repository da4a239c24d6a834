package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

const (
	modelOpaque = iota
	modelTransparent
	modelWireframe
)

// ModelDrawer draws map models batch by batch: one vertex buffer and texture set per batch, one draw per model
// addressing its vertex range. The forward kind has separate opaque and transparent pipelines plus a wireframe
// variant when the device supports line rasterization.
type ModelDrawer struct {
	kind  Kind
	group uint32

	instances *instances[GPUModel]
	textures  textureGroups
	empty     gpu.TextureView

	batches     []instruction.ModelBatch
	models      []instruction.ModelInstruction
	batchGroups []gpu.BindGroup
	wireframe   bool

	// pipelines is indexed by modelOpaque, modelTransparent and modelWireframe; missing variants are nil.
	pipelines [3]pipeline.Pipeline
}

// NewModelDrawer creates a model drawer.
//
// Parameters:
//   - env: the drawer environment
//   - kind: one of KindForwardModel, KindDirectionalShadowModel, KindPointShadowModel
//   - passLayouts: the fixed layouts of the pass the drawer is recorded in
//   - msaa: the MSAA level, used by the forward kind only
//
// Returns:
//   - *ModelDrawer: the drawer
func NewModelDrawer(env Env, kind Kind, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *ModelDrawer {
	d := &ModelDrawer{
		kind:      kind,
		group:     uint32(len(passLayouts)),
		instances: newInstances[GPUModel](env, kind.String()+" Instances", layout.Instances),
		textures:  newTextureGroups(env, kind.String()+" Texture"),
		empty:     env.EmptyTexture,
	}
	layouts := withLayouts(passLayouts, env.Layouts.Get(layout.Instances), env.Layouts.Get(layout.Texture))

	switch kind {
	case KindForwardModel:
		d.pipelines[modelOpaque] = newRenderPipeline(env, kind.String(), "model", layouts,
			append(forwardTargets(msaa), pipeline.WithCullMode(gpu.CullModeBack))...)
		d.pipelines[modelTransparent] = newRenderPipeline(env, kind.String()+" Transparent", "model", layouts,
			append(forwardTargets(msaa), pipeline.WithBlendEnabled(true), pipeline.WithDepthWriteEnabled(false))...)
		if env.Wireframe {
			d.pipelines[modelWireframe] = newRenderPipeline(env, kind.String()+" Wireframe", "model", layouts,
				append(forwardTargets(msaa), pipeline.WithWireframe(true))...)
		}
	case KindDirectionalShadowModel, KindPointShadowModel:
		d.pipelines[modelOpaque] = newRenderPipeline(env, kind.String(), "model", layouts, shadowTargets()...)
	default:
		panic(fmt.Sprintf("%s is not a model drawer", kind))
	}
	return d
}

func (d *ModelDrawer) Kind() Kind {
	return d.kind
}

func (d *ModelDrawer) source(instr *instruction.RenderInstruction) ([]instruction.ModelBatch, []instruction.ModelInstruction) {
	switch d.kind {
	case KindDirectionalShadowModel:
		return instr.DirectionalShadowModelBatches, instr.DirectionalShadowModels
	case KindPointShadowModel:
		return instr.PointShadowModelBatches, instr.PointShadowModels
	default:
		return instr.ModelBatches, instr.Models
	}
}

// Prepare mirrors every model transform and resolves the texture group of every batch. Models keep their index in
// the flat model list, which is the instance index of their draw.
func (d *ModelDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.instances.reset()
	d.textures.trim()
	d.batches, d.models = nil, nil
	d.batchGroups = d.batchGroups[:0]
	d.wireframe = instr.Settings.Wireframe && d.pipelines[modelWireframe] != nil

	if instr.Settings.ShowObjects {
		d.batches, d.models = d.source(instr)
		for i := range d.models {
			d.instances.records = append(d.instances.records, GPUModel{Model: d.models[i].Model})
		}
		for _, batch := range d.batches {
			texture := batch.TextureSet
			if texture == nil {
				texture = d.empty
			}
			d.batchGroups = append(d.batchGroups, d.textures.get(device, texture))
		}
	}
	d.instances.reserve(device)
}

func (d *ModelDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.instances.upload(belt, encoder)
}

// Draw draws the models of the batches addressed by batches.
func (d *ModelDrawer) Draw(pass gpu.RenderPass, batches instruction.Range) {
	first, end := clampRange(batches, len(d.batches))
	if len(d.instances.records) == 0 || first >= end {
		return
	}
	pass.SetBindGroup(d.group, d.instances.provider.BindGroup(), nil)

	current := -1
	for b := first; b < end; b++ {
		batch := &d.batches[b]
		if batch.Models.Count == 0 {
			continue
		}
		pass.SetVertexBuffer(0, batch.VertexBuffer, 0, batch.VertexBuffer.Size())
		pass.SetBindGroup(d.group+1, d.batchGroups[b], nil)
		for m := batch.Models.Offset; m < batch.Models.End(); m++ {
			model := &d.models[m]
			variant := modelOpaque
			switch {
			case d.wireframe:
				variant = modelWireframe
			case model.Transparent && d.pipelines[modelTransparent] != nil:
				variant = modelTransparent
			}
			if variant != current {
				pass.SetPipeline(d.pipelines[variant].RenderPipeline())
				current = variant
			}
			pass.Draw(model.VertexCount, 1, model.VertexOffset, uint32(m))
		}
	}
}

// All returns the range of every prepared batch.
func (d *ModelDrawer) All() instruction.Range {
	return instruction.Range{Count: len(d.batches)}
}

// Pipeline returns the opaque pipeline.
func (d *ModelDrawer) Pipeline() pipeline.Pipeline {
	return d.pipelines[modelOpaque]
}

func (d *ModelDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, passLayouts []gpu.BindGroupLayout) {
	if !d.kind.SampleCountDependent() {
		return
	}
	for i, p := range d.pipelines {
		if p != nil {
			d.pipelines[i] = p.Recreate(device, pipeline.WithSampleCount(msaa.SampleCount()))
		}
	}
}
