package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// EntityDrawer draws billboarded entity sprites. One type serves the forward, shadow and picker passes; the kind
// selects the instruction list, the targets and, for the picker, the AddToPicker filter.
type EntityDrawer struct {
	kind     Kind
	batch    *spriteBatch[GPUEntity]
	pipeline pipeline.Pipeline
}

// NewEntityDrawer creates an entity drawer.
//
// Parameters:
//   - env: the drawer environment
//   - kind: one of KindForwardEntity, KindDirectionalShadowEntity, KindPointShadowEntity, KindPickerEntity
//   - passLayouts: the fixed layouts of the pass the drawer is recorded in
//   - msaa: the MSAA level, used by the forward kind only
//
// Returns:
//   - *EntityDrawer: the drawer
func NewEntityDrawer(env Env, kind Kind, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *EntityDrawer {
	var targets []pipeline.PipelineBuilderOption
	switch kind {
	case KindForwardEntity:
		targets = append(forwardTargets(msaa), pipeline.WithBlendEnabled(true))
	case KindDirectionalShadowEntity, KindPointShadowEntity:
		targets = shadowTargets()
	case KindPickerEntity:
		targets = pickerTargets()
	default:
		panic(fmt.Sprintf("%s is not an entity drawer", kind))
	}

	d := &EntityDrawer{
		kind:  kind,
		batch: newSpriteBatch[GPUEntity](env, kind.String()+" Instances", passLayouts),
	}
	layouts := d.batch.pipelineLayouts(passLayouts)
	d.pipeline = newRenderPipeline(env, kind.String(), "entity", layouts, targets...)
	return d
}

func (d *EntityDrawer) Kind() Kind {
	return d.kind
}

func (d *EntityDrawer) source(instr *instruction.RenderInstruction) []instruction.EntityInstruction {
	switch d.kind {
	case KindDirectionalShadowEntity:
		return instr.DirectionalShadowEntities
	case KindPointShadowEntity:
		return instr.PointShadowEntities
	default:
		return instr.Entities
	}
}

// Prepare mirrors the entities of this drawer's list. Shadow and forward records keep the instruction index, so
// partition and face ranges address them directly.
func (d *EntityDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.batch.reset()
	if instr.Settings.ShowEntities {
		entities := d.source(instr)
		for i := range entities {
			e := &entities[i]
			if d.kind == KindPickerEntity && !e.AddToPicker {
				continue
			}
			record := GPUEntity{
				World:           e.World,
				TexturePosition: e.TexturePosition,
				TextureSize:     e.TextureSize,
				Color:           e.Color,
				TextureIndex:    d.batch.textureIndex(e.Texture),
			}
			if e.Mirror {
				record.Mirror = 1
			}
			if d.kind == KindPickerEntity {
				record.PickerLow, record.PickerHigh = picker.Split(picker.Encode(picker.Entity(e.EntityID)))
			}
			d.batch.push(record, e.Texture, 0)
		}
	}
	d.batch.finish(device)
}

func (d *EntityDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.batch.upload(belt, encoder)
}

// Draw draws the prepared records addressed by entities.
func (d *EntityDrawer) Draw(pass gpu.RenderPass, entities instruction.Range) {
	d.batch.draw(pass, renderPipelines(d.pipeline), 6, entities)
}

// All returns the range of every prepared record.
func (d *EntityDrawer) All() instruction.Range {
	return instruction.Range{Count: d.batch.len()}
}

// DrawCount returns the number of prepared instances.
func (d *EntityDrawer) DrawCount() int {
	return d.batch.len()
}

// Pipeline returns the drawer's pipeline.
func (d *EntityDrawer) Pipeline() pipeline.Pipeline {
	return d.pipeline
}

func (d *EntityDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, passLayouts []gpu.BindGroupLayout) {
	if !d.kind.SampleCountDependent() {
		return
	}
	d.pipeline = d.pipeline.Recreate(device, pipeline.WithSampleCount(msaa.SampleCount()))
}
