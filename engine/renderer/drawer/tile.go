package drawer

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// TileDrawer draws the pickable map tiles into the picker pass, one quad per tile carrying its encoded coordinate.
type TileDrawer struct {
	group     uint32
	instances *instances[GPUTile]
	pipeline  pipeline.Pipeline
}

// NewTileDrawer creates the picker tile drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the picker pass layouts
//
// Returns:
//   - *TileDrawer: the drawer
func NewTileDrawer(env Env, passLayouts []gpu.BindGroupLayout) *TileDrawer {
	return &TileDrawer{
		group:     uint32(len(passLayouts)),
		instances: newInstances[GPUTile](env, "Picker Tile Instances", layout.Instances),
		pipeline: newRenderPipeline(env, KindPickerTile.String(), "tile",
			withLayouts(passLayouts, env.Layouts.Get(layout.Instances)), pickerTargets()...),
	}
}

func (d *TileDrawer) Kind() Kind {
	return KindPickerTile
}

func (d *TileDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.instances.reset()
	for _, tile := range instr.Tiles {
		record := GPUTile{}
		for i, corner := range tile.Corners {
			record.Corners[i] = corner.Vec4(1)
		}
		record.PickerLow, record.PickerHigh = picker.Split(picker.Encode(picker.Tile{X: tile.X, Y: tile.Y}))
		d.instances.records = append(d.instances.records, record)
	}
	d.instances.reserve(device)
}

func (d *TileDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.instances.upload(belt, encoder)
}

func (d *TileDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	n := len(d.instances.records)
	if n == 0 {
		return
	}
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.SetBindGroup(d.group, d.instances.provider.BindGroup(), nil)
	pass.Draw(6, uint32(n), 0, 0)
}

// Pipeline returns the drawer's pipeline.
func (d *TileDrawer) Pipeline() pipeline.Pipeline {
	return d.pipeline
}
