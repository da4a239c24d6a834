package drawer

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

const (
	// aabbVertices is the line list of the twelve cube edges.
	aabbVertices = 24
	// CircleSegments is the number of line segments approximating a debug circle.
	CircleSegments = 48
)

// MarkerTarget selects the pass a MarkerDrawer records into.
type MarkerTarget int

const (
	MarkerPassInterface MarkerTarget = iota
	MarkerPassPicker
)

// MarkerDrawer draws the debug markers of map objects, lights, sounds and effects. The same records are drawn into the
// interface pass for display and into the picker pass so markers can be selected.
type MarkerDrawer struct {
	group     uint32
	instances *instances[GPUMarker]
	pipelines [2]pipeline.Pipeline
}

// NewMarkerDrawer creates the marker drawer. The interface and picker passes share their fixed layouts.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the interface and picker pass layouts
//
// Returns:
//   - *MarkerDrawer: the drawer
func NewMarkerDrawer(env Env, passLayouts []gpu.BindGroupLayout) *MarkerDrawer {
	layouts := withLayouts(passLayouts, env.Layouts.Get(layout.Instances))
	return &MarkerDrawer{
		group:     uint32(len(passLayouts)),
		instances: newInstances[GPUMarker](env, "Marker Instances", layout.Instances),
		pipelines: [2]pipeline.Pipeline{
			MarkerPassInterface: newRenderPipeline(env, "Marker Interface", "marker", layouts,
				overlayTargets(global.InterfaceFormat)...),
			MarkerPassPicker: newRenderPipeline(env, "Marker Picker", "marker", layouts,
				pickerTargets()...),
		},
	}
}

func (d *MarkerDrawer) Kind() Kind {
	return KindMarker
}

func (d *MarkerDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.instances.reset()
	for _, m := range instr.Markers {
		record := GPUMarker{Position: m.Position, Size: m.Size, Color: m.Color}
		if m.Target != nil {
			record.PickerLow, record.PickerHigh = picker.Split(picker.Encode(m.Target))
		}
		d.instances.records = append(d.instances.records, record)
	}
	d.instances.reserve(device)
}

func (d *MarkerDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.instances.upload(belt, encoder)
}

func (d *MarkerDrawer) Draw(pass gpu.RenderPass, target MarkerTarget) {
	n := len(d.instances.records)
	if n == 0 {
		return
	}
	pass.SetPipeline(d.pipelines[target].RenderPipeline())
	pass.SetBindGroup(d.group, d.instances.provider.BindGroup(), nil)
	pass.Draw(6, uint32(n), 0, 0)
}

// AABBDrawer draws debug bounding boxes as lines into the forward pass.
type AABBDrawer struct {
	group     uint32
	instances *instances[GPUAABB]
	pipeline  pipeline.Pipeline
}

// NewAABBDrawer creates the bounding box drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the forward pass layouts
//   - msaa: the MSAA level
//
// Returns:
//   - *AABBDrawer: the drawer
func NewAABBDrawer(env Env, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *AABBDrawer {
	return &AABBDrawer{
		group:     uint32(len(passLayouts)),
		instances: newInstances[GPUAABB](env, "AABB Instances", layout.Instances),
		pipeline: newRenderPipeline(env, KindAABB.String(), "aabb",
			withLayouts(passLayouts, env.Layouts.Get(layout.Instances)),
			append(forwardTargets(msaa), pipeline.WithTopology(gpu.PrimitiveTopologyLineList))...),
	}
}

func (d *AABBDrawer) Kind() Kind {
	return KindAABB
}

func (d *AABBDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.instances.reset()
	for _, box := range instr.AABBs {
		d.instances.records = append(d.instances.records, GPUAABB{World: box.World, Color: box.Color})
	}
	d.instances.reserve(device)
}

func (d *AABBDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.instances.upload(belt, encoder)
}

func (d *AABBDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	n := len(d.instances.records)
	if n == 0 {
		return
	}
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.SetBindGroup(d.group, d.instances.provider.BindGroup(), nil)
	pass.Draw(aabbVertices, uint32(n), 0, 0)
}

func (d *AABBDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, _ []gpu.BindGroupLayout) {
	d.pipeline = d.pipeline.Recreate(device, pipeline.WithSampleCount(msaa.SampleCount()))
}

// CircleDrawer draws debug circles on the ground plane as lines into the forward pass.
type CircleDrawer struct {
	group     uint32
	instances *instances[GPUCircle]
	pipeline  pipeline.Pipeline
}

// NewCircleDrawer creates the circle drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the forward pass layouts
//   - msaa: the MSAA level
//
// Returns:
//   - *CircleDrawer: the drawer
func NewCircleDrawer(env Env, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *CircleDrawer {
	return &CircleDrawer{
		group:     uint32(len(passLayouts)),
		instances: newInstances[GPUCircle](env, "Circle Instances", layout.Instances),
		pipeline: newRenderPipeline(env, KindCircle.String(), "circle",
			withLayouts(passLayouts, env.Layouts.Get(layout.Instances)),
			append(forwardTargets(msaa),
				pipeline.WithTopology(gpu.PrimitiveTopologyLineList),
				pipeline.WithConstant("SEGMENTS", CircleSegments),
			)...),
	}
}

func (d *CircleDrawer) Kind() Kind {
	return KindCircle
}

func (d *CircleDrawer) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	d.instances.reset()
	for _, c := range instr.Circles {
		d.instances.records = append(d.instances.records, GPUCircle{Position: c.Position, Radius: c.Radius, Color: c.Color})
	}
	d.instances.reserve(device)
}

func (d *CircleDrawer) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	d.instances.upload(belt, encoder)
}

func (d *CircleDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	n := len(d.instances.records)
	if n == 0 {
		return
	}
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.SetBindGroup(d.group, d.instances.provider.BindGroup(), nil)
	pass.Draw(2*CircleSegments, uint32(n), 0, 0)
}

func (d *CircleDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, _ []gpu.BindGroupLayout) {
	d.pipeline = d.pipeline.Recreate(device, pipeline.WithSampleCount(msaa.SampleCount()))
}
