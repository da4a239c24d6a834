package drawer

import (
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
)

const (
	// screenTileSize is the workgroup edge of per-pixel screen dispatches.
	screenTileSize = 16
	// linearGroupSize is the workgroup size of one-dimensional dispatches.
	linearGroupSize = 256
)

// LightCullingDispatchData is the tile grid and the number of lights uploaded for the frame.
type LightCullingDispatchData struct {
	TileCountX, TileCountY uint32
	LightCount             int
}

// ScreenDispatchData is the pixel size a screen space dispatch covers.
type ScreenDispatchData struct {
	Size common.ScreenSize
}

// LightCullingDispatcher assigns point lights to screen tiles, one workgroup per tile.
type LightCullingDispatcher struct {
	stateless
	pipeline pipeline.Pipeline
}

// NewLightCullingDispatcher creates the light culling dispatcher.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the light culling pass layouts
//
// Returns:
//   - *LightCullingDispatcher: the dispatcher
func NewLightCullingDispatcher(env Env, passLayouts []gpu.BindGroupLayout) *LightCullingDispatcher {
	return &LightCullingDispatcher{
		pipeline: newComputePipeline(env, KindLightCulling.String(), "light_culling", "cs_main", passLayouts),
	}
}

func (d *LightCullingDispatcher) Kind() Kind {
	return KindLightCulling
}

func (d *LightCullingDispatcher) Dispatch(pass gpu.ComputePass, data LightCullingDispatchData) {
	if data.LightCount == 0 || data.TileCountX == 0 || data.TileCountY == 0 {
		return
	}
	pass.SetPipeline(d.pipeline.ComputePipeline())
	pass.DispatchWorkgroups(data.TileCountX, data.TileCountY, 1)
}

var cmaa2Entries = map[Kind]string{
	KindCMAA2EdgeColor:           "edges_color",
	KindCMAA2ProcessCandidates:   "process_candidates",
	KindCMAA2ComputeDispatchArgs: "compute_dispatch_args",
	KindCMAA2DeferredColorApply:  "deferred_color_apply",
}

// CMAA2Dispatcher records one of the four CMAA2 stages. The stages read the multisampled forward color, so their
// pipelines carry the sample count as a constant.
type CMAA2Dispatcher struct {
	stateless
	kind     Kind
	pipeline pipeline.Pipeline
}

// NewCMAA2Dispatcher creates the dispatcher of one CMAA2 stage.
//
// Parameters:
//   - env: the drawer environment
//   - kind: one of the CMAA2 kinds
//   - passLayouts: the CMAA2 pass layouts
//   - msaa: the current MSAA level
//
// Returns:
//   - *CMAA2Dispatcher: the dispatcher
func NewCMAA2Dispatcher(env Env, kind Kind, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *CMAA2Dispatcher {
	entry, ok := cmaa2Entries[kind]
	if !ok {
		panic("not a CMAA2 kind: " + kind.String())
	}
	return &CMAA2Dispatcher{
		kind: kind,
		pipeline: newComputePipeline(env, kind.String(), "cmaa2", entry, passLayouts,
			pipeline.WithConstant("SAMPLE_COUNT", float64(msaa.SampleCount())),
		),
	}
}

// NewCMAA2Dispatchers creates the four stages in recording order.
func NewCMAA2Dispatchers(env Env, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) [4]*CMAA2Dispatcher {
	return [4]*CMAA2Dispatcher{
		NewCMAA2Dispatcher(env, KindCMAA2EdgeColor, passLayouts, msaa),
		NewCMAA2Dispatcher(env, KindCMAA2ProcessCandidates, passLayouts, msaa),
		NewCMAA2Dispatcher(env, KindCMAA2ComputeDispatchArgs, passLayouts, msaa),
		NewCMAA2Dispatcher(env, KindCMAA2DeferredColorApply, passLayouts, msaa),
	}
}

func (d *CMAA2Dispatcher) Kind() Kind {
	return d.kind
}

func (d *CMAA2Dispatcher) Dispatch(pass gpu.ComputePass, data ScreenDispatchData) {
	if data.Size.Empty() {
		return
	}
	pass.SetPipeline(d.pipeline.ComputePipeline())
	x, y, z := d.workgroups(data.Size)
	pass.DispatchWorkgroups(x, y, z)
}

func (d *CMAA2Dispatcher) workgroups(size common.ScreenSize) (x, y, z uint32) {
	switch d.kind {
	case KindCMAA2EdgeColor:
		return (size.Width + screenTileSize - 1) / screenTileSize, (size.Height + screenTileSize - 1) / screenTileSize, 1
	case KindCMAA2ComputeDispatchArgs:
		return 1, 1, 1
	default:
		// Candidates are bounded by one per 2x2 pixel quad.
		candidates := size.Width * size.Height / 4
		return max((candidates+linearGroupSize-1)/linearGroupSize, 1), 1, 1
	}
}

// Pipeline returns the stage pipeline.
func (d *CMAA2Dispatcher) Pipeline() pipeline.Pipeline {
	return d.pipeline
}

func (d *CMAA2Dispatcher) UpdateMSAA(device gpu.Device, msaa global.MSAA, passLayouts []gpu.BindGroupLayout) {
	d.pipeline = d.pipeline.Recreate(device,
		pipeline.WithBindGroupLayouts(passLayouts...),
		pipeline.WithConstant("SAMPLE_COUNT", float64(msaa.SampleCount())),
	)
}

// SDSMDispatcher reduces the picker depth to the visible depth bounds used to fit the directional shadow partitions.
type SDSMDispatcher struct {
	stateless
	pipeline pipeline.Pipeline
}

// NewSDSMDispatcher creates the depth bounds reduction dispatcher.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the SDSM pass layouts
//
// Returns:
//   - *SDSMDispatcher: the dispatcher
func NewSDSMDispatcher(env Env, passLayouts []gpu.BindGroupLayout) *SDSMDispatcher {
	return &SDSMDispatcher{
		pipeline: newComputePipeline(env, KindSDSM.String(), "sdsm", "reduce_bounds", passLayouts),
	}
}

func (d *SDSMDispatcher) Kind() Kind {
	return KindSDSM
}

func (d *SDSMDispatcher) Dispatch(pass gpu.ComputePass, data ScreenDispatchData) {
	if data.Size.Empty() {
		return
	}
	pass.SetPipeline(d.pipeline.ComputePipeline())
	pass.DispatchWorkgroups((data.Size.Width+screenTileSize-1)/screenTileSize, (data.Size.Height+screenTileSize-1)/screenTileSize, 1)
}

// SelectorDispatcher reads the picker texel under the cursor into the selector result buffer.
type SelectorDispatcher struct {
	stateless
	pipeline pipeline.Pipeline
}

// NewSelectorDispatcher creates the selector dispatcher.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the selector pass layouts
//
// Returns:
//   - *SelectorDispatcher: the dispatcher
func NewSelectorDispatcher(env Env, passLayouts []gpu.BindGroupLayout) *SelectorDispatcher {
	return &SelectorDispatcher{
		pipeline: newComputePipeline(env, KindSelector.String(), "selector", "cs_main", passLayouts),
	}
}

func (d *SelectorDispatcher) Kind() Kind {
	return KindSelector
}

func (d *SelectorDispatcher) Dispatch(pass gpu.ComputePass, _ NoDrawData) {
	pass.SetPipeline(d.pipeline.ComputePipeline())
	pass.DispatchWorkgroups(1, 1, 1)
}
