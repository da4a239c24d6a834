// Package drawer holds the leaf drawers and dispatchers recorded into the passes opened by the pass contexts.
//
// A drawer owns its pipelines, its instance buffers and a CPU mirror of them. It is driven in three steps per frame:
//  1. Prepare filters the frame's RenderInstruction into instance records and grows the GPU buffers
//  2. Upload writes the records through the shared staging belt
//  3. Draw (Dispatch for compute) records the draw calls into an opened pass
//
// Draw and Dispatch record nothing when there is nothing to draw. Drawers bind their groups directly above the fixed
// groups of the pass they are recorded in.
package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// Kind enumerates every drawer and dispatcher. The set is closed; the engine switches over it exhaustively.
type Kind int

const (
	KindForwardEntity Kind = iota
	KindForwardModel
	KindForwardIndicator
	KindWaterWave
	KindDirectionalShadowEntity
	KindDirectionalShadowModel
	KindPointShadowEntity
	KindPointShadowModel
	KindPickerEntity
	KindPickerTile
	KindLightCulling
	KindInterfaceRectangle
	KindEffect
	KindPostProcessingRectangle
	KindResolve
	KindFXAA
	KindCMAA2EdgeColor
	KindCMAA2ProcessCandidates
	KindCMAA2ComputeDispatchArgs
	KindCMAA2DeferredColorApply
	KindScreenBlit
	KindSDSM
	KindSelector

	// Debug drawers, registered through engine extensions.
	KindMarker
	KindAABB
	KindCircle
	KindDebugBuffer

	kindCount
)

var kindNames = [kindCount]string{
	"Forward Entity", "Forward Model", "Forward Indicator", "Water Wave",
	"Directional Shadow Entity", "Directional Shadow Model", "Point Shadow Entity", "Point Shadow Model",
	"Picker Entity", "Picker Tile", "Light Culling", "Interface Rectangle", "Effect", "Post Processing Rectangle",
	"Resolve", "FXAA", "CMAA2 Edge Color", "CMAA2 Process Candidates", "CMAA2 Compute Dispatch Args",
	"CMAA2 Deferred Color Apply", "Screen Blit", "SDSM", "Selector",
	"Marker", "AABB", "Circle", "Debug Buffer",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// SampleCountDependent reports whether the pipelines of a kind embed the MSAA level, either as the render target
// sample count, as a shader constant, or through the post processing layout. These are recreated when MSAA changes.
func (k Kind) SampleCountDependent() bool {
	switch k {
	case KindForwardEntity, KindForwardModel, KindForwardIndicator, KindWaterWave,
		KindEffect, KindPostProcessingRectangle, KindResolve,
		KindCMAA2EdgeColor, KindCMAA2ProcessCandidates, KindCMAA2ComputeDispatchArgs, KindCMAA2DeferredColorApply,
		KindAABB, KindCircle:
		return true
	default:
		return false
	}
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// Env is the device state shared by every drawer constructor.
type Env struct {
	Device  gpu.Device
	Layouts *layout.LayoutCache
	// EmptyTexture pads bindless arrays and stands in for instructions without a texture.
	EmptyTexture gpu.TextureView
	// Bindless selects texture binding arrays over per-draw texture groups.
	Bindless bool
	// Wireframe reports whether line rasterization of triangles is available.
	Wireframe bool
}

// NewEnv derives the drawer environment from the device features.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - emptyTexture: the 1x1 placeholder texture
//
// Returns:
//   - Env: the environment
func NewEnv(device gpu.Device, layouts *layout.LayoutCache, emptyTexture gpu.TextureView) Env {
	features := device.Features()
	return Env{
		Device:       device,
		Layouts:      layouts,
		EmptyTexture: emptyTexture,
		Bindless:     features.Bindless && layouts.BindlessCount() > 0,
		Wireframe:    features.PolygonModeLine,
	}
}

// Drawer is the contract of every render leaf. D selects what part of the prepared records a call draws.
type Drawer[D any] interface {
	Kind() Kind

	// Prepare turns the instructions relevant to this drawer into instance records and grows the instance buffers.
	Prepare(device gpu.Device, instruction *instruction.RenderInstruction)

	// Upload writes the prepared records through the staging belt.
	Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder)

	// Draw records the draws into an opened render pass. It records nothing when nothing was prepared.
	Draw(pass gpu.RenderPass, data D)
}

// Dispatcher is the compute counterpart of Drawer.
type Dispatcher[D any] interface {
	Kind() Kind
	Prepare(device gpu.Device, instruction *instruction.RenderInstruction)
	Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder)

	// Dispatch records the dispatches into an opened compute pass. It records nothing when there is no work.
	Dispatch(pass gpu.ComputePass, data D)
}

// MSAADependent is implemented by every drawer whose kind is SampleCountDependent.
type MSAADependent interface {
	Kind() Kind

	// UpdateMSAA recreates the MSAA dependent pipelines. The receiver's other pipelines keep their identity.
	//
	// Parameters:
	//   - device: the device
	//   - msaa: the new MSAA level
	//   - passLayouts: the fixed layouts of the pass the drawer is recorded in, as rebuilt for msaa
	UpdateMSAA(device gpu.Device, msaa global.MSAA, passLayouts []gpu.BindGroupLayout)
}

// NoDrawData is the draw data of drawers that always draw everything they prepared.
type NoDrawData struct{}

var (
	_ Drawer[instruction.Range]            = &EntityDrawer{}
	_ Drawer[instruction.Range]            = &ModelDrawer{}
	_ Drawer[NoDrawData]                   = &IndicatorDrawer{}
	_ Drawer[NoDrawData]                   = &WaterWaveDrawer{}
	_ Drawer[NoDrawData]                   = &TileDrawer{}
	_ Drawer[NoDrawData]                   = &RectangleDrawer{}
	_ Drawer[NoDrawData]                   = &EffectDrawer{}
	_ Drawer[NoDrawData]                   = &FullscreenDrawer{}
	_ Drawer[MarkerTarget]                 = &MarkerDrawer{}
	_ Drawer[NoDrawData]                   = &AABBDrawer{}
	_ Drawer[NoDrawData]                   = &CircleDrawer{}
	_ Drawer[instruction.DebugBuffer]      = &DebugBufferDrawer{}
	_ Dispatcher[LightCullingDispatchData] = &LightCullingDispatcher{}
	_ Dispatcher[ScreenDispatchData]       = &CMAA2Dispatcher{}
	_ Dispatcher[ScreenDispatchData]       = &SDSMDispatcher{}
	_ Dispatcher[NoDrawData]               = &SelectorDispatcher{}

	_ MSAADependent = &EntityDrawer{}
	_ MSAADependent = &ModelDrawer{}
	_ MSAADependent = &IndicatorDrawer{}
	_ MSAADependent = &WaterWaveDrawer{}
	_ MSAADependent = &RectangleDrawer{}
	_ MSAADependent = &EffectDrawer{}
	_ MSAADependent = &FullscreenDrawer{}
	_ MSAADependent = &CMAA2Dispatcher{}
	_ MSAADependent = &AABBDrawer{}
	_ MSAADependent = &CircleDrawer{}
)

// stateless provides the no-op Prepare and Upload of drawers without per-frame data.
type stateless struct{}

func (stateless) Prepare(gpu.Device, *instruction.RenderInstruction) {}

func (stateless) Upload(*staging_belt.StagingBelt, gpu.CommandEncoder) {}

func withLayouts(passLayouts []gpu.BindGroupLayout, own ...gpu.BindGroupLayout) []gpu.BindGroupLayout {
	out := make([]gpu.BindGroupLayout, 0, len(passLayouts)+len(own))
	out = append(out, passLayouts...)
	return append(out, own...)
}

func createBindGroup(device gpu.Device, label string, l gpu.BindGroupLayout, entries ...gpu.BindGroupEntry) gpu.BindGroup {
	group, err := device.CreateBindGroup(gpu.BindGroupDescriptor{Label: label, Layout: l, Entries: entries})
	if err != nil {
		panic(fmt.Errorf("failed to create bind group %q: %w", label, err))
	}
	return group
}

// replaceBindGroup releases the group held by target, if any, and stores group in its place.
func replaceBindGroup(target *gpu.BindGroup, group gpu.BindGroup) {
	if *target != nil {
		(*target).Release()
	}
	*target = group
}

// clampRange clips r to [0, n).
func clampRange(r instruction.Range, n int) (first, end int) {
	first = max(r.Offset, 0)
	end = min(r.End(), n)
	return first, end
}
