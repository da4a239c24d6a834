package engine

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/drawer"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// ExtensionHook names a point inside a recorded pass where extensions may draw.
type ExtensionHook int

const (
	// HookInterface is reached after the interface rectangles, inside the interface pass.
	HookInterface ExtensionHook = iota
	// HookPicker is reached after the picker tiles and entities, inside the picker pass.
	HookPicker
	// HookForward is reached after every forward drawer, inside the forward pass.
	HookForward
	// HookScreen is reached after the screen blit, inside the pass on the swapchain texture.
	HookScreen
)

// ExtensionEnv is handed to an extension every time the engine context is built. The layouts are the fixed group
// layouts of the pass each hook records into.
type ExtensionEnv struct {
	Drawer        drawer.Env
	Global        *global.GlobalContext
	LightCulling  *pass.LightCullingContext
	SurfaceFormat gpu.TextureFormat

	InterfaceLayouts []gpu.BindGroupLayout
	PickerLayouts    []gpu.BindGroupLayout
	ForwardLayouts   []gpu.BindGroupLayout
	ScreenLayouts    []gpu.BindGroupLayout
}

// Extension is an optional set of drawers registered with WithExtension. Extensions take part in every phase of a
// frame: one prepare job per extension, a serial upload, and draws at the hooks.
type Extension interface {
	// Name identifies the extension in logs.
	Name() string

	// Attach creates the extension's drawers. It is called again whenever the engine context is rebuilt.
	//
	// Parameters:
	//   - env: the drawer environment and pass layouts of the new context
	Attach(env ExtensionEnv)

	// Prepare runs on a worker goroutine, concurrently with the core drawers.
	Prepare(device gpu.Device, instruction *instruction.RenderInstruction)

	// Upload runs serially on the prepare-upload encoder.
	Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder)

	// Record draws into an opened pass at a hook. Different hooks may be recorded concurrently.
	Record(hook ExtensionHook, pass gpu.RenderPass, instruction *instruction.RenderInstruction)

	// UpdateMSAA recreates the pipelines that render into the forward pass.
	UpdateMSAA(device gpu.Device, msaa global.MSAA, forwardLayouts []gpu.BindGroupLayout)

	// Rebind recreates bind groups after global attachments or light culling buffers were recreated.
	Rebind(g *global.GlobalContext, lightCulling *pass.LightCullingContext)
}

// DebugExtension draws the debug overlays: markers into the interface and the picker, bounding boxes and circles
// into the forward pass, and the selected intermediate buffer over the final image.
type DebugExtension struct {
	device gpu.Device

	markers *drawer.MarkerDrawer
	aabbs   *drawer.AABBDrawer
	circles *drawer.CircleDrawer
	buffers *drawer.DebugBufferDrawer
}

var _ Extension = &DebugExtension{}

// NewDebugExtension creates an unattached debug extension.
//
// Returns:
//   - *DebugExtension: the extension
func NewDebugExtension() *DebugExtension {
	return &DebugExtension{}
}

func (x *DebugExtension) Name() string {
	return "debug"
}

func (x *DebugExtension) Attach(env ExtensionEnv) {
	x.device = env.Drawer.Device
	x.markers = drawer.NewMarkerDrawer(env.Drawer, env.InterfaceLayouts)
	x.aabbs = drawer.NewAABBDrawer(env.Drawer, env.ForwardLayouts, env.Global.MSAA)
	x.circles = drawer.NewCircleDrawer(env.Drawer, env.ForwardLayouts, env.Global.MSAA)
	x.buffers = drawer.NewDebugBufferDrawer(env.Drawer, env.ScreenLayouts, env.SurfaceFormat)
	x.Rebind(env.Global, env.LightCulling)
}

func (x *DebugExtension) Prepare(device gpu.Device, instr *instruction.RenderInstruction) {
	x.markers.Prepare(device, instr)
	x.aabbs.Prepare(device, instr)
	x.circles.Prepare(device, instr)
}

func (x *DebugExtension) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	x.markers.Upload(belt, encoder)
	x.aabbs.Upload(belt, encoder)
	x.circles.Upload(belt, encoder)
}

func (x *DebugExtension) Record(hook ExtensionHook, p gpu.RenderPass, instr *instruction.RenderInstruction) {
	switch hook {
	case HookInterface:
		x.markers.Draw(p, drawer.MarkerPassInterface)
	case HookPicker:
		x.markers.Draw(p, drawer.MarkerPassPicker)
	case HookForward:
		x.aabbs.Draw(p, drawer.NoDrawData{})
		x.circles.Draw(p, drawer.NoDrawData{})
	case HookScreen:
		x.buffers.Draw(p, instr.Settings.ShowBuffer)
	}
}

func (x *DebugExtension) UpdateMSAA(device gpu.Device, msaa global.MSAA, forwardLayouts []gpu.BindGroupLayout) {
	x.aabbs.UpdateMSAA(device, msaa, forwardLayouts)
	x.circles.UpdateMSAA(device, msaa, forwardLayouts)
}

func (x *DebugExtension) Rebind(g *global.GlobalContext, lightCulling *pass.LightCullingContext) {
	x.buffers.Rebind(x.device, g, lightCulling.LightsBuffer(), lightCulling.TilesBuffer())
}
