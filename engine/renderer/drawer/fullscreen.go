package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
)

// FullscreenDrawer draws one fullscreen triangle sampling the groups bound by its pass: the MSAA resolve of the
// forward color, the FXAA filter, or the final blit onto the swapchain.
type FullscreenDrawer struct {
	stateless
	kind     Kind
	pipeline pipeline.Pipeline
}

// NewResolveDrawer creates the drawer resolving the forward color into the post processing color.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the main post processing stage layouts
//   - msaa: the MSAA level of the forward color
//
// Returns:
//   - *FullscreenDrawer: the drawer
func NewResolveDrawer(env Env, passLayouts []gpu.BindGroupLayout, msaa global.MSAA) *FullscreenDrawer {
	return &FullscreenDrawer{
		kind: KindResolve,
		pipeline: newRenderPipeline(env, KindResolve.String(), "resolve", passLayouts,
			pipeline.WithColorTargets(global.PostProcessingColorFormat),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithConstant("SAMPLE_COUNT", float64(msaa.SampleCount())),
		),
	}
}

// NewFXAADrawer creates the FXAA filter drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the FXAA stage layouts
//
// Returns:
//   - *FullscreenDrawer: the drawer
func NewFXAADrawer(env Env, passLayouts []gpu.BindGroupLayout) *FullscreenDrawer {
	return &FullscreenDrawer{
		kind: KindFXAA,
		pipeline: newRenderPipeline(env, KindFXAA.String(), "fxaa", passLayouts,
			pipeline.WithColorTargets(global.PostProcessingColorFormat),
			pipeline.WithDepthTestEnabled(false),
		),
	}
}

// NewScreenBlitDrawer creates the drawer compositing the final color and the interface onto the swapchain.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the screen blit pass layouts
//   - surfaceFormat: the swapchain format
//
// Returns:
//   - *FullscreenDrawer: the drawer
func NewScreenBlitDrawer(env Env, passLayouts []gpu.BindGroupLayout, surfaceFormat gpu.TextureFormat) *FullscreenDrawer {
	return &FullscreenDrawer{
		kind: KindScreenBlit,
		pipeline: newRenderPipeline(env, KindScreenBlit.String(), "screen_blit", passLayouts,
			pipeline.WithColorTargets(surfaceFormat),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithConstant("HDR_SURFACE", boolConstant(surfaceFormat.IsHDR())),
		),
	}
}

func boolConstant(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (d *FullscreenDrawer) Kind() Kind {
	return d.kind
}

func (d *FullscreenDrawer) Draw(pass gpu.RenderPass, _ NoDrawData) {
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.Draw(3, 1, 0, 0)
}

// Pipeline returns the drawer's pipeline.
func (d *FullscreenDrawer) Pipeline() pipeline.Pipeline {
	return d.pipeline
}

// UpdateMSAA rebuilds the resolve pipeline for the new sample count and post processing layout.
func (d *FullscreenDrawer) UpdateMSAA(device gpu.Device, msaa global.MSAA, passLayouts []gpu.BindGroupLayout) {
	if !d.kind.SampleCountDependent() {
		return
	}
	d.pipeline = d.pipeline.Recreate(device,
		pipeline.WithBindGroupLayouts(passLayouts...),
		pipeline.WithConstant("SAMPLE_COUNT", float64(msaa.SampleCount())),
	)
}

// DebugBufferDrawer replaces the final image with an intermediate buffer. It is recorded into the screen blit pass
// after the blit and owns a group exposing every inspectable buffer.
type DebugBufferDrawer struct {
	stateless
	group     uint32
	layout    gpu.BindGroupLayout
	bindGroup gpu.BindGroup
	pipeline  pipeline.Pipeline
}

// NewDebugBufferDrawer creates the debug buffer drawer.
//
// Parameters:
//   - env: the drawer environment
//   - passLayouts: the screen blit pass layouts
//   - surfaceFormat: the swapchain format
//
// Returns:
//   - *DebugBufferDrawer: the drawer
func NewDebugBufferDrawer(env Env, passLayouts []gpu.BindGroupLayout, surfaceFormat gpu.TextureFormat) *DebugBufferDrawer {
	l := env.Layouts.Get(layout.DebugBuffers)
	return &DebugBufferDrawer{
		group:  uint32(len(passLayouts)),
		layout: l,
		pipeline: newRenderPipeline(env, KindDebugBuffer.String(), "debug_buffer", withLayouts(passLayouts, l),
			pipeline.WithColorTargets(surfaceFormat),
			pipeline.WithDepthTestEnabled(false),
		),
	}
}

func (d *DebugBufferDrawer) Kind() Kind {
	return KindDebugBuffer
}

// Rebind binds the current attachments and light buffers. Called after any of them was recreated.
//
// Parameters:
//   - device: the device
//   - g: the global context
//   - lights: the point light buffer
//   - tiles: the light tile buffer
func (d *DebugBufferDrawer) Rebind(device gpu.Device, g *global.GlobalContext, lights, tiles gpu.Buffer) {
	replaceBindGroup(&d.bindGroup, createBindGroup(device, "Debug Buffers", d.layout,
		gpu.BindGroupEntry{Binding: 0, TextureView: g.PickerColor.View},
		gpu.BindGroupEntry{Binding: 1, TextureView: g.DirectionalShadowMap.View},
		gpu.BindGroupEntry{Binding: 2, TextureView: g.PointShadowMap.View},
		gpu.BindGroupEntry{Binding: 3, Buffer: lights, Size: lights.Size()},
		gpu.BindGroupEntry{Binding: 4, Buffer: tiles, Size: tiles.Size()},
	))
}

// Draw shows buffer; the selection is passed as the instance index.
func (d *DebugBufferDrawer) Draw(pass gpu.RenderPass, buffer instruction.DebugBuffer) {
	if buffer == instruction.DebugBufferNone {
		return
	}
	if d.bindGroup == nil {
		panic(fmt.Sprintf("%s drawn before it was bound", KindDebugBuffer))
	}
	pass.SetPipeline(d.pipeline.RenderPipeline())
	pass.SetBindGroup(d.group, d.bindGroup, nil)
	pass.Draw(3, 1, 0, uint32(buffer))
}
