// Package pass holds the pass resource contexts. A context owns the fixed GPU state needed to open one kind of
// render or compute pass (per-pass uniform buffers, fixed bind groups, attachment selection) and binds its fixed
// groups when the pass is opened. Contexts never record draws; drawers bind their own groups above the fixed ones.
//
// Group 0 of every pass is the global bind group. Group 1, when present, is the context's own bind group.
package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

// DynamicUniformAlignment is the offset alignment of dynamic uniform bindings.
const DynamicUniformAlignment = 256

// NoPassData is the pass data of contexts that open a single fixed target.
type NoPassData struct{}

// Context is the contract shared by every pass resource context.
//
// D is the pass data that selects the sub-target (a shadow partition, a cube face) and P is the opened pass type.
type Context[D any, P any] interface {
	// CreatePass opens exactly one pass on encoder and binds the fixed groups.
	//
	// Parameters:
	//   - encoder: the encoder of the pass family
	//   - global: the shared global context
	//   - passData: selects the sub-target of this call
	//
	// Returns:
	//   - P: the opened pass; the caller ends it
	CreatePass(encoder gpu.CommandEncoder, global *global.GlobalContext, passData D) P

	// BindGroupLayouts returns the fixed layouts of this pass in group order. Drawers append their own groups.
	//
	// Parameters:
	//   - layouts: the process layout cache
	//
	// Returns:
	//   - []gpu.BindGroupLayout: the fixed layouts
	BindGroupLayouts(layouts *layout.LayoutCache) []gpu.BindGroupLayout
}

var (
	_ Context[int, gpu.RenderPass]                = &DirectionalShadowContext{}
	_ Context[PointShadowPassData, gpu.RenderPass] = &PointShadowContext{}
	_ Context[NoPassData, gpu.ComputePass]         = &LightCullingContext{}
	_ Context[NoPassData, gpu.RenderPass]          = &ForwardContext{}
	_ Context[PostProcessingStage, gpu.RenderPass] = &PostProcessingContext{}
	_ Context[gpu.TextureView, gpu.RenderPass]     = &ScreenBlitContext{}
	_ Context[NoPassData, gpu.RenderPass]          = &PickerContext{}
	_ Context[NoPassData, gpu.RenderPass]          = &InterfaceContext{}
	_ Context[NoPassData, gpu.ComputePass]         = &CMAA2Context{}
	_ Context[NoPassData, gpu.ComputePass]         = &SDSMContext{}
	_ Context[NoPassData, gpu.ComputePass]         = &SelectorContext{}
)

func layoutsOf(layouts *layout.LayoutCache, ids ...layout.ID) []gpu.BindGroupLayout {
	out := make([]gpu.BindGroupLayout, len(ids))
	for i, id := range ids {
		out[i] = layouts.Get(id)
	}
	return out
}

func createBuffer(device gpu.Device, label string, size uint64, usage gpu.BufferUsage) gpu.Buffer {
	buffer, err := device.CreateBuffer(gpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		panic(fmt.Errorf("failed to create buffer %q: %w", label, err))
	}
	return buffer
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

func bufferEntry(binding uint32, buffer gpu.Buffer) gpu.BindGroupEntry {
	return gpu.BindGroupEntry{Binding: binding, Buffer: buffer, Size: buffer.Size()}
}

func textureEntry(binding uint32, view gpu.TextureView) gpu.BindGroupEntry {
	return gpu.BindGroupEntry{Binding: binding, TextureView: view}
}

func clearDepth() *float32 {
	d := float32(1)
	return &d
}

func beginRenderPass(encoder gpu.CommandEncoder, g *global.GlobalContext, desc gpu.RenderPassDescriptor, group gpu.BindGroup, offsets ...uint32) gpu.RenderPass {
	p := encoder.BeginRenderPass(desc)
	p.SetBindGroup(0, g.GlobalBindGroup, nil)
	if group != nil {
		p.SetBindGroup(1, group, offsets)
	}
	return p
}

func beginComputePass(encoder gpu.CommandEncoder, g *global.GlobalContext, label string, group gpu.BindGroup) gpu.ComputePass {
	p := encoder.BeginComputePass(label)
	p.SetBindGroup(0, g.GlobalBindGroup, nil)
	p.SetBindGroup(1, group, nil)
	return p
}
