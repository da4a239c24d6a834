// Package global owns the GPU state shared by every pass of a frame: the frame uniform buffer, the shared samplers,
// the render attachments and the anti-aliasing resources, together with the graphics settings they were built for.
package global

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/light"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
	"github.com/go-gl/mathgl/mgl32"
)

// Attachment formats.
const (
	ForwardColorFormat        = gpu.TextureFormatRGBA16Float
	DepthFormat               = gpu.TextureFormatDepth32Float
	PickerFormat              = gpu.TextureFormatRG32Uint
	InterfaceFormat           = gpu.TextureFormatRGBA8Unorm
	PostProcessingColorFormat = gpu.TextureFormatRGBA8Unorm
	CMAA2EdgesFormat          = gpu.TextureFormatR32Uint
)

// Attachment is a texture together with its default view.
type Attachment struct {
	Texture gpu.Texture
	View    gpu.TextureView
}

// Size returns the attachment size.
func (a Attachment) Size() common.ScreenSize {
	return common.ScreenSize{Width: a.Texture.Width(), Height: a.Texture.Height()}
}

func (a Attachment) release() {
	if a.Texture != nil {
		a.Texture.Release()
	}
}

// AntiAliasingResources is the resource variant of the active screen space anti-aliasing mode.
// Implementations: NoAntiAliasingResources, *FXAAResources, *CMAA2Resources.
type AntiAliasingResources interface {
	mode() ScreenSpaceAntiAliasing
	release()
}

// NoAntiAliasingResources is used while screen space anti-aliasing is off.
type NoAntiAliasingResources struct{}

func (NoAntiAliasingResources) mode() ScreenSpaceAntiAliasing { return ScreenSpaceAntiAliasingOff }
func (NoAntiAliasingResources) release()                      {}

// FXAAResources holds the target FXAA writes into.
type FXAAResources struct {
	Target Attachment
}

func (*FXAAResources) mode() ScreenSpaceAntiAliasing { return ScreenSpaceAntiAliasingFXAA }
func (r *FXAAResources) release()                    { r.Target.release() }

// CMAA2Resources holds the working set of the CMAA2 compute stages.
type CMAA2Resources struct {
	Edges              Attachment
	ShapeCandidates    gpu.Buffer
	DeferredBlendItems gpu.Buffer
	Control            gpu.Buffer
}

func (*CMAA2Resources) mode() ScreenSpaceAntiAliasing { return ScreenSpaceAntiAliasingCMAA2 }

func (r *CMAA2Resources) release() {
	r.Edges.release()
	r.ShapeCandidates.Release()
	r.DeferredBlendItems.Release()
	r.Control.Release()
}

// GlobalContext is the cross-pass GPU state. It is mutated only through the Update methods and the per-frame
// Prepare/Upload pair; passes treat it as read-only while recording.
type GlobalContext struct {
	device  gpu.Device
	layouts *layout.LayoutCache

	SurfaceFormat        gpu.TextureFormat
	ScreenSize           common.ScreenSize
	MSAA                 MSAA
	SSAA                 SSAA
	ShadowDetail         ShadowDetail
	TextureSamplerType   TextureSamplerType
	HighQualityInterface bool

	UniformBuffer   gpu.Buffer
	uniforms        GPUGlobalUniforms
	NearestSampler  gpu.Sampler
	LinearSampler   gpu.Sampler
	TextureSampler  gpu.Sampler
	ShadowSampler   gpu.Sampler
	GlobalBindGroup gpu.BindGroup

	// EmptyTexture pads bindless texture arrays.
	EmptyTexture Attachment

	ForwardColor        Attachment
	ForwardDepth        Attachment
	PickerColor         Attachment
	PickerDepth         Attachment
	InterfaceColor      Attachment
	PostProcessingColor Attachment

	DirectionalShadowMap        Attachment
	DirectionalShadowLayerViews []gpu.TextureView
	PointShadowMap              Attachment
	PointShadowFaceViews        []gpu.TextureView

	antiAliasing AntiAliasingResources
}

// NewGlobalContext creates the shared state for a surface of the given format and size.
// Settings must already have passed the capability checks.
//
// Parameters:
//   - device: the device
//   - layouts: the layout cache
//   - surfaceFormat: the presentation format
//   - screenSize: the surface size in pixels
//   - settings: the effective graphics settings
//
// Returns:
//   - *GlobalContext: the created context
func NewGlobalContext(device gpu.Device, layouts *layout.LayoutCache, surfaceFormat gpu.TextureFormat, screenSize common.ScreenSize, settings GraphicsSettings) *GlobalContext {
	g := &GlobalContext{
		device:               device,
		layouts:              layouts,
		SurfaceFormat:        surfaceFormat,
		ScreenSize:           screenSize,
		MSAA:                 settings.MSAA,
		SSAA:                 settings.SSAA,
		ShadowDetail:         settings.ShadowDetail,
		TextureSamplerType:   settings.TextureSampler,
		HighQualityInterface: settings.HighQualityInterface,
		antiAliasing:         NoAntiAliasingResources{},
	}

	g.UniformBuffer = g.createBuffer("Global Uniforms", common.SizeOf[GPUGlobalUniforms](), gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)
	g.NearestSampler = g.createSampler(gpu.SamplerDescriptor{Label: "Nearest Sampler", Filter: gpu.FilterModeNearest, MipmapFilter: gpu.FilterModeNearest})
	g.LinearSampler = g.createSampler(gpu.SamplerDescriptor{Label: "Linear Sampler", Filter: gpu.FilterModeLinear, MipmapFilter: gpu.FilterModeLinear})
	g.ShadowSampler = g.createSampler(gpu.SamplerDescriptor{Label: "Shadow Sampler", Filter: gpu.FilterModeLinear, Compare: gpu.CompareFunctionLessEqual})
	g.TextureSampler = g.createSampler(g.TextureSamplerType.Descriptor())
	g.EmptyTexture = g.createAttachment(gpu.TextureDescriptor{
		Label:  "Empty Texture",
		Width:  1,
		Height: 1,
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageTextureBinding,
	}, gpu.TextureViewDescriptor{})
	g.rebuildGlobalBindGroup()

	g.createScreenAttachments()
	g.createForwardAttachments()
	g.createInterfaceAttachment()
	g.createShadowMaps()
	g.antiAliasing = g.createAntiAliasingResources(settings.ScreenSpaceAntiAliasing)
	return g
}

// ForwardSize returns the size of the forward attachments, the screen size scaled by the supersampling factor.
func (g *GlobalContext) ForwardSize() common.ScreenSize {
	return g.ScreenSize.Scaled(g.SSAA.Factor())
}

// InterfaceSize returns the size of the interface attachment.
func (g *GlobalContext) InterfaceSize() common.ScreenSize {
	if g.HighQualityInterface {
		return g.ScreenSize.Scaled(2)
	}
	return g.ScreenSize
}

// ScreenSpaceAntiAliasing returns the mode of the constructed anti-aliasing resources.
func (g *GlobalContext) ScreenSpaceAntiAliasing() ScreenSpaceAntiAliasing {
	return g.antiAliasing.mode()
}

// FXAAResources returns the FXAA resources. Panics if another variant is constructed.
func (g *GlobalContext) FXAAResources() *FXAAResources {
	r, ok := g.antiAliasing.(*FXAAResources)
	if !ok {
		panic(fmt.Sprintf("FXAA resources requested while %s resources are constructed", g.antiAliasing.mode()))
	}
	return r
}

// CMAA2Resources returns the CMAA2 resources. Panics if another variant is constructed.
func (g *GlobalContext) CMAA2Resources() *CMAA2Resources {
	r, ok := g.antiAliasing.(*CMAA2Resources)
	if !ok {
		panic(fmt.Sprintf("CMAA2 resources requested while %s resources are constructed", g.antiAliasing.mode()))
	}
	return r
}

// UpdateScreenSize recreates every screen-size dependent attachment.
func (g *GlobalContext) UpdateScreenSize(size common.ScreenSize) {
	g.ScreenSize = size
	g.createScreenAttachments()
	g.createForwardAttachments()
	g.createInterfaceAttachment()
	mode := g.antiAliasing.mode()
	g.antiAliasing.release()
	g.antiAliasing = g.createAntiAliasingResources(mode)
}

// UpdateMSAA recreates the forward attachments with a new sample count.
func (g *GlobalContext) UpdateMSAA(msaa MSAA) {
	g.MSAA = msaa
	g.createForwardAttachments()
}

// UpdateSSAA recreates the forward attachments at a new supersampling factor.
func (g *GlobalContext) UpdateSSAA(ssaa SSAA) {
	g.SSAA = ssaa
	g.createForwardAttachments()
}

// UpdateShadowDetail recreates the shadow maps at a new resolution.
func (g *GlobalContext) UpdateShadowDetail(detail ShadowDetail) {
	g.ShadowDetail = detail
	g.createShadowMaps()
}

// UpdateTextureSamplerType recreates the texture sampler and the global bind group.
func (g *GlobalContext) UpdateTextureSamplerType(samplerType TextureSamplerType) {
	g.TextureSamplerType = samplerType
	g.TextureSampler = g.createSampler(samplerType.Descriptor())
	g.rebuildGlobalBindGroup()
}

// UpdateScreenSpaceAntiAliasing replaces the anti-aliasing resource variant.
func (g *GlobalContext) UpdateScreenSpaceAntiAliasing(mode ScreenSpaceAntiAliasing) {
	g.antiAliasing.release()
	g.antiAliasing = g.createAntiAliasingResources(mode)
}

// UpdateHighQualityInterface recreates the interface attachment.
func (g *GlobalContext) UpdateHighQualityInterface(enabled bool) {
	g.HighQualityInterface = enabled
	g.createInterfaceAttachment()
}

// Prepare computes the frame uniforms.
//
// Parameters:
//   - instruction: the frame snapshot
func (g *GlobalContext) Prepare(instruction *instruction.RenderInstruction) {
	u := &instruction.Uniforms
	viewProjection := u.Projection.Mul4(u.View)
	forward := g.ForwardSize()
	iface := g.InterfaceSize()
	tileX, tileY := light.TileCounts(forward)
	direction := u.DirectionalLightDirection
	if direction.Len() > 0 {
		direction = direction.Normalize()
	}

	g.uniforms = GPUGlobalUniforms{
		ViewProjection:        viewProjection,
		View:                  u.View,
		InverseViewProjection: viewProjection.Inv(),
		CameraPosition:        u.CameraPosition.Vec4(1),
		AmbientColor:          u.AmbientColor.Vec4(1),
		DirectionalDirection:  direction.Vec4(0),
		DirectionalColor:      u.DirectionalLightColor.Vec4(1),
		ScreenSize:            [2]uint32{g.ScreenSize.Width, g.ScreenSize.Height},
		ForwardSize:           [2]uint32{forward.Width, forward.Height},
		InterfaceSize:         [2]uint32{iface.Width, iface.Height},
		PickerPosition:        pickerTexel(instruction.PickerPosition, g.ScreenSize),
		AnimationTimer:        u.AnimationTimer,
		PointLightCount:       uint32(min(len(instruction.PointLights), light.MaxGPULights)),
		TileCount:             [2]uint32{tileX, tileY},
	}
}

// Upload writes the frame uniforms through the staging belt.
func (g *GlobalContext) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	belt.Write(encoder, g.UniformBuffer, 0, common.StructToBytes(&g.uniforms))
}

// Uniforms returns the last prepared frame uniforms.
func (g *GlobalContext) Uniforms() GPUGlobalUniforms {
	return g.uniforms
}

// PickerTexel returns the picker attachment texel under a screen position, clamped to the attachment.
func PickerTexel(position common.ScreenPosition, screen common.ScreenSize) (x, y uint32) {
	t := pickerTexel(position, screen)
	return t[0], t[1]
}

func pickerTexel(position common.ScreenPosition, screen common.ScreenSize) [2]uint32 {
	maxX := float32(max(screen.Width, 1) - 1)
	maxY := float32(max(screen.Height, 1) - 1)
	return [2]uint32{
		uint32(mgl32.Clamp(position.X, 0, maxX)),
		uint32(mgl32.Clamp(position.Y, 0, maxY)),
	}
}

func (g *GlobalContext) rebuildGlobalBindGroup() {
	group, err := g.device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "Global",
		Layout: g.layouts.Get(layout.Global),
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, Buffer: g.UniformBuffer, Size: g.UniformBuffer.Size()},
			{Binding: 1, Sampler: g.NearestSampler},
			{Binding: 2, Sampler: g.LinearSampler},
			{Binding: 3, Sampler: g.TextureSampler},
			{Binding: 4, Sampler: g.ShadowSampler},
		},
	})
	if err != nil {
		panic(fmt.Errorf("failed to create global bind group: %w", err))
	}
	if g.GlobalBindGroup != nil {
		g.GlobalBindGroup.Release()
	}
	g.GlobalBindGroup = group
}

func (g *GlobalContext) createScreenAttachments() {
	size := atLeastOne(g.ScreenSize)
	g.PickerColor.release()
	g.PickerDepth.release()
	g.PostProcessingColor.release()

	g.PickerColor = g.createAttachment(gpu.TextureDescriptor{
		Label: "Picker Color", Width: size.Width, Height: size.Height, Format: PickerFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding | gpu.TextureUsageCopySrc,
	}, gpu.TextureViewDescriptor{})
	g.PickerDepth = g.createAttachment(gpu.TextureDescriptor{
		Label: "Picker Depth", Width: size.Width, Height: size.Height, Format: DepthFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	}, gpu.TextureViewDescriptor{})
	g.PostProcessingColor = g.createAttachment(gpu.TextureDescriptor{
		Label: "Post Processing Color", Width: size.Width, Height: size.Height, Format: PostProcessingColorFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding | gpu.TextureUsageStorageBinding,
	}, gpu.TextureViewDescriptor{})
}

func (g *GlobalContext) createForwardAttachments() {
	size := atLeastOne(g.ForwardSize())
	samples := g.MSAA.SampleCount()
	g.ForwardColor.release()
	g.ForwardDepth.release()

	g.ForwardColor = g.createAttachment(gpu.TextureDescriptor{
		Label: "Forward Color", Width: size.Width, Height: size.Height, SampleCount: samples, Format: ForwardColorFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	}, gpu.TextureViewDescriptor{})
	g.ForwardDepth = g.createAttachment(gpu.TextureDescriptor{
		Label: "Forward Depth", Width: size.Width, Height: size.Height, SampleCount: samples, Format: DepthFormat,
		Usage: gpu.TextureUsageRenderAttachment,
	}, gpu.TextureViewDescriptor{})
}

func (g *GlobalContext) createInterfaceAttachment() {
	size := atLeastOne(g.InterfaceSize())
	g.InterfaceColor.release()
	g.InterfaceColor = g.createAttachment(gpu.TextureDescriptor{
		Label: "Interface Color", Width: size.Width, Height: size.Height, Format: InterfaceFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	}, gpu.TextureViewDescriptor{})
}

func (g *GlobalContext) createShadowMaps() {
	g.DirectionalShadowMap.release()
	g.PointShadowMap.release()

	directional := g.ShadowDetail.DirectionalResolution()
	g.DirectionalShadowMap = g.createAttachment(gpu.TextureDescriptor{
		Label: "Directional Shadow Map", Width: directional, Height: directional,
		Layers: light.MaxDirectionalShadowPartitions, Format: DepthFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	}, gpu.TextureViewDescriptor{Dimension: gpu.TextureDimension2DArray, ArrayLayers: light.MaxDirectionalShadowPartitions})
	g.DirectionalShadowLayerViews = g.layerViews(g.DirectionalShadowMap.Texture, light.MaxDirectionalShadowPartitions)

	point := g.ShadowDetail.PointResolution()
	faces := uint32(light.MaxPointLightShadowCasters * 6)
	g.PointShadowMap = g.createAttachment(gpu.TextureDescriptor{
		Label: "Point Shadow Map", Width: point, Height: point, Layers: faces, Format: DepthFormat,
		Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	}, gpu.TextureViewDescriptor{Dimension: gpu.TextureDimensionCubeArray, ArrayLayers: faces})
	g.PointShadowFaceViews = g.layerViews(g.PointShadowMap.Texture, faces)
}

func (g *GlobalContext) createAntiAliasingResources(mode ScreenSpaceAntiAliasing) AntiAliasingResources {
	size := atLeastOne(g.ScreenSize)
	switch mode {
	case ScreenSpaceAntiAliasingFXAA:
		return &FXAAResources{
			Target: g.createAttachment(gpu.TextureDescriptor{
				Label: "FXAA Target", Width: size.Width, Height: size.Height, Format: PostProcessingColorFormat,
				Usage: gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
			}, gpu.TextureViewDescriptor{}),
		}
	case ScreenSpaceAntiAliasingCMAA2:
		pixels := uint64(size.Width) * uint64(size.Height)
		return &CMAA2Resources{
			Edges: g.createAttachment(gpu.TextureDescriptor{
				Label: "CMAA2 Edges", Width: size.Width, Height: size.Height, Format: CMAA2EdgesFormat,
				Usage: gpu.TextureUsageStorageBinding,
			}, gpu.TextureViewDescriptor{}),
			// Candidate and blend item lists are bounded by a quarter of the pixels, 4 and 8 bytes per entry.
			ShapeCandidates:    g.createBuffer("CMAA2 Shape Candidates", common.AlignUp(pixels, 4), gpu.BufferUsageStorage),
			DeferredBlendItems: g.createBuffer("CMAA2 Deferred Blend Items", common.AlignUp(pixels*2, 4), gpu.BufferUsageStorage),
			Control:            g.createBuffer("CMAA2 Control", 64, gpu.BufferUsageStorage|gpu.BufferUsageIndirect|gpu.BufferUsageCopyDst),
		}
	default:
		return NoAntiAliasingResources{}
	}
}

func (g *GlobalContext) layerViews(texture gpu.Texture, layers uint32) []gpu.TextureView {
	views := make([]gpu.TextureView, layers)
	for i := range views {
		view, err := texture.CreateView(gpu.TextureViewDescriptor{
			Label:          fmt.Sprintf("%s Layer %d", texture.Label(), i),
			Dimension:      gpu.TextureDimension2D,
			BaseArrayLayer: uint32(i),
			ArrayLayers:    1,
		})
		if err != nil {
			panic(fmt.Errorf("failed to create view of %s: %w", texture.Label(), err))
		}
		views[i] = view
	}
	return views
}

func (g *GlobalContext) createAttachment(desc gpu.TextureDescriptor, viewDesc gpu.TextureViewDescriptor) Attachment {
	if desc.Layers == 0 {
		desc.Layers = 1
	}
	if desc.MipLevelCount == 0 {
		desc.MipLevelCount = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	texture, err := g.device.CreateTexture(desc)
	if err != nil {
		panic(fmt.Errorf("failed to create %s: %w", desc.Label, err))
	}
	view, err := texture.CreateView(viewDesc)
	if err != nil {
		panic(fmt.Errorf("failed to create view of %s: %w", desc.Label, err))
	}
	return Attachment{Texture: texture, View: view}
}

func (g *GlobalContext) createBuffer(label string, size uint64, usage gpu.BufferUsage) gpu.Buffer {
	buffer, err := g.device.CreateBuffer(gpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		panic(fmt.Errorf("failed to create %s: %w", label, err))
	}
	return buffer
}

func (g *GlobalContext) createSampler(desc gpu.SamplerDescriptor) gpu.Sampler {
	sampler, err := g.device.CreateSampler(desc)
	if err != nil {
		panic(fmt.Errorf("failed to create %s: %w", desc.Label, err))
	}
	return sampler
}

func atLeastOne(size common.ScreenSize) common.ScreenSize {
	return common.ScreenSize{Width: max(size.Width, 1), Height: max(size.Height, 1)}
}
