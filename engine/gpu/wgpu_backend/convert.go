package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var textureFormats = map[gpu.TextureFormat]wgpu.TextureFormat{
	gpu.TextureFormatRGBA8Unorm:     wgpu.TextureFormatRGBA8Unorm,
	gpu.TextureFormatRGBA8UnormSrgb: wgpu.TextureFormatRGBA8UnormSrgb,
	gpu.TextureFormatBGRA8Unorm:     wgpu.TextureFormatBGRA8Unorm,
	gpu.TextureFormatBGRA8UnormSrgb: wgpu.TextureFormatBGRA8UnormSrgb,
	gpu.TextureFormatRGBA16Float:    wgpu.TextureFormatRGBA16Float,
	gpu.TextureFormatRGB10A2Unorm:   wgpu.TextureFormatRGB10A2Unorm,
	gpu.TextureFormatRG32Uint:       wgpu.TextureFormatRG32Uint,
	gpu.TextureFormatR32Float:       wgpu.TextureFormatR32Float,
	gpu.TextureFormatR32Uint:        wgpu.TextureFormatR32Uint,
	gpu.TextureFormatDepth32Float:   wgpu.TextureFormatDepth32Float,
	gpu.TextureFormatDepth24Plus:    wgpu.TextureFormatDepth24Plus,
}

func textureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	if w, ok := textureFormats[f]; ok {
		return w
	}
	return wgpu.TextureFormatUndefined
}

// fromTextureFormat maps a native format back. Formats the render core does not know are reported as undefined.
func fromTextureFormat(w wgpu.TextureFormat) gpu.TextureFormat {
	for f, native := range textureFormats {
		if native == w {
			return f
		}
	}
	return gpu.TextureFormatUndefined
}

var bufferUsages = map[gpu.BufferUsage]wgpu.BufferUsage{
	gpu.BufferUsageMapRead:  wgpu.BufferUsageMapRead,
	gpu.BufferUsageMapWrite: wgpu.BufferUsageMapWrite,
	gpu.BufferUsageCopySrc:  wgpu.BufferUsageCopySrc,
	gpu.BufferUsageCopyDst:  wgpu.BufferUsageCopyDst,
	gpu.BufferUsageIndex:    wgpu.BufferUsageIndex,
	gpu.BufferUsageVertex:   wgpu.BufferUsageVertex,
	gpu.BufferUsageUniform:  wgpu.BufferUsageUniform,
	gpu.BufferUsageStorage:  wgpu.BufferUsageStorage,
	gpu.BufferUsageIndirect: wgpu.BufferUsageIndirect,
}

func bufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for bit, native := range bufferUsages {
		if u&bit != 0 {
			out |= native
		}
	}
	return out
}

var textureUsages = map[gpu.TextureUsage]wgpu.TextureUsage{
	gpu.TextureUsageCopySrc:          wgpu.TextureUsageCopySrc,
	gpu.TextureUsageCopyDst:          wgpu.TextureUsageCopyDst,
	gpu.TextureUsageTextureBinding:   wgpu.TextureUsageTextureBinding,
	gpu.TextureUsageStorageBinding:   wgpu.TextureUsageStorageBinding,
	gpu.TextureUsageRenderAttachment: wgpu.TextureUsageRenderAttachment,
}

func textureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	for bit, native := range textureUsages {
		if u&bit != 0 {
			out |= native
		}
	}
	return out
}

func shaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gpu.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func viewDimension(d gpu.TextureDimension) wgpu.TextureViewDimension {
	switch d {
	case gpu.TextureDimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case gpu.TextureDimensionCube:
		return wgpu.TextureViewDimensionCube
	case gpu.TextureDimensionCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	default:
		return wgpu.TextureViewDimension2D
	}
}

func presentMode(m gpu.PresentMode) wgpu.PresentMode {
	switch m {
	case gpu.PresentModeMailbox:
		return wgpu.PresentModeMailbox
	case gpu.PresentModeImmediate:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

func fromPresentMode(m wgpu.PresentMode) (gpu.PresentMode, bool) {
	switch m {
	case wgpu.PresentModeFifo:
		return gpu.PresentModeFifo, true
	case wgpu.PresentModeMailbox:
		return gpu.PresentModeMailbox, true
	case wgpu.PresentModeImmediate:
		return gpu.PresentModeImmediate, true
	default:
		return 0, false
	}
}

func filterMode(f gpu.FilterMode) wgpu.FilterMode {
	if f == gpu.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func mipmapFilterMode(f gpu.FilterMode) wgpu.MipmapFilterMode {
	if f == gpu.FilterModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

func addressMode(a gpu.AddressMode) wgpu.AddressMode {
	if a == gpu.AddressModeRepeat {
		return wgpu.AddressModeRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func compareFunction(c gpu.CompareFunction) wgpu.CompareFunction {
	switch c {
	case gpu.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case gpu.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gpu.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gpu.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionUndefined
	}
}

func cullMode(c gpu.CullMode) wgpu.CullMode {
	switch c {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func topology(t gpu.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gpu.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case gpu.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func blendFactor(f gpu.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gpu.BlendFactorOne:
		return wgpu.BlendFactorOne
	case gpu.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gpu.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case gpu.BlendFactorDst:
		return wgpu.BlendFactorDst
	case gpu.BlendFactorOneMinusSrc:
		return wgpu.BlendFactorOneMinusSrc
	default:
		return wgpu.BlendFactorZero
	}
}

func blendState(b *gpu.BlendState) *wgpu.BlendState {
	if b == nil {
		return nil
	}
	component := wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: blendFactor(b.Src),
		DstFactor: blendFactor(b.Dst),
	}
	return &wgpu.BlendState{Color: component, Alpha: component}
}

func vertexFormat(f shader.VertexFormat) wgpu.VertexFormat {
	switch f {
	case shader.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32
	case shader.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case shader.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case shader.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	case shader.VertexFormatUint32:
		return wgpu.VertexFormatUint32
	case shader.VertexFormatUint32x2:
		return wgpu.VertexFormatUint32x2
	case shader.VertexFormatUint32x4:
		return wgpu.VertexFormatUint32x4
	case shader.VertexFormatSint32:
		return wgpu.VertexFormatSint32
	default:
		return wgpu.VertexFormatUnorm8x4
	}
}

func vertexLayouts(layouts []shader.VertexLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		step := wgpu.VertexStepModeVertex
		if l.Instance {
			step = wgpu.VertexStepModeInstance
		}
		attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
		for i, a := range l.Attributes {
			attrs[i] = wgpu.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.Location,
			}
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.Stride,
			StepMode:    step,
			Attributes:  attrs,
		})
	}
	return out
}

func layoutEntry(e gpu.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: shaderStage(e.Visibility),
	}
	switch e.Type {
	case gpu.BindingTypeUniformBuffer:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, HasDynamicOffset: e.HasDynamicOffset}
	case gpu.BindingTypeStorageBuffer:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage, HasDynamicOffset: e.HasDynamicOffset}
	case gpu.BindingTypeReadOnlyStorageBuffer:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, HasDynamicOffset: e.HasDynamicOffset}
	case gpu.BindingTypeTexture:
		entry.Texture = wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: viewDimension(e.ViewDimension)}
	case gpu.BindingTypeUintTexture:
		entry.Texture = wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeUint, ViewDimension: viewDimension(e.ViewDimension)}
	case gpu.BindingTypeDepthTexture:
		entry.Texture = wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeDepth, ViewDimension: viewDimension(e.ViewDimension)}
	case gpu.BindingTypeMultisampledTexture:
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
			ViewDimension: viewDimension(e.ViewDimension),
			Multisampled:  true,
		}
	case gpu.BindingTypeStorageTexture:
		entry.StorageTexture = wgpu.StorageTextureBindingLayout{
			Access:        wgpu.StorageTextureAccessWriteOnly,
			Format:        textureFormat(e.StorageFormat),
			ViewDimension: viewDimension(e.ViewDimension),
		}
	case gpu.BindingTypeSampler:
		entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	case gpu.BindingTypeComparisonSampler:
		entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison}
	}
	return entry
}
