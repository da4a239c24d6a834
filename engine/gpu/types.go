// Package gpu declares the GPU capability boundary used by the render core. The host layer supplies concrete
// implementations (see wgpu_backend) and the render core only ever talks to these interfaces, which keeps the
// orchestration logic independent of the native binding.
package gpu

// TextureFormat identifies the texel layout of a texture or render attachment.
type TextureFormat int

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
	TextureFormatRGBA16Float
	TextureFormatRGB10A2Unorm
	TextureFormatRG32Uint
	TextureFormatR32Float
	TextureFormatR32Uint
	TextureFormatDepth32Float
	TextureFormatDepth24Plus
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float || f == TextureFormatDepth24Plus
}

// IsHDR reports whether the format stores more than 8 bits per channel.
func (f TextureFormat) IsHDR() bool {
	return f == TextureFormatRGBA16Float || f == TextureFormatRGB10A2Unorm
}

// BytesPerTexel returns the size in bytes of a single texel, or 0 for depth formats that cannot be copied.
func (f TextureFormat) BytesPerTexel() uint32 {
	switch f {
	case TextureFormatRGBA16Float, TextureFormatRG32Uint:
		return 8
	case TextureFormatDepth24Plus:
		return 0
	default:
		return 4
	}
}

// BufferUsage is a bit set describing how a buffer may be used.
type BufferUsage uint32

const (
	BufferUsageMapRead BufferUsage = 1 << iota
	BufferUsageMapWrite
	BufferUsageCopySrc
	BufferUsageCopyDst
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageIndirect
)

// TextureUsage is a bit set describing how a texture may be used.
type TextureUsage uint32

const (
	TextureUsageCopySrc TextureUsage = 1 << iota
	TextureUsageCopyDst
	TextureUsageTextureBinding
	TextureUsageStorageBinding
	TextureUsageRenderAttachment
)

// TextureDimension is the dimensionality of a texture view.
type TextureDimension int

const (
	TextureDimension2D TextureDimension = iota
	TextureDimension2DArray
	TextureDimensionCube
	TextureDimensionCubeArray
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeFifo waits for vertical blank. Always supported.
	PresentModeFifo PresentMode = iota
	// PresentModeMailbox replaces the queued frame, giving triple-buffered behaviour without tearing.
	PresentModeMailbox
	// PresentModeImmediate presents without waiting and may tear.
	PresentModeImmediate
)

// MapMode selects read or write access when mapping a buffer.
type MapMode int

const (
	MapModeRead MapMode = iota
	MapModeWrite
)

// ShaderStage is a bit set of pipeline stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute
)

// BindingType describes the resource kind of a bind group layout entry.
type BindingType int

const (
	BindingTypeUniformBuffer BindingType = iota
	BindingTypeStorageBuffer
	BindingTypeReadOnlyStorageBuffer
	BindingTypeTexture
	BindingTypeUintTexture
	BindingTypeDepthTexture
	BindingTypeMultisampledTexture
	BindingTypeStorageTexture
	BindingTypeSampler
	BindingTypeComparisonSampler
)

// FilterMode selects texel filtering for a sampler.
type FilterMode int

const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

// AddressMode selects texture addressing outside of [0, 1].
type AddressMode int

const (
	AddressModeClampToEdge AddressMode = iota
	AddressModeRepeat
)

// CompareFunction is used by depth tests and comparison samplers.
type CompareFunction int

const (
	CompareFunctionUndefined CompareFunction = iota
	CompareFunctionLess
	CompareFunctionLessEqual
	CompareFunctionGreater
	CompareFunctionAlways
)

// CullMode selects which primitive faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// PrimitiveTopology selects how vertices are assembled.
type PrimitiveTopology int

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyTriangleStrip
	PrimitiveTopologyLineList
)

// BlendFactor is one side of a blend equation.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDst
	BlendFactorOneMinusSrc
)

// BlendState describes color blending of a render target. Alpha uses the same factors.
type BlendState struct {
	Src BlendFactor
	Dst BlendFactor
}

// Color is an RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// Limits is the subset of adapter limits the render core inspects.
type Limits struct {
	MaxTextureDimension2D            uint32
	MaxBindGroups                    uint32
	MaxStorageBufferBindingSize      uint64
	MaxSampledTexturesPerShaderStage uint32
}

// Features is the subset of optional adapter features the render core inspects.
type Features struct {
	// Bindless reports support for binding arrays of textures.
	Bindless bool
	// PolygonModeLine reports support for wireframe rendering.
	PolygonModeLine bool
}
