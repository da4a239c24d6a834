package gpu

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label            string
	Size             uint64
	Usage            BufferUsage
	MappedAtCreation bool
}

// TextureDescriptor describes a 2D (optionally layered) texture to create.
type TextureDescriptor struct {
	Label         string
	Width         uint32
	Height        uint32
	Layers        uint32
	MipLevelCount uint32
	SampleCount   uint32
	Format        TextureFormat
	Usage         TextureUsage
}

// TextureViewDescriptor selects a view of a texture. A zero value views the whole texture as 2D.
type TextureViewDescriptor struct {
	Label          string
	Dimension      TextureDimension
	BaseArrayLayer uint32
	ArrayLayers    uint32
}

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label         string
	Filter        FilterMode
	MipmapFilter  FilterMode
	AddressMode   AddressMode
	Compare       CompareFunction
	MaxAnisotropy uint16
}

// BindGroupLayoutEntry describes one binding slot of a bind group layout.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Type       BindingType
	// ViewDimension applies to texture bindings.
	ViewDimension TextureDimension
	// StorageFormat applies to storage texture bindings.
	StorageFormat TextureFormat
	// Count is the binding array length for bindless texture arrays. Zero means a single resource.
	Count uint32
	// HasDynamicOffset applies to buffer bindings.
	HasDynamicOffset bool
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds a single resource (or texture array) to a binding slot.
type BindGroupEntry struct {
	Binding      uint32
	Buffer       Buffer
	Offset       uint64
	Size         uint64
	TextureView  TextureView
	TextureViews []TextureView
	Sampler      Sampler
}

// BindGroupDescriptor describes a bind group to create.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// ColorTargetState describes one color output of a render pipeline.
type ColorTargetState struct {
	Format TextureFormat
	Blend  *BlendState
}

// DepthStencilState describes depth testing of a render pipeline.
type DepthStencilState struct {
	Format              TextureFormat
	DepthWriteEnabled   bool
	DepthCompare        CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// RenderPipelineDescriptor describes a render pipeline. Shader names a module resolved by the backend.
type RenderPipelineDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
	Shader           string
	VertexEntry      string
	FragmentEntry    string
	Targets          []ColorTargetState
	DepthStencil     *DepthStencilState
	SampleCount      uint32
	Topology         PrimitiveTopology
	CullMode         CullMode
	Wireframe        bool
	// Constants are pipeline-overridable shader constants.
	Constants map[string]float64
}

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
	Shader           string
	Entry            string
	Constants        map[string]float64
}

// ColorAttachment is a color target of a render pass. A nil Clear loads the previous contents.
type ColorAttachment struct {
	View          TextureView
	ResolveTarget TextureView
	Clear         *Color
	Store         bool
}

// DepthAttachment is the depth target of a render pass. A nil Clear loads the previous contents.
type DepthAttachment struct {
	View  TextureView
	Clear *float32
	Store bool
}

// RenderPassDescriptor describes a render pass to begin.
type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []ColorAttachment
	DepthAttachment  *DepthAttachment
}

// TextureCopy selects a texel region of a texture for copies.
type TextureCopy struct {
	Texture Texture
	X, Y    uint32
	Layer   uint32
}

// BufferCopy selects a region of a buffer for texture copies.
type BufferCopy struct {
	Buffer      Buffer
	Offset      uint64
	BytesPerRow uint32
}

// SurfaceConfiguration configures a presentation surface.
type SurfaceConfiguration struct {
	Format      TextureFormat
	Width       uint32
	Height      uint32
	PresentMode PresentMode
}

// SurfaceCapabilities lists what a surface supports with the current adapter.
type SurfaceCapabilities struct {
	Formats      []TextureFormat
	PresentModes []PresentMode
}
