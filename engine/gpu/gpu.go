package gpu

// Device creates GPU objects. Implementations must be safe for concurrent use: pass preparation and command
// recording call into the device from several goroutines at once.
type Device interface {
	// CreateBuffer creates a buffer.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// CreateTexture creates a texture.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: an error if the texture could not be created
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateSampler creates a sampler.
	CreateSampler(desc SamplerDescriptor) (Sampler, error)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup creates a bind group against a layout.
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error)

	// CreateCommandEncoder creates a command encoder. Each encoder is an independent recording context.
	//
	// Parameters:
	//   - label: debug label, also used to identify the submission
	//
	// Returns:
	//   - CommandEncoder: the created encoder
	//   - error: an error if the encoder could not be created
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Poll processes completed GPU work and fires pending map callbacks.
	//
	// Parameters:
	//   - wait: if true, blocks until all submitted work has completed
	Poll(wait bool)

	// Limits returns the adapter limits the device was created with.
	Limits() Limits

	// Features returns the optional features the device was created with.
	Features() Features
}

// Queue submits recorded command buffers.
type Queue interface {
	// Submit submits command buffers in the given order.
	Submit(commands ...CommandBuffer)

	// WriteBuffer schedules a direct write into a buffer, bypassing the staging belt.
	WriteBuffer(buffer Buffer, offset uint64, data []byte)
}

// CommandEncoder records commands into a command buffer.
type CommandEncoder interface {
	// BeginRenderPass opens a render pass. The pass must be ended before the encoder is used again.
	BeginRenderPass(desc RenderPassDescriptor) RenderPass

	// BeginComputePass opens a compute pass.
	BeginComputePass(label string) ComputePass

	// CopyBufferToBuffer records a buffer copy. Offsets and size must be multiples of 4.
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64)

	// CopyTextureToBuffer records a copy of a width x height texel region into a buffer.
	CopyTextureToBuffer(src TextureCopy, dst BufferCopy, width, height uint32)

	// Finish ends recording.
	Finish() (CommandBuffer, error)
}

// CommandBuffer is a finished, submittable recording.
type CommandBuffer interface {
	Label() string
}

// RenderPass records draw commands.
type RenderPass interface {
	SetPipeline(pipeline RenderPipeline)
	SetBindGroup(index uint32, group BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer Buffer, offset, size uint64)
	SetIndexBuffer(buffer Buffer, offset, size uint64)
	SetViewport(x, y, width, height float32)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End()
}

// ComputePass records dispatch commands.
type ComputePass interface {
	SetPipeline(pipeline ComputePipeline)
	SetBindGroup(index uint32, group BindGroup, dynamicOffsets []uint32)
	DispatchWorkgroups(x, y, z uint32)
	End()
}

// Buffer is a GPU buffer.
type Buffer interface {
	Label() string
	Size() uint64

	// MapAsync requests a mapping. The callback fires during a later Device.Poll.
	MapAsync(mode MapMode, offset, size uint64, callback func(ok bool))

	// MappedRange returns the mapped bytes. Only valid while mapped.
	MappedRange(offset, size uint64) []byte

	Unmap()
	Release()
}

// Texture is a GPU texture.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Format() TextureFormat
	SampleCount() uint32
	CreateView(desc TextureViewDescriptor) (TextureView, error)
	Release()
}

// TextureView is a typed view of a texture. Views are compared by identity.
type TextureView interface {
	Label() string
}

// Sampler is a GPU sampler.
type Sampler interface {
	Label() string
}

// BindGroupLayout is an immutable binding-set shape.
type BindGroupLayout interface {
	Label() string
}

// BindGroup is a set of bound resources.
type BindGroup interface {
	Label() string
	Release()
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Label() string
	Release()
}

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline interface {
	Label() string
	Release()
}

// Surface is a presentation surface supplied by the windowing layer.
type Surface interface {
	// Capabilities returns the formats and present modes supported with the current adapter.
	Capabilities() SurfaceCapabilities

	// Configure (re)configures the swapchain.
	Configure(config SurfaceConfiguration) error

	// AcquireTexture returns the next swapchain texture. An error means the surface is outdated or lost and must
	// be reconfigured.
	AcquireTexture() (SurfaceTexture, error)
}

// SurfaceTexture is an acquired swapchain image.
type SurfaceTexture interface {
	Texture() Texture
	View() TextureView
	// Suboptimal reports that presentation still works but the surface should be reconfigured.
	Suboptimal() bool
	Present()
}
