package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	layout gpu.BindGroupLayout
	usage  gpu.BufferUsage

	// elementSize is the byte size of one record; capacity is counted in records.
	elementSize uint64
	capacity    int
	// bindingSize limits the bound range of the buffer, used for dynamic offset uniforms. Zero binds the whole buffer.
	bindingSize uint64

	// textureBinding is the binding index of the bindless texture array, or -1.
	textureBinding int
	textureCount   uint32
	textureViews   []gpu.TextureView
	emptyTexture   gpu.TextureView

	// The following fields are GPU allocated resources, recreated when the buffer grows or the textures change.

	buffer    gpu.Buffer
	bindGroup gpu.BindGroup

	// generation increments whenever the bind group is recreated.
	generation int
}

// BindGroupProvider owns a GPU buffer sized in records together with the bind group that binds it, and optionally a
// bindless texture array in the same bind group.
//
// Usage pattern:
//  1. A drawer or pass context creates a provider with a layout and a record size
//  2. During Prepare it calls Reserve with the frame's record count, growing the buffer and rebuilding the bind group if needed
//  3. Bindless drawers call SetTextureViews with the frame's deduplicated textures
//  4. During Upload it writes the records through the staging belt
//  5. During Draw it binds BindGroup()
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the current GPU buffer. The buffer is replaced when it grows.
	//
	// Returns:
	//   - gpu.Buffer: the buffer
	Buffer() gpu.Buffer

	// BindGroup returns the bind group matching the current buffer and textures.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group
	BindGroup() gpu.BindGroup

	// Capacity returns how many records fit into the current buffer.
	//
	// Returns:
	//   - int: the capacity in records
	Capacity() int

	// Generation returns a counter incremented every time the bind group is recreated.
	//
	// Returns:
	//   - int: the generation
	Generation() int

	// Reserve makes room for count records. When the buffer is too small it is replaced by one with a power of two
	// capacity and the bind group is rebuilt.
	//
	// Parameters:
	//   - device: the device used to create the new buffer and bind group
	//   - count: the number of records needed this frame
	//
	// Returns:
	//   - bool: true if the buffer was replaced
	Reserve(device gpu.Device, count int) bool

	// SetTextureViews replaces the bindless texture array. The bind group is only rebuilt when the views differ by
	// identity from the current ones. Unused slots are padded with the empty texture.
	//
	// Parameters:
	//   - device: the device used to create the bind group
	//   - views: the textures in index order, at most the layout's array length
	//
	// Returns:
	//   - bool: true if the bind group was rebuilt
	SetTextureViews(device gpu.Device, views []gpu.TextureView) bool

	// Upload writes data at the start of the buffer through the staging belt. Empty data is ignored.
	//
	// Parameters:
	//   - belt: the frame's staging belt
	//   - encoder: the upload encoder
	//   - data: the record bytes
	Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder, data []byte)

	// Release releases the buffer and bind group held by this provider.
	Release()
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider and its initial buffer and bind group.
//
// Parameters:
//   - device: the device used to create the GPU resources
//   - label: the debug label
//   - layout: the bind group layout; binding 0 is the buffer
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(device gpu.Device, label string, layout gpu.BindGroupLayout, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:          label,
		layout:         layout,
		usage:          gpu.BufferUsageStorage | gpu.BufferUsageCopyDst,
		elementSize:    16,
		capacity:       1,
		textureBinding: -1,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.textureBinding >= 0 && p.emptyTexture == nil {
		panic(fmt.Sprintf("bind group provider %q has a texture array but no empty texture", label))
	}
	p.createBuffer(device)
	p.rebuildBindGroup(device)
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Buffer() gpu.Buffer {
	return p.buffer
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Capacity() int {
	return p.capacity
}

func (p *bindGroupProvider) Generation() int {
	return p.generation
}

func (p *bindGroupProvider) Reserve(device gpu.Device, count int) bool {
	if count <= p.capacity {
		return false
	}
	p.capacity = int(common.NextPowerOfTwo(uint(count)))
	p.buffer.Release()
	p.createBuffer(device)
	p.rebuildBindGroup(device)
	return true
}

func (p *bindGroupProvider) SetTextureViews(device gpu.Device, views []gpu.TextureView) bool {
	if p.textureBinding < 0 {
		panic(fmt.Sprintf("bind group provider %q has no texture array", p.label))
	}
	if uint32(len(views)) > p.textureCount {
		panic(fmt.Sprintf("bind group provider %q: %d textures exceed the array length %d", p.label, len(views), p.textureCount))
	}
	if p.sameTextures(views) {
		return false
	}
	p.textureViews = append(p.textureViews[:0], views...)
	p.rebuildBindGroup(device)
	return true
}

func (p *bindGroupProvider) Upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder, data []byte) {
	if len(data) == 0 {
		return
	}
	belt.Write(encoder, p.buffer, 0, data)
}

func (p *bindGroupProvider) Release() {
	if p.buffer != nil {
		p.buffer.Release()
		p.buffer = nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) sameTextures(views []gpu.TextureView) bool {
	if len(views) != len(p.textureViews) {
		return false
	}
	for i, v := range views {
		if p.textureViews[i] != v {
			return false
		}
	}
	return true
}

func (p *bindGroupProvider) createBuffer(device gpu.Device) {
	size := common.AlignUp(p.elementSize*uint64(p.capacity), staging_belt.CopyAlignment)
	buffer, err := device.CreateBuffer(gpu.BufferDescriptor{
		Label: p.label,
		Size:  size,
		Usage: p.usage,
	})
	if err != nil {
		panic(fmt.Errorf("failed to create buffer %q of %d bytes: %w", p.label, size, err))
	}
	p.buffer = buffer
}

func (p *bindGroupProvider) rebuildBindGroup(device gpu.Device) {
	entries := []gpu.BindGroupEntry{
		{Binding: 0, Buffer: p.buffer, Size: common.Coalesce(p.bindingSize, p.buffer.Size())},
	}
	if p.textureBinding >= 0 {
		views := make([]gpu.TextureView, p.textureCount)
		for i := range views {
			if i < len(p.textureViews) {
				views[i] = p.textureViews[i]
			} else {
				views[i] = p.emptyTexture
			}
		}
		entries = append(entries, gpu.BindGroupEntry{Binding: uint32(p.textureBinding), TextureViews: views})
	}

	group, err := device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		panic(fmt.Errorf("failed to create bind group %q: %w", p.label, err))
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = group
	p.generation++
}
