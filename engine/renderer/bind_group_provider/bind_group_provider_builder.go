package bind_group_provider

import "github.com/Carmen-Shannon/oxy-ro/engine/gpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithElementSize sets the byte size of one record.
//
// Parameters:
//   - size: the record size in bytes
//
// Returns:
//   - BindGroupProviderOption: a function that sets the record size for this provider
func WithElementSize(size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.elementSize = max(size, 4)
	}
}

// WithCapacity sets the initial capacity in records.
//
// Parameters:
//   - capacity: the number of records the initial buffer holds
//
// Returns:
//   - BindGroupProviderOption: a function that sets the initial capacity for this provider
func WithCapacity(capacity int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.capacity = max(capacity, 1)
	}
}

// WithUsage sets the buffer usage. Storage and copy destination is the default.
//
// Parameters:
//   - usage: the buffer usage flags
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer usage for this provider
func WithUsage(usage gpu.BufferUsage) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.usage = usage
	}
}

// WithBindingSize binds only the first size bytes of the buffer, as required for dynamic offset bindings.
//
// Parameters:
//   - size: the bound range in bytes
//
// Returns:
//   - BindGroupProviderOption: a function that sets the binding size for this provider
func WithBindingSize(size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindingSize = size
	}
}

// WithTextureArray adds a bindless texture array to the bind group.
//
// Parameters:
//   - binding: the binding index of the array
//   - count: the array length declared by the layout
//   - empty: the view used to pad unused slots
//
// Returns:
//   - BindGroupProviderOption: a function that adds the texture array to this provider
func WithTextureArray(binding int, count uint32, empty gpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureBinding = binding
		p.textureCount = count
		p.emptyTexture = empty
	}
}
