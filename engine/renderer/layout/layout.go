// Package layout owns the process-wide bind group layouts.
//
// Bind group layouts are immutable descriptors, so every layout is created at most once per LayoutCache and shared by
// all pass contexts and drawers that need it. The engine creates one cache for the lifetime of its device; contexts
// rebuilt after a surface format change reuse the same layouts.
package layout

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

// ID names a bind group layout.
type ID int

const (
	// Global is bind group 0 of every pass: frame uniforms and shared samplers.
	Global ID = iota
	DirectionalShadowPass
	PointShadowPass
	LightCullingPass
	ForwardPass
	PostProcessingPass
	// PostProcessingPassMultisampled binds the forward color as a multisampled texture.
	PostProcessingPassMultisampled
	CMAA2Pass
	SDSMPass
	SelectorPass
	// ScreenBlitPass binds the final color and the interface color.
	ScreenBlitPass
	// DebugBuffers binds every intermediate attachment that can be shown instead of the final image.
	DebugBuffers

	// Instances is a read-only storage buffer of per-instance records.
	Instances
	// BindlessInstances adds a texture binding array to Instances.
	BindlessInstances
	// Texture is a single sampled texture, re-bound per draw on the non-bindless path.
	Texture
	// Uniform is a single uniform buffer.
	Uniform

	idCount
)

var idNames = [idCount]string{
	"Global", "Directional Shadow Pass", "Point Shadow Pass", "Light Culling Pass", "Forward Pass",
	"Post Processing Pass", "Post Processing Pass Multisampled", "CMAA2 Pass", "SDSM Pass", "Selector Pass",
	"Screen Blit Pass", "Debug Buffers",
	"Instances", "Bindless Instances", "Texture", "Uniform",
}

func (id ID) String() string {
	if id < 0 || id >= idCount {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return idNames[id]
}

// MaxBindlessTextures caps the length of bindless texture arrays.
const MaxBindlessTextures = 1024

type entry struct {
	once   sync.Once
	layout gpu.BindGroupLayout
}

// LayoutCache lazily creates each layout once and hands out the same object afterwards. Safe for concurrent use.
type LayoutCache struct {
	device        gpu.Device
	bindlessCount uint32
	entries       [idCount]entry
}

// NewLayoutCache creates an empty cache for a device.
//
// Parameters:
//   - device: the device layouts are created on
//
// Returns:
//   - *LayoutCache: the cache
func NewLayoutCache(device gpu.Device) *LayoutCache {
	return &LayoutCache{
		device:        device,
		bindlessCount: min(device.Limits().MaxSampledTexturesPerShaderStage, MaxBindlessTextures),
	}
}

// Get returns the layout for id, creating it on first use. Panics if the device rejects the descriptor.
//
// Parameters:
//   - id: the layout to fetch
//
// Returns:
//   - gpu.BindGroupLayout: the shared layout
func (c *LayoutCache) Get(id ID) gpu.BindGroupLayout {
	e := &c.entries[id]
	e.once.Do(func() {
		l, err := c.device.CreateBindGroupLayout(Descriptor(id, c.bindlessCount))
		if err != nil {
			panic(fmt.Errorf("failed to create %s bind group layout: %w", id, err))
		}
		e.layout = l
	})
	return e.layout
}

// BindlessCount returns the texture array length of BindlessInstances.
func (c *LayoutCache) BindlessCount() uint32 {
	return c.bindlessCount
}

// Descriptor returns the descriptor of a layout.
//
// Parameters:
//   - id: the layout
//   - bindlessCount: the texture array length used by BindlessInstances
//
// Returns:
//   - gpu.BindGroupLayoutDescriptor: the descriptor
func Descriptor(id ID, bindlessCount uint32) gpu.BindGroupLayoutDescriptor {
	const (
		vf  = gpu.ShaderStageVertex | gpu.ShaderStageFragment
		all = gpu.ShaderStageVertex | gpu.ShaderStageFragment | gpu.ShaderStageCompute
		fs  = gpu.ShaderStageFragment
		cs  = gpu.ShaderStageCompute
	)

	var entries []gpu.BindGroupLayoutEntry
	switch id {
	case Global:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: all, Type: gpu.BindingTypeUniformBuffer},
			{Binding: 1, Visibility: all, Type: gpu.BindingTypeSampler},
			{Binding: 2, Visibility: all, Type: gpu.BindingTypeSampler},
			{Binding: 3, Visibility: all, Type: gpu.BindingTypeSampler},
			{Binding: 4, Visibility: fs, Type: gpu.BindingTypeComparisonSampler},
		}
	case DirectionalShadowPass, PointShadowPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vf, Type: gpu.BindingTypeUniformBuffer, HasDynamicOffset: true},
		}
	case LightCullingPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: cs, Type: gpu.BindingTypeReadOnlyStorageBuffer},
			{Binding: 1, Visibility: cs, Type: gpu.BindingTypeStorageBuffer},
		}
	case ForwardPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: fs, Type: gpu.BindingTypeDepthTexture, ViewDimension: gpu.TextureDimension2DArray},
			{Binding: 1, Visibility: fs, Type: gpu.BindingTypeDepthTexture, ViewDimension: gpu.TextureDimensionCubeArray},
			{Binding: 2, Visibility: fs, Type: gpu.BindingTypeReadOnlyStorageBuffer},
			{Binding: 3, Visibility: fs, Type: gpu.BindingTypeReadOnlyStorageBuffer},
			{Binding: 4, Visibility: fs, Type: gpu.BindingTypeUniformBuffer},
			{Binding: 5, Visibility: fs, Type: gpu.BindingTypeReadOnlyStorageBuffer},
		}
	case PostProcessingPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: fs, Type: gpu.BindingTypeTexture},
		}
	case PostProcessingPassMultisampled:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: fs, Type: gpu.BindingTypeMultisampledTexture},
		}
	case CMAA2Pass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: cs, Type: gpu.BindingTypeStorageTexture, StorageFormat: gpu.TextureFormatRGBA8Unorm},
			{Binding: 1, Visibility: cs, Type: gpu.BindingTypeStorageTexture, StorageFormat: gpu.TextureFormatR32Uint},
			{Binding: 2, Visibility: cs, Type: gpu.BindingTypeStorageBuffer},
			{Binding: 3, Visibility: cs, Type: gpu.BindingTypeStorageBuffer},
			{Binding: 4, Visibility: cs, Type: gpu.BindingTypeStorageBuffer},
		}
	case SDSMPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: cs, Type: gpu.BindingTypeDepthTexture},
			{Binding: 1, Visibility: cs, Type: gpu.BindingTypeStorageBuffer},
		}
	case SelectorPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: cs, Type: gpu.BindingTypeUintTexture},
			{Binding: 1, Visibility: cs, Type: gpu.BindingTypeStorageBuffer},
		}
	case ScreenBlitPass:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: fs, Type: gpu.BindingTypeTexture},
			{Binding: 1, Visibility: fs, Type: gpu.BindingTypeTexture},
		}
	case DebugBuffers:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: fs, Type: gpu.BindingTypeUintTexture},
			{Binding: 1, Visibility: fs, Type: gpu.BindingTypeDepthTexture, ViewDimension: gpu.TextureDimension2DArray},
			{Binding: 2, Visibility: fs, Type: gpu.BindingTypeDepthTexture, ViewDimension: gpu.TextureDimensionCubeArray},
			{Binding: 3, Visibility: fs, Type: gpu.BindingTypeReadOnlyStorageBuffer},
			{Binding: 4, Visibility: fs, Type: gpu.BindingTypeReadOnlyStorageBuffer},
		}
	case Instances:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vf, Type: gpu.BindingTypeReadOnlyStorageBuffer},
		}
	case BindlessInstances:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vf, Type: gpu.BindingTypeReadOnlyStorageBuffer},
			{Binding: 1, Visibility: fs, Type: gpu.BindingTypeTexture, Count: bindlessCount},
		}
	case Texture:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: fs, Type: gpu.BindingTypeTexture},
		}
	case Uniform:
		entries = []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: all, Type: gpu.BindingTypeUniformBuffer},
		}
	default:
		panic(fmt.Sprintf("unknown bind group layout %d", int(id)))
	}
	return gpu.BindGroupLayoutDescriptor{Label: id.String(), Entries: entries}
}
