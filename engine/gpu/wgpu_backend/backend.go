// Package wgpu_backend implements the gpu interfaces on top of the native WebGPU bindings.
//
// The backend requests no optional adapter features: binding arrays of textures and wireframe pipelines are
// reported as unavailable, and the render core falls back accordingly.
package wgpu_backend

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option for configuring a Backend.
type BackendBuilderOption func(*backendConfig)

type backendConfig struct {
	forceFallbackAdapter bool
	maxBindGroups        uint32
}

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithMaxBindGroups raises the bind group limit requested from the adapter.
// Values below the WebGPU default of 4 are ignored.
//
// Parameters:
//   - n: the number of bind groups to request
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithMaxBindGroups(n uint32) BackendBuilderOption {
	return func(c *backendConfig) {
		c.maxBindGroups = max(n, 4)
	}
}

// Backend owns the WebGPU instance, adapter and device for one window surface.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *device
	queue    *queue
	surface  *surface
}

// New creates the WebGPU objects for the given surface descriptor.
// The calling goroutine is locked to its OS thread; it must be the thread that owns the window.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the window
//   - shaders: the library pipelines resolve their shader modules from
//   - opts: functional options
//
// Returns:
//   - *Backend: the backend
//   - error: error if no adapter or device could be obtained
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, shaders shader.Library, opts ...BackendBuilderOption) (*Backend, error) {
	runtime.LockOSThread()

	cfg := backendConfig{maxBindGroups: 8}
	for _, opt := range opts {
		opt(&cfg)
	}

	instance := wgpu.CreateInstance(nil)
	s := instance.CreateSurface(surfaceDescriptor)

	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    s,
	})
	if err != nil {
		s.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}

	supported := a.GetLimits().Limits
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = min(cfg.maxBindGroups, supported.MaxBindGroups)

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		a.Release()
		s.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}

	dev := &device{
		device:  d,
		shaders: shaders,
		limits: gpu.Limits{
			MaxTextureDimension2D:            limits.MaxTextureDimension2D,
			MaxBindGroups:                    limits.MaxBindGroups,
			MaxStorageBufferBindingSize:      limits.MaxStorageBufferBindingSize,
			MaxSampledTexturesPerShaderStage: limits.MaxSampledTexturesPerShaderStage,
		},
	}
	common.LogInfo("wgpu device ready: max texture %d, bind groups %d, storage binding %d bytes",
		dev.limits.MaxTextureDimension2D, dev.limits.MaxBindGroups, dev.limits.MaxStorageBufferBindingSize)

	return &Backend{
		instance: instance,
		adapter:  a,
		device:   dev,
		queue:    &queue{queue: d.GetQueue()},
		surface:  &surface{surface: s, adapter: a, device: dev},
	}, nil
}

// Device returns the render device.
func (b *Backend) Device() gpu.Device { return b.device }

// Queue returns the device queue.
func (b *Backend) Queue() gpu.Queue { return b.queue }

// Surface returns the window surface.
func (b *Backend) Surface() gpu.Surface { return b.surface }

// Release frees every native object in reverse creation order.
func (b *Backend) Release() {
	b.queue.queue.Release()
	b.device.device.Release()
	b.adapter.Release()
	b.surface.surface.Release()
	b.instance.Release()
}
