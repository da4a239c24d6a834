package wgpu_backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnsupported is returned for descriptors using a feature the device was not created with.
var ErrUnsupported = errors.New("unsupported by the wgpu device")

type device struct {
	mu       sync.Mutex
	device   *wgpu.Device
	shaders  shader.Library
	limits   gpu.Limits
	features gpu.Features
}

var _ gpu.Device = &device{}

func (d *device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            bufferUsage(desc.Usage),
		MappedAtCreation: desc.MappedAtCreation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", desc.Label, err)
	}
	return &buffer{label: desc.Label, size: desc.Size, buffer: b}, nil
}

func (d *device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	layers := max(desc.Layers, 1)
	mips := max(desc.MipLevelCount, 1)
	samples := max(desc.SampleCount, 1)
	t, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: mips,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(desc.Format),
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", desc.Label, err)
	}
	return &texture{
		label:       desc.Label,
		width:       desc.Width,
		height:      desc.Height,
		layers:      layers,
		mips:        mips,
		format:      desc.Format,
		sampleCount: samples,
		texture:     t,
	}, nil
}

func (d *device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  addressMode(desc.AddressMode),
		AddressModeV:  addressMode(desc.AddressMode),
		AddressModeW:  addressMode(desc.AddressMode),
		MagFilter:     filterMode(desc.Filter),
		MinFilter:     filterMode(desc.Filter),
		MipmapFilter:  mipmapFilterMode(desc.MipmapFilter),
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       compareFunction(desc.Compare),
		MaxAnisotropy: max(desc.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %s: %w", desc.Label, err)
	}
	return &sampler{label: desc.Label, sampler: s}, nil
}

func (d *device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		if e.Count > 0 {
			return nil, fmt.Errorf("bind group layout %s binding %d: texture arrays: %w", desc.Label, e.Binding, ErrUnsupported)
		}
		entries[i] = layoutEntry(e)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %s: %w", desc.Label, err)
	}
	return &bindGroupLayout{label: desc.Label, layout: l}, nil
}

func (d *device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case len(e.TextureViews) > 0:
			return nil, fmt.Errorf("bind group %s binding %d: texture arrays: %w", desc.Label, e.Binding, ErrUnsupported)
		case e.Buffer != nil:
			entry.Buffer = nativeBuffer(e.Buffer)
			entry.Offset = e.Offset
			entry.Size = e.Size
			if entry.Size == 0 {
				entry.Size = wgpu.WholeSize
			}
		case e.TextureView != nil:
			entry.TextureView = nativeView(e.TextureView)
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*sampler).sampler
		}
		entries[i] = entry
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*bindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %s: %w", desc.Label, err)
	}
	return &bindGroup{label: desc.Label, group: g}, nil
}

// shaderModule resolves a module through the shader library. The caller releases the returned module once the
// pipeline using it has been created.
func (d *device) shaderModule(name string, constants map[string]float64) (*wgpu.ShaderModule, shader.Module, error) {
	m, err := d.shaders.Module(name, constants)
	if err != nil {
		return nil, shader.Module{}, err
	}
	sm, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: m.Source,
		},
	})
	if err != nil {
		return nil, shader.Module{}, fmt.Errorf("failed to create shader module %s: %w", name, err)
	}
	return sm, m, nil
}

func (d *device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if desc.Wireframe && !d.features.PolygonModeLine {
		return nil, fmt.Errorf("render pipeline %s: wireframe: %w", desc.Label, ErrUnsupported)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	module, m, err := d.shaderModule(desc.Shader, desc.Constants)
	if err != nil {
		return nil, fmt.Errorf("render pipeline %s: %w", desc.Label, err)
	}
	defer module.Release()

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: nativeLayouts(desc.BindGroupLayouts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %s: %w", desc.Label, err)
	}
	defer layout.Release()

	var fragment *wgpu.FragmentState
	if desc.FragmentEntry != "" {
		targets := make([]wgpu.ColorTargetState, len(desc.Targets))
		for i, t := range desc.Targets {
			targets[i] = wgpu.ColorTargetState{
				Format:    textureFormat(t.Format),
				Blend:     blendState(t.Blend),
				WriteMask: wgpu.ColorWriteMaskAll,
			}
		}
		fragment = &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets:    targets,
		}
	}

	var depthStencil *wgpu.DepthStencilState
	if ds := desc.DepthStencil; ds != nil {
		depthStencil = &wgpu.DepthStencilState{
			Format:              textureFormat(ds.Format),
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        compareFunction(ds.DepthCompare),
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    vertexLayouts(m.VertexLayouts),
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(desc.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: max(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %s: %w", desc.Label, err)
	}
	return &renderPipeline{label: desc.Label, pipeline: p}, nil
}

func (d *device) CreateComputePipeline(desc gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	module, _, err := d.shaderModule(desc.Shader, desc.Constants)
	if err != nil {
		return nil, fmt.Errorf("compute pipeline %s: %w", desc.Label, err)
	}
	defer module.Release()

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: nativeLayouts(desc.BindGroupLayouts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %s: %w", desc.Label, err)
	}
	defer layout.Release()

	p, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: desc.Entry,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create compute pipeline %s: %w", desc.Label, err)
	}
	return &computePipeline{label: desc.Label, pipeline: p}, nil
}

func (d *device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %s: %w", label, err)
	}
	return &commandEncoder{label: label, encoder: enc}, nil
}

func (d *device) Poll(wait bool) {
	d.device.Poll(wait, nil)
}

func (d *device) Limits() gpu.Limits {
	return d.limits
}

func (d *device) Features() gpu.Features {
	return d.features
}

type queue struct {
	queue *wgpu.Queue
}

var _ gpu.Queue = &queue{}

func (q *queue) Submit(commands ...gpu.CommandBuffer) {
	native := make([]*wgpu.CommandBuffer, len(commands))
	for i, c := range commands {
		native[i] = c.(*commandBuffer).buffer
	}
	q.queue.Submit(native...)
	for _, c := range native {
		c.Release()
	}
}

func (q *queue) WriteBuffer(b gpu.Buffer, offset uint64, data []byte) {
	q.queue.WriteBuffer(nativeBuffer(b), offset, data)
}
