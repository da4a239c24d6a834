package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type buffer struct {
	label  string
	size   uint64
	buffer *wgpu.Buffer
}

var _ gpu.Buffer = &buffer{}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() uint64  { return b.size }

func (b *buffer) MapAsync(mode gpu.MapMode, offset, size uint64, callback func(ok bool)) {
	native := wgpu.MapModeRead
	if mode == gpu.MapModeWrite {
		native = wgpu.MapModeWrite
	}
	err := b.buffer.MapAsync(native, offset, size, func(status wgpu.BufferMapAsyncStatus) {
		callback(status == wgpu.BufferMapAsyncStatusSuccess)
	})
	if err != nil {
		callback(false)
	}
}

func (b *buffer) MappedRange(offset, size uint64) []byte {
	return b.buffer.GetMappedRange(uint(offset), uint(size))
}

func (b *buffer) Unmap() {
	b.buffer.Unmap()
}

func (b *buffer) Release() {
	b.buffer.Release()
}

type texture struct {
	label       string
	width       uint32
	height      uint32
	layers      uint32
	mips        uint32
	format      gpu.TextureFormat
	sampleCount uint32
	texture     *wgpu.Texture
}

var _ gpu.Texture = &texture{}

func (t *texture) Label() string             { return t.label }
func (t *texture) Width() uint32             { return t.width }
func (t *texture) Height() uint32            { return t.height }
func (t *texture) Format() gpu.TextureFormat { return t.format }
func (t *texture) SampleCount() uint32       { return t.sampleCount }

func (t *texture) CreateView(desc gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	layers := desc.ArrayLayers
	if layers == 0 {
		layers = 1
		if desc.Dimension != gpu.TextureDimension2D {
			layers = t.layers - desc.BaseArrayLayer
		}
	}
	aspect := wgpu.TextureAspectAll
	if t.format.IsDepth() {
		aspect = wgpu.TextureAspectDepthOnly
	}
	label := desc.Label
	if label == "" {
		label = t.label + " View"
	}

	v, err := t.texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label,
		Format:          textureFormat(t.format),
		Dimension:       viewDimension(desc.Dimension),
		BaseMipLevel:    0,
		MipLevelCount:   t.mips,
		BaseArrayLayer:  desc.BaseArrayLayer,
		ArrayLayerCount: layers,
		Aspect:          aspect,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create view of %s: %w", t.label, err)
	}
	return &textureView{label: label, view: v}, nil
}

func (t *texture) Release() {
	t.texture.Release()
}

type textureView struct {
	label string
	view  *wgpu.TextureView
}

func (v *textureView) Label() string { return v.label }

type sampler struct {
	label   string
	sampler *wgpu.Sampler
}

func (s *sampler) Label() string { return s.label }

type bindGroupLayout struct {
	label  string
	layout *wgpu.BindGroupLayout
}

func (l *bindGroupLayout) Label() string { return l.label }

type bindGroup struct {
	label string
	group *wgpu.BindGroup
}

func (g *bindGroup) Label() string { return g.label }
func (g *bindGroup) Release()      { g.group.Release() }

type renderPipeline struct {
	label    string
	pipeline *wgpu.RenderPipeline
}

func (p *renderPipeline) Label() string { return p.label }
func (p *renderPipeline) Release()      { p.pipeline.Release() }

type computePipeline struct {
	label    string
	pipeline *wgpu.ComputePipeline
}

func (p *computePipeline) Label() string { return p.label }
func (p *computePipeline) Release()      { p.pipeline.Release() }

// native unwrappers. Objects created by another backend are a programming error.

func nativeBuffer(b gpu.Buffer) *wgpu.Buffer {
	if b == nil {
		return nil
	}
	return b.(*buffer).buffer
}

func nativeTexture(t gpu.Texture) *wgpu.Texture {
	return t.(*texture).texture
}

func nativeView(v gpu.TextureView) *wgpu.TextureView {
	if v == nil {
		return nil
	}
	return v.(*textureView).view
}

func nativeLayouts(layouts []gpu.BindGroupLayout) []*wgpu.BindGroupLayout {
	out := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		out[i] = l.(*bindGroupLayout).layout
	}
	return out
}
