package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// commandEncoder records on its own goroutine. Encoders are never shared, so no locking is needed here.
type commandEncoder struct {
	label   string
	encoder *wgpu.CommandEncoder
}

var _ gpu.CommandEncoder = &commandEncoder{}

func (e *commandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPass {
	colors := make([]wgpu.RenderPassColorAttachment, len(desc.ColorAttachments))
	for i, c := range desc.ColorAttachments {
		attachment := wgpu.RenderPassColorAttachment{
			View:          nativeView(c.View),
			ResolveTarget: nativeView(c.ResolveTarget),
			LoadOp:        wgpu.LoadOpLoad,
			StoreOp:       wgpu.StoreOpDiscard,
		}
		if c.Clear != nil {
			attachment.LoadOp = wgpu.LoadOpClear
			attachment.ClearValue = wgpu.Color{R: c.Clear.R, G: c.Clear.G, B: c.Clear.B, A: c.Clear.A}
		}
		if c.Store {
			attachment.StoreOp = wgpu.StoreOpStore
		}
		colors[i] = attachment
	}

	var depth *wgpu.RenderPassDepthStencilAttachment
	if d := desc.DepthAttachment; d != nil {
		depth = &wgpu.RenderPassDepthStencilAttachment{
			View:         nativeView(d.View),
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpDiscard,
		}
		if d.Clear != nil {
			depth.DepthLoadOp = wgpu.LoadOpClear
			depth.DepthClearValue = *d.Clear
		}
		if d.Store {
			depth.DepthStoreOp = wgpu.StoreOpStore
		}
	}

	return &renderPass{pass: e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  desc.Label,
		ColorAttachments:       colors,
		DepthStencilAttachment: depth,
	})}
}

func (e *commandEncoder) BeginComputePass(label string) gpu.ComputePass {
	return &computePass{pass: e.encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})}
}

func (e *commandEncoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset uint64, size uint64) {
	e.encoder.CopyBufferToBuffer(nativeBuffer(src), srcOffset, nativeBuffer(dst), dstOffset, size)
}

func (e *commandEncoder) CopyTextureToBuffer(src gpu.TextureCopy, dst gpu.BufferCopy, width, height uint32) {
	aspect := wgpu.TextureAspectAll
	if src.Texture.Format().IsDepth() {
		aspect = wgpu.TextureAspectDepthOnly
	}
	e.encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  nativeTexture(src.Texture),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: src.X, Y: src.Y, Z: src.Layer},
			Aspect:   aspect,
		},
		&wgpu.ImageCopyBuffer{
			Layout: wgpu.TextureDataLayout{
				Offset:       dst.Offset,
				BytesPerRow:  dst.BytesPerRow,
				RowsPerImage: height,
			},
			Buffer: nativeBuffer(dst.Buffer),
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	defer e.encoder.Release()

	b, err := e.encoder.Finish(&wgpu.CommandBufferDescriptor{Label: e.label})
	if err != nil {
		return nil, fmt.Errorf("failed to finish command encoder %s: %w", e.label, err)
	}
	return &commandBuffer{label: e.label, buffer: b}, nil
}

type commandBuffer struct {
	label  string
	buffer *wgpu.CommandBuffer
}

func (b *commandBuffer) Label() string { return b.label }

type renderPass struct {
	pass *wgpu.RenderPassEncoder
}

var _ gpu.RenderPass = &renderPass{}

func (p *renderPass) SetPipeline(pipeline gpu.RenderPipeline) {
	p.pass.SetPipeline(pipeline.(*renderPipeline).pipeline)
}

func (p *renderPass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	p.pass.SetBindGroup(index, group.(*bindGroup).group, dynamicOffsets)
}

func (p *renderPass) SetVertexBuffer(slot uint32, b gpu.Buffer, offset, size uint64) {
	p.pass.SetVertexBuffer(slot, nativeBuffer(b), offset, size)
}

// SetIndexBuffer binds 32-bit indices; the render core never uses 16-bit index buffers.
func (p *renderPass) SetIndexBuffer(b gpu.Buffer, offset, size uint64) {
	p.pass.SetIndexBuffer(nativeBuffer(b), wgpu.IndexFormatUint32, offset, size)
}

func (p *renderPass) SetViewport(x, y, width, height float32) {
	p.pass.SetViewport(x, y, width, height, 0, 1)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *renderPass) End() {
	p.pass.End()
	p.pass.Release()
}

type computePass struct {
	pass *wgpu.ComputePassEncoder
}

var _ gpu.ComputePass = &computePass{}

func (p *computePass) SetPipeline(pipeline gpu.ComputePipeline) {
	p.pass.SetPipeline(pipeline.(*computePipeline).pipeline)
}

func (p *computePass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	p.pass.SetBindGroup(index, group.(*bindGroup).group, dynamicOffsets)
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *computePass) End() {
	p.pass.End()
	p.pass.Release()
}
