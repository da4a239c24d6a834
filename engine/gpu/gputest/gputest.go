// Package gputest provides an in-memory recording implementation of the gpu interfaces for tests. Every object
// gets a unique id so tests can compare object identities across rebuilds, every recorded command is kept on its
// command buffer, and buffer-to-buffer copies are replayed into buffer memory on submit.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

// Command is one recorded command.
type Command struct {
	// Op is the command name, e.g. "draw", "dispatch", "set_pipeline", "begin_render_pass".
	Op string
	// Target is the label of the pipeline, bind group, buffer or pass the command refers to.
	Target string
	// Args holds numeric arguments (counts, offsets, indices).
	Args []uint64

	src, dst *Buffer
	tex      *Texture
}

// Handle is the identity shared by all fake objects.
type Handle struct {
	ID    uint64
	label string
}

// Label implements the gpu handle interfaces.
func (h *Handle) Label() string { return h.label }

// Device is a recording fake of gpu.Device.
type Device struct {
	mu     sync.Mutex
	nextID uint64

	limits   gpu.Limits
	features gpu.Features

	pendingMaps []func()

	// Created counts every creation call by kind ("buffer", "render_pipeline", ...).
	Created map[string]int
	// RenderPipelines holds every created render pipeline by label, latest last.
	RenderPipelines map[string][]*RenderPipeline
	// ComputePipelines holds every created compute pipeline by label, latest last.
	ComputePipelines map[string][]*ComputePipeline
	// Polls counts Poll calls.
	Polls int
	// Events is the ordered log of device-level calls ("poll", "encoder:<label>").
	Events []string
}

var _ gpu.Device = &Device{}

// NewDevice creates a fake device with generous limits.
func NewDevice() *Device {
	return &Device{
		limits: gpu.Limits{
			MaxTextureDimension2D:            8192,
			MaxBindGroups:                    8,
			MaxStorageBufferBindingSize:      128 << 20,
			MaxSampledTexturesPerShaderStage: 1024,
		},
		features:         gpu.Features{Bindless: true, PolygonModeLine: true},
		Created:          make(map[string]int),
		RenderPipelines:  make(map[string][]*RenderPipeline),
		ComputePipelines: make(map[string][]*ComputePipeline),
	}
}

// SetLimits replaces the reported limits.
func (d *Device) SetLimits(l gpu.Limits) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limits = l
}

// SetFeatures replaces the reported features.
func (d *Device) SetFeatures(f gpu.Features) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.features = f
}

func (d *Device) handle(kind, label string) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.Created[kind]++
	return Handle{ID: d.nextID, label: label}
}

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if desc.Size == 0 {
		return nil, errors.New("gputest: zero sized buffer")
	}
	b := &Buffer{Handle: d.handle("buffer", desc.Label), device: d, Usage: desc.Usage, Data: make([]byte, desc.Size)}
	b.Mapped = desc.MappedAtCreation
	return b, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("gputest: texture %q has zero extent", desc.Label)
	}
	if desc.Width > d.Limits().MaxTextureDimension2D || desc.Height > d.Limits().MaxTextureDimension2D {
		return nil, fmt.Errorf("gputest: texture %q exceeds max dimension", desc.Label)
	}
	return &Texture{Handle: d.handle("texture", desc.Label), device: d, Desc: desc}, nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	h := d.handle("sampler", desc.Label)
	return &h, nil
}

func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	return &BindGroupLayout{Handle: d.handle("bind_group_layout", desc.Label), Desc: desc}, nil
}

func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if desc.Layout == nil {
		return nil, fmt.Errorf("gputest: bind group %q without layout", desc.Label)
	}
	return &BindGroup{Handle: d.handle("bind_group", desc.Label), Desc: desc}, nil
}

func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	p := &RenderPipeline{Handle: d.handle("render_pipeline", desc.Label), Desc: desc}
	d.mu.Lock()
	d.RenderPipelines[desc.Label] = append(d.RenderPipelines[desc.Label], p)
	d.mu.Unlock()
	return p, nil
}

func (d *Device) CreateComputePipeline(desc gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	p := &ComputePipeline{Handle: d.handle("compute_pipeline", desc.Label), Desc: desc}
	d.mu.Lock()
	d.ComputePipelines[desc.Label] = append(d.ComputePipelines[desc.Label], p)
	d.mu.Unlock()
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	h := d.handle("command_encoder", label)
	d.mu.Lock()
	d.Events = append(d.Events, "encoder:"+label)
	d.mu.Unlock()
	return &CommandEncoder{Handle: h}, nil
}

// Poll runs every pending map callback. Work is always complete in the fake, so wait is ignored.
func (d *Device) Poll(wait bool) {
	d.mu.Lock()
	pending := d.pendingMaps
	d.pendingMaps = nil
	d.Polls++
	d.Events = append(d.Events, "poll")
	d.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (d *Device) Limits() gpu.Limits {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.limits
}

func (d *Device) Features() gpu.Features {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.features
}

// PipelineCount returns how many render and compute pipelines were created with the given label.
func (d *Device) PipelineCount(label string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.RenderPipelines[label]) + len(d.ComputePipelines[label])
}

func (d *Device) queueMap(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingMaps = append(d.pendingMaps, fn)
}

// Buffer is a fake buffer backed by host memory.
type Buffer struct {
	Handle
	device *Device

	mu     sync.Mutex
	Usage  gpu.BufferUsage
	Data   []byte
	Mapped bool
	// MapRequests counts MapAsync calls.
	MapRequests int
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

func (b *Buffer) MapAsync(mode gpu.MapMode, offset, size uint64, callback func(ok bool)) {
	b.mu.Lock()
	b.MapRequests++
	b.mu.Unlock()
	b.device.queueMap(func() {
		b.mu.Lock()
		ok := !b.Mapped && offset+size <= uint64(len(b.Data))
		if ok {
			b.Mapped = true
		}
		b.mu.Unlock()
		callback(ok)
	})
}

func (b *Buffer) MappedRange(offset, size uint64) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.Mapped {
		panic(fmt.Sprintf("gputest: buffer %q is not mapped", b.label))
	}
	return b.Data[offset : offset+size]
}

func (b *Buffer) Unmap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Mapped = false
}

func (b *Buffer) Release() {}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.Data...)
}

// Texture is a fake texture. Contents is copied verbatim by CopyTextureToBuffer.
type Texture struct {
	Handle
	device   *Device
	Desc     gpu.TextureDescriptor
	Contents []byte
}

func (t *Texture) Width() uint32             { return t.Desc.Width }
func (t *Texture) Height() uint32            { return t.Desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.Desc.Format }
func (t *Texture) SampleCount() uint32       { return max(t.Desc.SampleCount, 1) }
func (t *Texture) Release()                  {}

func (t *Texture) CreateView(desc gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	label := desc.Label
	if label == "" {
		label = t.label + " View"
	}
	return &TextureView{Handle: t.device.handle("texture_view", label), Texture: t}, nil
}

// TextureView is a fake texture view.
type TextureView struct {
	Handle
	Texture *Texture
}

// BindGroupLayout is a fake bind group layout.
type BindGroupLayout struct {
	Handle
	Desc gpu.BindGroupLayoutDescriptor
}

// BindGroup is a fake bind group. Released is set once Release is called.
type BindGroup struct {
	Handle
	Desc     gpu.BindGroupDescriptor
	Released bool
}

func (g *BindGroup) Release() { g.Released = true }

// RenderPipeline is a fake render pipeline.
type RenderPipeline struct {
	Handle
	Desc     gpu.RenderPipelineDescriptor
	Released bool
}

func (p *RenderPipeline) Release() { p.Released = true }

// ComputePipeline is a fake compute pipeline.
type ComputePipeline struct {
	Handle
	Desc     gpu.ComputePipelineDescriptor
	Released bool
}

func (p *ComputePipeline) Release() { p.Released = true }

// CommandEncoder records commands. Passes append to the same log.
type CommandEncoder struct {
	Handle
	mu       sync.Mutex
	commands []Command
	open     bool
}

func (e *CommandEncoder) record(c Command) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = append(e.commands, c)
}

func (e *CommandEncoder) begin(op, label string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		panic(fmt.Sprintf("gputest: encoder %q already has an open pass", e.label))
	}
	e.open = true
	e.commands = append(e.commands, Command{Op: op, Target: label})
}

func (e *CommandEncoder) end(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.commands = append(e.commands, Command{Op: op})
}

func (e *CommandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPass {
	e.begin("begin_render_pass", desc.Label)
	return &RenderPass{encoder: e}
}

func (e *CommandEncoder) BeginComputePass(label string) gpu.ComputePass {
	e.begin("begin_compute_pass", label)
	return &ComputePass{encoder: e}
}

func (e *CommandEncoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset uint64, size uint64) {
	if srcOffset%4 != 0 || dstOffset%4 != 0 || size%4 != 0 {
		panic("gputest: unaligned buffer copy")
	}
	e.record(Command{
		Op:     "copy_buffer",
		Target: dst.Label(),
		Args:   []uint64{srcOffset, dstOffset, size},
		src:    src.(*Buffer),
		dst:    dst.(*Buffer),
	})
}

func (e *CommandEncoder) CopyTextureToBuffer(src gpu.TextureCopy, dst gpu.BufferCopy, width, height uint32) {
	e.record(Command{
		Op:     "copy_texture",
		Target: dst.Buffer.Label(),
		Args:   []uint64{uint64(src.X), uint64(src.Y), dst.Offset},
		dst:    dst.Buffer.(*Buffer),
		tex:    src.Texture.(*Texture),
	})
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		return nil, fmt.Errorf("gputest: encoder %q finished with an open pass", e.label)
	}
	return &CommandBuffer{label: e.label, Commands: append([]Command(nil), e.commands...)}, nil
}

// RenderPass is a fake render pass.
type RenderPass struct {
	encoder *CommandEncoder
}

func (p *RenderPass) SetPipeline(pipeline gpu.RenderPipeline) {
	p.encoder.record(Command{Op: "set_pipeline", Target: pipeline.Label()})
}

func (p *RenderPass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	p.encoder.record(bindGroupCommand(index, group, dynamicOffsets))
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buffer gpu.Buffer, offset, size uint64) {
	p.encoder.record(Command{Op: "set_vertex_buffer", Target: buffer.Label(), Args: []uint64{uint64(slot)}})
}

func (p *RenderPass) SetIndexBuffer(buffer gpu.Buffer, offset, size uint64) {
	p.encoder.record(Command{Op: "set_index_buffer", Target: buffer.Label()})
}

func (p *RenderPass) SetViewport(x, y, width, height float32) {
	p.encoder.record(Command{Op: "set_viewport", Args: []uint64{uint64(width), uint64(height)}})
}

func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.encoder.record(Command{Op: "draw", Args: []uint64{uint64(vertexCount), uint64(instanceCount), uint64(firstVertex), uint64(firstInstance)}})
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.encoder.record(Command{Op: "draw_indexed", Args: []uint64{uint64(indexCount), uint64(instanceCount), uint64(firstIndex), uint64(firstInstance)}})
}

func (p *RenderPass) End() { p.encoder.end("end_render_pass") }

// ComputePass is a fake compute pass.
type ComputePass struct {
	encoder *CommandEncoder
}

func (p *ComputePass) SetPipeline(pipeline gpu.ComputePipeline) {
	p.encoder.record(Command{Op: "set_pipeline", Target: pipeline.Label()})
}

func (p *ComputePass) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	p.encoder.record(bindGroupCommand(index, group, dynamicOffsets))
}

func (p *ComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.encoder.record(Command{Op: "dispatch", Args: []uint64{uint64(x), uint64(y), uint64(z)}})
}

func (p *ComputePass) End() { p.encoder.end("end_compute_pass") }

// bindGroupCommand records the group index followed by the dynamic offsets.
func bindGroupCommand(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) Command {
	args := []uint64{uint64(index)}
	for _, o := range dynamicOffsets {
		args = append(args, uint64(o))
	}
	return Command{Op: "set_bind_group", Target: group.Label(), Args: args}
}

// CommandBuffer is a finished fake recording.
type CommandBuffer struct {
	label    string
	Commands []Command
}

func (c *CommandBuffer) Label() string { return c.label }

// Count returns how many commands with the given op were recorded.
func (c *CommandBuffer) Count(op string) int {
	n := 0
	for _, cmd := range c.Commands {
		if cmd.Op == op {
			n++
		}
	}
	return n
}

// Queue is a fake queue that records submissions and replays copies.
type Queue struct {
	mu        sync.Mutex
	Submitted []*CommandBuffer
	Writes    int
}

var _ gpu.Queue = &Queue{}

// NewQueue creates a fake queue.
func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Submit(commands ...gpu.CommandBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range commands {
		cb := c.(*CommandBuffer)
		for _, cmd := range cb.Commands {
			switch cmd.Op {
			case "copy_buffer":
				src, dst := cmd.Args[0], cmd.Args[1]
				size := cmd.Args[2]
				copy(cmd.dst.Data[dst:dst+size], cmd.src.Data[src:src+size])
			case "copy_texture":
				copy(cmd.dst.Data[cmd.Args[2]:], cmd.tex.Contents)
			}
		}
		q.Submitted = append(q.Submitted, cb)
	}
}

func (q *Queue) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Writes++
	b := buffer.(*Buffer)
	copy(b.Data[offset:], data)
}

// Labels returns the labels of all submitted command buffers in submission order.
func (q *Queue) Labels() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	labels := make([]string, len(q.Submitted))
	for i, c := range q.Submitted {
		labels[i] = c.label
	}
	return labels
}

// Last returns the most recently submitted command buffer with the given label, or nil.
func (q *Queue) Last(label string) *CommandBuffer {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.Submitted) - 1; i >= 0; i-- {
		if q.Submitted[i].label == label {
			return q.Submitted[i]
		}
	}
	return nil
}

// Reset forgets all submissions.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Submitted = nil
}
