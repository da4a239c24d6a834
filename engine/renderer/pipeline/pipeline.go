package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

func (t PipelineType) String() string {
	switch t {
	case PipelineTypeCompute:
		return "compute"
	case PipelineTypeRender:
		return "render"
	default:
		return fmt.Sprintf("PipelineType(%d)", int(t))
	}
}

// pipeline is the implementation of the Pipeline interface.
// It holds the created GPU pipeline object together with the configuration it was created from, so the pipeline can
// be recreated with a single property changed (sample count, target format, wireframe).
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, also used as the GPU debug label
	pipelineKey string

	// shader names the shader module; the backend resolves it to WGSL source.
	shader string
	// entry points, compute pipelines only use computeEntry
	vertexEntry, fragmentEntry, computeEntry string

	bindGroupLayouts []gpu.BindGroupLayout
	constants        map[string]float64

	// renderPipeline is the render pipeline if this is a render pipeline, nil otherwise
	renderPipeline gpu.RenderPipeline
	// computePipeline is the compute pipeline if this is a compute pipeline, nil otherwise
	computePipeline gpu.ComputePipeline

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.
	// These are only used for render pipelines, compute pipelines still set defaults but do not utilize them.

	colorFormats        []gpu.TextureFormat
	depthFormat         gpu.TextureFormat
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        gpu.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	blendState          gpu.BlendState
	cullMode            gpu.CullMode
	topology            gpu.PrimitiveTopology
	sampleCount         uint32
	wireframe           bool
}

// Pipeline defines the interface for a created GPU pipeline, encapsulating either a render pipeline
// (vertex + fragment entry points) or a compute pipeline (compute entry point). It keeps the configuration the
// pipeline was created from so dependents can recreate it when a render target property changes.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used as its debug label.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// RenderPipeline returns the created render pipeline, or nil for compute pipelines.
	//
	// Returns:
	//   - gpu.RenderPipeline: the render pipeline or nil
	RenderPipeline() gpu.RenderPipeline

	// ComputePipeline returns the created compute pipeline, or nil for render pipelines.
	//
	// Returns:
	//   - gpu.ComputePipeline: the compute pipeline or nil
	ComputePipeline() gpu.ComputePipeline

	// SampleCount returns the render target sample count this pipeline was created for.
	//
	// Returns:
	//   - uint32: the sample count, 1 for compute pipelines unless set through a constant
	SampleCount() uint32

	// Wireframe reports whether the pipeline rasterizes lines instead of filled triangles.
	Wireframe() bool

	// RenderDescriptor returns the descriptor a render pipeline was created from.
	//
	// Returns:
	//   - gpu.RenderPipelineDescriptor: the descriptor
	RenderDescriptor() gpu.RenderPipelineDescriptor

	// ComputeDescriptor returns the descriptor a compute pipeline was created from.
	//
	// Returns:
	//   - gpu.ComputePipelineDescriptor: the descriptor
	ComputeDescriptor() gpu.ComputePipelineDescriptor

	// Recreate creates a new pipeline with this pipeline's configuration and the given options applied on top.
	// The receiver's configuration is left untouched but its GPU pipeline is released and must not be bound again.
	//
	// Parameters:
	//   - device: the device to create the pipeline on
	//   - opts: options overriding the current configuration
	//
	// Returns:
	//   - Pipeline: the newly created pipeline
	Recreate(device gpu.Device, opts ...PipelineBuilderOption) Pipeline
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. The GPU pipeline object is created immediately; a device
// error is a programming error in the descriptor and panics.
//
// Parameters:
//   - device: the device to create the pipeline on
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(device gpu.Device, pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		vertexEntry:       "vs_main",
		fragmentEntry:     "fs_main",
		computeEntry:      "cs_main",
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthFormat:       gpu.TextureFormatDepth32Float,
		depthCompare:      gpu.CompareFunctionLess,
		blendEnabled:      false,
		blendState:        gpu.BlendState{Src: gpu.BlendFactorSrcAlpha, Dst: gpu.BlendFactorOneMinusSrcAlpha},
		cullMode:          gpu.CullModeNone,
		topology:          gpu.PrimitiveTopologyTriangleList,
		sampleCount:       1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.create(device)
	return p
}

func (p *pipeline) create(device gpu.Device) {
	if p.shader == "" {
		panic(fmt.Sprintf("pipeline %q has no shader", p.pipelineKey))
	}

	switch p.pipelineType {
	case PipelineTypeRender:
		rp, err := device.CreateRenderPipeline(p.RenderDescriptor())
		if err != nil {
			panic(fmt.Errorf("failed to create render pipeline %q: %w", p.pipelineKey, err))
		}
		p.renderPipeline = rp
	case PipelineTypeCompute:
		cp, err := device.CreateComputePipeline(p.ComputeDescriptor())
		if err != nil {
			panic(fmt.Errorf("failed to create compute pipeline %q: %w", p.pipelineKey, err))
		}
		p.computePipeline = cp
	default:
		panic(fmt.Sprintf("pipeline %q has unknown type %s", p.pipelineKey, p.pipelineType))
	}
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) RenderPipeline() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() gpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) Wireframe() bool {
	return p.wireframe
}

func (p *pipeline) RenderDescriptor() gpu.RenderPipelineDescriptor {
	desc := gpu.RenderPipelineDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.bindGroupLayouts,
		Shader:           p.shader,
		VertexEntry:      p.vertexEntry,
		FragmentEntry:    p.fragmentEntry,
		SampleCount:      p.sampleCount,
		Topology:         p.topology,
		CullMode:         p.cullMode,
		Wireframe:        p.wireframe,
		Constants:        p.constants,
	}
	for _, format := range p.colorFormats {
		target := gpu.ColorTargetState{Format: format}
		if p.blendEnabled {
			blend := p.blendState
			target.Blend = &blend
		}
		desc.Targets = append(desc.Targets, target)
	}
	if p.depthTestEnabled {
		desc.DepthStencil = &gpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        p.depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
		}
	}
	return desc
}

func (p *pipeline) ComputeDescriptor() gpu.ComputePipelineDescriptor {
	return gpu.ComputePipelineDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.bindGroupLayouts,
		Shader:           p.shader,
		Entry:            p.computeEntry,
		Constants:        p.constants,
	}
}

func (p *pipeline) Recreate(device gpu.Device, opts ...PipelineBuilderOption) Pipeline {
	next := *p
	next.renderPipeline = nil
	next.computePipeline = nil
	next.bindGroupLayouts = slices.Clone(p.bindGroupLayouts)
	next.colorFormats = slices.Clone(p.colorFormats)
	next.constants = maps.Clone(p.constants)
	for _, opt := range opts {
		opt(&next)
	}
	next.create(device)
	p.release()
	return &next
}

func (p *pipeline) release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
	}
}
