package pipeline

import "github.com/Carmen-Shannon/oxy-ro/engine/gpu"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithShader sets the shader module for this pipeline.
//
// Parameters:
//   - name: the name of the shader module, resolved by the GPU backend
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader for this pipeline
func WithShader(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shader = name
	}
}

// WithEntryPoints sets the vertex and fragment entry points of a render pipeline.
//
// Parameters:
//   - vertex: the vertex entry point
//   - fragment: the fragment entry point
//
// Returns:
//   - PipelineBuilderOption: a function that sets the entry points for this pipeline
func WithEntryPoints(vertex, fragment string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexEntry = vertex
		p.fragmentEntry = fragment
	}
}

// WithComputeEntryPoint sets the entry point of a compute pipeline.
//
// Parameters:
//   - entry: the compute entry point
//
// Returns:
//   - PipelineBuilderOption: a function that sets the compute entry point for this pipeline
func WithComputeEntryPoint(entry string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeEntry = entry
	}
}

// WithBindGroupLayouts sets the bind group layouts of the pipeline layout, in group index order.
//
// Parameters:
//   - layouts: the bind group layouts
//
// Returns:
//   - PipelineBuilderOption: a function that sets the bind group layouts for this pipeline
func WithBindGroupLayouts(layouts ...gpu.BindGroupLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.bindGroupLayouts = layouts
	}
}

// WithColorTargets sets the color target formats of a render pipeline.
//
// Parameters:
//   - formats: one format per color attachment
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color targets for this pipeline
func WithColorTargets(formats ...gpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorFormats = formats
	}
}

// WithDepthFormat sets the depth attachment format.
//
// Parameters:
//   - format: the depth format
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth format for this pipeline
func WithDepthFormat(format gpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline. A pipeline without depth testing has
// no depth attachment.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth write enabled state for this pipeline
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthCompare sets the depth comparison function.
//
// Parameters:
//   - compare: the comparison function
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth comparison for this pipeline
func WithDepthCompare(compare gpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthCompare = compare
	}
}

// WithDepthBias sets the depth bias parameters for this pipeline.
//
// Parameters:
//   - bias: the constant depth bias to apply
//   - slopeScale: the slope scale depth bias to apply
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth bias parameters for this pipeline
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled sets whether blending is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether blending should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend enabled state for this pipeline
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState sets the blend factors and enables blending.
//
// Parameters:
//   - src: the source blend factor
//   - dst: the destination blend factor
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(src, dst gpu.BlendFactor) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = true
		p.blendState = gpu.BlendState{Src: src, Dst: dst}
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode gpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology gpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithSampleCount sets the render target sample count. Values below 1 are treated as 1.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - PipelineBuilderOption: a function that sets the sample count for this pipeline
func WithSampleCount(count uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.sampleCount = max(count, 1)
	}
}

// WithWireframe switches rasterization to lines.
//
// Parameters:
//   - enabled: whether to rasterize lines
//
// Returns:
//   - PipelineBuilderOption: a function that sets the polygon mode for this pipeline
func WithWireframe(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.wireframe = enabled
	}
}

// WithConstant sets a pipeline-overridable shader constant.
//
// Parameters:
//   - name: the override name in the shader
//   - value: the value
//
// Returns:
//   - PipelineBuilderOption: a function that sets the constant for this pipeline
func WithConstant(name string, value float64) PipelineBuilderOption {
	return func(p *pipeline) {
		if p.constants == nil {
			p.constants = make(map[string]float64)
		}
		p.constants[name] = value
	}
}
