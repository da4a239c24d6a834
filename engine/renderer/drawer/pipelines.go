package drawer

import (
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pipeline"
)

func newRenderPipeline(env Env, key, shader string, layouts []gpu.BindGroupLayout, opts ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	options := []pipeline.PipelineBuilderOption{
		pipeline.WithShader(shader),
		pipeline.WithBindGroupLayouts(layouts...),
	}
	return pipeline.NewPipeline(env.Device, key, pipeline.PipelineTypeRender, append(options, opts...)...)
}

func newComputePipeline(env Env, key, shader, entry string, layouts []gpu.BindGroupLayout, opts ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	options := []pipeline.PipelineBuilderOption{
		pipeline.WithShader(shader),
		pipeline.WithComputeEntryPoint(entry),
		pipeline.WithBindGroupLayouts(layouts...),
	}
	return pipeline.NewPipeline(env.Device, key, pipeline.PipelineTypeCompute, append(options, opts...)...)
}

// forwardTargets renders into the forward color and depth at the MSAA sample count.
func forwardTargets(msaa global.MSAA) []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithColorTargets(global.ForwardColorFormat),
		pipeline.WithDepthFormat(global.DepthFormat),
		pipeline.WithSampleCount(msaa.SampleCount()),
	}
}

// shadowTargets renders depth only, biased against acne.
func shadowTargets() []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithDepthFormat(global.DepthFormat),
		pipeline.WithDepthBias(2, 2),
		pipeline.WithEntryPoints("vs_shadow", "fs_shadow"),
	}
}

// pickerTargets renders identifiers into the picker color and depth.
func pickerTargets() []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithColorTargets(global.PickerFormat),
		pipeline.WithDepthFormat(global.DepthFormat),
		pipeline.WithEntryPoints("vs_picker", "fs_picker"),
	}
}

// overlayTargets renders blended into a single color target without depth.
func overlayTargets(format gpu.TextureFormat) []pipeline.PipelineBuilderOption {
	return []pipeline.PipelineBuilderOption{
		pipeline.WithColorTargets(format),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithBlendEnabled(true),
	}
}

func renderPipelines(pipelines ...pipeline.Pipeline) []gpu.RenderPipeline {
	out := make([]gpu.RenderPipeline, len(pipelines))
	for i, p := range pipelines {
		out[i] = p.RenderPipeline()
	}
	return out
}
