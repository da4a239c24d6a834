package pass

import "github.com/Carmen-Shannon/oxy-ro/engine/light"

// GPUShadowPassUniforms is one dynamic-offset slot of the shadow pass uniform buffers.
// Size: 80 bytes, padded to DynamicUniformAlignment in the buffer.
//
// Layout:
//
//	mat4x4<f32> view_projection  (64 bytes, offset  0)
//	vec4<f32>   parameters       (16 bytes, offset 64)
//
// Directional partitions store the near/far interval in parameters.xy; point shadow faces store the light position in
// parameters.xyz and the extent in parameters.w.
type GPUShadowPassUniforms struct {
	ViewProjection [16]float32
	Parameters     [4]float32
}

// GPUDirectionalPartition is one cascade as seen by the forward pass.
// Size: 80 bytes.
type GPUDirectionalPartition struct {
	ViewProjection [16]float32
	// Interval holds near, far and two padding floats.
	Interval [4]float32
}

// GPUForwardUniforms is the forward pass uniform block.
// Size: 336 bytes.
//
// Layout:
//
//	array<Partition, 4> partitions  (320 bytes, offset   0)
//	u32                 count       (  4 bytes, offset 320)
//	u32                 _pad[3]     ( 12 bytes, offset 324)
type GPUForwardUniforms struct {
	Partitions     [light.MaxDirectionalShadowPartitions]GPUDirectionalPartition
	PartitionCount uint32
	_pad           [3]uint32
}

// GPUSDSMBounds is the reduction result of the SDSM dispatch: the view distance range of the visible samples.
// Size: 16 bytes. Distances are non-negative f32 bits, whose uint order matches the float order, so
// atomicMin/atomicMax work on them.
type GPUSDSMBounds struct {
	MinDistance uint32
	MaxDistance uint32
	_pad        [2]uint32
}

// GPUSelectorResult is written by the selector dispatch.
// Size: 16 bytes.
type GPUSelectorResult struct {
	Low  uint32
	High uint32
	_pad [2]uint32
}

// GPUCMAA2Control is the CMAA2 counter block.
// Size: 32 bytes.
type GPUCMAA2Control struct {
	ShapeCandidateCount uint32
	BlendLocationCount  uint32
	BlendColorCount     uint32
	_pad                uint32
	DispatchArgs        [3]uint32
	_pad2               uint32
}
