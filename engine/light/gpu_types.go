package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPointLight is the GPU-aligned representation of a point light in the light culling storage buffer.
// Size: 32 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	vec3<f32> position      (12 bytes, offset 0)
//	f32       range         ( 4 bytes, offset 12)
//	vec3<f32> color         (12 bytes, offset 16)
//	i32       shadow_index  ( 4 bytes, offset 28)
type GPUPointLight struct {
	Position    [3]float32
	Range       float32
	Color       [3]float32
	ShadowIndex int32
}

// GPUPointLightSize is the size of GPUPointLight in bytes.
const GPUPointLightSize = int(unsafe.Sizeof(GPUPointLight{}))

// MarshalTo serializes the light into buf, which must hold at least GPUPointLightSize bytes.
//
// Parameters:
//   - buf: the destination
func (g *GPUPointLight) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Range))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(g.ShadowIndex))
}

// GPULightHeader is prepended to the light culling storage buffer.
// Size: 16 bytes (vec2<u32> + u32 + pad).
type GPULightHeader struct {
	TileCountX uint32
	TileCountY uint32
	LightCount uint32
	_pad       uint32
}

// Marshal serializes the header for upload.
//
// Returns:
//   - []byte: 16-byte buffer
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], h.TileCountX)
	binary.LittleEndian.PutUint32(buf[4:8], h.TileCountY)
	binary.LittleEndian.PutUint32(buf[8:12], h.LightCount)
	return buf
}
