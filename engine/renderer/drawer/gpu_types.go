package drawer

// GPUEntity is one entity sprite instance.
// Size: 112 bytes.
type GPUEntity struct {
	World           [16]float32
	TexturePosition [2]float32
	TextureSize     [2]float32
	Color           [4]float32
	TextureIndex    uint32
	PickerLow       uint32
	PickerHigh      uint32
	Mirror          uint32
}

// GPUModel is one model instance. The vertex range is passed with the draw call.
// Size: 64 bytes.
type GPUModel struct {
	Model [16]float32
}

// GPUIndicator is the ground indicator quad.
// Size: 80 bytes.
type GPUIndicator struct {
	Corners [4][4]float32
	Color   [4]float32
}

// GPUWaterUniforms drives the water wave vertex displacement.
// Size: 32 bytes.
type GPUWaterUniforms struct {
	WaterLevel    float32
	WaveHeight    float32
	WaveSpeed     float32
	WavePitch     float32
	TextureRepeat float32
	Opacity       float32
	_pad          [2]float32
}

// GPUTile is one pickable map tile.
// Size: 80 bytes.
type GPUTile struct {
	Corners    [4][4]float32
	PickerLow  uint32
	PickerHigh uint32
	_pad       [2]uint32
}

// GPURectangle is one screen-space rectangle.
// Size: 96 bytes.
type GPURectangle struct {
	Position        [2]float32
	Size            [2]float32
	Color           [4]float32
	CornerRadius    [4]float32
	ClipRect        [4]float32
	TexturePosition [2]float32
	TextureSize     [2]float32
	Kind            uint32
	TextureIndex    uint32
	_pad            [2]uint32
}

// GPUEffect is one effect quad in screen space.
// Size: 96 bytes.
type GPUEffect struct {
	Corners        [4][2]float32
	TextureCorners [4][2]float32
	Color          [4]float32
	TextureIndex   uint32
	_pad           [3]uint32
}

// GPUMarker is one debug marker.
// Size: 48 bytes.
type GPUMarker struct {
	Position   [2]float32
	Size       [2]float32
	Color      [4]float32
	PickerLow  uint32
	PickerHigh uint32
	_pad       [2]uint32
}

// GPUAABB is one debug bounding box; the unit cube is transformed by World.
// Size: 80 bytes.
type GPUAABB struct {
	World [16]float32
	Color [4]float32
}

// GPUCircle is one debug circle on the ground plane.
// Size: 32 bytes.
type GPUCircle struct {
	Position [3]float32
	Radius   float32
	Color    [4]float32
}
