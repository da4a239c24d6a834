// Package instruction holds the per-frame RenderInstruction snapshot produced by the application layer.
//
// A RenderInstruction lives for exactly one frame. The engine sorts Entities and the models of each ModelBatch in
// place and treats everything else as read-only.
package instruction

import (
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/go-gl/mathgl/mgl32"
)

// Range addresses a contiguous run of a flat instruction slice.
type Range struct {
	Offset int
	Count  int
}

// End returns the exclusive end index of the range.
func (r Range) End() int {
	return r.Offset + r.Count
}

// Uniforms are the per-frame camera and lighting values shared by every pass.
type Uniforms struct {
	View              mgl32.Mat4
	Projection        mgl32.Mat4
	InverseView       mgl32.Mat4
	InverseProjection mgl32.Mat4
	CameraPosition    mgl32.Vec3

	AmbientColor              mgl32.Vec3
	DirectionalLightDirection mgl32.Vec3
	DirectionalLightColor     mgl32.Vec3

	// AnimationTimer drives water waves and animated textures, in seconds.
	AnimationTimer float32
}

// EntityInstruction draws one billboarded sprite part of an entity.
type EntityInstruction struct {
	World           mgl32.Mat4
	TexturePosition mgl32.Vec2
	TextureSize     mgl32.Vec2
	Color           mgl32.Vec4
	Texture         gpu.TextureView
	// Distance is the distance to the camera used for back-to-front ordering.
	Distance    float32
	EntityID    uint32
	AddToPicker bool
	Mirror      bool
}

// ModelInstruction draws a range of the map model vertex buffer with one transform.
type ModelInstruction struct {
	Model        mgl32.Mat4
	VertexOffset uint32
	VertexCount  uint32
	Distance     float32
	Transparent  bool
}

// ModelBatch groups models that share a vertex buffer and texture set.
type ModelBatch struct {
	Models       Range
	TextureSet   gpu.TextureView
	VertexBuffer gpu.Buffer
}

// DirectionalShadowPartition is one cascade of the directional shadow map.
type DirectionalShadowPartition struct {
	ViewProjection mgl32.Mat4
	// Interval is the near/far split distance covered by this partition.
	Interval     mgl32.Vec2
	ModelBatches Range
	Entities     Range
}

// PointShadowFace is one cube face of a point light shadow caster.
type PointShadowFace struct {
	ViewProjection mgl32.Mat4
	ModelBatches   Range
	Entities       Range
}

// PointShadowCaster is a point light that renders a cube shadow map this frame.
type PointShadowCaster struct {
	Position mgl32.Vec3
	Extent   float32
	Faces    [6]PointShadowFace
}

// PointLight is a light considered by tiled light culling.
type PointLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Range    float32
	// ShadowIndex is the index into PointShadowCasters, or -1.
	ShadowIndex int
}

// RectangleKind selects how a rectangle is shaded.
type RectangleKind uint8

const (
	RectangleSolid RectangleKind = iota
	RectangleSprite
	RectangleSDF
	RectangleText
)

// RectangleInstruction is a screen-space rectangle in pixels.
type RectangleInstruction struct {
	Kind            RectangleKind
	Position        mgl32.Vec2
	Size            mgl32.Vec2
	Color           mgl32.Vec4
	CornerRadius    mgl32.Vec4
	ClipRect        mgl32.Vec4
	TexturePosition mgl32.Vec2
	TextureSize     mgl32.Vec2
	Texture         gpu.TextureView
}

// InterfaceRectangles are the UI rectangles in three explicit z-layers, drawn bottom to top.
type InterfaceRectangles struct {
	Bottom []RectangleInstruction
	Middle []RectangleInstruction
	Top    []RectangleInstruction
}

// Len returns the number of rectangles over all layers.
func (r *InterfaceRectangles) Len() int {
	return len(r.Bottom) + len(r.Middle) + len(r.Top)
}

// EffectInstruction is a screen-space effect quad with its own blend factors.
type EffectInstruction struct {
	Corners           [4]mgl32.Vec2
	TextureCorners    [4]mgl32.Vec2
	Color             mgl32.Vec4
	Texture           gpu.TextureView
	SourceFactor      gpu.BlendFactor
	DestinationFactor gpu.BlendFactor
}

// IndicatorInstruction is the ground indicator under the cursor.
type IndicatorInstruction struct {
	Corners [4]mgl32.Vec3
	Color   mgl32.Vec4
	Texture gpu.TextureView
}

// WaterInstruction describes the map water plane.
type WaterInstruction struct {
	VertexBuffer  gpu.Buffer
	VertexCount   uint32
	Texture       gpu.TextureView
	WaterLevel    float32
	WaveHeight    float32
	WaveSpeed     float32
	WavePitch     float32
	TextureRepeat float32
	Opacity       float32
}

// TileInstruction is a pickable map tile.
type TileInstruction struct {
	Corners [4]mgl32.Vec3
	X       uint16
	Y       uint16
}

// MarkerInstruction is a debug marker drawn into the interface and the picker.
type MarkerInstruction struct {
	Position mgl32.Vec2
	Size     mgl32.Vec2
	Color    mgl32.Vec4
	Target   picker.Target
}

// AABBInstruction is a debug bounding box.
type AABBInstruction struct {
	World mgl32.Mat4
	Color mgl32.Vec4
}

// CircleInstruction is a debug circle on the ground plane.
type CircleInstruction struct {
	Position mgl32.Vec3
	Radius   float32
	Color    mgl32.Vec4
}

// DebugBuffer selects an intermediate attachment shown instead of the final image.
type DebugBuffer uint8

const (
	DebugBufferNone DebugBuffer = iota
	DebugBufferPicker
	DebugBufferDirectionalShadow
	DebugBufferPointShadow
	DebugBufferLightCulling
	DebugBufferSDSM
)

// RenderSettings are per-frame toggles set by the application.
type RenderSettings struct {
	ShowObjects    bool
	ShowEntities   bool
	ShowWater      bool
	ShowIndicators bool
	Wireframe      bool
	FrustumCulling bool
	ShowBuffer     DebugBuffer
}

// RenderInstruction is the immutable snapshot of one frame.
type RenderInstruction struct {
	Uniforms Uniforms
	Settings RenderSettings

	Entities     []EntityInstruction
	ModelBatches []ModelBatch
	Models       []ModelInstruction

	DirectionalShadowPartitions   []DirectionalShadowPartition
	DirectionalShadowModelBatches []ModelBatch
	DirectionalShadowModels       []ModelInstruction
	DirectionalShadowEntities     []EntityInstruction

	PointShadowCasters      []PointShadowCaster
	PointShadowModelBatches []ModelBatch
	PointShadowModels       []ModelInstruction
	PointShadowEntities     []EntityInstruction
	PointLights             []PointLight

	InterfaceRectangles      InterfaceRectangles
	PostProcessingRectangles []RectangleInstruction
	Effects                  []EffectInstruction
	Indicator                *IndicatorInstruction
	Water                    *WaterInstruction
	Tiles                    []TileInstruction

	Markers []MarkerInstruction
	AABBs   []AABBInstruction
	Circles []CircleInstruction

	// PickerPosition is the screen position read back by the picker.
	PickerPosition common.ScreenPosition
}
