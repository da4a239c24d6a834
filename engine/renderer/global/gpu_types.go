package global

// GPUGlobalUniforms is the frame uniform block bound at group 0, binding 0 of every pass.
// Size: 304 bytes (WGSL uniform layout).
//
// Layout:
//
//	mat4x4<f32> view_projection          (64 bytes, offset   0)
//	mat4x4<f32> view                     (64 bytes, offset  64)
//	mat4x4<f32> inverse_view_projection  (64 bytes, offset 128)
//	vec4<f32>   camera_position          (16 bytes, offset 192)
//	vec4<f32>   ambient_color            (16 bytes, offset 208)
//	vec4<f32>   directional_direction    (16 bytes, offset 224)
//	vec4<f32>   directional_color        (16 bytes, offset 240)
//	vec2<u32>   screen_size              ( 8 bytes, offset 256)
//	vec2<u32>   forward_size             ( 8 bytes, offset 264)
//	vec2<u32>   interface_size           ( 8 bytes, offset 272)
//	vec2<u32>   picker_position          ( 8 bytes, offset 280)
//	f32         animation_timer          ( 4 bytes, offset 288)
//	u32         point_light_count        ( 4 bytes, offset 292)
//	vec2<u32>   tile_count               ( 8 bytes, offset 296)
type GPUGlobalUniforms struct {
	ViewProjection        [16]float32
	View                  [16]float32
	InverseViewProjection [16]float32
	CameraPosition        [4]float32
	AmbientColor          [4]float32
	DirectionalDirection  [4]float32
	DirectionalColor      [4]float32
	ScreenSize            [2]uint32
	ForwardSize           [2]uint32
	InterfaceSize         [2]uint32
	PickerPosition        [2]uint32
	AnimationTimer        float32
	PointLightCount       uint32
	TileCount             [2]uint32
}
