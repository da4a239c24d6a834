package pass

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
	"github.com/go-gl/mathgl/mgl32"
)

type fixture struct {
	device  *gputest.Device
	queue   *gputest.Queue
	layouts *layout.LayoutCache
	global  *global.GlobalContext
	belt    *staging_belt.StagingBelt
}

func newFixture(t *testing.T, settings global.GraphicsSettings) *fixture {
	t.Helper()
	device := gputest.NewDevice()
	layouts := layout.NewLayoutCache(device)
	return &fixture{
		device:  device,
		queue:   gputest.NewQueue(),
		layouts: layouts,
		global: global.NewGlobalContext(device, layouts, gpu.TextureFormatBGRA8UnormSrgb,
			common.ScreenSize{Width: 800, Height: 600}, settings),
		belt: staging_belt.NewStagingBelt(device, 0),
	}
}

func (f *fixture) encoder(t *testing.T, label string) gpu.CommandEncoder {
	t.Helper()
	encoder, err := f.device.CreateCommandEncoder(label)
	if err != nil {
		t.Fatal(err)
	}
	return encoder
}

func (f *fixture) submit(t *testing.T, encoder gpu.CommandEncoder) *gputest.CommandBuffer {
	t.Helper()
	f.belt.Finish()
	cb, err := encoder.Finish()
	if err != nil {
		t.Fatal(err)
	}
	f.queue.Submit(cb)
	return cb.(*gputest.CommandBuffer)
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	fn()
}

func TestDirectionalShadowPartitionOffsets(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewDirectionalShadowContext(f.device, f.layouts)
	c.Prepare(&instruction.RenderInstruction{
		DirectionalShadowPartitions: []instruction.DirectionalShadowPartition{
			{ViewProjection: mgl32.Ident4(), Interval: mgl32.Vec2{0, 10}},
			{ViewProjection: mgl32.Ident4(), Interval: mgl32.Vec2{10, 40}},
		},
	})

	encoder := f.encoder(t, "directional-shadow")
	c.Upload(f.belt, encoder)
	for partition := range 2 {
		c.CreatePass(encoder, f.global, partition).End()
	}
	cb := f.submit(t, encoder)

	var offsets []uint64
	for _, cmd := range cb.Commands {
		if cmd.Op == "set_bind_group" && cmd.Args[0] == 1 {
			offsets = append(offsets, cmd.Args[1])
		}
	}
	if len(offsets) != 2 || offsets[0] != 0 || offsets[1] != DynamicUniformAlignment {
		t.Fatalf("dynamic offsets = %v, want [0 %d]", offsets, DynamicUniformAlignment)
	}

	data := c.uniforms.buffer.(*gputest.Buffer).Bytes()
	interval := data[DynamicUniformAlignment+64 : DynamicUniformAlignment+72]
	if got := common.StructToBytes(&[2]float32{10, 40}); string(interval) != string(got) {
		t.Errorf("second partition interval not uploaded into its slot")
	}
}

func TestPointShadowFaceSlots(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewPointShadowContext(f.device, f.layouts)
	c.Prepare(&instruction.RenderInstruction{
		PointShadowCasters: []instruction.PointShadowCaster{{}, {Position: mgl32.Vec3{1, 2, 3}, Extent: 5}},
	})
	if c.uniforms.used != 12 {
		t.Fatalf("used slots = %d, want 12", c.uniforms.used)
	}

	encoder := f.encoder(t, "point-shadow")
	c.CreatePass(encoder, f.global, PointShadowPassData{Caster: 1, Face: 2}).End()
	cb := f.submit(t, encoder)
	if cmd := cb.Commands[2]; cmd.Op != "set_bind_group" || cmd.Args[1] != 8*DynamicUniformAlignment {
		t.Errorf("unexpected point shadow group command %+v", cmd)
	}

	expectPanic(t, func() {
		c.CreatePass(f.encoder(t, "bad"), f.global, PointShadowPassData{Caster: 0, Face: 6})
	})
}

func TestLightCullingRebindFollowsForwardSize(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewLightCullingContext(f.device, f.layouts, f.global)
	tiles := c.TilesBuffer()

	if c.Rebind(f.global) {
		t.Error("rebind without a size change replaced the tile buffer")
	}
	f.global.UpdateScreenSize(common.ScreenSize{Width: 1920, Height: 1080})
	if !c.Rebind(f.global) || c.TilesBuffer() == tiles {
		t.Fatal("tile buffer was not replaced after a resize")
	}
}

func TestLightCullingUploadsHeaderAndLights(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewLightCullingContext(f.device, f.layouts, f.global)
	c.Prepare(&instruction.RenderInstruction{
		PointLights: []instruction.PointLight{
			{Position: mgl32.Vec3{1, 0, 0}, Range: 4, ShadowIndex: -1},
			{Position: mgl32.Vec3{2, 0, 0}, Range: 8, ShadowIndex: 0},
		},
	})
	if c.LightCount() != 2 {
		t.Fatalf("light count = %d, want 2", c.LightCount())
	}

	encoder := f.encoder(t, "upload")
	c.Upload(f.belt, encoder)
	f.submit(t, encoder)

	data := c.LightsBuffer().(*gputest.Buffer).Bytes()
	x, y := c.TileCounts()
	if binary.LittleEndian.Uint32(data[0:]) != x || binary.LittleEndian.Uint32(data[4:]) != y {
		t.Error("tile counts missing from the light header")
	}
	if binary.LittleEndian.Uint32(data[8:]) != 2 {
		t.Error("light count missing from the light header")
	}
}

func TestPostProcessingLayoutFollowsMSAA(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.MSAA = global.MSAAOff
	f := newFixture(t, settings)

	single := NewPostProcessingContext(f.device, f.layouts, f.global)
	if got := single.BindGroupLayouts(f.layouts)[1]; got != f.layouts.Get(layout.PostProcessingPass) {
		t.Errorf("single sampled context uses %s", got.Label())
	}

	f.global.UpdateMSAA(global.MSAAX4)
	expectPanic(t, func() { single.Rebind(f.global) })

	multi := NewPostProcessingContext(f.device, f.layouts, f.global)
	if got := multi.BindGroupLayouts(f.layouts)[1]; got != f.layouts.Get(layout.PostProcessingPassMultisampled) {
		t.Errorf("multisampled context uses %s", got.Label())
	}
}

func TestFXAAStageRequiresFXAAResources(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewPostProcessingContext(f.device, f.layouts, f.global)
	expectPanic(t, func() {
		c.CreatePass(f.encoder(t, "post-processing"), f.global, PostProcessingStageFXAA)
	})

	f.global.UpdateScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingFXAA)
	c.Rebind(f.global)
	encoder := f.encoder(t, "post-processing")
	c.CreatePass(encoder, f.global, PostProcessingStageFXAA).End()
	if cb := f.submit(t, encoder); cb.Commands[0].Target != "FXAA" {
		t.Errorf("unexpected first command %+v", cb.Commands[0])
	}
	if FinalColor(f.global) != f.global.FXAAResources().Target.View {
		t.Error("final color is not the FXAA target")
	}
}

func TestPickerReadBackLagsOneFrame(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewPickerContext(f.device)
	texel := make([]byte, 8)
	binary.LittleEndian.PutUint64(texel, 0x0000_0002_0000_002a)
	f.global.PickerColor.Texture.(*gputest.Texture).Contents = texel

	frame := func() {
		encoder := f.encoder(t, "picker")
		c.CreatePass(encoder, f.global, NoPassData{}).End()
		c.CopyTexel(encoder, f.global, common.ScreenPosition{X: 10, Y: 20})
		c.RequestReadBack()
		f.device.Poll(true)
		f.submit(t, encoder)
	}

	frame()
	if c.Value() != 0 {
		t.Fatalf("value after the first frame = %#x, want 0", c.Value())
	}
	frame()
	if c.Value() != 0x0000_0002_0000_002a {
		t.Fatalf("value after the second frame = %#x", c.Value())
	}
	for _, b := range c.readBack.buffers {
		if b.(*gputest.Buffer).Mapped {
			t.Error("read-back buffer left mapped")
		}
	}
}

func TestCMAA2ContextPanicsOnStaleResources(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.ScreenSpaceAntiAliasing = global.ScreenSpaceAntiAliasingCMAA2
	f := newFixture(t, settings)
	c := NewCMAA2Context(f.device, f.layouts, f.global)

	encoder := f.encoder(t, "post-processing")
	c.Upload(f.belt, encoder)
	c.CreatePass(encoder, f.global, NoPassData{}).End()
	f.submit(t, encoder)
	control := f.global.CMAA2Resources().Control.(*gputest.Buffer).Bytes()
	if binary.LittleEndian.Uint32(control[20:]) != 1 || binary.LittleEndian.Uint32(control[24:]) != 1 {
		t.Error("dispatch arguments were not reset")
	}

	f.global.UpdateScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingCMAA2)
	expectPanic(t, func() { c.CreatePass(f.encoder(t, "stale"), f.global, NoPassData{}) })

	f.global.UpdateScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingOff)
	c.Rebind(f.global)
	expectPanic(t, func() { c.CreatePass(f.encoder(t, "off"), f.global, NoPassData{}) })
}

func TestSDSMUploadResetsBounds(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewSDSMContext(f.device, f.layouts, f.global)

	encoder := f.encoder(t, "upload")
	c.Upload(f.belt, encoder)
	f.submit(t, encoder)

	data := c.BoundsBuffer().(*gputest.Buffer).Bytes()
	if binary.LittleEndian.Uint32(data[0:]) != 0xFFFFFFFF || binary.LittleEndian.Uint32(data[4:]) != 0 {
		t.Errorf("unexpected reset bounds %v", data[:8])
	}
}

func TestSDSMBoundsReadBackLagsOneFrame(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewSDSMContext(f.device, f.layouts, f.global)
	if _, _, ok := c.Bounds(); ok {
		t.Fatal("bounds available before any read-back")
	}

	bounds := c.BoundsBuffer().(*gputest.Buffer)
	binary.LittleEndian.PutUint32(bounds.Data[0:], math.Float32bits(2.5))
	binary.LittleEndian.PutUint32(bounds.Data[4:], math.Float32bits(80))

	frame := func() {
		encoder := f.encoder(t, "light-culling-forward")
		c.CreatePass(encoder, f.global, NoPassData{}).End()
		c.CopyBounds(encoder)
		c.RequestReadBack()
		f.device.Poll(true)
		f.submit(t, encoder)
	}

	frame()
	if _, _, ok := c.Bounds(); ok {
		t.Fatal("bounds available after the first frame")
	}
	frame()
	near, far, ok := c.Bounds()
	if !ok || near != 2.5 || far != 80 {
		t.Fatalf("bounds = %v, %v, %v; want 2.5, 80, true", near, far, ok)
	}
}

func TestSDSMEmptyBoundsAreNotReported(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewSDSMContext(f.device, f.layouts, f.global)
	for range 2 {
		encoder := f.encoder(t, "light-culling-forward")
		c.Upload(f.belt, encoder)
		c.CopyBounds(encoder)
		c.RequestReadBack()
		f.device.Poll(true)
		f.submit(t, encoder)
	}
	if _, _, ok := c.Bounds(); ok {
		t.Error("reset bounds reported as visible samples")
	}
}

func TestSDSMDispatchSizeIgnoresSupersampling(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.SSAA = global.SSAAX2
	f := newFixture(t, settings)
	c := NewSDSMContext(f.device, f.layouts, f.global)

	if got := c.DispatchSize(f.global); got != f.global.ScreenSize {
		t.Errorf("dispatch size = %+v, want the screen size %+v", got, f.global.ScreenSize)
	}
	if f.global.ForwardSize() == f.global.ScreenSize {
		t.Fatal("supersampling did not scale the forward size")
	}
}

func TestForwardBindsSelectorResult(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	lightCulling := NewLightCullingContext(f.device, f.layouts, f.global)
	selector := NewSelectorContext(f.device, f.layouts, f.global)
	c := NewForwardContext(f.device, f.layouts, f.global, lightCulling, selector)

	for _, group := range []*gputest.BindGroup{c.BindGroup().(*gputest.BindGroup), rebound(f, c, lightCulling)} {
		entry := group.Desc.Entries[len(group.Desc.Entries)-1]
		if entry.Binding != 5 || entry.Buffer != selector.ResultBuffer() {
			t.Errorf("last forward entry = binding %d buffer %v, want the selector result", entry.Binding, entry.Buffer)
		}
	}
}

func rebound(f *fixture, c *ForwardContext, lightCulling *LightCullingContext) *gputest.BindGroup {
	c.Rebind(f.global, lightCulling)
	return c.BindGroup().(*gputest.BindGroup)
}

func TestScreenBlitRebindTracksFinalColor(t *testing.T) {
	f := newFixture(t, global.DefaultGraphicsSettings())
	c := NewScreenBlitContext(f.device, f.layouts, f.global)
	before := c.bindGroup.(*gputest.BindGroup)
	if before.Desc.Entries[0].TextureView != f.global.PostProcessingColor.View {
		t.Fatal("blit does not sample the post processing color")
	}

	f.global.UpdateScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingFXAA)
	c.Rebind(f.global)
	after := c.bindGroup.(*gputest.BindGroup)
	if after.Desc.Entries[0].TextureView != f.global.FXAAResources().Target.View {
		t.Error("blit does not sample the FXAA target")
	}
	if !before.Released || after.Released {
		t.Errorf("released before=%v after=%v, want only the replaced group released", before.Released, after.Released)
	}
}
