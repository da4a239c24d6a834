package engine

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/surface"
)

type harness struct {
	engine  *engine
	device  *gputest.Device
	queue   *gputest.Queue
	surface *gputest.Surface
}

func newHarness(t *testing.T, size common.ScreenSize, options ...EngineBuilderOption) *harness {
	t.Helper()
	device := gputest.NewDevice()
	queue := gputest.NewQueue()
	options = append([]EngineBuilderOption{WithWorkers(2)}, options...)
	e := NewEngine(device, queue, options...).(*engine)
	s := gputest.NewSurface(device)
	e.ResumeSurface(s, size)
	return &harness{engine: e, device: device, queue: queue, surface: s}
}

func (h *harness) frame(instr *instruction.RenderInstruction) {
	frame := h.engine.WaitForNextFrame()
	h.engine.RenderNextFrame(frame, instr)
}

func defaultSize() common.ScreenSize {
	return common.ScreenSize{Width: 800, Height: 600}
}

func visible() *instruction.RenderInstruction {
	return &instruction.RenderInstruction{
		Settings: instruction.RenderSettings{
			ShowObjects:    true,
			ShowEntities:   true,
			ShowWater:      true,
			ShowIndicators: true,
		},
	}
}

func expectPanic(t *testing.T, name string, fn func()) any {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	if recovered == nil {
		t.Fatalf("%s: expected a panic", name)
	}
	return recovered
}

func TestSubmissionOrder(t *testing.T) {
	h := newHarness(t, defaultSize())
	h.frame(visible())

	want := []string{
		EncoderPrepareUpload,
		EncoderInterface,
		EncoderPicker,
		EncoderDirectionalShadow,
		EncoderPointShadow,
		EncoderLightCullingForward,
		EncoderPostProcessing,
	}
	if got := h.queue.Labels(); !slices.Equal(got, want) {
		t.Fatalf("submission order = %v, want %v", got, want)
	}
	if h.surface.Presented != 1 {
		t.Errorf("presented %d frames, want 1", h.surface.Presented)
	}
	if last := h.device.Events[len(h.device.Events)-1]; last != "poll" {
		t.Errorf("last device event before submit = %q, want poll", last)
	}
}

func TestEntitiesDrawBackToFrontWithStableTies(t *testing.T) {
	h := newHarness(t, defaultSize())
	instr := visible()
	for i, distance := range []float32{5, 1, 1} {
		instr.Entities = append(instr.Entities, instruction.EntityInstruction{
			Distance:    distance,
			EntityID:    uint32(i),
			AddToPicker: true,
		})
	}

	h.frame(instr)

	var order []uint32
	for _, e := range instr.Entities {
		order = append(order, e.EntityID)
	}
	// The farthest entity draws first; the two tied entities keep their submission order.
	if want := []uint32{0, 1, 2}; !slices.Equal(order, want) {
		t.Errorf("draw order = %v, want %v", order, want)
	}
	if n := h.engine.context.pickerEntity.DrawCount(); n != 3 {
		t.Errorf("picker draw count = %d, want 3", n)
	}
	if n := h.engine.context.forwardEntity.DrawCount(); n != 3 {
		t.Errorf("forward draw count = %d, want 3", n)
	}
}

func TestShadowPassesPerPartitionAndFace(t *testing.T) {
	h := newHarness(t, defaultSize())
	instr := visible()
	instr.DirectionalShadowPartitions = make([]instruction.DirectionalShadowPartition, 6)
	instr.PointShadowCasters = make([]instruction.PointShadowCaster, 2)

	h.frame(instr)

	directional := h.queue.Last(EncoderDirectionalShadow)
	if n := directional.Count("begin_render_pass"); n != 4 {
		t.Errorf("directional shadow passes = %d, want 4", n)
	}
	point := h.queue.Last(EncoderPointShadow)
	if n := point.Count("begin_render_pass"); n != 12 {
		t.Errorf("point shadow passes = %d, want 12", n)
	}
}

func TestTooManyShadowCastersPanics(t *testing.T) {
	h := newHarness(t, defaultSize())
	frame := h.engine.WaitForNextFrame()
	instr := visible()
	instr.PointShadowCasters = make([]instruction.PointShadowCaster, 7)

	expectPanic(t, "seven casters", func() { h.engine.RenderNextFrame(frame, instr) })
	if len(h.queue.Submitted) != 0 {
		t.Errorf("submitted %d buffers before panicking", len(h.queue.Submitted))
	}
}

func TestWaitWithoutSurfacePanics(t *testing.T) {
	e := NewEngine(gputest.NewDevice(), gputest.NewQueue())

	recovered := expectPanic(t, "no surface", func() { e.WaitForNextFrame() })
	err, ok := recovered.(error)
	if !ok || !errors.Is(err, surface.ErrSurfaceNotResumed) {
		t.Errorf("panic value = %v, want ErrSurfaceNotResumed", recovered)
	}
}

func TestMSAAChangeRebuildsOnlyDependentPipelines(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.MSAA = global.MSAAX4
	settings.ScreenSpaceAntiAliasing = global.ScreenSpaceAntiAliasingCMAA2
	h := newHarness(t, defaultSize(), WithGraphicsSettings(settings), WithExtension(NewDebugExtension()))
	h.frame(visible())

	c := h.engine.context
	shadow := c.directionalShadowEntity.Pipeline()
	pickerEntity := c.pickerEntity.Pipeline()
	pickerTile := c.pickerTile.Pipeline()
	blit := c.screenBlitDrawer.Pipeline()
	fxaa := c.fxaa.Pipeline()
	forward := c.forwardEntity.Pipeline()
	resolve := c.resolve.Pipeline()
	post := c.postProcessing

	h.engine.SetMSAA(global.MSAAOff)

	if c.directionalShadowEntity.Pipeline() != shadow || c.pickerEntity.Pipeline() != pickerEntity ||
		c.pickerTile.Pipeline() != pickerTile || c.screenBlitDrawer.Pipeline() != blit || c.fxaa.Pipeline() != fxaa {
		t.Error("sample count independent pipelines were recreated")
	}
	if c.forwardEntity.Pipeline() == forward || c.resolve.Pipeline() == resolve {
		t.Error("sample count dependent pipelines were not recreated")
	}
	if c.postProcessing == post || c.postProcessing.MSAA() != global.MSAAOff {
		t.Error("post processing context was not rebuilt for the new MSAA level")
	}
	if n := c.global.ForwardColor.Texture.SampleCount(); n != 1 {
		t.Errorf("forward color samples = %d, want 1", n)
	}
	for label, want := range map[string]int{
		"Forward Entity":             2,
		"Forward Model":              2,
		"Water Wave":                 2,
		"CMAA2 Edge Color":           2,
		"AABB":                       2,
		"Circle":                     2,
		"Directional Shadow Entity":  1,
		"Point Shadow Model":         1,
		"Picker Tile":                1,
		"Marker Interface":           1,
		"Screen Blit":                1,
		"FXAA":                       1,
		"Light Culling":              1,
		"Selector":                   1,
		"SDSM":                       1,
		"Directional Shadow Model":   1,
		"Forward Indicator":          2,
		"Post Processing Rectangle":  2,
		"Interface Rectangle":        1,
		"CMAA2 Deferred Color Apply": 2,
	} {
		if got := h.device.PipelineCount(label); got != want {
			t.Errorf("%s pipelines = %d, want %d", label, got, want)
		}
	}

	h.frame(visible())
	if h.surface.Presented != 2 {
		t.Errorf("presented %d frames after the MSAA change, want 2", h.surface.Presented)
	}
}

func TestAntiAliasingMismatchPanics(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.ScreenSpaceAntiAliasing = global.ScreenSpaceAntiAliasingCMAA2
	h := newHarness(t, defaultSize(), WithGraphicsSettings(settings))
	frame := h.engine.WaitForNextFrame()

	h.engine.context.global.UpdateScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingFXAA)

	expectPanic(t, "CMAA2 settings with FXAA resources", func() { h.engine.RenderNextFrame(frame, visible()) })
}

func TestSetScreenSpaceAntiAliasingSwitchesBranch(t *testing.T) {
	h := newHarness(t, defaultSize())
	h.frame(visible())

	h.engine.SetScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingFXAA)
	h.frame(visible())
	post := h.queue.Last(EncoderPostProcessing)
	if n := post.Count("begin_render_pass"); n != 3 {
		t.Errorf("post processing render passes with FXAA = %d, want 3", n)
	}

	h.engine.SetScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasingCMAA2)
	h.frame(visible())
	post = h.queue.Last(EncoderPostProcessing)
	if n := post.Count("begin_compute_pass"); n != 1 {
		t.Errorf("post processing compute passes with CMAA2 = %d, want 1", n)
	}
}

func TestCapabilityDowngrades(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.HighQualityInterface = true
	settings.SSAA = global.SSAAX4
	h := newHarness(t, common.ScreenSize{Width: 1200, Height: 800}, WithGraphicsSettings(settings))
	limits := h.device.Limits()
	limits.MaxTextureDimension2D = 2048
	h.device.SetLimits(limits)

	h.frame(visible())
	g := h.engine.context.global
	if g.HighQualityInterface {
		t.Error("high quality interface should be disabled at 1200x800")
	}
	if g.SSAA != global.SSAAOff {
		t.Errorf("SSAA = %s, want off", g.SSAA)
	}
	if got := h.engine.Settings(); !got.HighQualityInterface || got.SSAA != global.SSAAX4 {
		t.Errorf("requested settings changed to %+v", got)
	}

	h.engine.Resize(common.ScreenSize{Width: 600, Height: 400})
	h.frame(visible())
	if !g.HighQualityInterface || g.InterfaceSize() != (common.ScreenSize{Width: 1200, Height: 800}) {
		t.Errorf("high quality interface not restored after shrinking, interface size %+v", g.InterfaceSize())
	}
	if g.SSAA != global.SSAAX3 {
		t.Errorf("SSAA = %s, want x3", g.SSAA)
	}
	if g.ForwardColor.Size() != (common.ScreenSize{Width: 1800, Height: 1200}) {
		t.Errorf("forward size = %+v", g.ForwardColor.Size())
	}
}

func TestPickerValueAfterTwoFrames(t *testing.T) {
	h := newHarness(t, defaultSize())
	frame := h.engine.WaitForNextFrame()

	want := picker.Encode(picker.Entity(42))
	contents := make([]byte, 8)
	binary.LittleEndian.PutUint64(contents, want)
	h.engine.context.global.PickerColor.Texture.(*gputest.Texture).Contents = contents

	h.engine.RenderNextFrame(frame, visible())
	if v := h.engine.PickerValue(); v != 0 {
		t.Fatalf("picker value after one frame = %#x, want 0", v)
	}
	h.frame(visible())
	if v := h.engine.PickerValue(); v != want {
		t.Fatalf("picker value = %#x, want %#x", v, want)
	}
	target, ok := h.engine.PickerTarget()
	if !ok || target != picker.Entity(42) {
		t.Errorf("picker target = %v, %v", target, ok)
	}
}

func TestFormatChangeRebuildsContext(t *testing.T) {
	h := newHarness(t, defaultSize())
	h.frame(visible())
	first := h.engine.context

	h.surface.Caps.Formats = []gpu.TextureFormat{gpu.TextureFormatRGBA16Float}
	h.engine.Resize(common.ScreenSize{Width: 640, Height: 480})
	h.frame(visible())

	c := h.engine.context
	if c == first || c.ID == first.ID {
		t.Fatal("engine context was not rebuilt after a format change")
	}
	if c.SurfaceFormat != gpu.TextureFormatRGBA16Float {
		t.Errorf("context format = %d, want RGBA16Float", c.SurfaceFormat)
	}
	if c.global.ScreenSize != (common.ScreenSize{Width: 640, Height: 480}) {
		t.Errorf("rebuilt context size = %+v", c.global.ScreenSize)
	}
}

func TestSuspendAndResumeKeepsContext(t *testing.T) {
	h := newHarness(t, defaultSize())
	h.frame(visible())
	first := h.engine.context

	h.engine.SuspendSurface()
	h.engine.ResumeSurface(h.surface, common.ScreenSize{Width: 1024, Height: 768})
	h.frame(visible())

	if h.engine.context != first {
		t.Error("context rebuilt although the format did not change")
	}
	if got := first.global.ScreenSize; got != (common.ScreenSize{Width: 1024, Height: 768}) {
		t.Errorf("screen size = %+v after resume", got)
	}
}

func TestSDSMReducesScreenSizeDepth(t *testing.T) {
	settings := global.DefaultGraphicsSettings()
	settings.SSAA = global.SSAAX2
	h := newHarness(t, defaultSize(), WithGraphicsSettings(settings))
	if _, _, ok := h.engine.DepthBounds(); ok {
		t.Fatal("depth bounds available before the first frame")
	}
	h.frame(visible())
	h.frame(visible())

	cb := h.queue.Last(EncoderLightCullingForward)
	sdsm := slices.IndexFunc(cb.Commands, func(c gputest.Command) bool {
		return c.Op == "begin_compute_pass" && c.Target == "SDSM"
	})
	if sdsm < 0 {
		t.Fatal("no SDSM pass recorded")
	}
	var dispatch []uint64
	copied := false
	for _, c := range cb.Commands[sdsm:] {
		switch {
		case c.Op == "dispatch" && dispatch == nil:
			dispatch = c.Args
		case c.Op == "copy_buffer" && c.Target == "SDSM Read Back":
			copied = true
		}
	}
	// 800x600 in 16 pixel tiles, not the 1600x1200 supersampled forward size.
	if !slices.Equal(dispatch, []uint64{50, 38, 1}) {
		t.Errorf("SDSM dispatch = %v, want [50 38 1]", dispatch)
	}
	if !copied {
		t.Error("SDSM bounds were not copied for read-back")
	}
	// The fake device runs no shaders, so the bounds stay at their empty reset value.
	if _, _, ok := h.engine.DepthBounds(); ok {
		t.Error("empty bounds reported as visible samples")
	}
}
