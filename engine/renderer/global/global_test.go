package global

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
	"github.com/go-gl/mathgl/mgl32"
)

func newGlobal(t *testing.T, settings GraphicsSettings) (*gputest.Device, *GlobalContext) {
	t.Helper()
	device := gputest.NewDevice()
	g := NewGlobalContext(device, layout.NewLayoutCache(device), gpu.TextureFormatBGRA8UnormSrgb,
		common.ScreenSize{Width: 800, Height: 600}, settings)
	return device, g
}

func TestCheckHighQualityInterface(t *testing.T) {
	tests := []struct {
		name      string
		requested bool
		screen    common.ScreenSize
		max       uint32
		want      bool
	}{
		{"not requested", false, common.ScreenSize{Width: 800, Height: 600}, 8192, false},
		{"fits", true, common.ScreenSize{Width: 1920, Height: 1080}, 8192, true},
		{"exactly fits", true, common.ScreenSize{Width: 4096, Height: 1080}, 8192, true},
		{"too wide", true, common.ScreenSize{Width: 4097, Height: 1080}, 8192, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := CheckHighQualityInterface(tt.requested, tt.screen, tt.max)
			second := CheckHighQualityInterface(tt.requested, tt.screen, tt.max)
			if first != tt.want || second != first {
				t.Fatalf("CheckHighQualityInterface = %v then %v, want %v", first, second, tt.want)
			}
		})
	}
}

func TestCheckSupersampling(t *testing.T) {
	tests := []struct {
		name      string
		requested SSAA
		screen    common.ScreenSize
		max       uint32
		want      SSAA
	}{
		{"off stays off", SSAAOff, common.ScreenSize{Width: 800, Height: 600}, 8192, SSAAOff},
		{"fits", SSAAX4, common.ScreenSize{Width: 1920, Height: 1080}, 8192, SSAAX4},
		{"downgrade to x3", SSAAX4, common.ScreenSize{Width: 2560, Height: 1440}, 8192, SSAAX3},
		{"downgrade to x2", SSAAX4, common.ScreenSize{Width: 3840, Height: 2160}, 8192, SSAAX2},
		{"nothing fits", SSAAX2, common.ScreenSize{Width: 5000, Height: 2160}, 8192, SSAAOff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := CheckSupersampling(tt.requested, tt.screen, tt.max)
			second := CheckSupersampling(tt.requested, tt.screen, tt.max)
			if first != tt.want || second != first {
				t.Fatalf("CheckSupersampling = %v then %v, want %v", first, second, tt.want)
			}
		})
	}
}

func TestSettingTextRoundTrip(t *testing.T) {
	var msaa MSAA
	if err := msaa.UnmarshalText([]byte(" X8 ")); err != nil || msaa != MSAAX8 {
		t.Fatalf("UnmarshalText = %v, %v", msaa, err)
	}
	if text, _ := MSAAX16.MarshalText(); string(text) != "x16" {
		t.Fatalf("MarshalText = %q", text)
	}

	var sampler TextureSamplerType
	if err := sampler.UnmarshalText([]byte("anisotropic-8")); err != nil || sampler != TextureSamplerAnisotropic8 {
		t.Fatalf("UnmarshalText = %v, %v", sampler, err)
	}

	var aa ScreenSpaceAntiAliasing
	if err := aa.UnmarshalText([]byte("smaa")); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("UnmarshalText error = %v, want ErrUnknownSetting", err)
	}
}

func TestSettingValues(t *testing.T) {
	if MSAAX4.SampleCount() != 4 || MSAAOff.SampleCount() != 1 || MSAAX16.SampleCount() != 16 {
		t.Fatal("unexpected MSAA sample counts")
	}
	if SSAAOff.Factor() != 1 || SSAAX3.Factor() != 3 {
		t.Fatal("unexpected SSAA factors")
	}
	if ShadowDetailUltra.DirectionalResolution() != 4096 || ShadowDetailLow.PointResolution() != 256 {
		t.Fatal("unexpected shadow resolutions")
	}
	if TextureSamplerNearest.Descriptor().Filter != gpu.FilterModeNearest {
		t.Fatal("nearest sampler is not nearest")
	}
}

func TestAntiAliasingVariantMismatchPanics(t *testing.T) {
	settings := DefaultGraphicsSettings()
	settings.ScreenSpaceAntiAliasing = ScreenSpaceAntiAliasingFXAA
	_, g := newGlobal(t, settings)

	if g.FXAAResources() == nil {
		t.Fatal("FXAA resources missing")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when CMAA2 resources are requested with FXAA constructed")
		}
	}()
	g.CMAA2Resources()
}

func TestUpdateScreenSpaceAntiAliasingSwitchesVariant(t *testing.T) {
	_, g := newGlobal(t, DefaultGraphicsSettings())
	if g.ScreenSpaceAntiAliasing() != ScreenSpaceAntiAliasingOff {
		t.Fatalf("initial mode = %v", g.ScreenSpaceAntiAliasing())
	}
	g.UpdateScreenSpaceAntiAliasing(ScreenSpaceAntiAliasingCMAA2)
	if r := g.CMAA2Resources(); r.Edges.Size() != g.ScreenSize {
		t.Fatalf("CMAA2 edges size = %v, want %v", r.Edges.Size(), g.ScreenSize)
	}
}

func TestAttachmentSizesFollowSettings(t *testing.T) {
	settings := DefaultGraphicsSettings()
	settings.SSAA = SSAAX2
	settings.MSAA = MSAAX4
	_, g := newGlobal(t, settings)

	if got := g.ForwardColor.Size(); got != (common.ScreenSize{Width: 1600, Height: 1200}) {
		t.Fatalf("forward size = %v", got)
	}
	if got := g.ForwardColor.Texture.SampleCount(); got != 4 {
		t.Fatalf("forward samples = %d", got)
	}
	if got := g.InterfaceColor.Size(); got != (common.ScreenSize{Width: 1600, Height: 1200}) {
		t.Fatalf("interface size = %v", got)
	}

	g.UpdateMSAA(MSAAOff)
	g.UpdateHighQualityInterface(false)
	g.UpdateScreenSize(common.ScreenSize{Width: 640, Height: 480})
	if got := g.ForwardColor.Texture.SampleCount(); got != 1 {
		t.Fatalf("forward samples after update = %d", got)
	}
	if got := g.InterfaceColor.Size(); got != (common.ScreenSize{Width: 640, Height: 480}) {
		t.Fatalf("interface size after update = %v", got)
	}
	if got := g.PickerColor.Size(); got != (common.ScreenSize{Width: 640, Height: 480}) {
		t.Fatalf("picker size after update = %v", got)
	}
}

func TestShadowMapViews(t *testing.T) {
	_, g := newGlobal(t, DefaultGraphicsSettings())
	if len(g.DirectionalShadowLayerViews) != 4 || len(g.PointShadowFaceViews) != 36 {
		t.Fatalf("views = %d directional, %d point", len(g.DirectionalShadowLayerViews), len(g.PointShadowFaceViews))
	}
	before := g.DirectionalShadowMap.Texture
	g.UpdateShadowDetail(ShadowDetailLow)
	if g.DirectionalShadowMap.Texture == before || g.DirectionalShadowMap.Texture.Width() != 512 {
		t.Fatal("shadow map was not recreated at the new resolution")
	}
}

func TestUpdateTextureSamplerRebuildsGlobalBindGroup(t *testing.T) {
	_, g := newGlobal(t, DefaultGraphicsSettings())
	before := g.GlobalBindGroup
	g.UpdateTextureSamplerType(TextureSamplerAnisotropic16)
	if g.GlobalBindGroup == before {
		t.Fatal("global bind group was not rebuilt")
	}
}

func TestPrepareAndUpload(t *testing.T) {
	device, g := newGlobal(t, DefaultGraphicsSettings())
	queue := gputest.NewQueue()
	frame := &instruction.RenderInstruction{
		Uniforms: instruction.Uniforms{
			View:           mgl32.Ident4(),
			Projection:     mgl32.Ident4(),
			CameraPosition: mgl32.Vec3{1, 2, 3},
			AnimationTimer: 1.5,
		},
		PickerPosition: common.ScreenPosition{X: 10000, Y: -5},
	}
	g.Prepare(frame)

	u := g.Uniforms()
	if u.PickerPosition != [2]uint32{799, 0} {
		t.Fatalf("picker position = %v, want clamped [799 0]", u.PickerPosition)
	}
	if u.CameraPosition != [4]float32{1, 2, 3, 1} {
		t.Fatalf("camera position = %v", u.CameraPosition)
	}

	belt := staging_belt.NewStagingBelt(device, 0)
	encoder, _ := device.CreateCommandEncoder("upload")
	g.Upload(belt, encoder)
	belt.Finish()
	cb, _ := encoder.Finish()
	queue.Submit(cb)

	data := g.UniformBuffer.(*gputest.Buffer).Bytes()
	if len(data) != 304 {
		t.Fatalf("uniform buffer size = %d, want 304", len(data))
	}
	if got := common.StructToBytes(&u); string(got) != string(data) {
		t.Fatal("uniform buffer does not hold the prepared uniforms")
	}
}
