package drawer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
)

type fixture struct {
	device *gputest.Device
	env    Env
	// forward are the forward pass layouts.
	forward []gpu.BindGroupLayout
	// single are the layouts of passes binding only the global group.
	single []gpu.BindGroupLayout
}

func newFixture(t *testing.T, bindless bool) *fixture {
	t.Helper()
	device := gputest.NewDevice()
	device.SetFeatures(gpu.Features{Bindless: bindless, PolygonModeLine: true})
	layouts := layout.NewLayoutCache(device)
	return &fixture{
		device:  device,
		env:     NewEnv(device, layouts, texture(t, device, "Empty")),
		forward: []gpu.BindGroupLayout{layouts.Get(layout.Global), layouts.Get(layout.ForwardPass)},
		single:  []gpu.BindGroupLayout{layouts.Get(layout.Global)},
	}
}

func texture(t *testing.T, device gpu.Device, label string) gpu.TextureView {
	t.Helper()
	tex, err := device.CreateTexture(gpu.TextureDescriptor{Label: label, Width: 1, Height: 1, Format: gpu.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	view, err := tex.CreateView(gpu.TextureViewDescriptor{})
	if err != nil {
		t.Fatal(err)
	}
	return view
}

// record runs fn inside a render pass and returns the recorded commands.
func (f *fixture) record(t *testing.T, fn func(pass gpu.RenderPass)) *gputest.CommandBuffer {
	t.Helper()
	encoder, err := f.device.CreateCommandEncoder("test")
	if err != nil {
		t.Fatal(err)
	}
	pass := encoder.BeginRenderPass(gpu.RenderPassDescriptor{Label: "test"})
	fn(pass)
	pass.End()
	cb, err := encoder.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return cb.(*gputest.CommandBuffer)
}

func (f *fixture) dispatch(t *testing.T, fn func(pass gpu.ComputePass)) *gputest.CommandBuffer {
	t.Helper()
	encoder, err := f.device.CreateCommandEncoder("test")
	if err != nil {
		t.Fatal(err)
	}
	pass := encoder.BeginComputePass("test")
	fn(pass)
	pass.End()
	cb, err := encoder.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return cb.(*gputest.CommandBuffer)
}

func visible() instruction.RenderSettings {
	return instruction.RenderSettings{ShowObjects: true, ShowEntities: true, ShowWater: true, ShowIndicators: true}
}

func draws(cb *gputest.CommandBuffer) [][]uint64 {
	var out [][]uint64
	for _, c := range cb.Commands {
		if c.Op == "draw" {
			out = append(out, c.Args)
		}
	}
	return out
}

func bindsAt(cb *gputest.CommandBuffer, index uint64) int {
	n := 0
	for _, c := range cb.Commands {
		if c.Op == "set_bind_group" && c.Args[0] == index {
			n++
		}
	}
	return n
}

func TestDrawersRecordNothingWithoutInstances(t *testing.T) {
	f := newFixture(t, true)
	instr := &instruction.RenderInstruction{Settings: visible()}

	entity := NewEntityDrawer(f.env, KindForwardEntity, f.forward, global.MSAAX4)
	model := NewModelDrawer(f.env, KindForwardModel, f.forward, global.MSAAX4)
	indicator := NewIndicatorDrawer(f.env, f.forward, global.MSAAX4)
	tile := NewTileDrawer(f.env, f.single)
	rectangle := NewRectangleDrawer(f.env, KindInterfaceRectangle, f.single)
	effect := NewEffectDrawer(f.env, f.single)
	marker := NewMarkerDrawer(f.env, f.single)
	aabb := NewAABBDrawer(f.env, f.forward, global.MSAAX4)
	circle := NewCircleDrawer(f.env, f.forward, global.MSAAX4)
	water := NewWaterWaveDrawer(f.env, f.forward, global.MSAAX4)
	debug := NewDebugBufferDrawer(f.env, f.single, gpu.TextureFormatBGRA8UnormSrgb)

	for _, d := range []interface {
		Prepare(gpu.Device, *instruction.RenderInstruction)
	}{entity, model, indicator, tile, rectangle, effect, marker, aabb, circle, water} {
		d.Prepare(f.device, instr)
	}

	cb := f.record(t, func(pass gpu.RenderPass) {
		entity.Draw(pass, entity.All())
		model.Draw(pass, model.All())
		indicator.Draw(pass, NoDrawData{})
		tile.Draw(pass, NoDrawData{})
		rectangle.Draw(pass, NoDrawData{})
		effect.Draw(pass, NoDrawData{})
		marker.Draw(pass, MarkerPassInterface)
		marker.Draw(pass, MarkerPassPicker)
		aabb.Draw(pass, NoDrawData{})
		circle.Draw(pass, NoDrawData{})
		water.Draw(pass, NoDrawData{})
		debug.Draw(pass, instruction.DebugBufferNone)
	})
	if len(cb.Commands) != 2 {
		t.Errorf("expected only the pass begin and end, got %+v", cb.Commands)
	}
}

func TestWaterWaveDrawerSkipsHiddenWater(t *testing.T) {
	f := newFixture(t, true)
	d := NewWaterWaveDrawer(f.env, f.forward, global.MSAAX4)
	vertices, err := f.device.CreateBuffer(gpu.BufferDescriptor{Label: "Water", Size: 72, Usage: gpu.BufferUsageVertex})
	if err != nil {
		t.Fatal(err)
	}
	water := &instruction.WaterInstruction{VertexBuffer: vertices, VertexCount: 6, Opacity: 0.5}

	hidden := visible()
	hidden.ShowWater = false
	d.Prepare(f.device, &instruction.RenderInstruction{Settings: hidden, Water: water})
	cb := f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, NoDrawData{}) })
	if len(cb.Commands) != 2 {
		t.Errorf("expected hidden water to record nothing, got %+v", cb.Commands)
	}

	d.Prepare(f.device, &instruction.RenderInstruction{Settings: visible(), Water: water})
	cb = f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, NoDrawData{}) })
	if got := draws(cb); len(got) != 1 || got[0][0] != 6 {
		t.Errorf("expected one draw of 6 vertices, got %v", got)
	}
}

func TestTextureGroupsReleaseOnTrim(t *testing.T) {
	f := newFixture(t, false)
	c := newTextureGroups(f.env, "Texture")
	first := c.get(f.device, texture(t, f.device, "First")).(*gputest.BindGroup)
	for i := 1; i < maxCachedTextureGroups; i++ {
		c.get(f.device, texture(t, f.device, "Filler"))
	}

	extra := c.get(f.device, texture(t, f.device, "Extra"))
	if first.Released || len(c.groups) != maxCachedTextureGroups+1 {
		t.Fatalf("get evicted mid frame: released=%v cached=%d", first.Released, len(c.groups))
	}

	c.trim()
	if !first.Released || !extra.(*gputest.BindGroup).Released {
		t.Error("trim kept cached groups alive")
	}
	if len(c.groups) != 0 {
		t.Errorf("expected an empty cache, got %d groups", len(c.groups))
	}

	c.trim()
	again := c.get(f.device, texture(t, f.device, "Again")).(*gputest.BindGroup)
	c.trim()
	if again.Released {
		t.Error("trim released groups below the cache limit")
	}
}

func entities(views ...gpu.TextureView) []instruction.EntityInstruction {
	out := make([]instruction.EntityInstruction, len(views))
	for i, v := range views {
		out[i] = instruction.EntityInstruction{Texture: v, EntityID: uint32(i + 1)}
	}
	return out
}

func TestSpriteBatchRebindsTextureOnlyOnChange(t *testing.T) {
	f := newFixture(t, false)
	a, b := texture(t, f.device, "A"), texture(t, f.device, "B")
	d := NewEntityDrawer(f.env, KindForwardEntity, f.forward, global.MSAAX4)

	d.Prepare(f.device, &instruction.RenderInstruction{Settings: visible(), Entities: entities(a, a, b, a)})
	cb := f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, d.All()) })

	got := draws(cb)
	want := [][]uint64{{6, 2, 0, 0}, {6, 1, 0, 2}, {6, 1, 0, 3}}
	if len(got) != len(want) {
		t.Fatalf("expected %d draws, got %v", len(want), got)
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("draw %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	}
	if n := bindsAt(cb, 2); n != 1 {
		t.Errorf("expected the instance group once, got %d", n)
	}
	if n := bindsAt(cb, 3); n != 3 {
		t.Errorf("expected three texture binds, got %d", n)
	}
	if n := cb.Count("set_pipeline"); n != 1 {
		t.Errorf("expected one pipeline bind, got %d", n)
	}
}

func TestSpriteBatchBindlessDrawsOnce(t *testing.T) {
	f := newFixture(t, true)
	a, b := texture(t, f.device, "A"), texture(t, f.device, "B")
	d := NewEntityDrawer(f.env, KindForwardEntity, f.forward, global.MSAAX4)

	d.Prepare(f.device, &instruction.RenderInstruction{Settings: visible(), Entities: entities(a, b, nil, a)})
	cb := f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, d.All()) })

	got := draws(cb)
	if len(got) != 1 || got[0][1] != 4 {
		t.Fatalf("expected one draw of four instances, got %v", got)
	}
	if n := bindsAt(cb, 3); n != 0 {
		t.Errorf("expected no per-draw texture group, got %d", n)
	}

	group := d.batch.instances.provider.BindGroup().(*gputest.BindGroup)
	views := group.Desc.Entries[1].TextureViews
	if views[0] != a || views[1] != b || views[2] != f.env.EmptyTexture || views[3] != f.env.EmptyTexture {
		t.Error("unexpected texture array order")
	}
}

func TestEntityRangeIsClamped(t *testing.T) {
	f := newFixture(t, true)
	d := NewEntityDrawer(f.env, KindDirectionalShadowEntity, []gpu.BindGroupLayout{f.forward[0]}, global.MSAAOff)
	d.Prepare(f.device, &instruction.RenderInstruction{Settings: visible(), DirectionalShadowEntities: entities(nil, nil, nil)})

	cb := f.record(t, func(pass gpu.RenderPass) {
		d.Draw(pass, instruction.Range{Offset: 1, Count: 10})
		d.Draw(pass, instruction.Range{Offset: 5, Count: 1})
	})
	got := draws(cb)
	if len(got) != 1 || got[0][1] != 2 || got[0][3] != 1 {
		t.Errorf("expected one draw of instances 1 and 2, got %v", got)
	}
}

func TestPickerEntityFiltersAndEncodes(t *testing.T) {
	f := newFixture(t, true)
	d := NewEntityDrawer(f.env, KindPickerEntity, f.single, global.MSAAOff)

	list := entities(nil, nil, nil, nil, nil)
	for i := range list {
		list[i].AddToPicker = i != 1 && i != 3
	}
	d.Prepare(f.device, &instruction.RenderInstruction{Settings: visible(), Entities: list})

	if d.DrawCount() != 3 {
		t.Fatalf("expected 3 pickable entities, got %d", d.DrawCount())
	}
	record := d.batch.instances.records[1]
	if record.PickerLow != 3 || record.PickerHigh != 2 {
		t.Errorf("expected entity 3 encoded, got low %d high %d", record.PickerLow, record.PickerHigh)
	}
}

func TestHiddenEntitiesAreSkipped(t *testing.T) {
	f := newFixture(t, true)
	d := NewEntityDrawer(f.env, KindForwardEntity, f.forward, global.MSAAX4)
	d.Prepare(f.device, &instruction.RenderInstruction{Entities: entities(nil, nil)})
	if d.DrawCount() != 0 {
		t.Errorf("expected hidden entities to be skipped, got %d", d.DrawCount())
	}
}

func TestInstanceBufferGrows(t *testing.T) {
	f := newFixture(t, true)
	d := NewTileDrawer(f.env, f.single)

	tiles := make([]instruction.TileInstruction, 5)
	d.Prepare(f.device, &instruction.RenderInstruction{Tiles: tiles})
	if got := d.instances.provider.Capacity(); got != 8 {
		t.Errorf("expected capacity 8, got %d", got)
	}
	cb := f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, NoDrawData{}) })
	if got := draws(cb); len(got) != 1 || got[0][1] != 5 {
		t.Errorf("expected one draw of 5 tiles, got %v", got)
	}
}

func TestModelDrawerSwitchesPipelinesOnChange(t *testing.T) {
	f := newFixture(t, true)
	d := NewModelDrawer(f.env, KindForwardModel, f.forward, global.MSAAX4)
	vertices, err := f.device.CreateBuffer(gpu.BufferDescriptor{Label: "Vertices", Size: 64, Usage: gpu.BufferUsageVertex})
	if err != nil {
		t.Fatal(err)
	}
	instr := &instruction.RenderInstruction{
		Settings:     visible(),
		ModelBatches: []instruction.ModelBatch{{Models: instruction.Range{Count: 3}, VertexBuffer: vertices}},
		Models: []instruction.ModelInstruction{
			{VertexCount: 3},
			{VertexCount: 6, VertexOffset: 3, Transparent: true},
			{VertexCount: 3, VertexOffset: 9, Transparent: true},
		},
	}
	d.Prepare(f.device, instr)
	cb := f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, d.All()) })

	if n := cb.Count("set_pipeline"); n != 2 {
		t.Errorf("expected two pipeline binds, got %d", n)
	}
	if got := draws(cb); len(got) != 3 || got[1][0] != 6 || got[1][2] != 3 || got[1][3] != 1 {
		t.Errorf("unexpected draws %v", got)
	}

	instr.Settings.Wireframe = true
	d.Prepare(f.device, instr)
	cb = f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, d.All()) })
	for _, c := range cb.Commands {
		if c.Op == "set_pipeline" && c.Target != "Forward Model Wireframe" {
			t.Errorf("expected only the wireframe pipeline, got %q", c.Target)
		}
	}
	if n := cb.Count("set_pipeline"); n != 1 {
		t.Errorf("expected one pipeline bind in wireframe mode, got %d", n)
	}
}

func TestEffectPipelinePerBlendPair(t *testing.T) {
	f := newFixture(t, true)
	d := NewEffectDrawer(f.env, f.single)
	additive := instruction.EffectInstruction{SourceFactor: gpu.BlendFactorSrcAlpha, DestinationFactor: gpu.BlendFactorOne}
	normal := instruction.EffectInstruction{SourceFactor: gpu.BlendFactorSrcAlpha, DestinationFactor: gpu.BlendFactorOneMinusSrcAlpha}

	d.Prepare(f.device, &instruction.RenderInstruction{Effects: []instruction.EffectInstruction{additive, additive, normal, additive}})
	if d.PipelineCount() != 2 {
		t.Fatalf("expected two pipelines, got %d", d.PipelineCount())
	}
	cb := f.record(t, func(pass gpu.RenderPass) { d.Draw(pass, NoDrawData{}) })
	if got := draws(cb); len(got) != 3 {
		t.Errorf("expected three runs, got %v", got)
	}

	d.Prepare(f.device, &instruction.RenderInstruction{Effects: []instruction.EffectInstruction{normal}})
	if d.PipelineCount() != 2 {
		t.Errorf("expected pipelines to be reused, got %d", d.PipelineCount())
	}
}

func TestUpdateMSAAOnlyTouchesDependentPipelines(t *testing.T) {
	f := newFixture(t, true)
	forward := NewEntityDrawer(f.env, KindForwardEntity, f.forward, global.MSAAX4)
	pickerEntity := NewEntityDrawer(f.env, KindPickerEntity, f.single, global.MSAAOff)
	fxaa := NewFXAADrawer(f.env, f.single)
	resolve := NewResolveDrawer(f.env, f.single, global.MSAAX4)

	before := pickerEntity.Pipeline()
	fxaaBefore := fxaa.Pipeline()
	for _, d := range []MSAADependent{forward, pickerEntity, fxaa, resolve} {
		d.UpdateMSAA(f.device, global.MSAAOff, f.single)
	}

	if forward.Pipeline().SampleCount() != 1 {
		t.Errorf("expected forward entity sample count 1, got %d", forward.Pipeline().SampleCount())
	}
	if pickerEntity.Pipeline() != before || fxaa.Pipeline() != fxaaBefore {
		t.Error("expected sample count independent pipelines to keep their identity")
	}
	if got := resolve.Pipeline().RenderDescriptor().Constants["SAMPLE_COUNT"]; got != 1 {
		t.Errorf("expected resolve SAMPLE_COUNT 1, got %v", got)
	}
}

func TestMSAADependentKindsAreSampleCountDependent(t *testing.T) {
	f := newFixture(t, true)
	dependents := []MSAADependent{
		NewEntityDrawer(f.env, KindForwardEntity, f.forward, global.MSAAX4),
		NewModelDrawer(f.env, KindForwardModel, f.forward, global.MSAAX4),
		NewIndicatorDrawer(f.env, f.forward, global.MSAAX4),
		NewWaterWaveDrawer(f.env, f.forward, global.MSAAX4),
		NewRectangleDrawer(f.env, KindPostProcessingRectangle, f.single),
		NewEffectDrawer(f.env, f.single),
		NewResolveDrawer(f.env, f.single, global.MSAAX4),
		NewAABBDrawer(f.env, f.forward, global.MSAAX4),
		NewCircleDrawer(f.env, f.forward, global.MSAAX4),
	}
	for _, d := range NewCMAA2Dispatchers(f.env, f.single, global.MSAAX4) {
		dependents = append(dependents, d)
	}
	seen := make(map[Kind]bool)
	for _, d := range dependents {
		if !d.Kind().SampleCountDependent() {
			t.Errorf("%s is rebuilt on MSAA changes but not sample count dependent", d.Kind())
		}
		seen[d.Kind()] = true
	}
	for _, k := range Kinds() {
		if k.SampleCountDependent() && !seen[k] {
			t.Errorf("%s is sample count dependent but has no rebuild", k)
		}
	}
}

func TestCMAA2Workgroups(t *testing.T) {
	f := newFixture(t, true)
	stages := NewCMAA2Dispatchers(f.env, f.single, global.MSAAOff)
	size := ScreenDispatchData{Size: common.ScreenSize{Width: 800, Height: 600}}

	cb := f.dispatch(t, func(pass gpu.ComputePass) {
		for _, s := range stages {
			s.Dispatch(pass, size)
		}
	})
	want := [][3]uint64{{50, 38, 1}, {469, 1, 1}, {1, 1, 1}, {469, 1, 1}}
	i := 0
	for _, c := range cb.Commands {
		if c.Op != "dispatch" {
			continue
		}
		if c.Args[0] != want[i][0] || c.Args[1] != want[i][1] || c.Args[2] != want[i][2] {
			t.Errorf("stage %d: expected %v, got %v", i, want[i], c.Args)
		}
		i++
	}
	if i != 4 {
		t.Errorf("expected four dispatches, got %d", i)
	}
}

func TestLightCullingSkipsEmptyFrames(t *testing.T) {
	f := newFixture(t, true)
	d := NewLightCullingDispatcher(f.env, f.single)

	cb := f.dispatch(t, func(pass gpu.ComputePass) {
		d.Dispatch(pass, LightCullingDispatchData{TileCountX: 50, TileCountY: 38})
		d.Dispatch(pass, LightCullingDispatchData{TileCountX: 50, TileCountY: 38, LightCount: 2})
	})
	if n := cb.Count("dispatch"); n != 1 {
		t.Fatalf("expected one dispatch, got %d", n)
	}
}

func TestMarkerDrawerSharesRecordsAcrossPasses(t *testing.T) {
	f := newFixture(t, true)
	d := NewMarkerDrawer(f.env, f.single)
	d.Prepare(f.device, &instruction.RenderInstruction{Markers: []instruction.MarkerInstruction{{}, {}}})

	cb := f.record(t, func(pass gpu.RenderPass) {
		d.Draw(pass, MarkerPassInterface)
		d.Draw(pass, MarkerPassPicker)
	})
	var pipelines []string
	for _, c := range cb.Commands {
		if c.Op == "set_pipeline" {
			pipelines = append(pipelines, c.Target)
		}
	}
	if len(pipelines) != 2 || pipelines[0] != "Marker Interface" || pipelines[1] != "Marker Picker" {
		t.Errorf("unexpected pipelines %v", pipelines)
	}
	if record := d.instances.records[0]; record.PickerLow != 0 || record.PickerHigh != 0 {
		t.Error("expected markers without a target to stay unpickable")
	}
}

func TestKindNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range Kinds() {
		name := k.String()
		if name == "" || seen[name] {
			t.Errorf("kind %d has an empty or duplicate name %q", int(k), name)
		}
		seen[name] = true
	}
}
