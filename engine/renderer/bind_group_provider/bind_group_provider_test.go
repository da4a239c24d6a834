package bind_group_provider

import (
	"bytes"
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

func emptyView(t *testing.T, device *gputest.Device) gpu.TextureView {
	t.Helper()
	tex, err := device.CreateTexture(gpu.TextureDescriptor{Label: "Empty", Width: 1, Height: 1})
	if err != nil {
		t.Fatal(err)
	}
	view, err := tex.CreateView(gpu.TextureViewDescriptor{})
	if err != nil {
		t.Fatal(err)
	}
	return view
}

func TestReserveGrowsToPowerOfTwo(t *testing.T) {
	device := gputest.NewDevice()
	layouts := layout.NewLayoutCache(device)
	p := NewBindGroupProvider(device, "Entity Instances", layouts.Get(layout.Instances), WithElementSize(112), WithCapacity(4))

	group := p.BindGroup()
	if p.Reserve(device, 4) {
		t.Fatal("reserve within capacity must not grow")
	}
	if p.BindGroup() != group {
		t.Fatal("bind group changed without growth")
	}

	if !p.Reserve(device, 5) {
		t.Fatal("expected growth")
	}
	if p.Capacity() != 8 {
		t.Errorf("expected capacity 8, got %d", p.Capacity())
	}
	if p.Buffer().Size() != 8*112 {
		t.Errorf("expected %d bytes, got %d", 8*112, p.Buffer().Size())
	}
	if p.BindGroup() == group || p.Generation() != 2 {
		t.Error("expected a rebuilt bind group")
	}
	if !group.(*gputest.BindGroup).Released {
		t.Error("the replaced bind group was not released")
	}

	current := p.BindGroup().(*gputest.BindGroup)
	p.Release()
	if !current.Released || p.BindGroup() != nil {
		t.Error("release kept the bind group")
	}
}

func TestSetTextureViewsRebuildsOnlyOnChange(t *testing.T) {
	device := gputest.NewDevice()
	layouts := layout.NewLayoutCache(device)
	empty := emptyView(t, device)
	a, b := emptyView(t, device), emptyView(t, device)
	p := NewBindGroupProvider(device, "Sprites", layouts.Get(layout.BindlessInstances),
		WithTextureArray(1, layouts.BindlessCount(), empty))

	if !p.SetTextureViews(device, []gpu.TextureView{a, b}) {
		t.Fatal("expected a rebuild for new textures")
	}
	if p.SetTextureViews(device, []gpu.TextureView{a, b}) {
		t.Fatal("same textures must not rebuild")
	}
	if !p.SetTextureViews(device, []gpu.TextureView{b, a}) {
		t.Fatal("reordered textures must rebuild")
	}

	entries := p.BindGroup().(*gputest.BindGroup).Desc.Entries
	views := entries[1].TextureViews
	if uint32(len(views)) != layouts.BindlessCount() {
		t.Fatalf("expected %d views, got %d", layouts.BindlessCount(), len(views))
	}
	if views[0] != b || views[1] != a || views[2] != empty {
		t.Error("texture array not padded with the empty texture")
	}
}

func TestUploadWritesThroughBelt(t *testing.T) {
	device := gputest.NewDevice()
	queue := gputest.NewQueue()
	layouts := layout.NewLayoutCache(device)
	belt := staging_belt.NewStagingBelt(device, 0)
	p := NewBindGroupProvider(device, "Models", layouts.Get(layout.Instances), WithElementSize(8), WithCapacity(2))

	encoder, _ := device.CreateCommandEncoder("upload")
	p.Upload(belt, encoder, nil)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	p.Upload(belt, encoder, data)
	belt.Finish()
	commands, err := encoder.Finish()
	if err != nil {
		t.Fatal(err)
	}
	queue.Submit(commands)

	if n := commands.(*gputest.CommandBuffer).Count("copy_buffer"); n != 1 {
		t.Errorf("expected one copy, got %d", n)
	}
	if got := p.Buffer().(*gputest.Buffer).Bytes()[:8]; !bytes.Equal(got, data) {
		t.Errorf("buffer holds %v", got)
	}
}

func TestTextureArrayWithoutEmptyTexturePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	device := gputest.NewDevice()
	layouts := layout.NewLayoutCache(device)
	NewBindGroupProvider(device, "Broken", layouts.Get(layout.BindlessInstances), WithTextureArray(1, 4, nil))
}
