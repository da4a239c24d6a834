package drawer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
)

// instances is a CPU record list mirrored into a growable GPU buffer.
type instances[T any] struct {
	provider bind_group_provider.BindGroupProvider
	records  []T
}

func newInstances[T any](env Env, label string, id layout.ID, options ...bind_group_provider.BindGroupProviderOption) *instances[T] {
	opts := append([]bind_group_provider.BindGroupProviderOption{
		bind_group_provider.WithElementSize(common.SizeOf[T]()),
	}, options...)
	return &instances[T]{
		provider: bind_group_provider.NewBindGroupProvider(env.Device, label, env.Layouts.Get(id), opts...),
	}
}

func (i *instances[T]) reset() {
	i.records = i.records[:0]
}

func (i *instances[T]) reserve(device gpu.Device) {
	i.provider.Reserve(device, len(i.records))
}

func (i *instances[T]) upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	i.provider.Upload(belt, encoder, common.SliceToBytes(i.records))
}

// textureLookup assigns bindless array indices to textures by identity. The map and the slice are kept across frames
// and only cleared, so a steady scene does not allocate.
type textureLookup struct {
	capacity int
	indices  map[gpu.TextureView]uint32
	views    []gpu.TextureView
}

func newTextureLookup(capacity int) textureLookup {
	return textureLookup{capacity: capacity, indices: make(map[gpu.TextureView]uint32)}
}

func (l *textureLookup) reset() {
	clear(l.indices)
	l.views = l.views[:0]
}

func (l *textureLookup) index(view gpu.TextureView) uint32 {
	if i, ok := l.indices[view]; ok {
		return i
	}
	if len(l.views) >= l.capacity {
		panic(fmt.Sprintf("more than %d distinct textures in one bindless batch", l.capacity))
	}
	i := uint32(len(l.views))
	l.indices[view] = i
	l.views = append(l.views, view)
	return i
}

// maxCachedTextureGroups bounds textureGroups; trim starts the cache over once it is reached.
const maxCachedTextureGroups = 4096

// textureGroups caches one single-texture bind group per texture view for the non-bindless path.
type textureGroups struct {
	label  string
	layout gpu.BindGroupLayout
	groups map[gpu.TextureView]gpu.BindGroup
}

func newTextureGroups(env Env, label string) textureGroups {
	return textureGroups{
		label:  label,
		layout: env.Layouts.Get(layout.Texture),
		groups: make(map[gpu.TextureView]gpu.BindGroup),
	}
}

// trim releases every cached group once the cache is full. It runs at the start of Prepare so no group handed out
// for the frame being built is released.
func (c *textureGroups) trim() {
	if len(c.groups) < maxCachedTextureGroups {
		return
	}
	for _, group := range c.groups {
		group.Release()
	}
	clear(c.groups)
}

func (c *textureGroups) get(device gpu.Device, view gpu.TextureView) gpu.BindGroup {
	if group, ok := c.groups[view]; ok {
		return group
	}
	group := createBindGroup(device, c.label, c.layout, gpu.BindGroupEntry{Binding: 0, TextureView: view})
	c.groups[view] = group
	return group
}

type spriteKey struct {
	texture  gpu.TextureView
	pipeline int
}

// spriteRun is a run of consecutive records sharing a pipeline and, on the non-bindless path, a texture.
type spriteRun struct {
	first, count int
	pipeline     int
	// texture is the bind group of the run's texture, nil on the bindless path.
	texture gpu.BindGroup
}

// spriteBatch is the instance core of every textured quad drawer. On the bindless path all textures of the frame go
// into one texture array and a run only breaks on a pipeline change. On the non-bindless path the texture group is
// re-bound whenever the texture changes between consecutive records.
type spriteBatch[T any] struct {
	bindless bool
	layouts  *layout.LayoutCache
	// group is the bind group index of the instance buffer; the non-bindless texture group follows it.
	group uint32
	empty gpu.TextureView

	instances *instances[T]
	lookup    textureLookup
	textures  textureGroups

	keys []spriteKey
	runs []spriteRun
}

func newSpriteBatch[T any](env Env, label string, passLayouts []gpu.BindGroupLayout) *spriteBatch[T] {
	b := &spriteBatch[T]{
		bindless: env.Bindless,
		layouts:  env.Layouts,
		group:    uint32(len(passLayouts)),
		empty:    env.EmptyTexture,
	}
	if b.bindless {
		b.instances = newInstances[T](env, label, layout.BindlessInstances,
			bind_group_provider.WithTextureArray(1, env.Layouts.BindlessCount(), env.EmptyTexture))
		b.lookup = newTextureLookup(int(env.Layouts.BindlessCount()))
	} else {
		b.instances = newInstances[T](env, label, layout.Instances)
		b.textures = newTextureGroups(env, label+" Texture")
	}
	return b
}

// pipelineLayouts returns the pass layouts followed by the layouts owned by the batch.
func (b *spriteBatch[T]) pipelineLayouts(passLayouts []gpu.BindGroupLayout) []gpu.BindGroupLayout {
	if b.bindless {
		return withLayouts(passLayouts, b.layouts.Get(layout.BindlessInstances))
	}
	return withLayouts(passLayouts, b.layouts.Get(layout.Instances), b.layouts.Get(layout.Texture))
}

func (b *spriteBatch[T]) reset() {
	b.instances.reset()
	b.textures.trim()
	b.keys = b.keys[:0]
	b.runs = b.runs[:0]
	if b.bindless {
		b.lookup.reset()
	}
}

// textureIndex returns the bindless array index of a texture, or 0 on the non-bindless path.
func (b *spriteBatch[T]) textureIndex(view gpu.TextureView) uint32 {
	if !b.bindless {
		return 0
	}
	return b.lookup.index(common.Coalesce(view, b.empty))
}

func (b *spriteBatch[T]) push(record T, view gpu.TextureView, pipeline int) {
	b.instances.records = append(b.instances.records, record)
	b.keys = append(b.keys, spriteKey{texture: common.Coalesce(view, b.empty), pipeline: pipeline})
}

func (b *spriteBatch[T]) len() int {
	return len(b.instances.records)
}

// finish grows the instance buffer, publishes the texture array and computes the draw runs.
func (b *spriteBatch[T]) finish(device gpu.Device) {
	b.instances.reserve(device)
	if b.bindless {
		b.instances.provider.SetTextureViews(device, b.lookup.views)
	}

	var previous spriteKey
	for i, key := range b.keys {
		if b.bindless {
			key.texture = nil
		}
		if i == 0 || key != previous {
			run := spriteRun{first: i, pipeline: key.pipeline}
			if !b.bindless {
				run.texture = b.textures.get(device, key.texture)
			}
			b.runs = append(b.runs, run)
			previous = key
		}
		b.runs[len(b.runs)-1].count++
	}
}

func (b *spriteBatch[T]) upload(belt *staging_belt.StagingBelt, encoder gpu.CommandEncoder) {
	b.instances.upload(belt, encoder)
}

// draw records the records of r, vertices per instance, switching pipelines and texture groups only on change.
func (b *spriteBatch[T]) draw(pass gpu.RenderPass, pipelines []gpu.RenderPipeline, vertices uint32, r instruction.Range) {
	first, end := clampRange(r, b.len())
	if first >= end {
		return
	}
	pass.SetBindGroup(b.group, b.instances.provider.BindGroup(), nil)

	currentPipeline := -1
	var currentTexture gpu.BindGroup
	for _, run := range b.runs {
		runFirst, runEnd := max(run.first, first), min(run.first+run.count, end)
		if runFirst >= runEnd {
			continue
		}
		if run.pipeline != currentPipeline {
			pass.SetPipeline(pipelines[run.pipeline])
			currentPipeline = run.pipeline
		}
		if run.texture != nil && run.texture != currentTexture {
			pass.SetBindGroup(b.group+1, run.texture, nil)
			currentTexture = run.texture
		}
		pass.Draw(vertices, uint32(runEnd-runFirst), 0, uint32(runFirst))
	}
}
