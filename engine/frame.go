package engine

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ro/engine/frame_pacer"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/light"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/drawer"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pass"
	"golang.org/x/sync/errgroup"
)

// Encoder labels in submission order.
const (
	EncoderPrepareUpload       = "prepare-upload"
	EncoderInterface           = "interface"
	EncoderPicker              = "picker"
	EncoderDirectionalShadow   = "directional-shadow"
	EncoderPointShadow         = "point-shadow"
	EncoderLightCullingForward = "light-culling-forward"
	EncoderPostProcessing      = "post-processing"
)

// recordedEncoders are the encoders recorded in parallel, in submission order after EncoderPrepareUpload.
var recordedEncoders = [...]string{
	EncoderInterface,
	EncoderPicker,
	EncoderDirectionalShadow,
	EncoderPointShadow,
	EncoderLightCullingForward,
	EncoderPostProcessing,
}

// panicError carries a panic out of a worker so it can be re-raised on the frame goroutine.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic in frame worker: %v", p.value)
}

func (e *engine) RenderNextFrame(frame gpu.SurfaceTexture, instr *instruction.RenderInstruction) {
	if n := len(instr.PointShadowCasters); n > light.MaxPointLightShadowCasters {
		panic(fmt.Sprintf("render next frame: %d point shadow casters, at most %d supported", n, light.MaxPointLightShadowCasters))
	}
	c := e.context
	if c == nil {
		panic("render next frame: no engine context, call WaitForNextFrame first")
	}

	e.pacer.BeginFrameStage(frame_pacer.StageCPU)

	instruction.SortEntities(instr.Entities, &e.entitySortBuffer)
	instruction.SortModelBatches(instr.ModelBatches, instr.Models, &e.modelSortBuffer)

	e.belt.Recall()
	e.prepare(c, instr)

	upload := e.createEncoder(EncoderPrepareUpload)
	e.upload(c, upload)

	buffers := make([]gpu.CommandBuffer, 0, len(recordedEncoders)+1)
	buffers = append(buffers, finishEncoder(EncoderPrepareUpload, upload))
	buffers = append(buffers, e.record(c, frame, instr)...)

	e.belt.Finish()
	c.picker.RequestReadBack()
	c.sdsm.RequestReadBack()

	e.pacer.EndFrameStage(frame_pacer.StageGPU)
	e.device.Poll(true)

	e.queue.Submit(buffers...)
	e.pacer.BeginFrameStage(frame_pacer.StageGPU)

	frame.Present()
	e.pacer.EndFrameStage(frame_pacer.StageCPU)

	if e.profilingEnabled {
		e.profiler.Tick(e.pacer.Stats())
	}
}

// prepare fans the drawer prepares out to the worker pool. Jobs touch disjoint drawers and read the instruction
// snapshot only. The global and pass context prepares run on the calling goroutine after the join.
func (e *engine) prepare(c *EngineContext, instr *instruction.RenderInstruction) {
	device := e.device
	jobs := []func(){
		func() {
			c.directionalShadowEntity.Prepare(device, instr)
			c.directionalShadowModel.Prepare(device, instr)
		},
		func() {
			c.forwardEntity.Prepare(device, instr)
			c.forwardModel.Prepare(device, instr)
			c.forwardIndicator.Prepare(device, instr)
		},
		func() {
			c.interfaceRectangle.Prepare(device, instr)
			c.waterWave.Prepare(device, instr)
		},
		func() {
			c.pointShadowEntity.Prepare(device, instr)
			c.pointShadowModel.Prepare(device, instr)
		},
		func() {
			c.effect.Prepare(device, instr)
			c.postProcessingRectangle.Prepare(device, instr)
		},
		func() {
			c.lightCulling.Prepare(instr)
		},
	}
	for _, x := range e.extensions {
		jobs = append(jobs, func() { x.Prepare(device, instr) })
	}

	// The pool is shared across frames; a WaitGroup is the per-frame barrier.
	var (
		wg        sync.WaitGroup
		panicMu   sync.Mutex
		recovered any
	)
	for i, job := range jobs {
		wg.Add(1)
		e.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						panicMu.Lock()
						if recovered == nil {
							recovered = r
						}
						panicMu.Unlock()
					}
				}()
				job()
				return nil, nil
			},
		})
	}
	wg.Wait()
	if recovered != nil {
		panic(recovered)
	}

	c.global.Prepare(instr)
	c.forward.Prepare(instr)
	c.directionalShadow.Prepare(instr)
	c.pointShadow.Prepare(instr)
	c.pickerEntity.Prepare(device, instr)
	c.pickerTile.Prepare(device, instr)
}

// upload writes every prepared buffer through the staging belt. It is serial because all writes share the belt.
func (e *engine) upload(c *EngineContext, encoder gpu.CommandEncoder) {
	belt := e.belt
	c.global.Upload(belt, encoder)
	c.forward.Upload(belt, encoder)
	c.directionalShadow.Upload(belt, encoder)
	c.pointShadow.Upload(belt, encoder)
	c.lightCulling.Upload(belt, encoder)
	c.cmaa2.Upload(belt, encoder)
	c.sdsm.Upload(belt, encoder)

	c.forwardEntity.Upload(belt, encoder)
	c.forwardModel.Upload(belt, encoder)
	c.forwardIndicator.Upload(belt, encoder)
	c.waterWave.Upload(belt, encoder)
	c.directionalShadowEntity.Upload(belt, encoder)
	c.directionalShadowModel.Upload(belt, encoder)
	c.pointShadowEntity.Upload(belt, encoder)
	c.pointShadowModel.Upload(belt, encoder)
	c.pickerEntity.Upload(belt, encoder)
	c.pickerTile.Upload(belt, encoder)
	c.interfaceRectangle.Upload(belt, encoder)
	c.effect.Upload(belt, encoder)
	c.postProcessingRectangle.Upload(belt, encoder)

	for _, x := range e.extensions {
		x.Upload(belt, encoder)
	}
}

// record records the six frame encoders in parallel and returns their command buffers in submission order.
// A panic in any recorder is re-raised here after all recorders returned.
func (e *engine) record(c *EngineContext, frame gpu.SurfaceTexture, instr *instruction.RenderInstruction) []gpu.CommandBuffer {
	recorders := map[string]func(gpu.CommandEncoder){
		EncoderInterface:           func(enc gpu.CommandEncoder) { e.recordInterface(c, enc, instr) },
		EncoderPicker:              func(enc gpu.CommandEncoder) { e.recordPicker(c, enc, instr) },
		EncoderDirectionalShadow:   func(enc gpu.CommandEncoder) { e.recordDirectionalShadow(c, enc, instr) },
		EncoderPointShadow:         func(enc gpu.CommandEncoder) { e.recordPointShadow(c, enc, instr) },
		EncoderLightCullingForward: func(enc gpu.CommandEncoder) { e.recordLightCullingForward(c, enc, instr) },
		EncoderPostProcessing:      func(enc gpu.CommandEncoder) { e.recordPostProcessing(c, enc, frame, instr) },
	}

	buffers := make([]gpu.CommandBuffer, len(recordedEncoders))
	var group errgroup.Group
	for i, label := range recordedEncoders {
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panicError{value: r}
				}
			}()
			enc := e.createEncoder(label)
			recorders[label](enc)
			buffers[i] = finishEncoder(label, enc)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if p, ok := err.(panicError); ok {
			panic(p.value)
		}
		panic(err)
	}
	return buffers
}

func (e *engine) recordInterface(c *EngineContext, enc gpu.CommandEncoder, instr *instruction.RenderInstruction) {
	p := c.interfaceContext.CreatePass(enc, c.global, pass.NoPassData{})
	c.interfaceRectangle.Draw(p, drawer.NoDrawData{})
	e.recordHook(HookInterface, p, instr)
	p.End()
}

func (e *engine) recordPicker(c *EngineContext, enc gpu.CommandEncoder, instr *instruction.RenderInstruction) {
	p := c.picker.CreatePass(enc, c.global, pass.NoPassData{})
	c.pickerTile.Draw(p, drawer.NoDrawData{})
	c.pickerEntity.Draw(p, c.pickerEntity.All())
	e.recordHook(HookPicker, p, instr)
	p.End()
	c.picker.CopyTexel(enc, c.global, instr.PickerPosition)

	cp := c.selector.CreatePass(enc, c.global, pass.NoPassData{})
	c.selectorDispatcher.Dispatch(cp, drawer.NoDrawData{})
	cp.End()
}

func (e *engine) recordDirectionalShadow(c *EngineContext, enc gpu.CommandEncoder, instr *instruction.RenderInstruction) {
	partitions := instr.DirectionalShadowPartitions
	if len(partitions) > light.MaxDirectionalShadowPartitions {
		partitions = partitions[:light.MaxDirectionalShadowPartitions]
	}
	for i, partition := range partitions {
		p := c.directionalShadow.CreatePass(enc, c.global, i)
		c.directionalShadowModel.Draw(p, partition.ModelBatches)
		c.directionalShadowEntity.Draw(p, partition.Entities)
		p.End()
	}
}

func (e *engine) recordPointShadow(c *EngineContext, enc gpu.CommandEncoder, instr *instruction.RenderInstruction) {
	for caster := range instr.PointShadowCasters {
		for face, f := range instr.PointShadowCasters[caster].Faces {
			p := c.pointShadow.CreatePass(enc, c.global, pass.PointShadowPassData{Caster: caster, Face: face})
			c.pointShadowModel.Draw(p, f.ModelBatches)
			c.pointShadowEntity.Draw(p, f.Entities)
			p.End()
		}
	}
}

func (e *engine) recordLightCullingForward(c *EngineContext, enc gpu.CommandEncoder, instr *instruction.RenderInstruction) {
	cp := c.lightCulling.CreatePass(enc, c.global, pass.NoPassData{})
	tilesX, tilesY := c.lightCulling.TileCounts()
	c.lightCullingDispatcher.Dispatch(cp, drawer.LightCullingDispatchData{
		TileCountX: tilesX,
		TileCountY: tilesY,
		LightCount: c.lightCulling.LightCount(),
	})
	cp.End()

	p := c.forward.CreatePass(enc, c.global, pass.NoPassData{})
	c.forwardModel.Draw(p, c.forwardModel.All())
	c.forwardEntity.Draw(p, c.forwardEntity.All())
	c.waterWave.Draw(p, drawer.NoDrawData{})
	c.forwardIndicator.Draw(p, drawer.NoDrawData{})
	e.recordHook(HookForward, p, instr)
	p.End()

	cp = c.sdsm.CreatePass(enc, c.global, pass.NoPassData{})
	c.sdsmDispatcher.Dispatch(cp, drawer.ScreenDispatchData{Size: c.sdsm.DispatchSize(c.global)})
	cp.End()
	c.sdsm.CopyBounds(enc)
}

// recordPostProcessing resolves the forward color, applies the configured anti-aliasing and blits onto the
// swapchain texture. The anti-aliasing branch follows the engine settings; resources of another variant panic.
func (e *engine) recordPostProcessing(c *EngineContext, enc gpu.CommandEncoder, frame gpu.SurfaceTexture, instr *instruction.RenderInstruction) {
	g := c.global
	p := c.postProcessing.CreatePass(enc, g, pass.PostProcessingStageMain)
	c.resolve.Draw(p, drawer.NoDrawData{})
	c.effect.Draw(p, drawer.NoDrawData{})
	c.postProcessingRectangle.Draw(p, drawer.NoDrawData{})
	p.End()

	switch e.settings.ScreenSpaceAntiAliasing {
	case global.ScreenSpaceAntiAliasingCMAA2:
		g.CMAA2Resources()
		cp := c.cmaa2.CreatePass(enc, g, pass.NoPassData{})
		for _, stage := range c.cmaa2Stages {
			stage.Dispatch(cp, drawer.ScreenDispatchData{Size: g.ScreenSize})
		}
		cp.End()
	case global.ScreenSpaceAntiAliasingFXAA:
		g.FXAAResources()
		fp := c.postProcessing.CreatePass(enc, g, pass.PostProcessingStageFXAA)
		c.fxaa.Draw(fp, drawer.NoDrawData{})
		fp.End()
	}

	bp := c.screenBlit.CreatePass(enc, g, frame.View())
	c.screenBlitDrawer.Draw(bp, drawer.NoDrawData{})
	e.recordHook(HookScreen, bp, instr)
	bp.End()
}

func (e *engine) recordHook(hook ExtensionHook, p gpu.RenderPass, instr *instruction.RenderInstruction) {
	for _, x := range e.extensions {
		x.Record(hook, p, instr)
	}
}

func (e *engine) createEncoder(label string) gpu.CommandEncoder {
	enc, err := e.device.CreateCommandEncoder(label)
	if err != nil {
		panic(fmt.Errorf("create %s encoder: %w", label, err))
	}
	return enc
}

func finishEncoder(label string, enc gpu.CommandEncoder) gpu.CommandBuffer {
	buffer, err := enc.Finish()
	if err != nil {
		panic(fmt.Errorf("finish %s encoder: %w", label, err))
	}
	return buffer
}
