package engine

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/frame_pacer"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/Carmen-Shannon/oxy-ro/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/staging_belt"
	"github.com/Carmen-Shannon/oxy-ro/engine/surface"
)

// DefaultStagingChunkSize is the staging belt chunk size used unless WithStagingChunkSize is given.
const DefaultStagingChunkSize = 1 << 20

// engine implements the Engine interface.
// It owns the surface, the engine context built for the surface format, and the per-frame infrastructure shared by
// all frames: the staging belt, the frame pacer and the prepare worker pool.
type engine struct {
	device gpu.Device
	queue  gpu.Queue

	layouts *layout.LayoutCache
	belt    *staging_belt.StagingBelt
	pacer   *frame_pacer.FramePacer
	pool    worker.DynamicWorkerPool

	surface *surface.Surface
	context *EngineContext

	// settings are the requested settings; the context holds the effective ones after capability checks.
	settings   global.GraphicsSettings
	extensions []Extension

	profiler         *profiler.Profiler
	profilingEnabled bool

	workers          int
	monitorFrequency float64
	stagingChunkSize uint64

	entitySortBuffer []instruction.EntityInstruction
	modelSortBuffer  []instruction.ModelInstruction
}

// Engine is the render orchestrator of the client.
// The host drives it from one goroutine: WaitForNextFrame acquires the next swapchain texture and RenderNextFrame
// renders a RenderInstruction into it. Settings can be changed between frames.
type Engine interface {
	// ResumeSurface hands the engine a presentation surface. The surface is configured on the next WaitForNextFrame.
	//
	// Parameters:
	//   - s: the host surface
	//   - size: the window size in physical pixels
	ResumeSurface(s gpu.Surface, size common.ScreenSize)

	// SuspendSurface drops the surface. The engine context is kept and reused if the next surface has the same format.
	SuspendSurface()

	// Resize records a new window size. Attachments are recreated on the next WaitForNextFrame.
	//
	// Parameters:
	//   - size: the window size in physical pixels
	Resize(size common.ScreenSize)

	// WaitForNextFrame applies pending surface changes, builds the engine context if needed, paces the frame when
	// the framerate limit is on, and acquires the next swapchain texture.
	// Panics if no surface was resumed or no texture could be acquired.
	//
	// Returns:
	//   - gpu.SurfaceTexture: the texture to render into
	WaitForNextFrame() gpu.SurfaceTexture

	// RenderNextFrame renders one frame into an acquired texture and presents it. Entities and the models of each
	// batch are sorted in place.
	// Panics if there are more than light.MaxPointLightShadowCasters point shadow casters.
	//
	// Parameters:
	//   - frame: the texture returned by WaitForNextFrame
	//   - instruction: the frame snapshot
	RenderNextFrame(frame gpu.SurfaceTexture, instruction *instruction.RenderInstruction)

	SetVsync(enabled bool)
	SetTripleBuffering(enabled bool)
	SetFramerateLimit(enabled bool)

	// SetMonitorFrequency sets the refresh rate the framerate limit paces to.
	SetMonitorFrequency(frequency float64)

	SetTextureSamplerType(samplerType global.TextureSamplerType)
	SetScreenSpaceAntiAliasing(mode global.ScreenSpaceAntiAliasing)

	// SetMSAA recreates the forward attachments and every pipeline whose sample count or layout depends on the
	// MSAA level.
	SetMSAA(msaa global.MSAA)

	// SetSSAA requests a supersampling level. The effective level is the highest one whose forward attachments
	// fit under the device texture limit.
	SetSSAA(ssaa global.SSAA)

	SetShadowDetail(detail global.ShadowDetail)

	// SetHighQualityInterface requests rendering the interface at twice the screen resolution. It is disabled if
	// the attachment would not fit under the device texture limit.
	SetHighQualityInterface(enabled bool)

	// Settings returns the requested settings.
	//
	// Returns:
	//   - global.GraphicsSettings: the settings as last set
	Settings() global.GraphicsSettings

	// PickerValue returns the raw picker value read back from an earlier frame.
	PickerValue() uint64

	// PickerTarget decodes PickerValue.
	//
	// Returns:
	//   - picker.Target: the target under the picker position
	//   - bool: false if nothing is under the picker position
	PickerTarget() (picker.Target, bool)

	// DepthBounds returns the view distance range of the samples visible in an earlier frame, reduced on the GPU.
	// Hosts fit the directional shadow partitions of the next instructions to it.
	//
	// Returns:
	//   - near: the closest visible distance
	//   - far: the farthest visible distance
	//   - ok: false before the first read-back or when nothing was visible
	DepthBounds() (near, far float32, ok bool)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine on a device with the provided options.
// The engine context is created lazily on the first WaitForNextFrame after a surface was resumed.
//
// Parameters:
//   - device: the device all resources are created on
//   - queue: the queue frames are submitted to
//   - options: functional options for engine configuration (settings, workers, extensions, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(device gpu.Device, queue gpu.Queue, options ...EngineBuilderOption) Engine {
	e := &engine{
		device:           device,
		queue:            queue,
		settings:         global.DefaultGraphicsSettings(),
		profiler:         profiler.NewProfiler(),
		workers:          runtime.NumCPU(),
		monitorFrequency: 60,
		stagingChunkSize: DefaultStagingChunkSize,
	}

	for _, opt := range options {
		opt(e)
	}

	e.layouts = layout.NewLayoutCache(device)
	e.belt = staging_belt.NewStagingBelt(device, e.stagingChunkSize)
	e.pacer = frame_pacer.NewFramePacer(e.monitorFrequency)
	e.pool = worker.NewDynamicWorkerPool(max(e.workers, 1), 256, 1*time.Second)
	return e
}

func (e *engine) ResumeSurface(s gpu.Surface, size common.ScreenSize) {
	e.surface = surface.NewSurface(s, size, e.settings.Vsync, e.settings.TripleBuffering)
	common.LogDebug("surface resumed at %dx%d", size.Width, size.Height)
}

func (e *engine) SuspendSurface() {
	e.surface = nil
	common.LogDebug("surface suspended")
}

func (e *engine) Resize(size common.ScreenSize) {
	if e.surface != nil {
		e.surface.Resize(size)
	}
}

func (e *engine) WaitForNextFrame() gpu.SurfaceTexture {
	if e.surface == nil {
		panic(fmt.Errorf("wait for next frame: %w", surface.ErrSurfaceNotResumed))
	}

	if e.surface.Invalid() {
		formatChanged, err := e.surface.Reconfigure()
		if err != nil {
			panic(fmt.Errorf("wait for next frame: %w", err))
		}
		if formatChanged {
			e.context = nil
		}
	}

	// Acquire may reconfigure internally, so a format change can also surface here one frame late.
	size := e.surface.Size()
	switch {
	case e.context != nil && e.context.SurfaceFormat != e.surface.Format():
		common.LogDebug("surface format changed from %d to %d, rebuilding engine context", e.context.SurfaceFormat, e.surface.Format())
		e.context = nil
		fallthrough
	case e.context == nil:
		e.context = newEngineContext(e.device, e.layouts, e.surface.Format(), size, e.effectiveSettings(size), e.extensions)
	case e.context.global.ScreenSize != size:
		e.resize(size)
	}

	if e.settings.FramerateLimit {
		e.pacer.WaitForFrame()
	}

	frame, err := e.surface.Acquire()
	if err != nil {
		panic(fmt.Errorf("wait for next frame: %w", err))
	}
	return frame
}

// effectiveSettings applies the capability checks for a screen size to the requested settings.
func (e *engine) effectiveSettings(size common.ScreenSize) global.GraphicsSettings {
	s := e.settings
	maxDimension := e.device.Limits().MaxTextureDimension2D
	s.HighQualityInterface = global.CheckHighQualityInterface(e.settings.HighQualityInterface, size, maxDimension)
	s.SSAA = global.CheckSupersampling(e.settings.SSAA, size, maxDimension)
	if s.HighQualityInterface != e.settings.HighQualityInterface {
		common.LogDebug("high quality interface disabled at %dx%d, max texture dimension %d", size.Width, size.Height, maxDimension)
	}
	if s.SSAA != e.settings.SSAA {
		common.LogDebug("supersampling reduced from %s to %s at %dx%d", e.settings.SSAA, s.SSAA, size.Width, size.Height)
	}
	return s
}

// resize re-runs the capability checks for the new size and recreates every screen-size dependent attachment.
func (e *engine) resize(size common.ScreenSize) {
	effective := e.effectiveSettings(size)
	g := e.context.global
	g.SSAA = effective.SSAA
	g.HighQualityInterface = effective.HighQualityInterface
	e.context.resize(size)
	common.LogDebug("engine context %s resized to %dx%d", e.context.ID, size.Width, size.Height)
}

func (e *engine) SetVsync(enabled bool) {
	e.settings.Vsync = enabled
	if e.surface != nil {
		e.surface.SetVsync(enabled)
	}
}

func (e *engine) SetTripleBuffering(enabled bool) {
	e.settings.TripleBuffering = enabled
	if e.surface != nil {
		e.surface.SetTripleBuffering(enabled)
	}
}

func (e *engine) SetFramerateLimit(enabled bool) {
	e.settings.FramerateLimit = enabled
}

func (e *engine) SetMonitorFrequency(frequency float64) {
	e.monitorFrequency = frequency
	e.pacer.SetMonitorFrequency(frequency)
}

func (e *engine) SetTextureSamplerType(samplerType global.TextureSamplerType) {
	e.settings.TextureSampler = samplerType
	if c := e.context; c != nil && c.global.TextureSamplerType != samplerType {
		c.global.UpdateTextureSamplerType(samplerType)
	}
}

func (e *engine) SetScreenSpaceAntiAliasing(mode global.ScreenSpaceAntiAliasing) {
	e.settings.ScreenSpaceAntiAliasing = mode
	if c := e.context; c != nil && c.global.ScreenSpaceAntiAliasing() != mode {
		c.global.UpdateScreenSpaceAntiAliasing(mode)
		c.updateAntiAliasing()
	}
}

func (e *engine) SetMSAA(msaa global.MSAA) {
	e.settings.MSAA = msaa
	if c := e.context; c != nil && c.global.MSAA != msaa {
		c.updateMSAA(msaa)
	}
}

func (e *engine) SetSSAA(ssaa global.SSAA) {
	e.settings.SSAA = ssaa
	c := e.context
	if c == nil {
		return
	}
	effective := e.effectiveSettings(c.global.ScreenSize).SSAA
	if c.global.SSAA != effective {
		c.global.UpdateSSAA(effective)
		c.updateForwardSize()
	}
}

func (e *engine) SetShadowDetail(detail global.ShadowDetail) {
	e.settings.ShadowDetail = detail
	if c := e.context; c != nil && c.global.ShadowDetail != detail {
		c.global.UpdateShadowDetail(detail)
		c.updateShadowMaps()
	}
}

func (e *engine) SetHighQualityInterface(enabled bool) {
	e.settings.HighQualityInterface = enabled
	c := e.context
	if c == nil {
		return
	}
	effective := e.effectiveSettings(c.global.ScreenSize).HighQualityInterface
	if c.global.HighQualityInterface != effective {
		c.global.UpdateHighQualityInterface(effective)
		c.updateInterface()
	}
}

func (e *engine) Settings() global.GraphicsSettings {
	return e.settings
}

func (e *engine) PickerValue() uint64 {
	if e.context == nil {
		return 0
	}
	return e.context.picker.Value()
}

func (e *engine) PickerTarget() (picker.Target, bool) {
	return picker.Decode(e.PickerValue())
}

func (e *engine) DepthBounds() (near, far float32, ok bool) {
	if e.context == nil {
		return 0, 0, false
	}
	return e.context.sdsm.Bounds()
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}
