package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/drawer"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/pass"
	"github.com/google/uuid"
)

// EngineContext is every pass context and drawer of one surface format. It is built on the first frame after a
// surface was resumed and rebuilt from scratch when the surface format changes. The drawer set is closed: every
// drawer.Kind maps to exactly one field, see msaaDependent.
type EngineContext struct {
	// ID distinguishes rebuilt contexts in logs.
	ID            uuid.UUID
	SurfaceFormat gpu.TextureFormat

	device     gpu.Device
	layouts    *layout.LayoutCache
	env        drawer.Env
	extensions []Extension

	global *global.GlobalContext

	interfaceContext  *pass.InterfaceContext
	picker            *pass.PickerContext
	directionalShadow *pass.DirectionalShadowContext
	pointShadow       *pass.PointShadowContext
	lightCulling      *pass.LightCullingContext
	forward           *pass.ForwardContext
	postProcessing    *pass.PostProcessingContext
	cmaa2             *pass.CMAA2Context
	sdsm              *pass.SDSMContext
	selector          *pass.SelectorContext
	screenBlit        *pass.ScreenBlitContext

	forwardEntity    *drawer.EntityDrawer
	forwardModel     *drawer.ModelDrawer
	forwardIndicator *drawer.IndicatorDrawer
	waterWave        *drawer.WaterWaveDrawer

	directionalShadowEntity *drawer.EntityDrawer
	directionalShadowModel  *drawer.ModelDrawer
	pointShadowEntity       *drawer.EntityDrawer
	pointShadowModel        *drawer.ModelDrawer

	pickerEntity *drawer.EntityDrawer
	pickerTile   *drawer.TileDrawer

	lightCullingDispatcher *drawer.LightCullingDispatcher
	sdsmDispatcher         *drawer.SDSMDispatcher
	selectorDispatcher     *drawer.SelectorDispatcher

	interfaceRectangle      *drawer.RectangleDrawer
	effect                  *drawer.EffectDrawer
	postProcessingRectangle *drawer.RectangleDrawer
	resolve                 *drawer.FullscreenDrawer
	fxaa                    *drawer.FullscreenDrawer
	cmaa2Stages             [4]*drawer.CMAA2Dispatcher
	screenBlitDrawer        *drawer.FullscreenDrawer
}

// newEngineContext creates the global context and every pass context and drawer for a surface format. The settings
// must already have passed the capability checks.
func newEngineContext(device gpu.Device, layouts *layout.LayoutCache, surfaceFormat gpu.TextureFormat, size common.ScreenSize, settings global.GraphicsSettings, extensions []Extension) *EngineContext {
	g := global.NewGlobalContext(device, layouts, surfaceFormat, size, settings)
	c := &EngineContext{
		ID:            uuid.New(),
		SurfaceFormat: surfaceFormat,
		device:        device,
		layouts:       layouts,
		env:           drawer.NewEnv(device, layouts, g.EmptyTexture.View),
		extensions:    extensions,
		global:        g,
	}

	c.interfaceContext = pass.NewInterfaceContext()
	c.picker = pass.NewPickerContext(device)
	c.directionalShadow = pass.NewDirectionalShadowContext(device, layouts)
	c.pointShadow = pass.NewPointShadowContext(device, layouts)
	c.lightCulling = pass.NewLightCullingContext(device, layouts, g)
	c.selector = pass.NewSelectorContext(device, layouts, g)
	c.forward = pass.NewForwardContext(device, layouts, g, c.lightCulling, c.selector)
	c.postProcessing = pass.NewPostProcessingContext(device, layouts, g)
	c.cmaa2 = pass.NewCMAA2Context(device, layouts, g)
	c.sdsm = pass.NewSDSMContext(device, layouts, g)
	c.screenBlit = pass.NewScreenBlitContext(device, layouts, g)

	env, msaa := c.env, g.MSAA
	forwardLayouts := c.forward.BindGroupLayouts(layouts)
	postLayouts := c.postProcessing.BindGroupLayouts(layouts)
	interfaceLayouts := c.interfaceContext.BindGroupLayouts(layouts)
	pickerLayouts := c.picker.BindGroupLayouts(layouts)
	directionalLayouts := c.directionalShadow.BindGroupLayouts(layouts)
	pointLayouts := c.pointShadow.BindGroupLayouts(layouts)
	screenLayouts := c.screenBlit.BindGroupLayouts(layouts)

	c.forwardEntity = drawer.NewEntityDrawer(env, drawer.KindForwardEntity, forwardLayouts, msaa)
	c.forwardModel = drawer.NewModelDrawer(env, drawer.KindForwardModel, forwardLayouts, msaa)
	c.forwardIndicator = drawer.NewIndicatorDrawer(env, forwardLayouts, msaa)
	c.waterWave = drawer.NewWaterWaveDrawer(env, forwardLayouts, msaa)

	c.directionalShadowEntity = drawer.NewEntityDrawer(env, drawer.KindDirectionalShadowEntity, directionalLayouts, msaa)
	c.directionalShadowModel = drawer.NewModelDrawer(env, drawer.KindDirectionalShadowModel, directionalLayouts, msaa)
	c.pointShadowEntity = drawer.NewEntityDrawer(env, drawer.KindPointShadowEntity, pointLayouts, msaa)
	c.pointShadowModel = drawer.NewModelDrawer(env, drawer.KindPointShadowModel, pointLayouts, msaa)

	c.pickerEntity = drawer.NewEntityDrawer(env, drawer.KindPickerEntity, pickerLayouts, msaa)
	c.pickerTile = drawer.NewTileDrawer(env, pickerLayouts)

	c.lightCullingDispatcher = drawer.NewLightCullingDispatcher(env, c.lightCulling.BindGroupLayouts(layouts))
	c.sdsmDispatcher = drawer.NewSDSMDispatcher(env, c.sdsm.BindGroupLayouts(layouts))
	c.selectorDispatcher = drawer.NewSelectorDispatcher(env, c.selector.BindGroupLayouts(layouts))

	c.interfaceRectangle = drawer.NewRectangleDrawer(env, drawer.KindInterfaceRectangle, interfaceLayouts)
	c.effect = drawer.NewEffectDrawer(env, postLayouts)
	c.postProcessingRectangle = drawer.NewRectangleDrawer(env, drawer.KindPostProcessingRectangle, postLayouts)
	c.resolve = drawer.NewResolveDrawer(env, postLayouts, msaa)
	c.fxaa = drawer.NewFXAADrawer(env, c.postProcessing.FXAABindGroupLayouts(layouts))
	c.cmaa2Stages = drawer.NewCMAA2Dispatchers(env, c.cmaa2.BindGroupLayouts(layouts), msaa)
	c.screenBlitDrawer = drawer.NewScreenBlitDrawer(env, screenLayouts, surfaceFormat)

	for _, x := range extensions {
		x.Attach(ExtensionEnv{
			Drawer:           env,
			Global:           g,
			LightCulling:     c.lightCulling,
			SurfaceFormat:    surfaceFormat,
			InterfaceLayouts: interfaceLayouts,
			PickerLayouts:    pickerLayouts,
			ForwardLayouts:   forwardLayouts,
			ScreenLayouts:    screenLayouts,
		})
	}

	common.LogDebug("engine context %s created: format %d, %dx%d, %s", c.ID, surfaceFormat, size.Width, size.Height, msaa)
	return c
}

// msaaDependent maps a kind to its drawer and the pass layouts it is rebuilt against. Kinds whose pipelines do not
// embed the sample count, and the debug kinds owned by extensions, map to nil.
func (c *EngineContext) msaaDependent(kind drawer.Kind) (drawer.MSAADependent, []gpu.BindGroupLayout) {
	switch kind {
	case drawer.KindForwardEntity:
		return c.forwardEntity, c.forward.BindGroupLayouts(c.layouts)
	case drawer.KindForwardModel:
		return c.forwardModel, c.forward.BindGroupLayouts(c.layouts)
	case drawer.KindForwardIndicator:
		return c.forwardIndicator, c.forward.BindGroupLayouts(c.layouts)
	case drawer.KindWaterWave:
		return c.waterWave, c.forward.BindGroupLayouts(c.layouts)
	case drawer.KindEffect:
		return c.effect, c.postProcessing.BindGroupLayouts(c.layouts)
	case drawer.KindPostProcessingRectangle:
		return c.postProcessingRectangle, c.postProcessing.BindGroupLayouts(c.layouts)
	case drawer.KindResolve:
		return c.resolve, c.postProcessing.BindGroupLayouts(c.layouts)
	case drawer.KindCMAA2EdgeColor, drawer.KindCMAA2ProcessCandidates,
		drawer.KindCMAA2ComputeDispatchArgs, drawer.KindCMAA2DeferredColorApply:
		return c.cmaa2Stages[kind-drawer.KindCMAA2EdgeColor], c.cmaa2.BindGroupLayouts(c.layouts)
	case drawer.KindDirectionalShadowEntity, drawer.KindDirectionalShadowModel,
		drawer.KindPointShadowEntity, drawer.KindPointShadowModel,
		drawer.KindPickerEntity, drawer.KindPickerTile,
		drawer.KindLightCulling, drawer.KindSDSM, drawer.KindSelector,
		drawer.KindInterfaceRectangle, drawer.KindFXAA, drawer.KindScreenBlit:
		return nil, nil
	case drawer.KindMarker, drawer.KindAABB, drawer.KindCircle, drawer.KindDebugBuffer:
		return nil, nil
	default:
		panic(fmt.Sprintf("drawer kind %s has no engine context field", kind))
	}
}

// updateMSAA recreates the forward attachments, the post processing context, and every pipeline embedding the
// sample count. Shadow, picker, FXAA and blit pipelines keep their identity.
func (c *EngineContext) updateMSAA(msaa global.MSAA) {
	c.global.UpdateMSAA(msaa)
	c.postProcessing = pass.NewPostProcessingContext(c.device, c.layouts, c.global)

	rebuilt := 0
	for _, kind := range drawer.Kinds() {
		if !kind.SampleCountDependent() {
			continue
		}
		d, passLayouts := c.msaaDependent(kind)
		if d == nil {
			continue
		}
		d.UpdateMSAA(c.device, msaa, passLayouts)
		rebuilt++
	}
	forwardLayouts := c.forward.BindGroupLayouts(c.layouts)
	for _, x := range c.extensions {
		x.UpdateMSAA(c.device, msaa, forwardLayouts)
	}
	common.LogDebug("engine context %s: %d drawers rebuilt for MSAA %s", c.ID, rebuilt, msaa)
}

// updateForwardSize rebinds everything reading the forward attachments or the light tile grid after the forward
// attachments were recreated at a new size.
func (c *EngineContext) updateForwardSize() {
	if c.lightCulling.Rebind(c.global) {
		c.forward.Rebind(c.global, c.lightCulling)
		c.rebindExtensions()
	}
	c.postProcessing.Rebind(c.global)
}

// updateShadowMaps rebinds the readers of the shadow maps.
func (c *EngineContext) updateShadowMaps() {
	c.forward.Rebind(c.global, c.lightCulling)
	c.rebindExtensions()
}

// updateAntiAliasing rebinds the readers of the anti-aliasing resources.
func (c *EngineContext) updateAntiAliasing() {
	c.cmaa2.Rebind(c.global)
	c.screenBlit.Rebind(c.global)
}

// updateInterface rebinds the blit after the interface attachment was recreated.
func (c *EngineContext) updateInterface() {
	c.screenBlit.Rebind(c.global)
}

// resize recreates every screen-size dependent attachment and rebinds all of their readers.
func (c *EngineContext) resize(size common.ScreenSize) {
	c.global.UpdateScreenSize(size)
	c.lightCulling.Rebind(c.global)
	c.forward.Rebind(c.global, c.lightCulling)
	c.postProcessing.Rebind(c.global)
	c.cmaa2.Rebind(c.global)
	c.sdsm.Rebind(c.global)
	c.selector.Rebind(c.global)
	c.screenBlit.Rebind(c.global)
	c.rebindExtensions()
}

func (c *EngineContext) rebindExtensions() {
	for _, x := range c.extensions {
		x.Rebind(c.global, c.lightCulling)
	}
}
