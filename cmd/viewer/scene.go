package main

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/camera"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/light"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	gridSize    = 16
	tileSize    = float32(5)
	entityCount = 8
	cameraSpeed = float32(40)
	// orbitSpeed is the rotation in radians per pixel of a right button drag.
	orbitSpeed = float32(0.01)
	zoomSpeed  = float32(5)
	// shadowDistance is the view distance beyond which nothing renders into shadow maps.
	shadowDistance = float32(200)
)

var lightColor = mgl32.Vec3{1, 0.6, 0.3}

// viewerScene is a small synthetic map: a tile grid, a ring of entities circling its center, two point lights
// and an interface panel. The tick goroutine moves the camera; the render goroutine snapshots the scene.
type viewerScene struct {
	mu sync.Mutex

	camera   *camera.Camera
	held     map[uint32]bool
	timer    float32
	cursor   common.ScreenPosition
	size     common.ScreenSize
	buffer   instruction.DebugBuffer
	dragging bool

	lights   []light.PointLight
	selector *light.ShadowCasterSelector
	casters  []light.ShadowCaster

	// depthBounds reports the visible distance range of an earlier frame, nil until the engine exists.
	depthBounds func() (near, far float32, ok bool)
}

func newViewerScene(size common.ScreenSize) *viewerScene {
	center := float32(gridSize) * tileSize / 2
	s := &viewerScene{
		camera:   camera.NewCamera(camera.WithTarget(mgl32.Vec3{center, 0, center})),
		held:     make(map[uint32]bool),
		size:     size,
		selector: light.NewShadowCasterSelector(light.MaxPointLightShadowCasters, light.DefaultConsistencyBonus, light.DefaultVisibilityThreshold),
	}
	for i, x := range []float32{center - 25, center + 25} {
		s.lights = append(s.lights, light.NewPointLight(uint32(i),
			light.WithPosition(mgl32.Vec3{x, 8, center}),
			light.WithColor(lightColor),
			light.WithRange(30),
		))
	}
	s.camera.SetViewport(size)
	s.casters = s.selector.Select(s.camera.Position(), shadowDistance, s.lights)
	return s
}

func (s *viewerScene) key(code uint32, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[code] = pressed
}

// setCursor records the cursor and orbits the camera while the right button is held.
func (s *viewerScene) setCursor(pos common.ScreenPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragging {
		s.camera.Orbit((pos.X-s.cursor.X)*orbitSpeed, (pos.Y-s.cursor.Y)*orbitSpeed)
	}
	s.cursor = pos
}

func (s *viewerScene) setDragging(dragging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = dragging
}

func (s *viewerScene) zoom(delta float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Zoom(delta * zoomSpeed)
}

func (s *viewerScene) setSize(size common.ScreenSize) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
	s.camera.SetViewport(size)
}

// cycleDebugBuffer selects the next intermediate buffer and returns it.
func (s *viewerScene) cycleDebugBuffer() instruction.DebugBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = (s.buffer + 1) % (instruction.DebugBufferSDSM + 1)
	return s.buffer
}

func (s *viewerScene) tick(dt float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer += dt
	var forward, right float32
	if s.held[common.KeyW] {
		forward++
	}
	if s.held[common.KeyS] {
		forward--
	}
	if s.held[common.KeyD] {
		right++
	}
	if s.held[common.KeyA] {
		right--
	}
	if forward != 0 || right != 0 {
		s.camera.Pan(forward*cameraSpeed*dt, right*cameraSpeed*dt)
	}

	// The second light flickers like a torch.
	flicker := 0.85 + 0.15*float32(math.Sin(float64(s.timer*7)))
	s.lights[1].SetColor(lightColor.Mul(flicker))
	s.casters = s.selector.Select(s.camera.Position(), shadowDistance, s.lights)
}

// instruction builds the snapshot of the current frame.
func (s *viewerScene) instruction(float32) *instruction.RenderInstruction {
	instr := &instruction.RenderInstruction{
		Uniforms: instruction.Uniforms{
			AmbientColor:              mgl32.Vec3{0.35, 0.35, 0.4},
			DirectionalLightDirection: mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
			DirectionalLightColor:     mgl32.Vec3{1, 0.95, 0.85},
		},
	}

	s.mu.Lock()
	timer, cursor, size, buffer := s.timer, s.cursor, s.size, s.buffer
	focus := s.camera.Target()
	near, far := s.camera.ClipPlanes()
	s.camera.FillUniforms(&instr.Uniforms)
	light.AppendFrameLights(instr, s.lights, s.casters, instruction.Range{}, instruction.Range{Count: entityCount})
	depthBounds := s.depthBounds
	s.mu.Unlock()

	far = min(far, shadowDistance)
	if depthBounds != nil {
		if visibleNear, visibleFar, ok := depthBounds(); ok {
			near, far = visibleNear, min(visibleFar, shadowDistance)
		}
	}
	instr.DirectionalShadowPartitions = light.FitDirectionalPartitions(instr.Uniforms, instr.Uniforms.DirectionalLightDirection,
		near, far, light.MaxDirectionalShadowPartitions, instruction.Range{}, instruction.Range{Count: entityCount})

	eye := instr.Uniforms.CameraPosition
	instr.Uniforms.AnimationTimer = timer
	instr.PickerPosition = cursor
	instr.Settings = instruction.RenderSettings{
		ShowObjects:    true,
		ShowEntities:   true,
		ShowIndicators: true,
		FrustumCulling: true,
		ShowBuffer:     buffer,
	}

	instr.Tiles = make([]instruction.TileInstruction, 0, gridSize*gridSize)
	for y := range gridSize {
		for x := range gridSize {
			x0, z0 := float32(x)*tileSize, float32(y)*tileSize
			instr.Tiles = append(instr.Tiles, instruction.TileInstruction{
				Corners: [4]mgl32.Vec3{
					{x0, 0, z0},
					{x0 + tileSize, 0, z0},
					{x0, 0, z0 + tileSize},
					{x0 + tileSize, 0, z0 + tileSize},
				},
				X: uint16(x),
				Y: uint16(y),
			})
		}
	}

	center := float32(gridSize) * tileSize / 2
	for i := range entityCount {
		angle := timer*0.5 + float32(i)*2*math.Pi/entityCount
		pos := mgl32.Vec3{
			center + 20*float32(math.Cos(float64(angle))),
			5,
			center + 20*float32(math.Sin(float64(angle))),
		}
		world := mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).Mul4(mgl32.Scale3D(5, 10, 1))
		instr.Entities = append(instr.Entities, instruction.EntityInstruction{
			World:       world,
			TextureSize: mgl32.Vec2{1, 1},
			Color:       mgl32.Vec4{0.5 + 0.5*float32(i%2), 0.4, 1 - 0.1*float32(i), 1},
			Distance:    common.ViewDistance(eye, world),
			EntityID:    uint32(i + 1),
			AddToPicker: true,
			Mirror:      i%2 == 1,
		})
		instr.AABBs = append(instr.AABBs, instruction.AABBInstruction{
			World: world,
			Color: mgl32.Vec4{0, 1, 0, 1},
		})
	}

	for i, l := range instr.PointLights {
		pos := l.Position
		instr.Circles = append(instr.Circles, instruction.CircleInstruction{
			Position: mgl32.Vec3{pos.X(), 0.1, pos.Z()},
			Radius:   l.Range,
			Color:    lightColor.Vec4(1),
		})
		instr.Markers = append(instr.Markers, instruction.MarkerInstruction{
			Position: mgl32.Vec2{16 + 40*float32(i), 16},
			Size:     mgl32.Vec2{32, 32},
			Color:    mgl32.Vec4{1, 1, 0, 1},
			Target:   picker.LightSourceMarker(i),
		})
	}

	instr.Indicator = &instruction.IndicatorInstruction{
		Corners: [4]mgl32.Vec3{
			{focus.X() - tileSize/2, 0.05, focus.Z() - tileSize/2},
			{focus.X() + tileSize/2, 0.05, focus.Z() - tileSize/2},
			{focus.X() - tileSize/2, 0.05, focus.Z() + tileSize/2},
			{focus.X() + tileSize/2, 0.05, focus.Z() + tileSize/2},
		},
		Color: mgl32.Vec4{1, 1, 1, 0.8},
	}

	if !size.Empty() {
		instr.InterfaceRectangles.Bottom = append(instr.InterfaceRectangles.Bottom, instruction.RectangleInstruction{
			Kind:     instruction.RectangleSolid,
			Position: mgl32.Vec2{0, float32(size.Height) - 48},
			Size:     mgl32.Vec2{float32(size.Width), 48},
			Color:    mgl32.Vec4{0.05, 0.05, 0.1, 0.75},
			ClipRect: mgl32.Vec4{0, 0, float32(size.Width), float32(size.Height)},
		})
		instr.InterfaceRectangles.Top = append(instr.InterfaceRectangles.Top, instruction.RectangleInstruction{
			Kind:         instruction.RectangleSolid,
			Position:     mgl32.Vec2{cursor.X - 4, cursor.Y - 4},
			Size:         mgl32.Vec2{8, 8},
			Color:        mgl32.Vec4{1, 1, 1, 1},
			ClipRect:     mgl32.Vec4{0, 0, float32(size.Width), float32(size.Height)},
			CornerRadius: mgl32.Vec4{4, 4, 4, 4},
		})
	}
	return instr
}
