package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/Carmen-Shannon/oxy-ro/engine/picker"
	"github.com/go-gl/mathgl/mgl32"
)

func TestSceneInstruction(t *testing.T) {
	s := newViewerScene(common.ScreenSize{Width: 800, Height: 600})
	s.setCursor(common.ScreenPosition{X: 100, Y: 200})
	instr := s.instruction(0)

	if len(instr.Tiles) != gridSize*gridSize {
		t.Errorf("tiles = %d", len(instr.Tiles))
	}
	if last := instr.Tiles[len(instr.Tiles)-1]; last.X != gridSize-1 || last.Y != gridSize-1 {
		t.Errorf("last tile = %d,%d", last.X, last.Y)
	}
	if len(instr.Entities) != entityCount {
		t.Fatalf("entities = %d", len(instr.Entities))
	}
	for i, e := range instr.Entities {
		if e.Distance <= 0 || !e.AddToPicker || e.EntityID != uint32(i+1) {
			t.Errorf("entity %d = %+v", i, e)
		}
	}
	if instr.PickerPosition != (common.ScreenPosition{X: 100, Y: 200}) {
		t.Errorf("picker position = %v", instr.PickerPosition)
	}
	if instr.InterfaceRectangles.Len() != 2 {
		t.Errorf("interface rectangles = %d", instr.InterfaceRectangles.Len())
	}
	if target, ok := instr.Markers[1].Target.(picker.LightSourceMarker); !ok || target != 1 {
		t.Errorf("marker target = %v", instr.Markers[1].Target)
	}
}

func TestSceneSelectsShadowCasters(t *testing.T) {
	s := newViewerScene(common.ScreenSize{Width: 800, Height: 600})
	s.tick(0.1)
	instr := s.instruction(0)

	if len(instr.PointLights) != 2 || len(instr.PointShadowCasters) != 2 {
		t.Fatalf("lights = %d, casters = %d", len(instr.PointLights), len(instr.PointShadowCasters))
	}
	for i, l := range instr.PointLights {
		if l.ShadowIndex < 0 {
			t.Fatalf("light %d casts no shadow", i)
		}
		caster := instr.PointShadowCasters[l.ShadowIndex]
		if caster.Position != l.Position || caster.Extent <= 0 {
			t.Errorf("light %d mapped to caster at %v extent %v", i, caster.Position, caster.Extent)
		}
		if caster.Faces[0].Entities.Count != entityCount {
			t.Errorf("caster %d face entities = %+v", l.ShadowIndex, caster.Faces[0].Entities)
		}
	}
	if instr.PointLights[0].ShadowIndex == instr.PointLights[1].ShadowIndex {
		t.Error("both lights share one caster")
	}
}

func TestSceneTickMovesCamera(t *testing.T) {
	s := newViewerScene(common.ScreenSize{Width: 800, Height: 600})
	start := s.camera.Target()

	s.tick(1)
	if s.camera.Target() != start {
		t.Fatalf("camera moved without input: %v", s.camera.Target())
	}

	s.key(common.KeyW, true)
	s.tick(0.5)
	s.key(common.KeyW, false)
	s.tick(0.5)

	if got, want := s.camera.Target().Z(), start.Z()-cameraSpeed*0.5; got != want {
		t.Errorf("focus z = %v, want %v", got, want)
	}
	if s.timer != 2 {
		t.Errorf("timer = %v", s.timer)
	}
}

func TestCycleDebugBufferWraps(t *testing.T) {
	s := newViewerScene(common.ScreenSize{})
	var last instruction.DebugBuffer
	for range int(instruction.DebugBufferSDSM) + 1 {
		last = s.cycleDebugBuffer()
	}
	if last != instruction.DebugBufferNone {
		t.Errorf("buffer after a full cycle = %d", last)
	}
	if len(s.instruction(0).InterfaceRectangles.Top) != 0 {
		t.Error("interface drawn for an empty window")
	}
}

func TestSceneDragOrbitsCamera(t *testing.T) {
	s := newViewerScene(common.ScreenSize{Width: 800, Height: 600})
	s.setCursor(common.ScreenPosition{X: 100, Y: 100})
	before := s.camera.Position()

	s.setCursor(common.ScreenPosition{X: 150, Y: 100})
	if s.camera.Position() != before {
		t.Fatal("camera orbited without a drag")
	}

	s.setDragging(true)
	s.setCursor(common.ScreenPosition{X: 200, Y: 100})
	s.setDragging(false)
	if s.camera.Position() == before {
		t.Error("drag did not orbit the camera")
	}
	if s.camera.Target() != (mgl32.Vec3{40, 0, 40}) {
		t.Errorf("orbit moved the target to %v", s.camera.Target())
	}

	distance := s.camera.Distance()
	s.zoom(1)
	if s.camera.Distance() != distance-zoomSpeed {
		t.Errorf("distance after zoom = %v", s.camera.Distance())
	}
}

func TestSceneFitsPartitionsToDepthBounds(t *testing.T) {
	s := newViewerScene(common.ScreenSize{Width: 800, Height: 600})

	partitions := s.instruction(0).DirectionalShadowPartitions
	if len(partitions) != 4 {
		t.Fatalf("partitions = %d, want 4", len(partitions))
	}
	if first, last := partitions[0].Interval.X(), partitions[3].Interval.Y(); first != 1 || last != shadowDistance {
		t.Errorf("partitions without bounds span %v..%v, want 1..%v", first, last, shadowDistance)
	}

	s.depthBounds = func() (float32, float32, bool) { return 10, 90, true }
	partitions = s.instruction(0).DirectionalShadowPartitions
	if first, last := partitions[0].Interval.X(), partitions[3].Interval.Y(); first != 10 || last != 90 {
		t.Errorf("partitions span %v..%v, want 10..90", first, last)
	}
	if partitions[0].Entities.Count != entityCount {
		t.Errorf("partition entities = %+v", partitions[0].Entities)
	}
}
