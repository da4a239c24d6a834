package light

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/instruction"
	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestPointLightExtent(t *testing.T) {
	tests := []struct {
		name  string
		color mgl32.Vec3
		rng   float32
		want  float32
	}{
		{"unit brightness reaches its range", mgl32.Vec3{1, 0.5, 0.2}, 10, 10},
		{"brighter reaches further", mgl32.Vec3{0, 10, 0}, 10, 15},
		{"dimmer reaches less far", mgl32.Vec3{0.1, 0, 0}, 10, 5},
		{"below threshold", mgl32.Vec3{0.005, 0.005, 0.005}, 10, 0},
		{"zero range", mgl32.Vec3{1, 1, 1}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointLightExtent(tt.color, tt.rng, DefaultVisibilityThreshold); !approx(got, tt.want) {
				t.Fatalf("PointLightExtent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointLightExtentDefaultsInvalidThreshold(t *testing.T) {
	color := mgl32.Vec3{2, 2, 2}
	if a, b := PointLightExtent(color, 8, 0), PointLightExtent(color, 8, DefaultVisibilityThreshold); a != b {
		t.Fatalf("threshold 0 gave %v, default gave %v", a, b)
	}
}

func TestSelectPrefersLargeAndBright(t *testing.T) {
	lights := []PointLight{
		NewPointLight(1, WithRange(5)),
		NewPointLight(2, WithRange(20)),
		NewPointLight(3, WithRange(50), WithCastsShadows(false)),
		NewPointLight(4, WithRange(10), WithColor(mgl32.Vec3{3, 3, 3})),
	}
	selector := NewShadowCasterSelector(2, 0, DefaultVisibilityThreshold)
	casters := selector.Select(mgl32.Vec3{}, 1000, lights)

	if len(casters) != 2 {
		t.Fatalf("len = %d, want 2", len(casters))
	}
	if casters[0].Light.ID() != 4 || casters[1].Light.ID() != 2 {
		t.Fatalf("selected %d, %d; want 4, 2", casters[0].Light.ID(), casters[1].Light.ID())
	}
}

func TestSelectConsistencyBonusBreaksNearTies(t *testing.T) {
	a := NewPointLight(1, WithRange(10))
	b := NewPointLight(2, WithRange(10))
	selector := NewShadowCasterSelector(1, DefaultConsistencyBonus, DefaultVisibilityThreshold)

	first := selector.Select(mgl32.Vec3{}, 1000, []PointLight{a, b})
	if first[0].Light.ID() != 1 {
		t.Fatalf("first pick = %d, want 1", first[0].Light.ID())
	}

	// b is now slightly larger, but a keeps its shadow thanks to the bonus.
	b = NewPointLight(2, WithRange(12))
	second := selector.Select(mgl32.Vec3{}, 1000, []PointLight{b, a})
	if second[0].Light.ID() != 1 {
		t.Fatalf("second pick = %d, want the previous caster 1", second[0].Light.ID())
	}
}

func TestSelectSkipsLightsOutOfView(t *testing.T) {
	far := NewPointLight(1, WithRange(10), WithPosition(mgl32.Vec3{500, 0, 0}))
	selector := NewShadowCasterSelector(MaxPointLightShadowCasters, 0, DefaultVisibilityThreshold)
	if casters := selector.Select(mgl32.Vec3{}, 100, []PointLight{far}); len(casters) != 0 {
		t.Fatalf("selected %d out of view lights", len(casters))
	}
}

func TestSelectorClampsMaximum(t *testing.T) {
	lights := make([]PointLight, 10)
	for i := range lights {
		lights[i] = NewPointLight(uint32(i))
	}
	selector := NewShadowCasterSelector(100, 0, DefaultVisibilityThreshold)
	if casters := selector.Select(mgl32.Vec3{}, 1000, lights); len(casters) != MaxPointLightShadowCasters {
		t.Fatalf("len = %d, want %d", len(casters), MaxPointLightShadowCasters)
	}
}

func TestTileCounts(t *testing.T) {
	x, y := TileCounts(common.ScreenSize{Width: 1920, Height: 1081})
	if x != 120 || y != 68 {
		t.Fatalf("TileCounts = %d, %d; want 120, 68", x, y)
	}
}

func TestAppendFrameLights(t *testing.T) {
	lights := []PointLight{
		NewPointLight(1, WithRange(20)),
		NewPointLight(2, WithRange(50), WithCastsShadows(false)),
		NewPointLight(3, WithRange(5), WithPosition(mgl32.Vec3{10, 0, 0})),
	}
	casters := NewShadowCasterSelector(1, 0, DefaultVisibilityThreshold).Select(mgl32.Vec3{}, 1000, lights)
	entities := instruction.Range{Offset: 0, Count: 4}

	var instr instruction.RenderInstruction
	AppendFrameLights(&instr, lights, casters, instruction.Range{}, entities)

	if len(instr.PointShadowCasters) != 1 {
		t.Fatalf("casters = %d, want 1", len(instr.PointShadowCasters))
	}
	caster := instr.PointShadowCasters[0]
	if !approx(caster.Extent, 20) || caster.Position != (mgl32.Vec3{}) {
		t.Errorf("caster = %v extent %v", caster.Position, caster.Extent)
	}
	for face, f := range caster.Faces {
		if f.Entities != entities {
			t.Errorf("face %d entities = %+v", face, f.Entities)
		}
	}

	var indices []int
	for _, l := range instr.PointLights {
		indices = append(indices, l.ShadowIndex)
	}
	if len(indices) != 3 || indices[0] != 0 || indices[1] != -1 || indices[2] != -1 {
		t.Errorf("shadow indices = %v, want [0 -1 -1]", indices)
	}
}

func TestFaceViewProjectionsLookAlongAxes(t *testing.T) {
	caster := ShadowCaster{Light: NewPointLight(1), Extent: 20}
	faces := caster.FaceViewProjections()

	ahead := faces[0].Mul4x1(mgl32.Vec4{5, 0, 0, 1})
	if ahead.W() <= 0 || !approx(ahead.X()/ahead.W(), 0) || !approx(ahead.Y()/ahead.W(), 0) {
		t.Errorf("+X face projects (5,0,0) to %v", ahead)
	}
	if z := ahead.Z() / ahead.W(); z < -1 || z > 1 {
		t.Errorf("+X face depth = %v, want within the clip range", z)
	}
	if behind := faces[1].Mul4x1(mgl32.Vec4{5, 0, 0, 1}); behind.W() >= 0 {
		t.Errorf("-X face sees (5,0,0): w = %v", behind.W())
	}
}

func TestFitDirectionalPartitionsCoversViewAxis(t *testing.T) {
	eye, target := mgl32.Vec3{0, 10, 20}, mgl32.Vec3{}
	view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
	projection := mgl32.Perspective(mgl32.DegToRad(45), 4.0/3, 1, 500)
	uniforms := instruction.Uniforms{
		View:              view,
		Projection:        projection,
		InverseView:       view.Inv(),
		InverseProjection: projection.Inv(),
		CameraPosition:    eye,
	}
	entities := instruction.Range{Count: 3}

	partitions := FitDirectionalPartitions(uniforms, mgl32.Vec3{-0.4, -1, -0.3}, 5, 100, 8, instruction.Range{}, entities)
	if len(partitions) != MaxDirectionalShadowPartitions {
		t.Fatalf("partitions = %d, want %d", len(partitions), MaxDirectionalShadowPartitions)
	}
	if partitions[0].Interval.X() != 5 || partitions[len(partitions)-1].Interval.Y() != 100 {
		t.Errorf("intervals span %v..%v, want 5..100", partitions[0].Interval, partitions[len(partitions)-1].Interval)
	}

	forward := target.Sub(eye).Normalize()
	for i, p := range partitions {
		if i > 0 && p.Interval.X() != partitions[i-1].Interval.Y() {
			t.Errorf("partition %d starts at %v, previous ends at %v", i, p.Interval.X(), partitions[i-1].Interval.Y())
		}
		if p.Entities != entities {
			t.Errorf("partition %d entities = %+v", i, p.Entities)
		}
		mid := (p.Interval.X() + p.Interval.Y()) / 2
		clip := p.ViewProjection.Mul4x1(eye.Add(forward.Mul(mid)).Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		if math.Abs(float64(ndc.X())) > 1 || math.Abs(float64(ndc.Y())) > 1 || ndc.Z() < -1 || ndc.Z() > 1 {
			t.Errorf("partition %d does not cover the view axis at %v: ndc %v", i, mid, ndc)
		}
	}
}

func TestFitDirectionalPartitionsHandlesStraightDownLight(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 10, 20}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	projection := mgl32.Perspective(mgl32.DegToRad(45), 1, 1, 500)
	uniforms := instruction.Uniforms{InverseView: view.Inv(), Projection: projection, InverseProjection: projection.Inv()}

	partitions := FitDirectionalPartitions(uniforms, mgl32.Vec3{0, -1, 0}, 0, 0, 1, instruction.Range{}, instruction.Range{})
	if len(partitions) != 1 {
		t.Fatalf("partitions = %d, want 1", len(partitions))
	}
	for i, v := range partitions[0].ViewProjection {
		if math.IsNaN(float64(v)) {
			t.Fatalf("view projection element %d is NaN", i)
		}
	}
	if iv := partitions[0].Interval; iv.Y() <= iv.X() {
		t.Errorf("degenerate interval %v", iv)
	}
}
