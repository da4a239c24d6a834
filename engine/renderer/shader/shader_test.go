package shader

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"common.wgsl": {Data: []byte("struct Camera { view_proj: mat4x4f }")},
		"resolve.wgsl": {Data: []byte(strings.Join([]string{
			"//@oxy:include common",
			"//@oxy:constant SAMPLE_COUNT u32 1",
			"//@oxy:constant GAMMA f32 2.2",
			"//   @oxy:constant HDR_SURFACE bool false",
			"fn main() {}",
		}, "\n"))},
		"model.wgsl": {Data: []byte(strings.Join([]string{
			"//@oxy:include common",
			"//@oxy:vertex 1 instance float32x4 uint32",
			"//@oxy:vertex 0 vertex float32x3 float32x3 float32x2",
			"//@oxy:include common",
		}, "\n"))},
		"cycle_a.wgsl":  {Data: []byte("//@oxy:include cycle_b")},
		"cycle_b.wgsl":  {Data: []byte("//@oxy:include cycle_a")},
		"broken.wgsl":   {Data: []byte("//@oxy:vertex 0 sideways float32")},
		"no_value.wgsl": {Data: []byte("//@oxy:constant SEGMENTS u32")},
	}
}

func TestModuleResolvesConstants(t *testing.T) {
	lib := NewLibrary(testFS())

	m, err := lib.Module("resolve", map[string]float64{"SAMPLE_COUNT": 4, "HDR_SURFACE": 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"struct Camera { view_proj: mat4x4f }",
		"const SAMPLE_COUNT: u32 = 4u;",
		"const GAMMA: f32 = 2.2;",
		"const HDR_SURFACE: bool = true;",
		"fn main() {}",
	} {
		if !strings.Contains(m.Source, want) {
			t.Errorf("source is missing %q:\n%s", want, m.Source)
		}
	}
	if strings.Contains(m.Source, "@oxy") {
		t.Errorf("annotations left in source:\n%s", m.Source)
	}

	defaults, err := lib.Module("resolve", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(defaults.Source, "const SAMPLE_COUNT: u32 = 1u;") {
		t.Errorf("default constant not applied:\n%s", defaults.Source)
	}
}

func TestModuleVertexLayouts(t *testing.T) {
	m, err := NewLibrary(testFS()).Module("model", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(m.Source, "struct Camera"); n != 1 {
		t.Errorf("common included %d times", n)
	}
	if len(m.VertexLayouts) != 2 {
		t.Fatalf("got %d layouts", len(m.VertexLayouts))
	}

	vertex, instance := m.VertexLayouts[0], m.VertexLayouts[1]
	if vertex.Slot != 0 || vertex.Instance || vertex.Stride != 32 {
		t.Errorf("vertex layout = %+v", vertex)
	}
	if instance.Slot != 1 || !instance.Instance || instance.Stride != 20 {
		t.Errorf("instance layout = %+v", instance)
	}
	if a := vertex.Attributes[2]; a.Format != VertexFormatFloat32x2 || a.Offset != 24 || a.Location != 2 {
		t.Errorf("uv attribute = %+v", a)
	}
	if a := instance.Attributes[1]; a.Format != VertexFormatUint32 || a.Offset != 16 || a.Location != 4 {
		t.Errorf("id attribute = %+v", a)
	}
}

func TestModuleErrors(t *testing.T) {
	lib := NewLibrary(testFS())

	if _, err := lib.Module("missing", nil); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("missing module error = %v", err)
	}
	if _, err := lib.Module("resolve", map[string]float64{"BLOOM": 1}); err == nil {
		t.Error("undeclared constant accepted")
	}
	for _, name := range []string{"cycle_a", "broken", "no_value"} {
		if _, err := lib.Module(name, nil); err == nil {
			t.Errorf("module %s processed without error", name)
		}
	}
}

func TestParseAnnotationIgnoresPlainComments(t *testing.T) {
	for _, line := range []string{"// a comment", "let x = 1; // @oxy:include common", "fn main() {}"} {
		a, err := parseAnnotation(line, 1)
		if err != nil || a != nil {
			t.Errorf("parseAnnotation(%q) = %v, %v", line, a, err)
		}
	}
	if _, err := parseAnnotation("//@oxy:bloom", 3); err == nil {
		t.Error("unknown annotation accepted")
	}
}
