package settings

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != Default() {
		t.Errorf("got %+v, want defaults", s)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := "log_level = \"debug\"\n\n[graphics]\nmsaa = \"x8\"\nscreen_space_anti_aliasing = \"cmaa2\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.LogLevel != "debug" || s.Graphics.MSAA != global.MSAAX8 || s.Graphics.ScreenSpaceAntiAliasing != global.ScreenSpaceAntiAliasingCMAA2 {
		t.Errorf("decoded %+v", s)
	}
	want := Default().Graphics
	if s.Graphics.ShadowDetail != want.ShadowDetail || s.Graphics.Vsync != want.Vsync {
		t.Errorf("unset keys lost their defaults: %+v", s.Graphics)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	for name, content := range map[string]string{
		"unknown enum value": "[graphics]\nmsaa = \"x3\"\n",
		"unknown key":        "[graphics]\nbloom = true\n",
		"malformed":          "[graphics\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			s, err := Load(path)
			if !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("error = %v, want ErrInvalidSettings", err)
			}
			if s != Default() {
				t.Errorf("got %+v on error, want defaults", s)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	s := Default()
	s.Graphics.SSAA = global.SSAAX2
	s.Graphics.TextureSampler = global.TextureSamplerNearest
	s.Profiling = true

	if err := Save(path, s); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != s {
		t.Errorf("loaded %+v, want %+v", loaded, s)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) SetVsync(bool)                                             { r.calls = append(r.calls, "vsync") }
func (r *recorder) SetTripleBuffering(bool)                                   { r.calls = append(r.calls, "triple") }
func (r *recorder) SetFramerateLimit(bool)                                    { r.calls = append(r.calls, "limit") }
func (r *recorder) SetMonitorFrequency(float64)                               { r.calls = append(r.calls, "frequency") }
func (r *recorder) SetTextureSamplerType(global.TextureSamplerType)           { r.calls = append(r.calls, "sampler") }
func (r *recorder) SetScreenSpaceAntiAliasing(global.ScreenSpaceAntiAliasing) { r.calls = append(r.calls, "aa") }
func (r *recorder) SetMSAA(global.MSAA)                                       { r.calls = append(r.calls, "msaa") }
func (r *recorder) SetSSAA(global.SSAA)                                       { r.calls = append(r.calls, "ssaa") }
func (r *recorder) SetShadowDetail(global.ShadowDetail)                       { r.calls = append(r.calls, "shadow") }
func (r *recorder) SetHighQualityInterface(bool)                              { r.calls = append(r.calls, "interface") }
func (r *recorder) EnableProfiler()                                           { r.calls = append(r.calls, "profiler on") }
func (r *recorder) DisableProfiler()                                          { r.calls = append(r.calls, "profiler off") }

func TestApplyCallsOnlyChangedSetters(t *testing.T) {
	prev := Default()
	next := prev
	next.Graphics.MSAA = global.MSAAOff
	next.Graphics.ShadowDetail = global.ShadowDetailLow
	next.Profiling = true

	r := &recorder{}
	changed := Apply(r, prev, next)

	if want := []string{"profiler on", "msaa", "shadow"}; !slices.Equal(r.calls, want) {
		t.Errorf("calls = %v, want %v", r.calls, want)
	}
	if want := []string{"profiling", "graphics.msaa", "graphics.shadow_detail"}; !slices.Equal(changed, want) {
		t.Errorf("changed = %v, want %v", changed, want)
	}

	r.calls = nil
	if changed := Apply(r, next, next); len(changed) != 0 || len(r.calls) != 0 {
		t.Errorf("applying identical settings changed %v", changed)
	}
}

func TestWatcherDeliversChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path, Default())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	next := Default()
	next.Graphics.MSAA = global.MSAAX2
	if err := Save(path, next); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Changes():
		if got != next {
			t.Errorf("reloaded %+v, want %+v", got, next)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}

	if err := w.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
