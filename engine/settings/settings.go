// Package settings persists the client settings as TOML and applies changes to a running engine.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidSettings is returned when a settings file cannot be decoded.
var ErrInvalidSettings = errors.New("invalid settings file")

// Settings is the content of the settings file.
type Settings struct {
	LogLevel         string                  `toml:"log_level"`
	MonitorFrequency float64                 `toml:"monitor_frequency"`
	Profiling        bool                    `toml:"profiling"`
	Graphics         global.GraphicsSettings `toml:"graphics"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		LogLevel:         "info",
		MonitorFrequency: 60,
		Graphics:         global.DefaultGraphicsSettings(),
	}
}

// Load reads a settings file. Keys missing from the file keep their default value; unknown keys are rejected.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Settings: the decoded settings, Default() if the file does not exist
//   - error: ErrInvalidSettings wrapping the decode error, or the read error
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		return Default(), fmt.Errorf("%w %s: %w", ErrInvalidSettings, path, err)
	}
	return s, nil
}

// Save writes settings atomically: the file is written next to path and renamed over it.
//
// Parameters:
//   - path: the file to write
//   - s: the settings
//
// Returns:
//   - error: the marshal or file system error
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to save settings %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save settings %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save settings %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save settings %s: %w", path, err)
	}
	return nil
}

// Target is the part of the engine settings are applied to.
type Target interface {
	SetVsync(enabled bool)
	SetTripleBuffering(enabled bool)
	SetFramerateLimit(enabled bool)
	SetMonitorFrequency(frequency float64)
	SetTextureSamplerType(samplerType global.TextureSamplerType)
	SetScreenSpaceAntiAliasing(mode global.ScreenSpaceAntiAliasing)
	SetMSAA(msaa global.MSAA)
	SetSSAA(ssaa global.SSAA)
	SetShadowDetail(detail global.ShadowDetail)
	SetHighQualityInterface(enabled bool)
	EnableProfiler()
	DisableProfiler()
}

// Apply calls the setter of every value that differs between prev and next. Unchanged values are not touched, so
// applying a reloaded file does not recreate GPU resources needlessly.
//
// Parameters:
//   - target: the engine
//   - prev: the settings currently applied
//   - next: the settings to apply
//
// Returns:
//   - []string: the keys that changed, in file order
func Apply(target Target, prev, next Settings) []string {
	var changed []string
	mark := func(key string) { changed = append(changed, key) }

	if next.LogLevel != prev.LogLevel {
		if !common.SetLogLevel(next.LogLevel) {
			common.LogWarn("unknown log level %q ignored", next.LogLevel)
		}
		mark("log_level")
	}
	if next.MonitorFrequency != prev.MonitorFrequency {
		target.SetMonitorFrequency(next.MonitorFrequency)
		mark("monitor_frequency")
	}
	if next.Profiling != prev.Profiling {
		if next.Profiling {
			target.EnableProfiler()
		} else {
			target.DisableProfiler()
		}
		mark("profiling")
	}

	p, n := prev.Graphics, next.Graphics
	if n.Vsync != p.Vsync {
		target.SetVsync(n.Vsync)
		mark("graphics.vsync")
	}
	if n.TripleBuffering != p.TripleBuffering {
		target.SetTripleBuffering(n.TripleBuffering)
		mark("graphics.triple_buffering")
	}
	if n.FramerateLimit != p.FramerateLimit {
		target.SetFramerateLimit(n.FramerateLimit)
		mark("graphics.framerate_limit")
	}
	if n.TextureSampler != p.TextureSampler {
		target.SetTextureSamplerType(n.TextureSampler)
		mark("graphics.texture_sampler")
	}
	if n.ScreenSpaceAntiAliasing != p.ScreenSpaceAntiAliasing {
		target.SetScreenSpaceAntiAliasing(n.ScreenSpaceAntiAliasing)
		mark("graphics.screen_space_anti_aliasing")
	}
	if n.MSAA != p.MSAA {
		target.SetMSAA(n.MSAA)
		mark("graphics.msaa")
	}
	if n.SSAA != p.SSAA {
		target.SetSSAA(n.SSAA)
		mark("graphics.ssaa")
	}
	if n.ShadowDetail != p.ShadowDetail {
		target.SetShadowDetail(n.ShadowDetail)
		mark("graphics.shadow_detail")
	}
	if n.HighQualityInterface != p.HighQualityInterface {
		target.SetHighQualityInterface(n.HighQualityInterface)
		mark("graphics.high_quality_interface")
	}
	return changed
}
