package engine

import "github.com/Carmen-Shannon/oxy-ro/engine/renderer/global"

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithGraphicsSettings sets the initial requested graphics settings.
// Capability checks are applied when the engine context is built.
//
// Parameters:
//   - settings: the requested settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGraphicsSettings(settings global.GraphicsSettings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = settings
	}
}

// WithWorkers sets the number of workers of the prepare pool.
// Values <= 0 will be treated as 1.
//
// Parameters:
//   - workers: the maximum number of prepare workers (default runtime.NumCPU)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkers(workers int) EngineBuilderOption {
	return func(e *engine) {
		e.workers = max(workers, 1)
	}
}

// WithMonitorFrequency sets the refresh rate the framerate limit paces to.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - frequency: the monitor refresh rate in Hz
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMonitorFrequency(frequency float64) EngineBuilderOption {
	return func(e *engine) {
		if frequency <= 0 {
			frequency = 60
		}
		e.monitorFrequency = frequency
	}
}

// WithStagingChunkSize sets the minimum size of a staging belt chunk. Writes larger than a chunk get a dedicated one.
//
// Parameters:
//   - size: the chunk size in bytes
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStagingChunkSize(size uint64) EngineBuilderOption {
	return func(e *engine) {
		if size > 0 {
			e.stagingChunkSize = size
		}
	}
}

// WithExtension registers an extension. Extensions are prepared, uploaded and recorded in registration order.
//
// Parameters:
//   - x: the extension
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithExtension(x Extension) EngineBuilderOption {
	return func(e *engine) {
		e.extensions = append(e.extensions, x)
	}
}
