package frame_pacer

// FramePacerBuilderOption is a functional option for configuring a FramePacer.
type FramePacerBuilderOption func(p *FramePacer)

// WithClock replaces the system clock.
//
// Parameters:
//   - clock: the clock used for timestamps and sleeping
//
// Returns:
//   - FramePacerBuilderOption: option function to apply
func WithClock(clock Clock) FramePacerBuilderOption {
	return func(p *FramePacer) {
		if clock != nil {
			p.clock = clock
		}
	}
}
