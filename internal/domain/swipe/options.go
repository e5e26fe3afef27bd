package swipe

// Default geometry. Threshold and MaxOffset are independent settings: the
// decision resolves well before the visual clamp.
const (
	DefaultThreshold      = 100.0
	DefaultMaxOffset      = 200.0
	DefaultRotationFactor = 0.1
	DefaultOpacityFloor   = 0.7
	DefaultOpacityFalloff = 0.002
)

// Option applies a configuration option to the Surface.
type Option func(*Surface)

// WithThreshold sets the absolute offset a drag must exceed to resolve.
func WithThreshold(threshold float64) Option {
	return func(s *Surface) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithMaxOffset sets the clamp applied to drag offsets.
func WithMaxOffset(limit float64) Option {
	return func(s *Surface) {
		if limit > 0 {
			s.maxOffset = limit
		}
	}
}

// WithRotationFactor sets degrees of tilt per unit of offset.
func WithRotationFactor(factor float64) Option {
	return func(s *Surface) {
		s.rotationFactor = factor
	}
}

// WithOpacity sets the opacity floor and the fade per unit of offset.
func WithOpacity(floor, falloff float64) Option {
	return func(s *Surface) {
		if floor >= 0 && floor <= 1 {
			s.opacityFloor = floor
		}
		if falloff >= 0 {
			s.opacityFalloff = falloff
		}
	}
}

// WithReleaseBus subscribes the surface to an existing release bus.
func WithReleaseBus(bus *ReleaseBus) Option {
	return func(s *Surface) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithOutcomeHook registers fn to observe every non-ignored outcome,
// including abandonments triggered through the release bus.
func WithOutcomeHook(fn func(Result)) Option {
	return func(s *Surface) {
		s.hook = fn
	}
}
