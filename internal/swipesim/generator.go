package swipesim

import (
	"fmt"
	"math/rand/v2"
)

// GeneratePlans builds one plan per session. Plans depend only on the seed
// and the ratios in config.
func GeneratePlans(config *Config) []Plan {
	rng := rand.New(rand.NewPCG(uint64(config.Seed), uint64(config.Seed)^0x5eed)) //nolint:gosec // reproducible load, not security

	plans := make([]Plan, config.Sessions)
	for i := range plans {
		steps := make([]Step, config.SwipesPerSession)
		for j := range steps {
			steps[j] = generateStep(rng, config, i, j)
		}
		plans[i] = Plan{Index: i, Steps: steps}
	}
	return plans
}

func generateStep(rng *rand.Rand, config *Config, session, step int) Step {
	dir := "left"
	sign := -1.0
	if rng.Float64() < config.ApplyRatio {
		dir, sign = "right", 1.0
	}

	if rng.Float64() < config.DragRatio {
		s := Step{
			Direction: dir,
			Drag:      true,
			Offset:    sign * (resolveOffsetMin + rng.Float64()*resolveOffsetSpan),
		}
		if rng.Float64() < config.TeaseRatio {
			s.Tease = sign * rng.Float64() * teaseOffsetMax
		}
		return s
	}

	return Step{
		Direction: dir,
		RequestID: fmt.Sprintf("sim-%d-%d-%d", config.Seed, session, step),
		Repeat:    rng.Float64() < config.RepeatRatio,
	}
}

// Expect computes what the tracker must gain from plans.
func Expect(plans []Plan) Expectation {
	var e Expectation
	for _, p := range plans {
		for _, s := range p.Steps {
			if s.Direction == "right" {
				e.Applies++
			} else {
				e.Passes++
			}
			if s.Repeat {
				e.Repeats++
			}
			if s.Tease != 0 {
				e.Teases++
			}
		}
	}
	return e
}
