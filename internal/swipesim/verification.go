package swipesim

import (
	"errors"
	"fmt"
)

var errVerification = errors.New("verification failed")

// Verify checks that every planned decision reached the tracker exactly
// once and that the client saw the expected acknowledgements.
func Verify(stats *Stats) error {
	var errs []error

	if stats.SessionsFailed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d sessions failed", errVerification, stats.SessionsFailed))
	}
	if stats.Duplicates != stats.Expected.Repeats {
		errs = append(errs, fmt.Errorf("%w: %d duplicates acknowledged, %d repeats sent",
			errVerification, stats.Duplicates, stats.Expected.Repeats))
	}
	if stats.Resets != stats.Expected.Teases {
		errs = append(errs, fmt.Errorf("%w: %d resets seen, %d teases planned",
			errVerification, stats.Resets, stats.Expected.Teases))
	}

	applies := stats.Final.Total - stats.Baseline.Total
	if applies != stats.Expected.Applies {
		errs = append(errs, fmt.Errorf("%w: tracker gained %d applications, want %d",
			errVerification, applies, stats.Expected.Applies))
	}
	passes := stats.Final.Passes - stats.Baseline.Passes
	if passes != stats.Expected.Passes {
		errs = append(errs, fmt.Errorf("%w: tracker gained %d passes, want %d",
			errVerification, passes, stats.Expected.Passes))
	}

	return errors.Join(errs...)
}
