package swipe

import (
	"math"

	"github.com/okian/sparkapply/internal/domain/job"
)

// State is the phase of the current pointer interaction.
type State int

// Interaction phases.
const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Outcome classifies what an interaction step did.
type Outcome string

// Interaction outcomes.
const (
	OutcomeIgnored   Outcome = "ignored"   // nothing to do in the current state
	OutcomeReset     Outcome = "reset"     // released below threshold
	OutcomeResolved  Outcome = "resolved"  // decision emitted, cursor advanced
	OutcomeAbandoned Outcome = "abandoned" // global release while dragging
)

// Decision is a resolved apply/pass outcome for one posting.
type Decision struct {
	JobID     string
	Direction Direction
}

// Result reports the outcome of End, Swipe or Abandon.
type Result struct {
	Outcome  Outcome
	Decision Decision // set only when Outcome is OutcomeResolved
}

// DecisionFunc is notified of every resolved decision. It must not block;
// the surface does not wait for or inspect any result.
type DecisionFunc func(jobID string, dir Direction)

// Card is the horizontal extent of the card on screen.
type Card struct {
	Left  float64
	Width float64
}

// Center returns the card's horizontal midpoint.
func (c Card) Center() float64 {
	return c.Left + c.Width/2
}

// Surface is the swipe decision state machine for one client.
type Surface struct {
	jobs       []job.Job
	onDecision DecisionFunc
	hook       func(Result)
	bus        *ReleaseBus

	threshold      float64
	maxOffset      float64
	rotationFactor float64
	opacityFloor   float64
	opacityFalloff float64

	cursor   int
	dragging bool
	offset   float64
	details  bool
	closed   bool

	unsubscribe func()
}

// New creates a surface cycling over jobs. The slice is copied.
func New(jobs []job.Job, onDecision DecisionFunc, opts ...Option) *Surface {
	s := &Surface{
		jobs:           append([]job.Job(nil), jobs...),
		onDecision:     onDecision,
		threshold:      DefaultThreshold,
		maxOffset:      DefaultMaxOffset,
		rotationFactor: DefaultRotationFactor,
		opacityFloor:   DefaultOpacityFloor,
		opacityFalloff: DefaultOpacityFalloff,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.bus == nil {
		s.bus = NewReleaseBus()
	}
	return s
}

// Begin starts a drag on the current card.
func (s *Surface) Begin() {
	if s.closed || s.dragging {
		return
	}
	s.dragging = true
	s.unsubscribe = s.bus.Subscribe(func() { s.Abandon() })
}

// Update moves the drag to pointerX and returns the clamped offset from the
// card's center. Outside a drag it returns the current offset unchanged.
func (s *Surface) Update(pointerX float64, card Card) float64 {
	if !s.dragging || math.IsNaN(pointerX) || math.IsNaN(card.Center()) {
		return s.offset
	}
	s.offset = Clamp(pointerX-card.Center(), s.maxOffset)
	return s.offset
}

// End releases the drag on the card. Offsets strictly beyond the threshold
// resolve a decision; anything else snaps back without one.
func (s *Surface) End() Result {
	if !s.dragging {
		return Result{Outcome: OutcomeIgnored}
	}
	if math.Abs(s.offset) > s.threshold {
		return s.resolve(directionOf(s.offset))
	}
	s.clearDrag()
	return s.report(Result{Outcome: OutcomeReset})
}

// Abandon cancels an in-flight drag unconditionally.
func (s *Surface) Abandon() Result {
	if !s.dragging {
		return Result{Outcome: OutcomeIgnored}
	}
	s.clearDrag()
	return s.report(Result{Outcome: OutcomeAbandoned})
}

// Swipe resolves the current card in dir without a drag (pass/apply buttons).
func (s *Surface) Swipe(dir Direction) Result {
	if s.closed || !dir.Valid() {
		return Result{Outcome: OutcomeIgnored}
	}
	return s.resolve(dir)
}

// ToggleDetails expands or collapses the current card's detail view.
func (s *Surface) ToggleDetails() bool {
	if !s.closed {
		s.details = !s.details
	}
	return s.details
}

// Close tears the surface down and drops its release subscription.
// Further events are ignored.
func (s *Surface) Close() {
	s.clearDrag()
	s.details = false
	s.closed = true
}

func (s *Surface) resolve(dir Direction) Result {
	s.clearDrag()
	s.details = false
	if len(s.jobs) == 0 {
		return s.report(Result{Outcome: OutcomeReset})
	}

	current := s.jobs[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.jobs)

	// State settles before the callback runs so it may inspect the surface.
	if s.onDecision != nil {
		s.onDecision(current.ID, dir)
	}
	return s.report(Result{
		Outcome:  OutcomeResolved,
		Decision: Decision{JobID: current.ID, Direction: dir},
	})
}

func (s *Surface) clearDrag() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.dragging = false
	s.offset = 0
}

func (s *Surface) report(r Result) Result {
	if s.hook != nil {
		s.hook(r)
	}
	return r
}

// Current returns the posting under the cursor; false when the list is empty.
func (s *Surface) Current() (job.Job, bool) {
	if len(s.jobs) == 0 {
		return job.Job{}, false
	}
	return s.jobs[s.cursor], true
}

// Preview returns up to n postings after the current one, without wrapping.
func (s *Surface) Preview(n int) []job.Job {
	if n <= 0 || len(s.jobs) == 0 {
		return nil
	}
	start := s.cursor + 1
	end := min(start+n, len(s.jobs))
	if start >= end {
		return nil
	}
	return append([]job.Job(nil), s.jobs[start:end]...)
}

// Cursor returns the index of the current posting.
func (s *Surface) Cursor() int { return s.cursor }

// Len returns the number of postings the surface cycles over.
func (s *Surface) Len() int { return len(s.jobs) }

// Offset returns the signed drag offset.
func (s *Surface) Offset() float64 { return s.offset }

// State returns the current interaction phase.
func (s *Surface) State() State {
	if s.dragging {
		return Dragging
	}
	return Idle
}

// DetailsExpanded reports whether the detail view is open.
func (s *Surface) DetailsExpanded() bool { return s.details }

// Closed reports whether Close has been called.
func (s *Surface) Closed() bool { return s.closed }

// Threshold returns the resolve threshold in use.
func (s *Surface) Threshold() float64 { return s.threshold }

// Rotation returns the card tilt for the current offset.
func (s *Surface) Rotation() float64 {
	return Rotation(s.offset, s.rotationFactor)
}

// Opacity returns the card opacity for the current offset.
func (s *Surface) Opacity() float64 {
	return Opacity(s.offset, s.opacityFloor, s.opacityFalloff)
}
