// Package swipe turns pointer drags on a job card into apply/pass decisions.
//
// A Surface owns a cursor over a fixed list of postings and the transient
// drag state of the card under the pointer. It is a single-actor state
// machine: callers serialize access to one Surface.
//
//	Idle -> Dragging -> {Resolved-Right, Resolved-Left, Reset}
//
// Resolved transitions re-enter Idle with the cursor advanced by one
// (wrapping); Reset re-enters Idle with the cursor unchanged.
package swipe

import "strings"

// Direction is the side a card was swiped to.
type Direction string

// Swipe directions.
const (
	Left  Direction = "left"
	Right Direction = "right"
)

// Action tags as seen by the application-submission flow.
const (
	ActionPass  = "pass"
	ActionApply = "apply"
)

// Valid reports whether d is one of the two swipe directions.
func (d Direction) Valid() bool {
	return d == Left || d == Right
}

// Action returns "apply" for right swipes and "pass" for left swipes.
func (d Direction) Action() string {
	switch d {
	case Right:
		return ActionApply
	case Left:
		return ActionPass
	default:
		return ""
	}
}

// ParseDirection accepts left/right as well as the pass/apply action tags.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", ActionPass:
		return Left, true
	case "right", ActionApply:
		return Right, true
	default:
		return "", false
	}
}

// directionOf maps the sign of a resolved offset to a direction.
func directionOf(offset float64) Direction {
	if offset > 0 {
		return Right
	}
	return Left
}
