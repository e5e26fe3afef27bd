package swipesim

import "time"

// Gesture geometry. The card is centered at cardLeft + cardWidth/2.
const (
	cardLeft          = 0.0
	cardWidth         = 300.0
	resolveOffsetMin  = 110.0
	resolveOffsetSpan = 90.0
	teaseOffsetMax    = 90.0
)

// Runner configuration constants.
const (
	settlePollInterval   = 50 * time.Millisecond
	percentageMultiplier = 100
	sessionChanFactor    = 2
)
