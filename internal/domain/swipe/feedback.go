package swipe

import "math"

// Clamp bounds offset to [-limit, +limit].
func Clamp(offset, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, offset))
}

// Rotation is the card tilt in degrees for a drag offset.
func Rotation(offset, factor float64) float64 {
	return offset * factor
}

// Opacity fades the card as it moves away from center, never below floor.
func Opacity(offset, floor, falloff float64) float64 {
	return math.Max(floor, 1-math.Abs(offset)*falloff)
}
