// Package interpolation provides fractional-position sample interpolation
// for delay lines, wavetables, and modulated taps.
package interpolation

// Linear performs linear interpolation between two samples.
// frac is the fractional position between y0 and y1 (0.0 to 1.0).
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}

// Cubic performs 4-point Catmull-Rom interpolation.
// frac is the fractional position between y1 and y2 (0.0 to 1.0).
func Cubic(y0, y1, y2, y3, frac float32) float32 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5 * (y3 - y0 + 3*(y1-y2))

	return ((c3*frac+c2)*frac+c1)*frac + c0
}

// Hermite performs 4-point, 3rd-order Hermite interpolation with
// centered-difference tangents. frac is the fractional position between
// y1 and y2 (0.0 to 1.0). Used for modulated delay reads where the read
// position changes every sample.
func Hermite(y0, y1, y2, y3, frac float32) float32 {
	c1 := 0.5 * (y2 - y0)
	c3 := 1.5*(y1-y2) + 0.5*(y3-y0)
	c2 := y0 - y1 + c1 - c3

	return ((c3*frac+c2)*frac+c1)*frac + y1
}

// Smooth moves current toward target by the given factor. One call per
// sample gives a one-pole smoothing filter; gate and parameter smoothing
// use it to avoid clicks.
func Smooth(current, target, smoothingFactor float32) float32 {
	return current + (target-current)*smoothingFactor
}
