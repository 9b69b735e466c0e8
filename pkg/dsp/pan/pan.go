// Package pan provides constant-power stereo placement helpers.
package pan

import "math"

// PositionGains returns the left/right gains for a normalized position in
// 0..1, where 0 is hard left and 1 is hard right. Multi-tap delays use it
// to spread taps across the stereo field with constant power.
func PositionGains(position float32) (left, right float32) {
	if position < 0 {
		position = 0
	} else if position > 1 {
		position = 1
	}
	angle := float64(position) * math.Pi / 2.0
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

// Gains returns constant-power gains for a pan position in -1..1, where
// -1 is hard left, 0 is center and 1 is hard right. Center sits at
// -3 dB on both channels so the perceived level stays flat across the
// sweep.
func Gains(pan float32) (left, right float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	return PositionGains((pan + 1) * 0.5)
}

// Width rescales the side component of a stereo pair in-place. 0 folds
// to mono, 1 leaves the image untouched, above 1 widens.
func Width(left, right []float32, width float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		mid := (left[i] + right[i]) * 0.5
		side := (left[i] - right[i]) * 0.5 * width
		left[i] = mid + side
		right[i] = mid - side
	}
}

// Balance attenuates the channel opposite the balance position in-place.
// -1 keeps only the left channel, 1 only the right.
func Balance(left, right []float32, balance float32) {
	leftGain, rightGain := float32(1), float32(1)
	if balance < 0 {
		rightGain = 1 + balance
	} else if balance > 0 {
		leftGain = 1 - balance
	}

	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		left[i] *= leftGain
		right[i] *= rightGain
	}
}
