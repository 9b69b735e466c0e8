// Package gain provides decibel conversion and amplitude helpers shared
// by the engine's gain staging.
package gain

import "math"

// MinDB is the floor of the dB scale, treated as silence.
const MinDB = -200.0

// LinearToDb converts linear amplitude to decibels. Non-positive values
// return MinDB.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts decibels to linear amplitude. Values at or below
// MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// LinearToDb32 is the float32 variant of LinearToDb.
func LinearToDb32(linear float32) float32 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * float32(math.Log10(float64(linear)))
}

// DbToLinear32 is the float32 variant of DbToLinear.
func DbToLinear32(db float32) float32 {
	if db <= MinDB {
		return 0
	}
	return float32(math.Pow(10.0, float64(db)/20.0))
}

// ApplyBuffer scales a buffer in-place. No allocations.
func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// Fade ramps the buffer gain linearly from startGain to endGain, for
// click-free level changes across a block.
func Fade(buffer []float32, startGain, endGain float32) {
	n := len(buffer)
	if n == 0 {
		return
	}
	if n == 1 {
		buffer[0] *= startGain
		return
	}

	step := (endGain - startGain) / float32(n-1)
	g := startGain
	for i := range buffer {
		buffer[i] *= g
		g += step
	}
}

// FastTanh32 approximates tanh with the Padé form x(27+x²)/(27+9x²),
// clamped outside ±3, for saturating per-sample paths that cannot
// afford math.Tanh.
func FastTanh32(x float32) float32 {
	if x < -3 {
		return -1
	}
	if x > 3 {
		return 1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}
