package dsp

import "math"

// Buffer utilities for common audio operations. None of these allocate.

// Clear zeroes a buffer.
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Fill sets every sample to value.
func Fill(buffer []float32, value float32) {
	for i := range buffer {
		buffer[i] = value
	}
}

// Add adds source into destination, up to the shorter length.
func Add(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// AddScaled adds scaled source into destination, up to the shorter length.
func AddScaled(dst, src []float32, scale float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i] * scale
	}
}

// Scale multiplies every sample by a constant.
func Scale(buffer []float32, scale float32) {
	for i := range buffer {
		buffer[i] *= scale
	}
}

// Mix blends two buffers into dst (0 = all src1, 1 = all src2).
func Mix(dst, src1, src2 []float32, mix float32) {
	n := len(dst)
	if len(src1) < n {
		n = len(src1)
	}
	if len(src2) < n {
		n = len(src2)
	}

	invMix := 1.0 - mix
	for i := 0; i < n; i++ {
		dst[i] = src1[i]*invMix + src2[i]*mix
	}
}

// Peak finds the maximum absolute value in a buffer.
func Peak(buffer []float32) float32 {
	peak := float32(0)
	for _, sample := range buffer {
		abs := float32(math.Abs(float64(sample)))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}

// RMS calculates the root mean square of a buffer.
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}

	sum := float32(0)
	for _, sample := range buffer {
		sum += sample * sample
	}

	return float32(math.Sqrt(float64(sum / float32(len(buffer)))))
}

// Clip limits samples to [-limit, limit].
func Clip(buffer []float32, limit float32) {
	for i := range buffer {
		if buffer[i] > limit {
			buffer[i] = limit
		} else if buffer[i] < -limit {
			buffer[i] = -limit
		}
	}
}

// SoftClip applies tanh saturation above the threshold to round off peaks.
func SoftClip(buffer []float32, threshold float32) {
	for i := range buffer {
		sample := buffer[i]
		if sample > threshold {
			buffer[i] = threshold + (1.0-threshold)*float32(math.Tanh(float64(sample-threshold)))
		} else if sample < -threshold {
			buffer[i] = -threshold + (-1.0+threshold)*float32(math.Tanh(float64(sample+threshold)))
		}
	}
}

// FlushDenormals zeroes samples whose magnitude is below the denormal
// threshold. Recursive processors call this on their state to keep
// denormalized floats out of feedback paths.
func FlushDenormals(buffer []float32) {
	for i := range buffer {
		if buffer[i] < DenormalThreshold && buffer[i] > -DenormalThreshold {
			buffer[i] = 0
		}
	}
}

// Interleave packs separate left/right buffers into an LRLR stream, up to
// the shorter channel length. dst must hold 2x that many samples.
func Interleave(dst, left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if len(dst)/2 < n {
		n = len(dst) / 2
	}
	for i := 0; i < n; i++ {
		dst[2*i] = left[i]
		dst[2*i+1] = right[i]
	}
}

// Deinterleave splits an LRLR stream into separate left/right buffers.
func Deinterleave(left, right, src []float32) {
	n := len(src) / 2
	if len(left) < n {
		n = len(left)
	}
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		left[i] = src[2*i]
		right[i] = src[2*i+1]
	}
}
