// Package utility provides small shared processors for the master bus.
package utility

import "math"

// DCBlocker is a first-order high-pass that strips sub-audio offset from
// the master bus. Feedback networks with asymmetric saturation can walk
// the signal mean away from zero, which wastes limiter headroom.
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
type DCBlocker struct {
	x1   [2]float64
	y1   [2]float64
	pole float64
}

// NewDCBlocker creates a stereo DC blocker with the given corner
// frequency, typically 5 to 20 Hz.
func NewDCBlocker(cutoffHz, sampleRate float64) *DCBlocker {
	dc := &DCBlocker{}
	dc.SetCutoff(cutoffHz, sampleRate)
	return dc
}

// SetCutoff updates the corner frequency.
func (dc *DCBlocker) SetCutoff(cutoffHz, sampleRate float64) {
	r := 1.0 - 2.0*math.Pi*cutoffHz/sampleRate
	if r < 0.9 {
		r = 0.9
	} else if r > 0.9999 {
		r = 0.9999
	}
	dc.pole = r
}

// Process filters one sample on the given channel. No allocations.
func (dc *DCBlocker) Process(input float32, channel int) float32 {
	in := float64(input)
	out := in - dc.x1[channel] + dc.pole*dc.y1[channel]
	dc.x1[channel] = in
	dc.y1[channel] = out
	return float32(out)
}

// ProcessBuffer filters a mono buffer in-place on channel 0.
func (dc *DCBlocker) ProcessBuffer(buffer []float32) {
	for i := range buffer {
		buffer[i] = dc.Process(buffer[i], 0)
	}
}

// ProcessStereo filters both channels in-place.
func (dc *DCBlocker) ProcessStereo(left, right []float32) {
	for i := range left {
		left[i] = dc.Process(left[i], 0)
	}
	for i := range right {
		right[i] = dc.Process(right[i], 1)
	}
}

// Reset clears the filter state.
func (dc *DCBlocker) Reset() {
	dc.x1 = [2]float64{}
	dc.y1 = [2]float64{}
}
