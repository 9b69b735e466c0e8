package filter

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/dsp"
)

// OnePole is a 6 dB/oct smoothing filter used for delay-line damping and
// tap tone shaping. The same state serves lowpass and highpass reads.
type OnePole struct {
	sampleRate float64
	cutoff     float64
	coeff      float64
	state      float64
}

// NewOnePole creates a one-pole filter at the given sample rate and
// cutoff frequency in Hz.
func NewOnePole(sampleRate, cutoffHz float64) *OnePole {
	f := &OnePole{sampleRate: sampleRate}
	f.SetCutoff(cutoffHz)
	return f
}

// SetCutoff sets the cutoff frequency in Hz, clamped to the audio range.
func (f *OnePole) SetCutoff(hz float64) {
	f.cutoff = math.Max(dsp.MinFrequency, math.Min(dsp.MaxFrequency, hz))
	f.coeff = math.Exp(-2.0 * math.Pi * f.cutoff / f.sampleRate)
}

// SetCoefficient sets the raw smoothing coefficient directly (0..1,
// higher = darker). Used where the caller derives the coefficient from a
// damping amount rather than a frequency.
func (f *OnePole) SetCoefficient(coeff float64) {
	f.coeff = math.Max(0.0, math.Min(0.9999, coeff))
}

// ProcessLP filters one sample as a lowpass.
func (f *OnePole) ProcessLP(input float64) float64 {
	f.state = input*(1.0-f.coeff) + f.state*f.coeff
	if math.Abs(f.state) < dsp.DenormalThreshold {
		f.state = 0
	}
	return f.state
}

// ProcessHP filters one sample as a highpass: the input minus its
// lowpassed self.
func (f *OnePole) ProcessHP(input float64) float64 {
	return input - f.ProcessLP(input)
}

// Reset clears the filter state.
func (f *OnePole) Reset() {
	f.state = 0
}
