// Package filter provides the filters used by the synthesis and effect
// engines: a zero-delay-feedback Moog ladder and a one-pole tone filter.
package filter

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/dsp"
)

// Mode selects which tap of the ladder feeds the output.
type Mode int

const (
	// ModeLP24 taps the fourth stage: the classic 24 dB/oct lowpass.
	ModeLP24 Mode = iota
	// ModeLP12 taps the second stage for a gentler 12 dB/oct slope.
	ModeLP12
	// ModeBP24 takes the difference of stages two and four.
	ModeBP24
	// ModeHP24 subtracts the lowpass from the driven input.
	ModeHP24
	// ModeNotch blends the lowpass with half the highpass residue.
	ModeNotch
)

// selfOscillationThreshold is the resonance above which the ladder
// sustains oscillation at the cutoff frequency with no input.
const selfOscillationThreshold = 0.95

// Ladder is a four-stage transistor ladder lowpass in a zero-delay
// feedback arrangement. Each stage is a trapezoidal one-pole with a tanh
// nonlinearity; the resonance feedback is taken from the last stage and
// soft-clipped before re-entering the cascade, so the filter stays
// bounded even when driven into self-oscillation.
type Ladder struct {
	sampleRate float64

	// Parameters
	cutoff     float64 // Hz
	resonance  float64 // 0-1, self-oscillates near 1
	drive      float64 // 0-1 input saturation
	mode       Mode
	compensate bool // makeup gain against resonance bass loss

	// Coefficients
	g float64 // per-stage cutoff coefficient
	k float64 // resonance feedback gain

	// State: integrator and saturated output per stage, plus the
	// feedback memory from the last stage.
	stage     [4]float64
	stageTanh [4]float64
	feedback  float64
}

// NewLadder creates a ladder filter at the given sample rate with a
// 1 kHz cutoff and no resonance.
func NewLadder(sampleRate float64) *Ladder {
	l := &Ladder{
		sampleRate: sampleRate,
		cutoff:     1000.0,
		compensate: true,
	}
	l.updateCoefficients()
	return l
}

// SetCutoff sets the cutoff frequency in Hz, clamped to the audio range.
func (l *Ladder) SetCutoff(hz float64) {
	l.cutoff = math.Max(dsp.MinFrequency, math.Min(dsp.MaxFrequency, hz))
	l.updateCoefficients()
}

// Cutoff returns the current cutoff frequency in Hz.
func (l *Ladder) Cutoff() float64 {
	return l.cutoff
}

// SetResonance sets the resonance, clamped to 0..1. Values at and above
// 0.95 push the loop gain past unity and the filter rings at the cutoff
// frequency on its own.
func (l *Ladder) SetResonance(res float64) {
	l.resonance = math.Max(0.0, math.Min(1.0, res))
	l.updateCoefficients()
}

// Resonance returns the current normalized resonance.
func (l *Ladder) Resonance() float64 {
	return l.resonance
}

// SetDrive sets the input saturation amount, clamped to 0..1.
func (l *Ladder) SetDrive(drive float64) {
	l.drive = math.Max(0.0, math.Min(1.0, drive))
}

// SetMode selects the output tap.
func (l *Ladder) SetMode(mode Mode) {
	l.mode = mode
}

// SetGainCompensation enables makeup gain that counters the level drop
// high resonance causes in the passband.
func (l *Ladder) SetGainCompensation(enabled bool) {
	l.compensate = enabled
}

// IsSelfOscillating reports whether the resonance is high enough for the
// filter to sustain oscillation without input.
func (l *Ladder) IsSelfOscillating() bool {
	return l.resonance > selfOscillationThreshold
}

// Reset clears all filter state.
func (l *Ladder) Reset() {
	for i := range l.stage {
		l.stage[i] = 0
		l.stageTanh[i] = 0
	}
	l.feedback = 0
}

// updateCoefficients derives the per-stage coefficient and the feedback
// gain from cutoff and resonance.
func (l *Ladder) updateCoefficients() {
	// Bilinear prewarp so the digital cutoff lands on the analog one.
	wc := 2.0 * math.Pi * l.cutoff / l.sampleRate
	warped := 2.0 * l.sampleRate * math.Tan(wc/2.0)

	l.g = warped / (2.0 * l.sampleRate)
	l.g = math.Max(0.0001, math.Min(0.9999, l.g))

	// Four cascaded unity-gain stages need a loop gain of 4 to reach the
	// oscillation boundary; back off slightly so resonance 1.0 rings
	// instead of hard-clipping.
	l.k = l.resonance * 4.0 * 0.98
}

// ProcessSample filters one sample.
func (l *Ladder) ProcessSample(input float64) float64 {
	driveGain := 1.0 + l.drive*4.0
	driven := fastTanh(input * driveGain)

	// Resonance feedback from the last stage, soft-clipped so high
	// settings ring instead of running away.
	u := fastTanh(driven - l.k*l.feedback)

	for i := 0; i < 4; i++ {
		v := l.g * (fastTanh(u) - l.stageTanh[i])
		y := l.stage[i] + v
		l.stage[i] = y + v // trapezoidal integration
		l.stageTanh[i] = fastTanh(y)
		u = y
	}
	l.feedback = l.stage[3]
	l.flushDenormals()

	var out float64
	switch l.mode {
	case ModeLP24:
		out = l.stage[3]
	case ModeLP12:
		out = l.stage[1]
	case ModeBP24:
		out = l.stage[1] - l.stage[3]
	case ModeHP24:
		out = driven - l.stage[3]
	case ModeNotch:
		out = l.stage[3] + (driven-l.stage[3])*0.5
	}

	if l.compensate {
		out *= 1.0 + l.resonance*0.5
	}
	return out
}

// Process filters a buffer in place - no allocations.
func (l *Ladder) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = float32(l.ProcessSample(float64(buffer[i])))
	}
}

// flushDenormals zeroes state that has decayed below the denormal
// threshold so the feedback path never grinds on subnormal arithmetic.
func (l *Ladder) flushDenormals() {
	for i := range l.stage {
		if math.Abs(l.stage[i]) < dsp.DenormalThreshold {
			l.stage[i] = 0
			l.stageTanh[i] = 0
		}
	}
	if math.Abs(l.feedback) < dsp.DenormalThreshold {
		l.feedback = 0
	}
}

// fastTanh is a Pade approximant of tanh, clamped to ±1 beyond ±3.
// Accurate to a few thousandths over the audio range and much cheaper
// than math.Tanh on the four-calls-per-stage hot path.
func fastTanh(x float64) float64 {
	if x < -3.0 {
		return -1.0
	}
	if x > 3.0 {
		return 1.0
	}
	x2 := x * x
	return x * (27.0 + x2) / (27.0 + 9.0*x2)
}
