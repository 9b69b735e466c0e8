// Package dynamics provides the master bus brick-wall limiter.
package dynamics

import "math"

const minDB = -96.0

// Limiter is a lookahead brick-wall limiter with linked stereo detection.
// Attack is instantaneous; the lookahead delay lets the gain drop land
// before the peak it was computed from.
type Limiter struct {
	sampleRate float64

	ceiling    float64 // dB
	ceilingLin float64
	release    float64 // seconds
	lookahead  float64 // seconds
	truePeak   bool

	releaseCoef float64
	env         float64

	delayL, delayR []float32
	delayIndex     int
	delaySamples   int

	lastL, lastR float32

	gainReduction float64 // dB, for metering
}

// NewLimiter creates a limiter with a -0.3 dB ceiling, 50 ms release and
// 5 ms lookahead.
func NewLimiter(sampleRate float64) *Limiter {
	l := &Limiter{
		sampleRate: sampleRate,
		release:    0.050,
		lookahead:  0.005,
		truePeak:   true,
	}
	l.SetCeiling(-0.3)
	l.updateRelease()
	l.updateLookahead()
	return l
}

// SetCeiling sets the output ceiling in dB. Positive values are clamped
// to zero.
func (l *Limiter) SetCeiling(dB float64) {
	l.ceiling = math.Min(0.0, dB)
	l.ceilingLin = math.Pow(10.0, l.ceiling/20.0)
}

// SetRelease sets the release time in seconds.
func (l *Limiter) SetRelease(seconds float64) {
	l.release = math.Max(0.001, seconds)
	l.updateRelease()
}

// SetLookahead sets the lookahead time in seconds, capped at 10 ms.
func (l *Limiter) SetLookahead(seconds float64) {
	l.lookahead = math.Max(0.0, math.Min(0.010, seconds))
	l.updateLookahead()
}

// SetTruePeak enables inter-sample peak estimation in the detector.
func (l *Limiter) SetTruePeak(enabled bool) {
	l.truePeak = enabled
}

// Lookahead returns the current delay through the limiter in samples.
func (l *Limiter) Lookahead() int {
	return l.delaySamples
}

// GainReduction returns the current gain reduction in dB.
func (l *Limiter) GainReduction() float64 {
	return l.gainReduction
}

func (l *Limiter) updateRelease() {
	l.releaseCoef = 1.0 - math.Exp(-1.0/(l.release*l.sampleRate))
}

func (l *Limiter) updateLookahead() {
	n := int(l.lookahead * l.sampleRate)
	if n == l.delaySamples {
		return
	}
	l.delaySamples = n
	l.delayIndex = 0
	if n > 0 {
		l.delayL = make([]float32, n)
		l.delayR = make([]float32, n)
	} else {
		l.delayL = nil
		l.delayR = nil
	}
}

// truePeakOf estimates the inter-sample peak between the previous and
// current sample with a midpoint interpolation.
func truePeakOf(last, current float32) float64 {
	mid := float64(last+current) * 0.5
	peak := math.Max(math.Abs(float64(last)), math.Abs(float64(current)))
	return math.Max(peak, math.Abs(mid))
}

// gainFor updates the detection envelope with a peak level and returns
// the linear gain that keeps it under the ceiling.
func (l *Limiter) gainFor(peak float64) float64 {
	if peak > l.env {
		l.env = peak
	} else {
		l.env += (peak - l.env) * l.releaseCoef
	}

	if l.env <= l.ceilingLin {
		l.gainReduction = 0.0
		return 1.0
	}

	envDB := minDB
	if l.env > 0 {
		envDB = 20.0 * math.Log10(l.env)
	}
	l.gainReduction = envDB - l.ceiling
	return l.ceilingLin / l.env
}

// Process limits a single mono sample. No allocations.
func (l *Limiter) Process(input float32) float32 {
	peak := math.Abs(float64(input))
	if l.truePeak {
		peak = truePeakOf(l.lastL, input)
	}
	l.lastL = input

	out := input
	if l.delaySamples > 0 {
		out = l.delayL[l.delayIndex]
		l.delayL[l.delayIndex] = input
		l.delayIndex++
		if l.delayIndex >= l.delaySamples {
			l.delayIndex = 0
		}
	}

	return out * float32(l.gainFor(peak))
}

// ProcessBuffer limits a mono buffer. Input and output may alias.
func (l *Limiter) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = l.Process(input[i])
	}
}

// ProcessStereo limits a stereo pair with linked detection so the image
// doesn't shift under gain reduction. No allocations.
func (l *Limiter) ProcessStereo(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		peakL := math.Abs(float64(inputL[i]))
		peakR := math.Abs(float64(inputR[i]))
		if l.truePeak {
			peakL = truePeakOf(l.lastL, inputL[i])
			peakR = truePeakOf(l.lastR, inputR[i])
		}
		l.lastL = inputL[i]
		l.lastR = inputR[i]

		outL, outR := inputL[i], inputR[i]
		if l.delaySamples > 0 {
			outL = l.delayL[l.delayIndex]
			outR = l.delayR[l.delayIndex]
			l.delayL[l.delayIndex] = inputL[i]
			l.delayR[l.delayIndex] = inputR[i]
			l.delayIndex++
			if l.delayIndex >= l.delaySamples {
				l.delayIndex = 0
			}
		}

		gain := float32(l.gainFor(math.Max(peakL, peakR)))
		outputL[i] = outL * gain
		outputR[i] = outR * gain
	}
}

// Reset clears the envelope and the lookahead delay.
func (l *Limiter) Reset() {
	l.env = 0.0
	l.gainReduction = 0.0
	l.lastL = 0.0
	l.lastR = 0.0
	l.delayIndex = 0
	for i := range l.delayL {
		l.delayL[i] = 0
	}
	for i := range l.delayR {
		l.delayR[i] = 0
	}
}
