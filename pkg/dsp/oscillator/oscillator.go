// Package oscillator provides the synthesis oscillators: a PolyBLEP
// oscillator for the classic shapes, a detuned supersaw stack, and a
// frame-morphing wavetable oscillator.
package oscillator

import "math"

// Shape selects the waveform an oscillator generates.
type Shape int

const (
	Sine Shape = iota
	Triangle
	Saw
	Square
	Pulse
	numShapes
)

// Oscillator generates periodic waveforms with a 0..1 phase accumulator.
// Saw, Square and Pulse apply a PolyBLEP correction at their edges so the
// discontinuities don't alias.
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
	pulseWidth float64
}

// New creates an oscillator at the given sample rate, defaulting to 440 Hz.
func New(sampleRate float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		frequency:  440.0,
		phaseInc:   440.0 / sampleRate,
		pulseWidth: 0.5,
	}
}

// SetFrequency sets the oscillator frequency in Hz, clamped to 0..Nyquist.
func (o *Oscillator) SetFrequency(freq float64) {
	nyquist := o.sampleRate * 0.5
	if freq < 0 {
		freq = 0
	} else if freq > nyquist {
		freq = nyquist
	}
	o.frequency = freq
	o.phaseInc = freq / o.sampleRate
}

// Frequency returns the current frequency in Hz.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// SetPhase sets the oscillator phase, wrapped to 0..1.
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
}

// SetPulseWidth sets the pulse duty cycle, clamped to 0.01..0.99.
func (o *Oscillator) SetPulseWidth(width float64) {
	if width < 0.01 {
		width = 0.01
	} else if width > 0.99 {
		width = 0.99
	}
	o.pulseWidth = width
}

// Reset resets the oscillator phase to 0.
func (o *Oscillator) Reset() {
	o.phase = 0.0
}

// updatePhase advances the phase and wraps it.
func (o *Oscillator) updatePhase() {
	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

// polyBLEP returns the band-limiting residual for a unit step at phase 0,
// spread over one sample on each side of the discontinuity.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	}
	if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0.0
}

// wrapPhase wraps a phase offset back into 0..1.
func wrapPhase(t float64) float64 {
	if t >= 1.0 {
		return t - 1.0
	}
	return t
}

// Next generates one sample of the given shape.
func (o *Oscillator) Next(shape Shape) float32 {
	switch shape {
	case Triangle:
		return o.NextTriangle()
	case Saw:
		return o.NextSaw()
	case Square:
		return o.NextSquare()
	case Pulse:
		return o.NextPulse()
	default:
		return o.NextSine()
	}
}

// NextSine generates a sine sample.
func (o *Oscillator) NextSine() float32 {
	sample := float32(math.Sin(2.0 * math.Pi * o.phase))
	o.updatePhase()
	return sample
}

// NextTriangle generates a triangle sample. The shape has no hard edges,
// so it runs uncorrected.
func (o *Oscillator) NextTriangle() float32 {
	var sample float32
	if o.phase < 0.5 {
		sample = float32(4.0*o.phase - 1.0)
	} else {
		sample = float32(3.0 - 4.0*o.phase)
	}
	o.updatePhase()
	return sample
}

// NextSaw generates a PolyBLEP-corrected sawtooth sample.
func (o *Oscillator) NextSaw() float32 {
	sample := 2.0*o.phase - 1.0 - polyBLEP(o.phase, o.phaseInc)
	o.updatePhase()
	return float32(sample)
}

// NextSquare generates a PolyBLEP-corrected square sample.
func (o *Oscillator) NextSquare() float32 {
	var sample float64
	if o.phase < 0.5 {
		sample = 1.0
	} else {
		sample = -1.0
	}
	sample += polyBLEP(o.phase, o.phaseInc)
	sample -= polyBLEP(wrapPhase(o.phase+0.5), o.phaseInc)
	o.updatePhase()
	return float32(sample)
}

// NextPulse generates a PolyBLEP-corrected pulse sample at the current
// pulse width.
func (o *Oscillator) NextPulse() float32 {
	var sample float64
	if o.phase < o.pulseWidth {
		sample = 1.0
	} else {
		sample = -1.0
	}
	sample += polyBLEP(o.phase, o.phaseInc)
	sample -= polyBLEP(wrapPhase(o.phase+1.0-o.pulseWidth), o.phaseInc)
	o.updatePhase()
	return float32(sample)
}

// Process fills buffer with the given shape - no allocations.
func (o *Oscillator) Process(buffer []float32, shape Shape) {
	for i := range buffer {
		buffer[i] = o.Next(shape)
	}
}

// ProcessSine fills buffer with sine - no allocations.
func (o *Oscillator) ProcessSine(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.NextSine()
	}
}

// ProcessSaw fills buffer with sawtooth - no allocations.
func (o *Oscillator) ProcessSaw(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.NextSaw()
	}
}

// ProcessSquare fills buffer with square - no allocations.
func (o *Oscillator) ProcessSquare(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.NextSquare()
	}
}