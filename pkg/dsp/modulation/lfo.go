// Package modulation provides low-frequency control signals for
// modulating synthesis and effect parameters.
package modulation

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/dsp"
)

// Waveform represents the LFO waveform shape
type Waveform int

const (
	// WaveformSine produces a sine wave
	WaveformSine Waveform = iota
	// WaveformTriangle produces a triangle wave
	WaveformTriangle
	// WaveformSquare produces a square wave
	WaveformSquare
	// WaveformSawtooth produces a sawtooth wave (ramp up)
	WaveformSawtooth
	// WaveformSampleHold holds a random value for each cycle
	WaveformSampleHold
)

// LFO implements a low frequency oscillator for modulation. Output is
// bipolar (-1..1) scaled by depth around a DC offset.
type LFO struct {
	sampleRate float64

	// Parameters
	frequency float64  // Frequency in Hz
	phase     float64  // Current phase (0-1)
	waveform  Waveform // Waveform type
	depth     float64  // Modulation depth (0-1)
	offset    float64  // DC offset (-1 to 1)

	// Sync
	syncEnabled bool
	syncPhase   float64 // Phase to reset to on sync

	phaseInc float64

	// Sample & hold state: a new value is drawn on every phase wrap.
	currentRandom float64
	randState     uint32
}

// NewLFO creates a new LFO at 1 Hz, sine, full depth.
func NewLFO(sampleRate float64) *LFO {
	lfo := &LFO{
		sampleRate: sampleRate,
		frequency:  1.0,
		waveform:   WaveformSine,
		depth:      1.0,
		randState:  1,
	}

	lfo.updatePhaseIncrement()
	return lfo
}

// SetFrequency sets the LFO frequency in Hz, clamped to the LFO range.
func (l *LFO) SetFrequency(hz float64) {
	l.frequency = math.Max(dsp.MinLFORate, math.Min(dsp.MaxLFORate, hz))
	l.updatePhaseIncrement()
}

// SetWaveform sets the LFO waveform
func (l *LFO) SetWaveform(waveform Waveform) {
	l.waveform = waveform
	if waveform == WaveformSampleHold {
		l.currentRandom = l.nextRandom()
	}
}

// SetDepth sets the modulation depth (0-1)
func (l *LFO) SetDepth(depth float64) {
	l.depth = math.Max(0.0, math.Min(1.0, depth))
}

// SetOffset sets the DC offset (-1 to 1)
func (l *LFO) SetOffset(offset float64) {
	l.offset = math.Max(-1.0, math.Min(1.0, offset))
}

// SetPhase sets the current phase (0-1)
func (l *LFO) SetPhase(phase float64) {
	l.phase = phase - math.Floor(phase)
}

// Seed reseeds the sample & hold generator.
func (l *LFO) Seed(seed uint32) {
	if seed == 0 {
		seed = 1
	}
	l.randState = seed
}

// EnableSync enables sync with configurable reset phase
func (l *LFO) EnableSync(enabled bool, resetPhase float64) {
	l.syncEnabled = enabled
	l.syncPhase = math.Max(0.0, math.Min(1.0, resetPhase))
}

// Sync resets the LFO phase (for tempo sync or note retrigger)
func (l *LFO) Sync() {
	if l.syncEnabled {
		l.phase = l.syncPhase
	}
}

func (l *LFO) updatePhaseIncrement() {
	l.phaseInc = l.frequency / l.sampleRate
}

// generateWaveform generates the raw waveform value for the current phase
func (l *LFO) generateWaveform() float64 {
	switch l.waveform {
	case WaveformSine:
		return math.Sin(2.0 * math.Pi * l.phase)

	case WaveformTriangle:
		if l.phase < 0.5 {
			return 4.0*l.phase - 1.0
		}
		return 3.0 - 4.0*l.phase

	case WaveformSquare:
		if l.phase < 0.5 {
			return 1.0
		}
		return -1.0

	case WaveformSawtooth:
		return 2.0*l.phase - 1.0

	case WaveformSampleHold:
		return l.currentRandom

	default:
		return 0.0
	}
}

// Process generates the next LFO sample
func (l *LFO) Process() float64 {
	wave := l.generateWaveform()

	output := wave*l.depth + l.offset

	l.phase += l.phaseInc
	if l.phase >= 1.0 {
		l.phase -= 1.0
		if l.waveform == WaveformSampleHold {
			l.currentRandom = l.nextRandom()
		}
	}

	return math.Max(-1.0, math.Min(1.0, output))
}

// ProcessBuffer fills a buffer with LFO values
func (l *LFO) ProcessBuffer(output []float64) {
	for i := range output {
		output[i] = l.Process()
	}
}

// GetPhase returns the current phase (0-1)
func (l *LFO) GetPhase() float64 {
	return l.phase
}

// Reset resets the LFO state
func (l *LFO) Reset() {
	l.phase = 0.0
	l.currentRandom = 0.0
}

// nextRandom steps the linear congruential generator and returns a value
// in -1..1.
func (l *LFO) nextRandom() float64 {
	l.randState = l.randState*1664525 + 1013904223
	return 2.0*float64(l.randState)/float64(1<<32) - 1.0
}
