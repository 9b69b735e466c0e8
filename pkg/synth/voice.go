// Package synth composes the oscillator, filter and envelope building
// blocks into a polyphonic biofeedback-modulated synthesizer engine.
package synth

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/dsp/envelope"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/filter"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/modulation"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/oscillator"
	"github.com/vibrationalforce/echoelcore/pkg/midi"
)

// driftLimit bounds the analog-style pitch random walk to ±0.1%.
const driftLimit = 0.001

// SynthVoice is one playable voice: two crossfaded oscillators with an
// optional supersaw substitute and wavetable layer, a ladder filter swept
// by its own envelope and the LFO, and a velocity-scaled amp envelope.
// It implements voice.Voice.
type SynthVoice struct {
	sampleRate float64

	osc1      *oscillator.Oscillator
	osc2      *oscillator.Oscillator
	osc1Shape oscillator.Shape
	osc2Shape oscillator.Shape
	oscMix    float64 // 0 = osc1 only, 1 = osc2 only
	detune    float64 // osc2 offset in cents

	super   *oscillator.SuperSaw
	superOn bool

	wavetable    *oscillator.WavetableOscillator
	wavetableMix float64

	ladder          *filter.Ladder
	baseCutoff      float64 // Hz
	filterEnvAmount float64 // octaves of sweep at full envelope
	lfoToFilter     float64 // octaves of sweep at full LFO

	ampEnv    *envelope.ADSR
	filterEnv *envelope.ADSR
	lfo       *modulation.LFO

	// Glide state: currentFreq chases targetFreq with a one-pole ramp.
	glideTime   float64
	glideCoef   float64
	currentFreq float64
	targetFreq  float64

	drift     float64
	randState uint32

	note      uint8
	velocity  uint8
	velGain   float64
	active    bool
	age       int64
	amplitude float64
}

// NewSynthVoice creates a voice with saw/saw oscillators, a 1 kHz base
// cutoff and snappy default envelopes.
func NewSynthVoice(sampleRate float64) *SynthVoice {
	v := &SynthVoice{
		sampleRate:      sampleRate,
		osc1:            oscillator.New(sampleRate),
		osc2:            oscillator.New(sampleRate),
		osc1Shape:       oscillator.Saw,
		osc2Shape:       oscillator.Saw,
		super:           oscillator.NewSuperSaw(sampleRate),
		ladder:          filter.NewLadder(sampleRate),
		ampEnv:          envelope.New(sampleRate),
		filterEnv:       envelope.New(sampleRate),
		lfo:             modulation.NewLFO(sampleRate),
		baseCutoff:      1000,
		filterEnvAmount: 2,
		randState:       1,
	}
	v.ampEnv.SetADSR(0.005, 0.1, 0.7, 0.2)
	v.filterEnv.SetADSR(0.002, 0.2, 0.3, 0.2)
	v.lfo.SetFrequency(5)
	v.ladder.SetCutoff(v.baseCutoff)
	return v
}

// SetShapes selects the waveform of each oscillator.
func (v *SynthVoice) SetShapes(shape1, shape2 oscillator.Shape) {
	v.osc1Shape = shape1
	v.osc2Shape = shape2
}

// SetOscMix crossfades between the two oscillators.
func (v *SynthVoice) SetOscMix(mix float64) {
	v.oscMix = clampUnit(mix)
}

// SetDetune offsets the second oscillator in cents.
func (v *SynthVoice) SetDetune(cents float64) {
	v.detune = cents
}

// SetSuperSaw replaces the oscillator pair with a 7-voice supersaw at the
// given detune amount.
func (v *SynthVoice) SetSuperSaw(enabled bool, detune float64) {
	v.superOn = enabled
	v.super.SetDetune(detune)
}

// SetWavetable installs a wavetable layer. A nil table removes it.
func (v *SynthVoice) SetWavetable(table *oscillator.Wavetable) {
	if table == nil {
		v.wavetable = nil
		return
	}
	v.wavetable = oscillator.NewWavetableOscillator(v.sampleRate, table)
}

// SetWavetableMix blends the wavetable layer over the oscillators.
func (v *SynthVoice) SetWavetableMix(mix float64) {
	v.wavetableMix = clampUnit(mix)
}

// SetWavetableMorph sets the frame position of the wavetable layer.
func (v *SynthVoice) SetWavetableMorph(morph float64) {
	if v.wavetable != nil {
		v.wavetable.SetMorph(morph)
	}
}

// SetCutoff sets the base filter cutoff in Hz before modulation.
func (v *SynthVoice) SetCutoff(hz float64) {
	v.baseCutoff = hz
}

// SetResonance sets the ladder resonance.
func (v *SynthVoice) SetResonance(res float64) {
	v.ladder.SetResonance(res)
}

// SetFilterMode selects the ladder output tap.
func (v *SynthVoice) SetFilterMode(mode filter.Mode) {
	v.ladder.SetMode(mode)
}

// SetFilterEnvAmount sets the envelope sweep depth in octaves.
func (v *SynthVoice) SetFilterEnvAmount(octaves float64) {
	v.filterEnvAmount = octaves
}

// SetLFOToFilter sets the LFO sweep depth in octaves.
func (v *SynthVoice) SetLFOToFilter(octaves float64) {
	v.lfoToFilter = octaves
}

// SetLFORate sets the modulation LFO frequency in Hz.
func (v *SynthVoice) SetLFORate(hz float64) {
	v.lfo.SetFrequency(hz)
}

// SetAmpADSR sets the amplitude envelope times in seconds.
func (v *SynthVoice) SetAmpADSR(attack, decay, sustain, release float64) {
	v.ampEnv.SetADSR(attack, decay, sustain, release)
}

// SetFilterADSR sets the filter envelope times in seconds.
func (v *SynthVoice) SetFilterADSR(attack, decay, sustain, release float64) {
	v.filterEnv.SetADSR(attack, decay, sustain, release)
}

// SetGlideTime sets the portamento time in seconds. Zero disables glide.
func (v *SynthVoice) SetGlideTime(seconds float64) {
	v.glideTime = math.Max(0, seconds)
	if v.glideTime == 0 {
		v.glideCoef = 0
		return
	}
	v.glideCoef = 1.0 - math.Exp(-4.0/(v.glideTime*v.sampleRate))
}

// IsActive reports whether the voice is sounding.
func (v *SynthVoice) IsActive() bool { return v.active }

// GetNote returns the note the voice is playing.
func (v *SynthVoice) GetNote() uint8 { return v.note }

// GetVelocity returns the trigger velocity.
func (v *SynthVoice) GetVelocity() uint8 { return v.velocity }

// GetAmplitude returns the current envelope level scaled by velocity.
func (v *SynthVoice) GetAmplitude() float64 { return v.amplitude }

// GetAge returns samples rendered since the last trigger.
func (v *SynthVoice) GetAge() int64 { return v.age }

// TriggerNote starts the note, gliding from the previous pitch when a
// glide time is set and the voice was already sounding.
func (v *SynthVoice) TriggerNote(note uint8, velocity uint8) {
	freq := midi.NoteToFrequency(note, 0)

	if v.active && v.glideCoef > 0 {
		v.targetFreq = freq
	} else {
		v.currentFreq = freq
		v.targetFreq = freq
	}

	v.note = note
	v.velocity = velocity
	v.velGain = float64(velocity) / 127.0
	v.active = true
	v.age = 0
	v.ampEnv.Trigger()
	v.filterEnv.Trigger()
	v.lfo.Sync()
}

// GlideTo changes the target pitch without retriggering the envelopes,
// for legato transitions.
func (v *SynthVoice) GlideTo(note uint8) {
	v.note = note
	v.targetFreq = midi.NoteToFrequency(note, 0)
	if v.glideCoef == 0 {
		v.currentFreq = v.targetFreq
	}
}

// ReleaseNote enters the release phase.
func (v *SynthVoice) ReleaseNote() {
	v.ampEnv.Release()
	v.filterEnv.Release()
}

// Stop silences the voice immediately.
func (v *SynthVoice) Stop() {
	v.active = false
	v.amplitude = 0
	v.ampEnv.Reset()
	v.filterEnv.Reset()
	v.ladder.Reset()
}

// Reset clears all voice state.
func (v *SynthVoice) Reset() {
	v.Stop()
	v.osc1.Reset()
	v.osc2.Reset()
	v.super.Reset()
	if v.wavetable != nil {
		v.wavetable.Reset()
	}
	v.lfo.Reset()
	v.drift = 0
}

// Process renders the voice additively into output. No allocations.
func (v *SynthVoice) Process(output []float32) {
	if !v.active {
		return
	}

	detuneFactor := math.Exp2(v.detune / 1200.0)

	for i := range output {
		if v.currentFreq != v.targetFreq {
			v.currentFreq += (v.targetFreq - v.currentFreq) * v.glideCoef
			if math.Abs(v.targetFreq-v.currentFreq) < 0.01 {
				v.currentFreq = v.targetFreq
			}
		}

		freq := v.currentFreq * (1.0 + v.nextDrift())

		var sample float64
		if v.superOn {
			v.super.SetFrequency(freq)
			sample = float64(v.super.Next())
		} else {
			v.osc1.SetFrequency(freq)
			v.osc2.SetFrequency(freq * detuneFactor)
			a := float64(v.osc1.Next(v.osc1Shape))
			b := float64(v.osc2.Next(v.osc2Shape))
			sample = a*(1.0-v.oscMix) + b*v.oscMix
		}

		if v.wavetable != nil && v.wavetableMix > 0 {
			v.wavetable.SetFrequency(freq)
			wt := float64(v.wavetable.Next())
			sample = sample*(1.0-v.wavetableMix) + wt*v.wavetableMix
		}

		fenv := float64(v.filterEnv.Next())
		lfoVal := v.lfo.Process()
		octaves := fenv*v.filterEnvAmount + lfoVal*v.lfoToFilter
		v.ladder.SetCutoff(v.baseCutoff * math.Exp2(octaves))
		sample = v.ladder.ProcessSample(sample)

		env := float64(v.ampEnv.Next())
		v.amplitude = env * v.velGain
		output[i] += float32(sample * env * v.velGain)
		v.age++

		if !v.ampEnv.IsActive() {
			v.active = false
			v.amplitude = 0
			return
		}
	}
}

// nextDrift advances a slow random walk bounded to ±driftLimit.
func (v *SynthVoice) nextDrift() float64 {
	v.randState = v.randState*1664525 + 1013904223
	step := (float64(v.randState>>8)/float64(1<<24) - 0.5) * 1e-6
	v.drift += step
	if v.drift > driftLimit {
		v.drift = driftLimit
	} else if v.drift < -driftLimit {
		v.drift = -driftLimit
	}
	return v.drift
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
