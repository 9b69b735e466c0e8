package reverb

import (
	"math"
)

// Freeverb tuning constants (scaled for 44.1kHz)
const (
	numCombs     = 8
	numAllpasses = 4
	fixedGain    = 0.015
	scaleDamping = 0.4
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	initialRoom  = 0.5
	initialDamp  = 0.5
	initialWet   = 1.0 / 3.0
	initialDry   = 0.0
	initialWidth = 1.0
	stereoSpread = 23

	// Freeze mode parameters
	freezeRoom = 1.0
	freezeDamp = 0.0
)

// Comb filter tuning values (in samples at 44.1kHz)
var combTuning = [numCombs]int{
	1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617,
}

// Allpass filter tuning values (in samples at 44.1kHz)
var allpassTuning = [numAllpasses]int{
	556, 441, 341, 225,
}

// comb is a damped feedback comb, one tank line of the reverb.
type comb struct {
	buffer      []float32
	bufferIdx   int
	feedback    float64
	filterstore float32
	damp1       float64
	damp2       float64
}

func newComb(delaySamples int) *comb {
	return &comb{
		buffer:   make([]float32, delaySamples),
		feedback: 0.5,
		damp1:    0.5,
		damp2:    0.5,
	}
}

func (c *comb) setFeedback(feedback float64) {
	c.feedback = math.Max(0.0, math.Min(1.0, feedback))
}

func (c *comb) setDamping(damping float64) {
	c.damp1 = damping
	c.damp2 = 1.0 - damping
}

func (c *comb) process(input float32) float32 {
	output := c.buffer[c.bufferIdx]

	// One-pole lowpass in the feedback path.
	c.filterstore = float32(float64(output)*c.damp2 + float64(c.filterstore)*c.damp1)

	c.buffer[c.bufferIdx] = input + float32(c.feedback)*c.filterstore

	c.bufferIdx++
	if c.bufferIdx >= len(c.buffer) {
		c.bufferIdx = 0
	}

	return output
}

func (c *comb) reset() {
	for i := range c.buffer {
		c.buffer[i] = 0
	}
	c.bufferIdx = 0
	c.filterstore = 0
}

// allpass is the series diffusion stage after the comb bank.
type allpass struct {
	buffer    []float32
	bufferIdx int
	feedback  float64
}

func newAllpass(delaySamples int) *allpass {
	return &allpass{
		buffer:   make([]float32, delaySamples),
		feedback: 0.5,
	}
}

func (a *allpass) process(input float32) float32 {
	bufout := a.buffer[a.bufferIdx]

	// y[n] = -x[n] + x[n-D] + C*y[n-D]
	output := -input + bufout
	a.buffer[a.bufferIdx] = input + float32(a.feedback)*bufout

	a.bufferIdx++
	if a.bufferIdx >= len(a.buffer) {
		a.bufferIdx = 0
	}

	return output
}

func (a *allpass) reset() {
	for i := range a.buffer {
		a.buffer[i] = 0
	}
	a.bufferIdx = 0
}

// Freeverb implements the Freeverb reverb algorithm by Jezar at Dreampoint:
// eight damped combs in parallel into four series allpasses per channel,
// with the right channel offset by a fixed stereo spread. The synth engine
// uses it as the send reverb.
type Freeverb struct {
	combL [numCombs]*comb
	combR [numCombs]*comb

	allpassL [numAllpasses]*allpass
	allpassR [numAllpasses]*allpass

	// Parameters
	gain       float64
	roomSize   float64
	damping    float64
	wetLevel   float64
	dryLevel   float64
	width      float64
	mode       float64 // freeze mode
	sampleRate float64

	// Cached values
	wet1  float64
	wet2  float64
	dry   float64
	damp1 float64
	damp2 float64
}

// NewFreeverb creates a new Freeverb reverb instance
func NewFreeverb(sampleRate float64) *Freeverb {
	f := &Freeverb{
		gain:       fixedGain,
		roomSize:   initialRoom,
		damping:    initialDamp,
		wetLevel:   initialWet,
		dryLevel:   initialDry,
		width:      initialWidth,
		mode:       0.0,
		sampleRate: sampleRate,
	}

	// Scale the tuning tables to the actual sample rate.
	scaleFactor := sampleRate / 44100.0

	for i := 0; i < numCombs; i++ {
		delaySamplesL := int(float64(combTuning[i]) * scaleFactor)
		delaySamplesR := int(float64(combTuning[i]+stereoSpread) * scaleFactor)

		f.combL[i] = newComb(delaySamplesL)
		f.combR[i] = newComb(delaySamplesR)
	}

	for i := 0; i < numAllpasses; i++ {
		delaySamplesL := int(float64(allpassTuning[i]) * scaleFactor)
		delaySamplesR := int(float64(allpassTuning[i]+stereoSpread) * scaleFactor)

		f.allpassL[i] = newAllpass(delaySamplesL)
		f.allpassR[i] = newAllpass(delaySamplesR)

		f.allpassL[i].feedback = 0.5
		f.allpassR[i].feedback = 0.5
	}

	f.update()

	return f
}

// SetRoomSize sets the room size (0-1)
func (f *Freeverb) SetRoomSize(size float64) {
	f.roomSize = math.Max(0.0, math.Min(1.0, size))
	f.update()
}

// SetDamping sets the damping amount (0-1)
func (f *Freeverb) SetDamping(damping float64) {
	f.damping = math.Max(0.0, math.Min(1.0, damping))
	f.update()
}

// SetWetLevel sets the wet signal level (0-1)
func (f *Freeverb) SetWetLevel(level float64) {
	f.wetLevel = math.Max(0.0, math.Min(1.0, level))
	f.update()
}

// SetDryLevel sets the dry signal level (0-1)
func (f *Freeverb) SetDryLevel(level float64) {
	f.dryLevel = math.Max(0.0, math.Min(1.0, level))
	f.update()
}

// SetWidth sets the stereo width (0-1)
func (f *Freeverb) SetWidth(width float64) {
	f.width = math.Max(0.0, math.Min(1.0, width))
	f.update()
}

// SetMode sets the freeze mode (0=normal, 1=frozen)
func (f *Freeverb) SetMode(mode float64) {
	f.mode = math.Max(0.0, math.Min(1.0, mode))
	f.update()
}

// SetFreeze toggles the infinite-sustain mode.
func (f *Freeverb) SetFreeze(freeze bool) {
	if freeze {
		f.SetMode(1.0)
	} else {
		f.SetMode(0.0)
	}
}

// update recalculates internal values after parameter changes
func (f *Freeverb) update() {
	f.wet1 = f.wetLevel * (f.width/2.0 + 0.5)
	f.wet2 = f.wetLevel * ((1.0 - f.width) / 2.0)

	f.dry = f.dryLevel

	// Frozen tanks recirculate at unity with no damping.
	var roomSize, damping float64
	if f.mode >= 0.5 {
		roomSize = freezeRoom
		damping = freezeDamp
	} else {
		roomSize = f.roomSize
		damping = f.damping
	}

	feedback := roomSize*scaleRoom + offsetRoom
	f.damp1 = damping * scaleDamping
	f.damp2 = 1.0 - f.damp1

	for i := 0; i < numCombs; i++ {
		f.combL[i].setFeedback(feedback)
		f.combR[i].setFeedback(feedback)
		f.combL[i].setDamping(damping)
		f.combR[i].setDamping(damping)
	}
}

// ProcessStereo processes stereo input through the reverb
func (f *Freeverb) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	input := (inputL + inputR) * float32(f.gain)

	var outL, outR float32

	for i := 0; i < numCombs; i++ {
		outL += f.combL[i].process(input)
		outR += f.combR[i].process(input)
	}

	for i := 0; i < numAllpasses; i++ {
		outL = f.allpassL[i].process(outL)
		outR = f.allpassR[i].process(outR)
	}

	outputL = outL*float32(f.wet1) + outR*float32(f.wet2) + inputL*float32(f.dry)
	outputR = outR*float32(f.wet1) + outL*float32(f.wet2) + inputR*float32(f.dry)

	return outputL, outputR
}

// Process processes a mono input sample
func (f *Freeverb) Process(input float32) float32 {
	outputL, _ := f.ProcessStereo(input, input)
	return outputL
}

// ProcessBuffer processes stereo buffers in place - no allocations
func (f *Freeverb) ProcessBuffer(left, right []float32) {
	for i := range left {
		left[i], right[i] = f.ProcessStereo(left[i], right[i])
	}
}

// Reset clears all internal state
func (f *Freeverb) Reset() {
	for i := 0; i < numCombs; i++ {
		f.combL[i].reset()
		f.combR[i].reset()
	}
	for i := 0; i < numAllpasses; i++ {
		f.allpassL[i].reset()
		f.allpassR[i].reset()
	}
}

// Preset convenience methods

// SetPresetSmallRoom configures the reverb for a small room sound
func (f *Freeverb) SetPresetSmallRoom() {
	f.SetRoomSize(0.3)
	f.SetDamping(0.75)
	f.SetWetLevel(0.25)
	f.SetDryLevel(0.75)
	f.SetWidth(0.5)
}

// SetPresetMediumHall configures the reverb for a medium hall sound
func (f *Freeverb) SetPresetMediumHall() {
	f.SetRoomSize(0.6)
	f.SetDamping(0.5)
	f.SetWetLevel(0.35)
	f.SetDryLevel(0.65)
	f.SetWidth(0.75)
}

// SetPresetLargeHall configures the reverb for a large hall sound
func (f *Freeverb) SetPresetLargeHall() {
	f.SetRoomSize(0.85)
	f.SetDamping(0.3)
	f.SetWetLevel(0.4)
	f.SetDryLevel(0.6)
	f.SetWidth(1.0)
}
