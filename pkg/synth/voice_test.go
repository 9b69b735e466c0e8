package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibrationalforce/echoelcore/pkg/dsp/oscillator"
	"github.com/vibrationalforce/echoelcore/pkg/midi"
)

const testSampleRate = 48000.0

func renderVoice(v *SynthVoice, samples int) []float32 {
	buf := make([]float32, samples)
	v.Process(buf)
	return buf
}

func bufferEnergy(buf []float32) float64 {
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return sum
}

func requireFinite(t *testing.T, buf []float32) {
	t.Helper()
	for i, s := range buf {
		require.False(t, math.IsNaN(float64(s)), "NaN at sample %d", i)
		require.False(t, math.IsInf(float64(s), 0), "Inf at sample %d", i)
	}
}

func TestVoiceTriggerProducesAudio(t *testing.T) {
	v := NewSynthVoice(testSampleRate)

	out := renderVoice(v, 512)
	assert.Zero(t, bufferEnergy(out), "silent before trigger")

	v.TriggerNote(60, 100)
	require.True(t, v.IsActive())
	assert.Equal(t, uint8(60), v.GetNote())
	assert.Equal(t, uint8(100), v.GetVelocity())

	out = renderVoice(v, 512)
	requireFinite(t, out)
	assert.Greater(t, bufferEnergy(out), 0.0)
	assert.Equal(t, int64(512), v.GetAge())
}

func TestVoiceVelocityScalesLevel(t *testing.T) {
	quiet := NewSynthVoice(testSampleRate)
	loud := NewSynthVoice(testSampleRate)

	quiet.TriggerNote(60, 32)
	loud.TriggerNote(60, 127)

	eQuiet := bufferEnergy(renderVoice(quiet, 2048))
	eLoud := bufferEnergy(renderVoice(loud, 2048))
	assert.Greater(t, eLoud, eQuiet*2)
}

func TestVoiceReleaseEndsVoice(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.SetAmpADSR(0.001, 0.01, 0.5, 0.005)

	v.TriggerNote(60, 100)
	renderVoice(v, 1024)
	require.True(t, v.IsActive())

	v.ReleaseNote()
	renderVoice(v, 1024)
	assert.False(t, v.IsActive(), "voice goes idle after the release tail")
	assert.Zero(t, v.GetAmplitude())
}

func TestVoiceStopIsImmediate(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.TriggerNote(60, 100)
	renderVoice(v, 128)

	v.Stop()
	assert.False(t, v.IsActive())
	out := renderVoice(v, 128)
	assert.Zero(t, bufferEnergy(out))
}

func TestVoiceGlide(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.SetGlideTime(0.05)

	v.TriggerNote(60, 100)
	renderVoice(v, 64)
	low := midi.NoteToFrequency(60, 0)
	high := midi.NoteToFrequency(72, 0)
	assert.InDelta(t, low, v.currentFreq, low*driftLimit*2,
		"first note jumps straight to pitch")

	// Retrigger while sounding glides instead of jumping.
	v.TriggerNote(72, 100)
	renderVoice(v, 128)
	assert.Greater(t, v.currentFreq, low)
	assert.Less(t, v.currentFreq, high)

	before := v.currentFreq
	renderVoice(v, 128)
	assert.Greater(t, v.currentFreq, before, "still moving toward target")
}

func TestVoiceGlideToWithoutRetrigger(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.SetGlideTime(0.02)

	v.TriggerNote(60, 100)
	renderVoice(v, 256)
	age := v.GetAge()

	v.GlideTo(64)
	assert.Equal(t, uint8(64), v.GetNote())
	assert.Equal(t, age, v.GetAge(), "no envelope retrigger")

	// Without glide the pitch change is instant.
	v.SetGlideTime(0)
	v.GlideTo(67)
	assert.Equal(t, midi.NoteToFrequency(67, 0), v.currentFreq)
}

func TestVoiceSuperSawMode(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.SetSuperSaw(true, 0.5)
	v.TriggerNote(57, 100)

	out := renderVoice(v, 1024)
	requireFinite(t, out)
	assert.Greater(t, bufferEnergy(out), 0.0)
}

func TestVoiceWavetableLayer(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.SetWavetable(oscillator.NewSineSawBank(8))
	v.SetWavetableMix(0.5)
	v.SetWavetableMorph(0.3)
	v.TriggerNote(60, 100)

	out := renderVoice(v, 1024)
	requireFinite(t, out)
	assert.Greater(t, bufferEnergy(out), 0.0)

	v.SetWavetable(nil)
	out = renderVoice(v, 256)
	requireFinite(t, out)
}

func TestVoiceOscMixCrossfades(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.SetShapes(oscillator.Sine, oscillator.Square)
	v.SetOscMix(0)
	v.SetFilterEnvAmount(0)
	v.SetCutoff(18000) // filter out of the way
	v.TriggerNote(69, 127)

	sineOnly := renderVoice(v, 2048)
	requireFinite(t, sineOnly)

	v.SetOscMix(1)
	squareOnly := renderVoice(v, 2048)
	requireFinite(t, squareOnly)

	// A square carries far more high-frequency energy than a sine.
	assert.NotEqual(t, bufferEnergy(sineOnly), bufferEnergy(squareOnly))
}

func TestVoiceDriftStaysBounded(t *testing.T) {
	v := NewSynthVoice(testSampleRate)
	v.TriggerNote(60, 100)

	for i := 0; i < 100; i++ {
		renderVoice(v, 512)
		require.LessOrEqual(t, math.Abs(v.drift), driftLimit)
	}
}
