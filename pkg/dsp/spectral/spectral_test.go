package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
)

const testSampleRate = 48000.0

// sineBuffer builds one FFT frame of a sine at the given frequency.
func sineBuffer(freq float64) []float64 {
	buf := make([]float64, FFTSize)
	for i := range buf {
		buf[i] = math.Sin(2 * math.Pi * freq * float64(i) / testSampleRate)
	}
	return buf
}

// renderOneHop advances the engine exactly one spectral frame.
func renderOneHop(e *MorphEngine) {
	block := make([]float32, HopSize)
	e.Process(block, block)
}

// TestMorphCornerIdentity loads one source and parks the morph position on
// its corner: the morphed spectrum must reproduce the source bin for bin.
func TestMorphCornerIdentity(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	e.SetMorphPosition(0, 0)

	renderOneHop(e)

	src := e.Source(0)
	cur := e.CurrentFrame()
	for bin := 0; bin < NumBins; bin++ {
		require.InDelta(t, src.Frame.Magnitudes[bin], cur.Magnitudes[bin], 1e-12,
			"magnitude bin %d", bin)
		require.InDelta(t, src.Frame.Phases[bin], cur.Phases[bin], 1e-12,
			"phase bin %d", bin)
	}
	assert.InDelta(t, src.Frame.Fundamental, cur.Fundamental, 1e-9)
}

// TestMorphBilinearBlend checks the two-source edge cases and midpoint.
func TestMorphBilinearBlend(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	e.LoadSource(1, sineBuffer(880))

	// Full right: source B exactly.
	e.SetMorphPosition(1, 0)
	renderOneHop(e)
	srcB := e.Source(1)
	cur := e.CurrentFrame()
	for bin := 0; bin < NumBins; bin++ {
		require.InDelta(t, srcB.Frame.Magnitudes[bin], cur.Magnitudes[bin], 1e-12,
			"bin %d", bin)
	}

	// Midpoint: equal halves of A and B.
	e.SetMorphPosition(0.5, 0)
	renderOneHop(e)
	srcA := e.Source(0)
	cur = e.CurrentFrame()
	for bin := 0; bin < NumBins; bin++ {
		want := 0.5*srcA.Frame.Magnitudes[bin] + 0.5*srcB.Frame.Magnitudes[bin]
		require.InDelta(t, want, cur.Magnitudes[bin], 1e-12, "bin %d", bin)
	}
}

// TestInactiveSourcesSilent verifies an empty engine outputs silence and
// that an inactive corner contributes nothing.
func TestInactiveSourcesSilent(t *testing.T) {
	e := NewMorphEngine(testSampleRate)

	out := make([]float32, HopSize*4)
	e.Process(out, out)
	for i, s := range out {
		require.Zero(t, s, "sample %d", i)
	}

	// One corner active, morph fully on the opposite corner.
	e.LoadSource(0, sineBuffer(440))
	e.SetMorphPosition(1, 1)
	renderOneHop(e)
	cur := e.CurrentFrame()
	for bin := 0; bin < NumBins; bin++ {
		require.Zero(t, cur.Magnitudes[bin], "bin %d", bin)
	}
}

// TestPitchShiftMovesPeak shifts up an octave and expects the spectral
// peak to land at twice the bin.
func TestPitchShiftMovesPeak(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	e.SetMorphPosition(0, 0)

	renderOneHop(e)
	before := peakBin(e.CurrentFrame().Magnitudes)

	e.SetPitchShift(12)
	renderOneHop(e)
	after := peakBin(e.CurrentFrame().Magnitudes)

	assert.InDelta(t, float64(2*before), float64(after), 2.0,
		"an octave up doubles the peak bin")
}

// TestSpectralTiltBrightens compares high-band to low-band energy with
// positive tilt against the untilted spectrum.
func TestSpectralTiltBrightens(t *testing.T) {
	e := NewMorphEngine(testSampleRate)

	// Broadband source: two tones far apart.
	buf := make([]float64, FFTSize)
	for i := range buf {
		tt := float64(i) / testSampleRate
		buf[i] = math.Sin(2*math.Pi*200*tt) + math.Sin(2*math.Pi*8000*tt)
	}
	e.LoadSource(0, buf)
	e.SetMorphPosition(0, 0)

	renderOneHop(e)
	loFlat, hiFlat := bandEnergy(e.CurrentFrame().Magnitudes)

	e.SetSpectralTilt(1)
	renderOneHop(e)
	loTilt, hiTilt := bandEnergy(e.CurrentFrame().Magnitudes)

	assert.Greater(t, hiTilt/loTilt, hiFlat/loFlat,
		"positive tilt should raise the high/low energy ratio")
}

// TestSpectralSmoothReducesPeaks blurs the spectrum and expects the
// largest bin to drop.
func TestSpectralSmoothReducesPeaks(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	e.SetMorphPosition(0, 0)

	renderOneHop(e)
	before := maxMagnitude(e.CurrentFrame().Magnitudes)

	e.SetSpectralSmooth(1)
	renderOneHop(e)
	after := maxMagnitude(e.CurrentFrame().Magnitudes)

	assert.Less(t, after, before)
}

// TestHarmonicEnhanceBoostsHarmonics checks the second harmonic gains
// relative to the unenhanced spectrum.
func TestHarmonicEnhanceBoostsHarmonics(t *testing.T) {
	e := NewMorphEngine(testSampleRate)

	// Fundamental plus a weak second harmonic.
	buf := make([]float64, FFTSize)
	for i := range buf {
		tt := float64(i) / testSampleRate
		buf[i] = math.Sin(2*math.Pi*440*tt) + 0.2*math.Sin(2*math.Pi*880*tt)
	}
	e.LoadSource(0, buf)
	e.SetMorphPosition(0, 0)

	renderOneHop(e)
	h2Bin := int(math.Floor(880.0 * FFTSize / testSampleRate))
	before := e.CurrentFrame().Magnitudes[h2Bin]

	e.SetHarmonicEnhance(1)
	renderOneHop(e)
	after := e.CurrentFrame().Magnitudes[h2Bin]

	assert.Greater(t, after, before)
}

// TestProcessStreamsAudio renders several hops of a loaded source and
// checks the stream is audible and bounded.
func TestProcessStreamsAudio(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	e.SetMorphPosition(0, 0)

	out := make([]float32, HopSize*8)
	e.Process(out, out)

	var energy float64
	for i, s := range out {
		require.False(t, math.IsNaN(float64(s)), "sample %d", i)
		require.Less(t, math.Abs(float64(s)), 1e4, "sample %d", i)
		energy += float64(s) * float64(s)
	}
	assert.Greater(t, energy, 0.0)
}

// TestResetSilencesTail verifies Reset clears the overlap-add state but
// keeps sources loaded.
func TestResetSilencesTail(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	e.SetMorphPosition(0, 0)

	out := make([]float32, HopSize*4)
	e.Process(out, out)
	e.Reset()

	assert.True(t, e.Source(0).Active, "sources survive Reset")
	e.Process(out, out)
	var energy float64
	for _, s := range out {
		energy += float64(s) * float64(s)
	}
	assert.Greater(t, energy, 0.0, "engine resumes rendering after Reset")
}

// TestFreezeBlocksRecapture verifies a frozen slot ignores live analysis.
func TestFreezeBlocksRecapture(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))
	fund := e.Source(0).Frame.Fundamental

	e.FreezeSource(0, true)
	live := make([]float32, FFTSize)
	for i := range live {
		live[i] = float32(math.Sin(2 * math.Pi * 2000 * float64(i) / testSampleRate))
	}
	e.AnalyzeInput(0, live)
	assert.InDelta(t, fund, e.Source(0).Frame.Fundamental, 1e-9,
		"frozen slot keeps its spectrum")

	e.FreezeSource(0, false)
	e.AnalyzeInput(0, live)
	assert.InDelta(t, 2000.0, e.Source(0).Frame.Fundamental,
		testSampleRate/FFTSize*2)
}

// TestCaptureInputAnalyzesRecentAudio streams a sine through Process and
// captures the ring into a slot.
func TestCaptureInputAnalyzesRecentAudio(t *testing.T) {
	e := NewMorphEngine(testSampleRate)

	in := make([]float32, FFTSize)
	out := make([]float32, FFTSize)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / testSampleRate))
	}
	e.Process(in, out)
	e.CaptureInput(2)

	require.True(t, e.Source(2).Active)
	assert.InDelta(t, 1000.0, e.Source(2).Frame.Fundamental,
		testSampleRate/FFTSize*2)
}

// TestBioMorphing drives the morph position from biometric state.
func TestBioMorphing(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	state := bio.NewState()
	state.SetHRV(0.8)
	state.SetCoherence(0.3)
	state.SetBreathPhase(0)
	state.SetHeartRate(120)

	e.AttachBio(state)
	e.SetBioReactive(true)
	e.RefreshBio()

	assert.InDelta(t, 0.8, e.MorphX(), 1e-9, "HRV steers X")
	assert.InDelta(t, 0.3, e.MorphY(), 1e-9, "coherence steers Y")

	e.SetBioReactive(false)
	e.SetMorphPosition(0.5, 0.5)
	e.RefreshBio()
	assert.InDelta(t, 0.5, e.MorphX(), 1e-9, "disabled bio leaves position alone")
}

// TestLoadSourceFeatures checks the analyzed features of a known tone.
func TestLoadSourceFeatures(t *testing.T) {
	e := NewMorphEngine(testSampleRate)
	e.LoadSource(0, sineBuffer(440))

	frame := &e.Source(0).Frame
	assert.InDelta(t, 440.0, frame.Fundamental, testSampleRate/FFTSize*2)
	assert.Less(t, frame.Flatness, 0.5, "a sine is tonal")
	assert.Greater(t, frame.Centroid, 0.0)
}

func peakBin(magnitudes []float64) int {
	best := 0
	bestMag := 0.0
	for i, m := range magnitudes {
		if m > bestMag {
			bestMag = m
			best = i
		}
	}
	return best
}

func maxMagnitude(magnitudes []float64) float64 {
	best := 0.0
	for _, m := range magnitudes {
		if m > best {
			best = m
		}
	}
	return best
}

// bandEnergy splits magnitude energy below and above 2 kHz.
func bandEnergy(magnitudes []float64) (lo, hi float64) {
	split := int(math.Floor(2000.0 * FFTSize / testSampleRate))
	for i, m := range magnitudes {
		if i < split {
			lo += m
		} else {
			hi += m
		}
	}
	return lo, hi
}
