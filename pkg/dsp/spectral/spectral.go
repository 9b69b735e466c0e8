// Package spectral implements the four-source spectral morphing engine.
//
// Four analyzed spectra sit at the corners of a morph square. A position
// (X, Y) bilinearly blends their magnitudes and phases, a post chain
// applies pitch shift, tilt, smoothing and harmonic enhancement in the
// spectral domain, and an overlap-add STFT resynthesizes audio. Sources
// come from LoadSource (offline buffers) or AnalyzeInput (live capture),
// and the morph position can track biometric state.
package spectral

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/analysis"
)

const (
	// FFTSize is the analysis and synthesis transform length.
	FFTSize = 4096
	// HopSize is the synthesis hop, a 4:1 overlap.
	HopSize = FFTSize / 4
	// NumBins is the number of non-redundant spectrum bins.
	NumBins = FFTSize/2 + 1
	// NumSources is the number of morph corner slots.
	NumSources = 4
	// MaxFormants is the number of formant peaks tracked per source.
	MaxFormants = 5
)

// Frame is one analyzed spectrum with its derived features.
type Frame struct {
	Magnitudes []float64 // NumBins entries
	Phases     []float64 // NumBins entries

	FormantFrequencies [MaxFormants]float64
	FormantAmplitudes  [MaxFormants]float64

	Fundamental float64 // Hz
	Centroid    float64 // Hz
	Flatness    float64
}

func newFrame() Frame {
	return Frame{
		Magnitudes: make([]float64, NumBins),
		Phases:     make([]float64, NumBins),
	}
}

func (f *Frame) clear() {
	for i := range f.Magnitudes {
		f.Magnitudes[i] = 0
		f.Phases[i] = 0
	}
	for i := range f.FormantFrequencies {
		f.FormantFrequencies[i] = 0
		f.FormantAmplitudes[i] = 0
	}
	f.Fundamental = 0
	f.Centroid = 0
	f.Flatness = 0
}

// MorphSource is one corner of the morph square.
type MorphSource struct {
	Active bool
	Frame  Frame
	Frozen bool
}

// MorphEngine morphs between up to four analyzed spectra and streams the
// result through an overlap-add resynthesis.
type MorphEngine struct {
	sampleRate float64

	fft         *analysis.FFT
	synthWindow []float64

	sources [NumSources]MorphSource

	morphX float64
	morphY float64

	pitchShift float64 // semitones
	tilt       float64
	smooth     float64
	enhance    float64

	// Morph and post-chain scratch, allocated once.
	morphed     Frame
	scratchMag  []float64
	scratchAux  []float64
	re          []float64
	im          []float64
	timeBuf     []float64
	overlapBuf  []float64
	pending     []float64
	pendingPos  int
	captureRing []float64
	capturePos  int

	bioState    *bio.State
	bioReactive bool
}

// NewMorphEngine creates an engine for the given sample rate. All sources
// start empty; with no active source the engine outputs silence.
func NewMorphEngine(sampleRate float64) *MorphEngine {
	e := &MorphEngine{
		sampleRate:  sampleRate,
		fft:         analysis.NewFFT(FFTSize, analysis.HannWindow),
		synthWindow: analysis.MakeWindow(analysis.SqrtHannWindow, FFTSize),
		morphX:      0.5,
		morphY:      0.5,
		morphed:     newFrame(),
		scratchMag:  make([]float64, NumBins),
		scratchAux:  make([]float64, NumBins),
		re:          make([]float64, NumBins),
		im:          make([]float64, NumBins),
		timeBuf:     make([]float64, FFTSize),
		overlapBuf:  make([]float64, FFTSize),
		pending:     make([]float64, HopSize),
		pendingPos:  HopSize, // forces a render on the first sample
		captureRing: make([]float64, FFTSize),
	}
	for i := range e.sources {
		e.sources[i].Frame = newFrame()
	}
	return e
}

// SetMorphPosition sets the square position. X blends A to B, Y blends
// the AB edge toward the CD edge.
func (e *MorphEngine) SetMorphPosition(x, y float64) {
	e.morphX = clamp(x, 0, 1)
	e.morphY = clamp(y, 0, 1)
}

// MorphX returns the current X position.
func (e *MorphEngine) MorphX() float64 { return e.morphX }

// MorphY returns the current Y position.
func (e *MorphEngine) MorphY() float64 { return e.morphY }

// SetPitchShift sets the spectral pitch shift in semitones (-24 to +24).
func (e *MorphEngine) SetPitchShift(semitones float64) {
	e.pitchShift = clamp(semitones, -24, 24)
}

// SetSpectralTilt sets the tilt amount. -1 darkens, +1 brightens.
func (e *MorphEngine) SetSpectralTilt(tilt float64) {
	e.tilt = clamp(tilt, -1, 1)
}

// SetSpectralSmooth sets the magnitude blur amount (0 to 1).
func (e *MorphEngine) SetSpectralSmooth(amount float64) {
	e.smooth = clamp(amount, 0, 1)
}

// SetHarmonicEnhance sets the harmonic boost amount (0 to 1).
func (e *MorphEngine) SetHarmonicEnhance(amount float64) {
	e.enhance = clamp(amount, 0, 1)
}

// LoadSource analyzes the center portion of samples into a source slot
// and marks it active. Out-of-range slots are ignored.
func (e *MorphEngine) LoadSource(slot int, samples []float64) {
	if slot < 0 || slot >= NumSources {
		return
	}
	src := &e.sources[slot]
	src.Active = true

	// Take the center FFTSize window of the buffer.
	start := len(samples)/2 - FFTSize/2
	if start < 0 {
		start = 0
	}
	end := start + FFTSize
	if end > len(samples) {
		end = len(samples)
	}
	e.analyzeInto(samples[start:end], &src.Frame)
}

// AnalyzeInput analyzes up to one FFT frame of live samples into a source
// slot and marks it active.
func (e *MorphEngine) AnalyzeInput(slot int, samples []float32) {
	if slot < 0 || slot >= NumSources {
		return
	}
	src := &e.sources[slot]
	if src.Frozen {
		return
	}
	src.Active = true

	n := len(samples)
	if n > FFTSize {
		n = FFTSize
	}
	for i := 0; i < n; i++ {
		e.timeBuf[i] = float64(samples[i])
	}
	for i := n; i < FFTSize; i++ {
		e.timeBuf[i] = 0
	}
	e.analyzeInto(e.timeBuf, &src.Frame)
}

// CaptureInput analyzes the most recent FFT frame of audio seen by
// Process into a source slot.
func (e *MorphEngine) CaptureInput(slot int) {
	if slot < 0 || slot >= NumSources {
		return
	}
	src := &e.sources[slot]
	if src.Frozen {
		return
	}
	src.Active = true

	// Unroll the ring so the oldest sample comes first.
	for i := 0; i < FFTSize; i++ {
		e.timeBuf[i] = e.captureRing[(e.capturePos+i)%FFTSize]
	}
	e.analyzeInto(e.timeBuf, &src.Frame)
}

// FreezeSource locks a slot against AnalyzeInput and CaptureInput.
func (e *MorphEngine) FreezeSource(slot int, frozen bool) {
	if slot >= 0 && slot < NumSources {
		e.sources[slot].Frozen = frozen
	}
}

// ClearSource deactivates a slot and zeroes its spectrum.
func (e *MorphEngine) ClearSource(slot int) {
	if slot >= 0 && slot < NumSources {
		e.sources[slot].Active = false
		e.sources[slot].Frozen = false
		e.sources[slot].Frame.clear()
	}
}

// Source returns a slot for inspection.
func (e *MorphEngine) Source(slot int) *MorphSource {
	if slot < 0 {
		slot = 0
	}
	if slot >= NumSources {
		slot = NumSources - 1
	}
	return &e.sources[slot]
}

// CurrentFrame returns the last morphed and modified spectrum.
func (e *MorphEngine) CurrentFrame() *Frame {
	return &e.morphed
}

// AttachBio connects a shared biometric state container.
func (e *MorphEngine) AttachBio(state *bio.State) {
	e.bioState = state
}

// SetBioReactive enables biometric control of the morph position.
func (e *MorphEngine) SetBioReactive(enabled bool) {
	e.bioReactive = enabled
}

// RefreshBio pulls the attached biometric state into the morph controls.
// Call once per block from the control path. HRV steers X with a breath
// wobble on top, coherence steers Y, arousal tilts the spectrum and an
// elevated heart rate brings up the harmonic enhancer.
func (e *MorphEngine) RefreshBio() {
	if !e.bioReactive || e.bioState == nil {
		return
	}
	breathMod := math.Sin(e.bioState.BreathPhase()*2*math.Pi) * 0.1
	e.morphX = clamp(e.bioState.HRV()+breathMod, 0, 1)
	e.morphY = clamp(e.bioState.Coherence(), 0, 1)
	e.tilt = (e.bioState.Arousal() - 0.5) * 0.5
	e.enhance = clamp((e.bioState.HeartRate()-60.0)/60.0*0.3, 0, 0.5)
}

// SetPresetBioHarmonics configures a harmonic-forward bio-driven morph.
func (e *MorphEngine) SetPresetBioHarmonics() {
	e.tilt = 0
	e.smooth = 0
	e.enhance = 0.5
	e.bioReactive = true
}

// SetPresetQuantumFlow configures a blurred, inharmonic morph.
func (e *MorphEngine) SetPresetQuantumFlow() {
	e.smooth = 0.3
	e.enhance = 0
	e.bioReactive = true
}

// Process renders the morphed spectrum into output and records input into
// the live-capture ring. Input and output may be the same slice. A new
// spectral frame is synthesized every HopSize samples; between hops the
// overlap-add tail plays out. No allocations.
func (e *MorphEngine) Process(input, output []float32) {
	for i := range output {
		if i < len(input) {
			e.captureRing[e.capturePos] = float64(input[i])
			e.capturePos++
			if e.capturePos >= FFTSize {
				e.capturePos = 0
			}
		}

		if e.pendingPos >= HopSize {
			e.renderHop()
			e.pendingPos = 0
		}
		output[i] = float32(e.pending[e.pendingPos])
		e.pendingPos++
	}
}

// Reset clears all streaming state. Loaded sources survive.
func (e *MorphEngine) Reset() {
	for i := range e.overlapBuf {
		e.overlapBuf[i] = 0
	}
	for i := range e.pending {
		e.pending[i] = 0
	}
	for i := range e.captureRing {
		e.captureRing[i] = 0
	}
	e.pendingPos = HopSize
	e.capturePos = 0
}

// analyzeInto transforms one frame of samples and fills a Frame with its
// spectrum and features.
func (e *MorphEngine) analyzeInto(samples []float64, frame *Frame) {
	magnitude, phase := e.fft.Forward(samples)
	copy(frame.Magnitudes, magnitude)
	copy(frame.Phases, phase)

	frame.Centroid = analysis.Centroid(frame.Magnitudes, e.sampleRate, FFTSize)
	frame.Flatness = analysis.Flatness(frame.Magnitudes)
	frame.Fundamental = analysis.EstimateFundamental(frame.Magnitudes, e.sampleRate, FFTSize)

	for i := range frame.FormantFrequencies {
		frame.FormantFrequencies[i] = 0
		frame.FormantAmplitudes[i] = 0
	}
	formants := analysis.FindFormants(frame.Magnitudes, e.sampleRate, FFTSize, MaxFormants)
	for i, f := range formants {
		frame.FormantFrequencies[i] = f.Frequency
		frame.FormantAmplitudes[i] = f.Magnitude
	}
}

// renderHop computes the next morphed frame, runs the post chain,
// resynthesizes it and advances the overlap-add buffer by one hop.
func (e *MorphEngine) renderHop() {
	e.computeMorphedFrame()
	e.applyModifications()

	for bin := 0; bin < NumBins; bin++ {
		mag := e.morphed.Magnitudes[bin]
		phase := e.morphed.Phases[bin]
		e.re[bin] = mag * math.Cos(phase)
		e.im[bin] = mag * math.Sin(phase)
	}
	e.fft.InverseInto(e.re, e.im, e.timeBuf)

	for i := 0; i < FFTSize; i++ {
		e.overlapBuf[i] += e.timeBuf[i] * e.synthWindow[i]
	}

	copy(e.pending, e.overlapBuf[:HopSize])
	copy(e.overlapBuf, e.overlapBuf[HopSize:])
	for i := FFTSize - HopSize; i < FFTSize; i++ {
		e.overlapBuf[i] = 0
	}
}

// computeMorphedFrame bilinearly blends the four corner spectra into the
// morphed frame. Inactive sources contribute zero.
func (e *MorphEngine) computeMorphedFrame() {
	var weights [NumSources]float64
	weights[0] = (1 - e.morphX) * (1 - e.morphY)
	weights[1] = e.morphX * (1 - e.morphY)
	weights[2] = (1 - e.morphX) * e.morphY
	weights[3] = e.morphX * e.morphY
	for i := range weights {
		if !e.sources[i].Active {
			weights[i] = 0
		}
	}

	for bin := 0; bin < NumBins; bin++ {
		var mag, phase float64
		for s := 0; s < NumSources; s++ {
			w := weights[s]
			if w == 0 {
				continue
			}
			mag += w * e.sources[s].Frame.Magnitudes[bin]
			phase += w * e.sources[s].Frame.Phases[bin]
		}
		e.morphed.Magnitudes[bin] = mag
		e.morphed.Phases[bin] = phase
	}

	for f := 0; f < MaxFormants; f++ {
		var freq, amp float64
		for s := 0; s < NumSources; s++ {
			freq += weights[s] * e.sources[s].Frame.FormantFrequencies[f]
			amp += weights[s] * e.sources[s].Frame.FormantAmplitudes[f]
		}
		e.morphed.FormantFrequencies[f] = freq
		e.morphed.FormantAmplitudes[f] = amp
	}

	var centroid, fundamental, flatness float64
	for s := 0; s < NumSources; s++ {
		centroid += weights[s] * e.sources[s].Frame.Centroid
		fundamental += weights[s] * e.sources[s].Frame.Fundamental
		flatness += weights[s] * e.sources[s].Frame.Flatness
	}
	e.morphed.Centroid = centroid
	e.morphed.Fundamental = fundamental
	e.morphed.Flatness = flatness
}

// applyModifications runs the post chain in fixed order: pitch shift,
// tilt, smoothing, harmonic enhance. Each stage is skipped when its
// amount is negligible.
func (e *MorphEngine) applyModifications() {
	if math.Abs(e.pitchShift) > 0.01 {
		e.applyPitchShift(e.pitchShift)
	}
	if math.Abs(e.tilt) > 0.01 {
		e.applyTilt(e.tilt)
	}
	if e.smooth > 0.01 {
		e.applySmooth(e.smooth)
	}
	if e.enhance > 0.01 {
		e.applyHarmonicEnhance(e.enhance)
	}
}

// applyPitchShift relocates each bin to bin*ratio. Magnitudes landing on
// the same target accumulate; phases scale by the ratio.
func (e *MorphEngine) applyPitchShift(semitones float64) {
	ratio := math.Pow(2.0, semitones/12.0)
	for i := range e.scratchMag {
		e.scratchMag[i] = 0
		e.scratchAux[i] = 0
	}
	for bin := 1; bin < NumBins; bin++ {
		newBin := int(float64(bin) * ratio)
		if newBin > 0 && newBin < NumBins {
			e.scratchMag[newBin] += e.morphed.Magnitudes[bin]
			e.scratchAux[newBin] = e.morphed.Phases[bin] * ratio
		}
	}
	copy(e.morphed.Magnitudes, e.scratchMag)
	copy(e.morphed.Phases, e.scratchAux)
}

// applyTilt scales magnitudes along a line pivoting at mid spectrum.
func (e *MorphEngine) applyTilt(tilt float64) {
	for bin := 1; bin < NumBins; bin++ {
		normalized := float64(bin) / float64(NumBins)
		gain := 1.0 + tilt*(normalized-0.5)*2.0
		if gain < 0 {
			gain = 0
		}
		e.morphed.Magnitudes[bin] *= gain
	}
}

// applySmooth blurs the magnitude spectrum with a moving average and
// blends it against the original by the amount.
func (e *MorphEngine) applySmooth(amount float64) {
	windowSize := int(amount*20) + 1
	for bin := 0; bin < NumBins; bin++ {
		sum := 0.0
		count := 0
		for off := -windowSize; off <= windowSize; off++ {
			n := bin + off
			if n >= 0 && n < NumBins {
				sum += e.morphed.Magnitudes[n]
				count++
			}
		}
		e.scratchMag[bin] = sum / float64(count)
	}
	for bin := 0; bin < NumBins; bin++ {
		e.morphed.Magnitudes[bin] = e.morphed.Magnitudes[bin]*(1.0-amount) +
			e.scratchMag[bin]*amount
	}
}

// applyHarmonicEnhance boosts the first 16 harmonics of the estimated
// fundamental, each over a small bin window. Lower harmonics get more.
func (e *MorphEngine) applyHarmonicEnhance(amount float64) {
	fundamental := e.morphed.Fundamental
	if fundamental < 20.0 {
		return
	}
	fundamentalBin := int(fundamental * FFTSize / e.sampleRate)

	for harmonic := 1; harmonic <= 16; harmonic++ {
		harmonicBin := fundamentalBin * harmonic
		if harmonicBin >= NumBins {
			break
		}
		boost := 1.0 + amount/float64(harmonic)
		for offset := -2; offset <= 2; offset++ {
			bin := harmonicBin + offset
			if bin >= 0 && bin < NumBins {
				weight := 1.0 - math.Abs(float64(offset))*0.25
				e.morphed.Magnitudes[bin] *= 1.0 + (boost-1.0)*weight
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
