package synth

import (
	"io"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/analysis"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/delay"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/dynamics"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/gain"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/reverb"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/utility"
	"github.com/vibrationalforce/echoelcore/pkg/framework/param"
	"github.com/vibrationalforce/echoelcore/pkg/framework/process"
	"github.com/vibrationalforce/echoelcore/pkg/framework/state"
	"github.com/vibrationalforce/echoelcore/pkg/framework/voice"
	"github.com/vibrationalforce/echoelcore/pkg/lockfree"
	"github.com/vibrationalforce/echoelcore/pkg/midi"
)

// NumVoices is the fixed polyphony of the engine.
const NumVoices = 16

// noteQueueCapacity bounds the cross-thread note event inlet.
const noteQueueCapacity = 256

// tapFFTSize is the analysis resolution of the spectrum tap.
const tapFFTSize = 2048

// Parameter IDs.
const (
	ParamCutoff uint32 = iota + 1
	ParamResonance
	ParamOscMix
	ParamDetune
	ParamWavetableMix
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamFilterEnvAmount
	ParamLFORate
	ParamLFOToFilter
	ParamGlideTime
	ParamReverbMix
	ParamReverbSize
	ParamDelayMix
	ParamDelayFeedback
	ParamMasterGain
)

// Engine owns the audio-thread side of the synthesizer: the voice pool,
// the parameter registry with its wait-free change inlet, the note event
// inlet, bio modulation, the send effects and the master limiter.
//
// Control threads talk to it only through Changes(), PushEvent() and the
// attached bio.State; Process never takes a lock and, after Prepare,
// never allocates.
type Engine struct {
	sampleRate float64

	registry *param.Registry
	changes  *param.ChangeQueue
	notes    *lockfree.Queue[midi.Event]

	voices [NumVoices]*SynthVoice
	alloc  *voice.Allocator

	cutoffSmoother *param.Smoother

	bioState    *bio.State
	bioMapper   *bio.Mapper
	bioReactive bool

	reverb  *reverb.Freeverb
	echo    *delay.UltraTap
	dcBlock *utility.DCBlocker
	limiter *dynamics.Limiter

	spectrumTap *analysis.SpectrumTap
	levelTap    *analysis.LevelTap

	presets *state.Manager

	monoBuf  []float32
	prepared bool
}

// NewEngine creates an engine with its parameter set registered. Call
// Prepare before processing.
func NewEngine() *Engine {
	e := &Engine{
		registry:  param.NewRegistry(),
		changes:   param.NewChangeQueue(param.DefaultChangeQueueCapacity),
		notes:     lockfree.NewQueue[midi.Event](noteQueueCapacity),
		bioMapper: bio.NewMapper(),
	}

	e.registry.Add(
		param.FrequencyParameter(ParamCutoff, "Cutoff", 20, 20000, 1000).Build(),
		param.ResonanceParameter(ParamResonance, "Resonance").Build(),
		param.New(ParamOscMix, "Osc Mix").Default(0.5).Build(),
		param.New(ParamDetune, "Detune").Range(-100, 100).Default(7).Unit("ct").Build(),
		param.New(ParamWavetableMix, "Wavetable Mix").Default(0).Build(),
		param.AttackParameter(ParamAttack, "Attack", 5000).Build(),
		param.TimeParameter(ParamDecay, "Decay", 1, 5000, 100).Build(),
		param.New(ParamSustain, "Sustain").Default(0.7).Build(),
		param.ReleaseParameter(ParamRelease, "Release", 5000).Build(),
		param.New(ParamFilterEnvAmount, "Filter Env").Range(0, 4).Default(2).Build(),
		param.RateParameter(ParamLFORate, "LFO Rate", 0.01, 20, 5).Build(),
		param.New(ParamLFOToFilter, "LFO>Filter").Range(0, 4).Default(0).Build(),
		param.TimeParameter(ParamGlideTime, "Glide", 0, 2000, 0).Build(),
		param.New(ParamReverbMix, "Reverb Mix").Default(0.2).Build(),
		param.New(ParamReverbSize, "Reverb Size").Default(0.5).Build(),
		param.New(ParamDelayMix, "Delay Mix").Default(0.15).Build(),
		param.FeedbackParameter(ParamDelayFeedback, "Delay Feedback").Default(30).Build(),
		param.GainParameter(ParamMasterGain, "Master").Default(-6).Build(),
	)
	e.presets = state.NewManager(e.registry)

	return e
}

// SavePreset writes the current parameter values as a preset blob.
// Control thread only.
func (e *Engine) SavePreset(w io.Writer) error {
	return e.presets.Save(w)
}

// LoadPreset restores parameter values from a preset blob. The loaded
// values reach the voices on the next processed block.
func (e *Engine) LoadPreset(r io.Reader) error {
	return e.presets.Load(r)
}

// Prepare builds the DSP graph for the sample rate and sizes every buffer
// for the maximum block size.
func (e *Engine) Prepare(sampleRate float64, maxBlock int) {
	e.sampleRate = sampleRate

	pool := make([]voice.Voice, NumVoices)
	for i := range e.voices {
		e.voices[i] = NewSynthVoice(sampleRate)
		pool[i] = e.voices[i]
	}
	e.alloc = voice.NewAllocator(pool)

	e.cutoffSmoother = param.NewSmoother(param.ExponentialSmoothing, 0.995)
	e.cutoffSmoother.Reset(e.registry.Get(ParamCutoff).GetValue())

	e.reverb = reverb.NewFreeverb(sampleRate)
	e.echo = delay.NewUltraTap(sampleRate)
	e.echo.SetPresetRhythmicEchoes()
	e.dcBlock = utility.NewDCBlocker(10, sampleRate)
	e.limiter = dynamics.NewLimiter(sampleRate)

	e.spectrumTap = analysis.NewSpectrumTap(tapFFTSize, sampleRate, 8)
	e.levelTap = analysis.NewLevelTap(sampleRate, 8)

	e.monoBuf = make([]float32, maxBlock)
	e.prepared = true
}

// Params returns the parameter registry.
func (e *Engine) Params() *param.Registry { return e.registry }

// Changes returns the wait-free parameter change inlet for control
// threads.
func (e *Engine) Changes() *param.ChangeQueue { return e.changes }

// PushEvent queues a note event from a control thread. It reports false
// when the inlet is full.
func (e *Engine) PushEvent(ev midi.Event) bool {
	return e.notes.Push(ev)
}

// NoteOn queues a note-on event.
func (e *Engine) NoteOn(note, velocity uint8) bool {
	return e.PushEvent(midi.NoteOnEvent{NoteNumber: note, Velocity: velocity})
}

// NoteOff queues a note-off event.
func (e *Engine) NoteOff(note uint8) bool {
	return e.PushEvent(midi.NoteOffEvent{NoteNumber: note})
}

// AttachBio connects a biometric state shared with a sensor thread.
func (e *Engine) AttachBio(state *bio.State) {
	e.bioState = state
	if e.echo != nil {
		e.echo.AttachBio(state)
	}
}

// SetBioReactive enables biometric modulation of mapped parameters.
func (e *Engine) SetBioReactive(enabled bool) {
	e.bioReactive = enabled
	if e.echo != nil {
		e.echo.SetBioReactive(enabled)
	}
}

// Mapper returns the bio mapping table, for adding or withdrawing
// mappings from a control thread before processing starts.
func (e *Engine) Mapper() *bio.Mapper { return e.bioMapper }

// EnableDefaultBioMappings installs the stock modulation routes:
// relaxation opens the filter, the breath cycle swells the reverb and
// arousal pushes the delay feedback.
func (e *Engine) EnableDefaultBioMappings() {
	e.bioMapper.AddMapping(ParamCutoff, bio.Mapping{
		Source: bio.SourceRelaxation, Curve: bio.CurveSCurve,
		InMin: 0, InMax: 1, OutMin: 0, OutMax: 1, Depth: 0.5,
	})
	e.bioMapper.AddMapping(ParamReverbSize, bio.Mapping{
		Source: bio.SourceBreathLFO, Curve: bio.CurveLinear,
		InMin: -1, InMax: 1, OutMin: 0, OutMax: 1, Depth: 0.3,
	})
	e.bioMapper.AddMapping(ParamDelayFeedback, bio.Mapping{
		Source: bio.SourceArousal, Curve: bio.CurveExponential,
		InMin: 0, InMax: 1, OutMin: 0, OutMax: 1, Depth: 0.4,
	})
}

// SpectrumSnapshots returns the SPSC outlet of the spectrum tap.
func (e *Engine) SpectrumSnapshots() *lockfree.Queue[analysis.SpectrumSnapshot] {
	return e.spectrumTap.Snapshots()
}

// LevelSnapshots returns the SPSC outlet of the level meter tap.
func (e *Engine) LevelSnapshots() *lockfree.Queue[analysis.LevelSnapshot] {
	return e.levelTap.Snapshots()
}

// ActiveVoices returns the number of sounding voices.
func (e *Engine) ActiveVoices() int {
	if e.alloc == nil {
		return 0
	}
	return e.alloc.GetActiveVoiceCount()
}

// Reset silences all voices and clears effect tails.
func (e *Engine) Reset() {
	if !e.prepared {
		return
	}
	e.alloc.Reset()
	for _, v := range e.voices {
		v.Reset()
	}
	e.reverb.Reset()
	e.echo.Reset()
	e.dcBlock.Reset()
	e.limiter.Reset()
	e.levelTap.Reset()
}

// bioModulated returns the parameter's normalized value after bio
// modulation, or the plain value when modulation is off.
func (e *Engine) bioModulated(id uint32) float64 {
	p := e.registry.Get(id)
	norm := p.GetValue()
	if e.bioReactive && e.bioState != nil {
		norm = e.bioMapper.ModulatedValue(id, norm, e.bioState)
	}
	return p.Denormalize(norm)
}

// Process renders one block into ctx.Output. Audio thread only; no
// allocations.
func (e *Engine) Process(ctx *process.Context) {
	if !e.prepared {
		ctx.Clear()
		return
	}

	e.changes.DrainTo(e.registry)

	for {
		ev, ok := e.notes.Pop()
		if !ok {
			break
		}
		e.alloc.ProcessEvent(ev)
		// Legato pitch changes bypass TriggerNote; forward them.
		if on, isOn := ev.(midi.NoteOnEvent); isOn && e.alloc.GlideActive() {
			e.voices[0].GlideTo(on.NoteNumber)
		}
	}

	n := ctx.NumSamples()
	e.applyParameters(n)

	mono := e.monoBuf[:n]
	for i := range mono {
		mono[i] = 0
	}
	for _, v := range e.voices {
		v.Process(mono)
	}

	master := float32(gain.DbToLinear(e.registry.Get(ParamMasterGain).GetPlainValue()))

	out := ctx.Output
	if len(out) < 2 {
		// Mono fallback: dry voices through the limiter, no sends.
		left := out[0][:n]
		for i := range left {
			left[i] = mono[i] * master
		}
		e.dcBlock.ProcessBuffer(left)
		e.limiter.ProcessBuffer(left, left)
		return
	}

	left, right := out[0][:n], out[1][:n]
	for i := range mono {
		left[i] = mono[i] * master
		right[i] = mono[i] * master
	}

	e.reverb.ProcessBuffer(left, right)
	e.echo.Process(left, right)
	e.dcBlock.ProcessStereo(left, right)
	e.limiter.ProcessStereo(left, right, left, right)

	e.spectrumTap.ProcessStereo(left, right)
	e.levelTap.Process(left, right)
}

// applyParameters pushes the current registry values, bio-modulated where
// mapped, down into the voices and effects once per block.
func (e *Engine) applyParameters(blockSize int) {
	p := e.registry

	e.cutoffSmoother.SetTarget(p.Get(ParamCutoff).GetValue())
	var cutoffNorm float64
	for i := 0; i < blockSize; i++ {
		cutoffNorm = e.cutoffSmoother.Next()
	}
	if e.bioReactive && e.bioState != nil {
		cutoffNorm = e.bioMapper.ModulatedValue(ParamCutoff, cutoffNorm, e.bioState)
	}
	cutoff := p.Get(ParamCutoff).Denormalize(cutoffNorm)

	resonance := p.Get(ParamResonance).GetPlainValue()
	oscMix := p.Get(ParamOscMix).GetPlainValue()
	detune := p.Get(ParamDetune).GetPlainValue()
	wtMix := p.Get(ParamWavetableMix).GetPlainValue()
	attack := p.Get(ParamAttack).GetPlainValue() / 1000.0
	decay := p.Get(ParamDecay).GetPlainValue() / 1000.0
	sustain := p.Get(ParamSustain).GetPlainValue()
	release := p.Get(ParamRelease).GetPlainValue() / 1000.0
	envAmount := p.Get(ParamFilterEnvAmount).GetPlainValue()
	lfoRate := p.Get(ParamLFORate).GetPlainValue()
	lfoToFilter := p.Get(ParamLFOToFilter).GetPlainValue()
	glide := p.Get(ParamGlideTime).GetPlainValue() / 1000.0

	for _, v := range e.voices {
		v.SetCutoff(cutoff)
		v.SetResonance(resonance)
		v.SetOscMix(oscMix)
		v.SetDetune(detune)
		v.SetWavetableMix(wtMix)
		v.SetAmpADSR(attack, decay, sustain, release)
		v.SetFilterEnvAmount(envAmount)
		v.SetLFORate(lfoRate)
		v.SetLFOToFilter(lfoToFilter)
		v.SetGlideTime(glide)
	}

	reverbMix := p.Get(ParamReverbMix).GetPlainValue()
	e.reverb.SetWetLevel(reverbMix)
	e.reverb.SetDryLevel(1.0 - reverbMix*0.5)
	e.reverb.SetRoomSize(e.bioModulated(ParamReverbSize))

	e.echo.SetMix(p.Get(ParamDelayMix).GetPlainValue())
	e.echo.SetFeedback(e.bioModulated(ParamDelayFeedback) / 100.0)
	if e.bioReactive && e.bioState != nil {
		e.echo.RefreshBio()
	}
}
