package delay

import (
	"math"
	"sort"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/filter"
	"github.com/vibrationalforce/echoelcore/pkg/dsp/pan"
)

// MaxTaps is the upper limit on simultaneous delay taps.
const MaxTaps = 64

const (
	maxTapDelaySeconds = 4.0
	numSlurmLanes      = 8
	slurmBufferSize    = 4096
)

// Pattern selects how taps are distributed across the delay length.
type Pattern int

const (
	// PatternLinear spaces taps evenly.
	PatternLinear Pattern = iota
	// PatternExponential clusters taps early and spreads them late.
	PatternExponential
	// PatternLogarithmic spreads taps early and clusters them late.
	PatternLogarithmic
	// PatternRandom draws uniform positions and sorts them.
	PatternRandom
	// PatternEuclidean distributes taps as an Euclidean rhythm.
	PatternEuclidean
	// PatternFibonacci places taps at golden ratio multiples.
	PatternFibonacci
	// PatternPrimes spaces taps proportionally to the primes.
	PatternPrimes
	// PatternBioReactive perturbs linear spacing by the live HRV reading.
	PatternBioReactive
)

// goldenRatio drives the Fibonacci tap spacing.
const goldenRatio = 1.618033988749895

// tapPrimes is the spacing table for PatternPrimes.
var tapPrimes = [24]int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37,
	41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89,
}

// Tap is one delay tap: its position in the line, its taper gain and its
// place in the stereo field.
type Tap struct {
	DelaySamples int
	Gain         float64
	Pan          float64 // 0 = hard left, 1 = hard right
	Active       bool
}

// UltraTap is a multi-tap delay with up to 64 taps over one shared line.
// Tap positions follow a selectable distribution pattern, the taper shapes
// a volume envelope across the taps, and two smear stages (slurm lanes and
// a chop gate) blur or gate the tap cloud. The whole tap set is recomputed
// in bulk whenever a distribution parameter changes, never per sample.
type UltraTap struct {
	sampleRate float64
	line       *Line

	// Core parameters
	mix      float64
	length   float64 // seconds across all taps
	numTaps  int
	feedback float64

	// Distribution
	pattern Pattern
	spread  float64
	taper   float64 // -1 fades out across taps, +1 fades in

	// Smear and gate
	slurm    float64
	chop     float64
	chopRate float64 // Hz

	// Tone
	lowCut  float64
	highCut float64

	// Modulation
	modRate  float64
	modDepth float64

	width float64

	bioState    *bio.State
	bioReactive bool

	taps      [MaxTaps]Tap
	positions [MaxTaps]float64 // scratch for calculateTaps

	// Slurm diffusion lanes, shared round-robin by tap index.
	slurmBuf [numSlurmLanes][]float32
	slurmPos [numSlurmLanes]int

	chopPhase float64
	chopGain  float64

	modPhase   float64
	currentMod float64

	// Output tone shaping, one pair per channel.
	lp [2]*filter.OnePole
	hp [2]*filter.OnePole

	randState uint32
}

// NewUltraTap creates an UltraTap delay at the given sample rate with
// 8 linear taps over one second.
func NewUltraTap(sampleRate float64) *UltraTap {
	u := &UltraTap{
		sampleRate: sampleRate,
		line:       New(maxTapDelaySeconds, sampleRate),
		mix:        0.5,
		length:     1.0,
		numTaps:    8,
		feedback:   0.3,
		pattern:    PatternLinear,
		spread:     0.5,
		chopRate:   4.0,
		lowCut:     20.0,
		highCut:    20000.0,
		modRate:    0.5,
		width:      1.0,
		chopGain:   1.0,
		randState:  1,
	}
	for i := range u.slurmBuf {
		u.slurmBuf[i] = make([]float32, slurmBufferSize)
	}
	for ch := 0; ch < 2; ch++ {
		u.lp[ch] = filter.NewOnePole(sampleRate, 20000)
		u.hp[ch] = filter.NewOnePole(sampleRate, 20)
	}
	u.updateFilterCoeffs()
	u.calculateTaps()
	return u
}

// SetMix sets the dry/wet mix (0-1).
func (u *UltraTap) SetMix(mix float64) {
	u.mix = clampUnit(mix)
}

// SetLength sets the total delay time in seconds across all taps.
func (u *UltraTap) SetLength(seconds float64) {
	u.length = math.Max(0.001, math.Min(maxTapDelaySeconds, seconds))
	u.calculateTaps()
}

// SetNumTaps sets the tap count, clamped to 1..MaxTaps.
func (u *UltraTap) SetNumTaps(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxTaps {
		n = MaxTaps
	}
	u.numTaps = n
	u.calculateTaps()
}

// SetFeedback sets the feedback amount (0-1).
func (u *UltraTap) SetFeedback(fb float64) {
	u.feedback = clampUnit(fb)
}

// SetPattern selects the tap distribution.
func (u *UltraTap) SetPattern(p Pattern) {
	u.pattern = p
	u.calculateTaps()
}

// SetSpread sets the spacing curve amount (0-1).
func (u *UltraTap) SetSpread(spread float64) {
	u.spread = clampUnit(spread)
	u.calculateTaps()
}

// SetTaper sets the volume envelope across taps: -1 fades loud to quiet,
// +1 fades quiet to loud, 0 leaves every tap at unity.
func (u *UltraTap) SetTaper(taper float64) {
	u.taper = math.Max(-1.0, math.Min(1.0, taper))
	u.calculateTaps()
}

// SetSlurm sets the tap smear amount (0-1).
func (u *UltraTap) SetSlurm(slurm float64) {
	u.slurm = clampUnit(slurm)
}

// SetChop sets the rhythmic gate depth (0-1). The gate stays open for
// 1-chop of each cycle.
func (u *UltraTap) SetChop(chop float64) {
	u.chop = clampUnit(chop)
}

// SetChopRate sets the gate frequency in Hz.
func (u *UltraTap) SetChopRate(hz float64) {
	u.chopRate = math.Max(0.1, hz)
}

// SetLowCut sets the highpass corner of the tap bus in Hz.
func (u *UltraTap) SetLowCut(hz float64) {
	u.lowCut = hz
	u.updateFilterCoeffs()
}

// SetHighCut sets the lowpass corner of the tap bus in Hz.
func (u *UltraTap) SetHighCut(hz float64) {
	u.highCut = hz
	u.updateFilterCoeffs()
}

// SetModulation sets the read-position wobble: rate in Hz, depth 0-1
// (up to 20 samples of offset).
func (u *UltraTap) SetModulation(rateHz, depth float64) {
	u.modRate = rateHz
	u.modDepth = clampUnit(depth)
}

// SetWidth sets the stereo width (0 = mono, 1 = as panned, 2 = wide).
func (u *UltraTap) SetWidth(width float64) {
	u.width = math.Max(0.0, math.Min(2.0, width))
}

// Seed reseeds the generator used by PatternRandom.
func (u *UltraTap) Seed(seed uint32) {
	if seed == 0 {
		seed = 1
	}
	u.randState = seed
}

// AttachBio connects a biometric state. PatternBioReactive reads the live
// HRV from it, and RefreshBio derives distribution parameters from it.
func (u *UltraTap) AttachBio(state *bio.State) {
	u.bioState = state
}

// SetBioReactive enables the biometric parameter mapping applied by
// RefreshBio.
func (u *UltraTap) SetBioReactive(enabled bool) {
	u.bioReactive = enabled
}

// RefreshBio re-derives spread, taper, chop rate and slurm from the
// attached biometric state and recomputes the taps. Call once per block,
// not per sample.
func (u *UltraTap) RefreshBio() {
	if !u.bioReactive || u.bioState == nil {
		return
	}
	u.spread = u.bioState.HRV()
	u.taper = (u.bioState.Coherence() - 0.5) * 2.0
	u.chopRate = 2.0 + u.bioState.BreathPhase()*8.0
	u.slurm = u.bioState.Arousal() * 0.8
	u.calculateTaps()
}

// Taps returns the active tap set. The slice aliases internal state and is
// meant for visualization and tests, not for mutation.
func (u *UltraTap) Taps() []Tap {
	return u.taps[:u.numTaps]
}

// Reset clears the delay line, smear lanes and filter state.
func (u *UltraTap) Reset() {
	u.line.Reset()
	for i := range u.slurmBuf {
		for j := range u.slurmBuf[i] {
			u.slurmBuf[i][j] = 0
		}
		u.slurmPos[i] = 0
	}
	u.chopPhase = 0
	u.chopGain = 1.0
	u.modPhase = 0
	u.currentMod = 0
	for ch := 0; ch < 2; ch++ {
		u.lp[ch].Reset()
		u.hp[ch].Reset()
	}
}

// ProcessSample runs one stereo sample through the tap engine.
func (u *UltraTap) ProcessSample(inL, inR float32) (float32, float32) {
	u.updateModulation()
	u.updateChop()

	monoInput := (inL + inR) * 0.5

	var tapSumL, tapSumR float64
	modOffset := int(u.currentMod * 20.0)

	for t := 0; t < u.numTaps; t++ {
		tap := &u.taps[t]
		if !tap.Active {
			continue
		}

		delaySamples := tap.DelaySamples + modOffset
		if delaySamples < 1 {
			delaySamples = 1
		}
		if delaySamples > u.line.Size()-1 {
			delaySamples = u.line.Size() - 1
		}
		tapSample := float64(u.line.Tap(float64(delaySamples)))

		if u.slurm > 0.01 {
			tapSample = u.applySlurm(t%numSlurmLanes, tapSample)
		}
		if u.chop > 0.01 {
			tapSample *= u.chopGain
		}

		tapSample *= tap.Gain

		panL, panR := pan.PositionGains(float32(tap.Pan))
		tapSumL += tapSample * float64(panL)
		tapSumR += tapSample * float64(panR)
	}

	// Keep the tap cloud at roughly constant loudness regardless of count.
	norm := 1.0 / math.Sqrt(float64(u.numTaps))
	tapSumL *= norm
	tapSumR *= norm

	tapSumL = u.applyFilters(tapSumL, 0)
	tapSumR = u.applyFilters(tapSumR, 1)

	mid := (tapSumL + tapSumR) * 0.5
	side := (tapSumL - tapSumR) * 0.5 * u.width
	tapSumL = mid + side
	tapSumR = mid - side

	feedbackSample := (tapSumL + tapSumR) * 0.5 * u.feedback
	u.line.Write(monoInput + float32(feedbackSample))

	outL := float64(inL)*(1.0-u.mix) + tapSumL*u.mix
	outR := float64(inR)*(1.0-u.mix) + tapSumR*u.mix
	return float32(outL), float32(outR)
}

// Process runs stereo buffers through the tap engine in place - no
// allocations.
func (u *UltraTap) Process(left, right []float32) {
	for i := range left {
		left[i], right[i] = u.ProcessSample(left[i], right[i])
	}
}

// SetPresetRhythmicEchoes configures evenly spaced echoes that fade out.
func (u *UltraTap) SetPresetRhythmicEchoes() {
	u.numTaps = 8
	u.length = 0.5
	u.pattern = PatternLinear
	u.spread = 0.5
	u.taper = -0.3
	u.feedback = 0.3
	u.calculateTaps()
}

// SetPresetSwell configures a reverse-feeling build across 16 taps.
func (u *UltraTap) SetPresetSwell() {
	u.numTaps = 16
	u.length = 1.0
	u.pattern = PatternExponential
	u.spread = 0.7
	u.taper = 0.8
	u.slurm = 0.4
	u.calculateTaps()
}

// SetPresetDiffuseCloud configures a dense smeared wash of 32 random taps.
func (u *UltraTap) SetPresetDiffuseCloud() {
	u.numTaps = 32
	u.length = 2.0
	u.pattern = PatternRandom
	u.slurm = 0.8
	u.feedback = 0.5
	u.calculateTaps()
}

// calculateTaps recomputes every tap position, gain and pan in bulk.
// Runs on parameter changes only, never on the per-sample path.
func (u *UltraTap) calculateTaps() {
	n := u.numTaps
	totalSamples := int(u.length * u.sampleRate)
	if totalSamples > u.line.Size()-1 {
		totalSamples = u.line.Size() - 1
	}

	positions := u.positions[:n]

	switch u.pattern {
	case PatternLinear:
		for i := 0; i < n; i++ {
			positions[i] = float64(i+1) / float64(n)
		}

	case PatternExponential:
		curve := u.spread*3.0 + 1.0
		for i := 0; i < n; i++ {
			t := 0.0
			if n > 1 {
				t = float64(i) / float64(n-1)
			}
			positions[i] = math.Pow(t, curve)
		}

	case PatternLogarithmic:
		curve := u.spread*3.0 + 1.0
		for i := 0; i < n; i++ {
			t := float64(i+1) / float64(n)
			positions[i] = 1.0 - math.Pow(1.0-t, curve)
		}

	case PatternRandom:
		for i := 0; i < n; i++ {
			positions[i] = u.nextRandom01()
		}
		sort.Float64s(positions)

	case PatternEuclidean:
		pulses := n
		spread := math.Max(u.spread, 0.001)
		steps := int(float64(pulses)/spread + 0.5)
		if steps < pulses {
			steps = pulses
		}
		for i := 0; i < n; i++ {
			bucket := (i * steps) / pulses
			positions[i] = float64(bucket) / float64(steps)
		}

	case PatternFibonacci:
		for i := 0; i < n; i++ {
			positions[i] = math.Mod(float64(i)*goldenRatio, 1.0)
		}
		sort.Float64s(positions)

	case PatternPrimes:
		maxIdx := n - 1
		if maxIdx > 23 {
			maxIdx = 23
		}
		maxPrime := float64(tapPrimes[maxIdx])
		for i := 0; i < n; i++ {
			positions[i] = float64(tapPrimes[i%24]) / maxPrime
		}

	case PatternBioReactive:
		hrv := 0.5
		if u.bioState != nil {
			hrv = u.bioState.HRV()
		}
		for i := 0; i < n; i++ {
			base := float64(i+1) / float64(n)
			hrvMod := math.Sin(float64(i)*hrv*math.Pi) * 0.2
			positions[i] = clampUnit(base + hrvMod)
		}
		sort.Float64s(positions)
	}

	for i := 0; i < n; i++ {
		delaySamples := int(positions[i] * float64(totalSamples))
		if delaySamples < 1 {
			delaySamples = 1
		}
		u.taps[i].DelaySamples = delaySamples
		u.taps[i].Active = true

		tapPosition := 0.0
		if n > 1 {
			tapPosition = float64(i) / float64(n-1)
		}
		switch {
		case u.taper > 0:
			u.taps[i].Gain = math.Pow(tapPosition, u.taper*2.0)
		case u.taper < 0:
			u.taps[i].Gain = math.Pow(1.0-tapPosition, -u.taper*2.0)
		default:
			u.taps[i].Gain = 1.0
		}

		u.taps[i].Pan = tapPosition
	}

	for i := n; i < MaxTaps; i++ {
		u.taps[i].Active = false
	}
}

// updateFilterCoeffs derives the tone coefficients from the cut
// frequencies. The highpass one-pole smooths the residual that gets
// subtracted from the lowpassed bus.
func (u *UltraTap) updateFilterCoeffs() {
	lpCoeff := math.Exp(-2.0 * math.Pi * u.highCut / u.sampleRate)
	hpCoeff := math.Exp(-2.0 * math.Pi * u.lowCut / u.sampleRate)
	for ch := 0; ch < 2; ch++ {
		u.lp[ch].SetCoefficient(lpCoeff)
		u.hp[ch].SetCoefficient(1.0 - hpCoeff)
	}
}

func (u *UltraTap) applyFilters(input float64, ch int) float64 {
	lp := u.lp[ch].ProcessLP(input)
	residual := u.hp[ch].ProcessLP(input - lp)
	return lp - residual*0.1
}

func (u *UltraTap) updateModulation() {
	u.modPhase += u.modRate / u.sampleRate
	if u.modPhase >= 1.0 {
		u.modPhase -= 1.0
	}
	u.currentMod = math.Sin(u.modPhase*2.0*math.Pi) * u.modDepth
}

func (u *UltraTap) updateChop() {
	if u.chop < 0.01 {
		u.chopGain = 1.0
		return
	}

	u.chopPhase += u.chopRate / u.sampleRate
	if u.chopPhase >= 1.0 {
		u.chopPhase -= 1.0
	}

	// Square gate, open for 1-chop of the cycle, smoothed against clicks.
	duty := 1.0 - u.chop
	target := 0.0
	if u.chopPhase < duty {
		target = 1.0
	}
	u.chopGain = u.chopGain*0.99 + target*0.01
}

// applySlurm smears one tap through its shared diffusion lane.
func (u *UltraTap) applySlurm(lane int, input float64) float64 {
	buf := u.slurmBuf[lane]
	wPos := u.slurmPos[lane]

	delaySamples := int(u.slurm*200.0) + 1
	readPos := wPos - delaySamples
	if readPos < 0 {
		readPos += len(buf)
	}

	delayed := float64(buf[readPos])
	output := input*(1.0-u.slurm*0.5) + delayed*u.slurm*0.5

	buf[wPos] = float32(input + delayed*u.slurm*0.3)

	wPos++
	if wPos >= len(buf) {
		wPos = 0
	}
	u.slurmPos[lane] = wPos

	return output
}

// nextRandom01 steps the linear congruential generator and returns a value
// in 0..1.
func (u *UltraTap) nextRandom01() float64 {
	u.randState = u.randState*1664525 + 1013904223
	return float64(u.randState) / float64(1<<32)
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
