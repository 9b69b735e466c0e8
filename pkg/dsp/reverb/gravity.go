// Package reverb provides the Gravity feedback-delay-network reverb and
// the classic Freeverb used as a send effect.
package reverb

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
)

const (
	numGravityLines = 16

	// shimmerBufferSize is the octave-up pitch loop length in samples.
	shimmerBufferSize = 4096

	// freezeLoopSize is the frozen snapshot loop length in samples.
	freezeLoopSize = 8192

	maxPredelaySeconds = 0.5
)

// gravityPrimes scales the line lengths so no two lines share a period.
var gravityPrimes = [numGravityLines]int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53,
}

// Gravity is a 16-line feedback delay network reverb with a sign-flipping
// mixing matrix. Beyond the usual size/decay/damping controls it has a
// gravity control that inverts the decay envelope (negative gravity makes
// the tail swell instead of fade), a bloom attack stage on the input, a
// freeze mode that loops a snapshot of the tank, and an octave-up shimmer
// in the wet path.
type Gravity struct {
	sampleRate float64

	// Core parameters
	mix        float64
	size       float64 // 0-1, squared onto 10ms-5s line lengths
	decay      float64 // 0-1 feedback gain
	predelayMs float64

	// gravity in -1..1; negative values scale decay up by the bloom
	// envelope so the tail grows over time.
	gravity float64

	damping   float64
	modRate   float64
	modDepth  float64
	bloom     float64
	shimmer   float64
	diffusion float64
	frozen    bool

	// Delay network
	lines      [numGravityLines][]float32
	writePos   [numGravityLines]int
	delayTimes [numGravityLines]int

	// Per-line damping and diffusion state
	lpState [numGravityLines]float64
	apState [numGravityLines]float64
	lpCoeff float64

	// Pre-delay
	predelay      []float32
	predelayWrite int
	predelaySamp  int

	// Modulation
	modPhase   float64
	currentMod float64

	// Bloom attack envelope, also the time proxy for inverse gravity.
	bloomEnv float64

	// Freeze snapshot loop
	freezeBuf      [2][]float32
	freezeReadPos  int
	freezeCaptured bool

	// Shimmer pitch loop
	shimmerBuf   [shimmerBufferSize]float32
	shimmerWrite int
	shimmerPhase float64

	// Scratch for the network pass, sized once.
	outputs [numGravityLines]float64
	mixed   [numGravityLines]float64

	bioState    *bio.State
	bioReactive bool
	randState   uint32
}

// NewGravity creates a Gravity reverb at the given sample rate with a
// medium hall character.
func NewGravity(sampleRate float64) *Gravity {
	g := &Gravity{
		sampleRate: sampleRate,
		mix:        0.5,
		size:       0.7,
		decay:      0.8,
		gravity:    1.0,
		damping:    0.5,
		modRate:    0.5,
		modDepth:   0.3,
		diffusion:  0.8,
		randState:  1,
	}

	// Each line gets a buffer sized for its own worst case: maximum size
	// times its prime scale, so short lines stay short.
	maxSizeMs := 10.0 + 5000.0
	for i := 0; i < numGravityLines; i++ {
		baseMs := maxSizeMs * (0.5 + 0.5*float64(i)/numGravityLines)
		primeScale := float64(gravityPrimes[i]) / 10.0
		samples := int(baseMs*primeScale*sampleRate/1000.0) + 1
		g.lines[i] = make([]float32, samples)
	}

	g.predelay = make([]float32, int(sampleRate*maxPredelaySeconds)+1)
	g.freezeBuf[0] = make([]float32, freezeLoopSize)
	g.freezeBuf[1] = make([]float32, freezeLoopSize)

	g.calculateDelayTimes()
	g.calculateFilterCoefficients()
	return g
}

// SetMix sets the dry/wet mix (0-1).
func (g *Gravity) SetMix(mix float64) {
	g.mix = clamp01(mix)
}

// SetSize sets the room size (0-1). The mapping is squared, so the top of
// the range opens onto multi-second line lengths.
func (g *Gravity) SetSize(size float64) {
	g.size = clamp01(size)
	g.calculateDelayTimes()
}

// SetDecay sets the feedback gain (0-1). Values near 1 approach infinite
// sustain.
func (g *Gravity) SetDecay(decay float64) {
	g.decay = clamp01(decay)
}

// SetPredelay sets the pre-delay in milliseconds (0-500).
func (g *Gravity) SetPredelay(ms float64) {
	g.predelayMs = math.Max(0, math.Min(maxPredelaySeconds*1000, ms))
	g.predelaySamp = int(g.predelayMs * g.sampleRate / 1000.0)
}

// SetGravity sets the decay envelope shape, clamped to -1..1. Positive is
// a natural fade; negative scales the feedback up by the bloom envelope so
// the tail swells.
func (g *Gravity) SetGravity(gravity float64) {
	g.gravity = math.Max(-1.0, math.Min(1.0, gravity))
}

// SetDamping sets the high frequency decay (0-1).
func (g *Gravity) SetDamping(damping float64) {
	g.damping = clamp01(damping)
	g.calculateFilterCoefficients()
}

// SetModulation sets the line read-position wobble: rate in Hz, depth 0-1
// (up to 50 samples of offset).
func (g *Gravity) SetModulation(rateHz, depth float64) {
	g.modRate = math.Max(0, rateHz)
	g.modDepth = clamp01(depth)
}

// SetBloom sets the input attack stage (0-1, mapping to a 0-2 second
// swell).
func (g *Gravity) SetBloom(bloom float64) {
	g.bloom = clamp01(bloom)
}

// SetShimmer sets the octave-up mix in the wet path (0-1).
func (g *Gravity) SetShimmer(shimmer float64) {
	g.shimmer = clamp01(shimmer)
}

// SetDiffusion sets the per-line allpass smear (0-1).
func (g *Gravity) SetDiffusion(diffusion float64) {
	g.diffusion = clamp01(diffusion)
}

// SetFreeze holds or releases the tank. Engaging freeze snapshots the
// current network into a loop that plays unchanged until release;
// releasing discards the snapshot and resumes normal processing.
func (g *Gravity) SetFreeze(freeze bool) {
	if freeze && !g.frozen {
		g.captureFreeze()
	}
	if !freeze {
		g.freezeCaptured = false
	}
	g.frozen = freeze
}

// IsFrozen reports whether the tank is holding a snapshot.
func (g *Gravity) IsFrozen() bool {
	return g.frozen
}

// AttachBio connects a biometric state for RefreshBio.
func (g *Gravity) AttachBio(state *bio.State) {
	g.bioState = state
}

// SetBioReactive enables the biometric parameter mapping.
func (g *Gravity) SetBioReactive(enabled bool) {
	g.bioReactive = enabled
}

// RefreshBio re-derives gravity, size, bloom and the freeze tendency from
// the attached biometric state. Call once per block.
func (g *Gravity) RefreshBio() {
	if !g.bioReactive || g.bioState == nil {
		return
	}

	// Coherent state decays naturally, incoherent state swells.
	g.gravity = (g.bioState.Coherence() - 0.5) * 2.0

	sizeMod := (g.bioState.HRV() - 0.5) * 0.2
	g.size = clamp01(g.size + sizeMod)
	g.calculateDelayTimes()

	g.bloom = math.Sin(g.bioState.BreathPhase()*math.Pi) * 0.5

	arousal := g.bioState.Arousal()
	if arousal > 0.8 && !g.frozen {
		if g.nextRandom01() < 0.01 {
			g.SetFreeze(true)
		}
	} else if arousal < 0.3 && g.frozen {
		g.SetFreeze(false)
	}
}

// Seed reseeds the freeze-tendency generator.
func (g *Gravity) Seed(seed uint32) {
	if seed == 0 {
		seed = 1
	}
	g.randState = seed
}

// Reset clears the network, pre-delay, envelopes and shimmer state.
func (g *Gravity) Reset() {
	for i := range g.lines {
		for j := range g.lines[i] {
			g.lines[i][j] = 0
		}
		g.writePos[i] = 0
		g.lpState[i] = 0
		g.apState[i] = 0
	}
	for i := range g.predelay {
		g.predelay[i] = 0
	}
	g.predelayWrite = 0
	g.modPhase = 0
	g.currentMod = 0
	g.bloomEnv = 0
	for ch := range g.freezeBuf {
		for i := range g.freezeBuf[ch] {
			g.freezeBuf[ch][i] = 0
		}
	}
	g.freezeReadPos = 0
	g.freezeCaptured = false
	for i := range g.shimmerBuf {
		g.shimmerBuf[i] = 0
	}
	g.shimmerWrite = 0
	g.shimmerPhase = 0
}

// ProcessStereo runs one stereo sample through the reverb.
func (g *Gravity) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	g.updateModulation()
	g.updateBloomEnvelope()

	monoInput := (inputL + inputR) * 0.5
	delayedInput := g.processPredelay(monoInput)
	bloomedInput := float64(delayedInput) * g.bloomEnv

	var reverbL, reverbR float64
	if g.frozen {
		reverbL = g.readFreezeLoop(0)
		reverbR = g.readFreezeLoop(1)
	} else {
		reverbL, reverbR = g.processNetwork(bloomedInput)
	}

	if g.shimmer > 0.01 {
		reverbL, reverbR = g.applyShimmer(reverbL, reverbR)
	}

	wetL := reverbL * g.mix
	wetR := reverbR * g.mix
	dry := 1.0 - g.mix
	outputL = float32(float64(inputL)*dry + wetL)
	outputR = float32(float64(inputR)*dry + wetR)
	return outputL, outputR
}

// Process runs one mono sample through the reverb.
func (g *Gravity) Process(input float32) float32 {
	outL, _ := g.ProcessStereo(input, input)
	return outL
}

// ProcessBuffer runs stereo buffers through the reverb in place - no
// allocations.
func (g *Gravity) ProcessBuffer(left, right []float32) {
	for i := range left {
		left[i], right[i] = g.ProcessStereo(left[i], right[i])
	}
}

// Preset convenience methods

// SetPresetCathedral configures a large natural space.
func (g *Gravity) SetPresetCathedral() {
	g.size = 0.8
	g.decay = 0.9
	g.gravity = 1.0
	g.damping = 0.3
	g.diffusion = 0.8
	g.bloom = 0.0
	g.shimmer = 0.0
	g.calculateDelayTimes()
	g.calculateFilterCoefficients()
}

// SetPresetVoid configures a massive near-infinite dark space.
func (g *Gravity) SetPresetVoid() {
	g.size = 1.0
	g.decay = 0.99
	g.gravity = 1.0
	g.damping = 0.3
	g.diffusion = 0.95
	g.calculateDelayTimes()
	g.calculateFilterCoefficients()
}

// SetPresetBloomChamber configures an inverse-decay swell.
func (g *Gravity) SetPresetBloomChamber() {
	g.size = 0.7
	g.decay = 0.85
	g.gravity = -0.8
	g.bloom = 0.7
	g.calculateDelayTimes()
	g.calculateFilterCoefficients()
}

// calculateDelayTimes derives every line length from the size parameter
// and the prime table.
func (g *Gravity) calculateDelayTimes() {
	sizeMs := 10.0 + g.size*g.size*5000.0

	for i := 0; i < numGravityLines; i++ {
		baseTime := sizeMs * (0.5 + 0.5*float64(i)/numGravityLines)
		primeScale := float64(gravityPrimes[i]) / 10.0
		samples := int(baseTime * primeScale * g.sampleRate / 1000.0)
		if samples > len(g.lines[i])-1 {
			samples = len(g.lines[i]) - 1
		}
		if samples < 1 {
			samples = 1
		}
		g.delayTimes[i] = samples
	}
}

func (g *Gravity) calculateFilterCoefficients() {
	dampFreq := 20000.0 * (1.0 - g.damping)
	g.lpCoeff = math.Exp(-2.0 * math.Pi * dampFreq / g.sampleRate)
}

func (g *Gravity) processPredelay(input float32) float32 {
	if g.predelaySamp == 0 {
		return input
	}

	readPos := g.predelayWrite - g.predelaySamp
	if readPos < 0 {
		readPos += len(g.predelay)
	}

	output := g.predelay[readPos]
	g.predelay[g.predelayWrite] = input

	g.predelayWrite++
	if g.predelayWrite >= len(g.predelay) {
		g.predelayWrite = 0
	}

	return output
}

func (g *Gravity) updateModulation() {
	g.modPhase += g.modRate / g.sampleRate
	if g.modPhase >= 1.0 {
		g.modPhase -= 1.0
	}
	g.currentMod = math.Sin(g.modPhase*2.0*math.Pi) * g.modDepth
}

// updateBloomEnvelope advances the attack-only input swell. With bloom
// disengaged the envelope pins to unity.
func (g *Gravity) updateBloomEnvelope() {
	if g.bloom > 0.01 {
		attackTime := g.bloom * 2.0 // up to 2 seconds
		attackCoeff := 1.0 - math.Exp(-1.0/(attackTime*g.sampleRate))
		g.bloomEnv += (1.0 - g.bloomEnv) * attackCoeff
	} else {
		g.bloomEnv = 1.0
	}
}

// processNetwork runs one sample through the 16-line feedback network and
// returns the stereo tap sums.
func (g *Gravity) processNetwork(input float64) (outL, outR float64) {
	modOffset := int(g.currentMod * 50.0)

	for i := 0; i < numGravityLines; i++ {
		readPos := g.writePos[i] - g.delayTimes[i] - modOffset
		for readPos < 0 {
			readPos += len(g.lines[i])
		}
		for readPos >= len(g.lines[i]) {
			readPos -= len(g.lines[i])
		}

		out := float64(g.lines[i][readPos])

		// One-pole damping in the loop.
		g.lpState[i] = out*(1.0-g.lpCoeff) + g.lpState[i]*g.lpCoeff
		g.outputs[i] = g.lpState[i]
	}

	decayGain := g.decay
	if g.gravity < 0 {
		// Inverse gravity: feedback grows with the bloom envelope, so the
		// tail swells instead of fading.
		decayGain *= 1.0 + math.Abs(g.gravity)*g.bloomEnv
	}

	// Sign-flipping mixing matrix: +1 where i+j is even, -1 where odd,
	// scaled to unit energy.
	invSqrtN := 1.0 / math.Sqrt(float64(numGravityLines))
	for i := 0; i < numGravityLines; i++ {
		sum := 0.0
		for j := 0; j < numGravityLines; j++ {
			if (i+j)%2 == 0 {
				sum += g.outputs[j]
			} else {
				sum -= g.outputs[j]
			}
		}
		g.mixed[i] = sum * invSqrtN
	}

	for i := 0; i < numGravityLines; i++ {
		feedback := math.Tanh(g.mixed[i] * decayGain)

		if g.diffusion > 0.01 {
			feedback = g.processAllpass(i, feedback, g.diffusion*0.7)
		}

		g.lines[i][g.writePos[i]] = float32(input + feedback)

		g.writePos[i]++
		if g.writePos[i] >= len(g.lines[i]) {
			g.writePos[i] = 0
		}
	}

	for i := 0; i < numGravityLines; i++ {
		if i%2 == 0 {
			outL += g.outputs[i]
		} else {
			outR += g.outputs[i]
		}
	}
	outL /= numGravityLines / 2
	outR /= numGravityLines / 2
	return outL, outR
}

// processAllpass runs one first-order allpass for line diffusion.
func (g *Gravity) processAllpass(index int, input, gain float64) float64 {
	output := -input*gain + g.apState[index]
	g.apState[index] = input + output*gain
	return output
}

// applyShimmer mixes in an octave-up copy of the wet sum, produced by
// reading a short loop at twice the write speed.
func (g *Gravity) applyShimmer(left, right float64) (float64, float64) {
	g.shimmerBuf[g.shimmerWrite] = float32((left + right) * 0.5)
	g.shimmerWrite = (g.shimmerWrite + 1) % shimmerBufferSize

	readPosInt := int(g.shimmerPhase)
	frac := g.shimmerPhase - float64(readPosInt)

	idx0 := readPosInt % shimmerBufferSize
	idx1 := (readPosInt + 1) % shimmerBufferSize
	shimmerSample := float64(g.shimmerBuf[idx0])*(1.0-frac) +
		float64(g.shimmerBuf[idx1])*frac

	g.shimmerPhase += 2.0
	for g.shimmerPhase >= shimmerBufferSize {
		g.shimmerPhase -= shimmerBufferSize
	}

	gain := g.shimmer * 0.5
	return left + shimmerSample*gain, right + shimmerSample*gain
}

// captureFreeze snapshots the current network into the stereo loop.
func (g *Gravity) captureFreeze() {
	g.freezeCaptured = true
	g.freezeReadPos = 0

	for i := 0; i < freezeLoopSize; i++ {
		var sumL, sumR float64
		for d := 0; d < numGravityLines; d++ {
			pos := (g.writePos[d] - i) % len(g.lines[d])
			if pos < 0 {
				pos += len(g.lines[d])
			}
			if d%2 == 0 {
				sumL += float64(g.lines[d][pos])
			} else {
				sumR += float64(g.lines[d][pos])
			}
		}
		g.freezeBuf[0][i] = float32(sumL / (numGravityLines / 2))
		g.freezeBuf[1][i] = float32(sumR / (numGravityLines / 2))
	}
}

// readFreezeLoop plays the snapshot; the read position only advances after
// the right channel so both channels stay in step.
func (g *Gravity) readFreezeLoop(channel int) float64 {
	if !g.freezeCaptured {
		return 0
	}

	output := float64(g.freezeBuf[channel][g.freezeReadPos])
	if channel == 1 {
		g.freezeReadPos++
		if g.freezeReadPos >= freezeLoopSize {
			g.freezeReadPos = 0
		}
	}
	return output
}

func (g *Gravity) nextRandom01() float64 {
	g.randState = g.randState*1664525 + 1013904223
	return float64(g.randState) / float64(1<<32)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
