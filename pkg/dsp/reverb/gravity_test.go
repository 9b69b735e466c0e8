package reverb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibrationalforce/echoelcore/pkg/bio"
)

// TestGravityTail feeds an impulse and checks the network rings after the
// input stops.
func TestGravityTail(t *testing.T) {
	g := NewGravity(48000)
	g.SetMix(1.0)
	g.SetSize(0.3)
	g.SetDecay(0.8)

	g.ProcessStereo(1.0, 1.0)

	var tailEnergy float64
	for i := 0; i < 48000; i++ {
		l, r := g.ProcessStereo(0, 0)
		require.False(t, math.IsNaN(float64(l)) || math.IsNaN(float64(r)))
		tailEnergy += float64(l*l + r*r)
	}
	assert.Greater(t, tailEnergy, 0.0, "impulse should leave a tail")
}

// TestGravityResetSilence verifies Reset empties the whole network.
func TestGravityResetSilence(t *testing.T) {
	g := NewGravity(48000)
	g.SetMix(1.0)
	for i := 0; i < 4800; i++ {
		g.ProcessStereo(1.0, 1.0)
	}

	g.Reset()

	for i := 0; i < 4800; i++ {
		l, r := g.ProcessStereo(0, 0)
		assert.Zero(t, l, "sample %d left", i)
		assert.Zero(t, r, "sample %d right", i)
	}
}

// TestGravityBounded drives the network hard at near-unity decay and
// checks the soft clip keeps it finite.
func TestGravityBounded(t *testing.T) {
	g := NewGravity(48000)
	g.SetMix(1.0)
	g.SetSize(0.5)
	g.SetDecay(0.99)
	g.SetShimmer(0.5)

	for i := 0; i < 96000; i++ {
		in := float32(math.Sin(float64(i) * 0.1))
		l, r := g.ProcessStereo(in, in)
		require.False(t, math.IsNaN(float64(l)) || math.IsInf(float64(l), 0))
		require.Less(t, math.Abs(float64(l))+math.Abs(float64(r)), 100.0)
	}
}

// TestGravityFreezeSustains checks a frozen snapshot keeps playing with
// silent input.
func TestGravityFreezeSustains(t *testing.T) {
	g := NewGravity(48000)
	g.SetMix(1.0)
	g.SetSize(0.2)

	for i := 0; i < 24000; i++ {
		in := float32(math.Sin(float64(i) * 0.2))
		g.ProcessStereo(in, in)
	}

	g.SetFreeze(true)

	var energy float64
	for i := 0; i < 48000; i++ {
		l, r := g.ProcessStereo(0, 0)
		energy += float64(l*l + r*r)
	}
	assert.Greater(t, energy, 0.0, "frozen loop should keep sounding")
}

// TestGravityFreezeIdempotent checks engaging freeze while already frozen
// neither recaptures nor restarts the loop.
func TestGravityFreezeIdempotent(t *testing.T) {
	g := NewGravity(48000)
	g.SetMix(1.0)
	for i := 0; i < 24000; i++ {
		in := float32(math.Sin(float64(i) * 0.2))
		g.ProcessStereo(in, in)
	}

	g.SetFreeze(true)
	for i := 0; i < 1000; i++ {
		g.ProcessStereo(0, 0)
	}

	posBefore := g.freezeReadPos
	g.SetFreeze(true)
	assert.Equal(t, posBefore, g.freezeReadPos,
		"re-freezing should not restart the snapshot loop")
	assert.True(t, g.IsFrozen())

	// Releasing discards the snapshot: re-freezing captures a new one.
	g.SetFreeze(false)
	assert.False(t, g.freezeCaptured)
}

// TestGravityInverseDecaySwells compares late-to-early energy ratios:
// negative gravity must grow the tail relative to the natural decay.
func TestGravityInverseDecaySwells(t *testing.T) {
	ratio := func(gravity float64) float64 {
		g := NewGravity(48000)
		g.SetMix(1.0)
		g.SetSize(0.3)
		g.SetDecay(0.6)
		g.SetGravity(gravity)
		g.SetBloom(0.5)
		g.SetModulation(0, 0)

		var early, late float64
		const n = 96000
		for i := 0; i < n; i++ {
			in := float32(0.3 * math.Sin(float64(i)*0.05))
			l, r := g.ProcessStereo(in, in)
			e := float64(l*l + r*r)
			if i < n/8 {
				early += e
			} else if i >= n-n/8 {
				late += e
			}
		}
		if early == 0 {
			return math.Inf(1)
		}
		return late / early
	}

	natural := ratio(1.0)
	inverse := ratio(-1.0)
	assert.Greater(t, inverse, natural,
		"negative gravity should swell relative to natural decay")
}

// TestGravityBloomDelaysOnset checks the bloom stage suppresses the early
// response.
func TestGravityBloomDelaysOnset(t *testing.T) {
	onset := func(bloom float64) float64 {
		g := NewGravity(48000)
		g.SetMix(1.0)
		g.SetSize(0.2)
		g.SetBloom(bloom)

		var energy float64
		for i := 0; i < 4800; i++ {
			in := float32(0)
			if i < 100 {
				in = 0.5
			}
			l, r := g.ProcessStereo(in, in)
			energy += float64(l*l + r*r)
		}
		return energy
	}

	assert.Less(t, onset(0.8), onset(0.0),
		"bloom should suppress the early response")
}

// TestGravityPresets spot-checks the preset parameter sets.
func TestGravityPresets(t *testing.T) {
	g := NewGravity(48000)

	g.SetPresetVoid()
	assert.Equal(t, 1.0, g.size)
	assert.Equal(t, 0.99, g.decay)

	g.SetPresetCathedral()
	assert.Equal(t, 0.8, g.size)
	assert.Equal(t, 1.0, g.gravity)

	g.SetPresetBloomChamber()
	assert.Equal(t, -0.8, g.gravity)
	assert.Equal(t, 0.7, g.bloom)
}

// TestGravityBioMapping checks RefreshBio lands coherence on gravity.
func TestGravityBioMapping(t *testing.T) {
	state := bio.NewState()
	state.SetCoherence(1.0)

	g := NewGravity(48000)
	g.AttachBio(state)
	g.SetBioReactive(true)
	g.RefreshBio()

	assert.InDelta(t, 1.0, g.gravity, 1e-9, "full coherence maps to natural decay")

	state.SetCoherence(0.0)
	g.RefreshBio()
	assert.InDelta(t, -1.0, g.gravity, 1e-9, "zero coherence maps to inverse decay")
}
