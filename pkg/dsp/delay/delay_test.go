package delay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLineDelaysImpulse writes an impulse and checks it comes back out
// exactly the delay time later.
func TestLineDelaysImpulse(t *testing.T) {
	d := New(1.0, 48000)
	const delaySamples = 100

	for i := 0; i < 200; i++ {
		out := d.Read(delaySamples)
		if i == 0 {
			d.Write(1.0)
		} else {
			d.Write(0.0)
		}
		if i == delaySamples {
			assert.Equal(t, float32(1.0), out, "impulse should appear after %d samples", delaySamples)
		} else {
			assert.Equal(t, float32(0.0), out, "sample %d should be silent", i)
		}
	}
}

// TestLineInterpolation checks a fractional delay lands between neighbors.
func TestLineInterpolation(t *testing.T) {
	d := New(1.0, 48000)
	d.Write(0.0)
	d.Write(1.0)

	// 1.5 samples back is halfway between the two written values.
	out := d.Read(1.5)
	assert.InDelta(t, 0.5, out, 1e-6)
}

// TestCombDecays feeds an impulse and verifies the repeats shrink.
func TestCombDecays(t *testing.T) {
	c := NewComb(1.0, 48000)
	c.SetFeedback(0.5)
	c.SetDamp(0.0)

	const delay = 50
	var peaks []float32
	input := float32(1.0)
	for i := 0; i < delay*4+1; i++ {
		out := c.Process(input, delay)
		input = 0
		if i%delay == 0 && i > 0 {
			peaks = append(peaks, out)
		}
	}

	require.Len(t, peaks, 4)
	for i := 1; i < len(peaks); i++ {
		assert.Less(t, abs32(peaks[i]), abs32(peaks[i-1])+1e-6,
			"repeat %d should not grow", i)
	}
}

// TestAllpassBounded verifies the allpass stays stable under sustained
// input at typical feedback.
func TestAllpassBounded(t *testing.T) {
	a := NewAllpass(1.0, 48000)
	a.SetFeedback(0.7)

	for i := 0; i < 48000; i++ {
		out := a.Process(0.5, 31)
		require.Less(t, abs32(out), float32(10.0))
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
