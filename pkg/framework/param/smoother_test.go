package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearSmootherRamps(t *testing.T) {
	s := NewSmoother(LinearSmoothing, 100) // 100-sample ramp
	s.Reset(0)
	s.SetTarget(1)

	prev := 0.0
	for i := 0; i < 100; i++ {
		v := s.Next()
		require.GreaterOrEqual(t, v, prev, "ramp must be monotonic")
		prev = v
	}
	assert.InDelta(t, 1.0, prev, 1e-9)
	assert.False(t, s.IsSmoothing())
}

func TestExponentialSmootherConverges(t *testing.T) {
	s := NewSmoother(ExponentialSmoothing, 0.99)
	s.Reset(0)
	s.SetTarget(1)

	var v float64
	for i := 0; i < 5000; i++ {
		v = s.Next()
	}
	assert.Equal(t, 1.0, v, "exponential ramp snaps to its target")
	assert.False(t, s.IsSmoothing())
}

func TestLogarithmicSmootherStaysPositive(t *testing.T) {
	s := NewSmoother(LogarithmicSmoothing, 50)
	s.Reset(20000)
	s.SetTarget(20)

	prev := 20000.0
	for i := 0; i < 50; i++ {
		v := s.Next()
		require.Greater(t, v, 0.0)
		require.LessOrEqual(t, v, prev)
		prev = v
	}
	assert.InDelta(t, 20.0, prev, 1e-6)
}

func TestSmootherIgnoresTinyTargetMoves(t *testing.T) {
	s := NewSmoother(ExponentialSmoothing, 0.99)
	s.Reset(0.5)
	s.SetTarget(0.5 + 1e-6)
	assert.False(t, s.IsSmoothing())
}

func TestSmoothedParameterRampsPlainValue(t *testing.T) {
	p := New(1, "Cutoff").Range(0, 1000).Default(0).Build()
	sp := NewSmoothedParameter(p, LinearSmoothing, 10)

	sp.SetValue(1.0) // plain 1000
	assert.Equal(t, 1.0, p.GetValue(), "atomic value updates immediately")

	mid := sp.NextPlain()
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1000.0, "plain value ramps instead of jumping")

	for i := 0; i < 20; i++ {
		sp.NextPlain()
	}
	assert.InDelta(t, 1000.0, sp.NextPlain(), 1e-6)
}

func TestSmoothedParameterDisable(t *testing.T) {
	p := New(1, "Cutoff").Range(0, 1000).Default(0).Build()
	sp := NewSmoothedParameter(p, LinearSmoothing, 1000)

	sp.SetValue(1.0)
	sp.SetSmoothing(false)
	assert.Equal(t, 1000.0, sp.NextPlain(), "disabled smoothing reads the raw value")
}
