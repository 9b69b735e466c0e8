package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeConstantsOrdered(t *testing.T) {
	assert.Less(t, float64(MinFrequency), float64(MaxFrequency))
	assert.Less(t, float64(MinLFORate), float64(MaxLFORate))
	assert.Less(t, MinBufferSize, MaxBufferSize)
}

func TestPhaseConstants(t *testing.T) {
	assert.InDelta(t, math.Pi, Pi, 1e-12)
	assert.InDelta(t, 2*math.Pi, TwoPi, 1e-12)
	assert.InDelta(t, math.Pi/2, HalfPi, 1e-12)
}

func TestDenormalThresholdIsSubnormalGuard(t *testing.T) {
	// Must sit well below any audible signal but above the smallest
	// normal float64.
	assert.Less(t, DenormalThreshold, 1e-20)
	assert.Greater(t, DenormalThreshold, math.SmallestNonzeroFloat64)
}
