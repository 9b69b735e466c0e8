package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLinear verifies endpoints and midpoint.
func TestLinear(t *testing.T) {
	assert.Equal(t, float32(1), Linear(1, 3, 0))
	assert.Equal(t, float32(3), Linear(1, 3, 1))
	assert.Equal(t, float32(2), Linear(1, 3, 0.5))
}

// TestCubicEndpoints verifies the spline passes through its center points.
func TestCubicEndpoints(t *testing.T) {
	assert.InDelta(t, 1.0, float64(Cubic(0, 1, 2, 3, 0)), 1e-6, "frac 0 returns y1")
	assert.InDelta(t, 2.0, float64(Cubic(0, 1, 2, 3, 1)), 1e-6, "frac 1 returns y2")
}

// TestCubicLinearRamp verifies the spline reproduces a straight line
// exactly.
func TestCubicLinearRamp(t *testing.T) {
	for _, frac := range []float32{0, 0.25, 0.5, 0.75, 1} {
		got := Cubic(0, 1, 2, 3, frac)
		assert.InDelta(t, float64(1+frac), float64(got), 1e-6, "frac %f", frac)
	}
}

// TestHermiteMatchesCubicOnSmoothData verifies both 4-point forms agree
// through their shared center points and on linear data.
func TestHermiteMatchesCubicOnSmoothData(t *testing.T) {
	assert.InDelta(t, 1.0, float64(Hermite(0, 1, 2, 3, 0)), 1e-6)
	assert.InDelta(t, 2.0, float64(Hermite(0, 1, 2, 3, 1)), 1e-6)

	for _, frac := range []float32{0.25, 0.5, 0.75} {
		c := Cubic(0.1, 0.4, 0.9, 1.6, frac)
		h := Hermite(0.1, 0.4, 0.9, 1.6, frac)
		assert.InDelta(t, float64(c), float64(h), 1e-5, "frac %f", frac)
	}
}

// TestSmooth verifies convergence toward the target.
func TestSmooth(t *testing.T) {
	v := float32(0)
	for i := 0; i < 500; i++ {
		v = Smooth(v, 1, 0.05)
	}
	assert.InDelta(t, 1.0, float64(v), 1e-3, "smoothing converges to target")

	assert.Equal(t, float32(1), Smooth(0, 1, 1), "factor 1 jumps immediately")
	assert.Equal(t, float32(0), Smooth(0, 1, 0), "factor 0 never moves")
}

func BenchmarkCubic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Cubic(0.1, 0.4, 0.9, 1.6, 0.37)
	}
}
