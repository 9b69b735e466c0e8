package pan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionGains(t *testing.T) {
	l, r := PositionGains(0)
	assert.Equal(t, float32(1), l)
	assert.InDelta(t, 0, float64(r), 1e-7)

	l, r = PositionGains(1)
	assert.InDelta(t, 0, float64(l), 1e-7)
	assert.Equal(t, float32(1), r)

	// Center sits at -3 dB on both channels.
	l, r = PositionGains(0.5)
	assert.InDelta(t, math.Sqrt2/2, float64(l), 1e-6)
	assert.InDelta(t, math.Sqrt2/2, float64(r), 1e-6)

	// Out-of-range positions clamp.
	l, _ = PositionGains(-2)
	assert.Equal(t, float32(1), l)
}

func TestPositionGainsConstantPower(t *testing.T) {
	for pos := float32(0); pos <= 1.0; pos += 0.1 {
		l, r := PositionGains(pos)
		power := float64(l*l + r*r)
		assert.InDelta(t, 1.0, power, 1e-6, "position %v", pos)
	}
}

func TestGains(t *testing.T) {
	l, r := Gains(-1)
	assert.Equal(t, float32(1), l)
	assert.InDelta(t, 0, float64(r), 1e-7)

	l, r = Gains(0)
	assert.InDelta(t, math.Sqrt2/2, float64(l), 1e-6)
	assert.InDelta(t, math.Sqrt2/2, float64(r), 1e-6)

	_, r = Gains(1)
	assert.Equal(t, float32(1), r)
}

func TestWidthFoldsToMono(t *testing.T) {
	left := []float32{1, 0.5, -0.25}
	right := []float32{0, -0.5, 0.75}

	Width(left, right, 0)
	for i := range left {
		assert.Equal(t, left[i], right[i], "sample %d is mono", i)
	}
}

func TestWidthUnityIsTransparent(t *testing.T) {
	left := []float32{1, 0.5, -0.25}
	right := []float32{0, -0.5, 0.75}
	wantL := append([]float32(nil), left...)
	wantR := append([]float32(nil), right...)

	Width(left, right, 1)
	assert.Equal(t, wantL, left)
	assert.Equal(t, wantR, right)
}

func TestBalance(t *testing.T) {
	left := []float32{1, 1}
	right := []float32{1, 1}

	Balance(left, right, -1)
	assert.Equal(t, float32(1), left[0], "left untouched")
	assert.Zero(t, right[0], "right silenced")

	left = []float32{1, 1}
	right = []float32{1, 1}
	Balance(left, right, 0.5)
	assert.Equal(t, float32(0.5), left[0])
	assert.Equal(t, float32(1), right[0])
}
