package gain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDbConversion(t *testing.T) {
	tests := []struct {
		name   string
		linear float64
		db     float64
	}{
		{"unity", 1.0, 0.0},
		{"half", 0.5, -6.0206},
		{"double", 2.0, 6.0206},
		{"quarter", 0.25, -12.0412},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.db, LinearToDb(tt.linear), 0.001)
			assert.InDelta(t, tt.linear, DbToLinear(tt.db), 0.001)
		})
	}

	assert.Equal(t, float64(MinDB), LinearToDb(0))
	assert.Equal(t, float64(MinDB), LinearToDb(-1))
	assert.Zero(t, DbToLinear(MinDB))
}

func TestDbConversion32(t *testing.T) {
	assert.InDelta(t, -6.0206, float64(LinearToDb32(0.5)), 0.001)
	assert.InDelta(t, 0.5, float64(DbToLinear32(-6.0206)), 0.001)
	assert.Equal(t, float32(MinDB), LinearToDb32(0))
}

func TestApplyBuffer(t *testing.T) {
	buf := []float32{1, -2, 0.5}
	ApplyBuffer(buf, 0.5)
	assert.Equal(t, []float32{0.5, -1, 0.25}, buf)
}

func TestFade(t *testing.T) {
	buf := []float32{1, 1, 1, 1, 1}
	Fade(buf, 0, 1)

	assert.Zero(t, buf[0])
	assert.Equal(t, float32(1), buf[4])
	for i := 1; i < len(buf); i++ {
		assert.Greater(t, buf[i], buf[i-1], "monotonic ramp")
	}

	single := []float32{2}
	Fade(single, 0.5, 1)
	assert.Equal(t, float32(1), single[0])
}

func TestFastTanh32(t *testing.T) {
	assert.Zero(t, FastTanh32(0))
	assert.Equal(t, float32(1), FastTanh32(5))
	assert.Equal(t, float32(-1), FastTanh32(-5))

	for _, x := range []float32{-2, -1, -0.5, 0.5, 1, 2} {
		got := float64(FastTanh32(x))
		want := math.Tanh(float64(x))
		assert.InDelta(t, want, got, 0.02, "x=%v", x)
	}
}
