package analysis

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFFTPeakDetection runs a sine through each window and checks the
// spectral peak lands on the right bin.
func TestFFTPeakDetection(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		window WindowFunc
	}{
		{"Rectangular 256", 256, RectangularWindow},
		{"Hann 512", 512, HannWindow},
		{"Hamming 1024", 1024, HammingWindow},
		{"Blackman 2048", 2048, BlackmanWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fft := NewFFT(tt.size, tt.window)

			freq := 440.0
			sampleRate := 44100.0
			input := make([]float64, tt.size)
			for i := 0; i < tt.size; i++ {
				input[i] = math.Sin(2.0 * math.Pi * freq * float64(i) / sampleRate)
			}

			magnitude, _ := fft.Forward(input)

			maxMag := 0.0
			maxBin := 0
			for i, mag := range magnitude {
				if mag > maxMag {
					maxMag = mag
					maxBin = i
				}
			}

			peakFreq := fft.GetFrequencyBin(maxBin, sampleRate)
			tolerance := sampleRate / float64(tt.size) // one bin width
			assert.InDelta(t, freq, peakFreq, tolerance)
		})
	}
}

// TestWindowProperties checks every window is bounded, non-negative and
// symmetric.
func TestWindowProperties(t *testing.T) {
	size := 1024
	windows := []struct {
		name   string
		window WindowFunc
	}{
		{"Rectangular", RectangularWindow},
		{"Hann", HannWindow},
		{"SqrtHann", SqrtHannWindow},
		{"Hamming", HammingWindow},
		{"Blackman", BlackmanWindow},
	}

	for _, w := range windows {
		t.Run(w.name, func(t *testing.T) {
			data := MakeWindow(w.window, size)
			for i, coeff := range data {
				assert.GreaterOrEqual(t, coeff, 0.0, "index %d", i)
				assert.LessOrEqual(t, coeff, 1.0001, "index %d", i)
			}
			for i := 0; i < size/2; i++ {
				assert.InDelta(t, data[i], data[size-1-i], 1e-10,
					"window should be symmetric at index %d", i)
			}
		})
	}
}

// TestSqrtHannIsRootOfHann verifies the synthesis window squares back to
// the analysis window.
func TestSqrtHannIsRootOfHann(t *testing.T) {
	size := 512
	hann := MakeWindow(HannWindow, size)
	root := MakeWindow(SqrtHannWindow, size)
	for i := 0; i < size; i++ {
		assert.InDelta(t, hann[i], root[i]*root[i], 1e-12, "index %d", i)
	}
}

// TestInverseRoundTrip transforms a multi-tone signal forward and back
// through the half-spectrum inverse and compares against the original.
func TestInverseRoundTrip(t *testing.T) {
	size := 1024
	fft := NewFFT(size, RectangularWindow)

	input := make([]float64, size)
	sampleRate := 44100.0
	for i := 0; i < size; i++ {
		for _, freq := range []float64{100.0, 250.0, 500.0} {
			input[i] += math.Sin(2.0 * math.Pi * freq * float64(i) / sampleRate)
		}
		input[i] /= 3.0
	}

	magnitude, phase := fft.Forward(input)

	// Rebuild the half spectrum in rectangular form.
	bins := fft.NumBins()
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := 0; i < bins; i++ {
		re[i] = magnitude[i] * math.Cos(phase[i])
		im[i] = magnitude[i] * math.Sin(phase[i])
	}

	out := make([]float64, size)
	fft.InverseInto(re, im, out)

	for i := 0; i < size; i++ {
		require.InDelta(t, input[i], out[i], 1e-9, "sample %d", i)
	}
}

// TestGetMagnitudeDB checks a DC signal concentrates in bin zero.
func TestGetMagnitudeDB(t *testing.T) {
	fft := NewFFT(256, RectangularWindow)

	input := make([]float64, 256)
	for i := range input {
		input[i] = 1.0
	}

	fft.Forward(input)
	db := fft.GetMagnitudeDB()

	assert.Greater(t, db[0], 20.0, "DC bin should dominate")
	for i := 1; i < len(db); i++ {
		require.Less(t, db[i], -60.0, "non-DC bin %d", i)
	}
}

func BenchmarkFFT(b *testing.B) {
	for _, size := range []int{256, 1024, 4096} {
		b.Run(fmt.Sprintf("Size%d", size), func(b *testing.B) {
			fft := NewFFT(size, HannWindow)
			input := make([]float64, size)
			for i := 0; i < size; i++ {
				input[i] = math.Sin(2.0 * math.Pi * 440.0 * float64(i) / 44100.0)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				fft.Forward(input)
			}
		})
	}
}
