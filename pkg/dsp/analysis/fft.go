package analysis

import (
	"math"
)

// WindowFunc represents a window function type
type WindowFunc int

const (
	// RectangularWindow applies no shaping.
	RectangularWindow WindowFunc = iota
	// HannWindow is the default analysis window.
	HannWindow
	// SqrtHannWindow is the square root of Hann, used as a synthesis
	// window so that analysis Hann times synthesis SqrtHann overlap-adds
	// to unity at 4:1 overlap.
	SqrtHannWindow
	// HammingWindow trades sidelobe level for a wider main lobe.
	HammingWindow
	// BlackmanWindow has the strongest sidelobe suppression of the set.
	BlackmanWindow
)

// MakeWindow fills a new slice with the coefficients of the given window.
func MakeWindow(window WindowFunc, size int) []float64 {
	w := make([]float64, size)
	n := float64(size)
	switch window {
	case RectangularWindow:
		for i := range w {
			w[i] = 1.0
		}
	case HannWindow:
		for i := range w {
			w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/(n-1.0)))
		}
	case SqrtHannWindow:
		for i := range w {
			w[i] = math.Sqrt(0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/(n-1.0))))
		}
	case HammingWindow:
		for i := range w {
			w[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/(n-1.0))
		}
	case BlackmanWindow:
		for i := range w {
			val := 0.42 - 0.5*math.Cos(2.0*math.Pi*float64(i)/(n-1.0)) +
				0.08*math.Cos(4.0*math.Pi*float64(i)/(n-1.0))
			if val < 0 {
				val = 0
			}
			w[i] = val
		}
	}
	return w
}

// FFT is a radix-2 Cooley-Tukey transform with precomputed twiddle factors
// and bit-reversal table. All work buffers are allocated once, so Forward
// and InverseInto are allocation-free on the processing path.
type FFT struct {
	size       int
	window     WindowFunc
	windowData []float64

	// Precomputed tables
	bitrev  []int
	twiddle []float64 // interleaved cos,sin pairs for size/2 factors

	real      []float64
	imag      []float64
	magnitude []float64
	phase     []float64
}

// NewFFT creates a new FFT processor with the specified size (a power of
// two) and analysis window.
func NewFFT(size int, window WindowFunc) *FFT {
	f := &FFT{
		size:       size,
		window:     window,
		windowData: MakeWindow(window, size),
		bitrev:     make([]int, size),
		twiddle:    make([]float64, size), // size/2 pairs
		real:       make([]float64, size),
		imag:       make([]float64, size),
		magnitude:  make([]float64, size/2+1),
		phase:      make([]float64, size/2+1),
	}

	// Bit-reversal permutation table.
	bits := 0
	for 1<<bits < size {
		bits++
	}
	for i := 0; i < size; i++ {
		r := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				r |= 1 << (bits - 1 - b)
			}
		}
		f.bitrev[i] = r
	}

	// Unit-circle factors e^{-2πik/N} for k in [0, N/2).
	for k := 0; k < size/2; k++ {
		theta := -2.0 * math.Pi * float64(k) / float64(size)
		f.twiddle[2*k] = math.Cos(theta)
		f.twiddle[2*k+1] = math.Sin(theta)
	}

	return f
}

// Size returns the transform length.
func (f *FFT) Size() int {
	return f.size
}

// NumBins returns the number of non-redundant spectrum bins (size/2+1).
func (f *FFT) NumBins() int {
	return f.size/2 + 1
}

// Forward windows the input, transforms it, and returns the magnitude and
// phase spectra. The returned slices are reused between calls.
func (f *FFT) Forward(input []float64) (magnitude, phase []float64) {
	for i := 0; i < f.size && i < len(input); i++ {
		f.real[i] = input[i] * f.windowData[i]
		f.imag[i] = 0.0
	}
	for i := len(input); i < f.size; i++ {
		f.real[i] = 0.0
		f.imag[i] = 0.0
	}

	f.transform(f.real, f.imag)

	for i := 0; i <= f.size/2; i++ {
		f.magnitude[i] = math.Sqrt(f.real[i]*f.real[i] + f.imag[i]*f.imag[i])
		f.phase[i] = math.Atan2(f.imag[i], f.real[i])
	}

	return f.magnitude, f.phase
}

// InverseInto transforms a half spectrum given as real/imaginary bin
// values (size/2+1 entries) back to size time samples, writing them to
// out. No window is applied; the caller owns synthesis windowing.
func (f *FFT) InverseInto(re, im, out []float64) {
	// Expand the half spectrum to the full conjugate-symmetric one.
	half := f.size / 2
	for i := 0; i <= half; i++ {
		f.real[i] = re[i]
		f.imag[i] = im[i]
	}
	for i := half + 1; i < f.size; i++ {
		f.real[i] = re[f.size-i]
		f.imag[i] = -im[f.size-i]
	}

	// Inverse via conjugate trick: conj, forward, conj, scale.
	for i := 0; i < f.size; i++ {
		f.imag[i] = -f.imag[i]
	}
	f.transform(f.real, f.imag)

	scale := 1.0 / float64(f.size)
	for i := 0; i < f.size; i++ {
		out[i] = f.real[i] * scale
	}
}

// Inverse is the allocating convenience form of InverseInto over a full
// complex spectrum of size entries.
func (f *FFT) Inverse(re, im []float64) []float64 {
	copy(f.real, re)
	copy(f.imag, im)

	for i := 0; i < f.size; i++ {
		f.imag[i] = -f.imag[i]
	}
	f.transform(f.real, f.imag)

	result := make([]float64, f.size)
	scale := 1.0 / float64(f.size)
	for i := 0; i < f.size; i++ {
		result[i] = f.real[i] * scale
	}
	return result
}

// transform runs the in-place radix-2 decimation-in-time FFT using the
// precomputed tables.
func (f *FFT) transform(real, imag []float64) {
	n := f.size

	for i := 0; i < n; i++ {
		j := f.bitrev[i]
		if i < j {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
	}

	for stage := 2; stage <= n; stage <<= 1 {
		half := stage / 2
		step := n / stage // twiddle stride for this stage

		for k := 0; k < n; k += stage {
			for j := 0; j < half; j++ {
				wReal := f.twiddle[2*j*step]
				wImag := f.twiddle[2*j*step+1]

				i1 := k + j
				i2 := i1 + half

				tr := wReal*real[i2] - wImag*imag[i2]
				ti := wReal*imag[i2] + wImag*real[i2]

				real[i2] = real[i1] - tr
				imag[i2] = imag[i1] - ti
				real[i1] += tr
				imag[i1] += ti
			}
		}
	}
}

// GetMagnitudeDB returns the magnitude spectrum in decibels
func (f *FFT) GetMagnitudeDB() []float64 {
	db := make([]float64, len(f.magnitude))
	for i, mag := range f.magnitude {
		if mag > 0 {
			db[i] = 20.0 * math.Log10(mag)
		} else {
			db[i] = -120.0 // Floor at -120 dB
		}
	}
	return db
}

// GetFrequencyBin returns the frequency corresponding to a given FFT bin
func (f *FFT) GetFrequencyBin(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(f.size)
}
