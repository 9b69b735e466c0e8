package analysis

import (
	"math"
	"sort"
)

// featureFloor is the magnitude below which bins are ignored by the
// statistical features.
const featureFloor = 1e-10

// Centroid returns the spectral centroid in Hz of a magnitude spectrum
// with fftSize/2+1 bins. Zero-energy spectra return 0.
func Centroid(magnitude []float64, sampleRate float64, fftSize int) float64 {
	var weighted, total float64
	binWidth := sampleRate / float64(fftSize)
	for i, mag := range magnitude {
		weighted += float64(i) * binWidth * mag
		total += mag
	}
	if total < featureFloor {
		return 0
	}
	return weighted / total
}

// Flatness returns the spectral flatness (geometric over arithmetic mean)
// of the bins above the floor, skipping DC. Values near 1 indicate noise,
// values near 0 a tonal spectrum.
func Flatness(magnitude []float64) float64 {
	var logSum, sum float64
	count := 0
	for i := 1; i < len(magnitude); i++ {
		if magnitude[i] > featureFloor {
			logSum += math.Log(magnitude[i])
			sum += magnitude[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	geoMean := math.Exp(logSum / float64(count))
	arithMean := sum / float64(count)
	if arithMean < featureFloor {
		return 0
	}
	return geoMean / arithMean
}

// EstimateFundamentalBin returns the bin with the largest magnitude in the
// low quarter of the spectrum, skipping DC. Returns 0 when the spectrum is
// empty.
func EstimateFundamentalBin(magnitude []float64, fftSize int) int {
	limit := fftSize / 4
	if limit > len(magnitude) {
		limit = len(magnitude)
	}
	best := 0
	bestMag := 0.0
	for i := 1; i < limit; i++ {
		if magnitude[i] > bestMag {
			bestMag = magnitude[i]
			best = i
		}
	}
	return best
}

// EstimateFundamental returns the fundamental frequency in Hz.
func EstimateFundamental(magnitude []float64, sampleRate float64, fftSize int) float64 {
	bin := EstimateFundamentalBin(magnitude, fftSize)
	return float64(bin) * sampleRate / float64(fftSize)
}

// Formant is a spectral peak candidate.
type Formant struct {
	Bin       int
	Frequency float64
	Magnitude float64
}

// FindFormants returns up to maxFormants local maxima between 100 Hz and
// 5 kHz, sorted by magnitude descending. A bin counts as a peak when it
// exceeds both its immediate and second neighbors.
func FindFormants(magnitude []float64, sampleRate float64, fftSize int, maxFormants int) []Formant {
	binWidth := sampleRate / float64(fftSize)
	lo := int(100.0 / binWidth)
	hi := int(5000.0 / binWidth)
	if lo < 2 {
		lo = 2
	}
	if hi > len(magnitude)-3 {
		hi = len(magnitude) - 3
	}

	var peaks []Formant
	for i := lo; i <= hi; i++ {
		m := magnitude[i]
		if m > magnitude[i-1] && m > magnitude[i+1] &&
			m > magnitude[i-2] && m > magnitude[i+2] {
			peaks = append(peaks, Formant{
				Bin:       i,
				Frequency: float64(i) * binWidth,
				Magnitude: m,
			})
		}
	}

	sort.Slice(peaks, func(a, b int) bool {
		return peaks[a].Magnitude > peaks[b].Magnitude
	})
	if len(peaks) > maxFormants {
		peaks = peaks[:maxFormants]
	}
	return peaks
}
