package analysis

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/lockfree"
)

// SnapshotBins is the fixed resolution of published spectrum snapshots.
// The full FFT resolution is folded down so a snapshot is a flat value
// type that crosses the queue without allocation.
const SnapshotBins = 128

// SpectrumSnapshot is one published spectrum frame. Bins hold linear
// magnitudes; Block counts frames since the tap was created.
type SpectrumSnapshot struct {
	Bins  [SnapshotBins]float32
	Block uint64
}

// SpectrumTap accumulates audio on the processing thread and publishes a
// downsampled magnitude spectrum for every full FFT frame. Snapshots cross
// to the UI thread through a wait-free queue; when the UI lags and the
// queue fills, frames are dropped rather than blocking audio.
type SpectrumTap struct {
	fft        *FFT
	fftSize    int
	sampleRate float64

	buffer   []float64
	writePos int

	queue *lockfree.Queue[SpectrumSnapshot]
	block uint64
}

// NewSpectrumTap creates a tap with the given FFT size (a power of two)
// and snapshot queue capacity.
func NewSpectrumTap(fftSize int, sampleRate float64, queueCapacity int) *SpectrumTap {
	return &SpectrumTap{
		fft:        NewFFT(fftSize, HannWindow),
		fftSize:    fftSize,
		sampleRate: sampleRate,
		buffer:     make([]float64, fftSize),
		queue:      lockfree.NewQueue[SpectrumSnapshot](queueCapacity),
	}
}

// Process feeds one block of mono samples. Audio thread side; no
// allocations.
func (t *SpectrumTap) Process(samples []float32) {
	for _, s := range samples {
		t.buffer[t.writePos] = float64(s)
		t.writePos++
		if t.writePos >= t.fftSize {
			t.writePos = 0
			t.publish()
		}
	}
}

// ProcessStereo feeds a stereo block as its mono sum.
func (t *SpectrumTap) ProcessStereo(left, right []float32) {
	for i := range left {
		t.buffer[t.writePos] = float64(left[i]+right[i]) * 0.5
		t.writePos++
		if t.writePos >= t.fftSize {
			t.writePos = 0
			t.publish()
		}
	}
}

// publish transforms the accumulated frame and pushes a snapshot, folding
// the spectrum down to SnapshotBins by per-group peak.
func (t *SpectrumTap) publish() {
	magnitude, _ := t.fft.Forward(t.buffer)

	var snap SpectrumSnapshot
	group := len(magnitude) / SnapshotBins
	if group < 1 {
		group = 1
	}
	for b := 0; b < SnapshotBins; b++ {
		start := b * group
		if start >= len(magnitude) {
			break
		}
		end := start + group
		if end > len(magnitude) {
			end = len(magnitude)
		}
		peak := 0.0
		for i := start; i < end; i++ {
			if magnitude[i] > peak {
				peak = magnitude[i]
			}
		}
		snap.Bins[b] = float32(peak)
	}
	snap.Block = t.block
	t.block++

	// Dropped when the consumer is behind.
	t.queue.Push(snap)
}

// Snapshots returns the queue the UI thread pops from.
func (t *SpectrumTap) Snapshots() *lockfree.Queue[SpectrumSnapshot] {
	return t.queue
}

// BinFrequency returns the center frequency in Hz of a snapshot bin.
func (t *SpectrumTap) BinFrequency(bin int) float64 {
	group := (t.fftSize/2 + 1) / SnapshotBins
	if group < 1 {
		group = 1
	}
	return float64(bin*group) * t.sampleRate / float64(t.fftSize)
}

// LevelSnapshot is one published meter frame: per-channel block peak with
// decay-held ballistics and block RMS.
type LevelSnapshot struct {
	PeakL, PeakR float32
	RMSL, RMSR   float32
	Block        uint64
}

// LevelTap publishes per-block peak and RMS levels through a wait-free
// queue. The peak falls at a fixed dB-per-second rate between blocks, so
// the meter reads naturally even with short blocks.
type LevelTap struct {
	sampleRate float64
	decayRate  float64 // dB per second

	peakL, peakR float64

	queue *lockfree.Queue[LevelSnapshot]
	block uint64
}

// NewLevelTap creates a level tap with a 20 dB/s peak decay.
func NewLevelTap(sampleRate float64, queueCapacity int) *LevelTap {
	return &LevelTap{
		sampleRate: sampleRate,
		decayRate:  20.0,
		queue:      lockfree.NewQueue[LevelSnapshot](queueCapacity),
	}
}

// SetDecayRate sets the peak fall rate in dB per second.
func (t *LevelTap) SetDecayRate(dbPerSecond float64) {
	t.decayRate = math.Max(0, dbPerSecond)
}

// Process measures one stereo block and publishes a snapshot. Audio thread
// side; no allocations.
func (t *LevelTap) Process(left, right []float32) {
	var blockPeakL, blockPeakR, sumL, sumR float64
	for i := range left {
		l := math.Abs(float64(left[i]))
		r := math.Abs(float64(right[i]))
		if l > blockPeakL {
			blockPeakL = l
		}
		if r > blockPeakR {
			blockPeakR = r
		}
		sumL += float64(left[i]) * float64(left[i])
		sumR += float64(right[i]) * float64(right[i])
	}

	// Let the held peak fall, then catch any new maximum.
	decayPerSample := t.decayRate / t.sampleRate / 20.0 * math.Ln10
	fall := math.Exp(-decayPerSample * float64(len(left)))
	t.peakL *= fall
	t.peakR *= fall
	if blockPeakL > t.peakL {
		t.peakL = blockPeakL
	}
	if blockPeakR > t.peakR {
		t.peakR = blockPeakR
	}

	n := float64(len(left))
	snap := LevelSnapshot{
		PeakL: float32(t.peakL),
		PeakR: float32(t.peakR),
		RMSL:  float32(math.Sqrt(sumL / n)),
		RMSR:  float32(math.Sqrt(sumR / n)),
		Block: t.block,
	}
	t.block++

	t.queue.Push(snap)
}

// Snapshots returns the queue the UI thread pops from.
func (t *LevelTap) Snapshots() *lockfree.Queue[LevelSnapshot] {
	return t.queue
}

// Reset clears the held peaks.
func (t *LevelTap) Reset() {
	t.peakL = 0
	t.peakR = 0
}
