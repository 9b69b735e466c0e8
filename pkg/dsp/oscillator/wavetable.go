package oscillator

import (
	"math"

	"github.com/vibrationalforce/echoelcore/pkg/dsp/interpolation"
)

const (
	// FrameSize is the number of samples in one wavetable frame.
	FrameSize = 2048
	// MaxFrames is the most frames a wavetable can hold.
	MaxFrames = 256

	frameMask = FrameSize - 1
)

// Wavetable holds a bank of single-cycle frames that an oscillator can
// morph across.
type Wavetable struct {
	frames [][]float32
}

// NewWavetable returns an empty wavetable.
func NewWavetable() *Wavetable {
	return &Wavetable{}
}

// AddFrame appends a frame. It reports false when the frame is not
// exactly FrameSize samples or the table is full. The samples are copied.
func (w *Wavetable) AddFrame(samples []float32) bool {
	if len(samples) != FrameSize || len(w.frames) >= MaxFrames {
		return false
	}
	frame := make([]float32, FrameSize)
	copy(frame, samples)
	w.frames = append(w.frames, frame)
	return true
}

// NumFrames returns the number of frames in the table.
func (w *Wavetable) NumFrames() int {
	return len(w.frames)
}

// Frame returns the frame at index i, or nil when out of range.
func (w *Wavetable) Frame(i int) []float32 {
	if i < 0 || i >= len(w.frames) {
		return nil
	}
	return w.frames[i]
}

// WavetableOscillator plays a Wavetable with bilinear interpolation:
// linear between adjacent samples within a frame, and linear between
// adjacent frames along the morph axis.
type WavetableOscillator struct {
	table      *Wavetable
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
	morph      float64
}

// NewWavetableOscillator creates an oscillator over the given table,
// defaulting to 440 Hz with the morph at frame 0.
func NewWavetableOscillator(sampleRate float64, table *Wavetable) *WavetableOscillator {
	return &WavetableOscillator{
		table:      table,
		sampleRate: sampleRate,
		frequency:  440.0,
		phaseInc:   440.0 / sampleRate,
	}
}

// SetTable swaps the wavetable. A nil table silences the oscillator.
func (w *WavetableOscillator) SetTable(table *Wavetable) {
	w.table = table
}

// SetFrequency sets the playback frequency in Hz.
func (w *WavetableOscillator) SetFrequency(freq float64) {
	nyquist := w.sampleRate * 0.5
	if freq < 0 {
		freq = 0
	} else if freq > nyquist {
		freq = nyquist
	}
	w.frequency = freq
	w.phaseInc = freq / w.sampleRate
}

// SetMorph sets the frame-morph position, clamped to 0..1. 0 plays the
// first frame, 1 the last, with crossfades in between.
func (w *WavetableOscillator) SetMorph(morph float64) {
	if morph < 0 {
		morph = 0
	} else if morph > 1 {
		morph = 1
	}
	w.morph = morph
}

// Reset resets the phase to 0.
func (w *WavetableOscillator) Reset() {
	w.phase = 0
}

// Next generates one sample.
func (w *WavetableOscillator) Next() float32 {
	if w.table == nil || len(w.table.frames) == 0 {
		return 0
	}
	frames := w.table.frames

	pos := w.phase * FrameSize
	i0 := int(pos)
	sampleFrac := float32(pos - float64(i0))
	i0 &= frameMask
	i1 := (i0 + 1) & frameMask

	framePos := w.morph * float64(len(frames)-1)
	f0 := int(framePos)
	frameFrac := float32(framePos - float64(f0))
	f1 := f0 + 1
	if f1 >= len(frames) {
		f1 = len(frames) - 1
	}

	a := interpolation.Linear(frames[f0][i0], frames[f0][i1], sampleFrac)
	b := interpolation.Linear(frames[f1][i0], frames[f1][i1], sampleFrac)
	sample := interpolation.Linear(a, b, frameFrac)

	w.phase += w.phaseInc
	if w.phase >= 1.0 {
		w.phase -= math.Floor(w.phase)
	}
	return sample
}

// Process fills buffer - no allocations.
func (w *WavetableOscillator) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = w.Next()
	}
}

// normalizeFrame scales a frame to a ±1 peak.
func normalizeFrame(frame []float32) {
	peak := float32(0)
	for _, v := range frame {
		if v > peak {
			peak = v
		} else if -v > peak {
			peak = -v
		}
	}
	if peak > 0 {
		inv := 1.0 / peak
		for i := range frame {
			frame[i] *= inv
		}
	}
}

func clampFrameCount(n int) int {
	if n < 2 {
		return 2
	}
	if n > MaxFrames {
		return MaxFrames
	}
	return n
}

// NewSineSawBank builds a table morphing from a pure sine to a bright saw
// by raising the harmonic count frame by frame.
func NewSineSawBank(numFrames int) *Wavetable {
	numFrames = clampFrameCount(numFrames)
	w := NewWavetable()
	frame := make([]float32, FrameSize)

	for f := 0; f < numFrames; f++ {
		t := float64(f) / float64(numFrames-1)
		harmonics := 1 + int(t*t*63)

		for i := range frame {
			x := float64(i) / FrameSize
			sum := 0.0
			for h := 1; h <= harmonics; h++ {
				sum += math.Sin(2*math.Pi*float64(h)*x) / float64(h)
			}
			frame[i] = float32(sum)
		}
		normalizeFrame(frame)
		w.AddFrame(frame)
	}
	return w
}

// NewPWMBank builds a table of pulse waves narrowing from a square to a
// 5% sliver.
func NewPWMBank(numFrames int) *Wavetable {
	numFrames = clampFrameCount(numFrames)
	w := NewWavetable()
	frame := make([]float32, FrameSize)

	for f := 0; f < numFrames; f++ {
		t := float64(f) / float64(numFrames-1)
		width := 0.5 - t*0.45

		for i := range frame {
			x := float64(i) / FrameSize
			if x < width {
				frame[i] = 1
			} else {
				frame[i] = -1
			}
		}
		w.AddFrame(frame)
	}
	return w
}

// NewBitcrushBank builds a table of sines quantized to fewer and fewer
// levels, from clean to 2-bit.
func NewBitcrushBank(numFrames int) *Wavetable {
	numFrames = clampFrameCount(numFrames)
	w := NewWavetable()
	frame := make([]float32, FrameSize)

	for f := 0; f < numFrames; f++ {
		t := float64(f) / float64(numFrames-1)
		bits := 16.0 - t*14.0
		levels := math.Pow(2, bits)

		for i := range frame {
			x := float64(i) / FrameSize
			v := math.Sin(2 * math.Pi * x)
			frame[i] = float32(math.Floor(v*levels) / levels)
		}
		normalizeFrame(frame)
		w.AddFrame(frame)
	}
	return w
}

// Formant centers in harmonic numbers for the vocal bank endpoints,
// roughly "ah" morphing to "oo" at a 100 Hz fundamental.
var (
	vowelAFormants = [3]float64{8, 12, 24}
	vowelOFormants = [3]float64{4, 8, 22}
)

// NewVocalBank builds a table whose harmonic envelope slides between two
// vowel formant sets.
func NewVocalBank(numFrames int) *Wavetable {
	numFrames = clampFrameCount(numFrames)
	w := NewWavetable()
	frame := make([]float32, FrameSize)
	const harmonics = 32

	for f := 0; f < numFrames; f++ {
		t := float64(f) / float64(numFrames-1)

		var amps [harmonics + 1]float64
		for h := 1; h <= harmonics; h++ {
			for k := 0; k < 3; k++ {
				center := vowelAFormants[k] + t*(vowelOFormants[k]-vowelAFormants[k])
				width := 1.5 + float64(k)
				d := (float64(h) - center) / width
				amps[h] += math.Exp(-0.5 * d * d)
			}
		}

		for i := range frame {
			x := float64(i) / FrameSize
			sum := 0.0
			for h := 1; h <= harmonics; h++ {
				sum += amps[h] * math.Sin(2*math.Pi*float64(h)*x)
			}
			frame[i] = float32(sum)
		}
		normalizeFrame(frame)
		w.AddFrame(frame)
	}
	return w
}

// NewAdditiveBank builds a table fading the even harmonics in against a
// fixed odd-harmonic bed, moving from hollow to full.
func NewAdditiveBank(numFrames int) *Wavetable {
	numFrames = clampFrameCount(numFrames)
	w := NewWavetable()
	frame := make([]float32, FrameSize)
	const harmonics = 16

	for f := 0; f < numFrames; f++ {
		t := float64(f) / float64(numFrames-1)

		for i := range frame {
			x := float64(i) / FrameSize
			sum := 0.0
			for h := 1; h <= harmonics; h++ {
				amp := 1.0 / float64(h)
				if h%2 == 0 {
					amp *= t
				}
				sum += amp * math.Sin(2*math.Pi*float64(h)*x)
			}
			frame[i] = float32(sum)
		}
		normalizeFrame(frame)
		w.AddFrame(frame)
	}
	return w
}
