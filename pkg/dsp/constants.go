// Package dsp provides the signal processing building blocks for the
// engine: shared audio constants and allocation-free buffer utilities,
// with the individual processors in subpackages.
package dsp

// Common audio constants used throughout the DSP packages.
const (
	// Gain/Level constants
	MinDB     = -200.0 // Minimum dB value (effectively silence)
	UnityGain = 1.0    // Unity gain (0 dB)

	// Frequency ranges
	MinFrequency = 20.0    // 20 Hz
	MaxFrequency = 20000.0 // 20 kHz

	// Channel counts
	Mono   = 1
	Stereo = 2

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate88k2 = 88200.0
	SampleRate96k  = 96000.0
	SampleRate192k = 192000.0

	// Buffer sizes
	MinBufferSize     = 32
	DefaultBufferSize = 512
	MaxBufferSize     = 8192

	// Phase constants
	TwoPi  = 6.283185307179586
	Pi     = 3.141592653589793
	HalfPi = 1.5707963267948966

	// Small values for comparisons
	Epsilon = 1e-6

	// DenormalThreshold is the magnitude below which recursive filter and
	// delay state is flushed to zero to keep denormals out of feedback
	// paths.
	DenormalThreshold = 1e-30

	// Envelope stage times shorter than this round up (in seconds).
	MinEnvelopeTime = 0.0001

	// Modulation rate range
	MinLFORate = 0.01 // Hz
	MaxLFORate = 20.0 // Hz

	// Clipping thresholds
	ClipThreshold     = 0.999
	SoftClipThreshold = 0.95
)
