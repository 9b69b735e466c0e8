// Package analysis provides the spectral and metering tools the engine
// publishes to non-audio threads.
//
// FFT and spectral features:
//   - Radix-2 FFT with precomputed twiddle and bit-reversal tables and a
//     set of analysis/synthesis windows (Hann, SqrtHann, Hamming, Blackman)
//   - Spectral centroid, flatness, fundamental estimation and formant
//     peak finding over a magnitude spectrum
//
// Thread-crossing taps:
//   - SpectrumTap folds full FFT frames down to fixed-size snapshots and
//     publishes them through a wait-free queue
//   - LevelTap publishes per-block peak (with dB/s decay ballistics) and
//     RMS the same way
//
// The taps never block and never allocate on the audio side; when the
// consumer falls behind, frames are dropped.
package analysis
