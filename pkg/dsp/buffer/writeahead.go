// Package buffer provides the write-ahead ring that decouples the render
// thread from the audio device callback.
package buffer

import (
	"errors"
	"math"
	"sync/atomic"
	"time"
)

// defaultLatencyMs is the enforced write-ahead distance. Half of it is
// headroom for a worst-case GC pause.
const defaultLatencyMs = 50.0

// ErrOverrun is returned by Write when the ring has no room.
var ErrOverrun = errors.New("buffer: overrun, not enough space")

// WriteAheadBuffer is a lock-free ring for interleaved float32 audio that
// keeps the reader a fixed distance behind the writer. The gap absorbs
// scheduling jitter and GC pauses on the producer side: if the reader
// catches up it is moved back to the full distance, replaying ring
// contents instead of tearing.
//
// One writer and one reader. Positions only grow; indices wrap via mask.
type WriteAheadBuffer struct {
	data           []float32
	readPos        atomic.Uint64
	writePos       atomic.Uint64
	size           uint32
	mask           uint32
	latencySamples uint32
	sampleRate     float64
	channels       int

	underruns   atomic.Uint64
	overruns    atomic.Uint64
	adjustments atomic.Uint64
}

// Stats reports ring health for monitoring.
type Stats struct {
	Underruns      uint64
	Overruns       uint64
	Adjustments    uint64
	FillPercentage float32
	CurrentLatency time.Duration
}

// NewWriteAheadBuffer creates a ring sized for the sample rate and channel
// count with a 50 ms write-ahead distance. The ring itself is 4x that,
// rounded up to a power of two.
func NewWriteAheadBuffer(sampleRate float64, channels int) *WriteAheadBuffer {
	framesAhead := uint32(math.Round(defaultLatencyMs * sampleRate / 1000.0))
	latencySamples := framesAhead * uint32(channels)

	size := nextPowerOfTwo(latencySamples * 4)

	b := &WriteAheadBuffer{
		data:           make([]float32, size),
		size:           size,
		mask:           size - 1,
		latencySamples: latencySamples,
		sampleRate:     sampleRate,
		channels:       channels,
	}
	b.writePos.Store(uint64(latencySamples))
	return b
}

// LatencySamples returns the enforced write-ahead distance in samples.
func (b *WriteAheadBuffer) LatencySamples() uint32 {
	return b.latencySamples
}

// Write appends samples to the ring. It fails whole, never partially.
func (b *WriteAheadBuffer) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	writePos := b.writePos.Load()
	readPos := b.readPos.Load()

	if b.space(readPos, writePos) < uint32(len(samples)) {
		b.overruns.Add(1)
		return ErrOverrun
	}

	remaining := len(samples)
	src := 0
	for remaining > 0 {
		dst := uint32(writePos) & b.mask
		n := remaining
		if dst+uint32(n) > b.size {
			n = int(b.size - dst)
		}
		copy(b.data[dst:dst+uint32(n)], samples[src:src+n])
		src += n
		remaining -= n
		writePos += uint64(n)
	}

	b.writePos.Store(writePos)
	return nil
}

// Read fills output from the ring, zero-padding past whatever is
// available, and returns the number of real samples copied. The reader
// is first pushed back to the write-ahead distance if it got too close.
func (b *WriteAheadBuffer) Read(output []float32) int {
	if len(output) == 0 {
		return 0
	}

	b.maintainDistance()

	readPos := b.readPos.Load()
	writePos := b.writePos.Load()

	toRead := len(output)
	if avail := b.available(readPos, writePos); avail < uint32(toRead) {
		toRead = int(avail)
		b.underruns.Add(1)
	}

	remaining := toRead
	dst := 0
	for remaining > 0 {
		src := uint32(readPos) & b.mask
		n := remaining
		if src+uint32(n) > b.size {
			n = int(b.size - src)
		}
		copy(output[dst:dst+n], b.data[src:src+uint32(n)])
		dst += n
		remaining -= n
		readPos += uint64(n)
	}

	b.readPos.Store(readPos)

	for i := toRead; i < len(output); i++ {
		output[i] = 0
	}
	return toRead
}

// maintainDistance pushes the read position back when the gap to the
// writer shrinks below the write-ahead distance.
func (b *WriteAheadBuffer) maintainDistance() {
	for {
		readPos := b.readPos.Load()
		writePos := b.writePos.Load()

		if writePos-readPos >= uint64(b.latencySamples) {
			return
		}

		if b.readPos.CompareAndSwap(readPos, writePos-uint64(b.latencySamples)) {
			b.adjustments.Add(1)
			return
		}
	}
}

// Stats returns a snapshot of ring health.
func (b *WriteAheadBuffer) Stats() Stats {
	readPos := b.readPos.Load()
	writePos := b.writePos.Load()

	avail := b.available(readPos, writePos)
	frames := float64(writePos-readPos) / float64(b.channels)

	return Stats{
		Underruns:      b.underruns.Load(),
		Overruns:       b.overruns.Load(),
		Adjustments:    b.adjustments.Load(),
		FillPercentage: float32(avail) / float32(b.size) * 100.0,
		CurrentLatency: time.Duration(frames / b.sampleRate * float64(time.Second)),
	}
}

// Latency returns the current distance between writer and reader.
func (b *WriteAheadBuffer) Latency() time.Duration {
	frames := float64(b.writePos.Load()-b.readPos.Load()) / float64(b.channels)
	return time.Duration(frames / b.sampleRate * float64(time.Second))
}

// Reset clears the ring and restores the initial write-ahead gap.
func (b *WriteAheadBuffer) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.readPos.Store(0)
	b.writePos.Store(uint64(b.latencySamples))
	b.underruns.Store(0)
	b.overruns.Store(0)
	b.adjustments.Store(0)
}

func (b *WriteAheadBuffer) space(readPos, writePos uint64) uint32 {
	used := writePos - readPos
	if used >= uint64(b.size) {
		return 0
	}
	return b.size - uint32(used)
}

func (b *WriteAheadBuffer) available(readPos, writePos uint64) uint32 {
	if writePos < readPos {
		return 0
	}
	avail := writePos - readPos
	if avail > uint64(b.size) {
		return b.size
	}
	return uint32(avail)
}

func nextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
