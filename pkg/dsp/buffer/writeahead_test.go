package buffer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAheadSizing(t *testing.T) {
	b := NewWriteAheadBuffer(44100, 2)

	expected := uint32(math.Round(50.0*44100/1000.0)) * 2
	assert.Equal(t, expected, b.LatencySamples())
	assert.Zero(t, b.size&(b.size-1), "ring size is a power of two")
	assert.GreaterOrEqual(t, b.size, b.latencySamples*4)
	assert.Equal(t, uint64(b.latencySamples), b.writePos.Load(),
		"writer starts a full gap ahead")
}

func TestWriteAheadReadLagsWriter(t *testing.T) {
	b := NewWriteAheadBuffer(44100, 1)
	gap := int(b.LatencySamples())

	payload := []float32{1, 2, 3, 4, 5}
	require.NoError(t, b.Write(payload))

	// The first gap's worth of output is the silence pre-loaded in the
	// ring; the payload arrives right after it.
	out := make([]float32, gap+len(payload))
	n := b.Read(out)
	require.Equal(t, len(out), n)

	for i := 0; i < gap; i++ {
		require.Zero(t, out[i])
	}
	assert.Equal(t, payload, out[gap:])
}

func TestWriteAheadWrapAround(t *testing.T) {
	b := NewWriteAheadBuffer(1000, 1)

	chunk := make([]float32, 64)
	out := make([]float32, 64)
	for round := 0; round < int(b.size)/32; round++ {
		for i := range chunk {
			chunk[i] = float32(round*64 + i)
		}
		require.NoError(t, b.Write(chunk))
		b.Read(out)
	}

	assert.Zero(t, b.Stats().Overruns)
}

func TestWriteAheadOverrun(t *testing.T) {
	b := NewWriteAheadBuffer(1000, 1)

	tooMuch := make([]float32, b.size+1)
	err := b.Write(tooMuch)
	assert.ErrorIs(t, err, ErrOverrun)
	assert.Equal(t, uint64(1), b.Stats().Overruns)
}

func TestWriteAheadUnderrunZeroPads(t *testing.T) {
	b := NewWriteAheadBuffer(44100, 1)

	out := make([]float32, b.LatencySamples()*2)
	n := b.Read(out)

	assert.Less(t, n, len(out))
	assert.Greater(t, b.Stats().Underruns, uint64(0))
	for _, v := range out[n:] {
		require.Zero(t, v)
	}
}

func TestWriteAheadMaintainsDistance(t *testing.T) {
	b := NewWriteAheadBuffer(44100, 1)

	data := make([]float32, b.LatencySamples()+1000)
	require.NoError(t, b.Write(data))

	// Force the reader too close to the writer.
	b.readPos.Store(b.writePos.Load() - 100)

	out := make([]float32, 10)
	n := b.Read(out)

	stats := b.Stats()
	assert.Greater(t, stats.Adjustments, uint64(0))

	gap := b.writePos.Load() - b.readPos.Load()
	assert.Equal(t, uint64(b.LatencySamples())-uint64(n), gap)
}

func TestWriteAheadLatencyReporting(t *testing.T) {
	b := NewWriteAheadBuffer(48000, 2)

	assert.InDelta(t, float64(50*time.Millisecond), float64(b.Latency()),
		float64(100*time.Microsecond))

	stats := b.Stats()
	assert.Greater(t, stats.FillPercentage, float32(0))
}

func TestWriteAheadReset(t *testing.T) {
	b := NewWriteAheadBuffer(44100, 1)

	b.Write(make([]float32, 1000))
	b.Read(make([]float32, 2000))
	b.Write(make([]float32, b.size+1))

	b.Reset()

	stats := b.Stats()
	assert.Zero(t, stats.Underruns)
	assert.Zero(t, stats.Overruns)
	assert.Zero(t, stats.Adjustments)
	assert.Equal(t, uint64(0), b.readPos.Load())
	assert.Equal(t, uint64(b.latencySamples), b.writePos.Load())
	for _, v := range b.data {
		require.Zero(t, v)
	}
}

// Producer stall shorter than the write-ahead gap must not corrupt the
// sample stream, only play out ring contents.
func TestWriteAheadAbsorbsProducerStall(t *testing.T) {
	b := NewWriteAheadBuffer(8000, 1)
	gap := int(b.LatencySamples())

	seq := float32(1)
	writeBlock := func(n int) {
		block := make([]float32, n)
		for i := range block {
			block[i] = seq
			seq++
		}
		require.NoError(t, b.Write(block))
	}

	writeBlock(gap) // keep the writer a full gap ahead

	out := make([]float32, 128)
	var last float32
	checkContinuity := func(n int) {
		for i := 0; i < n; i++ {
			if out[i] == 0 {
				continue
			}
			if last != 0 {
				require.Equal(t, last+1, out[i], "sequence gap")
			}
			last = out[i]
		}
	}

	for round := 0; round < 15; round++ {
		// Simulate a stalled producer on some rounds; the reader keeps
		// draining what was written ahead.
		if round%5 != 4 {
			writeBlock(128)
		}
		n := b.Read(out)
		checkContinuity(n)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint32]uint32{
		0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 16: 16, 17: 32, 1000: 1024,
	}
	for in, want := range cases {
		assert.Equal(t, want, nextPowerOfTwo(in), "input %d", in)
	}
}

func BenchmarkWriteAheadRoundTrip(b *testing.B) {
	buf := NewWriteAheadBuffer(44100, 2)
	data := make([]float32, 512)
	out := make([]float32, 512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := buf.Write(data); err != nil {
			buf.Read(out)
		}
		if i%4 == 0 {
			buf.Read(out)
		}
	}
}
