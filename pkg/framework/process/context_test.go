package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibrationalforce/echoelcore/pkg/framework/param"
)

func newTestContext(blockSize int) *Context {
	r := param.NewRegistry()
	r.Add(param.New(1, "Cutoff").Range(20, 20000).Default(1000).Build())

	ctx := NewContext(512, r)
	ctx.SampleRate = 48000
	ctx.Input = [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	ctx.Output = [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	return ctx
}

func TestContextGeometry(t *testing.T) {
	ctx := newTestContext(128)
	assert.Equal(t, 128, ctx.NumSamples())
	assert.Equal(t, 2, ctx.NumInputChannels())
	assert.Equal(t, 2, ctx.NumOutputChannels())
}

func TestContextParamAccess(t *testing.T) {
	ctx := newTestContext(64)

	assert.InDelta(t, 1000.0, ctx.ParamPlain(1), 1e-9)
	assert.InDelta(t, ctx.Params().Get(1).GetValue(), ctx.Param(1), 1e-12)

	assert.Zero(t, ctx.Param(99), "unknown parameter reads zero")
	assert.Zero(t, ctx.ParamPlain(99))
}

func TestContextWorkBuffersTrackBlockSize(t *testing.T) {
	ctx := newTestContext(64)

	require.Len(t, ctx.WorkBuffer(), 64)
	require.Len(t, ctx.TempBuffer(), 64)

	// Shrinking the block shrinks the view without reallocating.
	ctx.Output = [][]float32{make([]float32, 32), make([]float32, 32)}
	ctx.Input = ctx.Output
	assert.Len(t, ctx.WorkBuffer(), 32)
}

func TestContextPassThroughAndClear(t *testing.T) {
	ctx := newTestContext(16)
	for i := range ctx.Input[0] {
		ctx.Input[0][i] = float32(i)
		ctx.Input[1][i] = -float32(i)
	}

	ctx.PassThrough()
	assert.Equal(t, ctx.Input[0], ctx.Output[0])
	assert.Equal(t, ctx.Input[1], ctx.Output[1])

	ctx.Clear()
	for ch := range ctx.Output {
		for i := range ctx.Output[ch] {
			require.Zero(t, ctx.Output[ch][i])
		}
	}
}
