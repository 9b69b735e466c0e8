// Package process provides the audio processing context the engine and
// effects render into.
package process

import (
	"github.com/vibrationalforce/echoelcore/pkg/framework/param"
)

// Context carries one block's buffers and parameter access. All buffers
// are pre-allocated in NewContext, so a render call makes no allocations.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	workBuffer []float32
	tempBuffer []float32

	params *param.Registry
}

// NewContext creates a context with work buffers sized for maxBlockSize.
func NewContext(maxBlockSize int, params *param.Registry) *Context {
	return &Context{
		workBuffer: make([]float32, maxBlockSize),
		tempBuffer: make([]float32, maxBlockSize),
		params:     params,
	}
}

// Param returns the normalized value (0-1) of a parameter, 0 when absent.
func (c *Context) Param(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the plain value of a parameter, 0 when absent.
func (c *Context) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// Params returns the backing registry.
func (c *Context) Params() *param.Registry {
	return c.params
}

// NumSamples returns the block length.
func (c *Context) NumSamples() int {
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels.
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels.
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns the pre-allocated scratch buffer sliced to the
// current block length. No allocation.
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.NumSamples()]
}

// TempBuffer returns the second scratch buffer sliced the same way.
func (c *Context) TempBuffer() []float32 {
	return c.tempBuffer[:c.NumSamples()]
}

// PassThrough copies input to output, for bypass.
func (c *Context) PassThrough() {
	numChannels := c.NumInputChannels()
	if c.NumOutputChannels() < numChannels {
		numChannels = c.NumOutputChannels()
	}
	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers.
func (c *Context) Clear() {
	for ch := range c.Output {
		for i := range c.Output[ch] {
			c.Output[ch][i] = 0
		}
	}
}
