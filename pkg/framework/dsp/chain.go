// Package dsp provides processor chaining for building effect racks.
package dsp

// Processor is a mono in-place audio processor.
type Processor interface {
	Process(buffer []float32)
	Reset()
}

// StereoProcessor is a stereo in-place audio processor.
type StereoProcessor interface {
	ProcessStereo(left, right []float32)
	Reset()
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func([]float32)

func (f ProcessorFunc) Process(buffer []float32) { f(buffer) }
func (f ProcessorFunc) Reset()                   {}

// StereoProcessorFunc adapts a function to the StereoProcessor interface.
type StereoProcessorFunc func(left, right []float32)

func (f StereoProcessorFunc) ProcessStereo(left, right []float32) { f(left, right) }
func (f StereoProcessorFunc) Reset()                              {}

// Chain runs processors in series over the same buffer.
type Chain struct {
	processors []Processor
	bypass     bool
}

// NewChain creates an empty serial chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a processor and returns the chain for chaining calls.
func (c *Chain) Add(p Processor) *Chain {
	c.processors = append(c.processors, p)
	return c
}

// Process runs the buffer through every processor in order.
func (c *Chain) Process(buffer []float32) {
	if c.bypass {
		return
	}
	for _, p := range c.processors {
		p.Process(buffer)
	}
}

// Reset resets every processor.
func (c *Chain) Reset() {
	for _, p := range c.processors {
		p.Reset()
	}
}

// SetBypass bypasses the whole chain.
func (c *Chain) SetBypass(bypass bool) {
	c.bypass = bypass
}

// Count returns the number of processors in the chain.
func (c *Chain) Count() int {
	return len(c.processors)
}

// StereoChain runs stereo processors in series.
type StereoChain struct {
	processors []StereoProcessor
	bypass     bool
}

// NewStereoChain creates an empty stereo chain.
func NewStereoChain() *StereoChain {
	return &StereoChain{}
}

// Add appends a processor and returns the chain for chaining calls.
func (c *StereoChain) Add(p StereoProcessor) *StereoChain {
	c.processors = append(c.processors, p)
	return c
}

// ProcessStereo runs both channels through every processor in order.
func (c *StereoChain) ProcessStereo(left, right []float32) {
	if c.bypass {
		return
	}
	for _, p := range c.processors {
		p.ProcessStereo(left, right)
	}
}

// Reset resets every processor.
func (c *StereoChain) Reset() {
	for _, p := range c.processors {
		p.Reset()
	}
}

// SetBypass bypasses the whole chain.
func (c *StereoChain) SetBypass(bypass bool) {
	c.bypass = bypass
}

// Count returns the number of processors in the chain.
func (c *StereoChain) Count() int {
	return len(c.processors)
}

// ParallelChain feeds the same input to several processors and mixes
// their outputs with per-branch gains. Call Prepare before processing;
// after that Process does not allocate.
type ParallelChain struct {
	branches []Processor
	gains    []float32
	scratch  [][]float32
	bypass   bool
}

// NewParallelChain creates an empty parallel chain.
func NewParallelChain() *ParallelChain {
	return &ParallelChain{}
}

// Add appends a branch with its mix gain.
func (p *ParallelChain) Add(branch Processor, gain float32) *ParallelChain {
	p.branches = append(p.branches, branch)
	p.gains = append(p.gains, gain)
	p.scratch = append(p.scratch, nil)
	return p
}

// SetGain changes the mix gain of a branch.
func (p *ParallelChain) SetGain(branch int, gain float32) {
	if branch >= 0 && branch < len(p.gains) {
		p.gains[branch] = gain
	}
}

// Prepare sizes the per-branch scratch buffers for the block size.
func (p *ParallelChain) Prepare(maxSamples int) {
	for i := range p.scratch {
		p.scratch[i] = make([]float32, maxSamples)
	}
}

// Process runs every branch over a copy of the input and sums the
// results back into the buffer.
func (p *ParallelChain) Process(buffer []float32) {
	if p.bypass || len(p.branches) == 0 {
		return
	}

	n := len(buffer)
	for i, branch := range p.branches {
		copy(p.scratch[i][:n], buffer)
		branch.Process(p.scratch[i][:n])
	}

	for i := range buffer {
		var sum float32
		for j := range p.branches {
			sum += p.scratch[j][i] * p.gains[j]
		}
		buffer[i] = sum
	}
}

// Reset resets every branch.
func (p *ParallelChain) Reset() {
	for _, branch := range p.branches {
		branch.Reset()
	}
}

// SetBypass bypasses the whole chain.
func (p *ParallelChain) SetBypass(bypass bool) {
	p.bypass = bypass
}
