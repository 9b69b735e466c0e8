// Package delay provides delay lines and the UltraTap multi-tap delay
// engine built on top of them.
package delay

// Line implements a basic delay line with linear interpolation
type Line struct {
	buffer     []float32
	bufferSize int
	writePos   int
	sampleRate float64
}

// New creates a new delay line with the specified maximum delay time
func New(maxDelaySeconds, sampleRate float64) *Line {
	bufferSize := int(maxDelaySeconds*sampleRate) + 1
	return &Line{
		buffer:     make([]float32, bufferSize),
		bufferSize: bufferSize,
		writePos:   0,
		sampleRate: sampleRate,
	}
}

// Reset clears the delay buffer
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// Size returns the buffer length in samples.
func (d *Line) Size() int {
	return d.bufferSize
}

// Write adds a sample to the delay line
func (d *Line) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= d.bufferSize {
		d.writePos = 0
	}
}

// Read gets a delayed sample (delay in samples)
func (d *Line) Read(delaySamples float64) float32 {
	readPos := float64(d.writePos) - delaySamples
	if readPos < 0 {
		readPos += float64(d.bufferSize)
	}

	// Linear interpolation between the two nearest samples.
	readPosInt := int(readPos)
	frac := float32(readPos - float64(readPosInt))

	s1 := d.buffer[readPosInt]
	s2 := d.buffer[(readPosInt+1)%d.bufferSize]

	return s1*(1.0-frac) + s2*frac
}

// ReadMs gets a delayed sample (delay in milliseconds)
func (d *Line) ReadMs(delayMs float64) float32 {
	delaySamples := delayMs * d.sampleRate / 1000.0
	return d.Read(delaySamples)
}

// Tap reads without writing (for multi-tap delays)
func (d *Line) Tap(delaySamples float64) float32 {
	return d.Read(delaySamples)
}

// Process writes and reads in one operation
func (d *Line) Process(input float32, delaySamples float64) float32 {
	output := d.Read(delaySamples)
	d.Write(input)
	return output
}

// ProcessMs writes and reads with delay in milliseconds
func (d *Line) ProcessMs(input float32, delayMs float64) float32 {
	delaySamples := delayMs * d.sampleRate / 1000.0
	return d.Process(input, delaySamples)
}

// ProcessBuffer processes a buffer with fixed delay - no allocations
func (d *Line) ProcessBuffer(buffer []float32, delaySamples float64) {
	for i := range buffer {
		delayed := d.Read(delaySamples)
		d.Write(buffer[i])
		buffer[i] = delayed
	}
}

// ProcessBufferMix processes with dry/wet mix - no allocations
func (d *Line) ProcessBufferMix(buffer []float32, delaySamples float64, mix float32) {
	dryGain := 1.0 - mix
	for i := range buffer {
		dry := buffer[i]
		wet := d.Process(dry, delaySamples)
		buffer[i] = dry*dryGain + wet*mix
	}
}

// AllpassDelay implements an allpass delay for diffusion stages
type AllpassDelay struct {
	Line
	feedback float32
}

// NewAllpass creates a new allpass delay
func NewAllpass(maxDelaySeconds, sampleRate float64) *AllpassDelay {
	return &AllpassDelay{
		Line:     *New(maxDelaySeconds, sampleRate),
		feedback: 0.5,
	}
}

// SetFeedback sets the allpass feedback coefficient
func (a *AllpassDelay) SetFeedback(feedback float32) {
	a.feedback = feedback
}

// Process runs the allpass filter
func (a *AllpassDelay) Process(input float32, delaySamples float64) float32 {
	delayed := a.Read(delaySamples)
	output := -input + delayed
	a.Write(input + delayed*a.feedback)
	return output
}

// ProcessBuffer processes a buffer through the allpass - no allocations
func (a *AllpassDelay) ProcessBuffer(buffer []float32, delaySamples float64) {
	for i := range buffer {
		buffer[i] = a.Process(buffer[i], delaySamples)
	}
}

// CombDelay implements a comb filter delay
type CombDelay struct {
	Line
	feedback float32
	damp     float32
	dampVal  float32
}

// NewComb creates a new comb filter delay
func NewComb(maxDelaySeconds, sampleRate float64) *CombDelay {
	return &CombDelay{
		Line:     *New(maxDelaySeconds, sampleRate),
		feedback: 0.5,
		damp:     0.5,
		dampVal:  0.0,
	}
}

// SetFeedback sets the comb feedback
func (c *CombDelay) SetFeedback(feedback float32) {
	c.feedback = feedback
}

// SetDamp sets the damping factor (0=no damping, 1=full damping)
func (c *CombDelay) SetDamp(damp float32) {
	c.damp = damp
}

// Process runs the comb filter
func (c *CombDelay) Process(input float32, delaySamples float64) float32 {
	output := c.Read(delaySamples)

	// One-pole lowpass in the feedback path.
	c.dampVal = output*(1.0-c.damp) + c.dampVal*c.damp

	c.Write(input + c.dampVal*c.feedback)

	return output
}

// ProcessBuffer processes a buffer through the comb - no allocations
func (c *CombDelay) ProcessBuffer(buffer []float32, delaySamples float64) {
	for i := range buffer {
		buffer[i] = c.Process(buffer[i], delaySamples)
	}
}
