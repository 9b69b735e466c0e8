package oscillator

// superSawVoices is the number of stacked saws. Detune offsets run
// symmetrically from -3 to +3 around the center voice.
const superSawVoices = 7

// SuperSaw stacks seven detuned PolyBLEP saws into one thick voice.
type SuperSaw struct {
	sampleRate float64
	frequency  float64
	detune     float64
	phases     [superSawVoices]float64
	phaseIncs  [superSawVoices]float64
}

// NewSuperSaw creates a supersaw at the given sample rate, defaulting to
// 440 Hz with no detune.
func NewSuperSaw(sampleRate float64) *SuperSaw {
	s := &SuperSaw{
		sampleRate: sampleRate,
		frequency:  440.0,
	}
	s.Reset()
	s.updateIncrements()
	return s
}

// SetFrequency sets the center frequency in Hz.
func (s *SuperSaw) SetFrequency(freq float64) {
	nyquist := s.sampleRate * 0.5
	if freq < 0 {
		freq = 0
	} else if freq > nyquist {
		freq = nyquist
	}
	s.frequency = freq
	s.updateIncrements()
}

// SetDetune sets the detune amount, clamped to 0..1. At 1 the outer
// voices sit 3% away from the center frequency.
func (s *SuperSaw) SetDetune(amount float64) {
	if amount < 0 {
		amount = 0
	} else if amount > 1 {
		amount = 1
	}
	s.detune = amount
	s.updateIncrements()
}

// Reset zeroes every voice phase. With zero detune the aligned stack
// collapses to a single saw; any detune spreads the voices apart within a
// few cycles.
func (s *SuperSaw) Reset() {
	for i := range s.phases {
		s.phases[i] = 0
	}
}

func (s *SuperSaw) updateIncrements() {
	for i := 0; i < superSawVoices; i++ {
		offset := float64(i - superSawVoices/2)
		detuned := s.frequency * (1.0 + offset*0.01*s.detune)
		if detuned < 0 {
			detuned = 0
		}
		s.phaseIncs[i] = detuned / s.sampleRate
	}
}

// Next generates one sample: the average of the seven corrected saws.
func (s *SuperSaw) Next() float32 {
	sum := 0.0
	for i := 0; i < superSawVoices; i++ {
		t := s.phases[i]
		dt := s.phaseIncs[i]
		sum += 2.0*t - 1.0 - polyBLEP(t, dt)

		t += dt
		if t >= 1.0 {
			t -= 1.0
		}
		s.phases[i] = t
	}
	return float32(sum / superSawVoices)
}

// Process fills buffer - no allocations.
func (s *SuperSaw) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = s.Next()
	}
}
