package param

import (
	"math"
)

// SmoothingType selects the smoothing trajectory.
type SmoothingType int

const (
	// LinearSmoothing ramps at a constant step per sample.
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing is a one-pole lag toward the target.
	ExponentialSmoothing
	// LogarithmicSmoothing ramps in log space, natural for frequencies.
	LogarithmicSmoothing
)

// Smoother ramps a control value toward its target to prevent zipper
// noise when parameters change mid-buffer.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64
	threshold     float64
	isSmoothing   bool

	step float64 // linear

	logCurrent float64 // logarithmic
	logTarget  float64
	logStep    float64
}

// NewSmoother creates a smoother. For ExponentialSmoothing rate is the
// pole coefficient (0.9-0.999); for the ramp types it is the ramp length
// in samples.
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     0.0001,
	}
}

// SetTarget sets the value to ramp toward. Targets within the threshold
// of the current one are ignored.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.threshold {
		return
	}

	s.target = target
	s.isSmoothing = true

	switch s.smoothingType {
	case LinearSmoothing:
		if s.rate > 0 {
			s.step = (target - s.current) / s.rate
		}

	case LogarithmicSmoothing:
		const minVal = 0.001
		currentVal := math.Max(s.current, minVal)
		targetVal := math.Max(target, minVal)

		s.logCurrent = math.Log(currentVal)
		s.logTarget = math.Log(targetVal)
		if s.rate > 0 {
			s.logStep = (s.logTarget - s.logCurrent) / s.rate
		}
	}
}

// Next advances the smoother one sample and returns the current value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}

	case LinearSmoothing:
		s.current += s.step
		if (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) {
			s.current = s.target
			s.isSmoothing = false
		}

	case LogarithmicSmoothing:
		s.logCurrent += s.logStep
		if (s.logStep > 0 && s.logCurrent >= s.logTarget) || (s.logStep < 0 && s.logCurrent <= s.logTarget) {
			s.current = s.target
			s.isSmoothing = false
		} else {
			s.current = math.Exp(s.logCurrent)
		}
	}

	return s.current
}

// IsSmoothing reports whether a ramp is in progress.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Reset jumps directly to a value and stops any ramp.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}

// SetRate updates the smoothing rate.
func (s *Smoother) SetRate(rate float64) {
	s.rate = rate
}

// SetThreshold sets the distance at which a ramp snaps to its target.
func (s *Smoother) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// SmoothedParameter pairs a Parameter with a smoother so the audio thread
// reads a ramped plain value instead of the raw atomic one.
type SmoothedParameter struct {
	*Parameter
	smoother *Smoother
	enabled  bool
}

// NewSmoothedParameter wraps a parameter with smoothing.
func NewSmoothedParameter(param *Parameter, smoothingType SmoothingType, rate float64) *SmoothedParameter {
	sp := &SmoothedParameter{
		Parameter: param,
		smoother:  NewSmoother(smoothingType, rate),
		enabled:   true,
	}
	sp.smoother.Reset(param.GetPlainValue())
	return sp
}

// SetValue stores the normalized value and retargets the smoother.
func (sp *SmoothedParameter) SetValue(value float64) {
	sp.Parameter.SetValue(value)
	if sp.enabled {
		sp.smoother.SetTarget(sp.GetPlainValue())
	}
}

// NextPlain advances the ramp one sample and returns the plain value.
func (sp *SmoothedParameter) NextPlain() float64 {
	if sp.enabled {
		return sp.smoother.Next()
	}
	return sp.GetPlainValue()
}

// SetSmoothing enables or disables the ramp. Disabling snaps to the
// current plain value.
func (sp *SmoothedParameter) SetSmoothing(enabled bool) {
	sp.enabled = enabled
	if !enabled {
		sp.smoother.Reset(sp.GetPlainValue())
	}
}

// UpdateSampleRate retunes the ramp for a target time at a sample rate.
func (sp *SmoothedParameter) UpdateSampleRate(sampleRate, targetTimeMs float64) {
	switch sp.smoother.smoothingType {
	case LinearSmoothing, LogarithmicSmoothing:
		sp.smoother.SetRate(sampleRate * targetTimeMs / 1000.0)
	case ExponentialSmoothing:
		// Reaches within -60 dB of the target in targetTimeMs.
		sp.smoother.SetRate(math.Exp(-6.908 / (sampleRate * targetTimeMs / 1000.0)))
	}
}
