package bio

import "math"

// Source selects which biometric signal drives a mapping.
type Source int

const (
	SourceHRV Source = iota
	SourceCoherence
	SourceHeartRate
	SourceBreathPhase
	SourceBreathLFO
	SourceArousal
	SourceRelaxation
	numSources
)

// Curve shapes a normalized source value before it scales a parameter.
type Curve int

const (
	// CurveLinear passes the normalized value through unchanged.
	CurveLinear Curve = iota
	// CurveExponential squares the value, emphasizing the top of the range.
	CurveExponential
	// CurveLogarithmic takes the square root, emphasizing the bottom.
	CurveLogarithmic
	// CurveSCurve applies smoothstep, easing both ends.
	CurveSCurve
	numCurves
)

// Mapping binds one biometric source to one parameter. The source value is
// normalized through [InMin, InMax], shaped by Curve, rescaled into
// [OutMin, OutMax], and applied as relative modulation scaled by Depth.
type Mapping struct {
	Source Source
	Curve  Curve
	InMin  float64
	InMax  float64
	OutMin float64
	OutMax float64
	Depth  float64
}

// Mapper holds the active parameter mappings. It is owned by a single
// goroutine; configure it before processing starts or route edits through
// the owner. It holds no locks.
type Mapper struct {
	mappings map[uint32]Mapping
}

// NewMapper returns an empty Mapper.
func NewMapper() *Mapper {
	return &Mapper{mappings: make(map[uint32]Mapping)}
}

// AddMapping installs a mapping for paramID, replacing any existing one.
// It reports false and installs nothing when the source or curve is
// unknown or the input range is empty. Depth is clamped to -1..1.
func (m *Mapper) AddMapping(paramID uint32, mapping Mapping) bool {
	if mapping.Source < 0 || mapping.Source >= numSources {
		return false
	}
	if mapping.Curve < 0 || mapping.Curve >= numCurves {
		return false
	}
	if mapping.InMax == mapping.InMin {
		return false
	}
	mapping.Depth = clamp(mapping.Depth, -1, 1)
	m.mappings[paramID] = mapping
	return true
}

// RemoveMapping deletes the mapping for paramID, reporting whether one
// existed.
func (m *Mapper) RemoveMapping(paramID uint32) bool {
	if _, ok := m.mappings[paramID]; !ok {
		return false
	}
	delete(m.mappings, paramID)
	return true
}

// MappingFor returns the mapping installed for paramID.
func (m *Mapper) MappingFor(paramID uint32) (Mapping, bool) {
	mp, ok := m.mappings[paramID]
	return mp, ok
}

// Len returns the number of installed mappings.
func (m *Mapper) Len() int {
	return len(m.mappings)
}

// Clear removes every mapping.
func (m *Mapper) Clear() {
	for id := range m.mappings {
		delete(m.mappings, id)
	}
}

// ModulatedValue applies the mapping for paramID to a base parameter value
// in 0..1. With no mapping installed the base passes through unchanged.
// The result is base·(1 + mapped·depth), clamped to 0..1: depth 1 with a
// full-scale source can raise a 0.5 base to at most 1.0, and negative
// depth pulls the parameter down instead.
func (m *Mapper) ModulatedValue(paramID uint32, base float64, s *State) float64 {
	mapping, ok := m.mappings[paramID]
	if !ok {
		return base
	}

	norm := (m.sourceValue(mapping.Source, s) - mapping.InMin) / (mapping.InMax - mapping.InMin)
	norm = clamp(norm, 0, 1)

	shaped := applyCurve(mapping.Curve, norm)
	out := mapping.OutMin + shaped*(mapping.OutMax-mapping.OutMin)

	return clamp(base*(1+out*mapping.Depth), 0, 1)
}

func (m *Mapper) sourceValue(src Source, s *State) float64 {
	switch src {
	case SourceHRV:
		return s.HRV()
	case SourceCoherence:
		return s.Coherence()
	case SourceHeartRate:
		return s.HeartRate()
	case SourceBreathPhase:
		return s.BreathPhase()
	case SourceBreathLFO:
		return s.BreathLFO()
	case SourceArousal:
		return s.Arousal()
	case SourceRelaxation:
		return s.Relaxation()
	}
	return 0
}

func applyCurve(c Curve, v float64) float64 {
	switch c {
	case CurveExponential:
		return v * v
	case CurveLogarithmic:
		return math.Sqrt(v)
	case CurveSCurve:
		return v * v * (3 - 2*v)
	}
	return v
}
