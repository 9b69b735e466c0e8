package bio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearMapping(src Source, depth float64) Mapping {
	return Mapping{
		Source: src,
		Curve:  CurveLinear,
		InMin:  0, InMax: 1,
		OutMin: 0, OutMax: 1,
		Depth: depth,
	}
}

// TestMapperAddRemove verifies mapping installation and removal.
func TestMapperAddRemove(t *testing.T) {
	m := NewMapper()

	assert.True(t, m.AddMapping(1, linearMapping(SourceCoherence, 1.0)))
	assert.Equal(t, 1, m.Len())

	mp, ok := m.MappingFor(1)
	require.True(t, ok)
	assert.Equal(t, SourceCoherence, mp.Source)

	assert.True(t, m.RemoveMapping(1))
	assert.False(t, m.RemoveMapping(1), "second remove finds nothing")
	assert.Equal(t, 0, m.Len())
}

// TestMapperRejectsInvalid verifies bad mappings are refused.
func TestMapperRejectsInvalid(t *testing.T) {
	m := NewMapper()

	bad := linearMapping(SourceHRV, 1.0)
	bad.Source = Source(99)
	assert.False(t, m.AddMapping(1, bad))

	bad = linearMapping(SourceHRV, 1.0)
	bad.Curve = Curve(99)
	assert.False(t, m.AddMapping(1, bad))

	bad = linearMapping(SourceHRV, 1.0)
	bad.InMax = bad.InMin
	assert.False(t, m.AddMapping(1, bad))

	assert.Equal(t, 0, m.Len())
}

// TestMapperModulatedValue verifies the reference point: coherence 0.5
// through a full-range linear mapping at depth 1 lifts a 0.5 base to 0.75.
func TestMapperModulatedValue(t *testing.T) {
	m := NewMapper()
	s := NewState()
	s.SetCoherence(0.5)

	require.True(t, m.AddMapping(1, linearMapping(SourceCoherence, 1.0)))

	// 0.5 * (1 + 0.5*1.0) = 0.75
	got := m.ModulatedValue(1, 0.5, s)
	assert.InDelta(t, 0.75, got, 1e-9)
}

// TestMapperUnmappedPassthrough verifies an unmapped id leaves the base
// value untouched.
func TestMapperUnmappedPassthrough(t *testing.T) {
	m := NewMapper()
	s := NewState()

	assert.InDelta(t, 0.42, m.ModulatedValue(7, 0.42, s), 1e-9)
}

// TestMapperDepth verifies depth scaling and negative depth.
func TestMapperDepth(t *testing.T) {
	m := NewMapper()
	s := NewState()
	s.SetCoherence(1.0)

	require.True(t, m.AddMapping(1, linearMapping(SourceCoherence, 0.5)))
	// 0.5 * (1 + 1.0*0.5) = 0.75
	assert.InDelta(t, 0.75, m.ModulatedValue(1, 0.5, s), 1e-9)

	require.True(t, m.AddMapping(1, linearMapping(SourceCoherence, -1.0)))
	// 0.5 * (1 - 1.0) = 0
	assert.InDelta(t, 0.0, m.ModulatedValue(1, 0.5, s), 1e-9)
}

// TestMapperClampsResult verifies the modulated value never leaves 0..1.
func TestMapperClampsResult(t *testing.T) {
	m := NewMapper()
	s := NewState()
	s.SetCoherence(1.0)

	require.True(t, m.AddMapping(1, linearMapping(SourceCoherence, 1.0)))
	assert.InDelta(t, 1.0, m.ModulatedValue(1, 0.9, s), 1e-9, "0.9*(1+1) clamps to 1")
}

// TestMapperInputRange verifies source normalization through a non-unit
// input range.
func TestMapperInputRange(t *testing.T) {
	m := NewMapper()
	s := NewState()
	s.SetHeartRate(120)

	mp := Mapping{
		Source: SourceHeartRate,
		Curve:  CurveLinear,
		InMin:  40, InMax: 200,
		OutMin: 0, OutMax: 1,
		Depth: 1.0,
	}
	require.True(t, m.AddMapping(2, mp))

	// (120-40)/160 = 0.5 -> 0.5*(1+0.5) = 0.75
	assert.InDelta(t, 0.75, m.ModulatedValue(2, 0.5, s), 1e-9)
}

// TestMapperCurves verifies each curve shape at the midpoint.
func TestMapperCurves(t *testing.T) {
	s := NewState()
	s.SetHRV(0.5)

	cases := []struct {
		name  string
		curve Curve
		want  float64 // 0.5 * (1 + shaped(0.5))
	}{
		{"linear", CurveLinear, 0.5 * (1 + 0.5)},
		{"exponential", CurveExponential, 0.5 * (1 + 0.25)},
		{"logarithmic", CurveLogarithmic, 0.5 * (1 + 0.7071067811865476)},
		{"scurve", CurveSCurve, 0.5 * (1 + 0.5)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMapper()
			mp := linearMapping(SourceHRV, 1.0)
			mp.Curve = tc.curve
			require.True(t, m.AddMapping(1, mp))
			assert.InDelta(t, tc.want, m.ModulatedValue(1, 0.5, s), 1e-9)
		})
	}
}

// TestMapperClear verifies Clear drops every mapping.
func TestMapperClear(t *testing.T) {
	m := NewMapper()
	m.AddMapping(1, linearMapping(SourceHRV, 1))
	m.AddMapping(2, linearMapping(SourceBreathLFO, 1))

	m.Clear()
	assert.Equal(t, 0, m.Len())

	s := NewState()
	assert.InDelta(t, 0.3, m.ModulatedValue(1, 0.3, s), 1e-9)
}
