// Package bio holds the shared biometric state and the mapping layer that
// turns sensor readings into parameter modulation.
//
// State is written by a sensor goroutine and read by the audio goroutine.
// Every field is an independent atomic, so readers never block and writers
// never wait; there is no cross-field snapshot. A monotonic update counter
// lets a consumer detect that a fresh batch of readings arrived.
package bio

import (
	"math"
	"sync/atomic"
	"time"
)

// Physiological ranges. Setters clamp to these silently.
const (
	MinHeartRate  = 40.0  // BPM
	MaxHeartRate  = 200.0 // BPM
	MinBreathRate = 4.0   // breaths per minute
	MaxBreathRate = 30.0  // breaths per minute
	MinSkinTemp   = 20.0  // °C
	MaxSkinTemp   = 45.0  // °C
)

// State is the lock-free biometric container. The zero value is not ready
// for use; create one with NewState so the defaults are in place.
type State struct {
	hrv         atomic.Uint64 // 0..1, normalized heart rate variability
	coherence   atomic.Uint64 // 0..1, heart/breath coherence score
	heartRate   atomic.Uint64 // BPM
	breathPhase atomic.Uint64 // 0..1, position in the breath cycle
	breathRate  atomic.Uint64 // breaths per minute
	gsr         atomic.Uint64 // 0..1, normalized skin conductance
	skinTemp    atomic.Uint64 // °C

	updates    atomic.Uint64
	lastUpdate atomic.Int64 // unix nanoseconds of the last Update call
}

// NewState returns a State holding resting-baseline defaults.
func NewState() *State {
	s := &State{}
	storeFloat(&s.hrv, 0.5)
	storeFloat(&s.coherence, 0.5)
	storeFloat(&s.heartRate, 70.0)
	storeFloat(&s.breathPhase, 0.0)
	storeFloat(&s.breathRate, 12.0)
	storeFloat(&s.gsr, 0.3)
	storeFloat(&s.skinTemp, 33.0)
	return s
}

// Update stores one batch of primary readings and bumps the update counter.
// The counter is written last, so a consumer that sees a new count sees all
// four fields of that batch.
func (s *State) Update(hrv, coherence, heartRate, breathPhase float64) {
	s.SetHRV(hrv)
	s.SetCoherence(coherence)
	s.SetHeartRate(heartRate)
	s.SetBreathPhase(breathPhase)
	s.lastUpdate.Store(time.Now().UnixNano())
	s.updates.Add(1)
}

// UpdateCount returns the number of Update calls so far.
func (s *State) UpdateCount() uint64 {
	return s.updates.Load()
}

// IsRecent reports whether an Update happened within maxAge. A State that
// has never been updated is never recent.
func (s *State) IsRecent(maxAge time.Duration) bool {
	last := s.lastUpdate.Load()
	if last == 0 {
		return false
	}
	return time.Since(time.Unix(0, last)) <= maxAge
}

// SetHRV stores a normalized HRV reading, clamped to 0..1.
func (s *State) SetHRV(v float64) { storeFloat(&s.hrv, clamp(v, 0, 1)) }

// HRV returns the current normalized HRV.
func (s *State) HRV() float64 { return loadFloat(&s.hrv) }

// SetCoherence stores a coherence score, clamped to 0..1.
func (s *State) SetCoherence(v float64) { storeFloat(&s.coherence, clamp(v, 0, 1)) }

// Coherence returns the current coherence score.
func (s *State) Coherence() float64 { return loadFloat(&s.coherence) }

// SetHeartRate stores a heart rate in BPM, clamped to 40..200.
func (s *State) SetHeartRate(v float64) {
	storeFloat(&s.heartRate, clamp(v, MinHeartRate, MaxHeartRate))
}

// HeartRate returns the current heart rate in BPM.
func (s *State) HeartRate() float64 { return loadFloat(&s.heartRate) }

// SetBreathPhase stores the breath cycle position, clamped to 0..1.
func (s *State) SetBreathPhase(v float64) { storeFloat(&s.breathPhase, clamp(v, 0, 1)) }

// BreathPhase returns the current breath cycle position.
func (s *State) BreathPhase() float64 { return loadFloat(&s.breathPhase) }

// SetBreathRate stores a breathing rate in breaths per minute, clamped
// to 4..30.
func (s *State) SetBreathRate(v float64) {
	storeFloat(&s.breathRate, clamp(v, MinBreathRate, MaxBreathRate))
}

// BreathRate returns the breathing rate in breaths per minute.
func (s *State) BreathRate() float64 { return loadFloat(&s.breathRate) }

// SetGSR stores a normalized skin conductance reading, clamped to 0..1.
func (s *State) SetGSR(v float64) { storeFloat(&s.gsr, clamp(v, 0, 1)) }

// GSR returns the normalized skin conductance.
func (s *State) GSR() float64 { return loadFloat(&s.gsr) }

// SetSkinTemp stores a skin temperature in °C, clamped to 20..45.
func (s *State) SetSkinTemp(v float64) {
	storeFloat(&s.skinTemp, clamp(v, MinSkinTemp, MaxSkinTemp))
}

// SkinTemp returns the skin temperature in °C.
func (s *State) SkinTemp() float64 { return loadFloat(&s.skinTemp) }

// BreathLFO converts the breath phase into a bipolar control signal:
// sin(2π·phase), so phase 0.25 peaks at +1 and 0.75 bottoms at -1.
func (s *State) BreathLFO() float64 {
	return math.Sin(2 * math.Pi * s.BreathPhase())
}

// Relaxation derives a 0..1 calm score: the average of HRV and coherence.
// High variability with high coherence reads as a settled state.
func (s *State) Relaxation() float64 {
	return (s.HRV() + s.Coherence()) * 0.5
}

// Arousal derives a 0..1 activation score from heart rate and HRV. A fast
// heart with low variability reads as high arousal.
func (s *State) Arousal() float64 {
	hrNorm := (s.HeartRate() - MinHeartRate) / (MaxHeartRate - MinHeartRate)
	return (hrNorm + (1 - s.HRV())) * 0.5
}

func storeFloat(a *atomic.Uint64, v float64) {
	a.Store(math.Float64bits(v))
}

func loadFloat(a *atomic.Uint64) float64 {
	return math.Float64frombits(a.Load())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
