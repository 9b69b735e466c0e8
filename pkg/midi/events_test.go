package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBasics(t *testing.T) {
	on := NoteOnEvent{
		BaseEvent:  BaseEvent{EventChannel: 0, Offset: 100},
		NoteNumber: 60,
		Velocity:   64,
	}
	assert.Equal(t, EventTypeNoteOn, on.Type())
	assert.Equal(t, uint8(0), on.Channel())
	assert.Equal(t, int32(100), on.SampleOffset())
	assert.Equal(t, "NoteOn{ch:0, note:60, vel:64, offset:100}", on.String())

	off := NoteOffEvent{
		BaseEvent:  BaseEvent{EventChannel: 1, Offset: 200},
		NoteNumber: 60,
		Velocity:   0,
	}
	assert.Equal(t, EventTypeNoteOff, off.Type())

	cc := ControlChangeEvent{Controller: CCSustain, Value: 127}
	assert.Equal(t, EventTypeControlChange, cc.Type())
}

func TestPitchBendNormalization(t *testing.T) {
	tests := []struct {
		value int16
		want  float64
	}{
		{0, 0},
		{8191, 8191.0 / 8192.0},
		{-8192, -1},
	}
	for _, tt := range tests {
		e := PitchBendEvent{Value: tt.value}
		assert.InDelta(t, tt.want, e.NormalizedValue(), 1e-12)
	}
}

func TestNoteToFrequency(t *testing.T) {
	tests := []struct {
		note uint8
		want float64
	}{
		{69, 440.0},   // A4
		{60, 261.626}, // middle C
		{81, 880.0},   // A5
		{57, 220.0},   // A3
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NoteToFrequency(tt.note, 0), 0.01,
			"note %d", tt.note)
	}

	// Alternate tuning shifts everything proportionally.
	assert.InDelta(t, 442.0, NoteToFrequency(69, 442), 1e-9)
}

func TestFrequencyToNoteRoundTrip(t *testing.T) {
	for note := uint8(21); note <= 108; note++ {
		freq := NoteToFrequency(note, 0)
		assert.Equal(t, note, FrequencyToNote(freq, 0), "note %d", note)
	}

	assert.Equal(t, uint8(0), FrequencyToNote(-1, 0))
	assert.Equal(t, uint8(127), FrequencyToNote(100000, 0))
}

func TestNoteNumberToName(t *testing.T) {
	assert.Equal(t, "C4", NoteNumberToName(60))
	assert.Equal(t, "A4", NoteNumberToName(69))
	assert.Equal(t, "C#-1", NoteNumberToName(1))
}
