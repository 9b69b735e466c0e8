// Package voice provides polyphonic voice allocation with stealing.
package voice

import (
	"github.com/vibrationalforce/echoelcore/pkg/midi"
)

// AllocationMode selects how incoming notes map to voices.
type AllocationMode int

const (
	// ModePoly gives each note its own voice.
	ModePoly AllocationMode = iota
	// ModeMono plays one voice, retriggering on every note.
	ModeMono
	// ModeLegato plays one voice, changing pitch without retriggering
	// while notes overlap.
	ModeLegato
)

// StealingMode selects which voice to take when all are busy.
type StealingMode int

const (
	// StealOldest takes the voice that has been sounding the longest.
	StealOldest StealingMode = iota
	// StealQuietest takes the voice with the lowest amplitude.
	StealQuietest
	// StealNone rejects new notes when the pool is full.
	StealNone
)

// Voice is one playable unit managed by the allocator.
type Voice interface {
	// IsActive reports whether the voice is currently sounding.
	IsActive() bool
	// GetNote returns the note number the voice is playing.
	GetNote() uint8
	// GetVelocity returns the trigger velocity.
	GetVelocity() uint8
	// GetAmplitude returns the current amplitude, for StealQuietest.
	GetAmplitude() float64
	// GetAge returns how long the voice has been sounding, in samples.
	GetAge() int64
	// TriggerNote starts a note.
	TriggerNote(note uint8, velocity uint8)
	// ReleaseNote enters the release phase.
	ReleaseNote()
	// Stop silences the voice immediately.
	Stop()
	// Process renders the voice additively into output.
	Process(output []float32)
}

// Allocator distributes notes over a fixed voice pool.
type Allocator struct {
	voices         []Voice
	mode           AllocationMode
	stealingMode   StealingMode
	maxVoices      int
	noteToVoice    map[uint8][]int
	lastTriggered  int // round-robin cursor
	sustainPedal   bool
	sustainedNotes map[uint8]bool

	// Mono/legato state
	currentNote  uint8
	previousNote uint8
	glideActive  bool
}

// NewAllocator creates an allocator over a voice pool. Polyphonic with
// oldest-first stealing by default.
func NewAllocator(voices []Voice) *Allocator {
	return &Allocator{
		voices:         voices,
		mode:           ModePoly,
		stealingMode:   StealOldest,
		maxVoices:      len(voices),
		noteToVoice:    make(map[uint8][]int),
		sustainedNotes: make(map[uint8]bool),
	}
}

// SetMode sets the allocation mode and resets all voices.
func (a *Allocator) SetMode(mode AllocationMode) {
	a.mode = mode
	a.Reset()
}

// SetStealingMode sets the stealing policy.
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// SetMaxVoices limits the usable pool size.
func (a *Allocator) SetMaxVoices(max int) {
	if max > len(a.voices) {
		max = len(a.voices)
	}
	if max < 1 {
		max = 1
	}
	a.maxVoices = max
}

// ProcessEvent routes a MIDI event to the allocator.
func (a *Allocator) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity > 0 {
			a.NoteOn(e.NoteNumber, e.Velocity)
		} else {
			a.NoteOff(e.NoteNumber, 0)
		}
	case midi.NoteOffEvent:
		a.NoteOff(e.NoteNumber, e.Velocity)
	case midi.ControlChangeEvent:
		switch e.Controller {
		case midi.CCSustain:
			a.SetSustainPedal(e.Value >= 64)
		case midi.CCAllNotesOff, midi.CCAllSoundOff:
			a.Reset()
		}
	}
}

// NoteOn starts a note according to the allocation mode.
func (a *Allocator) NoteOn(note uint8, velocity uint8) {
	switch a.mode {
	case ModePoly:
		a.noteOnPoly(note, velocity)
	case ModeMono:
		a.noteOnMono(note, velocity)
	case ModeLegato:
		a.noteOnLegato(note, velocity)
	}
}

// NoteOff releases a note, or defers it while the sustain pedal is down.
func (a *Allocator) NoteOff(note uint8, velocity uint8) {
	if a.sustainPedal {
		a.sustainedNotes[note] = true
		return
	}

	switch a.mode {
	case ModePoly:
		a.noteOffPoly(note, velocity)
	case ModeMono, ModeLegato:
		a.noteOffMono(note, velocity)
	}
}

// SetSustainPedal sets the pedal. Lifting it releases deferred notes.
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if !on {
		for note := range a.sustainedNotes {
			a.NoteOff(note, 0)
		}
		a.sustainedNotes = make(map[uint8]bool)
	}
}

// Reset stops all voices and clears allocation state.
func (a *Allocator) Reset() {
	for _, voice := range a.voices {
		voice.Stop()
	}
	a.noteToVoice = make(map[uint8][]int)
	a.sustainedNotes = make(map[uint8]bool)
	a.sustainPedal = false
	a.currentNote = 0
	a.previousNote = 0
	a.glideActive = false
}

// GetActiveVoiceCount returns the number of sounding voices.
func (a *Allocator) GetActiveVoiceCount() int {
	count := 0
	for _, voice := range a.voices[:a.maxVoices] {
		if voice.IsActive() {
			count++
		}
	}
	return count
}

// PreviousNote returns the note before the current one, for glide.
func (a *Allocator) PreviousNote() uint8 {
	return a.previousNote
}

// GlideActive reports whether a legato transition is in progress.
func (a *Allocator) GlideActive() bool {
	return a.glideActive
}

func (a *Allocator) noteOnPoly(note uint8, velocity uint8) {
	// Retrigger when the note already has a voice.
	if voices, exists := a.noteToVoice[note]; exists && len(voices) > 0 {
		for _, idx := range voices {
			a.voices[idx].TriggerNote(note, velocity)
		}
		return
	}

	voiceIdx := a.findFreeVoice()
	if voiceIdx == -1 {
		voiceIdx = a.stealVoice()
		if voiceIdx == -1 {
			return
		}
	}

	a.voices[voiceIdx].TriggerNote(note, velocity)
	a.noteToVoice[note] = []int{voiceIdx}
}

func (a *Allocator) noteOffPoly(note uint8, velocity uint8) {
	if voices, exists := a.noteToVoice[note]; exists {
		for _, idx := range voices {
			a.voices[idx].ReleaseNote()
		}
		delete(a.noteToVoice, note)
	}
}

func (a *Allocator) noteOnMono(note uint8, velocity uint8) {
	if a.voices[0].IsActive() {
		a.voices[0].Stop()
	}
	a.previousNote = a.currentNote
	a.currentNote = note
	a.voices[0].TriggerNote(note, velocity)
	a.noteToVoice = map[uint8][]int{note: {0}}
}

func (a *Allocator) noteOnLegato(note uint8, velocity uint8) {
	if a.currentNote == 0 {
		a.noteOnMono(note, velocity)
		return
	}
	// Overlapping note: pitch change without retrigger. The voice
	// implementation glides when GlideActive is set.
	a.previousNote = a.currentNote
	a.currentNote = note
	a.glideActive = true
	a.noteToVoice = map[uint8][]int{note: {0}}
}

func (a *Allocator) noteOffMono(note uint8, velocity uint8) {
	if note == a.currentNote {
		a.voices[0].ReleaseNote()
		delete(a.noteToVoice, note)
		a.currentNote = 0
		a.glideActive = false
	}
}

// findFreeVoice scans round-robin from the last triggered voice so the
// pool wears evenly.
func (a *Allocator) findFreeVoice() int {
	start := a.lastTriggered
	for i := 0; i < a.maxVoices; i++ {
		idx := (start + i + 1) % a.maxVoices
		if !a.voices[idx].IsActive() {
			a.lastTriggered = idx
			return idx
		}
	}
	return -1
}

func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return -1
	}

	bestIdx := -1
	var bestValue float64

	for i := 0; i < a.maxVoices; i++ {
		if !a.voices[i].IsActive() {
			continue
		}

		switch a.stealingMode {
		case StealOldest:
			age := float64(a.voices[i].GetAge())
			if bestIdx == -1 || age > bestValue {
				bestIdx = i
				bestValue = age
			}
		case StealQuietest:
			amp := a.voices[i].GetAmplitude()
			if bestIdx == -1 || amp < bestValue {
				bestIdx = i
				bestValue = amp
			}
		}
	}

	if bestIdx != -1 {
		stolenNote := a.voices[bestIdx].GetNote()
		if voices, exists := a.noteToVoice[stolenNote]; exists {
			for i, idx := range voices {
				if idx == bestIdx {
					a.noteToVoice[stolenNote] = append(voices[:i], voices[i+1:]...)
					if len(a.noteToVoice[stolenNote]) == 0 {
						delete(a.noteToVoice, stolenNote)
					}
					break
				}
			}
		}
		a.voices[bestIdx].Stop()
	}

	return bestIdx
}
