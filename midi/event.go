package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Sustain pedal controller and its two values
const (
	SustainController uint8 = 64
	SustainOn         uint8 = 64
	SustainOff        uint8 = 0
)

// Event represents an outbound MIDI message.
// For CC, Note is the controller number and Velocity the value.
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8
	Note     uint8
	Velocity uint8
}

func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("note-on ch=%d note=%d vel=%d", e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("note-off ch=%d note=%d vel=%d", e.Channel, e.Note, e.Velocity)
	case CC:
		return fmt.Sprintf("cc ch=%d ctrl=%d val=%d", e.Channel, e.Note, e.Velocity)
	}
	return fmt.Sprintf("unknown type=0x%02x", e.Type)
}
