package note

import (
	"errors"
	"fmt"
	"strings"
)

// Note is one pitch of the fixed playable range, A0 through G9.
// The zero value is A0.
type Note int

// Count is the number of notes in the range
const Count = 107

const (
	Lowest  Note = 0
	Highest Note = Count - 1

	// MIDI number of Lowest
	lowestMIDI = 21
)

// ErrOutOfRange is returned for index or MIDI lookups outside the range
var ErrOutOfRange = errors.New("note: out of range")

var letters = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// names is built once; octave numbers change at C
var names = func() [Count]string {
	var out [Count]string
	octave := 0
	for i := range out {
		l := letters[i%12]
		if l == "C" {
			octave++
		}
		out[i] = fmt.Sprintf("%s%d", l, octave)
	}
	return out
}()

var byName = func() map[string]Note {
	m := make(map[string]Note, Count)
	for i, name := range names {
		m[name] = Note(i)
	}
	return m
}()

// Default is the start note of a fresh performance
var Default = MustParse("C3")

func (n Note) Name() string {
	return names[n]
}

func (n Note) String() string {
	return n.Name()
}

func (n Note) Index() int {
	return int(n)
}

// MIDI returns the standard MIDI note number (A0 = 21)
func (n Note) MIDI() uint8 {
	return uint8(int(n) + lowestMIDI)
}

// IsBlack reports whether the note is a sharp
func (n Note) IsBlack() bool {
	return strings.Contains(names[n], "#")
}

func IndexOf(n Note) int {
	return int(n)
}

// FromIndex returns the note at position i of the range
func FromIndex(i int) (Note, error) {
	if i < 0 || i >= Count {
		return 0, fmt.Errorf("%w: index %d", ErrOutOfRange, i)
	}
	return Note(i), nil
}

// FromMIDI returns the note with the given MIDI number
func FromMIDI(number int) (Note, error) {
	n, err := FromIndex(number - lowestMIDI)
	if err != nil {
		return 0, fmt.Errorf("%w: midi %d", ErrOutOfRange, number)
	}
	return n, nil
}

func IsBlack(n Note) bool {
	return n.IsBlack()
}

// Shift moves delta positions along the range, saturating at both ends
func Shift(n Note, delta int) Note {
	i := int(n) + delta
	if i < int(Lowest) {
		return Lowest
	}
	if i > int(Highest) {
		return Highest
	}
	return Note(i)
}

// Clamp returns n limited to [min, max]. It panics when min is above max.
func Clamp(n, min, max Note) Note {
	if min > max {
		panic(fmt.Sprintf("note: clamp bounds inverted (%s > %s)", min, max))
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// Parse looks a note up by name, e.g. "C3" or "f#4"
func Parse(name string) (Note, error) {
	n, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("note: unknown note %q", name)
	}
	return n, nil
}

func MustParse(name string) Note {
	n, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return n
}
