// Package layout assigns the physical key row to a window of notes.
//
// Two strategies exist. ModeCam anchors the window on a white note and
// covers 11 white notes plus the black notes between them, the way a short
// piano keyboard would. ModePitch takes 18 consecutive notes and paints them
// with a fixed colour template, so the key shapes stay put while the pitch
// slides underneath.
package layout

import (
	"errors"
	"fmt"

	"go-keyrow/keys"
	"go-keyrow/note"
)

// ErrLayoutExhausted means the key supply could not cover the requested
// window. It indicates a broken invariant, not bad input.
var ErrLayoutExhausted = errors.New("layout: key supply exhausted")

type Mode int

const (
	ModeCam Mode = iota
	ModePitch
)

func (m Mode) String() string {
	if m == ModePitch {
		return "pitch"
	}
	return "cam"
}

const (
	// WhiteSlots is the number of white notes in a ModeCam window
	WhiteSlots = 11
	// PitchSpan is the number of notes in a ModePitch window
	PitchSpan = 18
)

// Entry binds one physical key to one note
type Entry struct {
	Key   keys.Code
	Color Color
	Note  note.Note
}

// Layout is an immutable key/note assignment
type Layout struct {
	start     note.Note
	mode      Mode
	entries   []Entry
	keyToNote map[keys.Code]note.Note
	noteToKey map[note.Note]keys.Code
}

// whiteNotes lists every non-black note in ascending order
var whiteNotes = func() []note.Note {
	var out []note.Note
	for i := 0; i < note.Count; i++ {
		if n := note.Note(i); !n.IsBlack() {
			out = append(out, n)
		}
	}
	return out
}()

// MaxStart is the highest start note that still leaves WhiteSlots white notes.
var MaxStart = whiteNotes[len(whiteNotes)-WhiteSlots]

// Generate builds the layout for start under mode. No layout is returned
// when the window cannot be filled.
func Generate(start note.Note, mode Mode) (*Layout, error) {
	var (
		entries []Entry
		first   note.Note
		err     error
	)
	switch mode {
	case ModePitch:
		first = start
		entries, err = pitchEntries(start)
	default:
		first = whiteAtOrBelow(start)
		entries, err = camEntries(first)
	}
	if err != nil {
		return nil, err
	}

	l := &Layout{
		start:     first,
		mode:      mode,
		entries:   entries,
		keyToNote: make(map[keys.Code]note.Note, len(entries)),
		noteToKey: make(map[note.Note]keys.Code, len(entries)),
	}
	for _, e := range entries {
		l.keyToNote[e.Key] = e.Note
		l.noteToKey[e.Note] = e.Key
	}
	return l, nil
}

func whiteAtOrBelow(n note.Note) note.Note {
	for n > note.Lowest && n.IsBlack() {
		n--
	}
	return n
}

func camEntries(start note.Note) ([]Entry, error) {
	var last note.Note
	count := 0
	for _, w := range whiteNotes {
		if w < start {
			continue
		}
		count++
		if count == WhiteSlots {
			last = w
			break
		}
	}
	if count < WhiteSlots {
		return nil, fmt.Errorf("%w: only %d white notes from %s", ErrLayoutExhausted, count, start)
	}

	var z zigzag
	entries := make([]Entry, 0, int(last-start)+1)
	for n := start; n <= last; n++ {
		c := colorOf(n.IsBlack())
		key, err := z.pop(c)
		if err != nil {
			return nil, fmt.Errorf("cam layout from %s: %w", start, err)
		}
		entries = append(entries, Entry{Key: key, Color: c, Note: n})
	}
	return entries, nil
}

// Colour template of a ModePitch window, independent of the start note
var pitchTemplate = [PitchSpan]Color{
	White, Black, White, Black, White,
	White, Black, White, Black, White, Black, White,
	White, Black, White, Black, White,
	White,
}

// pitchKeys is the key for every template position, popped once
var pitchKeys = func() [PitchSpan]keys.Code {
	var out [PitchSpan]keys.Code
	var z zigzag
	for i, c := range pitchTemplate {
		key, err := z.pop(c)
		if err != nil {
			panic(fmt.Sprintf("layout: pitch template does not fit the key row: %v", err))
		}
		out[i] = key
	}
	return out
}()

func pitchEntries(start note.Note) ([]Entry, error) {
	if int(start)+PitchSpan > note.Count {
		return nil, fmt.Errorf("%w: %d notes needed from %s, %d available",
			ErrLayoutExhausted, PitchSpan, start, note.Count-int(start))
	}
	entries := make([]Entry, PitchSpan)
	for i := range entries {
		entries[i] = Entry{
			Key:   pitchKeys[i],
			Color: pitchTemplate[i],
			Note:  start + note.Note(i),
		}
	}
	return entries, nil
}

// Start is the lowest note of the window
func (l *Layout) Start() note.Note {
	return l.start
}

func (l *Layout) Mode() Mode {
	return l.mode
}

func (l *Layout) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the mapping in note order
func (l *Layout) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Layout) NoteFor(key keys.Code) (note.Note, bool) {
	n, ok := l.keyToNote[key]
	return n, ok
}

func (l *Layout) KeyFor(n note.Note) (keys.Code, bool) {
	k, ok := l.noteToKey[n]
	return k, ok
}
