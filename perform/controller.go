// Package perform turns key transitions into MIDI while tracking the live
// performance settings: start note, layout mode, sustain and velocity.
//
// A Controller is not safe for concurrent use. Feed it from one goroutine
// (the UI loop), and read its snapshots from that same goroutine.
package perform

import (
	"fmt"
	"math/rand/v2"

	"go-keyrow/debug"
	"go-keyrow/input"
	"go-keyrow/keys"
	"go-keyrow/layout"
	"go-keyrow/midi"
	"go-keyrow/note"
	"go-keyrow/obs"
)

// Sink receives the outbound MIDI events
type Sink interface {
	Send(ev midi.Event)
}

// NoteOffVelocity is the release velocity of every note-off
const NoteOffVelocity = 127

type Controller struct {
	sink    Sink
	channel uint8
	intN    func(n int) int

	startNote        note.Note
	translateBoost   bool
	translateByPitch bool
	sustain          bool
	velocity         Velocity
	layout           *layout.Layout

	pressedNotes map[note.Note]int // note -> number of keys holding it
	pressedKeys  map[keys.Code]note.Note

	change        obs.Signal
	noteChange    obs.Topic[note.Note]
	controlChange obs.Signal

	scope       obs.Scope
	initialized bool
}

type Option func(*Controller)

func WithStartNote(n note.Note) Option {
	return func(c *Controller) { c.startNote = n }
}

func WithVelocity(v Velocity) Option {
	return func(c *Controller) { c.velocity = v }
}

func WithTranslateByPitch(on bool) Option {
	return func(c *Controller) { c.translateByPitch = on }
}

// WithChannel sets the MIDI channel (0-15) notes are sent on
func WithChannel(ch uint8) Option {
	return func(c *Controller) { c.channel = ch & 0x0F }
}

// WithRand sets the source of velocity jitter
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.intN = r.IntN }
}

// New builds a controller and its first layout. It fails when no layout
// can be built for the requested start note.
func New(sink Sink, opts ...Option) (*Controller, error) {
	c := &Controller{
		sink:         sink,
		intN:         rand.IntN,
		startNote:    note.Default,
		velocity:     Velocity{Base: 100, Randomizer: RandomMedium},
		pressedNotes: make(map[note.Note]int),
		pressedKeys:  make(map[keys.Code]note.Note),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.velocity.Base = clampVelocity(c.velocity.Base)
	c.startNote = note.Clamp(c.startNote, note.Lowest, layout.MaxStart)

	l, err := layout.Generate(c.startNote, c.mode())
	if err != nil {
		return nil, fmt.Errorf("initial layout: %w", err)
	}
	c.layout = l
	return c, nil
}

// Init starts listening to src. Calling Init again does nothing.
func (c *Controller) Init(src input.Source) error {
	if c.scope.Destroyed() {
		return fmt.Errorf("perform: controller closed")
	}
	if c.initialized {
		return nil
	}
	stop, err := src.Listen(c.HandleKey)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	c.initialized = true
	c.scope.OnDestroy(stop)
	return nil
}

// Close stops listening. Held keys are forgotten without note-offs.
func (c *Controller) Close() {
	c.scope.Destroy()
	clear(c.pressedKeys)
	clear(c.pressedNotes)
}

// OnChange subscribes to "state changed, re-read it" notifications
func (c *Controller) OnChange(fn func()) (unsub func()) {
	return c.change.Sub(fn)
}

// OnNoteChange subscribes to press/release of individual notes
func (c *Controller) OnNoteChange(fn func(note.Note)) (unsub func()) {
	return c.noteChange.Sub(fn)
}

// OnControlChange subscribes to changes of the performance settings
func (c *Controller) OnControlChange(fn func()) (unsub func()) {
	return c.controlChange.Sub(fn)
}

// HandleKey processes one key transition
func (c *Controller) HandleKey(ev input.KeyEvent) {
	if c.scope.Destroyed() {
		return
	}
	if ev.Down {
		c.keyDown(ev)
	} else {
		c.keyUp(ev)
	}
}

func (c *Controller) keyDown(ev input.KeyEvent) {
	if c.captureControl(ev) {
		return
	}
	if _, held := c.pressedKeys[ev.Code]; held {
		return
	}
	n, ok := c.layout.NoteFor(ev.Code)
	if !ok {
		debug.Log("keys", "unmapped key %s", ev.Code)
		return
	}

	velocity := c.nextVelocity()
	c.pressedKeys[ev.Code] = n
	c.pressedNotes[n]++
	c.sink.Send(midi.Event{Type: midi.NoteOn, Channel: c.channel, Note: n.MIDI(), Velocity: uint8(velocity)})
	c.noteChange.Emit(n)
}

func (c *Controller) keyUp(ev input.KeyEvent) {
	if c.captureControl(ev) {
		c.change.Emit()
		return
	}
	if _, ok := c.pressedKeys[ev.Code]; ok {
		c.release(ev.Code)
	}
}

func (c *Controller) release(code keys.Code) {
	n := c.pressedKeys[code]
	delete(c.pressedKeys, code)
	if c.pressedNotes[n]--; c.pressedNotes[n] <= 0 {
		delete(c.pressedNotes, n)
	}
	c.sink.Send(midi.Event{Type: midi.NoteOff, Channel: c.channel, Note: n.MIDI(), Velocity: NoteOffVelocity})
	c.noteChange.Emit(n)
}

// captureControl handles the non-note keys; true means the event is used up
func (c *Controller) captureControl(ev input.KeyEvent) bool {
	if d, ok := ev.Code.DigitValue(); ok && ev.Down && !ev.Repeat {
		c.SetVelocityBase(DigitVelocity(d))
		return true
	}

	switch ev.Code {
	case keys.Comma:
		if !ev.Down {
			return false
		}
		c.TranslateLeft()
		return true
	case keys.Period:
		if !ev.Down {
			return false
		}
		c.TranslateRight()
		return true
	case keys.ShiftLeft:
		if ev.Repeat {
			return false
		}
		c.SetSustain(ev.Down)
		return true
	case keys.ControlLeft:
		c.SetTranslateBoost(ev.Down)
		return true
	case keys.Backquote:
		if !ev.Down {
			return false
		}
		c.ToggleTranslateByPitch()
		return true
	}
	return false
}

func (c *Controller) nextVelocity() int {
	v := c.velocity.Base
	if s := c.velocity.Randomizer.Spread(); s > 0 {
		v += c.intN(2*s+1) - s
	}
	return clampVelocity(v)
}

func (c *Controller) mode() layout.Mode {
	if c.translateByPitch {
		return layout.ModePitch
	}
	return layout.ModeCam
}

func (c *Controller) translateStep() int {
	if c.translateBoost {
		return 12
	}
	return 1
}

func (c *Controller) TranslateLeft() {
	c.translate(-c.translateStep())
}

func (c *Controller) TranslateRight() {
	c.translate(c.translateStep())
}

func (c *Controller) translate(delta int) {
	n := note.Shift(c.startNote, delta)
	if !c.translateByPitch {
		// A0 and G9 are white, so the saturating shift always lands
		step := 1
		if delta < 0 {
			step = -1
		}
		for n.IsBlack() {
			n = note.Shift(n, step)
		}
	}
	n = note.Clamp(n, note.Lowest, layout.MaxStart)
	if n == c.startNote {
		return
	}
	c.relayout(n, c.translateByPitch)
}

// relayout adopts a new start note and mode only if their layout builds
func (c *Controller) relayout(start note.Note, byPitch bool) {
	mode := layout.ModeCam
	if byPitch {
		mode = layout.ModePitch
	}
	l, err := layout.Generate(start, mode)
	if err != nil {
		debug.Error("layout", err, "keeping %s layout from %s", c.layout.Mode(), c.layout.Start())
		return
	}
	c.startNote, c.translateByPitch, c.layout = start, byPitch, l
	debug.Log("layout", "start=%s mode=%s window=%s..%s", start, mode, l.Start(), l.Start()+note.Note(l.Len()-1))

	c.change.Emit()
	c.controlChange.Emit()
}

// SetSustain sets the pedal and sends CC 64 when it changes
func (c *Controller) SetSustain(on bool) {
	if c.sustain == on {
		return
	}
	c.sustain = on
	value := midi.SustainOff
	if on {
		value = midi.SustainOn
	}
	c.sink.Send(midi.Event{Type: midi.CC, Channel: c.channel, Note: midi.SustainController, Velocity: value})
	c.controlChange.Emit()
}

// SetVelocityBase sets the base velocity, limited to 0..127
func (c *Controller) SetVelocityBase(v int) {
	c.velocity.Base = clampVelocity(v)
	c.change.Emit()
	c.controlChange.Emit()
}

func (c *Controller) SetVelocityRandomizer(r Randomizer) {
	c.velocity.Randomizer = r
	c.change.Emit()
	c.controlChange.Emit()
}

// ReleaseAll sends a note-off for every held key and forgets them. Key-ups
// that arrive later for those keys are ignored.
func (c *Controller) ReleaseAll() {
	if len(c.pressedKeys) == 0 {
		return
	}
	for code := range c.pressedKeys {
		c.release(code)
	}
	c.change.Emit()
}

// SetTranslateBoost makes translations move an octave while on
func (c *Controller) SetTranslateBoost(on bool) {
	c.translateBoost = on
}

// ToggleTranslateByPitch switches between the cam and pitch layouts
func (c *Controller) ToggleTranslateByPitch() {
	c.relayout(c.startNote, !c.translateByPitch)
}

// Snapshots

// Layout returns the current layout. Layouts are immutable; a later change
// replaces it rather than modifying it.
func (c *Controller) Layout() *layout.Layout {
	return c.layout
}

func (c *Controller) Entries() []layout.Entry {
	return c.layout.Entries()
}

func (c *Controller) KeyFor(n note.Note) (keys.Code, bool) {
	return c.layout.KeyFor(n)
}

func (c *Controller) IsPressed(n note.Note) bool {
	return c.pressedNotes[n] > 0
}

func (c *Controller) StartNote() note.Note {
	return c.startNote
}

func (c *Controller) Sustain() bool {
	return c.sustain
}

func (c *Controller) Velocity() Velocity {
	return c.velocity
}

func (c *Controller) TranslateBoost() bool {
	return c.translateBoost
}

func (c *Controller) TranslateByPitch() bool {
	return c.translateByPitch
}
