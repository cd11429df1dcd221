package perform

import (
	"math/rand/v2"
	"testing"

	"go-keyrow/input"
	"go-keyrow/keys"
	"go-keyrow/layout"
	"go-keyrow/midi"
	"go-keyrow/note"
)

type recordingSink struct {
	events []midi.Event
}

func (s *recordingSink) Send(ev midi.Event) {
	s.events = append(s.events, ev)
}

func (s *recordingSink) ofType(typ uint8) []midi.Event {
	var out []midi.Event
	for _, ev := range s.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *recordingSink, *input.Relay) {
	t.Helper()
	sink := &recordingSink{}
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	c, err := New(sink, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	relay := input.NewRelay()
	if err := c.Init(relay); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(c.Close)
	return c, sink, relay
}

func down(code keys.Code) input.KeyEvent {
	return input.KeyEvent{Code: code, Down: true}
}

func repeat(code keys.Code) input.KeyEvent {
	return input.KeyEvent{Code: code, Down: true, Repeat: true}
}

func up(code keys.Code) input.KeyEvent {
	return input.KeyEvent{Code: code}
}

func TestDefaults(t *testing.T) {
	c, _, _ := newTestController(t)
	if c.StartNote() != note.Default {
		t.Errorf("StartNote() = %s, want %s", c.StartNote(), note.Default)
	}
	if v := c.Velocity(); v.Base != 100 || v.Randomizer != RandomMedium {
		t.Errorf("Velocity() = %+v, want base 100 medium", v)
	}
	if c.TranslateByPitch() || c.TranslateBoost() || c.Sustain() {
		t.Error("flags set on a fresh controller")
	}
	if c.Layout().Mode() != layout.ModeCam || c.Layout().Start() != note.Default {
		t.Errorf("layout %s from %s, want cam from C3", c.Layout().Mode(), c.Layout().Start())
	}
}

func TestPressAndReleaseC3(t *testing.T) {
	c, sink, relay := newTestController(t)
	c3 := note.MustParse("C3")
	key, ok := c.KeyFor(c3)
	if !ok {
		t.Fatal("C3 not mapped")
	}

	relay.Dispatch(down(key))
	if !c.IsPressed(c3) {
		t.Error("C3 not pressed after key down")
	}
	relay.Dispatch(up(key))
	if c.IsPressed(c3) {
		t.Error("C3 still pressed after key up")
	}

	if len(sink.events) != 2 {
		t.Fatalf("events = %v, want note-on and note-off", sink.events)
	}
	on, off := sink.events[0], sink.events[1]
	if on.Type != midi.NoteOn || on.Note != 48 {
		t.Errorf("first event = %s, want note-on 48", on)
	}
	if off.Type != midi.NoteOff || off.Note != 48 || off.Velocity != NoteOffVelocity {
		t.Errorf("second event = %s, want note-off 48 vel 127", off)
	}
	if on.Note != off.Note {
		t.Errorf("note-on %d and note-off %d differ", on.Note, off.Note)
	}
}

func TestPressC4SendsMiddleC(t *testing.T) {
	c, sink, relay := newTestController(t)
	key, _ := c.KeyFor(note.MustParse("C4"))
	relay.Dispatch(down(key))
	if got := sink.ofType(midi.NoteOn); len(got) != 1 || got[0].Note != 60 {
		t.Errorf("note-ons = %v, want one at 60", got)
	}
}

func TestRepeatedDownSendsOneNoteOn(t *testing.T) {
	_, sink, relay := newTestController(t)
	relay.Dispatch(down("KeyA"))
	relay.Dispatch(repeat("KeyA"))
	relay.Dispatch(down("KeyA"))
	relay.Dispatch(up("KeyA"))
	relay.Dispatch(up("KeyA"))

	if n := len(sink.ofType(midi.NoteOn)); n != 1 {
		t.Errorf("%d note-ons, want 1", n)
	}
	if n := len(sink.ofType(midi.NoteOff)); n != 1 {
		t.Errorf("%d note-offs, want 1", n)
	}
}

func TestReleaseAfterLayoutChangeUsesSoundedNote(t *testing.T) {
	c, sink, relay := newTestController(t)
	relay.Dispatch(down("KeyA"))
	sounded := sink.events[0].Note

	relay.Dispatch(down(keys.Period))
	if c.StartNote() == note.Default {
		t.Fatal("start note did not move")
	}
	if n, _ := c.Layout().NoteFor("KeyA"); n.MIDI() == sounded {
		t.Fatal("KeyA still maps to the sounded note; test needs a different layout")
	}

	relay.Dispatch(up("KeyA"))
	offs := sink.ofType(midi.NoteOff)
	if len(offs) != 1 || offs[0].Note != sounded {
		t.Errorf("note-offs = %v, want one for %d", offs, sounded)
	}
}

func TestTwoKeysSameNoteAcrossLayouts(t *testing.T) {
	c, _, relay := newTestController(t)
	d3 := note.MustParse("D3")
	first, _ := c.KeyFor(d3)
	relay.Dispatch(down(first))

	relay.Dispatch(down(keys.Comma))
	second, ok := c.KeyFor(d3)
	if !ok || second == first {
		t.Fatalf("D3 key after translate = %s, %v", second, ok)
	}
	relay.Dispatch(down(second))
	relay.Dispatch(up(first))
	if !c.IsPressed(d3) {
		t.Error("D3 released while another key still holds it")
	}
	relay.Dispatch(up(second))
	if c.IsPressed(d3) {
		t.Error("D3 still pressed after both keys released")
	}
}

func TestVelocityStaysInRange(t *testing.T) {
	for _, base := range []int{0, 127} {
		for r := RandomOff; r <= RandomHigh; r++ {
			c, sink, relay := newTestController(t, WithVelocity(Velocity{Base: base, Randomizer: r}))
			for i := 0; i < 200; i++ {
				relay.Dispatch(down("KeyA"))
				relay.Dispatch(up("KeyA"))
			}
			seen := make(map[uint8]bool)
			for _, ev := range sink.ofType(midi.NoteOn) {
				if ev.Velocity > 127 {
					t.Fatalf("base %d %s: velocity %d", base, r, ev.Velocity)
				}
				if d := int(ev.Velocity) - base; d > r.Spread() || -d > r.Spread() {
					t.Fatalf("base %d %s: velocity %d outside spread", base, r, ev.Velocity)
				}
				seen[ev.Velocity] = true
			}
			if r == RandomOff && len(seen) != 1 {
				t.Errorf("base %d off: %d distinct velocities, want 1", base, len(seen))
			}
			if r != RandomOff && len(seen) < 2 {
				t.Errorf("base %d %s: velocity never varied", base, r)
			}
			c.Close()
		}
	}
}

func TestTranslateBoostOctave(t *testing.T) {
	c, _, relay := newTestController(t)
	relay.Dispatch(down(keys.ControlLeft))
	if !c.TranslateBoost() {
		t.Fatal("boost off while ControlLeft held")
	}
	relay.Dispatch(down(keys.Period))
	relay.Dispatch(up(keys.ControlLeft))
	if c.TranslateBoost() {
		t.Error("boost on after ControlLeft released")
	}

	c4 := note.MustParse("C4")
	if c.StartNote() != c4 {
		t.Errorf("StartNote() = %s, want C4", c.StartNote())
	}
	if c.Layout().Start() != c4 {
		t.Errorf("layout starts at %s, want C4", c.Layout().Start())
	}
}

func TestTranslateSkipsBlackNotes(t *testing.T) {
	tests := []struct {
		from  string
		right bool
		want  string
	}{
		{"C3", true, "D3"},
		{"E3", true, "F3"},
		{"D3", false, "C3"},
		{"F3", false, "E3"},
		{"A0", false, "A0"},
		{"B0", false, "A0"},
		{"D8", true, "D8"},
		{"C8", true, "D8"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			c, _, _ := newTestController(t, WithStartNote(note.MustParse(tt.from)))
			if tt.right {
				c.TranslateRight()
			} else {
				c.TranslateLeft()
			}
			if c.StartNote().Name() != tt.want {
				t.Errorf("StartNote() = %s, want %s", c.StartNote(), tt.want)
			}
		})
	}
}

func TestTranslateNeverPassesBounds(t *testing.T) {
	for _, boost := range []bool{false, true} {
		c, _, _ := newTestController(t)
		c.SetTranslateBoost(boost)
		for i := 0; i < 200; i++ {
			c.TranslateRight()
			if c.StartNote() > layout.MaxStart {
				t.Fatalf("start %s above %s", c.StartNote(), layout.MaxStart)
			}
		}
		if c.StartNote() != layout.MaxStart {
			t.Errorf("boost=%v: StartNote() = %s, want %s", boost, c.StartNote(), layout.MaxStart)
		}
		for i := 0; i < 200; i++ {
			c.TranslateLeft()
		}
		if c.StartNote() != note.Lowest {
			t.Errorf("boost=%v: StartNote() = %s, want A0", boost, c.StartNote())
		}
	}
}

func TestPitchModeTranslatesBySemitone(t *testing.T) {
	c, _, relay := newTestController(t)
	relay.Dispatch(down(keys.Backquote))
	relay.Dispatch(up(keys.Backquote))
	if !c.TranslateByPitch() || c.Layout().Mode() != layout.ModePitch {
		t.Fatal("pitch mode not active after Backquote")
	}
	if c.Layout().Len() != layout.PitchSpan {
		t.Errorf("layout length %d, want %d", c.Layout().Len(), layout.PitchSpan)
	}

	c.TranslateRight()
	if c.StartNote().Name() != "C#3" || c.Layout().Start().Name() != "C#3" {
		t.Errorf("start = %s, layout from %s, want C#3", c.StartNote(), c.Layout().Start())
	}

	c.ToggleTranslateByPitch()
	if c.Layout().Mode() != layout.ModeCam || c.Layout().Start().Name() != "C3" {
		t.Errorf("cam layout from %s, want C3", c.Layout().Start())
	}
}

func TestDigitSetsVelocityBase(t *testing.T) {
	c, sink, relay := newTestController(t)
	controls, changes := 0, 0
	c.OnControlChange(func() { controls++ })
	c.OnChange(func() { changes++ })

	relay.Dispatch(down(keys.Digit(1)))
	if got := c.Velocity().Base; got != VelocityTable[0] {
		t.Errorf("base = %d, want %d", got, VelocityTable[0])
	}
	if controls != 1 || changes != 1 {
		t.Errorf("%d control and %d change notifications, want 1 each", controls, changes)
	}

	relay.Dispatch(repeat(keys.Digit(0)))
	if got := c.Velocity().Base; got != VelocityTable[0] {
		t.Errorf("repeat changed base to %d", got)
	}
	relay.Dispatch(down(keys.Digit(0)))
	if got := c.Velocity().Base; got != 127 {
		t.Errorf("Digit0 base = %d, want 127", got)
	}
	if len(sink.events) != 0 {
		t.Errorf("digits sent MIDI: %v", sink.events)
	}
}

func TestSustainFollowsShift(t *testing.T) {
	c, sink, relay := newTestController(t)
	changes := 0
	c.OnChange(func() { changes++ })

	relay.Dispatch(down(keys.ShiftLeft))
	relay.Dispatch(repeat(keys.ShiftLeft))
	if !c.Sustain() {
		t.Fatal("sustain off while ShiftLeft held")
	}
	relay.Dispatch(up(keys.ShiftLeft))
	if c.Sustain() {
		t.Fatal("sustain on after ShiftLeft released")
	}

	ccs := sink.ofType(midi.CC)
	if len(ccs) != 2 {
		t.Fatalf("control changes = %v, want on and off", ccs)
	}
	if ccs[0].Note != 64 || ccs[0].Velocity != 64 || ccs[1].Note != 64 || ccs[1].Velocity != 0 {
		t.Errorf("control changes = %v, want 64/64 then 64/0", ccs)
	}
	if changes != 1 {
		t.Errorf("%d change notifications, want 1 (on release)", changes)
	}
}

func TestNoteChangeNotifications(t *testing.T) {
	c, _, relay := newTestController(t)
	var got []note.Note
	unsub := c.OnNoteChange(func(n note.Note) { got = append(got, n) })

	relay.Dispatch(down("KeyA"))
	relay.Dispatch(up("KeyA"))
	unsub()
	relay.Dispatch(down("KeyA"))

	if len(got) != 2 || got[0] != note.Default || got[1] != note.Default {
		t.Errorf("notifications = %v, want C3 twice", got)
	}
}

func TestUnknownKeysIgnored(t *testing.T) {
	c, sink, relay := newTestController(t)
	relay.Dispatch(down("KeyZ"))
	relay.Dispatch(up("KeyZ"))
	relay.Dispatch(up("KeyS"))
	relay.Dispatch(down("KeyQ")) // unused at a C start
	relay.Dispatch(up(keys.Comma))
	if len(sink.events) != 0 {
		t.Errorf("events = %v, want none", sink.events)
	}
	if c.StartNote() != note.Default {
		t.Errorf("start moved to %s", c.StartNote())
	}
}

func TestCloseStopsListening(t *testing.T) {
	c, sink, relay := newTestController(t)
	if err := c.Init(relay); err != nil {
		t.Fatal(err)
	}
	relay.Dispatch(down("KeyA"))
	c.Close()
	c.Close()

	if relay.Listening() {
		t.Error("relay still has listeners after Close")
	}
	c.HandleKey(up("KeyA"))
	if len(sink.events) != 1 {
		t.Errorf("events = %v, want only the note-on", sink.events)
	}
	if err := c.Init(input.NewRelay()); err == nil {
		t.Error("Init after Close succeeded")
	}
}

func TestNewClampsStart(t *testing.T) {
	c, err := New(&recordingSink{}, WithStartNote(note.Highest))
	if err != nil {
		t.Fatal(err)
	}
	if c.StartNote() != layout.MaxStart {
		t.Errorf("StartNote() = %s, want %s", c.StartNote(), layout.MaxStart)
	}
}

func TestChannelOption(t *testing.T) {
	_, sink, relay := newTestController(t, WithChannel(9))
	relay.Dispatch(down("KeyA"))
	if sink.events[0].Channel != 9 {
		t.Errorf("channel = %d, want 9", sink.events[0].Channel)
	}
}

func TestParseRandomizer(t *testing.T) {
	for r := RandomOff; r <= RandomHigh; r++ {
		got, err := ParseRandomizer(r.String())
		if err != nil || got != r {
			t.Errorf("ParseRandomizer(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseRandomizer("extreme"); err == nil {
		t.Error("ParseRandomizer(extreme) succeeded")
	}
}

func TestRandomizerChangeNotifies(t *testing.T) {
	c, _, _ := newTestController(t)
	controls, changes := 0, 0
	c.OnControlChange(func() { controls++ })
	c.OnChange(func() { changes++ })

	c.SetVelocityRandomizer(RandomHigh)
	if controls != 1 || changes != 1 {
		t.Errorf("%d control and %d change notifications, want 1 each", controls, changes)
	}
}

func TestReleaseAllEndsHeldNotes(t *testing.T) {
	c, sink, relay := newTestController(t)
	relay.Dispatch(down("KeyA"))
	relay.Dispatch(down("KeyD"))
	sink.events = nil

	c.ReleaseAll()
	offs := sink.ofType(midi.NoteOff)
	if len(offs) != 2 {
		t.Fatalf("ReleaseAll sent %d note offs, want 2", len(offs))
	}
	for _, name := range []string{"C3", "E3"} {
		if c.IsPressed(note.MustParse(name)) {
			t.Errorf("%s still pressed", name)
		}
	}

	// the late key-up is ignored and a fresh press sounds again
	relay.Dispatch(up("KeyA"))
	relay.Dispatch(down("KeyA"))
	if ons := sink.ofType(midi.NoteOn); len(ons) != 1 || ons[0].Note != 48 {
		t.Errorf("note ons after release = %+v, want one C3", ons)
	}
	if got := len(sink.ofType(midi.NoteOff)); got != 2 {
		t.Errorf("late key-up sent a note off (%d total)", got)
	}

	sink.events = nil
	c.ReleaseAll()
	c.ReleaseAll()
	if len(sink.events) != 1 {
		t.Errorf("repeated ReleaseAll sent %d events, want 1", len(sink.events))
	}
}
