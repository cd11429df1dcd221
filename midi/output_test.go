package midi

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type fakePorts struct {
	names  []string
	sent   []gomidi.Message
	closed int
	fail   error
}

func (f *fakePorts) output() *Output {
	o := NewOutput()
	o.timeout = time.Second
	o.listNames = func() []string { return f.names }
	o.open = func(index int, name string) (sendFunc, func() error, error) {
		if index < 0 || index >= len(f.names) || f.names[index] != name {
			return nil, nil, ErrPortNotFound
		}
		send := func(m gomidi.Message) error {
			f.sent = append(f.sent, m)
			return f.fail
		}
		return send, func() error { f.closed++; return nil }, nil
	}
	return o
}

func TestEventMessage(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want gomidi.Message
	}{
		{"note on", Event{Type: NoteOn, Channel: 1, Note: 60, Velocity: 100}, gomidi.NoteOn(1, 60, 100)},
		{"note off", Event{Type: NoteOff, Note: 48, Velocity: 127}, gomidi.NoteOffVelocity(0, 48, 127)},
		{"sustain", Event{Type: CC, Note: SustainController, Velocity: SustainOn}, gomidi.ControlChange(0, 64, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Message(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Message() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestSetPortRequiresMatchingName(t *testing.T) {
	f := &fakePorts{names: []string{"Synth A", "Synth B"}}
	o := f.output()

	if err := o.SetPort(1, "Synth A"); !errors.Is(err, ErrPortNotFound) {
		t.Fatalf("SetPort mismatched name error = %v, want ErrPortNotFound", err)
	}
	if o.HasActivePort() {
		t.Fatal("port active after failed SetPort")
	}
	if err := o.SetPort(1, "Synth B"); err != nil {
		t.Fatal(err)
	}
	if !o.HasActivePort() || o.PortName() != "Synth B" {
		t.Errorf("active = %v %q, want Synth B", o.HasActivePort(), o.PortName())
	}
	if ev := <-o.Events(); ev.Type != PortConnected || ev.Name != "Synth B" {
		t.Errorf("event = %+v, want connected Synth B", ev)
	}
}

func TestSendAndUnset(t *testing.T) {
	f := &fakePorts{names: []string{"Synth"}}
	o := f.output()

	o.Send(Event{Type: NoteOn, Note: 60, Velocity: 1})
	if len(f.sent) != 0 {
		t.Fatal("sent without a port")
	}

	if err := o.SetPortByName("Synth"); err != nil {
		t.Fatal(err)
	}
	o.Send(Event{Type: NoteOn, Note: 60, Velocity: 90})
	f.fail = errors.New("broken pipe")
	o.Send(Event{Type: NoteOff, Note: 60, Velocity: 127})

	if len(f.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(f.sent))
	}

	o.UnsetPort()
	if o.HasActivePort() || f.closed != 1 {
		t.Errorf("after UnsetPort active=%v closed=%d", o.HasActivePort(), f.closed)
	}
	o.UnsetPort()
	if f.closed != 1 {
		t.Errorf("second UnsetPort closed again")
	}
}

func TestScanHotPlug(t *testing.T) {
	f := &fakePorts{names: []string{"Synth"}}
	o := f.output()
	if err := o.SetPort(0, "Synth"); err != nil {
		t.Fatal(err)
	}
	<-o.Events()

	f.names = nil
	o.scan()
	if o.HasActivePort() {
		t.Fatal("port still active after it vanished")
	}
	if ev := <-o.Events(); ev.Type != PortDisconnected {
		t.Errorf("event = %+v, want disconnected", ev)
	}

	f.names = []string{"Other", "Synth"}
	o.scan()
	if o.PortName() != "Synth" {
		t.Errorf("PortName() = %q after replug, want Synth", o.PortName())
	}

	o.UnsetPort()
	o.scan()
	if o.HasActivePort() {
		t.Error("reconnected a port the user unset")
	}
}

func TestPortsTimeout(t *testing.T) {
	o := NewOutput()
	o.timeout = 10 * time.Millisecond
	block := make(chan struct{})
	defer close(block)
	o.listNames = func() []string { <-block; return nil }

	if _, err := o.Ports(); !errors.Is(err, ErrPortsTimeout) {
		t.Errorf("Ports() error = %v, want ErrPortsTimeout", err)
	}
}

func TestRunClosesPortOnCancel(t *testing.T) {
	f := &fakePorts{names: []string{"Synth"}}
	o := f.output()
	if err := o.SetPort(0, "Synth"); err != nil {
		t.Fatal(err)
	}
	<-o.Events()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if o.HasActivePort() || f.closed != 1 {
		t.Errorf("after Run returned active=%v closed=%d", o.HasActivePort(), f.closed)
	}
	var last PortEvent
	for ev := range o.Events() {
		last = ev
	}
	if last.Type != PortDisconnected || last.Name != "Synth" {
		t.Errorf("last event = %+v, want disconnected Synth", last)
	}
	o.Send(Event{Type: NoteOn, Note: 60, Velocity: 90})
	if len(f.sent) != 0 {
		t.Error("sent after Run shut the output down")
	}
}
