package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-keyrow/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

var (
	ErrPortNotFound = errors.New("midi: output port not found")
	ErrPortsTimeout = errors.New("midi: port listing timed out")
)

// PortEvent is emitted when the active output port comes or goes
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

type sendFunc func(gomidi.Message) error

// Output owns the one synthesizer port messages are sent to
type Output struct {
	mu     sync.RWMutex
	name   string
	send   sendFunc
	close  func() error
	wanted string // reconnect to this port when it shows up

	events   chan PortEvent
	stopped  bool
	pollRate time.Duration
	timeout  time.Duration

	listNames func() []string
	open      func(index int, name string) (sendFunc, func() error, error)
}

// NewOutput creates an output on the registered gomidi driver. The program
// registers one by importing e.g. drivers/rtmididrv.
func NewOutput() *Output {
	return &Output{
		events:    make(chan PortEvent, 16),
		pollRate:  time.Second,
		timeout:   3 * time.Second,
		listNames: driverPortNames,
		open:      openDriverPort,
	}
}

func driverPortNames() []string {
	outs := gomidi.GetOutPorts()
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	return names
}

func openDriverPort(index int, name string) (sendFunc, func() error, error) {
	outs := gomidi.GetOutPorts()
	if index < 0 || index >= len(outs) || outs[index].String() != name {
		return nil, nil, fmt.Errorf("%w: %d %q", ErrPortNotFound, index, name)
	}
	send, err := gomidi.SendTo(outs[index])
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return send, outs[index].Close, nil
}

// Events returns a channel of port connect/disconnect events
func (o *Output) Events() <-chan PortEvent {
	return o.events
}

// Ports lists output port names (CoreMIDI can hang, so this times out)
func (o *Output) Ports() ([]string, error) {
	ch := make(chan []string, 1)
	go func() {
		ch <- o.listNames()
	}()

	select {
	case names := <-ch:
		return names, nil
	case <-time.After(o.timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrPortsTimeout
	}
}

// SetPort connects to the port at index, which must still carry name
func (o *Output) SetPort(index int, name string) error {
	send, closeFn, err := o.open(index, name)
	if err != nil {
		return err
	}

	o.mu.Lock()
	prev := o.close
	o.name, o.send, o.close, o.wanted = name, send, closeFn, name
	o.mu.Unlock()

	if prev != nil {
		prev()
	}
	debug.Log("midi", "output port set: %s", name)
	o.notify(PortEvent{Type: PortConnected, Name: name})
	return nil
}

// SetPortByName connects to the first port called name
func (o *Output) SetPortByName(name string) error {
	names, err := o.Ports()
	if err != nil {
		return err
	}
	for i, n := range names {
		if n == name {
			return o.SetPort(i, name)
		}
	}
	return fmt.Errorf("%w: %q", ErrPortNotFound, name)
}

// UnsetPort disconnects and forgets the active port
func (o *Output) UnsetPort() {
	o.mu.Lock()
	o.wanted = ""
	o.mu.Unlock()
	o.drop()
}

func (o *Output) drop() {
	o.mu.Lock()
	name, closeFn := o.name, o.close
	o.name, o.send, o.close = "", nil, nil
	o.mu.Unlock()

	if closeFn == nil {
		return
	}
	closeFn()
	debug.Log("midi", "output port closed: %s", name)
	o.notify(PortEvent{Type: PortDisconnected, Name: name})
}

func (o *Output) HasActivePort() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.send != nil
}

func (o *Output) PortName() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

// Send writes ev to the active port. Without a port the event is dropped.
func (o *Output) Send(ev Event) {
	o.mu.RLock()
	send := o.send
	o.mu.RUnlock()

	if send == nil {
		debug.LogEvery(50, "midi", "dropped %s: no port", ev)
		return
	}
	if err := send(ev.Message()); err != nil {
		debug.Error("midi", err, "send %s", ev)
	}
}

// Close disconnects the port
func (o *Output) Close() {
	o.UnsetPort()
}

func (o *Output) notify(ev PortEvent) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return
	}
	select {
	case o.events <- ev:
	default:
	}
}

// Run watches for the active port disappearing and for the wanted port
// reappearing (blocking - run in goroutine)
func (o *Output) Run(ctx context.Context) {
	ticker := time.NewTicker(o.pollRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.Close()
			o.mu.Lock()
			o.stopped = true
			close(o.events)
			o.mu.Unlock()
			return
		case <-ticker.C:
			o.scan()
		}
	}
}

func (o *Output) scan() {
	names, err := o.Ports()
	if err != nil {
		return
	}

	o.mu.RLock()
	active, wanted := o.name, o.wanted
	o.mu.RUnlock()

	index := -1
	for i, n := range names {
		if n == wanted {
			index = i
			break
		}
	}

	switch {
	case active != "" && index < 0:
		debug.Log("midi", "output port vanished: %s", active)
		o.drop()
	case active == "" && wanted != "" && index >= 0:
		if err := o.SetPort(index, wanted); err != nil {
			debug.Error("midi", err, "reconnect %s", wanted)
		}
	}
}
