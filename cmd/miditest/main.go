package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-keyrow/input"
	"go-keyrow/layout"
	"go-keyrow/midi"
	"go-keyrow/note"
	"go-keyrow/perform"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "scale":
		playScale(os.Args[2:])
	case "sustain":
		testSustain(os.Args[2:])
	case "poll":
		pollPorts(os.Args[2:])
	case "keys":
		echoKeys(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - List MIDI output ports")
	fmt.Println("  scale <port> [start]  - Play every key of the layout from start (default C3)")
	fmt.Println("  sustain <port>        - Hold a chord, release it under the pedal, let go")
	fmt.Println("  poll <port>           - Connect and report the port vanishing/returning")
	fmt.Println("  keys [device]         - Print evdev key events (Linux)")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.NewOutput().Ports()
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func connect(args []string) *midi.Output {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	out := midi.NewOutput()
	if err := out.SetPortByName(args[0]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Using output: %s\n", out.PortName())
	return out
}

// player drives a controller the way a keyboard would
type player struct {
	ctrl  *perform.Controller
	relay *input.Relay
}

func newPlayer(out *midi.Output, opts ...perform.Option) *player {
	ctrl, err := perform.New(out, opts...)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	relay := input.NewRelay()
	if err := ctrl.Init(relay); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return &player{ctrl: ctrl, relay: relay}
}

func (p *player) tap(e layout.Entry, hold time.Duration) {
	fmt.Printf("  %-11s %-4s (%d)\n", e.Key, e.Note, e.Note.MIDI())
	p.relay.Dispatch(input.KeyEvent{Code: e.Key, Down: true})
	time.Sleep(hold)
	p.relay.Dispatch(input.KeyEvent{Code: e.Key})
}

func playScale(args []string) {
	out := connect(args)
	defer out.Close()

	start := note.Default
	if len(args) > 1 {
		n, err := note.Parse(args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		start = n
	}

	p := newPlayer(out, perform.WithStartNote(start))
	defer p.ctrl.Close()

	fmt.Printf("Playing %s layout from %s\n", p.ctrl.Layout().Mode(), p.ctrl.StartNote())
	for _, e := range p.ctrl.Entries() {
		p.tap(e, 150*time.Millisecond)
	}
	fmt.Println("Done!")
}

func testSustain(args []string) {
	out := connect(args)
	defer out.Close()

	p := newPlayer(out)
	defer p.ctrl.Close()

	chord := []string{"C3", "E3", "G3"}
	for _, name := range chord {
		key, _ := p.ctrl.KeyFor(note.MustParse(name))
		p.relay.Dispatch(input.KeyEvent{Code: key, Down: true})
	}
	fmt.Println("Chord down, pedal down...")
	p.ctrl.SetSustain(true)
	time.Sleep(500 * time.Millisecond)

	for _, name := range chord {
		key, _ := p.ctrl.KeyFor(note.MustParse(name))
		p.relay.Dispatch(input.KeyEvent{Code: key})
	}
	fmt.Println("Keys up, should still ring...")
	time.Sleep(2 * time.Second)

	p.ctrl.SetSustain(false)
	fmt.Println("Pedal up. Done!")
}

func pollPorts(args []string) {
	out := connect(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go out.Run(ctx)

	fmt.Println("Unplug/replug the synth to test. Ctrl+C to exit.")
	for ev := range out.Events() {
		state := "connected"
		if ev.Type == midi.PortDisconnected {
			state = "disconnected"
		}
		fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), ev.Name, state)
	}
}

func echoKeys(args []string) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		found, err := input.FindKeyboard()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		path = found
	}

	src := &input.Evdev{Path: path}
	stop, err := src.Listen(func(ev input.KeyEvent) {
		state := "up"
		switch {
		case ev.Repeat:
			state = "repeat"
		case ev.Down:
			state = "down"
		}
		fmt.Printf("  %-12s %s\n", ev.Code, state)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	fmt.Printf("Reading %s. Ctrl+C to exit.\n", path)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	<-ctx.Done()
}
