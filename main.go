package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-keyrow/config"
	"go-keyrow/debug"
	"go-keyrow/input"
	"go-keyrow/midi"
	"go-keyrow/perform"
	"go-keyrow/theme"
	"go-keyrow/tui"
)

var (
	flagPort     string
	flagChannel  int
	flagInput    string
	flagDevice   string
	flagStart    string
	flagPitch    bool
	flagVelocity int
	flagRandom   string
	flagPalette  string
	flagDebug    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "go-keyrow",
	Short: "Play a MIDI synth from the computer keyboard",
	Long: `go-keyrow maps the two letter rows of the computer keyboard onto a
window of piano keys and sends the notes to a MIDI output port.

Keys:
  Q..'   notes (home row white, top row black)
  , .    move the window down / up (hold ctrl for an octave)
  shift  sustain pedal
  ` + "`" + `      toggle the pitch layout
  1..0   base velocity

Examples:
  go-keyrow
  go-keyrow --port "FluidSynth" --start A2
  go-keyrow --input evdev --device /dev/input/event3
  go-keyrow layout C3 --pitch`,
	SilenceUsage: true,
	RunE:         runPlay,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagPort, "port", "p", "", "output port to connect to on start")
	f.IntVarP(&flagChannel, "channel", "c", 1, "MIDI channel (1-16)")
	f.StringVarP(&flagInput, "input", "i", "tui", "key source: tui or evdev")
	f.StringVar(&flagDevice, "device", "", "evdev device path (default: first keyboard)")
	f.StringVarP(&flagStart, "start", "s", "C3", "lowest note of the window")
	f.BoolVar(&flagPitch, "pitch", false, "start in the pitch layout")
	f.IntVarP(&flagVelocity, "velocity", "v", 100, "base velocity (0-127)")
	f.StringVarP(&flagRandom, "random", "r", "medium", "velocity randomizer: off, low, medium or high")
	f.StringVar(&flagPalette, "palette", "", "GIMP palette (.gpl) for the UI colours")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "write a debug log to ~/.config/go-keyrow/debug.log")

	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(layoutCmd)
}

// loadConfig reads the config file and lays the flags the user set over it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("port") {
		cfg.Output.PortName = flagPort
	}
	if f.Changed("channel") {
		cfg.Output.Channel = flagChannel
	}
	if f.Changed("input") {
		cfg.Input.Kind = config.InputKind(flagInput)
	}
	if f.Changed("device") {
		cfg.Input.Device = flagDevice
	}
	if f.Changed("start") {
		cfg.Defaults.StartNote = flagStart
	}
	if f.Changed("pitch") {
		cfg.Defaults.PitchMode = flagPitch
	}
	if f.Changed("velocity") {
		cfg.Defaults.VelocityBase = flagVelocity
	}
	if f.Changed("random") {
		cfg.Defaults.Randomizer = flagRandom
	}
	if f.Changed("palette") {
		cfg.Palette = flagPalette
	}
	if flagDebug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func enableDebug(cfg *config.Config) {
	if !cfg.Debug {
		return
	}
	if err := debug.Enable(); err != nil {
		fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	enableDebug(cfg)
	defer debug.Disable()

	th, err := theme.Load(cfg.Palette)
	if err != nil {
		return err
	}

	output := midi.NewOutput()
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		output.Run(ctx)
		close(runDone)
	}()
	// Run closes the port on the way out
	defer func() {
		cancel()
		<-runDone
	}()

	ctrl, err := perform.New(output, cfg.ControllerOptions()...)
	if err != nil {
		return err
	}
	relay := input.NewRelay()
	if err := ctrl.Init(relay); err != nil {
		return err
	}
	defer ctrl.Close()

	m := tui.NewModel(ctrl, relay, output, cfg, th)

	if cfg.Input.Kind == config.InputEvdev {
		keyCh, stop, err := listenEvdev(cfg.Input.Device)
		if err != nil {
			return err
		}
		defer stop()
		m = m.WithKeyEvents(keyCh)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// listenEvdev reads the keyboard device into a channel the UI drains. An
// empty path picks the first keyboard.
func listenEvdev(path string) (<-chan input.KeyEvent, func(), error) {
	ch := make(chan input.KeyEvent, 64)
	done := make(chan struct{})
	src := &input.Evdev{Path: path}
	stop, err := src.Listen(func(ev input.KeyEvent) {
		select {
		case ch <- ev:
		case <-done:
		}
	})
	if err != nil {
		return nil, nil, err
	}

	return ch, func() {
		close(done)
		stop()
	}, nil
}
