package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-keyrow/layout"
	"go-keyrow/midi"
	"go-keyrow/note"
	"go-keyrow/widgets"
)

var layoutPitch bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var layoutCmd = &cobra.Command{
	Use:   "layout [start]",
	Short: "Print the key to note mapping for a start note",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().BoolVar(&layoutPitch, "pitch", false, "use the pitch layout")
}

func runPorts(cmd *cobra.Command, args []string) error {
	names, err := midi.NewOutput().Ports()
	if err != nil {
		return fmt.Errorf("%w (on macOS try: sudo killall coreaudiod midiserver)", err)
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "no MIDI output ports")
		return nil
	}
	for i, name := range names {
		fmt.Fprintf(out, "  %d: %s\n", i, name)
	}
	return nil
}

func runLayout(cmd *cobra.Command, args []string) error {
	start := note.Default
	if len(args) == 1 {
		n, err := note.Parse(args[0])
		if err != nil {
			return err
		}
		start = n
	}
	mode := layout.ModeCam
	if layoutPitch {
		mode = layout.ModePitch
	}

	l, err := layout.Generate(start, mode)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s layout from %s\n", l.Mode(), l.Start())
	fmt.Fprintln(out, widgets.RenderMappingTable(l.Entries()))
	return nil
}
