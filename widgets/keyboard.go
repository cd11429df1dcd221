package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"go-keyrow/layout"
	"go-keyrow/note"
	"go-keyrow/theme"
)

const cellWidth = 3

// RenderKeyboard draws the mapped notes as a two row piano: black keys on
// top, white keys below, one column per note, plus a line naming each C.
func RenderKeyboard(entries []layout.Entry, pressed func(note.Note) bool, th *theme.Theme) string {
	blank := strings.Repeat(" ", cellWidth)

	var top, bottom, marks strings.Builder
	for _, e := range entries {
		cell := renderKey(e, pressed(e.Note), th)
		if e.Color == layout.Black {
			top.WriteString(cell)
			bottom.WriteString(blank)
		} else {
			top.WriteString(blank)
			bottom.WriteString(cell)
		}
		marks.WriteString(octaveMark(e.Note, th))
	}
	return strings.Join([]string{top.String(), bottom.String(), marks.String()}, "\n")
}

func renderKey(e layout.Entry, down bool, th *theme.Theme) string {
	style := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	switch {
	case down:
		style = style.Background(th.Pressed()).Foreground(th.BG()).Bold(true)
	case e.Color == layout.Black:
		style = style.Background(th.BlackKey()).Foreground(th.FG())
	default:
		style = style.Background(th.WhiteKey()).Foreground(th.BG())
	}
	return style.Render(e.Key.Label())
}

func octaveMark(n note.Note, th *theme.Theme) string {
	name := n.Name()
	if name[0] != 'C' || n.IsBlack() {
		return strings.Repeat(" ", cellWidth)
	}
	// C names are at most two characters after the marker ("C3")
	label := fmt.Sprintf("%c%-*s", th.Symbols.Octave, cellWidth-1, name)
	return lipgloss.NewStyle().Foreground(th.Muted()).Render(label)
}

// RenderMappingTable lists every key of a layout with its note
func RenderMappingTable(entries []layout.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "NOTE", "MIDI", "COLOR")
	for _, e := range entries {
		t.Row(e.Key.Label(), e.Note.Name(), fmt.Sprint(e.Note.MIDI()), e.Color.String())
	}
	return t.String()
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// PerformKeys describes the performance keys the controller reads itself
var PerformKeys = []KeySection{
	{Title: "Keys", Keys: []KeyBinding{
		{"Q..'", "play the note row"},
		{", .", "move the row down / up"},
		{"ctrl", "hold for octave moves"},
		{"shift", "sustain pedal"},
		{"`", "toggle pitch layout"},
		{"1..0", "base velocity"},
	}},
}
