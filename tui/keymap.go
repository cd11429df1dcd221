package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings the UI handles itself. Note, velocity and
// translate keys go straight to the controller.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Rescan key.Binding

	Sustain   key.Binding
	OctDown   key.Binding
	OctUp     key.Binding
	Randomize key.Binding

	Back key.Binding
	Quit key.Binding

	performing bool
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use port")),
		Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),

		Sustain:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "sustain")),
		OctDown:   key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "octave down")),
		OctUp:     key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "octave up")),
		Randomize: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "randomizer")),

		Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "ports")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.performing {
		return []key.Binding{k.Sustain, k.OctDown, k.OctUp, k.Randomize, k.Back, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.Select, k.Rescan, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
