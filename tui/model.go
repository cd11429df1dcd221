package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-keyrow/config"
	"go-keyrow/debug"
	"go-keyrow/input"
	"go-keyrow/keys"
	"go-keyrow/midi"
	"go-keyrow/note"
	"go-keyrow/perform"
	"go-keyrow/theme"
	"go-keyrow/widgets"
)

// Ports is the output side the UI drives
type Ports interface {
	Ports() ([]string, error)
	SetPort(index int, name string) error
	UnsetPort()
	HasActivePort() bool
	PortName() string
	Events() <-chan midi.PortEvent
}

type screen int

const (
	screenPorts screen = iota
	screenPerform
)

// status is refreshed by controller notifications; shared by model copies
type status struct {
	window   string
	controls string
	lastNote note.Note
	played   bool
	warning  string
}

type Model struct {
	Controller *perform.Controller
	Relay      *input.Relay
	Output     Ports
	Config     *config.Config
	Theme      *theme.Theme

	keys      keyMap
	help      help.Model
	holds     *holds
	evdevKeys <-chan input.KeyEvent
	status    *status

	screen      screen
	ports       []string
	cursor      int
	autoConnect string // port to select once it is listed
	err         error
	quitting    bool
}

// KeyEventMsg carries a key transition from a device source
type KeyEventMsg input.KeyEvent

type PortEventMsg midi.PortEvent

type portsMsg struct {
	names []string
	err   error
}

func NewModel(ctrl *perform.Controller, relay *input.Relay, out Ports, cfg *config.Config, th *theme.Theme) Model {
	m := Model{
		Controller:  ctrl,
		Relay:       relay,
		Output:      out,
		Config:      cfg,
		Theme:       th,
		keys:        newKeyMap(),
		help:        help.New(),
		holds:       newHolds(time.Duration(cfg.Input.HoldMillis) * time.Millisecond),
		status:      &status{},
		autoConnect: cfg.Output.PortName,
	}

	s := m.status
	ctrl.OnChange(func() { s.window = describeWindow(ctrl) })
	ctrl.OnControlChange(func() { s.controls = describeControls(ctrl, th) })
	ctrl.OnNoteChange(func(n note.Note) { s.lastNote, s.played = n, true })
	s.window = describeWindow(ctrl)
	s.controls = describeControls(ctrl, th)
	return m
}

// WithKeyEvents makes ch the key source; terminal key presses then only
// drive the UI itself
func (m Model) WithKeyEvents(ch <-chan input.KeyEvent) Model {
	m.evdevKeys = ch
	return m
}

func describeWindow(c *perform.Controller) string {
	l := c.Layout()
	last := l.Start() + note.Note(l.Len()-1)
	return fmt.Sprintf("%s..%s %s", l.Start(), last, l.Mode())
}

func describeControls(c *perform.Controller, th *theme.Theme) string {
	v := c.Velocity()
	base := lipgloss.NewStyle().Foreground(th.Velocity(v.Base)).Render(fmt.Sprintf("%3d", v.Base))
	return fmt.Sprintf("vel %s ±%-2d %-6s  sustain %s  pitch %s",
		base, v.Randomizer.Spread(), v.Randomizer, th.Flag(c.Sustain()), th.Flag(c.TranslateByPitch()))
}

func scanPorts(out Ports) tea.Cmd {
	return func() tea.Msg {
		names, err := out.Ports()
		return portsMsg{names: names, err: err}
	}
}

func ListenForPorts(out Ports) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-out.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(ev)
	}
}

func ListenForKeys(ch <-chan input.KeyEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return KeyEventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		scanPorts(m.Output),
		ListenForPorts(m.Output),
		ListenForKeys(m.evdevKeys),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.releaseAll()
			m.quitting = true
			return m, tea.Quit
		}
		if m.screen == screenPorts {
			return m.updatePorts(msg)
		}
		return m.updatePerform(msg)

	case portsMsg:
		m.ports, m.err = msg.names, msg.err
		m.cursor = min(m.cursor, max(len(m.ports)-1, 0))
		if m.autoConnect != "" {
			name := m.autoConnect
			m.autoConnect = ""
			for i, n := range m.ports {
				if n == name {
					m.cursor = i
					return m.selectPort()
				}
			}
		}

	case PortEventMsg:
		switch msg.Type {
		case midi.PortDisconnected:
			m.status.warning = fmt.Sprintf("%s gone, waiting for it to return", msg.Name)
		case midi.PortConnected:
			m.status.warning = ""
		}
		return m, ListenForPorts(m.Output)

	case KeyEventMsg:
		// key-ups always pass so a key held across a screen change is let go
		if m.screen == screenPerform || !msg.Down {
			m.Relay.Dispatch(input.KeyEvent(msg))
		}
		return m, ListenForKeys(m.evdevKeys)

	case releaseMsg:
		if ev, ok := m.holds.release(msg); ok {
			m.Relay.Dispatch(ev)
		}
	}

	return m, nil
}

func (m Model) updatePorts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.ports)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Rescan):
		return m, scanPorts(m.Output)
	case key.Matches(msg, m.keys.Select):
		return m.selectPort()
	}
	return m, nil
}

func (m Model) selectPort() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.ports) {
		return m, nil
	}
	name := m.ports[m.cursor]
	if err := m.Output.SetPort(m.cursor, name); err != nil {
		m.err = err
		return m, scanPorts(m.Output)
	}
	if err := m.Config.RememberPort(name); err != nil {
		debug.Error("config", err, "remember port %s", name)
	}
	m.err = nil
	m.status.warning = ""
	m.screen = screenPerform
	m.keys.performing = true
	return m, nil
}

func (m Model) updatePerform(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.releaseAll()
		m.Output.UnsetPort()
		m.screen = screenPorts
		m.keys.performing = false
		return m, scanPorts(m.Output)
	case key.Matches(msg, m.keys.Randomize):
		r := m.Controller.Velocity().Randomizer
		m.Controller.SetVelocityRandomizer((r + 1) % (perform.RandomHigh + 1))
		return m, nil
	}

	// A device source reports these keys itself
	if m.evdevKeys != nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Sustain):
		m.Controller.SetSustain(!m.Controller.Sustain())
	case key.Matches(msg, m.keys.OctDown):
		m.boosted(keys.Comma)
	case key.Matches(msg, m.keys.OctUp):
		m.boosted(keys.Period)
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		code, ok := keys.FromRune(msg.Runes[0])
		if !ok {
			return m, nil
		}
		ev, cmd := m.holds.press(code)
		m.Relay.Dispatch(ev)
		return m, cmd
	}
	return m, nil
}

// boosted taps code with the boost modifier held
func (m Model) boosted(code keys.Code) {
	m.Relay.Dispatch(input.KeyEvent{Code: keys.ControlLeft, Down: true})
	m.Relay.Dispatch(input.KeyEvent{Code: code, Down: true})
	m.Relay.Dispatch(input.KeyEvent{Code: code})
	m.Relay.Dispatch(input.KeyEvent{Code: keys.ControlLeft})
}

// releaseAll ends every held note and the pedal
func (m Model) releaseAll() {
	for _, ev := range m.holds.releaseAll() {
		m.Relay.Dispatch(ev)
	}
	m.Controller.ReleaseAll()
	m.Controller.SetSustain(false)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	var out strings.Builder
	out.WriteString("\n")

	switch m.screen {
	case screenPorts:
		out.WriteString(headerStyle.Render("go-keyrow  select an output port"))
		out.WriteString("\n\n")
		out.WriteString(m.viewPorts())
	case screenPerform:
		port := "(no port)"
		if m.Output.HasActivePort() {
			port = m.Output.PortName()
		}
		out.WriteString(headerStyle.Render(fmt.Sprintf("go-keyrow  %s  %s", port, m.status.window)))
		out.WriteString("\n")
		out.WriteString(m.status.controls)
		out.WriteString("\n\n")
		out.WriteString(widgets.RenderKeyboard(m.Controller.Entries(), m.Controller.IsPressed, m.Theme))
		out.WriteString("\n\n")
		last := "-"
		if m.status.played {
			last = m.status.lastNote.Name()
		}
		out.WriteString(dimStyle.Render("last " + last))
		if m.evdevKeys == nil {
			out.WriteString(dimStyle.Render("  (terminal input: space holds the pedal, < > move an octave)"))
		}
		out.WriteString("\n\n")
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(widgets.PerformKeys)))
	}

	if m.err != nil {
		out.WriteString("\n\n")
		out.WriteString(warnStyle.Render(m.err.Error()))
	}
	if m.status.warning != "" && m.screen == screenPerform {
		out.WriteString("\n\n")
		out.WriteString(warnStyle.Render(m.status.warning))
	}

	out.WriteString("\n\n")
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) viewPorts() string {
	if len(m.ports) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("  no output ports (r to rescan)")
	}
	selected := lipgloss.NewStyle().Foreground(m.Theme.WhiteKey())
	var lines []string
	for i, name := range m.ports {
		if i == m.cursor {
			lines = append(lines, selected.Render(fmt.Sprintf("%c %s", m.Theme.Symbols.Cursor, name)))
		} else {
			lines = append(lines, "  "+name)
		}
	}
	return strings.Join(lines, "\n")
}
