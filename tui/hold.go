package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-keyrow/input"
	"go-keyrow/keys"
)

// Terminals only report presses. A key counts as held while its presses
// (first press, then auto-repeats) keep arriving within the hold window,
// and as released once the window passes in silence.

// releaseMsg fires when the hold window of a key runs out
type releaseMsg struct {
	code keys.Code
	gen  uint64
}

type holds struct {
	window time.Duration
	gen    uint64
	held   map[keys.Code]uint64 // code -> generation of its pending release
}

func newHolds(window time.Duration) *holds {
	return &holds{window: window, held: make(map[keys.Code]uint64)}
}

// press turns a terminal key press into a key-down, flagged as a repeat if
// the key is still held, and schedules its release
func (h *holds) press(code keys.Code) (input.KeyEvent, tea.Cmd) {
	_, repeat := h.held[code]
	h.gen++
	gen := h.gen
	h.held[code] = gen

	cmd := tea.Tick(h.window, func(time.Time) tea.Msg {
		return releaseMsg{code: code, gen: gen}
	})
	return input.KeyEvent{Code: code, Down: true, Repeat: repeat}, cmd
}

// release returns the key-up for msg, unless a later press superseded it
func (h *holds) release(msg releaseMsg) (input.KeyEvent, bool) {
	if gen, ok := h.held[msg.code]; !ok || gen != msg.gen {
		return input.KeyEvent{}, false
	}
	delete(h.held, msg.code)
	return input.KeyEvent{Code: msg.code}, true
}

// releaseAll lets go of every held key; pending ticks become stale
func (h *holds) releaseAll() []input.KeyEvent {
	evs := make([]input.KeyEvent, 0, len(h.held))
	for code := range h.held {
		evs = append(evs, input.KeyEvent{Code: code})
	}
	clear(h.held)
	return evs
}

func (h *holds) count() int {
	return len(h.held)
}
