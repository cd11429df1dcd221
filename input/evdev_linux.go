//go:build linux

package input

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/holoplot/go-evdev"

	"go-keyrow/debug"
	"go-keyrow/keys"
)

// evdev key values
const (
	evKeyRelease = 0
	evKeyPress   = 1
	evKeyRepeat  = 2
)

var evdevCodes = map[evdev.EvCode]keys.Code{
	evdev.KEY_Q:          "KeyQ",
	evdev.KEY_A:          "KeyA",
	evdev.KEY_W:          "KeyW",
	evdev.KEY_S:          "KeyS",
	evdev.KEY_E:          "KeyE",
	evdev.KEY_D:          "KeyD",
	evdev.KEY_R:          "KeyR",
	evdev.KEY_F:          "KeyF",
	evdev.KEY_T:          "KeyT",
	evdev.KEY_G:          "KeyG",
	evdev.KEY_Y:          "KeyY",
	evdev.KEY_H:          "KeyH",
	evdev.KEY_U:          "KeyU",
	evdev.KEY_J:          "KeyJ",
	evdev.KEY_I:          "KeyI",
	evdev.KEY_K:          "KeyK",
	evdev.KEY_O:          "KeyO",
	evdev.KEY_L:          "KeyL",
	evdev.KEY_P:          "KeyP",
	evdev.KEY_SEMICOLON:  "Semicolon",
	evdev.KEY_LEFTBRACE:  "BracketLeft",
	evdev.KEY_APOSTROPHE: "Quote",
	evdev.KEY_1:          keys.Digit(1),
	evdev.KEY_2:          keys.Digit(2),
	evdev.KEY_3:          keys.Digit(3),
	evdev.KEY_4:          keys.Digit(4),
	evdev.KEY_5:          keys.Digit(5),
	evdev.KEY_6:          keys.Digit(6),
	evdev.KEY_7:          keys.Digit(7),
	evdev.KEY_8:          keys.Digit(8),
	evdev.KEY_9:          keys.Digit(9),
	evdev.KEY_0:          keys.Digit(0),
	evdev.KEY_COMMA:      keys.Comma,
	evdev.KEY_DOT:        keys.Period,
	evdev.KEY_LEFTSHIFT:  keys.ShiftLeft,
	evdev.KEY_LEFTCTRL:   keys.ControlLeft,
	evdev.KEY_GRAVE:      keys.Backquote,
}

// Evdev reads a Linux input device (/dev/input/eventN). The process needs
// read access to the device, usually via the "input" group.
type Evdev struct {
	Path string
}

// FindKeyboard returns the first input device that can type letters
func FindKeyboard() (string, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}
	for _, p := range paths {
		if strings.Contains(strings.ToLower(p.Name), "keyboard") {
			return p.Path, nil
		}
	}
	return "", errors.New("input: no keyboard device found")
}

// Translate maps a raw evdev event to a KeyEvent
func Translate(e *evdev.InputEvent) (KeyEvent, bool) {
	if e.Type != evdev.EV_KEY {
		return KeyEvent{}, false
	}
	code, ok := evdevCodes[e.Code]
	if !ok {
		return KeyEvent{}, false
	}
	switch e.Value {
	case evKeyRelease:
		return KeyEvent{Code: code}, true
	case evKeyPress:
		return KeyEvent{Code: code, Down: true}, true
	case evKeyRepeat:
		return KeyEvent{Code: code, Down: true, Repeat: true}, true
	}
	return KeyEvent{}, false
}

// Listen opens the device and calls handler from a reader goroutine
func (s *Evdev) Listen(handler func(KeyEvent)) (func(), error) {
	path := s.Path
	if path == "" {
		found, err := FindKeyboard()
		if err != nil {
			return nil, err
		}
		path = found
	}

	dev, err := evdev.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("open %s: %w (is the user in the input group?)", path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	name, _ := dev.Name()
	debug.Log("evdev", "listening on %s (%s)", path, name)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			e, err := dev.ReadOne()
			if err != nil {
				select {
				case <-done:
				default:
					debug.Log("evdev", "read %s: %v", path, err)
				}
				return
			}
			ev, ok := Translate(e)
			if !ok {
				continue
			}
			select {
			case <-done:
				return
			default:
				handler(ev)
			}
		}
	}()

	return func() {
		close(done)
		dev.Close()
		<-stopped
	}, nil
}
