// Package keys names the computer keyboard keys the performer uses.
//
// Codes follow the physical-position naming used by browsers and most
// keyboard APIs ("KeyQ" is the key left of W regardless of locale).
package keys

import "strings"

type Code string

// Physical is the ordered row of note keys: alternating top row and home row,
// left to right.
var Physical = [22]Code{
	"KeyQ", "KeyA",
	"KeyW", "KeyS",
	"KeyE", "KeyD",
	"KeyR", "KeyF",
	"KeyT", "KeyG",
	"KeyY", "KeyH",
	"KeyU", "KeyJ",
	"KeyI", "KeyK",
	"KeyO", "KeyL",
	"KeyP", "Semicolon",
	"BracketLeft", "Quote",
}

// Control keys
const (
	Comma       Code = "Comma"
	Period      Code = "Period"
	ShiftLeft   Code = "ShiftLeft"
	ControlLeft Code = "ControlLeft"
	Backquote   Code = "Backquote"
)

// Digit returns the code of a number row key, d in 0..9
func Digit(d int) Code {
	return Code("Digit" + string(rune('0'+d)))
}

// DigitValue returns the digit of a number row code
func (c Code) DigitValue() (int, bool) {
	s, ok := strings.CutPrefix(string(c), "Digit")
	if !ok || len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '0'), true
}

// Label is the short cap legend of a key
func (c Code) Label() string {
	switch c {
	case "Semicolon":
		return ";"
	case "Quote":
		return "'"
	case "BracketLeft":
		return "["
	case Comma:
		return ","
	case Period:
		return "."
	case Backquote:
		return "`"
	}
	if s, ok := strings.CutPrefix(string(c), "Key"); ok {
		return s
	}
	if d, ok := c.DigitValue(); ok {
		return string(rune('0' + d))
	}
	return string(c)
}

var byRune = func() map[rune]Code {
	m := make(map[rune]Code)
	for _, c := range Physical {
		l := []rune(strings.ToLower(c.Label()))
		m[l[0]] = c
	}
	for d := 0; d < 10; d++ {
		m[rune('0'+d)] = Digit(d)
	}
	m[','] = Comma
	m['.'] = Period
	m['`'] = Backquote
	return m
}()

// FromRune maps a typed character (US layout, unshifted) to its key code
func FromRune(r rune) (Code, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	c, ok := byRune[r]
	return c, ok
}
