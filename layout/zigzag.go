package layout

import (
	"fmt"

	"go-keyrow/keys"
)

// Color of a key slot. Slots alternate Black, White along keys.Physical,
// starting with Black.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

func colorOf(black bool) Color {
	if black {
		return Black
	}
	return White
}

func slotColor(pos int) Color {
	return colorOf(pos%2 == 0)
}

// zigzag hands out physical keys by colour. Black slots sit at even positions
// and white slots at odd ones, so the next slot of a colour is either the
// cursor itself or the one after it; the skipped slot is never handed out.
type zigzag struct {
	next int
}

func (z *zigzag) pop(c Color) (keys.Code, error) {
	pos := z.next
	if slotColor(pos) != c {
		pos++
	}
	if pos >= len(keys.Physical) {
		return "", fmt.Errorf("%w: no %s slot left after position %d", ErrLayoutExhausted, c, z.next)
	}
	z.next = pos + 1
	return keys.Physical[pos], nil
}
