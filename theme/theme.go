package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	On  rune // ● sustain/boost/pitch mode engaged
	Off rune // ○ disengaged

	Cursor rune // ▸ selected port
	Octave rune // ┃ marks every C on the keyboard row
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			On:     '●',
			Off:    '○',
			Cursor: '▸',
			Octave: '┃',
		},
	}
}

// Default is the theme with the built-in palette
func Default() *Theme {
	return New(Plasma())
}

// Load builds a theme from a GIMP palette file, or the default for ""
func Load(palettePath string) (*Theme, error) {
	if palettePath == "" {
		return Default(), nil
	}
	p, err := LoadGPL(palettePath)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG       = 0.0 // deep purple
	RoleBlackKey = 0.1 // dark purple
	RoleMuted    = 0.2 // purple-magenta
	RoleFG       = 0.4 // pink-purple (readable)
	RoleAccent   = 0.5 // vivid magenta
	RolePressed  = 0.7 // soft red
	RoleWarning  = 0.8 // orange
	RoleWhiteKey = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) WhiteKey() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWhiteKey))
}

func (t *Theme) BlackKey() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBlackKey))
}

func (t *Theme) Pressed() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RolePressed))
}

// Velocity shades a 0-127 velocity along the palette
func (t *Theme) Velocity(v int) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(float64(v) / 127))
}

// Flag renders the on/off symbol
func (t *Theme) Flag(on bool) string {
	if on {
		return string(t.Symbols.On)
	}
	return string(t.Symbols.Off)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
