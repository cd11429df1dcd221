package perform

import (
	"fmt"
	"strings"
)

// Randomizer sets how far each note-on velocity may stray from the base
type Randomizer int

const (
	RandomOff Randomizer = iota
	RandomLow
	RandomMedium
	RandomHigh
)

var randomizerNames = [...]string{"off", "low", "medium", "high"}

// spread is the half width of the jitter range per setting
var spread = [...]int{0, 5, 15, 25}

func (r Randomizer) String() string {
	if r < RandomOff || r > RandomHigh {
		return fmt.Sprintf("Randomizer(%d)", int(r))
	}
	return randomizerNames[r]
}

// Spread returns the jitter half width: velocity moves within [-s, +s]
func (r Randomizer) Spread() int {
	if r < RandomOff || r > RandomHigh {
		return 0
	}
	return spread[r]
}

func ParseRandomizer(s string) (Randomizer, error) {
	for i, name := range randomizerNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Randomizer(i), nil
		}
	}
	return RandomOff, fmt.Errorf("perform: unknown randomizer %q (want off|low|medium|high)", s)
}

// Velocity is the note-on velocity setting
type Velocity struct {
	Base       int // 0 - 127
	Randomizer Randomizer
}

// VelocityTable holds the base velocities of the number row, key 1 first
var VelocityTable = [10]int{13, 25, 38, 51, 64, 76, 89, 100, 114, 127}

// DigitVelocity returns the base velocity bound to number row key d (0..9)
func DigitVelocity(d int) int {
	return VelocityTable[(d+9)%10]
}

func clampVelocity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
