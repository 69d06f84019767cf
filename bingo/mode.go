package bingo

import "fmt"

// Mode is the active win pattern. It governs both the win predicate
// and which numbers are worth drawing at all.
type Mode string

const (
	ModeFull    Mode = "full"
	ModeLine    Mode = "line"
	ModeL       Mode = "L"
	ModeX       Mode = "X"
	ModeCorners Mode = "corners"
)

var modes = map[Mode]bool{
	ModeFull:    true,
	ModeLine:    true,
	ModeL:       true,
	ModeX:       true,
	ModeCorners: true,
}

func (m Mode) Valid() bool {
	return modes[m]
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown game mode %q", s)
	}
	return m, nil
}

// Letter returns the column letter a ball belongs to, e.g. 42 -> "N".
func Letter(n int) string {
	switch {
	case n >= 1 && n <= 15:
		return "B"
	case n >= 16 && n <= 30:
		return "I"
	case n >= 31 && n <= 45:
		return "N"
	case n >= 46 && n <= 60:
		return "G"
	case n >= 61 && n <= 75:
		return "O"
	}
	return ""
}
