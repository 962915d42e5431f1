package gameplay

import "fmt"

// Mode chooses who plays PlayerB.
type Mode uint8

const (
	// PvP is two humans sharing one device.
	PvP Mode = iota
	// PvC hands PlayerB to the computer.
	PvC
)

func (m Mode) String() string {
	switch m {
	case PvP:
		return "pvp"
	case PvC:
		return "pvc"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "pvp":
		return PvP, nil
	case "pvc":
		return PvC, nil
	default:
		return PvP, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// HardFallback decides what the computer does when the hard strategy finds
// no immediate win.
type HardFallback uint8

const (
	// FallbackRandom plays a random empty cell instead.
	FallbackRandom HardFallback = iota
	// FallbackStall passes the turn back without placing a mark.
	FallbackStall
)

func (f HardFallback) String() string {
	if f == FallbackStall {
		return "stall"
	}
	return "random"
}

func ParseHardFallback(s string) (HardFallback, error) {
	switch s {
	case "random", "":
		return FallbackRandom, nil
	case "stall":
		return FallbackStall, nil
	default:
		return FallbackRandom, fmt.Errorf("unknown hard fallback %q", s)
	}
}
