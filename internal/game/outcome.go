package game

import "fmt"

// Status is the coarse state of a game after evaluation.
type Status uint8

const (
	StatusOngoing Status = iota
	StatusWon
	StatusDraw
)

func (s Status) String() string {
	switch s {
	case StatusWon:
		return "won"
	case StatusDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ongoing":
		*s = StatusOngoing
	case "won":
		*s = StatusWon
	case "draw":
		*s = StatusDraw
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Outcome is the result of evaluating a board. Winner is set only when
// Status is StatusWon.
type Outcome struct {
	Status Status `json:"status"`
	Winner Cell   `json:"winner"`
}

func Ongoing() Outcome { return Outcome{Status: StatusOngoing} }

func Won(player Cell) Outcome { return Outcome{Status: StatusWon, Winner: player} }

func Drawn() Outcome { return Outcome{Status: StatusDraw} }

// IsTerminal reports whether the game is over.
func (o Outcome) IsTerminal() bool {
	return o.Status != StatusOngoing
}

func (o Outcome) String() string {
	if o.Status == StatusWon {
		return fmt.Sprintf("won by %s", o.Winner)
	}
	return o.Status.String()
}
