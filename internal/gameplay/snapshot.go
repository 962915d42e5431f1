package gameplay

import (
	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/game"
)

// Snapshot is the read-only view handed back after every call.
type Snapshot struct {
	Cells          [game.Size * game.Size]game.Cell `json:"cells"`
	Outcome        game.Outcome                     `json:"outcome"`
	Active         game.Cell                        `json:"active"`
	Mode           Mode                             `json:"mode"`
	Difficulty     bot.Difficulty                   `json:"difficulty"`
	ComputerToMove bool                             `json:"computer_to_move"`
	LastMove       *Move                            `json:"last_move,omitempty"`
	Skipped        bool                             `json:"skipped,omitempty"`
}

func newSnapshot(s State) Snapshot {
	snap := Snapshot{
		Cells:          s.Board.Cells(),
		Outcome:        s.Outcome,
		Active:         s.Active,
		Mode:           s.Mode,
		Difficulty:     s.Difficulty,
		ComputerToMove: s.ComputerToMove(),
		Skipped:        s.Skipped,
	}
	if s.LastMove != nil {
		move := *s.LastMove
		snap.LastMove = &move
	}
	return snap
}

// Board rebuilds the grid from the flattened cells.
func (s Snapshot) Board() game.Board {
	var b game.Board
	for i, cell := range s.Cells {
		b[i/game.Size][i%game.Size] = cell
	}
	return b
}
