package game

import (
	"errors"
	"fmt"
)

// Cell is the state of one board position: empty or holding a player's mark.
// A player is identified by the non-empty Cell it places.
type Cell uint8

const (
	Empty Cell = iota
	PlayerA
	PlayerB
)

const (
	// Size is the length of a board side.
	Size = 3

	// Board boundaries
	BorderMin = 0
	BorderMax = Size - 1
)

var (
	ErrOutOfRange       = errors.New("coordinate out of range")
	ErrCellOccupied     = errors.New("cell already occupied")
	ErrNoMovesAvailable = errors.New("no moves available")
	ErrInvalidPlayer    = errors.New("invalid player")
)

// Mark returns the symbol drawn for the cell.
func (c Cell) Mark() string {
	switch c {
	case PlayerA:
		return "X"
	case PlayerB:
		return "O"
	default:
		return ""
	}
}

func (c Cell) String() string {
	if c == Empty {
		return "empty"
	}
	return c.Mark()
}

// IsPlayer reports whether c identifies a player rather than an empty cell.
func (c Cell) IsPlayer() bool {
	return c == PlayerA || c == PlayerB
}

// Opponent returns the other player. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return Empty
	}
}

func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.Mark()), nil
}

func (c *Cell) UnmarshalText(text []byte) error {
	cell, err := ParseCell(string(text))
	if err != nil {
		return err
	}
	*c = cell
	return nil
}

// ParseCell converts a mark ("X", "O" or "") back into a Cell.
func ParseCell(mark string) (Cell, error) {
	switch mark {
	case "":
		return Empty, nil
	case "X":
		return PlayerA, nil
	case "O":
		return PlayerB, nil
	default:
		return Empty, fmt.Errorf("unknown mark %q", mark)
	}
}

// Coord addresses a cell by row and column, both zero-based.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InRange reports whether the coordinate lies on the board.
func (c Coord) InRange() bool {
	return c.Row >= BorderMin && c.Row <= BorderMax && c.Col >= BorderMin && c.Col <= BorderMax
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}
