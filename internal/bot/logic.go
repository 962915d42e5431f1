package bot

import (
	"errors"
	"math/rand/v2"
	"sync"

	"ctchen222/solo-tictactoe/internal/game"
)

// ErrNoWinningMove is returned by the hard strategy when no empty cell wins
// the game on the spot. The caller decides what the computer does instead.
var ErrNoWinningMove = errors.New("no winning move")

// Selector picks the computer player's next cell. It never mutates the
// board it is given; the only state it keeps is its random source.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector drawing from src.
func NewSelector(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

// NewSeededSelector creates a Selector whose easy moves are reproducible for
// a given seed. A zero seed picks a random one.
func NewSeededSelector(seed uint64) *Selector {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return NewSelector(rand.NewPCG(seed, seed))
}

// CalculateNextMove determines the computer's next move for mark based on
// the specified difficulty. A full board yields game.ErrNoMovesAvailable.
func (s *Selector) CalculateNextMove(board game.Board, mark game.Cell, difficulty Difficulty) (game.Coord, error) {
	switch difficulty {
	case Hard:
		return hardMove(board, mark)
	default:
		return s.easyMove(board)
	}
}

// easyMove makes a uniformly random move among the empty cells.
func (s *Selector) easyMove(board game.Board) (game.Coord, error) {
	availableMoves := board.EmptyCells()
	if len(availableMoves) == 0 {
		return game.Coord{}, game.ErrNoMovesAvailable
	}

	s.mu.Lock()
	i := s.rng.IntN(len(availableMoves))
	s.mu.Unlock()

	return availableMoves[i], nil
}

// hardMove looks one ply ahead: the first empty cell, in row-major order,
// that completes a line for mark. It does not block the opponent.
func hardMove(board game.Board, mark game.Cell) (game.Coord, error) {
	availableMoves := board.EmptyCells()
	if len(availableMoves) == 0 {
		return game.Coord{}, game.ErrNoMovesAvailable
	}

	for _, move := range availableMoves {
		trial := board
		if err := trial.Place(move.Row, move.Col, mark); err != nil {
			return game.Coord{}, err
		}
		if out := trial.Evaluate(); out.Status == game.StatusWon && out.Winner == mark {
			return move, nil
		}
	}

	return game.Coord{}, ErrNoWinningMove
}
